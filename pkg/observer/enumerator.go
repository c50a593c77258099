// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package observer

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

const enumeratorTimeout = 4 * time.Second

// ShellEnumerator queries the OS via its native process-listing command
// (tasklist on Windows, ps elsewhere). Foreground detection over shell
// commands is best-effort; where unavailable it returns the first tracked
// candidate from the process list and the session tracker compensates with
// its grace-period logic.
type ShellEnumerator struct{}

// NewShellEnumerator creates a platform-appropriate enumerator.
func NewShellEnumerator() *ShellEnumerator {
	return &ShellEnumerator{}
}

// ForegroundProcess implements Enumerator.
func (e *ShellEnumerator) ForegroundProcess(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, enumeratorTimeout)
	defer cancel()

	if runtime.GOOS == "windows" {
		// tasklist /v includes the window title column; the foreground
		// window is resolved by the powershell one-liner below.
		out, err := exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command",
			"(Get-Process | Where-Object {$_.MainWindowHandle -ne 0} | Select-Object -First 1).ProcessName").Output()
		if err != nil {
			return "", fmt.Errorf("powershell foreground query: %w", err)
		}
		return strings.TrimSpace(string(out)), nil
	}

	// No portable POSIX foreground query. Report unknown and let the
	// caller classify from the full process list; the session tracker's
	// grace period absorbs the reduced signal.
	return "", nil
}

// ListProcesses implements Enumerator.
func (e *ShellEnumerator) ListProcesses(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, enumeratorTimeout)
	defer cancel()

	var out []byte
	var err error
	if runtime.GOOS == "windows" {
		out, err = exec.CommandContext(ctx, "tasklist", "/fo", "csv", "/nh").Output()
	} else {
		out, err = exec.CommandContext(ctx, "ps", "-axco", "comm=").Output()
	}
	if err != nil {
		return nil, fmt.Errorf("process list command failed: %w", err)
	}

	return parseProcessList(string(out), runtime.GOOS == "windows"), nil
}

// parseProcessList extracts process names from the command output.
func parseProcessList(out string, windowsCSV bool) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if windowsCSV {
			// First CSV column is the quoted image name.
			fields := strings.SplitN(line, ",", 2)
			name := strings.Trim(fields[0], `"`)
			if name != "" {
				names = append(names, name)
			}
			continue
		}
		names = append(names, line)
	}
	return names
}
