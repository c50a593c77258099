// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Watchlist is the versioned process watchlist: the allow-list of tracked
// game clients plus the deny-lists of tampering tooling. It ships alongside
// the binary and is replaced wholesale on update; the version lets the
// backend tell which list a report was produced against.
type Watchlist struct {
	Version         int      `yaml:"version"`
	TrackedGames    []string `yaml:"tracked_games"`
	DebuggerTools   []string `yaml:"debugger_tools"`
	AutomationTools []string `yaml:"automation_tools"`
}

// LoadWatchlist loads the watchlist from a YAML file.
func LoadWatchlist(path string) (*Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist file %s: %w", path, err)
	}

	var wl Watchlist
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("failed to parse watchlist YAML: %w", err)
	}

	if err := wl.Validate(); err != nil {
		return nil, fmt.Errorf("invalid watchlist: %w", err)
	}

	return &wl, nil
}

// Validate checks the watchlist for structural errors.
func (w *Watchlist) Validate() error {
	if w.Version < 1 {
		return fmt.Errorf("watchlist version must be at least 1, got %d", w.Version)
	}
	if len(w.TrackedGames) == 0 {
		return fmt.Errorf("watchlist has no tracked games")
	}

	seen := make(map[string]bool)
	for _, game := range w.TrackedGames {
		if game == "" {
			return fmt.Errorf("watchlist has an empty tracked game entry")
		}
		if seen[game] {
			return fmt.Errorf("duplicate tracked game: %s", game)
		}
		seen[game] = true
	}

	for _, entry := range append(append([]string{}, w.DebuggerTools...), w.AutomationTools...) {
		if entry == "" {
			return fmt.Errorf("watchlist has an empty deny-list entry")
		}
	}

	return nil
}
