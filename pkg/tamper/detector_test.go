// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package tamper

import (
	"reflect"
	"testing"
	"time"
)

func testDetector() *Detector {
	return NewDetector(Config{
		DebuggerTools:   []string{"x64dbg", "ollydbg", "ida64", "cheatengine"},
		AutomationTools: []string{"AutoHotkey", "AutoIt3", "TinyTask"},
	})
}

func cleanInput(now time.Time) Input {
	return Input{
		Duration:         45 * time.Minute,
		IdleWarnings:     2,
		SessionsInWindow: 3,
		Processes:        []string{"LeagueClient.exe", "chrome.exe", "discord.exe"},
		SuspicionCount:   0,
		Now:              now,
	}
}

func TestAssess_Clean(t *testing.T) {
	d := testDetector()
	a := d.Assess(cleanInput(time.Now()))

	if a.Classification != Clean {
		t.Errorf("Classification = %s, expected clean", a.Classification)
	}
	if len(a.Reasons) != 0 {
		t.Errorf("Reasons = %v, expected empty", a.Reasons)
	}
	if a.ScoreDelta != 0 {
		t.Errorf("ScoreDelta = %d, expected 0", a.ScoreDelta)
	}
	if a.AccountUnderReview {
		t.Error("AccountUnderReview = true for a clean first session")
	}
}

func TestAssess_DebuggerFlagged(t *testing.T) {
	d := testDetector()
	in := cleanInput(time.Now())
	in.Processes = append(in.Processes, "x64dbg.exe")

	a := d.Assess(in)

	if a.Classification != Flagged {
		t.Errorf("Classification = %s, expected flagged", a.Classification)
	}
	if !reflect.DeepEqual(a.Reasons, []Reason{ReasonDebuggerDetected}) {
		t.Errorf("Reasons = %v, expected [debugger_detected]", a.Reasons)
	}
	if a.ScoreDelta != DefaultFatalScoreDelta {
		t.Errorf("ScoreDelta = %d, expected %d", a.ScoreDelta, DefaultFatalScoreDelta)
	}
}

func TestAssess_DenyListIsCaseInsensitive(t *testing.T) {
	d := testDetector()
	in := cleanInput(time.Now())
	in.Processes = append(in.Processes, "CheatEngine75.exe")

	if a := d.Assess(in); a.Classification != Flagged {
		t.Errorf("Classification = %s, expected flagged for renamed cheat engine binary", a.Classification)
	}
}

func TestAssess_FatalPrecedence(t *testing.T) {
	// Debugger present AND >10 sessions today: classification must be
	// flagged, never suspicious, with the fatal code in the reasons set.
	d := testDetector()
	in := cleanInput(time.Now())
	in.Processes = append(in.Processes, "ollydbg.exe")
	in.SessionsInWindow = 11

	a := d.Assess(in)

	if a.Classification != Flagged {
		t.Fatalf("Classification = %s, expected flagged", a.Classification)
	}
	want := []Reason{ReasonDebuggerDetected, ReasonTooManySessions}
	if !reflect.DeepEqual(a.Reasons, want) {
		t.Errorf("Reasons = %v, expected %v (fatal rules evaluated first)", a.Reasons, want)
	}
	if a.ScoreDelta != DefaultFatalScoreDelta {
		t.Errorf("ScoreDelta = %d, expected fatal delta %d", a.ScoreDelta, DefaultFatalScoreDelta)
	}
}

func TestAssess_EleventhSessionSuspicious(t *testing.T) {
	d := testDetector()
	in := cleanInput(time.Now())
	in.SessionsInWindow = 11

	a := d.Assess(in)

	if a.Classification != Suspicious {
		t.Errorf("Classification = %s, expected suspicious", a.Classification)
	}
	if !reflect.DeepEqual(a.Reasons, []Reason{ReasonTooManySessions}) {
		t.Errorf("Reasons = %v, expected [too_many_sessions_today]", a.Reasons)
	}
	if a.ScoreDelta != 1 {
		t.Errorf("ScoreDelta = %d, expected 1", a.ScoreDelta)
	}
}

func TestAssess_NoIdleVariance(t *testing.T) {
	d := testDetector()
	in := cleanInput(time.Now())
	in.Duration = 3 * time.Hour
	in.IdleWarnings = 0

	a := d.Assess(in)

	if a.Classification != Suspicious {
		t.Errorf("Classification = %s, expected suspicious", a.Classification)
	}
	if !reflect.DeepEqual(a.Reasons, []Reason{ReasonNoIdleVariance}) {
		t.Errorf("Reasons = %v, expected [no_idle_variance]", a.Reasons)
	}

	// A short session with zero idle warnings is normal.
	in.Duration = 90 * time.Minute
	if a := d.Assess(in); a.Classification != Clean {
		t.Errorf("Classification = %s for short zero-idle session, expected clean", a.Classification)
	}
}

func TestAssess_MultipleBehavioralReasons(t *testing.T) {
	d := testDetector()
	in := cleanInput(time.Now())
	in.Duration = 7 * time.Hour
	in.IdleWarnings = 0
	in.SessionsInWindow = 12

	a := d.Assess(in)

	if a.Classification != Suspicious {
		t.Fatalf("Classification = %s, expected suspicious", a.Classification)
	}
	want := []Reason{ReasonSessionTooLong, ReasonTooManySessions, ReasonNoIdleVariance}
	if !reflect.DeepEqual(a.Reasons, want) {
		t.Errorf("Reasons = %v, expected %v", a.Reasons, want)
	}
	if a.ScoreDelta != 3 {
		t.Errorf("ScoreDelta = %d, expected 3 (one per distinct reason)", a.ScoreDelta)
	}
}

func TestAssess_Deterministic(t *testing.T) {
	d := testDetector()
	in := cleanInput(time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC))
	in.Processes = append(in.Processes, "AutoHotkey.exe")
	in.SessionsInWindow = 11

	first := d.Assess(in)
	for i := 0; i < 10; i++ {
		if got := d.Assess(in); !reflect.DeepEqual(got, first) {
			t.Fatalf("Assess() call %d = %+v, differs from first = %+v", i+2, got, first)
		}
	}
}

func TestAssess_AccountUnderReview(t *testing.T) {
	d := testDetector()
	in := cleanInput(time.Now())
	in.SessionsInWindow = 11
	in.SuspicionCount = 4

	a := d.Assess(in)

	// 4 accumulated + 1 delta reaches the default threshold of 5.
	if !a.AccountUnderReview {
		t.Error("AccountUnderReview = false at suspicion threshold")
	}

	in.SuspicionCount = 3
	if a := d.Assess(in); a.AccountUnderReview {
		t.Error("AccountUnderReview = true below suspicion threshold")
	}
}

func TestScanFatal(t *testing.T) {
	d := testDetector()

	reasons := d.ScanFatal([]string{"LeagueClient.exe", "chrome.exe"})
	if len(reasons) != 0 {
		t.Errorf("ScanFatal = %v, expected empty", reasons)
	}

	reasons = d.ScanFatal([]string{"LeagueClient.exe", "x64dbg.exe", "AutoHotkey.exe"})
	want := []Reason{ReasonDebuggerDetected, ReasonAutomationDetected}
	if !reflect.DeepEqual(reasons, want) {
		t.Errorf("ScanFatal = %v, expected %v", reasons, want)
	}
}
