// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package observer

import "strings"

// Classification of a tracked game is a pure function over an explicit,
// versioned allow-list of game-client names (e.g. "LeagueClient",
// "VALORANT-Win64-Shipping"). Matching is substring-based so that platform
// suffixes like ".exe" or ".app" still match, but the list itself is never
// inferred from anything.

func containsSubstring(name, substr string) bool {
	return substr != "" && strings.Contains(name, substr)
}

// MatchTrackedGame returns the allow-list entry matched by the given process
// name, or "" when the process is not a tracked game.
func MatchTrackedGame(processName string, allowList []string) (string, bool) {
	for _, game := range allowList {
		if containsSubstring(processName, game) {
			return game, true
		}
	}
	return "", false
}

// ForegroundGame reports which tracked game, if any, owns the foreground
// window in the sample. An unknown sample never matches.
func ForegroundGame(s Sample, allowList []string) (string, bool) {
	if !s.OK {
		return "", false
	}
	return MatchTrackedGame(s.ForegroundProcess, allowList)
}

// GameRunning reports whether any process in the sample's snapshot belongs
// to the given tracked game. Used to distinguish "lost foreground" from
// "process fully exited". An unknown sample is treated as still running so
// a sensor hiccup cannot end a session.
func GameRunning(s Sample, game string) bool {
	if !s.OK {
		return true
	}
	return s.Processes.Contains(game)
}
