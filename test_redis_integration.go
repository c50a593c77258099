// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

//go:build integration
// +build integration

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ggloop/playguard/pkg/suspicion"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// This is a manual integration test for the Redis suspicion store.
// Run this with: go run -tags integration test_redis_integration.go
// Requires: Redis running on localhost:6379

func main() {
	logrus.SetLevel(logrus.DebugLevel)
	logrus.Infof("Starting Redis suspicion store integration test...")

	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer client.Close()

	store := suspicion.NewRedisStore(client)
	testAccountID := fmt.Sprintf("test-account-%d", time.Now().Unix())
	logrus.Infof("Testing with account ID: %s", testAccountID)

	// Test 1: Counter starts at zero
	logrus.Infof("=== Test 1: Counter starts at zero ===")
	count, err := store.Count(ctx, testAccountID)
	if err != nil {
		logrus.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		logrus.Fatalf("fresh account counter = %d, expected 0", count)
	}
	logrus.Infof("counter starts at zero")

	// Test 2: Add accumulates
	logrus.Infof("=== Test 2: Add accumulates ===")
	if _, err := store.Add(ctx, testAccountID, 3); err != nil {
		logrus.Fatalf("Add failed: %v", err)
	}
	total, err := store.Add(ctx, testAccountID, 1)
	if err != nil {
		logrus.Fatalf("Add failed: %v", err)
	}
	if total != 4 {
		logrus.Fatalf("counter after two adds = %d, expected 4", total)
	}
	logrus.Infof("counter accumulates: %d", total)

	// Test 3: Session window counting
	logrus.Infof("=== Test 3: Session window counting ===")
	now := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := store.RecordSession(ctx, testAccountID, now.Add(time.Duration(i)*time.Minute)); err != nil {
			logrus.Fatalf("RecordSession failed: %v", err)
		}
	}
	inWindow, err := store.SessionsInWindow(ctx, testAccountID, now.Add(time.Hour))
	if err != nil {
		logrus.Fatalf("SessionsInWindow failed: %v", err)
	}
	if inWindow != 3 {
		logrus.Fatalf("sessions in window = %d, expected 3", inWindow)
	}
	logrus.Infof("session window holds %d sessions", inWindow)

	// Test 4: Old sessions age out of the window
	logrus.Infof("=== Test 4: Old sessions age out ===")
	inWindow, err = store.SessionsInWindow(ctx, testAccountID, now.Add(suspicion.SessionWindow+2*time.Hour))
	if err != nil {
		logrus.Fatalf("SessionsInWindow failed: %v", err)
	}
	if inWindow != 0 {
		logrus.Fatalf("sessions beyond the window = %d, expected 0", inWindow)
	}
	logrus.Infof("old sessions aged out")

	// Test 5: Reset clears the counter
	logrus.Infof("=== Test 5: Reset clears the counter ===")
	if err := store.Reset(ctx, testAccountID); err != nil {
		logrus.Fatalf("Reset failed: %v", err)
	}
	count, err = store.Count(ctx, testAccountID)
	if err != nil {
		logrus.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		logrus.Fatalf("counter after reset = %d, expected 0", count)
	}
	logrus.Infof("counter reset")

	logrus.Infof("All Redis suspicion store integration tests passed")
}
