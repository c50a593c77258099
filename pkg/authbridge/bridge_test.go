// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package authbridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, userID string, expiresAt time.Time) string {
	t.Helper()

	claims := desktopClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return token
}

func TestVerifyWeb(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	desktopToken := signedToken(t, "user-42", expiry)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/verify" {
			t.Errorf("path = %s, expected /auth/verify", r.URL.Path)
		}
		if r.Header.Get("X-Device-Hash") == "" {
			t.Error("verify request missing X-Device-Hash header")
		}

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if body["webToken"] != "web-token-123" {
			t.Errorf("webToken = %v, expected web-token-123", body["webToken"])
		}

		json.NewEncoder(w).Encode(map[string]string{
			"desktopToken": desktopToken,
			"userId":       "user-42",
		})
	}))
	defer srv.Close()

	bridge := New(srv.URL, 0)
	if err := bridge.VerifyWeb(context.Background(), "web-token-123"); err != nil {
		t.Fatalf("VerifyWeb() error = %v", err)
	}

	if !bridge.Authenticated() {
		t.Error("Authenticated() = false after successful verify")
	}
	if got := bridge.UserID(); got != "user-42" {
		t.Errorf("UserID() = %q, expected user-42", got)
	}
}

func TestVerifyWeb_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid web token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	bridge := New(srv.URL, 0)
	if err := bridge.VerifyWeb(context.Background(), "stale"); err == nil {
		t.Fatal("VerifyWeb() error = nil, expected rejection")
	}
	if bridge.Authenticated() {
		t.Error("Authenticated() = true after rejected verify")
	}
}

func TestDecorate(t *testing.T) {
	bridge := New("http://unused", 0)
	bridge.token = "tok-abc"

	req := httptest.NewRequest(http.MethodPost, "http://ledger/session/start", nil)
	if err := bridge.Decorate(req); err != nil {
		t.Fatalf("Decorate() error = %v", err)
	}

	if got := req.Header.Get("Authorization"); got != "Bearer tok-abc" {
		t.Errorf("Authorization = %q, expected Bearer tok-abc", got)
	}
	if got := req.Header.Get("X-Device-Hash"); got != bridge.DeviceHash() {
		t.Errorf("X-Device-Hash = %q, expected %q", got, bridge.DeviceHash())
	}
}

func TestDecorate_NotAuthenticated(t *testing.T) {
	bridge := New("http://unused", 0)

	req := httptest.NewRequest(http.MethodPost, "http://ledger/session/start", nil)
	if err := bridge.Decorate(req); err == nil {
		t.Fatal("Decorate() error = nil, expected ErrNotAuthenticated")
	}
}

func TestDecorate_ExpiredToken(t *testing.T) {
	bridge := New("http://unused", 0)
	bridge.token = "tok-abc"
	bridge.expiresAt = time.Now().Add(-time.Minute)

	req := httptest.NewRequest(http.MethodPost, "http://ledger/session/start", nil)
	if err := bridge.Decorate(req); err == nil {
		t.Fatal("Decorate() error = nil, expected expiry error")
	}
	if bridge.Authenticated() {
		t.Error("Authenticated() = true with expired token")
	}
}

func TestParseDesktopToken(t *testing.T) {
	expiry := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token := signedToken(t, "user-7", expiry)

	gotExpiry, gotUser := parseDesktopToken(token)
	if !gotExpiry.Equal(expiry) {
		t.Errorf("expiry = %v, expected %v", gotExpiry, expiry)
	}
	if gotUser != "user-7" {
		t.Errorf("user = %q, expected user-7", gotUser)
	}

	// Opaque tokens stay usable with zero expiry.
	gotExpiry, gotUser = parseDesktopToken("not-a-jwt")
	if !gotExpiry.IsZero() || gotUser != "" {
		t.Errorf("opaque token parsed to (%v, %q), expected zero values", gotExpiry, gotUser)
	}
}

func TestDeviceHashIsStable(t *testing.T) {
	a := New("http://unused", 0)
	b := New("http://unused", 0)

	if a.DeviceHash() == "" {
		t.Fatal("DeviceHash() is empty")
	}
	if a.DeviceHash() != b.DeviceHash() {
		t.Error("DeviceHash() differs between bridges on the same host")
	}
}
