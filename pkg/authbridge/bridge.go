// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

// Package authbridge exchanges the short-lived web session token for a
// desktop-scoped token and decorates every outbound ledger request with it.
// The bridge is a capability consumed by the ledger client; it never makes
// award decisions itself.
package authbridge

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/user"
	"runtime"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNotAuthenticated is returned when a request is decorated before a
// successful token exchange, or after the desktop token expired.
var ErrNotAuthenticated = errors.New("auth bridge holds no valid desktop token")

// desktopClaims are the claims GG Loop issues on desktop-scoped tokens.
// The desktop side does not hold the signing secret; claims are read
// unverified for scheduling purposes only, the ledger verifies signatures.
type desktopClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Bridge holds the device identity and the current desktop token.
type Bridge struct {
	baseURL string
	http    *http.Client

	deviceHash string

	mu        sync.RWMutex
	token     string
	userID    string
	expiresAt time.Time
}

// New creates a bridge against the given auth service base URL.
func New(baseURL string, timeout time.Duration) *Bridge {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Bridge{
		baseURL:    baseURL,
		http:       &http.Client{Timeout: timeout},
		deviceHash: computeDeviceHash(),
	}
}

// VerifyWeb exchanges a web session token for a desktop-scoped token.
func (b *Bridge) VerifyWeb(ctx context.Context, webToken string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"webToken":   webToken,
		"deviceHash": b.deviceHash,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/auth/verify", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Device-Hash", b.deviceHash)

	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("auth verify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("auth verify rejected with status %d", resp.StatusCode)
	}

	var body struct {
		DesktopToken string `json:"desktopToken"`
		UserID       string `json:"userId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode verify response: %w", err)
	}
	if body.DesktopToken == "" {
		return errors.New("auth verify response carried no desktop token")
	}

	expiresAt, claimedUser := parseDesktopToken(body.DesktopToken)
	userID := body.UserID
	if userID == "" {
		userID = claimedUser
	}

	b.mu.Lock()
	b.token = body.DesktopToken
	b.userID = userID
	b.expiresAt = expiresAt
	b.mu.Unlock()

	logrus.Infof("desktop token issued for user %s (expires %v)", userID, expiresAt)
	return nil
}

// parseDesktopToken reads expiry and user id from the token claims without
// verifying the signature. A token without parseable claims is still
// usable; expiry falls back to zero (never expires locally).
func parseDesktopToken(token string) (time.Time, string) {
	claims := &desktopClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		logrus.Debugf("desktop token claims not parseable: %v", err)
		return time.Time{}, ""
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, claims.UserID
	}
	return claims.ExpiresAt.Time, claims.UserID
}

// Decorate attaches the bearer token and device hash headers.
func (b *Bridge) Decorate(req *http.Request) error {
	b.mu.RLock()
	token := b.token
	expiresAt := b.expiresAt
	b.mu.RUnlock()

	if token == "" {
		return ErrNotAuthenticated
	}
	if !expiresAt.IsZero() && time.Now().After(expiresAt) {
		return fmt.Errorf("%w: token expired at %v", ErrNotAuthenticated, expiresAt)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Device-Hash", b.deviceHash)
	return nil
}

// DeviceHash returns the stable device identifier sent with every request.
func (b *Bridge) DeviceHash() string {
	return b.deviceHash
}

// UserID returns the authenticated account id, empty before VerifyWeb.
func (b *Bridge) UserID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.userID
}

// Authenticated reports whether a usable desktop token is held.
func (b *Bridge) Authenticated() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.token != "" && (b.expiresAt.IsZero() || time.Now().Before(b.expiresAt))
}

// computeDeviceHash derives a stable identifier from host attributes. When
// none are available it falls back to a random id, which only costs the
// device a fresh identity on the ledger side.
func computeDeviceHash() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = uuid.NewString()
	}
	username := ""
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	sum := sha256.Sum256([]byte(hostname + "|" + username + "|" + runtime.GOOS))
	return hex.EncodeToString(sum[:])
}
