// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

// Package queue persists session reports that could not be delivered, so
// they survive restarts and are resent on the next launch. The file is a
// small TOML document rewritten atomically on every change.
package queue

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ggloop/playguard/pkg/session"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	queueFileMode   = 0o600
	queueDirMode    = 0o700
	tempFilePattern = ".pending-*.toml.tmp"
)

// FileQueue is a durable pending-report store backed by one TOML file.
// Reports are keyed by session id; enqueueing the same id again replaces
// the stored report, so retried finalizations never duplicate entries.
type FileQueue struct {
	path string
	mu   *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

// NewFileQueue opens a queue at the given path. The file is created lazily
// on the first enqueue.
func NewFileQueue(path string) (*FileQueue, error) {
	if path == "" {
		return nil, errors.New("pending queue path is empty")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve pending queue path: %w", err)
	}
	absPath = filepath.Clean(absPath)

	return &FileQueue{path: absPath, mu: lockForPath(absPath)}, nil
}

// Enqueue stores a report for later delivery. Implements
// session.PendingQueue.
func (q *FileQueue) Enqueue(report session.Report) error {
	if report.SessionID == "" {
		return errors.New("refusing to enqueue a report without a session id")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	file, err := q.readSchema()
	if err != nil {
		return err
	}

	replaced := false
	for i := range file.Reports {
		if file.Reports[i].SessionID == report.SessionID {
			file.Reports[i] = report
			replaced = true
			break
		}
	}
	if !replaced {
		file.Reports = append(file.Reports, report)
	}

	return q.writeSchema(file)
}

// List returns the queued reports in enqueue order.
func (q *FileQueue) List() ([]session.Report, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	file, err := q.readSchema()
	if err != nil {
		return nil, err
	}

	return append([]session.Report(nil), file.Reports...), nil
}

// Remove drops the report with the given session id. Removing an absent id
// is a no-op; delivery and removal must be idempotent across crashes.
func (q *FileQueue) Remove(sessionID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	file, err := q.readSchema()
	if err != nil {
		return err
	}

	kept := file.Reports[:0]
	for _, r := range file.Reports {
		if r.SessionID != sessionID {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(file.Reports) {
		return nil
	}
	file.Reports = kept

	return q.writeSchema(file)
}

// Len returns the number of queued reports.
func (q *FileQueue) Len() (int, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	file, err := q.readSchema()
	if err != nil {
		return 0, err
	}

	return len(file.Reports), nil
}

func (q *FileQueue) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(q.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read pending queue: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode pending queue: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (q *FileQueue) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(q.path), queueDirMode); err != nil {
		return fmt.Errorf("create pending queue directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode pending queue: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(q.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp queue file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp queue file: %w", err)
	}

	if err := tempFile.Chmod(queueFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp queue file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp queue file: %w", err)
	}

	if err := os.Rename(tempName, q.path); err != nil {
		return fmt.Errorf("replace pending queue: %w", err)
	}

	cleanup = false

	if err := os.Chmod(q.path, queueFileMode); err != nil {
		return fmt.Errorf("chmod pending queue: %w", err)
	}

	return nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
