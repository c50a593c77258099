// Copyright (c) 2026 GG Loop Inc. All Rights Reserved.
// This is licensed software from GG Loop Inc, for limitations
// and restrictions contact your company contract manager.

package queue

import (
	"fmt"

	"github.com/ggloop/playguard/pkg/session"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version int              `toml:"version"`
	Reports []session.Report `toml:"reports"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported pending-report schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}
