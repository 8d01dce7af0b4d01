// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"

	"github.com/telekom/pathmon/pkg/session"
)

var _ Store = (*FileStore)(nil)

// Store persists sessions under a name.
//
//go:generate go tool moq -out store_moq.go . Store
type Store interface {
	// Save persists the session and returns the name it is stored under.
	Save(ctx context.Context, sess *session.Snapshot) (string, error)
	// AutoSave persists the session under a fixed name, replacing the previous one.
	AutoSave(ctx context.Context, sess *session.Snapshot) error
	// Load reads a saved session. It returns [ErrNotFound] for unknown names.
	Load(ctx context.Context, name string) (*session.Snapshot, error)
	// List returns the saved sessions, most recent first.
	List(ctx context.Context) ([]Entry, error)
}
