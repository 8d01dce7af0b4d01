// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistence is returned when a session document is malformed or unreadable.
	ErrPersistence = errors.New("invalid session document")
	// ErrUnknownFormat is returned for unsupported document or export formats.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrNotFound is returned when a saved session does not exist.
	ErrNotFound = errors.New("session not found")
)

func persistenceError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPersistence, fmt.Sprintf(format, args...))
}
