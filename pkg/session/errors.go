// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a lifecycle call is not allowed in the current state.
	ErrInvalidTransition = errors.New("invalid session state transition")
	// ErrInvalidInterval is returned when a session is started with an interval outside of [MinInterval, MaxInterval].
	ErrInvalidInterval = errors.New("invalid probe interval")
	// ErrInvalidTarget is returned when a session is started without a target.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrAborted is returned by Start when the session was stopped during discovery.
	ErrAborted = errors.New("session aborted during discovery")
)

// ErrMetricNotFound is returned when a metric is not found
type ErrMetricNotFound struct {
	Label string
}

func (e ErrMetricNotFound) Error() string {
	return fmt.Sprintf("metric %q not found", e.Label)
}

func transitionError(from State, op string) error {
	return fmt.Errorf("%w: cannot %s a session in state %s", ErrInvalidTransition, op, from)
}
