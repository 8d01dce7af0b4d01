// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a lifecycle call is not allowed in the current state.
var ErrInvalidTransition = errors.New("invalid state transition")

// State is the lifecycle state of a [Monitor].
type State uint32

const (
	// StateIdle is the state of a monitor that has not been started.
	StateIdle State = iota
	// StateActive means the monitor probes on its interval.
	StateActive
	// StatePaused means probing is suspended, statistics are kept.
	StatePaused
	// StateStopped is terminal.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", uint32(s))
	}
}

func transitionError(from, to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
