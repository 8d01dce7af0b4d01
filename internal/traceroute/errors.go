// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"fmt"

	"github.com/telekom/pathmon/internal/probe"
)

// ErrExhausted is returned when the target did not answer within the hop budget.
type ErrExhausted struct {
	Target string
	MaxTTL int
}

func (e *ErrExhausted) Error() string {
	return fmt.Sprintf("target %s not reached within %d hops", e.Target, e.MaxTTL)
}

// ErrDiscovery is returned when a discovery could not be carried out,
// e.g. because the target does not resolve or ICMP is not permitted.
type ErrDiscovery struct {
	Target string
	Err    error
}

func (e *ErrDiscovery) Error() string {
	return fmt.Sprintf("discovery of %s failed: %v", e.Target, e.Err)
}

func (e *ErrDiscovery) Unwrap() error {
	return e.Err
}

// ErrProbe is returned by a hop whose probe failed locally.
type ErrProbe struct {
	TTL    int
	Reason probe.Reason
}

func (e *ErrProbe) Error() string {
	return fmt.Sprintf("probe with ttl %d failed: %s", e.TTL, e.Reason)
}

// isFatal reports whether a locally raised error outcome aborts the
// whole discovery instead of only the hop.
func isFatal(reason probe.Reason) bool {
	switch reason {
	case probe.ReasonPermissionDenied, probe.ReasonUnsupported,
		probe.ReasonSendFailed, probe.ReasonReceiveFailed,
		probe.ReasonNetworkUnreachable, probe.ReasonHostUnreachable:
		return true
	default:
		return false
	}
}
