// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"fmt"
	"net/netip"
	"time"
)

// Kind discriminates the three possible outcomes of a probe.
type Kind uint8

const (
	// KindSuccess means an answer arrived within the timeout.
	KindSuccess Kind = iota + 1
	// KindTimeout means nothing matching the probe arrived in time.
	KindTimeout
	// KindError means the probe could not be sent, or the network
	// answered with an error that is not an expired TTL.
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindTimeout:
		return "timeout"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Reason is a diagnostic code attached to error outcomes.
type Reason string

const (
	ReasonPermissionDenied    Reason = "permission-denied"
	ReasonSendFailed          Reason = "send-failed"
	ReasonReceiveFailed       Reason = "receive-failed"
	ReasonNetworkUnreachable  Reason = "network-unreachable"
	ReasonHostUnreachable     Reason = "host-unreachable"
	ReasonProtocolUnreachable Reason = "protocol-unreachable"
	ReasonPortUnreachable     Reason = "port-unreachable"
	ReasonFragmentation       Reason = "fragmentation-needed"
	ReasonAdminProhibited     Reason = "admin-prohibited"
	ReasonTTLExceeded         Reason = "ttl-exceeded"
	ReasonParameterProblem    Reason = "parameter-problem"
	ReasonUnreachable         Reason = "unreachable"
	ReasonUnsupported         Reason = "unsupported"
	ReasonCanceled            Reason = "canceled"
)

// latencyResolution is the precision latencies are reported with.
const latencyResolution = 100 * time.Microsecond

// Outcome is the tagged result of one probe. Only the fields that belong
// to Kind are meaningful: Latency for [KindSuccess], Reason for [KindError].
type Outcome struct {
	Kind    Kind
	Latency time.Duration
	Reason  Reason
}

// Success returns a successful outcome. The latency is rounded to 0.1ms.
func Success(latency time.Duration) Outcome {
	return Outcome{Kind: KindSuccess, Latency: latency.Round(latencyResolution)}
}

// Timeout returns a timeout outcome.
func Timeout() Outcome {
	return Outcome{Kind: KindTimeout}
}

// Failure returns an error outcome with the given reason.
func Failure(reason Reason) Outcome {
	return Outcome{Kind: KindError, Reason: reason}
}

// Milliseconds returns the latency in milliseconds.
func (o Outcome) Milliseconds() float64 {
	return float64(o.Latency) / float64(time.Millisecond)
}

// Lost reports whether the outcome counts as packet loss.
func (o Outcome) Lost() bool {
	return o.Kind != KindSuccess
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindSuccess:
		return fmt.Sprintf("success(%.1fms)", o.Milliseconds())
	case KindError:
		return fmt.Sprintf("error(%s)", o.Reason)
	default:
		return o.Kind.String()
	}
}

// Result is the observation of a single probe.
type Result struct {
	// Time is when the probe was sent.
	Time time.Time
	// Outcome is the tagged outcome of the probe.
	Outcome Outcome
	// From is the address that answered. It is invalid on timeouts
	// and for errors raised locally.
	From netip.Addr
	// Expired reports that the answer was an ICMP time-exceeded message
	// rather than an echo reply, i.e. the TTL ran out at From.
	Expired bool
}
