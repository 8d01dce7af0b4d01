// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"golang.org/x/sys/unix"
)

// socket sends echo requests and receives the ICMP messages answering them.
//
//go:generate go tool moq -out socket_moq.go . socket
type socket interface {
	// send writes the marshaled echo request to dst with the given TTL.
	send(dst netip.Addr, ttl int, msg []byte) error
	// recv returns the next ICMP message that might answer a request.
	// It returns [errReadTimeout] once the deadline has passed and
	// [errUnrelated] for messages that should be skipped.
	recv(deadline time.Time) (reply, error)
	// rewritesID reports whether the kernel replaces the echo identifier,
	// in which case replies are matched by sequence number only.
	rewritesID() bool
	// Close releases the socket. It unblocks a pending recv.
	Close() error
}

var (
	// errICMPNotAvailable is returned when neither a raw nor a datagram ICMP socket
	// can be opened. This typically occurs when the process lacks NET_RAW capabilities
	// and the ping group range of the kernel does not include the process's group.
	errICMPNotAvailable = errors.New("no NET_RAW capabilities and unprivileged ICMP disabled, ICMP not available")
	// errReadTimeout is returned by recv when the deadline is exceeded.
	errReadTimeout = errors.New("read deadline exceeded")
	// errUnrelated is returned by recv for ICMP messages that cannot
	// answer any request, such as foreign or malformed traffic.
	errUnrelated = errors.New("unrelated ICMP message")
)

// Mode selects the kind of socket used for probing.
type Mode string

const (
	// ModeAuto uses raw sockets and falls back to datagram sockets when
	// raw sockets are not permitted.
	ModeAuto Mode = "auto"
	// ModePrivileged only uses raw sockets.
	ModePrivileged Mode = "privileged"
	// ModeUnprivileged only uses datagram ICMP sockets.
	ModeUnprivileged Mode = "unprivileged"
)

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeAuto, ModePrivileged, ModeUnprivileged:
		return true
	default:
		return false
	}
}

// isPermissionError reports whether err means the socket type is not permitted.
func isPermissionError(err error) bool {
	return errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES) || errors.Is(err, errICMPNotAvailable)
}

// sendReason maps an error returned while sending to a reason.
func sendReason(err error) Reason {
	switch {
	case isPermissionError(err):
		return ReasonPermissionDenied
	case errors.Is(err, unix.ENETUNREACH):
		return ReasonNetworkUnreachable
	case errors.Is(err, unix.EHOSTUNREACH):
		return ReasonHostUnreachable
	case errors.Is(err, unix.EMSGSIZE):
		return ReasonFragmentation
	case errors.Is(err, unix.EAFNOSUPPORT), errors.Is(err, unix.EPROTONOSUPPORT):
		return ReasonUnsupported
	default:
		return ReasonSendFailed
	}
}

// openSocket opens a socket of the requested kind for the address family of dst.
type openSocketFunc func(ctx context.Context, privileged, v6 bool) (socket, error)

// openSocket is the default [openSocketFunc].
func openSocket(ctx context.Context, privileged, v6 bool) (socket, error) {
	if privileged {
		s, err := newRawSocket(v6)
		if err != nil {
			return nil, fmt.Errorf("failed to open raw ICMP socket: %w", err)
		}
		return s, nil
	}
	s, err := newDatagramSocket(ctx, v6)
	if err != nil {
		return nil, fmt.Errorf("failed to open datagram ICMP socket: %w", err)
	}
	return s, nil
}
