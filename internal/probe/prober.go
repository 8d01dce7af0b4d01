// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"context"
	"errors"
	"net/netip"
	"os"
	"sync/atomic"
	"time"

	"github.com/telekom/pathmon/internal/logger"
)

var _ Prober = (*icmpProber)(nil)

// DefaultTTL is the TTL used when probing a hop directly.
const DefaultTTL = 64

// Prober sends single ICMP echo probes.
//
//go:generate go tool moq -out prober_moq.go . Prober
type Prober interface {
	// Probe sends one echo request to addr with the given TTL and waits
	// at most timeout for the answer. It never panics and never returns
	// an error: every failure is reported as an outcome of the [Result].
	Probe(ctx context.Context, addr netip.Addr, ttl int, timeout time.Duration) Result
}

type icmpProber struct {
	mode Mode
	// id is the echo identifier used on raw sockets.
	id int
	// seq is incremented for every probe, so concurrent probes
	// never match each other's replies.
	seq atomic.Uint32
	// rawDenied remembers that raw sockets are not permitted.
	rawDenied atomic.Bool
	open      openSocketFunc
	now       func() time.Time
}

// NewProber creates a [Prober] using the given socket mode.
func NewProber(mode Mode) Prober {
	if !mode.IsValid() {
		mode = ModeAuto
	}
	return &icmpProber{
		mode: mode,
		id:   os.Getpid() & 0xffff,
		open: openSocket,
		now:  time.Now,
	}
}

func (p *icmpProber) Probe(ctx context.Context, addr netip.Addr, ttl int, timeout time.Duration) Result {
	log := logger.FromContext(ctx).With("address", addr, "ttl", ttl)
	res := Result{Time: p.now()}
	if !addr.IsValid() {
		res.Outcome = Failure(ReasonUnsupported)
		return res
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	sock, err := p.socket(ctx, addr.Is6())
	if err != nil {
		log.DebugContext(ctx, "Failed to open ICMP socket", "error", err)
		res.Outcome = Failure(sendReason(err))
		return res
	}
	defer func() { _ = sock.Close() }()
	// Closing the socket unblocks a pending read once ctx is done.
	stop := context.AfterFunc(ctx, func() { _ = sock.Close() })
	defer stop()

	seq := int(p.seq.Add(1) & 0xffff)
	msg, err := echoMessage(addr.Is6(), p.id, seq)
	if err != nil {
		res.Outcome = Failure(ReasonSendFailed)
		return res
	}

	deadline := res.Time.Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	res.Time = p.now()
	if err := sock.send(addr, ttl, msg); err != nil {
		log.DebugContext(ctx, "Failed to send echo request", "error", err)
		res.Outcome = Failure(sendReason(err))
		return res
	}

	for {
		rep, err := sock.recv(deadline)
		switch {
		case ctx.Err() != nil:
			res.Outcome = Failure(ReasonCanceled)
			return res
		case errors.Is(err, errReadTimeout):
			res.Outcome = Timeout()
			return res
		case errors.Is(err, errUnrelated):
			// Foreign or malformed ICMP traffic on a raw socket is expected.
			log.DebugContext(ctx, "Ignoring unrelated ICMP message", "error", err)
			if p.now().After(deadline) {
				res.Outcome = Timeout()
				return res
			}
			continue
		case err != nil:
			log.DebugContext(ctx, "Failed to receive ICMP message", "error", err)
			res.Outcome = Failure(ReasonReceiveFailed)
			return res
		}

		if rep.seq != seq || (!sock.rewritesID() && rep.id != p.id) {
			continue
		}

		res.From = rep.from
		latency := rep.at.Sub(res.Time)
		switch rep.kind {
		case replyEcho:
			res.Outcome = Success(latency)
		case replyTimeExceeded:
			res.Outcome = Success(latency)
			res.Expired = true
		default:
			res.Outcome = Failure(rep.reason)
		}
		log.DebugContext(ctx, "Probe answered", "from", res.From, "outcome", res.Outcome.String(), "expired", res.Expired)
		return res
	}
}

// socket opens a socket according to the prober's mode.
// In [ModeAuto] a denied raw socket is remembered, so later probes
// go straight to the datagram socket.
func (p *icmpProber) socket(ctx context.Context, v6 bool) (socket, error) {
	switch p.mode {
	case ModePrivileged:
		return p.open(ctx, true, v6)
	case ModeUnprivileged:
		return p.open(ctx, false, v6)
	}

	if !p.rawDenied.Load() {
		s, err := p.open(ctx, true, v6)
		if err == nil {
			return s, nil
		}
		if !isPermissionError(err) {
			return nil, err
		}
		logger.FromContext(ctx).InfoContext(ctx, "Raw ICMP sockets not permitted, falling back to unprivileged ICMP")
		p.rawDenied.Store(true)
	}

	s, err := p.open(ctx, false, v6)
	if err != nil {
		if isPermissionError(err) {
			return nil, errors.Join(errICMPNotAvailable, err)
		}
		return nil, err
	}
	return s, nil
}
