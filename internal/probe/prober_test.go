// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/icmp"
	"golang.org/x/sys/unix"
)

var (
	target = netip.MustParseAddr("203.0.113.10")
	router = netip.MustParseAddr("192.0.2.1")
	t0     = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
)

// sentSeq decodes the sequence number of a marshaled echo request.
func sentSeq(t *testing.T, msg []byte) int {
	t.Helper()
	m, err := icmp.ParseMessage(protocolICMP, msg)
	require.NoError(t, err)
	echo, ok := m.Body.(*icmp.Echo)
	require.True(t, ok)
	return echo.Seq
}

// newMockSocket returns a socket that answers every request with the replies
// produced by answer, followed by a read timeout.
func newMockSocket(t *testing.T, sendErr error, answer func(seq int) []reply) *socketMock {
	var queue []reply
	return &socketMock{
		sendFunc: func(_ netip.Addr, _ int, msg []byte) error {
			if sendErr != nil {
				return sendErr
			}
			queue = answer(sentSeq(t, msg))
			return nil
		},
		recvFunc: func(time.Time) (reply, error) {
			if len(queue) == 0 {
				return reply{}, errReadTimeout
			}
			r := queue[0]
			queue = queue[1:]
			return r, nil
		},
		rewritesIDFunc: func() bool { return false },
		CloseFunc:      func() error { return nil },
	}
}

func TestProber_Probe(t *testing.T) {
	const id = 4242
	latency := 12345678 * time.Nanosecond

	tests := []struct {
		name        string
		sendErr     error
		answer      func(seq int) []reply
		want        Outcome
		wantFrom    netip.Addr
		wantExpired bool
	}{
		{
			name: "echo reply",
			answer: func(seq int) []reply {
				return []reply{{from: target, kind: replyEcho, id: id, seq: seq, at: t0.Add(latency)}}
			},
			want:     Success(12300 * time.Microsecond),
			wantFrom: target,
		},
		{
			name: "time exceeded from router",
			answer: func(seq int) []reply {
				return []reply{{from: router, kind: replyTimeExceeded, id: id, seq: seq, at: t0.Add(time.Millisecond)}}
			},
			want:        Success(time.Millisecond),
			wantFrom:    router,
			wantExpired: true,
		},
		{
			name: "destination unreachable",
			answer: func(seq int) []reply {
				return []reply{{from: router, kind: replyUnreachable, reason: ReasonHostUnreachable, id: id, seq: seq, at: t0}}
			},
			want:     Failure(ReasonHostUnreachable),
			wantFrom: router,
		},
		{
			name: "replies of other probes are ignored",
			answer: func(seq int) []reply {
				return []reply{
					{from: target, kind: replyEcho, id: id, seq: seq + 1, at: t0},
					{from: target, kind: replyEcho, id: id + 1, seq: seq, at: t0},
				}
			},
			want: Timeout(),
		},
		{
			name:    "send not permitted",
			sendErr: fmt.Errorf("failed to write: %w", unix.EPERM),
			want:    Failure(ReasonPermissionDenied),
		},
		{
			name:    "network unreachable on send",
			sendErr: fmt.Errorf("failed to write: %w", unix.ENETUNREACH),
			want:    Failure(ReasonNetworkUnreachable),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sock := newMockSocket(t, tt.sendErr, tt.answer)
			p := &icmpProber{
				mode: ModePrivileged,
				id:   id,
				open: func(context.Context, bool, bool) (socket, error) { return sock, nil },
				now:  func() time.Time { return t0 },
			}

			res := p.Probe(t.Context(), target, 3, time.Second)

			assert.Equal(t, tt.want, res.Outcome)
			assert.Equal(t, tt.wantFrom, res.From)
			assert.Equal(t, tt.wantExpired, res.Expired)
			assert.Equal(t, t0, res.Time)
			assert.NotEmpty(t, sock.CloseCalls())
		})
	}
}

func TestProber_Probe_uniqueSequence(t *testing.T) {
	var seqs []int
	sock := &socketMock{
		sendFunc: func(_ netip.Addr, _ int, msg []byte) error {
			seqs = append(seqs, sentSeq(t, msg))
			return nil
		},
		recvFunc:       func(time.Time) (reply, error) { return reply{}, errReadTimeout },
		rewritesIDFunc: func() bool { return false },
		CloseFunc:      func() error { return nil },
	}
	p := &icmpProber{
		mode: ModePrivileged,
		open: func(context.Context, bool, bool) (socket, error) { return sock, nil },
		now:  time.Now,
	}

	for range 5 {
		res := p.Probe(t.Context(), target, 64, time.Millisecond)
		assert.Equal(t, KindTimeout, res.Outcome.Kind)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, seqs)
}

func TestProber_Probe_datagramMatchesSequenceOnly(t *testing.T) {
	sock := newMockSocket(t, nil, func(seq int) []reply {
		return []reply{{from: target, kind: replyEcho, id: 55555, seq: seq, at: t0}}
	})
	sock.rewritesIDFunc = func() bool { return true }
	p := &icmpProber{
		mode: ModeUnprivileged,
		id:   1,
		open: func(context.Context, bool, bool) (socket, error) { return sock, nil },
		now:  func() time.Time { return t0 },
	}

	res := p.Probe(t.Context(), target, 64, time.Second)
	assert.Equal(t, KindSuccess, res.Outcome.Kind)
}

func TestProber_socketFallback(t *testing.T) {
	tests := []struct {
		name          string
		rawErr        error
		datagramErr   error
		wantKind      Kind
		wantReason    Reason
		wantRawDenied bool
	}{
		{
			name:     "raw socket available",
			wantKind: KindTimeout,
		},
		{
			name:          "fallback to datagram socket",
			rawErr:        unix.EPERM,
			wantKind:      KindTimeout,
			wantRawDenied: true,
		},
		{
			name:          "no ICMP at all",
			rawErr:        unix.EPERM,
			datagramErr:   unix.EACCES,
			wantKind:      KindError,
			wantReason:    ReasonPermissionDenied,
			wantRawDenied: true,
		},
		{
			name:       "unexpected raw error is not masked",
			rawErr:     unix.EAFNOSUPPORT,
			wantKind:   KindError,
			wantReason: ReasonUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opened []bool
			p := &icmpProber{
				mode: ModeAuto,
				open: func(_ context.Context, privileged, _ bool) (socket, error) {
					opened = append(opened, privileged)
					if privileged && tt.rawErr != nil {
						return nil, tt.rawErr
					}
					if !privileged && tt.datagramErr != nil {
						return nil, tt.datagramErr
					}
					return newMockSocket(t, nil, func(int) []reply { return nil }), nil
				},
				now: time.Now,
			}

			res := p.Probe(t.Context(), target, 1, time.Millisecond)
			assert.Equal(t, tt.wantKind, res.Outcome.Kind)
			assert.Equal(t, tt.wantReason, res.Outcome.Reason)
			assert.Equal(t, tt.wantRawDenied, p.rawDenied.Load())

			if tt.wantRawDenied {
				opened = nil
				_ = p.Probe(t.Context(), target, 1, time.Millisecond)
				assert.Equal(t, []bool{false}, opened, "raw socket must not be retried once denied")
			}
		})
	}
}

func TestProber_Probe_canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	closed := make(chan struct{})
	sock := &socketMock{
		sendFunc: func(netip.Addr, int, []byte) error { return nil },
		recvFunc: func(time.Time) (reply, error) {
			<-closed
			return reply{}, errors.New("use of closed network connection")
		},
		rewritesIDFunc: func() bool { return false },
		CloseFunc: func() error {
			select {
			case <-closed:
			default:
				close(closed)
			}
			return nil
		},
	}
	p := &icmpProber{
		mode: ModePrivileged,
		open: func(context.Context, bool, bool) (socket, error) { return sock, nil },
		now:  time.Now,
	}

	time.AfterFunc(10*time.Millisecond, cancel)
	res := p.Probe(ctx, target, 64, time.Minute)
	assert.Equal(t, Failure(ReasonCanceled), res.Outcome)
}

func TestProber_Probe_receiveErrors(t *testing.T) {
	echo := reply{from: target, kind: replyEcho, seq: 1, at: t0.Add(time.Millisecond)}
	tests := []struct {
		name      string
		results   []error
		want      Outcome
		wantReads int
	}{
		{
			name:      "unrelated messages are skipped",
			results:   []error{fmt.Errorf("%w: short message", errUnrelated), fmt.Errorf("%w: foreign echo", errUnrelated), nil},
			want:      Success(time.Millisecond),
			wantReads: 3,
		},
		{
			name:      "failing read ends the probe",
			results:   []error{errors.New("use of closed network connection")},
			want:      Failure(ReasonReceiveFailed),
			wantReads: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reads := 0
			sock := &socketMock{
				sendFunc: func(netip.Addr, int, []byte) error { return nil },
				recvFunc: func(time.Time) (reply, error) {
					err := tt.results[min(reads, len(tt.results)-1)]
					reads++
					if err != nil {
						return reply{}, err
					}
					return echo, nil
				},
				rewritesIDFunc: func() bool { return false },
				CloseFunc:      func() error { return nil },
			}
			p := &icmpProber{
				mode: ModePrivileged,
				open: func(context.Context, bool, bool) (socket, error) { return sock, nil },
				now:  func() time.Time { return t0 },
			}

			res := p.Probe(t.Context(), target, 64, time.Minute)
			assert.Equal(t, tt.want, res.Outcome)
			assert.Equal(t, tt.wantReads, reads)
		})
	}
}

func TestProber_Probe_invalidAddress(t *testing.T) {
	p := NewProber(ModeAuto)
	res := p.Probe(t.Context(), netip.Addr{}, 1, time.Second)
	assert.Equal(t, Failure(ReasonUnsupported), res.Outcome)
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name     string
		outcome  Outcome
		wantMs   float64
		wantLost bool
		wantStr  string
	}{
		{name: "success rounds to tenth of a millisecond", outcome: Success(1049 * time.Microsecond), wantMs: 1.0, wantStr: "success(1.0ms)"},
		{name: "success rounds up", outcome: Success(1051 * time.Microsecond), wantMs: 1.1, wantStr: "success(1.1ms)"},
		{name: "timeout", outcome: Timeout(), wantLost: true, wantStr: "timeout"},
		{name: "error", outcome: Failure(ReasonHostUnreachable), wantLost: true, wantStr: "error(host-unreachable)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.wantMs, tt.outcome.Milliseconds(), 1e-9)
			assert.Equal(t, tt.wantLost, tt.outcome.Lost())
			assert.Equal(t, tt.wantStr, tt.outcome.String())
		})
	}
}
