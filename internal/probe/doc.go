// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package probe sends single ICMP echo requests and classifies the answer.
//
// A [Prober] performs exactly one probe per call and never retries. The
// answer is reported as an [Outcome], a tagged variant of success (with the
// round-trip latency), timeout or error (with a [Reason]). An ICMP
// time-exceeded answer is a success that is marked as expired, which is what
// path discovery uses to identify intermediate routers.
//
// Raw sockets are used when the process has NET_RAW capabilities. Otherwise
// the prober falls back to unprivileged ICMP datagram sockets and reads ICMP
// errors from the socket error queue. Missing privileges surface as an error
// outcome with [ReasonPermissionDenied].
//
// Typical usage:
//
//	p := probe.NewProber(probe.ModeAuto)
//	res := p.Probe(ctx, netip.MustParseAddr("192.0.2.1"), probe.DefaultTTL, 2*time.Second)
//	if res.Outcome.Kind == probe.KindSuccess {
//		fmt.Println(res.Outcome.Milliseconds())
//	}
package probe
