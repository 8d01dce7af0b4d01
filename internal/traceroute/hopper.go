// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"net/netip"

	"github.com/telekom/pathmon/internal/logger"
	"github.com/telekom/pathmon/internal/probe"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// hopper is responsible for managing the execution of probes for every TTL of a target.
type hopper struct {
	prober     probe.Prober
	otelTracer trace.Tracer
	target     netip.Addr
	opts       Options
	// hops receives one hop per TTL.
	hops chan<- Hop
}

// run probes every TTL concurrently and sends one hop per TTL to the hop channel.
// It's the callers responsibility to collect the results from the hop channel.
// The first fatal probe error cancels the remaining TTLs and is returned.
func (h *hopper) run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for ttl := 1; ttl <= h.opts.MaxTTL; ttl++ {
		g.Go(func() error {
			ctx, hopSpan := h.otelTracer.Start(ctx, h.target.String(), trace.WithAttributes(
				attribute.Stringer("traceroute.target.address", h.target),
				attribute.Int("traceroute.target.ttl", ttl),
			))
			defer hopSpan.End()

			hop, err := h.probeTTL(ctx, ttl)
			if err != nil {
				hopSpan.RecordError(err)
				hopSpan.SetStatus(codes.Error, "Failed to execute hop trace")
				return err
			}

			hopSpan.AddEvent("Hop collected", trace.WithAttributes(
				attribute.Stringer("traceroute.target.hop", hop),
				attribute.Bool("traceroute.target.reached", hop.Reached),
			))
			h.hops <- hop
			return nil
		})
	}
	return g.Wait()
}

// probeTTL sends up to opts.Attempts probes with the given TTL and
// returns the hop of the first answer. A TTL without any answer
// yields a placeholder hop without address.
func (h *hopper) probeTTL(ctx context.Context, ttl int) (Hop, error) {
	log := logger.FromContext(ctx).With("ttl", ttl)
	hop := Hop{TTL: ttl}

	for attempt := 1; attempt <= h.opts.Attempts; attempt++ {
		res := h.prober.Probe(ctx, h.target, ttl, h.opts.Timeout)
		switch res.Outcome.Kind {
		case probe.KindSuccess:
			hop.Addr = res.From
			hop.Latency = res.Outcome.Latency
			hop.Reached = !res.Expired
			return hop, nil

		case probe.KindError:
			if ctx.Err() != nil {
				return hop, ctx.Err()
			}
			if !res.From.IsValid() {
				if isFatal(res.Outcome.Reason) {
					return hop, &ErrProbe{TTL: ttl, Reason: res.Outcome.Reason}
				}
				log.DebugContext(ctx, "Probe failed", "attempt", attempt, "reason", res.Outcome.Reason)
				continue
			}
			// An ICMP error from the target itself, e.g. port or
			// protocol unreachable, still means the target was reached.
			hop.Addr = res.From
			hop.Reason = res.Outcome.Reason
			hop.Reached = res.From == h.target
			return hop, nil

		case probe.KindTimeout:
			log.DebugContext(ctx, "Probe timed out", "attempt", attempt)
		}
	}

	return hop, nil
}
