// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"net"
	"net/netip"

	"github.com/jackpal/gateway"
	"github.com/telekom/pathmon/internal/logger"
	"github.com/telekom/pathmon/internal/probe"
	"github.com/telekom/pathmon/internal/resolver"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var _ Discoverer = (*discoverer)(nil)

// Discoverer is able to discover the path to a target.
//
//go:generate go tool moq -out discoverer_moq.go . Discoverer
type Discoverer interface {
	// Discover resolves the target and returns the ordered hops towards it.
	// The last hop is the target itself. It returns [*ErrExhausted] if the
	// target did not answer within the hop budget and [*ErrDiscovery] if
	// the discovery could not be carried out.
	Discover(ctx context.Context, target string, opts *Options) ([]Hop, error)
}

type discoverer struct {
	prober probe.Prober
	names  *resolver.Cache
	// gateway returns the default gateway of the host.
	gateway func() (net.IP, error)
}

// NewDiscoverer creates a [Discoverer] that probes with p and resolves
// names through the given cache.
func NewDiscoverer(p probe.Prober, names *resolver.Cache) Discoverer {
	return &discoverer{
		prober:  p,
		names:   names,
		gateway: gateway.DiscoverGateway,
	}
}

func (d *discoverer) Discover(ctx context.Context, target string, opts *Options) ([]Hop, error) {
	o := opts.withDefaults()
	tracer := trace.SpanFromContext(ctx).TracerProvider().Tracer("traceroute.discoverer")
	ctx, sp := tracer.Start(ctx, "Discover", trace.WithAttributes(
		attribute.String("traceroute.target", target),
		attribute.Int("traceroute.options.max_hops", o.MaxTTL),
		attribute.Stringer("traceroute.options.timeout", o.Timeout),
	))
	defer sp.End()
	log := logger.FromContext(ctx).With("target", target)

	addr, err := d.names.Resolve(ctx, target)
	if err != nil {
		return nil, &ErrDiscovery{Target: target, Err: wrapError(ctx, err, "failed to resolve target %s", target)}
	}
	sp.SetAttributes(attribute.Stringer("traceroute.target.address", addr))
	log.InfoContext(ctx, "Discovering path", "address", addr, "maxHops", o.MaxTTL)

	ch := make(chan Hop, o.MaxTTL)
	h := &hopper{
		prober:     d.prober,
		otelTracer: tracer,
		target:     addr,
		opts:       o,
		hops:       ch,
	}
	err = h.run(ctx)
	close(ch)
	if err != nil {
		return nil, &ErrDiscovery{Target: target, Err: wrapError(ctx, err, "failed to probe path to %s", target)}
	}

	hops, reached := collectResults(ch)
	if !reached {
		err := &ErrExhausted{Target: target, MaxTTL: o.MaxTTL}
		_ = wrapError(ctx, err, "target %s not reached", target)
		return nil, err
	}

	if o.Resolve {
		d.resolveNames(ctx, hops)
	}
	d.markGateway(ctx, hops)

	logHops(ctx, hops)
	log.InfoContext(ctx, "Path discovered", "hops", len(hops))
	return hops, nil
}

// resolveNames looks up the names of all responding hops concurrently.
// Lookup failures leave the name empty.
func (d *discoverer) resolveNames(ctx context.Context, hops []Hop) {
	var g errgroup.Group
	for i := range hops {
		if !hops[i].Responded() {
			continue
		}
		g.Go(func() error {
			hops[i].Name = d.names.Name(ctx, hops[i].Addr)
			return nil
		})
	}
	_ = g.Wait()
}

// markGateway flags the first hop if it is the host's default gateway.
func (d *discoverer) markGateway(ctx context.Context, hops []Hop) {
	if len(hops) == 0 || !hops[0].Responded() || d.gateway == nil {
		return
	}
	ip, err := d.gateway()
	if err != nil {
		logger.FromContext(ctx).DebugContext(ctx, "Failed to determine default gateway", "error", err)
		return
	}
	gw, ok := netip.AddrFromSlice(ip)
	hops[0].Gateway = ok && gw.Unmap() == hops[0].Addr
}
