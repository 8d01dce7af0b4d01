// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package traceroute discovers the router path towards a target with
// ICMP echo requests of increasing TTL.
//
// It exposes a [Discoverer] that resolves the target, probes every TTL
// up to the hop budget and returns the ordered hops, stopping at the first
// TTL answered by the target itself.
//
// Key features:
//   - One goroutine per TTL, fanned out with an errgroup; a fatal probe
//     error such as missing ICMP permissions cancels the whole discovery
//   - Silent TTLs are kept as placeholder hops without address, so hop
//     indices always match TTLs
//   - Duplicate addresses at different TTLs (routing loops, load balancers)
//     are kept as distinct hops
//   - Reverse DNS lookups through a cache, failures are not fatal
//   - The first hop is flagged when it is the host's default gateway
//   - Built-in OpenTelemetry spans and events for each hop and errors
//
// Typical usage:
//
//	d := traceroute.NewDiscoverer(probe.NewProber(probe.ModeAuto), names)
//	hops, err := d.Discover(ctx, "example.com", &traceroute.Options{MaxTTL: 30, Resolve: true})
package traceroute
