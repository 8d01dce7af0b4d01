// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/telekom/pathmon/internal/helper"
	"github.com/telekom/pathmon/internal/logger"
)

// ErrNoAddress is returned when a host resolves but none of its
// addresses can be used as a probe destination.
var ErrNoAddress = errors.New("no usable address")

// DefaultNameTTL is how long reverse lookups stay cached.
const DefaultNameTTL = 10 * time.Minute

// Cache wraps a [Resolver] and caches reverse lookups.
// Failed lookups are cached as well, so an address without a PTR
// record is not queried again on every session start.
type Cache struct {
	resolver Resolver
	names    *ttlcache.Cache[netip.Addr, string]
	retry    helper.RetryConfig
}

// NewCache creates a cache around r. Entries expire after ttl.
func NewCache(r Resolver, ttl time.Duration, retry helper.RetryConfig) *Cache {
	if ttl <= 0 {
		ttl = DefaultNameTTL
	}
	return &Cache{
		resolver: r,
		names: ttlcache.New[netip.Addr, string](
			ttlcache.WithTTL[netip.Addr, string](ttl),
			ttlcache.WithDisableTouchOnHit[netip.Addr, string](),
		),
		retry: retry,
	}
}

// Start runs the expiry loop of the cache until Stop is called.
func (c *Cache) Start() {
	c.names.Start()
}

// Stop terminates the expiry loop.
func (c *Cache) Stop() {
	c.names.Stop()
}

// Name returns the reverse DNS name of addr without the trailing dot.
// Lookup failures are not fatal and yield an empty name.
func (c *Cache) Name(ctx context.Context, addr netip.Addr) string {
	if !addr.IsValid() {
		return ""
	}
	if item := c.names.Get(addr); item != nil {
		return item.Value()
	}

	log := logger.FromContext(ctx)
	names, err := c.resolver.LookupAddr(ctx, addr.String())
	name := ""
	if err != nil || len(names) == 0 {
		log.DebugContext(ctx, "Reverse lookup failed", "address", addr, "error", err)
	} else {
		name = strings.TrimSuffix(names[0], ".")
	}

	c.names.Set(addr, name, ttlcache.DefaultTTL)
	return name
}

// Resolve returns the probe destination for host.
// IP literals are returned as is. Host names are looked up with retries
// on temporary failures, IPv4 addresses are preferred.
func (c *Cache) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.Unmap(), nil
	}

	var records []string
	err := helper.RetryIf(func(ctx context.Context) (err error) {
		records, err = c.resolver.LookupHost(ctx, host)
		return err
	}, c.retry, isTemporary)(ctx)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("failed to resolve %q: %w", host, err)
	}

	return pickAddress(records)
}

// pickAddress returns the first IPv4 record or, if there is none,
// the first IPv6 record.
func pickAddress(records []string) (netip.Addr, error) {
	var v6 netip.Addr
	for _, record := range records {
		addr, err := netip.ParseAddr(record)
		if err != nil {
			continue
		}
		addr = addr.Unmap()
		if addr.Is4() {
			return addr, nil
		}
		if !v6.IsValid() {
			v6 = addr
		}
	}
	if v6.IsValid() {
		return v6, nil
	}
	return netip.Addr{}, ErrNoAddress
}

// isTemporary reports whether a lookup error is worth retrying.
func isTemporary(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}
	return !errors.Is(err, context.Canceled)
}
