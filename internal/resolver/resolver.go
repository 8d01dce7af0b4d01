// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"net"
)

var _ Resolver = (*netResolver)(nil)

// Resolver performs forward and reverse DNS lookups.
//
//go:generate go tool moq -out resolver_moq.go . Resolver
type Resolver interface {
	// LookupAddr returns the names mapping to the given address.
	LookupAddr(ctx context.Context, addr string) ([]string, error)
	// LookupHost returns the addresses of the given host.
	LookupHost(ctx context.Context, host string) ([]string, error)
}

type netResolver struct {
	*net.Resolver
}

// New returns a [Resolver] backed by the system resolver.
func New() Resolver {
	return &netResolver{
		Resolver: &net.Resolver{PreferGo: true},
	}
}
