// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"time"

	"github.com/telekom/pathmon/internal/probe"
)

const (
	// DefaultMaxTTL is the default hop budget of a discovery.
	DefaultMaxTTL = 30
	// DefaultAttempts is the default number of probes per TTL.
	DefaultAttempts = 3
	// DefaultTimeout is the default timeout of a single probe.
	DefaultTimeout = 2 * time.Second
)

// Options contains the optional configuration for a discovery.
type Options struct {
	// MaxTTL is the maximum TTL to probe.
	MaxTTL int `json:"maxHops" yaml:"maxHops" mapstructure:"maxHops"`
	// Timeout is the timeout of each probe.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	// Attempts is how many probes are sent for a TTL before it is
	// recorded as silent.
	Attempts int `json:"attempts" yaml:"attempts" mapstructure:"attempts"`
	// Resolve enables reverse DNS lookups of the discovered hops.
	Resolve bool `json:"resolve" yaml:"resolve" mapstructure:"resolve"`
}

// withDefaults returns a copy of the options with unset values defaulted.
func (o *Options) withDefaults() Options {
	var opts Options
	if o != nil {
		opts = *o
	}
	if opts.MaxTTL <= 0 {
		opts.MaxTTL = DefaultMaxTTL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	return opts
}

// Hop is one position on the discovered path.
type Hop struct {
	// TTL is the position on the path, starting at 1.
	TTL int `json:"ttl" yaml:"ttl"`
	// Addr is the address that answered for this TTL.
	// It is invalid for hops that never answered.
	Addr netip.Addr `json:"addr" yaml:"addr"`
	// Name is the reverse DNS name of Addr, if any.
	Name string `json:"name" yaml:"name"`
	// Latency is the round-trip time of the answering probe.
	Latency time.Duration `json:"-" yaml:"-"`
	// Reached reports that the answer came from the target itself.
	Reached bool `json:"reached" yaml:"reached"`
	// Gateway reports that the hop is the host's default gateway.
	Gateway bool `json:"gateway,omitempty" yaml:"gateway,omitempty"`
	// Reason is set when the hop answered with an ICMP error other than time-exceeded.
	Reason probe.Reason `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Responded reports whether any probe for this hop was answered.
func (h Hop) Responded() bool {
	return h.Addr.IsValid()
}

func (h Hop) MarshalJSON() ([]byte, error) {
	type alias Hop
	return json.Marshal(&struct {
		Latency string `json:"latency"`
		alias
	}{
		Latency: h.Latency.String(),
		alias:   alias(h),
	})
}

func (h Hop) String() string {
	reached := ""
	if h.Reached {
		reached = "  (reached)"
	}

	const maxNameLength = 45
	name := h.Name
	if name == "" || len(name) > maxNameLength {
		name = "*"
		if h.Responded() {
			name = h.Addr.String()
		}
	}

	return fmt.Sprintf("%-2d  %-45.45s  %s%s",
		h.TTL, name, h.Latency.String(), reached)
}
