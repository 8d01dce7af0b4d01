// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/telekom/pathmon/internal/traceroute"
	"github.com/telekom/pathmon/pkg/stats"
)

const (
	// MinInterval is the shortest allowed probe interval.
	MinInterval = time.Second
	// MaxInterval is the longest allowed probe interval.
	MaxInterval = 10 * time.Second
	// DefaultInterval is the probe interval used when none is given.
	DefaultInterval = 2500 * time.Millisecond
	// idleTick is the publish interval while no session is live.
	idleTick = time.Second
)

// Config contains the settings shared by all sessions of a controller.
type Config struct {
	// Discovery configures the path discovery.
	Discovery traceroute.Options `json:"discovery" yaml:"discovery" mapstructure:"discovery"`
	// Timeout bounds every monitoring probe. Defaults to the discovery timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	// TTL is the TTL of monitoring probes.
	TTL int `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
	// Stats configures the statistics of every hop.
	Stats stats.Config `json:"stats" yaml:"stats" mapstructure:"stats"`
}

// ValidateInterval checks that a probe interval is within [MinInterval, MaxInterval].
func ValidateInterval(d time.Duration) error {
	if d < MinInterval || d > MaxInterval {
		return fmt.Errorf("%w: %v is not within [%v, %v]", ErrInvalidInterval, d, MinInterval, MaxInterval)
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Discovery.MaxTTL < 0 || c.Discovery.MaxTTL > 255 {
		errs = append(errs, fmt.Errorf("max hops must be between 1 and 255, got %d", c.Discovery.MaxTTL))
	}
	if c.Discovery.Attempts < 0 {
		errs = append(errs, fmt.Errorf("attempts must not be negative, got %d", c.Discovery.Attempts))
	}
	if c.Timeout < 0 || c.Discovery.Timeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if err := c.Stats.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// probeTimeout returns the monitoring timeout.
func (c *Config) probeTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return c.Discovery.Timeout
}
