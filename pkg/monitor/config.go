// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"errors"
	"fmt"
	"time"

	"github.com/telekom/pathmon/internal/probe"
	"github.com/telekom/pathmon/pkg/stats"
)

// DefaultTimeout is the default timeout of a single probe.
const DefaultTimeout = time.Second

// ErrInvalidConfig is returned when the monitor configuration is invalid.
var ErrInvalidConfig = errors.New("invalid monitor configuration")

// Config configures a [Monitor].
type Config struct {
	// Interval is the fixed time between two probes.
	Interval time.Duration
	// Timeout bounds every probe. It is capped at the interval,
	// so a silent hop never delays its own schedule.
	Timeout time.Duration
	// TTL is the TTL of the probes. Defaults to [probe.DefaultTTL].
	TTL int
	// Stats configures the aggregator of the monitor.
	Stats stats.Config
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("%w: interval must be positive, got %v", ErrInvalidConfig, c.Interval))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%w: timeout must not be negative, got %v", ErrInvalidConfig, c.Timeout))
	}
	if c.TTL < 0 || c.TTL > 255 {
		errs = append(errs, fmt.Errorf("%w: ttl must be between 0 and 255, got %d", ErrInvalidConfig, c.TTL))
	}
	if err := c.Stats.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Interval > 0 && c.Timeout > c.Interval {
		c.Timeout = c.Interval
	}
	if c.TTL <= 0 {
		c.TTL = probe.DefaultTTL
	}
	return c
}
