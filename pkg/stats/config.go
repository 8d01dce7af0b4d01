// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"errors"
	"fmt"
)

const (
	// DefaultWindow is the default number of probes in the rolling window.
	DefaultWindow = 20
	// DefaultRetention is the default number of time-series points kept per hop.
	DefaultRetention = 3600
)

// ErrInvalidConfig is returned when the aggregator configuration is invalid.
var ErrInvalidConfig = errors.New("invalid statistics configuration")

// Config configures an [Aggregator].
type Config struct {
	// Window is the number of most recent probes the rolling statistics are computed over.
	Window int `json:"window" yaml:"window" mapstructure:"window"`
	// Retention caps the number of points of the time series.
	// The oldest points are evicted first.
	Retention int `json:"retention" yaml:"retention" mapstructure:"retention"`
}

// Validate checks the configuration. Zero values are allowed and mean the defaults.
func (c Config) Validate() error {
	var errs []error
	if c.Window < 0 {
		errs = append(errs, fmt.Errorf("%w: window must not be negative, got %d", ErrInvalidConfig, c.Window))
	}
	if c.Retention < 0 {
		errs = append(errs, fmt.Errorf("%w: retention must not be negative, got %d", ErrInvalidConfig, c.Retention))
	}
	if c.Window > 0 && c.Retention > 0 && c.Retention < c.Window {
		errs = append(errs, fmt.Errorf("%w: retention %d is smaller than the window %d", ErrInvalidConfig, c.Retention, c.Window))
	}
	return errors.Join(errs...)
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.Retention <= 0 {
		c.Retention = DefaultRetention
	}
	return c
}
