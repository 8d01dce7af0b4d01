// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/telekom/pathmon/internal/logger"
	"github.com/telekom/pathmon/pkg/session"
	"github.com/telekom/pathmon/pkg/store"
)

// Validate validates the startup config
func (c *Config) Validate(ctx context.Context) (err error) {
	log := logger.FromContext(ctx)
	if c.Name != "" && !isDNSName(c.Name) {
		log.ErrorContext(ctx, "The name of the instance must be DNS compliant", "name", c.Name)
		err = errors.Join(err, ErrInvalidName)
	}

	if vErr := c.Monitor.Validate(ctx); vErr != nil {
		log.ErrorContext(ctx, "The monitor configuration is invalid")
		err = errors.Join(err, vErr)
	}

	if vErr := c.Store.Validate(ctx); vErr != nil {
		log.ErrorContext(ctx, "The store configuration is invalid")
		err = errors.Join(err, vErr)
	}

	if c.HasTelemetry() {
		if vErr := c.Telemetry.Validate(ctx); vErr != nil {
			log.ErrorContext(ctx, "The telemetry configuration is invalid")
			err = errors.Join(err, vErr)
		}
	}

	if vErr := c.Api.Validate(); vErr != nil {
		log.ErrorContext(ctx, "The api configuration is invalid")
		err = errors.Join(err, vErr)
	}

	if err != nil {
		return fmt.Errorf("validation of configuration failed: %w", err)
	}
	return nil
}

// Validate validates the monitor configuration
func (c *MonitorConfig) Validate(ctx context.Context) (err error) {
	log := logger.FromContext(ctx)
	if vErr := session.ValidateInterval(c.ProbeInterval()); vErr != nil {
		log.ErrorContext(ctx, "The probe interval is out of range", "interval", c.Interval)
		err = errors.Join(err, vErr)
	}

	if c.Timeout < 0 {
		log.ErrorContext(ctx, "The probe timeout must not be negative", "timeout", c.Timeout)
		err = errors.Join(err, fmt.Errorf("%w: negative timeout %v", ErrInvalidMonitor, c.Timeout))
	}

	cfg := c.Session()
	if vErr := cfg.Validate(); vErr != nil {
		log.ErrorContext(ctx, "The monitor limits are invalid", "error", vErr)
		err = errors.Join(err, fmt.Errorf("%w: %w", ErrInvalidMonitor, vErr))
	}

	if c.Mode != "" && !c.Mode.IsValid() {
		log.ErrorContext(ctx, "Unknown probe mode", "mode", c.Mode)
		err = errors.Join(err, fmt.Errorf("%w: %q", ErrInvalidMode, c.Mode))
	}
	return err
}

// Validate validates the store configuration
func (c *StoreConfig) Validate(ctx context.Context) (err error) {
	log := logger.FromContext(ctx)
	if c.Path == "" {
		log.ErrorContext(ctx, "The store path cannot be empty")
		err = errors.Join(err, ErrInvalidStorePath)
	}

	if c.AutoSaveInterval < 0 {
		log.ErrorContext(ctx, "The auto-save interval must not be negative", "interval", c.AutoSaveInterval)
		err = errors.Join(err, ErrInvalidAutoSaveInterval)
	}

	if _, fErr := store.ParseFormat(string(c.Format)); fErr != nil {
		log.ErrorContext(ctx, "Unknown store format", "format", c.Format)
		err = errors.Join(err, fErr)
	}
	return err
}

var dnsName = regexp.MustCompile(`^([a-z0-9]([a-z0-9\-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)

// isDNSName checks if the given string is a valid DNS name
func isDNSName(s string) bool {
	return dnsName.MatchString(s)
}
