// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/telekom/pathmon/internal/logger"
)

// Config configures the trace export of a pathmon instance.
type Config struct {
	// Enabled turns on the span export. Spans are always recorded.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Exporter selects where spans are sent.
	Exporter Exporter `yaml:"exporter" mapstructure:"exporter"`
	// Url of the collector receiving the spans of the otlp exporters.
	Url string `yaml:"url" mapstructure:"url"`
	// Token is sent as bearer token to the collector.
	Token string `yaml:"token" mapstructure:"token"`
	TLS   TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// TLSConfig configures the connection to the collector.
type TLSConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// CertPath points to a PEM bundle of custom root certificates.
	CertPath string `yaml:"certPath" mapstructure:"certPath"`
}

var (
	// ErrInvalidExporter is returned for an unknown exporter
	ErrInvalidExporter = errors.New("invalid exporter")
	// ErrInvalidCollector is returned for a missing or malformed collector url
	ErrInvalidCollector = errors.New("invalid collector url")
	// ErrInvalidCertificate is returned if the custom certificate cannot be read
	ErrInvalidCertificate = errors.New("invalid certificate path")
)

// Validate checks the telemetry configuration. A disabled configuration is always valid.
func (c *Config) Validate(ctx context.Context) error {
	if !c.Enabled {
		return nil
	}
	log := logger.FromContext(ctx).With("exporter", c.Exporter)

	var errs []error
	if err := c.Exporter.Validate(); err != nil {
		log.ErrorContext(ctx, "Invalid exporter", "error", err)
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidExporter, err))
	}

	if c.Exporter.IsExporting() {
		u, err := url.Parse(c.Url)
		if c.Url == "" || err != nil || u.Scheme == "" || u.Host == "" {
			log.ErrorContext(ctx, "The otlp exporters need the absolute url of a collector", "url", c.Url)
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidCollector, c.Url))
		}
	}

	if c.TLS.Enabled && c.TLS.CertPath != "" {
		if _, err := os.Stat(c.TLS.CertPath); err != nil {
			log.ErrorContext(ctx, "Certificate not readable", "path", c.TLS.CertPath, "error", err)
			errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidCertificate, err))
		}
	}
	return errors.Join(errs...)
}
