// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"net"
	"strconv"
)

// Config is the configuration of the API server.
type Config struct {
	// ListeningAddress is the address the server listens on, e.g. ":8080".
	ListeningAddress string    `yaml:"address" mapstructure:"address"`
	TLS              TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// TLSConfig enables TLS with a certificate and key on disk.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	CertPath string `yaml:"certPath" mapstructure:"certPath"`
	KeyPath  string `yaml:"keyPath" mapstructure:"keyPath"`
}

// Validate checks the listening address and the TLS files.
func (c *Config) Validate() (err error) {
	_, port, aErr := net.SplitHostPort(c.ListeningAddress)
	if aErr != nil {
		err = errors.Join(err, ErrInvalidAddress)
	} else if p, pErr := strconv.Atoi(port); pErr != nil || p < 0 || p > 65535 {
		err = errors.Join(err, ErrInvalidAddress)
	}

	if c.TLS.Enabled && (c.TLS.CertPath == "" || c.TLS.KeyPath == "") {
		err = errors.Join(err, ErrInvalidTLS)
	}
	return err
}
