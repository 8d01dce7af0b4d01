// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExporter_Validate(t *testing.T) {
	for _, e := range []Exporter{HTTP, GRPC, STDOUT, NOOP, ""} {
		assert.NoError(t, e.Validate(), "exporter %q", e)
	}
	assert.Error(t, Exporter("kafka").Validate())
}

func TestExporter_IsExporting(t *testing.T) {
	assert.True(t, HTTP.IsExporting())
	assert.True(t, GRPC.IsExporting())
	assert.False(t, STDOUT.IsExporting())
	assert.False(t, NOOP.IsExporting())
}

func TestExporter_Create(t *testing.T) {
	tests := []struct {
		name     string
		exporter Exporter
		config   Config
		wantErr  bool
	}{
		{name: "http", exporter: HTTP, config: Config{Url: "http://localhost:4318"}},
		{name: "grpc", exporter: GRPC, config: Config{Url: "http://localhost:4317", Token: "t"}},
		{name: "grpc with system roots", exporter: GRPC, config: Config{Url: "https://localhost:4317", TLS: TLSConfig{Enabled: true}}},
		{name: "stdout", exporter: STDOUT},
		{name: "noop", exporter: NOOP},
		{name: "empty", exporter: ""},
		{name: "unknown", exporter: "kafka", wantErr: true},
		{
			name:     "unreadable certificate",
			exporter: HTTP,
			config:   Config{Url: "https://localhost:4318", TLS: TLSConfig{Enabled: true, CertPath: "does-not-exist.pem"}},
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := tt.exporter.Create(t.Context(), &tt.config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, exp.Shutdown(t.Context()))
		})
	}
}

func TestGetTLSConfig(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		cfg, err := getTLSConfig(TLSConfig{CertPath: "ignored.pem"})
		require.NoError(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("no pem block", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ca.pem")
		require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o600))

		_, err := getTLSConfig(TLSConfig{Enabled: true, CertPath: path})
		assert.Error(t, err)
	})

	t.Run("system roots", func(t *testing.T) {
		cfg, err := getTLSConfig(TLSConfig{Enabled: true})
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Nil(t, cfg.RootCAs)
	})
}
