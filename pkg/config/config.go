// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"

	"github.com/telekom/pathmon/internal/probe"
	"github.com/telekom/pathmon/internal/traceroute"
	"github.com/telekom/pathmon/pkg/api"
	"github.com/telekom/pathmon/pkg/pathmon/metrics"
	"github.com/telekom/pathmon/pkg/session"
	"github.com/telekom/pathmon/pkg/stats"
	"github.com/telekom/pathmon/pkg/store"
)

// Metadata holds optional ownership and platform information of the instance.
// It is exposed through the pathmon_instance_info metric.
type Metadata struct {
	Team TeamMetadata `yaml:"team" mapstructure:"team"`
	// Platform identifies where the instance runs (e.g. edge-fra1)
	Platform string `yaml:"platform" mapstructure:"platform"`
}

// TeamMetadata holds team name and contact for ownership
type TeamMetadata struct {
	Name  string `yaml:"name" mapstructure:"name"`
	Email string `yaml:"email" mapstructure:"email"`
}

// Labels returns the metadata as instance info labels.
func (m Metadata) Labels() map[string]string {
	return map[string]string{
		"team_name":  m.Team.Name,
		"team_email": m.Team.Email,
		"platform":   m.Platform,
	}
}

// Config is the startup configuration of pathmon.
type Config struct {
	// Name is the optional DNS name of the instance
	Name     string   `yaml:"name" mapstructure:"name"`
	Metadata Metadata `yaml:"metadata" mapstructure:"metadata"`
	// Api is the configuration for the api server
	Api api.Config `yaml:"api" mapstructure:"api"`
	// Monitor configures path discovery and monitoring
	Monitor MonitorConfig `yaml:"monitor" mapstructure:"monitor"`
	// Store configures where sessions are saved
	Store StoreConfig `yaml:"store" mapstructure:"store"`
	// Telemetry is the configuration for the trace export
	Telemetry metrics.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// MonitorConfig configures the sessions of the instance.
type MonitorConfig struct {
	// Target is monitored right after startup if set
	Target string `yaml:"target" mapstructure:"target"`
	// Interval between two probes of a hop
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	// Timeout of a single probe
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MaxHops is the hop budget of the path discovery
	MaxHops int `yaml:"maxHops" mapstructure:"maxHops"`
	// Attempts per TTL before a hop is recorded as silent
	Attempts int `yaml:"attempts" mapstructure:"attempts"`
	// Window is the number of probes of the rolling statistics
	Window int `yaml:"window" mapstructure:"window"`
	// Retention caps the time series of every hop
	Retention int `yaml:"retention" mapstructure:"retention"`
	// Resolve enables reverse DNS lookups of the hops
	Resolve bool `yaml:"resolve" mapstructure:"resolve"`
	// Mode selects the ICMP socket kind
	Mode probe.Mode `yaml:"mode" mapstructure:"mode"`
}

// Session returns the controller settings.
func (c *MonitorConfig) Session() session.Config {
	return session.Config{
		Discovery: traceroute.Options{
			MaxTTL:   c.MaxHops,
			Timeout:  c.Timeout,
			Attempts: c.Attempts,
			Resolve:  c.Resolve,
		},
		Timeout: c.Timeout,
		Stats: stats.Config{
			Window:    c.Window,
			Retention: c.Retention,
		},
	}
}

// ProbeInterval returns the configured interval or [session.DefaultInterval].
func (c *MonitorConfig) ProbeInterval() time.Duration {
	if c.Interval == 0 {
		return session.DefaultInterval
	}
	return c.Interval
}

// StoreConfig configures the session store.
type StoreConfig struct {
	// Path is the directory of the saved sessions
	Path string `yaml:"path" mapstructure:"path"`
	// AutoSaveInterval is how often the current session is saved automatically.
	// Zero disables the periodic auto-save; the session is still saved on shutdown.
	AutoSaveInterval time.Duration `yaml:"autoSaveInterval" mapstructure:"autoSaveInterval"`
	// Format of the saved documents
	Format store.Format `yaml:"format" mapstructure:"format"`
}

// HasTarget returns true if a session should be started on startup
func (c *Config) HasTarget() bool {
	return c.Monitor.Target != ""
}

// HasTelemetry returns true if the config has telemetry enabled
func (c *Config) HasTelemetry() bool {
	return c.Telemetry.Enabled
}
