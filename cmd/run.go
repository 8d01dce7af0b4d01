// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/telekom/pathmon/internal/logger"
	"github.com/telekom/pathmon/internal/probe"
	"github.com/telekom/pathmon/internal/traceroute"
	"github.com/telekom/pathmon/pkg/config"
	"github.com/telekom/pathmon/pkg/pathmon"
	"github.com/telekom/pathmon/pkg/session"
	"github.com/telekom/pathmon/pkg/stats"
)

// NewCmdRun creates a new run command
func NewCmdRun() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run pathmon",
		Long:  "Run pathmon to monitor network paths and serve the session API",
		RunE:  run(),
	}

	NewFlag("name", "name").String().Bind(cmd, "", "The DNS name of this pathmon instance")
	NewFlag("api.address", "apiAddress").String().Bind(cmd, ":8080", "api: The address the server is listening on")
	NewFlag("monitor.target", "target").String().Bind(cmd, "", "monitor: Host name or address to monitor right after startup")
	NewFlag("monitor.interval", "interval").Duration().Bind(cmd, session.DefaultInterval, "monitor: Time between two probes of a hop (1s-10s)")
	NewFlag("monitor.timeout", "timeout").Duration().Bind(cmd, traceroute.DefaultTimeout, "monitor: Timeout of a single probe")
	NewFlag("monitor.maxHops", "maxHops").Int().Bind(cmd, traceroute.DefaultMaxTTL, "monitor: Maximum number of hops of the path discovery")
	NewFlag("monitor.attempts", "attempts").Int().Bind(cmd, traceroute.DefaultAttempts, "monitor: Probes per hop before it is recorded as silent")
	NewFlag("monitor.window", "window").Int().Bind(cmd, stats.DefaultWindow, "monitor: Number of probes of the rolling statistics")
	NewFlag("monitor.retention", "retention").Int().Bind(cmd, stats.DefaultRetention, "monitor: Number of time series points kept per hop")
	NewFlag("monitor.resolve", "resolve").Bool().Bind(cmd, true, "monitor: Resolve the names of the hops")
	NewFlag("monitor.mode", "mode").String().Bind(cmd, string(probe.ModeAuto), "monitor: ICMP socket mode (auto, privileged, unprivileged)")
	NewFlag("store.path", "storePath").String().Bind(cmd, defaultStorePath(), "store: Directory of the saved sessions")
	NewFlag("store.autoSaveInterval", "autoSaveInterval").Duration().Bind(cmd, time.Minute, "store: Interval of the automatic session save, 0 disables it")
	NewFlag("store.format", "storeFormat").String().Bind(cmd, "json", "store: Format of the saved sessions (json, yaml)")

	return cmd
}

// run is the entry point to start pathmon
func run() func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg := &config.Config{}
		err := viper.Unmarshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}

		ctx, cancel := logger.NewContextWithLogger(cmd.Context())
		log := logger.FromContext(ctx)
		defer cancel()

		if err = cfg.Validate(ctx); err != nil {
			return fmt.Errorf("error while validating the config: %w", err)
		}

		p, err := pathmon.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to create pathmon: %w", err)
		}

		cErr := make(chan error, 1)
		log.InfoContext(ctx, "Running pathmon", "address", cfg.Api.ListeningAddress, "target", cfg.Monitor.Target)
		go func() {
			cErr <- p.Run(ctx)
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-sigChan:
			log.InfoContext(ctx, "Signal received, shutting down")
			cancel()
			<-cErr
		case err := <-cErr:
			if errors.Is(err, pathmon.ErrFinalShutdown) {
				return nil
			}
			return err
		}

		return nil
	}
}

// defaultStorePath returns the pathmon directory of the user config dir
func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".pathmon"
	}
	return filepath.Join(dir, "pathmon", "sessions")
}

// contextWithLogger wraps cmd.Context with the logger for short-lived commands
func contextWithLogger(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return logger.NewContextWithLogger(cmd.Context())
}
