// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/telekom/pathmon/pkg/client"
	"github.com/telekom/pathmon/pkg/session"
	"github.com/telekom/pathmon/pkg/store"
)

// NewCmdSession creates the session command controlling a running pathmon
func NewCmdSession() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Control the session of a running pathmon",
	}
	NewFlag("url", "url").String().Bind(cmd, client.DefaultURL, "Base URL of the pathmon API")

	cmd.AddCommand(
		newCmdStart(),
		newCmdTransition("pause", "Pause the monitoring of the current session", (*client.Client).Pause),
		newCmdTransition("resume", "Resume the monitoring of the current session", (*client.Client).Resume),
		newCmdTransition("stop", "Stop the current session", (*client.Client).Stop),
		newCmdStatus(),
		newCmdWatch(),
		newCmdSave(),
		newCmdList(),
		newCmdRestore(),
		newCmdSessionExport(),
	)
	return cmd
}

func newClient() (*client.Client, error) {
	return client.New(viper.GetString("url"), nil)
}

// withClient runs fn with an API client and a context carrying the logger
func withClient(fn func(ctx context.Context, cmd *cobra.Command, c *client.Client, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := contextWithLogger(cmd)
		defer cancel()
		return fn(ctx, cmd, c, args)
	}
}

func newCmdStart() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "start TARGET",
		Short: "Start monitoring the path to a host name or address",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, args []string) error {
			resp, err := c.Start(ctx, args[0], interval)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
	cmd.Flags().DurationVar(&interval, "interval", session.DefaultInterval, "Time between two probes of a hop (1s-10s)")
	return cmd
}

func newCmdTransition(use, short string, op func(*client.Client, context.Context) (*session.Snapshot, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
			s, err := op(c, ctx)
			if err != nil {
				return err
			}
			return printSnapshot(cmd.OutOrStdout(), s)
		}),
	}
}

func newCmdStatus() *cobra.Command {
	var window time.Duration
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the hops and statistics of the current session",
		Args:  cobra.NoArgs,
		RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
			s, err := c.Snapshot(ctx, client.View{Window: window, Summary: true})
			if err != nil {
				return err
			}
			return printSnapshot(cmd.OutOrStdout(), s)
		}),
	}
	cmd.Flags().DurationVar(&window, "window", 0, "Only consider the probes of the last window (e.g. 5m)")
	return cmd
}

func newCmdWatch() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the statistics of the current session on every update",
		Args:  cobra.NoArgs,
		RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
			return c.Stream(ctx, client.View{Summary: true}, func(s session.Snapshot) error {
				return printSnapshot(cmd.OutOrStdout(), &s)
			})
		}),
	}
}

func newCmdSave() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save the current session",
		Args:  cobra.NoArgs,
		RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
			name, err := c.Save(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), name)
			return err
		}),
	}
}

func newCmdList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the saved sessions, most recent first",
		Args:  cobra.NoArgs,
		RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, _ []string) error {
			entries, err := c.List(ctx)
			if err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), entries)
		}),
	}
}

func newCmdRestore() *cobra.Command {
	return &cobra.Command{
		Use:   "restore NAME",
		Short: "Make a saved session the current session for review",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, args []string) error {
			s, err := c.Restore(ctx, args[0])
			if err != nil {
				return err
			}
			return printSnapshot(cmd.OutOrStdout(), s)
		}),
	}
}

func newCmdSessionExport() *cobra.Command {
	var (
		format string
		saved  string
		dir    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current or a saved session",
		Long:  "Export the current or a saved session as csv, json, yaml or summary csv into the given directory",
		Args:  cobra.NoArgs,
		RunE: withClient(func(ctx context.Context, cmd *cobra.Command, c *client.Client, _ []string) (err error) {
			f, err := store.ParseExportFormat(format)
			if err != nil {
				return err
			}
			tmp, err := os.CreateTemp(dir, ".pathmon-export-*")
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}
			defer func() {
				if err != nil {
					_ = tmp.Close()
					_ = os.Remove(tmp.Name())
				}
			}()

			w := bufio.NewWriter(tmp)
			var name string
			if saved != "" {
				name, err = c.ExportSaved(ctx, saved, f, w)
			} else {
				name, err = c.Export(ctx, f, w)
			}
			if err != nil {
				return err
			}
			if err = w.Flush(); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			if err = tmp.Close(); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			if name == "" {
				name = "session" + f.Ext()
			}
			path := filepath.Join(dir, filepath.Base(name))
			if err = os.Rename(tmp.Name(), path); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(store.ExportCSV), "Export format (csv, json, yaml, summary)")
	cmd.Flags().StringVar(&saved, "saved", "", "Name of a saved session to export instead of the current one")
	cmd.Flags().StringVarP(&dir, "output", "o", ".", "Directory the export is written to")
	return cmd
}
