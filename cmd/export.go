// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/telekom/pathmon/internal/logger"
	"github.com/telekom/pathmon/pkg/session"
	"github.com/telekom/pathmon/pkg/store"
)

// NewCmdExport creates the export command converting saved sessions offline
func NewCmdExport() *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Convert a saved session file",
		Long: "Convert a saved session file into csv, json, yaml or summary csv without a running pathmon.\n" +
			"The result is written to stdout unless an output file is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := contextWithLogger(cmd)
			defer cancel()

			f, err := store.ParseExportFormat(format)
			if err != nil {
				return err
			}
			s, err := loadFile(args[0])
			if err != nil {
				return err
			}

			if output == "" {
				return store.Export(cmd.OutOrStdout(), s, f)
			}
			logger.FromContext(ctx).DebugContext(ctx, "Exporting session", "file", args[0], "output", output, "format", f)
			return writeExport(output, func(w io.Writer) error {
				return store.Export(w, s, f)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(store.ExportCSV), "Export format (csv, json, yaml, summary)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "File the export is written to")
	return cmd
}

// loadFile reads a saved session document, the format follows the extension
func loadFile(path string) (*session.Snapshot, error) {
	b, err := os.ReadFile(path) //nolint:gosec // the path is given by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	f := store.FormatJSON
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		f = store.FormatYAML
	}
	return store.Load(b, f)
}

// writeExport writes the output of fn to path
func writeExport(path string, fn func(w io.Writer) error) (err error) {
	file, err := os.Create(path) //nolint:gosec // the path is given by the user
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		if cErr := file.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("failed to close export file: %w", cErr)
		}
	}()
	return fn(file)
}
