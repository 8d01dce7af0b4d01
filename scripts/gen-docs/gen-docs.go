// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package main

//go:generate go run gen-docs.go --path ../../docs

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
	pathmoncmd "github.com/telekom/pathmon/cmd"
)

func main() {
	if err := newCmdGenDocs().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newCmdGenDocs creates the command writing the CLI reference of pathmon
func newCmdGenDocs() *cobra.Command {
	var (
		path string
		man  bool
	)

	cmd := &cobra.Command{
		Use:   "gen-docs",
		Short: "Generates the CLI reference of pathmon",
		Long:  "Generates one markdown page, or man page, per pathmon command with its flags",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := os.MkdirAll(path, 0o750); err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			root := pathmoncmd.BuildCmd("")
			root.DisableAutoGenTag = true

			var err error
			if man {
				err = doc.GenManTree(root, &doc.GenManHeader{Title: "PATHMON", Section: "1"}, path)
			} else {
				err = doc.GenMarkdownTree(root, path)
			}
			if err != nil {
				return fmt.Errorf("failed to generate docs: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "docs", "directory the pages are written to")
	cmd.Flags().BoolVar(&man, "man", false, "generate man pages instead of markdown")

	return cmd
}
