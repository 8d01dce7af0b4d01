// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/telekom/pathmon/pkg/session"
	"github.com/telekom/pathmon/pkg/store"
	"golang.org/x/term"
)

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit into int
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printSnapshot renders a table on a terminal and JSON otherwise
func printSnapshot(w io.Writer, s *session.Snapshot) error {
	if !isTerminal(w) {
		return printJSON(w, s)
	}
	return writeTable(w, s)
}

func writeTable(w io.Writer, s *session.Snapshot) error {
	header := fmt.Sprintf("%s  %s", s.State, s.Target)
	if s.Address.IsValid() {
		header += fmt.Sprintf(" (%s)", s.Address)
	}
	if s.Error != "" {
		header += "  " + s.Error
	}
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(tw, "HOP\tADDRESS\tNAME\tCUR\tAVG\tMIN\tMAX\tJITTER\tLOSS%\tSENT\t")
	for _, h := range s.Hops {
		st := s.Statistics[h.Index]
		addr := "*"
		if h.Address.IsValid() {
			addr = h.Address.String()
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%.1f\t%d\t\n",
			h.Index, addr, h.DisplayName,
			ms(st.CurrentLatencyMs), ms(st.RollingAvgMs), ms(st.MinLatencyMs), ms(st.MaxLatencyMs), ms(st.RollingJitterMs),
			st.RollingLossPct, st.SampleCount)
	}
	return tw.Flush()
}

func printEntries(w io.Writer, entries []store.Entry) error {
	if !isTerminal(w) {
		return printJSON(w, entries)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tMODIFIED\tSIZE")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\n", e.Name, e.ModTime.Local().Format(time.DateTime), e.Size)
	}
	return tw.Flush()
}

// ms formats a latency in milliseconds, "-" if there is none
func ms(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
