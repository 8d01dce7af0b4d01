// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/telekom/pathmon/pkg/session"
)

// ExportFormat is a flat export format of a session.
type ExportFormat string

const (
	ExportCSV     ExportFormat = "csv"
	ExportJSON    ExportFormat = "json"
	ExportYAML    ExportFormat = "yaml"
	ExportSummary ExportFormat = "summary"
)

// ParseExportFormat parses an export format. An empty string means CSV.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(s)); f {
	case "":
		return ExportCSV, nil
	case ExportCSV, ExportJSON, ExportYAML, ExportSummary:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the media type of the export format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportJSON:
		return "application/json"
	case ExportYAML:
		return "application/yaml"
	default:
		return "text/csv"
	}
}

// Ext returns the file extension of the export format.
func (f ExportFormat) Ext() string {
	switch f {
	case ExportJSON:
		return ".json"
	case ExportYAML:
		return ".yaml"
	case ExportSummary:
		return "_summary.csv"
	default:
		return ".csv"
	}
}

// ExportName returns a file name for the export of the session.
func ExportName(s *session.Snapshot, f ExportFormat) string {
	ts := s.CreatedAt
	if ts.IsZero() {
		ts = s.Taken
	}
	return fmt.Sprintf("%s_%s%s", fileSafe(s.Target), ts.UTC().Format(nameLayout), f.Ext())
}

// Export writes the session in the given export format.
func Export(w io.Writer, s *session.Snapshot, f ExportFormat) error {
	switch f {
	case ExportCSV, "":
		return WriteCSV(w, s)
	case ExportJSON:
		return WriteJSON(w, s)
	case ExportYAML:
		b, err := Save(s, FormatYAML)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case ExportSummary:
		return WriteSummaryCSV(w, s)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Row is one sample of a flattened session.
type Row struct {
	Timestamp time.Time `json:"timestamp"`
	HopIndex  int       `json:"hopIndex"`
	Address   string    `json:"address"`
	// LatencyMs is nil for lost probes.
	LatencyMs *float64 `json:"latencyMs"`
}

// Rows flattens the time series of every hop into rows,
// ordered by hop first and by time second.
func Rows(s *session.Snapshot) []Row {
	var rows []Row
	for _, h := range s.Hops {
		addr := ""
		if h.Address.IsValid() {
			addr = h.Address.String()
		}
		for _, p := range s.Statistics[h.Index].TimeSeries {
			r := Row{Timestamp: p.Time, HopIndex: h.Index, Address: addr}
			if l, ok := p.Latency(); ok {
				r.LatencyMs = &l
			}
			rows = append(rows, r)
		}
	}
	return rows
}

var csvHeader = []string{"timestamp", "hopIndex", "address", "latencyMs"}

// WriteCSV writes one row per hop and sample. Lost probes have an empty latency.
func WriteCSV(w io.Writer, s *session.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range Rows(s) {
		latency := ""
		if r.LatencyMs != nil {
			latency = formatFloat(*r.LatencyMs)
		}
		err := cw.Write([]string{
			r.Timestamp.UTC().Format(time.RFC3339Nano),
			strconv.Itoa(r.HopIndex),
			r.Address,
			latency,
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the rows of the session as a JSON array.
func WriteJSON(w io.Writer, s *session.Snapshot) error {
	rows := Rows(s)
	if rows == nil {
		rows = []Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

var summaryHeader = []string{"hop", "address", "hostname", "count", "min", "max", "avg", "current", "loss"}

// WriteSummaryCSV writes one row per hop with its session-wide statistics.
// Latencies are in milliseconds and the loss in percent, rounded to one decimal.
func WriteSummaryCSV(w io.Writer, s *session.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return err
	}
	for _, h := range s.Hops {
		st := s.Statistics[h.Index]
		addr := ""
		if h.Address.IsValid() {
			addr = h.Address.String()
		}
		err := cw.Write([]string{
			strconv.Itoa(h.Index),
			addr,
			h.DisplayName,
			strconv.FormatUint(st.SampleCount, 10),
			formatRounded(st.MinLatencyMs),
			formatRounded(st.MaxLatencyMs),
			formatRounded(st.SessionAvgMs),
			formatRounded(st.CurrentLatencyMs),
			strconv.FormatFloat(st.SessionLossPct, 'f', 1, 64),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatRounded(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
