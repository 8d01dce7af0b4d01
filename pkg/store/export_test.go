// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/pathmon/pkg/session"
	"github.com/telekom/pathmon/pkg/stats"
)

func TestWriteCSV_successThenTimeout(t *testing.T) {
	st := fold(10, -1)
	s := &session.Snapshot{
		Target:     "example.com",
		Hops:       []session.Hop{{Index: 1, Address: target, DisplayName: "example.com"}},
		Statistics: map[int]stats.Statistics{1: st},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"timestamp", "hopIndex", "address", "latencyMs"},
		{"2025-03-01T12:00:00Z", "1", "203.0.113.10", "10"},
		{"2025-03-01T12:00:01Z", "1", "203.0.113.10", ""},
	}, records)
	assert.InDelta(t, 50, st.RollingLossPct, 0)
}

func TestRows_hopMajor(t *testing.T) {
	s := newSession()
	rows := Rows(s)
	require.Len(t, rows, 9)

	for i, r := range rows {
		assert.Equal(t, i/3+1, r.HopIndex, "row %d", i)
		if i%3 > 0 {
			assert.True(t, r.Timestamp.After(rows[i-1].Timestamp), "row %d is not after its predecessor", i)
		}
	}
	assert.Empty(t, rows[3].Address)
	assert.Nil(t, rows[3].LatencyMs)
	require.NotNil(t, rows[6].LatencyMs)
	assert.InDelta(t, 10, *rows[6].LatencyMs, 0)

	assert.Nil(t, Rows(&session.Snapshot{}))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, &session.Snapshot{
		Hops:       []session.Hop{{Index: 1, Address: router}},
		Statistics: map[int]stats.Statistics{1: fold(-1)},
	}))
	assert.JSONEq(t, `[{"timestamp":"2025-03-01T12:00:00Z","hopIndex":1,"address":"192.0.2.1","latencyMs":null}]`, buf.String())

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, &session.Snapshot{}))
	var rows []Row
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestWriteSummaryCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, newSession()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"hop", "address", "hostname", "count", "min", "max", "avg", "current", "loss"},
		{"1", "192.0.2.1", "gw.example.net", "3", "1.1", "2.5", "1.7", "1.1", "0.0"},
		{"2", "", "", "3", "", "", "", "", "100.0"},
		{"3", "203.0.113.10", "example.com", "3", "10.0", "12.0", "11.0", "12.0", "33.3"},
	}, records)
}

func TestExport(t *testing.T) {
	tests := []struct {
		format  ExportFormat
		prefix  string
		wantErr bool
	}{
		{format: ExportCSV, prefix: "timestamp,hopIndex"},
		{format: ExportJSON, prefix: "["},
		{format: ExportYAML, prefix: "version: 1"},
		{format: ExportSummary, prefix: "hop,address"},
		{format: "xlsx", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			err := Export(&buf, newSession(), tt.format)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte(tt.prefix)), "unexpected output %q", buf.String())
		})
	}
}

func TestParseExportFormat(t *testing.T) {
	f, err := ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, ExportCSV, f)

	f, err = ParseExportFormat("Summary")
	require.NoError(t, err)
	assert.Equal(t, ExportSummary, f)
	assert.Equal(t, "text/csv", f.ContentType())

	_, err = ParseExportFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestExportName(t *testing.T) {
	s := newSession()
	assert.Equal(t, "example_com_20250301_115900.csv", ExportName(s, ExportCSV))
	assert.Equal(t, "example_com_20250301_115900_summary.csv", ExportName(s, ExportSummary))
}
