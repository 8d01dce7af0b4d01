// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package stats

import "time"

// series is an append-only time series capped at a retention length.
//
// Points are only ever written past the end of every view handed out,
// so views stay valid and unchanged while the series keeps growing.
// When the backing array is full, the retained tail is copied into a
// fresh array instead of shifting in place.
type series struct {
	retention int
	buf       []Point
	start     int
	last      time.Time
}

func newSeries(retention int) *series {
	return &series{
		retention: retention,
		buf:       make([]Point, 0, 2*retention),
	}
}

// add appends p, nudging its timestamp forward if it does not
// strictly follow the previous one.
func (s *series) add(p Point) {
	if !s.last.IsZero() && !p.Time.After(s.last) {
		p.Time = s.last.Add(time.Nanosecond)
	}
	s.last = p.Time

	if len(s.buf) == cap(s.buf) {
		buf := make([]Point, 0, 2*s.retention)
		s.buf = append(buf, s.buf[s.start:]...)
		s.start = 0
	}
	s.buf = append(s.buf, p)
	if len(s.buf)-s.start > s.retention {
		s.start++
	}
}

// view returns the retained points. The result has no spare capacity,
// so appending to it never writes into the series.
func (s *series) view() []Point {
	return s.buf[s.start:len(s.buf):len(s.buf)]
}
