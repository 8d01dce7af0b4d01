// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"fmt"
	"slices"

	"github.com/telekom/pathmon/internal/logger"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// collectResults collects the results from the channel and returns a sorted slice of hops.
// It filters out hops with a TTL of 0 and removes duplicates, keeping only the first occurrence of each TTL.
// The hops are sorted by TTL in ascending order and cut after the first hop that reached the target.
// Repeated addresses at different TTLs are kept as distinct hops.
// The second return value reports whether the target was reached.
func collectResults(ch <-chan Hop) ([]Hop, bool) {
	hops := []Hop{}
	for hop := range ch {
		if hop.TTL == 0 {
			continue
		}
		hops = append(hops, hop)
	}

	slices.SortFunc(hops, func(a, b Hop) int {
		return a.TTL - b.TTL
	})

	filtered := make([]Hop, 0, len(hops))
	seen := make(map[int]bool)
	for _, hop := range hops {
		if seen[hop.TTL] {
			continue
		}
		filtered = append(filtered, hop)
		seen[hop.TTL] = true
		if hop.Reached {
			// If we reached the target, we can stop collecting hops.
			return filtered, true
		}
	}

	return filtered, false
}

// logHops logs the hops in a structured format.
func logHops(ctx context.Context, hops []Hop) {
	log := logger.FromContext(ctx)
	for _, hop := range hops {
		log.DebugContext(ctx, hop.String())
	}
}

// wrapError wraps an error with a message and logs it.
// It also records the error in the current OpenTelemetry span.
func wrapError(ctx context.Context, err error, msg string, args ...any) error {
	if err == nil {
		return nil
	}
	log := logger.FromContext(ctx)
	span := trace.SpanFromContext(ctx)
	caser := cases.Title(language.English)

	formatted := fmt.Sprintf(msg, args...)
	log.ErrorContext(ctx, caser.String(formatted), "error", err)
	span.SetStatus(codes.Error, formatted)
	span.RecordError(err)
	return fmt.Errorf("%s: %w", formatted, err)
}
