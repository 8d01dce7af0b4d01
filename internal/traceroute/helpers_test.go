// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestCollectResults(t *testing.T) {
	tests := []struct {
		name        string
		input       []Hop
		want        []Hop
		wantReached bool
	}{
		{
			name:  "empty channel",
			input: nil,
			want:  []Hop{},
		},
		{
			name:  "filters zero ttl",
			input: []Hop{{TTL: 0}, {TTL: 1, Addr: routerA}},
			want:  []Hop{{TTL: 1, Addr: routerA}},
		},
		{
			name:        "sorts and cuts after reached",
			input:       []Hop{{TTL: 3, Addr: target, Reached: true}, {TTL: 1, Addr: routerA}, {TTL: 4, Addr: target, Reached: true}, {TTL: 2}},
			want:        []Hop{{TTL: 1, Addr: routerA}, {TTL: 2}, {TTL: 3, Addr: target, Reached: true}},
			wantReached: true,
		},
		{
			name:  "keeps first hop of duplicate ttl",
			input: []Hop{{TTL: 1, Addr: routerA}, {TTL: 1, Addr: routerB}},
			want:  []Hop{{TTL: 1, Addr: routerA}},
		},
		{
			name:        "keeps repeated addresses at different ttls",
			input:       []Hop{{TTL: 1, Addr: routerA}, {TTL: 2, Addr: routerA}, {TTL: 3, Addr: target, Reached: true}},
			want:        []Hop{{TTL: 1, Addr: routerA}, {TTL: 2, Addr: routerA}, {TTL: 3, Addr: target, Reached: true}},
			wantReached: true,
		},
		{
			name:  "not reached",
			input: []Hop{{TTL: 2}, {TTL: 1, Addr: routerA}},
			want:  []Hop{{TTL: 1, Addr: routerA}, {TTL: 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := make(chan Hop, len(tt.input))
			for _, h := range tt.input {
				ch <- h
			}
			close(ch)

			got, reached := collectResults(ch)
			if diff := cmp.Diff(tt.want, got, addrComparer); diff != "" {
				t.Errorf("collectResults() mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.wantReached, reached)
		})
	}
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, wrapError(t.Context(), nil, "unused"))

	base := errors.New("boom")
	err := wrapError(t.Context(), base, "failed to probe %s", "example.com")
	assert.ErrorIs(t, err, base)
	assert.EqualError(t, err, "failed to probe example.com: boom")
}
