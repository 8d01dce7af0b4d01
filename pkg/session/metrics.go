// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/telekom/pathmon/internal/probe"
	"github.com/telekom/pathmon/internal/traceroute"
	"github.com/telekom/pathmon/pkg/stats"
)

var hopLabels = []string{"target", "hop", "address"}

// Metrics defines the per hop metric collectors of a session
type Metrics struct {
	latency   *prometheus.GaugeVec
	loss      *prometheus.GaugeVec
	jitter    *prometheus.GaugeVec
	count     *prometheus.CounterVec
	histogram *prometheus.HistogramVec
}

// NewMetrics initializes the metric collectors of the session
func NewMetrics() *Metrics {
	return &Metrics{
		latency: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pathmon_hop_latency_milliseconds",
				Help: "Latency of the last successful probe to the hop in milliseconds.",
			},
			hopLabels,
		),
		loss: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pathmon_hop_rolling_loss_ratio",
				Help: "Ratio of lost probes in the rolling window of the hop.",
			},
			hopLabels,
		),
		jitter: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pathmon_hop_jitter_milliseconds",
				Help: "Mean absolute difference of consecutive latencies in the rolling window of the hop.",
			},
			hopLabels,
		),
		count: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pathmon_hop_probes_total",
				Help: "Total number of probes sent to the hop by outcome.",
			},
			append(hopLabels[:len(hopLabels):len(hopLabels)], "outcome"),
		),
		histogram: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pathmon_hop_latency",
				Help:    "Histogram of successful probe latencies to the hop in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			hopLabels,
		),
	}
}

// GetCollectors returns all metric collectors
func (m *Metrics) GetCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.latency,
		m.loss,
		m.jitter,
		m.count,
		m.histogram,
	}
}

// Set updates the metrics of one hop with a folded probe result
func (m *Metrics) Set(target string, hop traceroute.Hop, res probe.Result, s stats.Statistics) {
	labels := hopLabelValues(target, hop)
	m.count.WithLabelValues(append(labels, res.Outcome.Kind.String())...).Inc()
	m.loss.WithLabelValues(labels...).Set(s.RollingLossPct / 100)
	if s.RollingJitterMs != nil {
		m.jitter.WithLabelValues(labels...).Set(*s.RollingJitterMs)
	}
	if res.Outcome.Kind == probe.KindSuccess {
		m.latency.WithLabelValues(labels...).Set(res.Outcome.Milliseconds())
		m.histogram.WithLabelValues(labels...).Observe(res.Outcome.Latency.Seconds())
	}
}

// Remove removes the metrics of all hops of a target
func (m *Metrics) Remove(target string) error {
	l := prometheus.Labels{"target": target}
	if m.loss.DeletePartialMatch(l) == 0 {
		return ErrMetricNotFound{Label: target}
	}
	m.latency.DeletePartialMatch(l)
	m.jitter.DeletePartialMatch(l)
	m.count.DeletePartialMatch(l)
	m.histogram.DeletePartialMatch(l)
	return nil
}

func hopLabelValues(target string, hop traceroute.Hop) []string {
	addr := ""
	if hop.Responded() {
		addr = hop.Addr.String()
	}
	return []string{target, strconv.Itoa(hop.TTL), addr}
}
