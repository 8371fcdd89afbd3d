// Copyright 2026 The Switchboard Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package observability provides the Prometheus metrics and OpenTelemetry
// tracing wiring for the routing pipeline and the HTTP surface.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records routing pipeline observations. It satisfies the
// orchestrator's metrics contract.
type Metrics struct {
	registry *prometheus.Registry

	turnsTotal      *prometheus.CounterVec
	turnDuration    *prometheus.HistogramVec
	classifications *prometheus.CounterVec
	confidence      prometheus.Histogram
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpInFlight    prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: registry,
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "switchboard_turns_total",
			Help: "Turns processed, by resolved agent and outcome",
		}, []string{"agent", "outcome"}),
		turnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "switchboard_turn_duration_seconds",
			Help:    "End-to-end turn duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"agent", "outcome"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "switchboard_classifications_total",
			Help: "Classification decisions, by selected agent",
		}, []string{"agent"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "switchboard_classification_confidence",
			Help:    "Classifier confidence distribution",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "switchboard_http_requests_total",
			Help: "HTTP requests, by method, path and status",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "switchboard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "switchboard_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		}),
	}

	registry.MustRegister(
		m.turnsTotal,
		m.turnDuration,
		m.classifications,
		m.confidence,
		m.httpRequests,
		m.httpDuration,
		m.httpInFlight,
	)

	return m
}

// ObserveClassification records one classifier decision.
func (m *Metrics) ObserveClassification(agentID string, confidence float64) {
	if agentID == "" {
		agentID = "unknown"
	}
	m.classifications.WithLabelValues(agentID).Inc()
	m.confidence.Observe(confidence)
}

// ObserveTurn records one completed turn.
func (m *Metrics) ObserveTurn(agentID, outcome string, duration time.Duration) {
	if agentID == "" {
		agentID = "none"
	}
	m.turnsTotal.WithLabelValues(agentID, outcome).Inc()
	m.turnDuration.WithLabelValues(agentID, outcome).Observe(duration.Seconds())
}

// Handler serves the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
