package gxserialrpc

// --------------------------------------------------------------------------
//
//	Gurux Ltd
//
// Filename:        $HeadURL$
//
// Version:         $Revision$,
//
//	$Date$
//	$Author$
//
// # Copyright (c) Gurux Ltd
//
// ---------------------------------------------------------------------------
//
//	DESCRIPTION
//
// This file is a part of Gurux Device Framework.
//
// Gurux Device Framework is Open Source software; you can redistribute it
// and/or modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2 of the License.
// Gurux Device Framework is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU General Public License for more details.
//
// More information of Gurux products: https://www.gurux.org
//
// This code is licensed under the GNU General Public License v2.
// Full text may be retrieved at http://www.gnu.org/licenses/gpl-2.0.txt
// ---------------------------------------------------------------------------

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestBuckets are histogram buckets for serial round trips, from 10ms to 10s.
var RequestBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Request outcomes used as the outcome label.
const (
	outcomeSuccess   = "success"
	outcomeFailure   = "failure"
	outcomeTimeout   = "timeout"
	outcomeCancelled = "cancelled"
	outcomeError     = "error"
)

// Metrics holds the client metrics.
type Metrics struct {
	// RequestsTotal counts finished requests by channel and outcome.
	RequestsTotal *prometheus.CounterVec
	// RequestDuration records request round trip time by channel.
	RequestDuration *prometheus.HistogramVec
	// RequestsInFlight is the number of registered requests.
	RequestsInFlight prometheus.Gauge
	// OrphanedResponses counts responses without a pending request by class (success, failure).
	OrphanedResponses *prometheus.CounterVec
	// ErrorQueueDropped counts failures evicted from a full error queue.
	ErrorQueueDropped prometheus.Counter
	// FramesRead counts frames read by kind.
	FramesRead *prometheus.CounterVec
}

// NewMetrics creates the client metrics and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gxserialrpc_requests_total",
				Help: "Finished requests",
			},
			[]string{"channel", "outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gxserialrpc_request_duration_seconds",
				Help:    "Request round trip time",
				Buckets: RequestBuckets,
			},
			[]string{"channel"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gxserialrpc_requests_in_flight",
				Help: "Registered requests",
			},
		),
		OrphanedResponses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gxserialrpc_orphaned_responses_total",
				Help: "Responses without a pending request",
			},
			[]string{"class"},
		),
		ErrorQueueDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gxserialrpc_error_queue_dropped_total",
				Help: "Failures evicted from the error queue",
			},
		),
		FramesRead: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gxserialrpc_frames_read_total",
				Help: "Frames read",
			},
			[]string{"kind"},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.RequestsTotal,
			m.RequestDuration,
			m.RequestsInFlight,
			m.OrphanedResponses,
			m.ErrorQueueDropped,
			m.FramesRead,
		)
	}
	return m
}

func (m *Metrics) requestDone(ch string, outcome string, elapsed time.Duration) {
	m.RequestsInFlight.Dec()
	m.RequestsTotal.WithLabelValues(ch, outcome).Inc()
	m.RequestDuration.WithLabelValues(ch).Observe(elapsed.Seconds())
}

func (m *Metrics) frameRead(kind FrameKind) {
	label := kind.String()
	if kind > FrameDebug || kind == 0 {
		label = strconv.Itoa(int(kind))
	}
	m.FramesRead.WithLabelValues(label).Inc()
}
