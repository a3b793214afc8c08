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
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetGauge().GetValue()
}

func TestMetricsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.RequestsInFlight.Inc()
	m.requestDone("primary", outcomeSuccess, 40*time.Millisecond)
	m.frameRead(FrameDebug)
	m.frameRead(FrameKind(0))

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	byName := map[string]*dto.MetricFamily{}
	for _, f := range families {
		byName[f.GetName()] = f
	}
	for _, name := range []string{
		"gxserialrpc_requests_total",
		"gxserialrpc_request_duration_seconds",
		"gxserialrpc_requests_in_flight",
		"gxserialrpc_frames_read_total",
	} {
		if byName[name] == nil {
			t.Fatalf("metric %s not gathered", name)
		}
	}
	h := byName["gxserialrpc_request_duration_seconds"].GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 1 || len(h.GetBucket()) != len(RequestBuckets) {
		t.Fatalf("unexpected histogram %v", h)
	}
	if v := counterValue(t, m.RequestsTotal.WithLabelValues("primary", outcomeSuccess)); v != 1 {
		t.Fatalf("requests %v", v)
	}
	if v := gaugeValue(t, m.RequestsInFlight); v != 0 {
		t.Fatalf("in flight %v", v)
	}
	if v := counterValue(t, m.FramesRead.WithLabelValues("0")); v != 1 {
		t.Fatalf("frames of kind 0: %v", v)
	}
}

func TestMetricsTwoClients(t *testing.T) {
	// Every client registers its own metrics on a private registry by default.
	a, b := NewGXClient(nil), NewGXClient(nil)
	if a.metrics == b.metrics || a.ID() == b.ID() {
		t.Fatal("clients share metrics or id")
	}
}
