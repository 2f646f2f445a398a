// SPDX-FileCopyrightText: 2026 The jarsign Authors
//
// SPDX-License-Identifier: MIT

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPrometheusRecordsArchivesProcessed(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.ArchiveProcessed(OutcomeSuccess, 2*time.Second)
	p.ArchiveProcessed(OutcomeFailure, time.Second)
	p.TSARetryRotated()
	p.WorkersActive(3)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	got := map[string]*dto.MetricFamily{}
	for _, f := range families {
		got[f.GetName()] = f
	}

	processed, ok := got["jarsign_archives_processed_total"]
	if !ok {
		t.Fatalf("missing jarsign_archives_processed_total")
	}
	var successCount, failureCount float64
	for _, m := range processed.Metric {
		for _, l := range m.Label {
			if l.GetName() == "outcome" {
				switch l.GetValue() {
				case "success":
					successCount = m.Counter.GetValue()
				case "failure":
					failureCount = m.Counter.GetValue()
				}
			}
		}
	}
	if successCount != 1 {
		t.Fatalf("success count = %v, want 1", successCount)
	}
	if failureCount != 1 {
		t.Fatalf("failure count = %v, want 1", failureCount)
	}

	if _, ok := got["jarsign_tsa_retries_total"]; !ok {
		t.Fatalf("missing jarsign_tsa_retries_total")
	}
	gauge, ok := got["jarsign_workers_active"]
	if !ok || gauge.Metric[0].Gauge.GetValue() != 3 {
		t.Fatalf("workers_active gauge not set to 3: %v", got["jarsign_workers_active"])
	}
}

func TestNoopRecorderDiscardsEverything(t *testing.T) {
	var n Noop
	n.ArchiveProcessed(OutcomeSuccess, time.Second)
	n.TSARetryRotated()
	n.WorkersActive(1)
}
