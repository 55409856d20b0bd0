package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestQueueMetricsExportsCountersAndGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewQueueMetrics(reg)

	metrics.IncSubmitted()
	metrics.IncSubmitted()
	metrics.IncRejected("PAYMENT_ALREADY_REDEEMED")
	metrics.IncPlayed()
	metrics.AddCleared(3)
	metrics.AddCleared(0)
	metrics.IncReordered()
	metrics.SetPending(4)
	metrics.ObserveStore("save", 25*time.Millisecond, nil)
	metrics.ObserveStore("save", 10*time.Millisecond, errors.New("disk full"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got := fetchPlainValue(t, mfs, "song_requests_submitted_total"); got != 2 {
		t.Fatalf("expected submitted=2, got %f", got)
	}
	if got := fetchPlainValue(t, mfs, "song_requests_cleared_total"); got != 3 {
		t.Fatalf("expected cleared=3, got %f", got)
	}
	if got := fetchPlainValue(t, mfs, "song_queue_pending"); got != 4 {
		t.Fatalf("expected pending=4, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "song_requests_rejected_total", "reason", "PAYMENT_ALREADY_REDEEMED"); err != nil {
		t.Fatalf("fetch rejected: %v", err)
	} else if got != 1 {
		t.Fatalf("expected rejected=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "song_queue_store_failures_total", "op", "save"); err != nil {
		t.Fatalf("fetch store failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected store failures=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "song_queue_store_duration_seconds", "op", "save"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestQueueMetricsNilSafe(t *testing.T) {
	var metrics *QueueMetrics
	metrics.IncSubmitted()
	metrics.SetPending(1)
	metrics.ObserveStore("load", time.Millisecond, nil)

	noop := NewQueueMetrics(nil)
	noop.IncPlayed()
	noop.IncRejected("")
}

func fetchPlainValue(t *testing.T, mfs []*dto.MetricFamily, name string) float64 {
	t.Helper()
	mf := findMetricFamily(mfs, name)
	if mf == nil || len(mf.GetMetric()) == 0 {
		t.Fatalf("metric %q not found", name)
	}
	metric := mf.GetMetric()[0]
	if metric.GetGauge() != nil {
		return metric.GetGauge().GetValue()
	}
	return metric.GetCounter().GetValue()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
