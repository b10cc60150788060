package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/vecfuse/internal/domain"
)

func TestObserveFusion(t *testing.T) {
	before := testutil.ToFloat64(FusionRequestsTotal.WithLabelValues("l2", "sum", "ok"))

	ObserveFusion("l2", "sum", 12, 3*time.Millisecond, nil)

	after := testutil.ToFloat64(FusionRequestsTotal.WithLabelValues("l2", "sum", "ok"))
	if after != before+1 {
		t.Errorf("fusion_requests_total = %f, want %f", after, before+1)
	}
	if testutil.CollectAndCount(FusionDuration) == 0 {
		t.Error("expected fusion_duration_seconds observations")
	}
}

func TestObserveFusion_ErrorStatus(t *testing.T) {
	err := domain.NewFusionError(domain.KindPaginationExhausted, "end")
	ObserveFusion("min_max", "arithmetic_mean", 0, time.Millisecond, err)

	val := testutil.ToFloat64(FusionRequestsTotal.WithLabelValues("min_max", "arithmetic_mean", "PaginationExhausted"))
	if val < 1 {
		t.Errorf("expected PaginationExhausted counter >= 1, got %f", val)
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{domain.NewFusionError(domain.KindMalformedWireFormat, "x"), "MalformedWireFormat"},
		{fmt.Errorf("wrap: %w", domain.ErrInvalidRequest), "invalid_request"},
		{fmt.Errorf("get: %w", domain.ErrNotFound), "not_found"},
		{errors.New("boom"), "error"},
	}
	for _, tc := range tests {
		if got := Status(tc.err); got != tc.want {
			t.Errorf("Status(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestRegisterFusionMetrics_Idempotent(t *testing.T) {
	RegisterFusionMetrics()
	RegisterFusionMetrics()
	if err := prometheus.Register(FusionHits); err == nil {
		t.Error("expected fusion_hits to be registered already")
	}
}
