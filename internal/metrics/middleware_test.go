package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func fusionRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/fuse", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("from") == "17" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"hits":[]}`))
	})
	r.Put("/pipelines/{name}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	r.Delete("/pipelines/{name}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	h := fusionRouter()

	tests := []struct {
		method  string
		target  string
		pattern string
		status  string
	}{
		{http.MethodPost, "/fuse", "/fuse", "200"},
		{http.MethodPost, "/fuse?from=17", "/fuse", "400"},
		{http.MethodPut, "/pipelines/hybrid-a", "/pipelines/{name}", "201"},
		{http.MethodDelete, "/pipelines/hybrid-b", "/pipelines/{name}", "204"},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			counter := httpRequestsTotal.WithLabelValues(tc.method, tc.pattern, tc.status)
			before := testutil.ToFloat64(counter)

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.target, http.NoBody))

			if got := testutil.ToFloat64(counter); got != before+1 {
				t.Errorf("requests_total{%s,%s,%s} = %v, want %v", tc.method, tc.pattern, tc.status, got, before+1)
			}
		})
	}

	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds observations")
	}
}

func TestStatusWriter_KeepsFirstStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	w := &statusWriter{ResponseWriter: rr, status: http.StatusOK}

	w.WriteHeader(http.StatusAccepted)
	w.WriteHeader(http.StatusInternalServerError)

	if w.status != http.StatusAccepted {
		t.Errorf("status = %d, want %d", w.status, http.StatusAccepted)
	}
}

func TestStatusWriter_ImplicitOK(t *testing.T) {
	w := &statusWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	w.WriteHeader(http.StatusTeapot)
	if w.status != http.StatusOK {
		t.Errorf("status = %d, want 200 after implicit header", w.status)
	}
}

func TestRoutePattern_NoRouteContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/raw", http.NoBody)
	if got := routePattern(req); got != "unknown" {
		t.Errorf("routePattern = %q, want unknown", got)
	}
}

func TestRegisterHTTPMetrics_Idempotent(t *testing.T) {
	RegisterHTTPMetrics()
	RegisterHTTPMetrics()
}
