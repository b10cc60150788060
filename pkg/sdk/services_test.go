package vecfuse

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	dompipe "github.com/kailas-cloud/vecfuse/internal/domain/pipeline"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/request"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/technique"
	fusionuc "github.com/kailas-cloud/vecfuse/internal/usecase/fusion"
	healthuc "github.com/kailas-cloud/vecfuse/internal/usecase/health"
	pipelineuc "github.com/kailas-cloud/vecfuse/internal/usecase/pipeline"
)

func storedPipeline(name string) dompipe.Pipeline {
	return dompipe.Reconstruct(name, "stored", technique.L2, 0, technique.Sum, []float32{0.4, 0.6}, 1700000000000)
}

// --- PipelineService ---

func TestPipelineService_Put(t *testing.T) {
	mock := &mockPipelineUC{
		putFn: func(_ context.Context, name string, def pipelineuc.Definition) (dompipe.Pipeline, bool, error) {
			if name != "hybrid" {
				t.Errorf("name = %q, want hybrid", name)
			}
			if def.Normalization != technique.L2 || def.Combination != technique.Sum {
				t.Errorf("unexpected definition %+v", def)
			}
			return storedPipeline(name), true, nil
		},
	}

	svc := &PipelineService{svc: mock}
	info, created, err := svc.Put(context.Background(), "hybrid", PipelineSpec{
		Normalization: "l2", Combination: "sum", Weights: []float32{0.4, 0.6},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected created")
	}
	if info.Name != "hybrid" || info.Normalization != "l2" || len(info.Weights) != 2 {
		t.Errorf("unexpected info %+v", info)
	}
	if info.CreatedAt == nil || info.CreatedAt.UnixMilli() != 1700000000000 {
		t.Errorf("CreatedAt = %v", info.CreatedAt)
	}
}

func TestPipelineService_Put_UnknownTechnique(t *testing.T) {
	svc := &PipelineService{svc: &mockPipelineUC{}}
	_, _, err := svc.Put(context.Background(), "p", PipelineSpec{Combination: "median"})
	if !errors.Is(err, ErrInvalidPipeline) {
		t.Fatalf("err = %v, want ErrInvalidPipeline", err)
	}
}

func TestPipelineService_Get_NotFound(t *testing.T) {
	mock := &mockPipelineUC{
		getFn: func(_ context.Context, _ string) (dompipe.Pipeline, error) {
			return dompipe.Pipeline{}, domain.ErrNotFound
		},
	}

	svc := &PipelineService{svc: mock}
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPipelineService_List(t *testing.T) {
	mock := &mockPipelineUC{
		listFn: func(_ context.Context) ([]dompipe.Pipeline, error) {
			return []dompipe.Pipeline{storedPipeline("a"), storedPipeline("b")}, nil
		},
	}

	svc := &PipelineService{svc: mock}
	infos, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 2 || infos[0].Name != "a" || infos[1].Name != "b" {
		t.Errorf("unexpected list %+v", infos)
	}
}

func TestPipelineService_Delete_Error(t *testing.T) {
	mock := &mockPipelineUC{
		deleteFn: func(_ context.Context, _ string) error {
			return errors.New("db down")
		},
	}

	svc := &PipelineService{svc: mock}
	if err := svc.Delete(context.Background(), "p"); err == nil {
		t.Fatal("expected error")
	}
}

// --- Client.Fuse ---

func TestClient_Fuse_PassesOptions(t *testing.T) {
	mock := &mockFuseUC{
		fuseFn: func(_ context.Context, req *request.Request) (*fusionuc.Response, error) {
			if req.PipelineName() != "hybrid" {
				t.Errorf("pipeline = %q, want hybrid", req.PipelineName())
			}
			if req.From() != 2 || !req.Explain() {
				t.Errorf("from=%d explain=%v", req.From(), req.Explain())
			}
			if _, ok := req.Fetch(); ok {
				t.Error("expected no fetch phase")
			}
			return &fusionuc.Response{InvocationID: "id-1", Pipeline: storedPipeline("hybrid")}, nil
		},
	}

	c := &Client{fuseSvc: mock}
	res, err := c.Fuse(context.Background(), twoSubQueries(), UsePipeline("hybrid"), From(2), Explain())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.InvocationID != "id-1" || res.Pipeline.Name != "hybrid" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestClient_Fuse_InlineTechniques(t *testing.T) {
	mock := &mockFuseUC{
		fuseFn: func(_ context.Context, req *request.Request) (*fusionuc.Response, error) {
			p, ok := req.Inline()
			if !ok {
				t.Fatal("expected inline pipeline")
			}
			if p.Normalization() != technique.RRF || p.RankConstant() != 10 {
				t.Errorf("inline = %s k=%d", p.Normalization(), p.RankConstant())
			}
			return &fusionuc.Response{Pipeline: p}, nil
		},
	}

	c := &Client{fuseSvc: mock}
	_, err := c.Fuse(context.Background(), twoSubQueries(), WithTechniques("rrf", "sum"), WithRankConstant(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_Fuse_ServiceError(t *testing.T) {
	mock := &mockFuseUC{
		fuseFn: func(_ context.Context, _ *request.Request) (*fusionuc.Response, error) {
			return nil, domain.NewFusionError(domain.KindInconsistentState, "boom")
		},
	}

	c := &Client{fuseSvc: mock}
	_, err := c.Fuse(context.Background(), twoSubQueries())
	if !errors.Is(err, ErrInconsistentState) {
		t.Fatalf("err = %v, want ErrInconsistentState", err)
	}
}

// --- Client.Health ---

func TestClient_Health(t *testing.T) {
	mock := &mockHealthUC{report: healthuc.Report{
		Status:    healthuc.Degraded,
		Checks:    map[string]healthuc.CheckResult{"database": healthuc.CheckError, "pipelines": healthuc.CheckOK},
		Pipelines: 4,
	}}

	c := &Client{healthSvc: mock}
	h := c.Health(context.Background())
	if h.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", h.Status)
	}
	if h.Checks["database"] != "error" || h.Checks["pipelines"] != "ok" {
		t.Errorf("Checks = %v", h.Checks)
	}
	if h.Pipelines != 4 {
		t.Errorf("Pipelines = %d, want 4", h.Pipelines)
	}
}
