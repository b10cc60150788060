package vecfuse

import (
	"context"

	dompipe "github.com/kailas-cloud/vecfuse/internal/domain/pipeline"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/request"
	fusionuc "github.com/kailas-cloud/vecfuse/internal/usecase/fusion"
	healthuc "github.com/kailas-cloud/vecfuse/internal/usecase/health"
	pipelineuc "github.com/kailas-cloud/vecfuse/internal/usecase/pipeline"
)

// --- fuseUseCase mock ---

type mockFuseUC struct {
	fuseFn func(ctx context.Context, req *request.Request) (*fusionuc.Response, error)
}

func (m *mockFuseUC) Fuse(ctx context.Context, req *request.Request) (*fusionuc.Response, error) {
	return m.fuseFn(ctx, req)
}

// --- pipelineUseCase mock ---

type mockPipelineUC struct {
	putFn    func(ctx context.Context, name string, def pipelineuc.Definition) (dompipe.Pipeline, bool, error)
	getFn    func(ctx context.Context, name string) (dompipe.Pipeline, error)
	listFn   func(ctx context.Context) ([]dompipe.Pipeline, error)
	deleteFn func(ctx context.Context, name string) error
}

func (m *mockPipelineUC) Put(
	ctx context.Context, name string, def pipelineuc.Definition,
) (dompipe.Pipeline, bool, error) {
	return m.putFn(ctx, name, def)
}

func (m *mockPipelineUC) Get(ctx context.Context, name string) (dompipe.Pipeline, error) {
	return m.getFn(ctx, name)
}

func (m *mockPipelineUC) List(ctx context.Context) ([]dompipe.Pipeline, error) {
	return m.listFn(ctx)
}

func (m *mockPipelineUC) Delete(ctx context.Context, name string) error {
	return m.deleteFn(ctx, name)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report {
	return m.report
}
