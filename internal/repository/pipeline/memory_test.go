package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	dompipe "github.com/kailas-cloud/vecfuse/internal/domain/pipeline"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/technique"
)

func TestMemory_CRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	p := testPipeline(t)
	created, err := m.Put(ctx, p)
	if err != nil || !created {
		t.Fatalf("Put = %v, %v", created, err)
	}
	created, err = m.Put(ctx, p)
	if err != nil || created {
		t.Fatalf("second Put = %v, %v", created, err)
	}

	other := dompipe.Reconstruct("a-first", "", technique.L2, 0, technique.Sum, nil, 2)
	if _, err := m.Put(ctx, other); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := m.Get(ctx, p.Name())
	if err != nil || got.Name() != p.Name() {
		t.Fatalf("Get = %v, %v", got.Name(), err)
	}

	list, err := m.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name() != "a-first" {
		t.Errorf("unexpected list order %v", list)
	}

	if err := m.Delete(ctx, p.Name()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(ctx, p.Name()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := m.Delete(ctx, p.Name()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}
