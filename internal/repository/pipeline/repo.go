package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/vecfuse/internal/db"
	"github.com/kailas-cloud/vecfuse/internal/domain"
	dompipe "github.com/kailas-cloud/vecfuse/internal/domain/pipeline"
)

// store is the consumer interface for pipelines (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/pipeline.Repository on a Redis/Valkey hash per pipeline.
type Repo struct {
	store  store
	prefix string
}

// New creates a pipeline repository. Keys are <prefix>pipeline:<name>.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Put stores a pipeline, replacing any previous definition.
// Reports whether the pipeline was newly created.
func (r *Repo) Put(ctx context.Context, p dompipe.Pipeline) (bool, error) {
	key := r.key(p.Name())
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists: %w", err)
	}

	fields, err := pipelineToHash(p)
	if err != nil {
		return false, err
	}
	// HSET merges fields, so a replaced definition without weights must not
	// inherit the old ones.
	if exists {
		if _, err := r.store.Del(ctx, key); err != nil {
			return false, fmt.Errorf("del pipeline %s: %w", p.Name(), err)
		}
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return false, fmt.Errorf("hset pipeline %s: %w", p.Name(), err)
	}
	return !exists, nil
}

// Get retrieves a pipeline by name.
func (r *Repo) Get(ctx context.Context, name string) (dompipe.Pipeline, error) {
	m, err := r.store.HGetAll(ctx, r.key(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return dompipe.Pipeline{}, domain.ErrNotFound
		}
		return dompipe.Pipeline{}, fmt.Errorf("hgetall pipeline %s: %w", name, err)
	}
	return pipelineFromHash(m)
}

// List returns all pipelines sorted by name.
func (r *Repo) List(ctx context.Context) ([]dompipe.Pipeline, error) {
	keys, err := r.store.Scan(ctx, r.key("*"))
	if err != nil {
		return nil, fmt.Errorf("scan pipelines: %w", err)
	}
	if len(keys) == 0 {
		return []dompipe.Pipeline{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi pipelines: %w", err)
	}

	out := make([]dompipe.Pipeline, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		p, err := pipelineFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse pipeline %s: %w", keys[i], err)
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

// Delete removes a pipeline.
func (r *Repo) Delete(ctx context.Context, name string) error {
	deleted, err := r.store.Del(ctx, r.key(name))
	if err != nil {
		return fmt.Errorf("del pipeline %s: %w", name, err)
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) key(name string) string {
	return fmt.Sprintf("%spipeline:%s", r.prefix, name)
}
