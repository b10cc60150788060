package vecfuse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kailas-cloud/vecfuse/internal/db"
	dbRedis "github.com/kailas-cloud/vecfuse/internal/db/redis"
	dompipe "github.com/kailas-cloud/vecfuse/internal/domain/pipeline"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/request"
	pipelinerepo "github.com/kailas-cloud/vecfuse/internal/repository/pipeline"
	fusionuc "github.com/kailas-cloud/vecfuse/internal/usecase/fusion"
	healthuc "github.com/kailas-cloud/vecfuse/internal/usecase/health"
	pipelineuc "github.com/kailas-cloud/vecfuse/internal/usecase/pipeline"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "vecfuse:"
	defaultPipelineName     = "default"
)

// Internal interfaces, replaced by mocks in tests.
type fuseUseCase interface {
	Fuse(ctx context.Context, req *request.Request) (*fusionuc.Response, error)
}

type pipelineUseCase interface {
	Put(ctx context.Context, name string, def pipelineuc.Definition) (dompipe.Pipeline, bool, error)
	Get(ctx context.Context, name string) (dompipe.Pipeline, error)
	List(ctx context.Context) ([]dompipe.Pipeline, error)
	Delete(ctx context.Context, name string) error
}

// Client is the vecfuse SDK entry point.
type Client struct {
	store     db.Store // nil when pipelines are kept in memory
	fuseSvc   fuseUseCase
	pipeSvc   pipelineUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a vecfuse Client. Without WithValkey or WithRedis, named
// pipelines live in process memory. The provided context is used for the
// initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	defaults, err := defaultPipeline(cfg)
	if err != nil {
		return nil, fmt.Errorf("vecfuse: default pipeline: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	if cfg.driver == "" {
		return wireClient(nil, pipelinerepo.NewMemory(), defaults, obs), nil
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("vecfuse: database not ready: %w", err)
	}

	return wireClient(store, pipelinerepo.New(store, cfg.keyPrefix), defaults, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return nil, errors.New("vecfuse: database address required")
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.addrs,
			Password:   cfg.password,
			ClientName: "vecfuse-sdk",
		})
		if err != nil {
			return nil, fmt.Errorf("vecfuse: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("vecfuse: unknown driver %q", cfg.driver)
	}
}

func defaultPipeline(cfg *clientConfig) (dompipe.Pipeline, error) {
	norm, comb, err := parseTechniques(cfg.normalization, cfg.combination)
	if err != nil {
		return dompipe.Pipeline{}, err
	}
	return dompipe.New(
		defaultPipelineName, "",
		norm, cfg.rankConstant,
		comb, cfg.weights, 0,
	)
}

func wireClient(store db.Store, repo pipelineuc.Repository, defaults dompipe.Pipeline, obs *observer) *Client {
	pipeSvc := pipelineuc.New(repo)

	// healthuc skips the database check on a nil pinger
	var pinger healthuc.DBPinger
	if store != nil {
		pinger = store
	}

	return &Client{
		store:     store,
		fuseSvc:   fusionuc.New(pipeSvc, defaults),
		pipeSvc:   pipeSvc,
		healthSvc: healthuc.New(pinger, pipeSvc),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity. Always succeeds in memory mode.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if c.store == nil {
		return nil
	}
	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Fuse runs score fusion over one coordinated hybrid query. Without
// UsePipeline or WithTechniques the client's default pipeline is used.
func (c *Client) Fuse(ctx context.Context, in FuseInput, opts ...FuseOption) (_ *FuseResult, err error) {
	var cfg fuseConfig
	for _, o := range opts {
		o(&cfg)
	}

	start := time.Now()
	defer func() { c.obs.observe("fuse", start, err, slog.String("pipeline", cfg.pipeline)) }()

	req, err := toRequest(in, cfg)
	if err != nil {
		return nil, fmt.Errorf("fuse: %w", err)
	}

	resp, err := c.fuseSvc.Fuse(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("fuse: %w", err)
	}
	out := fromResponse(resp)
	c.obs.fused(out.Total)
	return &out, nil
}

// Pipelines returns the named pipeline management service.
func (c *Client) Pipelines() *PipelineService {
	return &PipelineService{svc: c.pipeSvc, obs: c.obs}
}
