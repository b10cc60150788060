package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status    Status
	Checks    map[string]CheckResult
	Pipelines int
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	pipelines PipelineLister
}

// New creates a Service. db is nil when pipelines are kept in memory.
func New(db DBPinger, pipelines PipelineLister) *Service {
	return &Service{db: db, pipelines: pipelines}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	var r Report

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			checks["database"] = CheckError
		} else {
			checks["database"] = CheckOK
		}
	}

	if s.pipelines != nil {
		n, err := s.pipelines.Count(ctx)
		if err != nil {
			checks["pipelines"] = CheckError
		} else {
			checks["pipelines"] = CheckOK
			r.Pipelines = n
		}
	}

	r.Status = Healthy
	for _, v := range checks {
		if v == CheckError {
			r.Status = Degraded
			break
		}
	}
	r.Checks = checks
	return r
}
