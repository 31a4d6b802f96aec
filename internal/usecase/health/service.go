package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
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
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db       DBPinger
	indexes  IndexVerifier
	docTypes []string
}

// New creates a Service. indexes can be nil; the index check is skipped then,
// and also when docTypes is empty.
func New(db DBPinger, indexes IndexVerifier, docTypes []string) *Service {
	return &Service{db: db, indexes: indexes, docTypes: docTypes}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	// index checks need a live database
	if s.indexes != nil && len(s.docTypes) > 0 && checks["database"] == CheckOK {
		if err := s.indexes.Verify(ctx, s.docTypes); err != nil {
			checks["indexes"] = CheckError
		} else {
			checks["indexes"] = CheckOK
		}
	}

	status := Healthy
	switch {
	case checks["database"] == CheckError:
		status = Unhealthy
	case checks["indexes"] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
