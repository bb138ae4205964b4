package observability

import (
	"context"
	"log/slog"
	"time"

	"lumen/internal/core/domain/observability"
	"lumen/pkg/uuid7"
)

// TraceService implements the TraceSpanStore trace half: versioned upsert,
// read-merge-write updates, and the list/count query paths.
type TraceService struct {
	traceRepo observability.TraceRepository
	scoreRepo observability.ScoreRepository
	logger    *slog.Logger
}

func NewTraceService(
	traceRepo observability.TraceRepository,
	scoreRepo observability.ScoreRepository,
	logger *slog.Logger,
) *TraceService {
	return &TraceService{
		traceRepo: traceRepo,
		scoreRepo: scoreRepo,
		logger:    logger,
	}
}

// CreateTrace validates and inserts the first version of a trace.
func (s *TraceService) CreateTrace(ctx context.Context, trace *observability.Trace) error {
	if errs := trace.Validate(); len(errs) > 0 {
		return observability.NewValidationErrors(errs)
	}
	if trace.ID.IsZero() {
		trace.ID = uuid7.New()
	}
	now := time.Now().UTC()
	trace.CreatedAt = now
	trace.LastUpdatedAt = now
	trace.CalculateDuration()

	if err := s.traceRepo.UpsertTrace(ctx, trace); err != nil {
		s.logger.Error("create trace failed", "trace_id", trace.ID.String(), "error", err)
		return err
	}
	return nil
}

// CreateTraceBatch inserts each trace independently so one bad record does
// not fail the whole batch; callers collect per-index errors themselves.
func (s *TraceService) CreateTraceBatch(ctx context.Context, traces []*observability.Trace) error {
	for _, trace := range traces {
		if err := s.CreateTrace(ctx, trace); err != nil {
			return err
		}
	}
	return nil
}

func (s *TraceService) GetTraceByID(ctx context.Context, id string) (*observability.Trace, error) {
	trace, err := s.traceRepo.GetTraceSummary(ctx, id)
	if err != nil {
		return nil, err
	}
	if trace == nil {
		return nil, observability.NewTraceNotFoundError(id)
	}
	return trace, nil
}

func (s *TraceService) GetTraceWithSpans(ctx context.Context, id string) (*observability.Trace, error) {
	trace, err := s.GetTraceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	spans, err := s.traceRepo.GetSpansByTraceID(ctx, id)
	if err != nil {
		return nil, err
	}
	trace.Spans = spans
	return trace, nil
}

func (s *TraceService) GetTraceWithScores(ctx context.Context, id string) (*observability.Trace, error) {
	trace, err := s.GetTraceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	scores, err := s.scoreRepo.GetByTraceID(ctx, id)
	if err != nil {
		return nil, err
	}
	trace.Scores = scores
	return trace, nil
}

func (s *TraceService) GetTracesByProjectID(ctx context.Context, projectID string, filter *observability.TraceFilter) ([]*observability.Trace, error) {
	if filter == nil {
		filter = &observability.TraceFilter{}
	}
	filter.ProjectID = projectID
	return s.traceRepo.ListTraces(ctx, filter)
}

func (s *TraceService) GetTracesBySessionID(ctx context.Context, sessionID string) ([]*observability.Trace, error) {
	return s.traceRepo.GetTracesBySessionID(ctx, sessionID)
}

func (s *TraceService) GetTracesByUserID(ctx context.Context, userID string, filter *observability.TraceFilter) ([]*observability.Trace, error) {
	return s.traceRepo.GetTracesByUserID(ctx, userID, filter)
}

// UpdateTrace reads the current version, merges in the caller's changes
// under the field-visibility rules below, and writes the merge as a new
// version row:
//   - workspace_id/project_id are immutable once set: a mismatch is a 409,
//     not silently ignored.
//   - last_updated_at must be monotonic: an update that would move it
//     backwards is rejected rather than applied out of order.
//   - empty-string/nil fields on the incoming trace mean "leave unchanged",
//     not "clear the field" — only non-empty values overwrite.
func (s *TraceService) UpdateTrace(ctx context.Context, trace *observability.Trace) error {
	existing, err := s.traceRepo.GetTraceSummary(ctx, trace.ID.String())
	if err != nil {
		return err
	}
	if existing == nil {
		return observability.NewTraceNotFoundError(trace.ID.String())
	}
	if existing.WorkspaceID != trace.WorkspaceID || existing.ProjectID != trace.ProjectID {
		return observability.NewTraceIdentityMismatchError(trace.ID.String())
	}

	merged := mergeTrace(existing, trace)
	now := time.Now().UTC()
	if !merged.LastUpdatedAt.IsZero() && merged.LastUpdatedAt.Before(existing.LastUpdatedAt) {
		return observability.NewObservabilityError(observability.ErrCodeConcurrentModification,
			"last_updated_at must not move backwards")
	}
	merged.LastUpdatedAt = now
	merged.CalculateDuration()

	if errs := merged.Validate(); len(errs) > 0 {
		return observability.NewValidationErrors(errs)
	}
	return s.traceRepo.UpsertTrace(ctx, merged)
}

func mergeTrace(existing, incoming *observability.Trace) *observability.Trace {
	merged := *existing
	merged.CreatedAt = existing.CreatedAt // immutable
	if incoming.Name != "" {
		merged.Name = incoming.Name
	}
	if incoming.EndTime != nil {
		merged.EndTime = incoming.EndTime
	}
	if incoming.Input != nil {
		merged.Input = incoming.Input
	}
	if incoming.Output != nil {
		merged.Output = incoming.Output
	}
	if incoming.Metadata != nil {
		merged.Metadata = incoming.Metadata
	}
	if len(incoming.Tags) > 0 {
		merged.Tags = incoming.Tags
	}
	if incoming.ThreadID != nil {
		merged.ThreadID = incoming.ThreadID
	}
	if incoming.ErrorInfo != nil {
		merged.ErrorInfo = incoming.ErrorInfo
	}
	if incoming.TotalEstimatedCost != nil {
		merged.TotalEstimatedCost = incoming.TotalEstimatedCost
		merged.TotalEstimatedCostVersion = incoming.TotalEstimatedCostVersion
	}
	if len(incoming.Usage) > 0 {
		merged.Usage = incoming.Usage
	}
	if incoming.LastUpdatedBy != "" {
		merged.LastUpdatedBy = incoming.LastUpdatedBy
	}
	if !incoming.LastUpdatedAt.IsZero() {
		merged.LastUpdatedAt = incoming.LastUpdatedAt
	}
	return &merged
}

func (s *TraceService) DeleteTrace(ctx context.Context, id string) error {
	return s.traceRepo.DeleteTrace(ctx, id)
}

func (s *TraceService) CountTraces(ctx context.Context, filter *observability.TraceFilter) (int64, error) {
	return s.traceRepo.CountTraces(ctx, filter)
}
