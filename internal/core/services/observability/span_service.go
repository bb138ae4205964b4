package observability

import (
	"context"
	"log/slog"
	"time"

	"lumen/internal/core/domain/observability"
	"lumen/pkg/uuid7"

	"github.com/shopspring/decimal"
)

// SpanService implements the TraceSpanStore span half. A span's trace_id and
// parent_span_id are immutable once a version lands in the store: a later
// write that disagrees is a 409, never a silent overwrite.
type SpanService struct {
	spanRepo  observability.SpanRepository
	traceRepo observability.TraceRepository
	scoreRepo observability.ScoreRepository
	logger    *slog.Logger
}

func NewSpanService(
	spanRepo observability.SpanRepository,
	traceRepo observability.TraceRepository,
	scoreRepo observability.ScoreRepository,
	logger *slog.Logger,
) *SpanService {
	return &SpanService{
		spanRepo:  spanRepo,
		traceRepo: traceRepo,
		scoreRepo: scoreRepo,
		logger:    logger,
	}
}

func (s *SpanService) CreateSpan(ctx context.Context, span *observability.Span) error {
	if errs := span.Validate(); len(errs) > 0 {
		return observability.NewValidationErrors(errs)
	}
	if span.ID.IsZero() {
		span.ID = uuid7.New()
	}
	now := time.Now().UTC()
	span.CreatedAt = now
	span.LastUpdatedAt = now
	span.CalculateDuration()

	existing, err := s.spanRepo.GetSpan(ctx, span.ID.String())
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.TraceID != span.TraceID {
			return observability.NewSpanTraceMismatchError(span.ID.String())
		}
		if !samePointerUUID(existing.ParentSpanID, span.ParentSpanID) {
			return observability.NewSpanParentMismatchError(span.ID.String())
		}
		if existing.WorkspaceID != span.WorkspaceID || existing.ProjectID != span.ProjectID {
			return observability.NewSpanIdentityMismatchError(span.ID.String())
		}
	}

	if err := s.spanRepo.InsertSpan(ctx, span); err != nil {
		s.logger.Error("create span failed", "span_id", span.ID.String(), "error", err)
		return err
	}
	return nil
}

func samePointerUUID(a, b *uuid7.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *SpanService) CreateSpanBatch(ctx context.Context, spans []*observability.Span) error {
	for _, span := range spans {
		if err := s.CreateSpan(ctx, span); err != nil {
			return err
		}
	}
	return nil
}

func (s *SpanService) GetSpanByID(ctx context.Context, id string) (*observability.Span, error) {
	span, err := s.spanRepo.GetSpan(ctx, id)
	if err != nil {
		return nil, err
	}
	if span == nil {
		return nil, observability.NewSpanNotFoundError(id)
	}
	return span, nil
}

func (s *SpanService) GetSpansByTraceID(ctx context.Context, traceID string) ([]*observability.Span, error) {
	return s.spanRepo.GetSpansByTraceID(ctx, traceID)
}

func (s *SpanService) GetRootSpan(ctx context.Context, traceID string) (*observability.Span, error) {
	return s.spanRepo.GetRootSpan(ctx, traceID)
}

func (s *SpanService) GetSpanTreeByTraceID(ctx context.Context, traceID string) ([]*observability.Span, error) {
	return s.spanRepo.GetSpanTree(ctx, traceID)
}

func (s *SpanService) GetChildSpans(ctx context.Context, parentSpanID string) ([]*observability.Span, error) {
	return s.spanRepo.GetSpanChildren(ctx, parentSpanID)
}

func (s *SpanService) GetSpansByFilter(ctx context.Context, filter *observability.SpanFilter) ([]*observability.Span, error) {
	return s.spanRepo.GetSpansByFilter(ctx, filter)
}

// UpdateSpan merges the incoming fields onto the current version under the
// same empty-means-absent, monotonic-timestamp rules as UpdateTrace, plus
// the span-specific immutability of trace_id/parent_span_id.
func (s *SpanService) UpdateSpan(ctx context.Context, span *observability.Span) error {
	existing, err := s.spanRepo.GetSpan(ctx, span.ID.String())
	if err != nil {
		return err
	}
	if existing == nil {
		return observability.NewSpanNotFoundError(span.ID.String())
	}
	if existing.TraceID != span.TraceID {
		return observability.NewSpanTraceMismatchError(span.ID.String())
	}
	if !samePointerUUID(existing.ParentSpanID, span.ParentSpanID) {
		return observability.NewSpanParentMismatchError(span.ID.String())
	}
	if existing.WorkspaceID != span.WorkspaceID || existing.ProjectID != span.ProjectID {
		return observability.NewSpanIdentityMismatchError(span.ID.String())
	}

	merged := mergeSpan(existing, span)
	if !merged.LastUpdatedAt.IsZero() && merged.LastUpdatedAt.Before(existing.LastUpdatedAt) {
		return observability.NewObservabilityError(observability.ErrCodeConcurrentModification,
			"last_updated_at must not move backwards")
	}
	merged.LastUpdatedAt = time.Now().UTC()
	merged.CalculateDuration()

	if errs := merged.Validate(); len(errs) > 0 {
		return observability.NewValidationErrors(errs)
	}
	return s.spanRepo.InsertSpan(ctx, merged)
}

func mergeSpan(existing, incoming *observability.Span) *observability.Span {
	merged := *existing
	merged.CreatedAt = existing.CreatedAt
	if incoming.Name != "" {
		merged.Name = incoming.Name
	}
	if incoming.Type != "" {
		merged.Type = incoming.Type
	}
	if incoming.Model != nil {
		merged.Model = incoming.Model
	}
	if incoming.Provider != nil {
		merged.Provider = incoming.Provider
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

// SetSpanCost stamps a manual cost override. Negative totals are rejected by
// CostEngine before this is reached; this method only persists the value.
func (s *SpanService) SetSpanCost(ctx context.Context, spanID string, inputCost, outputCost float64) error {
	span, err := s.GetSpanByID(ctx, spanID)
	if err != nil {
		return err
	}
	total := decimal.NewFromFloat(inputCost + outputCost).Round(8)
	span.TotalEstimatedCost = &total
	manual := "manual"
	span.TotalEstimatedCostVersion = &manual
	span.LastUpdatedAt = time.Now().UTC()
	return s.spanRepo.InsertSpan(ctx, span)
}

func (s *SpanService) SetSpanUsage(ctx context.Context, spanID string, promptTokens, completionTokens uint32) error {
	span, err := s.GetSpanByID(ctx, spanID)
	if err != nil {
		return err
	}
	if span.Usage == nil {
		span.Usage = make(map[string]int64)
	}
	span.Usage["prompt_tokens"] = int64(promptTokens)
	span.Usage["completion_tokens"] = int64(completionTokens)
	span.Usage["total_tokens"] = int64(promptTokens) + int64(completionTokens)
	span.LastUpdatedAt = time.Now().UTC()
	return s.spanRepo.InsertSpan(ctx, span)
}

func (s *SpanService) DeleteSpan(ctx context.Context, id string) error {
	return s.spanRepo.DeleteSpan(ctx, id)
}

func (s *SpanService) CountSpans(ctx context.Context, filter *observability.SpanFilter) (int64, error) {
	return s.spanRepo.CountSpansByFilter(ctx, filter)
}

func (s *SpanService) CalculateTraceCost(ctx context.Context, traceID string) (float64, error) {
	return s.traceRepo.CalculateTotalCost(ctx, traceID)
}

func (s *SpanService) CalculateTraceTokens(ctx context.Context, traceID string) (uint32, error) {
	total, err := s.traceRepo.CalculateTotalTokens(ctx, traceID)
	if err != nil {
		return 0, err
	}
	return uint32(total), nil
}
