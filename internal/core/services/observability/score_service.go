package observability

import (
	"context"
	"time"

	"lumen/internal/core/domain/observability"
)

// ScoreService implements the FeedbackCommentStore score half. A
// FeedbackScore's key is the (entity_id, name, author) triple rather than a
// generated id, so scoreID below is the opaque string the repository uses
// to address one score row; a repeated write with the same triple
// deterministically overrides the previous value.
type ScoreService struct {
	scoreRepo observability.ScoreRepository
	traceRepo observability.TraceRepository
	spanRepo  observability.SpanRepository
}

func NewScoreService(
	scoreRepo observability.ScoreRepository,
	traceRepo observability.TraceRepository,
	spanRepo observability.SpanRepository,
) *ScoreService {
	return &ScoreService{
		scoreRepo: scoreRepo,
		traceRepo: traceRepo,
		spanRepo:  spanRepo,
	}
}

func scoreID(score *observability.FeedbackScore) string {
	return score.EntityID.String() + ":" + string(score.EntityType) + ":" + score.Name + ":" + score.Author
}

func (s *ScoreService) CreateScore(ctx context.Context, score *observability.FeedbackScore) error {
	if errs := score.Validate(); len(errs) > 0 {
		return observability.NewValidationErrors(errs)
	}
	now := time.Now().UTC()
	score.CreatedAt = now
	score.LastUpdatedAt = now
	return s.scoreRepo.Create(ctx, score)
}

func (s *ScoreService) CreateScoreBatch(ctx context.Context, scores []*observability.FeedbackScore) error {
	for _, score := range scores {
		if errs := score.Validate(); len(errs) > 0 {
			return observability.NewValidationErrors(errs)
		}
		now := time.Now().UTC()
		score.CreatedAt = now
		score.LastUpdatedAt = now
	}
	return s.scoreRepo.CreateBatch(ctx, scores)
}

func (s *ScoreService) GetScoreByID(ctx context.Context, id string) (*observability.FeedbackScore, error) {
	score, err := s.scoreRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if score == nil {
		return nil, observability.ErrScoreNotFound
	}
	return score, nil
}

func (s *ScoreService) GetScoresByTraceID(ctx context.Context, traceID string) ([]*observability.FeedbackScore, error) {
	return s.scoreRepo.GetByTraceID(ctx, traceID)
}

func (s *ScoreService) GetScoresBySpanID(ctx context.Context, spanID string) ([]*observability.FeedbackScore, error) {
	return s.scoreRepo.GetBySpanID(ctx, spanID)
}

func (s *ScoreService) GetScoresByFilter(ctx context.Context, filter *observability.ScoreFilter) ([]*observability.FeedbackScore, error) {
	return s.scoreRepo.GetByFilter(ctx, filter)
}

// UpdateScore overwrites value/category/reason on the (entity_id, name,
// author) row; author and entity identity never change on an update.
func (s *ScoreService) UpdateScore(ctx context.Context, score *observability.FeedbackScore) error {
	existing, err := s.scoreRepo.GetByID(ctx, scoreID(score))
	if err != nil {
		return err
	}
	if existing == nil {
		return observability.ErrScoreNotFound
	}
	existing.Value = score.Value
	if score.CategoryName != nil {
		existing.CategoryName = score.CategoryName
	}
	if score.Reason != nil {
		existing.Reason = score.Reason
	}
	existing.LastUpdatedAt = time.Now().UTC()

	if errs := existing.Validate(); len(errs) > 0 {
		return observability.NewValidationErrors(errs)
	}
	return s.scoreRepo.Update(ctx, existing)
}

func (s *ScoreService) DeleteScore(ctx context.Context, id string) error {
	return s.scoreRepo.Delete(ctx, id)
}

func (s *ScoreService) CountScores(ctx context.Context, filter *observability.ScoreFilter) (int64, error) {
	return s.scoreRepo.Count(ctx, filter)
}
