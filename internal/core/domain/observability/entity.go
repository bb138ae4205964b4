package observability

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"lumen/pkg/uuid7"
)

// ValidationError carries a single field-level validation failure. Domain
// Validate() methods collect these instead of failing fast, so a caller can
// report every violation in one response.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// EntityType distinguishes what a Score, Comment, or Attachment is attached to.
type EntityType string

const (
	EntityTypeTrace EntityType = "trace"
	EntityTypeSpan  EntityType = "span"
)

// SpanType narrows a span's role inside a trace.
type SpanType string

const (
	SpanTypeGeneral SpanType = "general"
	SpanTypeLLM     SpanType = "llm"
	SpanTypeTool    SpanType = "tool"
)

func (t SpanType) Valid() bool {
	switch t {
	case SpanTypeGeneral, SpanTypeLLM, SpanTypeTool:
		return true
	}
	return false
}

// ScoreSource records who/what produced a feedback score.
type ScoreSource string

const (
	ScoreSourceSDK           ScoreSource = "sdk"
	ScoreSourceUI            ScoreSource = "ui"
	ScoreSourceOnlineScoring ScoreSource = "online_scoring"
)

func (s ScoreSource) Valid() bool {
	switch s {
	case ScoreSourceSDK, ScoreSourceUI, ScoreSourceOnlineScoring:
		return true
	}
	return false
}

// Trace is a top-level invocation owned by exactly one project in exactly
// one workspace. Identity is a version-7 UUID; the creation timestamp is
// embedded in the id itself (see pkg/uuid7), so no separate CreatedAt write
// path is needed to recover "when was this first seen".
type Trace struct {
	ID             uuid7.UUID       `json:"id" db:"id"`
	WorkspaceID    string           `json:"workspace_id" db:"workspace_id"`
	ProjectID      string           `json:"project_id" db:"project_id"`
	Name           string           `json:"name" db:"name"`
	StartTime      time.Time        `json:"start_time" db:"start_time"`
	EndTime        *time.Time       `json:"end_time,omitempty" db:"end_time"`
	Input          *string          `json:"input,omitempty" db:"input"`
	Output         *string          `json:"output,omitempty" db:"output"`
	Metadata       *string          `json:"metadata,omitempty" db:"metadata"`
	Tags           []string         `json:"tags,omitempty" db:"tags"`
	ThreadID       *string          `json:"thread_id,omitempty" db:"thread_id"`
	ErrorInfo      *string          `json:"error_info,omitempty" db:"error_info"`
	TotalEstimatedCost *decimal.Decimal `json:"total_estimated_cost,omitempty" db:"total_estimated_cost"`
	TotalEstimatedCostVersion *string `json:"total_estimated_cost_version,omitempty" db:"total_estimated_cost_version"`
	Duration       *decimal.Decimal `json:"duration,omitempty" db:"-"` // milliseconds, sub-ms precision
	Usage          map[string]int64 `json:"usage,omitempty" db:"usage"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	LastUpdatedAt  time.Time        `json:"last_updated_at" db:"last_updated_at"`
	CreatedBy      string           `json:"created_by" db:"created_by"`
	LastUpdatedBy  string           `json:"last_updated_by" db:"last_updated_by"`

	Scores      []*FeedbackScore `json:"scores,omitempty" db:"-"`
	Comments    []*Comment       `json:"comments,omitempty" db:"-"`
	Spans       []*Span          `json:"spans,omitempty" db:"-"`
}

// UnmarshalJSON normalizes input/output/metadata fields that may arrive as
// strings, objects, or arrays from an SDK.
func (t *Trace) UnmarshalJSON(data []byte) error {
	type Alias Trace
	aux := &struct {
		*Alias
		Input    json.RawMessage `json:"input,omitempty"`
		Output   json.RawMessage `json:"output,omitempty"`
		Metadata json.RawMessage `json:"metadata,omitempty"`
	}{Alias: (*Alias)(t)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Input) > 0 {
		t.Input = normalizeJSONField(aux.Input)
	}
	if len(aux.Output) > 0 {
		t.Output = normalizeJSONField(aux.Output)
	}
	if len(aux.Metadata) > 0 {
		t.Metadata = normalizeJSONField(aux.Metadata)
	}
	return nil
}

// Validate checks field-level invariants that do not require a repository
// lookup (uniqueness, identity-mismatch, and monotonic-timestamp checks are
// the caller's responsibility since they need prior state).
func (t *Trace) Validate() []ValidationError {
	var errs []ValidationError
	if !t.ID.IsV7() {
		errs = append(errs, ValidationError{Field: "id", Message: "id must be a version 7 UUID"})
	}
	if t.Name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "name is required"})
	}
	if t.WorkspaceID == "" {
		errs = append(errs, ValidationError{Field: "workspace_id", Message: "workspace_id is required"})
	}
	if t.ProjectID == "" {
		errs = append(errs, ValidationError{Field: "project_id", Message: "project_id is required"})
	}
	if t.EndTime != nil && t.EndTime.Before(t.StartTime) {
		errs = append(errs, ValidationError{Field: "end_time", Message: "end_time must not precede start_time"})
	}
	return errs
}

// IsCompleted reports whether the trace has recorded an end time.
func (t *Trace) IsCompleted() bool { return t.EndTime != nil }

// CalculateDuration derives Duration (milliseconds, sub-millisecond
// precision) from StartTime/EndTime. A no-op if EndTime is unset.
func (t *Trace) CalculateDuration() {
	if t.EndTime == nil {
		return
	}
	ms := decimal.NewFromFloat(t.EndTime.Sub(t.StartTime).Seconds() * 1000)
	t.Duration = &ms
}

// Span is an operation nested inside a trace. It carries the same
// free-attribute shape as Trace plus LLM-call specific fields.
type Span struct {
	ID             uuid7.UUID       `json:"id" db:"id"`
	TraceID        uuid7.UUID       `json:"trace_id" db:"trace_id"`
	ParentSpanID   *uuid7.UUID      `json:"parent_span_id,omitempty" db:"parent_span_id"`
	WorkspaceID    string           `json:"workspace_id" db:"workspace_id"`
	ProjectID      string           `json:"project_id" db:"project_id"`
	Name           string           `json:"name" db:"name"`
	Type           SpanType         `json:"type" db:"type"`
	Model          *string          `json:"model,omitempty" db:"model"`
	Provider       *string          `json:"provider,omitempty" db:"provider"`
	StartTime      time.Time        `json:"start_time" db:"start_time"`
	EndTime        *time.Time       `json:"end_time,omitempty" db:"end_time"`
	Input          *string          `json:"input,omitempty" db:"input"`
	Output         *string          `json:"output,omitempty" db:"output"`
	Metadata       *string          `json:"metadata,omitempty" db:"metadata"`
	Tags           []string         `json:"tags,omitempty" db:"tags"`
	ThreadID       *string          `json:"thread_id,omitempty" db:"thread_id"`
	ErrorInfo      *string          `json:"error_info,omitempty" db:"error_info"`
	TotalEstimatedCost *decimal.Decimal `json:"total_estimated_cost,omitempty" db:"total_estimated_cost"`
	TotalEstimatedCostVersion *string `json:"total_estimated_cost_version,omitempty" db:"total_estimated_cost_version"`
	Duration       *decimal.Decimal `json:"duration,omitempty" db:"-"` // milliseconds, sub-ms precision
	Usage          map[string]int64 `json:"usage,omitempty" db:"usage"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	LastUpdatedAt  time.Time        `json:"last_updated_at" db:"last_updated_at"`
	CreatedBy      string           `json:"created_by" db:"created_by"`
	LastUpdatedBy  string           `json:"last_updated_by" db:"last_updated_by"`

	Scores   []*FeedbackScore `json:"scores,omitempty" db:"-"`
	Comments []*Comment       `json:"comments,omitempty" db:"-"`
}

// UnmarshalJSON normalizes input/output/metadata fields (same SDK tolerance
// as Trace: accept string, object, or array bodies).
func (s *Span) UnmarshalJSON(data []byte) error {
	type Alias Span
	aux := &struct {
		*Alias
		Input    json.RawMessage `json:"input,omitempty"`
		Output   json.RawMessage `json:"output,omitempty"`
		Metadata json.RawMessage `json:"metadata,omitempty"`
	}{Alias: (*Alias)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Input) > 0 {
		s.Input = normalizeJSONField(aux.Input)
	}
	if len(aux.Output) > 0 {
		s.Output = normalizeJSONField(aux.Output)
	}
	if len(aux.Metadata) > 0 {
		s.Metadata = normalizeJSONField(aux.Metadata)
	}
	return nil
}

func normalizeJSONField(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return &str
	}
	jsonStr := string(raw)
	return &jsonStr
}

// Validate checks field-level invariants on a span. Identity-mismatch checks
// against prior writes (invariant 2) belong to the store, not here.
func (s *Span) Validate() []ValidationError {
	var errs []ValidationError
	if !s.ID.IsV7() {
		errs = append(errs, ValidationError{Field: "id", Message: "id must be a version 7 UUID"})
	}
	if !s.TraceID.IsV7() {
		errs = append(errs, ValidationError{Field: "trace_id", Message: "trace_id must be a version 7 UUID"})
	}
	if s.Name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "name is required"})
	}
	if s.Type != "" && !s.Type.Valid() {
		errs = append(errs, ValidationError{Field: "type", Message: "type must be one of general, llm, tool"})
	}
	if s.EndTime != nil && s.EndTime.Before(s.StartTime) {
		errs = append(errs, ValidationError{Field: "end_time", Message: "end_time must not precede start_time"})
	}
	return errs
}

func (s *Span) IsCompleted() bool { return s.EndTime != nil }
func (s *Span) HasParent() bool   { return s.ParentSpanID != nil }
func (s *Span) IsRootSpan() bool  { return s.ParentSpanID == nil }

// CalculateDuration derives Duration (milliseconds, sub-millisecond
// precision) from StartTime/EndTime. A no-op if EndTime is unset.
func (s *Span) CalculateDuration() {
	if s.EndTime == nil {
		return
	}
	ms := decimal.NewFromFloat(s.EndTime.Sub(s.StartTime).Seconds() * 1000)
	s.Duration = &ms
}

// ExcludableFields is the closed set of field names SpanFieldSelector (§4.9)
// is allowed to zero out on a response.
var ExcludableFields = map[string]bool{
	"name": true, "type": true, "start_time": true, "end_time": true,
	"input": true, "output": true, "metadata": true, "model": true,
	"provider": true, "tags": true, "usage": true, "error_info": true,
	"created_at": true, "created_by": true, "last_updated_by": true,
	"feedback_scores": true, "comments": true, "total_estimated_cost": true,
	"total_estimated_cost_version": true, "duration": true,
}

// ApplyExclusions zeroes the requested fields on the span, ignoring any name
// outside ExcludableFields. Unknown names are silently dropped rather than
// rejected, matching the closed allow-list contract.
func (s *Span) ApplyExclusions(exclude []string) {
	for _, field := range exclude {
		if !ExcludableFields[field] {
			continue
		}
		switch field {
		case "name":
			s.Name = ""
		case "type":
			s.Type = ""
		case "start_time":
			s.StartTime = time.Time{}
		case "end_time":
			s.EndTime = nil
		case "input":
			s.Input = nil
		case "output":
			s.Output = nil
		case "metadata":
			s.Metadata = nil
		case "model":
			s.Model = nil
		case "provider":
			s.Provider = nil
		case "tags":
			s.Tags = nil
		case "usage":
			s.Usage = nil
		case "error_info":
			s.ErrorInfo = nil
		case "created_at":
			s.CreatedAt = time.Time{}
		case "created_by":
			s.CreatedBy = ""
		case "last_updated_by":
			s.LastUpdatedBy = ""
		case "feedback_scores":
			s.Scores = nil
		case "comments":
			s.Comments = nil
		case "total_estimated_cost":
			s.TotalEstimatedCost = nil
		case "total_estimated_cost_version":
			s.TotalEstimatedCostVersion = nil
		case "duration":
			s.Duration = nil
		}
	}
}

// FeedbackScore is a named, authored evaluation attached to a trace or span.
// The (entity_id, name, author) triple is the primary key, so a repeated
// write from the same author with the same name deterministically overrides
// the previous value rather than accumulating duplicates.
type FeedbackScore struct {
	EntityID     uuid7.UUID  `json:"entity_id" db:"entity_id"`
	EntityType   EntityType  `json:"entity_type" db:"entity_type"`
	Name         string      `json:"name" db:"name"`
	Author       string      `json:"author" db:"author"`
	Value        decimal.Decimal `json:"value" db:"value"`
	CategoryName *string     `json:"category_name,omitempty" db:"category_name"`
	Reason       *string     `json:"reason,omitempty" db:"reason"`
	Source       ScoreSource `json:"source" db:"source"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	LastUpdatedAt time.Time  `json:"last_updated_at" db:"last_updated_at"`
}

var (
	minScoreValue = decimal.New(-1_000_000_000, 0)
	maxScoreValue = decimal.New(1_000_000_000, 0)
)

// Validate enforces the score value range and the nine-decimal-place
// precision rule from the data model.
func (f *FeedbackScore) Validate() []ValidationError {
	var errs []ValidationError
	if !f.EntityID.IsV7() {
		errs = append(errs, ValidationError{Field: "entity_id", Message: "entity_id must be a version 7 UUID"})
	}
	if f.Name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "name is required"})
	}
	if f.Author == "" {
		errs = append(errs, ValidationError{Field: "author", Message: "author is required"})
	}
	if f.Value.LessThan(minScoreValue) || f.Value.GreaterThan(maxScoreValue) {
		errs = append(errs, ValidationError{Field: "value", Message: "value must be within [-1e9, 1e9]"})
	}
	if f.Value.Exponent() < -9 {
		errs = append(errs, ValidationError{Field: "value", Message: "value must not exceed 9 decimal places"})
	}
	if f.Source != "" && !f.Source.Valid() {
		errs = append(errs, ValidationError{Field: "source", Message: "source must be one of sdk, ui, online_scoring"})
	}
	return errs
}

// Comment is a mutable free-text annotation attached to a trace or span.
type Comment struct {
	ID            uuid7.UUID `json:"id" db:"id"`
	EntityID      uuid7.UUID `json:"entity_id" db:"entity_id"`
	EntityType    EntityType `json:"entity_type" db:"entity_type"`
	Text          string     `json:"text" db:"text"`
	Author        string     `json:"author" db:"author"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	LastUpdatedAt time.Time  `json:"last_updated_at" db:"last_updated_at"`
}

func (c *Comment) Validate() []ValidationError {
	var errs []ValidationError
	if !c.ID.IsV7() {
		errs = append(errs, ValidationError{Field: "id", Message: "id must be a version 7 UUID"})
	}
	if !c.EntityID.IsV7() {
		errs = append(errs, ValidationError{Field: "entity_id", Message: "entity_id must be a version 7 UUID"})
	}
	if strings.TrimSpace(c.Text) == "" {
		errs = append(errs, ValidationError{Field: "text", Message: "text is required"})
	}
	return errs
}

// Attachment is a binary blob that lives outside the trace/span JSON body.
// It is addressed by (project_id, entity_type, entity_id, file_name); a
// reference token of the form "[<context>-attachment-<index>-<nano
// timestamp>.<ext>]" is left inside the JSON body where the blob used to be.
type Attachment struct {
	ProjectID   string     `json:"project_id" db:"project_id"`
	EntityID    uuid7.UUID `json:"entity_id" db:"entity_id"`
	EntityType  EntityType `json:"entity_type" db:"entity_type"`
	FileName    string     `json:"file_name" db:"file_name"`
	ContentType string     `json:"content_type" db:"content_type"`
	SizeBytes   int64      `json:"size_bytes" db:"size_bytes"`
	StorageKey  string     `json:"storage_key" db:"storage_key"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

func (a *Attachment) Validate() []ValidationError {
	var errs []ValidationError
	if a.ProjectID == "" {
		errs = append(errs, ValidationError{Field: "project_id", Message: "project_id is required"})
	}
	if !a.EntityID.IsV7() {
		errs = append(errs, ValidationError{Field: "entity_id", Message: "entity_id must be a version 7 UUID"})
	}
	if a.FileName == "" {
		errs = append(errs, ValidationError{Field: "file_name", Message: "file_name is required"})
	}
	return errs
}

// ReferenceToken formats the in-body placeholder that replaces a stripped
// attachment, e.g. "[trace-attachment-0-1700000000000000000.png]".
func ReferenceToken(context string, index int, nanoTimestamp int64, ext string) string {
	return fmt.Sprintf("[%s-attachment-%d-%d.%s]", context, index, nanoTimestamp, ext)
}

// Model represents an LLM/API model with pricing information (PostgreSQL).
// Used for cost calculation via internal_model_id lookup.
type Model struct {
	UpdatedAt               time.Time  `json:"updated_at" db:"updated_at"`
	CreatedAt               time.Time  `json:"created_at" db:"created_at"`
	StartDate               *time.Time `json:"start_date,omitempty" db:"start_date"`
	ProjectID               *string    `json:"project_id,omitempty" db:"project_id"`
	TokenizerConfig         *string    `json:"tokenizer_config,omitempty" db:"tokenizer_config"`
	InputPrice              *float64   `json:"input_price,omitempty" db:"input_price"`
	OutputPrice             *float64   `json:"output_price,omitempty" db:"output_price"`
	TotalPrice              *float64   `json:"total_price,omitempty" db:"total_price"`
	TokenizerID             *string    `json:"tokenizer_id,omitempty" db:"tokenizer_id"`
	EndDate                 *time.Time `json:"end_date,omitempty" db:"end_date"`
	Provider                string     `json:"provider" db:"provider"`
	Unit                    string     `json:"unit" db:"unit"`
	ID                      string     `json:"id" db:"id"`
	MatchPattern            string     `json:"match_pattern" db:"match_pattern"`
	ModelName               string     `json:"model_name" db:"model_name"`
	BatchDiscountPercentage float64    `json:"batch_discount_percentage" db:"batch_discount_percentage"`
	CacheReadMultiplier     float64    `json:"cache_read_multiplier" db:"cache_read_multiplier"`
	CacheWriteMultiplier    float64    `json:"cache_write_multiplier" db:"cache_write_multiplier"`
	IsDeprecated            bool       `json:"is_deprecated" db:"is_deprecated"`
}

func (m *Model) IsActive() bool {
	if m.IsDeprecated {
		return false
	}
	now := time.Now()
	if m.StartDate != nil && now.Before(*m.StartDate) {
		return false
	}
	if m.EndDate != nil && now.After(*m.EndDate) {
		return false
	}
	return true
}

func (m *Model) IsGlobalPricing() bool {
	return m.ProjectID == nil
}

func (m *Model) CalculateInputCost(inputTokens int64, cacheHit bool) float64 {
	if m.InputPrice == nil {
		return 0.0
	}
	cost := (float64(inputTokens) / 1_000_000.0) * *m.InputPrice
	if cacheHit && m.CacheReadMultiplier > 0 {
		cost *= m.CacheReadMultiplier
	}
	return cost
}

func (m *Model) CalculateOutputCost(outputTokens int64) float64 {
	if m.OutputPrice == nil {
		return 0.0
	}
	return (float64(outputTokens) / 1_000_000.0) * *m.OutputPrice
}

func (m *Model) CalculateTotalCost(inputTokens, outputTokens int64, cacheHit, batchMode bool) float64 {
	inputCost := m.CalculateInputCost(inputTokens, cacheHit)
	outputCost := m.CalculateOutputCost(outputTokens)
	totalCost := inputCost + outputCost
	if batchMode && m.BatchDiscountPercentage > 0 {
		totalCost *= (1.0 - m.BatchDiscountPercentage/100.0)
	}
	return totalCost
}

func (m *Model) Validate() []ValidationError {
	var errs []ValidationError

	if m.ModelName == "" {
		errs = append(errs, ValidationError{Field: "model_name", Message: "model name is required"})
	}
	if m.MatchPattern == "" {
		errs = append(errs, ValidationError{Field: "match_pattern", Message: "match pattern is required"})
	}
	if m.Provider == "" {
		errs = append(errs, ValidationError{Field: "provider", Message: "provider is required"})
	}
	if m.Unit == "" {
		errs = append(errs, ValidationError{Field: "unit", Message: "pricing unit is required"})
	}
	if m.InputPrice == nil && m.OutputPrice == nil && m.TotalPrice == nil {
		errs = append(errs, ValidationError{Field: "pricing", Message: "at least one price (input/output/total) is required"})
	}
	if m.InputPrice != nil && *m.InputPrice < 0 {
		errs = append(errs, ValidationError{Field: "input_price", Message: "must be non-negative"})
	}
	if m.OutputPrice != nil && *m.OutputPrice < 0 {
		errs = append(errs, ValidationError{Field: "output_price", Message: "must be non-negative"})
	}
	if m.TotalPrice != nil && *m.TotalPrice < 0 {
		errs = append(errs, ValidationError{Field: "total_price", Message: "must be non-negative"})
	}

	if m.MatchPattern != "" {
		if _, err := regexp.Compile(m.MatchPattern); err != nil {
			errs = append(errs, ValidationError{Field: "match_pattern", Message: fmt.Sprintf("invalid regex pattern: %v", err)})
		}
		if len(m.MatchPattern) > 200 {
			errs = append(errs, ValidationError{Field: "match_pattern", Message: "pattern too long (max 200 characters)"})
		}
		if strings.Count(m.MatchPattern, "*") > 10 {
			errs = append(errs, ValidationError{Field: "match_pattern", Message: "pattern too complex (max 10 wildcards)"})
		}
	}

	if m.StartDate != nil && m.EndDate != nil && !m.EndDate.After(*m.StartDate) {
		errs = append(errs, ValidationError{Field: "end_date", Message: "end date must be after start date"})
	}
	if m.CacheWriteMultiplier < 0 {
		errs = append(errs, ValidationError{Field: "cache_write_multiplier", Message: "must be non-negative"})
	}
	if m.CacheReadMultiplier < 0 || m.CacheReadMultiplier > 1.0 {
		errs = append(errs, ValidationError{Field: "cache_read_multiplier", Message: "must be between 0 and 1"})
	}
	if m.BatchDiscountPercentage < 0 || m.BatchDiscountPercentage > 100 {
		errs = append(errs, ValidationError{Field: "batch_discount_percentage", Message: "must be between 0 and 100"})
	}

	return errs
}

// CostBreakdown is the detailed result of a cost calculation, returned
// alongside the normalized total so a caller can see how it was derived.
type CostBreakdown struct {
	CacheSavings *float64 `json:"cache_savings,omitempty"`
	BatchSavings *float64 `json:"batch_savings,omitempty"`
	InputCost    string   `json:"input_cost"`
	OutputCost   string   `json:"output_cost"`
	TotalCost    string   `json:"total_cost"`
	Currency     string   `json:"currency"`
	ModelName    string   `json:"model_name"`
	Provider     string   `json:"provider"`
	InputTokens  int64    `json:"input_tokens"`
	OutputTokens int64    `json:"output_tokens"`
	CacheHit     bool     `json:"cache_hit"`
	BatchMode    bool     `json:"batch_mode"`
}
