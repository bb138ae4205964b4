package observability

import (
	"errors"
)

// FieldType classifies a filterable field so FilterCompiler can enforce the
// right operator set and value shape for it.
type FieldType string

const (
	FieldTypeString              FieldType = "string"
	FieldTypeNumber              FieldType = "number"
	FieldTypeDateTime            FieldType = "date_time"
	FieldTypeList                FieldType = "list"
	FieldTypeDictionary          FieldType = "dictionary"
	FieldTypeFeedbackScoreNumber FieldType = "feedback_scores_number"
)

// FilterOperator is one comparison operator accepted by a filter clause.
type FilterOperator string

const (
	FilterOpEqual        FilterOperator = "equal"
	FilterOpNotEqual     FilterOperator = "not_equal"
	FilterOpGreaterThan  FilterOperator = "greater_than"
	FilterOpLessThan     FilterOperator = "less_than"
	FilterOpGreaterEqual FilterOperator = "greater_than_equal"
	FilterOpLessEqual    FilterOperator = "less_than_equal"
	FilterOpContains     FilterOperator = "contains"
	FilterOpNotContains  FilterOperator = "not_contains"
	FilterOpStartsWith   FilterOperator = "starts_with"
	FilterOpEndsWith     FilterOperator = "ends_with"
)

// fieldTypeOperators is the admitted operator set per field type (§4.1).
var fieldTypeOperators = map[FieldType]map[FilterOperator]bool{
	FieldTypeString: {
		FilterOpEqual: true, FilterOpNotEqual: true,
		FilterOpContains: true, FilterOpNotContains: true,
		FilterOpStartsWith: true, FilterOpEndsWith: true,
	},
	FieldTypeNumber: {
		FilterOpEqual: true, FilterOpNotEqual: true,
		FilterOpGreaterThan: true, FilterOpLessThan: true,
		FilterOpGreaterEqual: true, FilterOpLessEqual: true,
	},
	FieldTypeDateTime: {
		FilterOpEqual: true, FilterOpNotEqual: true,
		FilterOpGreaterThan: true, FilterOpLessThan: true,
		FilterOpGreaterEqual: true, FilterOpLessEqual: true,
	},
	FieldTypeList: {
		FilterOpContains: true, FilterOpNotContains: true,
	},
	FieldTypeDictionary: {
		FilterOpEqual: true, FilterOpNotEqual: true,
		FilterOpGreaterThan: true, FilterOpLessThan: true,
		FilterOpGreaterEqual: true, FilterOpLessEqual: true,
	},
	FieldTypeFeedbackScoreNumber: {
		FilterOpEqual: true, FilterOpNotEqual: true,
		FilterOpGreaterThan: true, FilterOpLessThan: true,
		FilterOpGreaterEqual: true, FilterOpLessEqual: true,
	},
}

// FieldDescriptor declares the type (and therefore the operator set and value
// shape) of one filterable field on an entity.
type FieldDescriptor struct {
	Type FieldType
	// RequiresKey is true for DICTIONARY and FEEDBACK_SCORES_NUMBER fields,
	// which filter a sub-key of a map rather than the field itself.
	RequiresKey bool
}

// TraceFilterableFields lists the fields FilterCompiler accepts for traces.
var TraceFilterableFields = map[string]FieldDescriptor{
	"name":                 {Type: FieldTypeString},
	"thread_id":            {Type: FieldTypeString},
	"created_by":           {Type: FieldTypeString},
	"start_time":           {Type: FieldTypeDateTime},
	"end_time":             {Type: FieldTypeDateTime},
	"duration":             {Type: FieldTypeNumber},
	"total_estimated_cost": {Type: FieldTypeNumber},
	"tags":                 {Type: FieldTypeList},
	"metadata":             {Type: FieldTypeDictionary, RequiresKey: true},
	"feedback_scores":      {Type: FieldTypeFeedbackScoreNumber, RequiresKey: true},
}

// SpanFilterableFields lists the fields FilterCompiler accepts for spans.
var SpanFilterableFields = map[string]FieldDescriptor{
	"name":                 {Type: FieldTypeString},
	"type":                 {Type: FieldTypeString},
	"model":                {Type: FieldTypeString},
	"provider":             {Type: FieldTypeString},
	"thread_id":            {Type: FieldTypeString},
	"created_by":           {Type: FieldTypeString},
	"start_time":           {Type: FieldTypeDateTime},
	"end_time":             {Type: FieldTypeDateTime},
	"duration":             {Type: FieldTypeNumber},
	"total_estimated_cost": {Type: FieldTypeNumber},
	"tags":                 {Type: FieldTypeList},
	"metadata":             {Type: FieldTypeDictionary, RequiresKey: true},
	"feedback_scores":      {Type: FieldTypeFeedbackScoreNumber, RequiresKey: true},
}

// FilterClause is a single compiled filter predicate as accepted by the
// IngestAPI's list/search/stats endpoints: {field, operator, value, key?}.
type FilterClause struct {
	Field    string         `json:"field"`
	Operator FilterOperator `json:"operator"`
	Value    string         `json:"value"`
	Key      string         `json:"key,omitempty"`
}

var (
	ErrInvalidFilterSyntax = errors.New("invalid filter syntax")
	ErrUnsupportedOperator = errors.New("unsupported operator")
	ErrInvalidAttributePath = errors.New("invalid attribute path")
	ErrEmptyFilter         = errors.New("empty filter expression")

	// Query execution errors
	ErrQueryTimeout        = errors.New("query execution timeout")
	ErrResultLimitExceeded = errors.New("result limit exceeded")
)

// NewInvalidOperatorError reports an operator that is not valid for the
// field's type, per §4.1's validation order (operator check runs first).
func NewInvalidOperatorError(operator, field string, fieldType FieldType) *ObservabilityError {
	return NewObservabilityError("INVALID_FILTER_OPERATOR",
		"Invalid operator '"+string(operator)+"' for field '"+field+"' of type '"+string(fieldType)+"'")
}

// NewInvalidFilterValueError reports a value or key that doesn't match the
// field's expected shape, checked only after the operator is known valid.
func NewInvalidFilterValueError(value, key, field string, fieldType FieldType) *ObservabilityError {
	msg := "Invalid value '" + value + "'"
	if key != "" {
		msg += " or key '" + key + "'"
	}
	msg += " for field '" + field + "' of type '" + string(fieldType) + "'"
	return NewObservabilityError("INVALID_FILTER_VALUE", msg)
}

// AttributeKey represents a discovered metadata key with metadata, used by
// the filter-options/attribute-discovery helper endpoints.
type AttributeKey struct {
	Key       string `json:"key"`
	ValueType string `json:"value_type"`
	Count     int64  `json:"count"`
}
