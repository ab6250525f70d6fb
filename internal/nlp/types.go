package nlp

import "time"

// IntentType is the canonical operation a natural-language query maps to.
type IntentType string

const (
	IntentListBases                 IntentType = "list_bases"
	IntentListRecords               IntentType = "list_records"
	IntentCreateRecord              IntentType = "create_record"
	IntentUpdateRecord              IntentType = "update_record"
	IntentDeleteRecord              IntentType = "delete_record"
	IntentSearchRecords             IntentType = "search_records"
	IntentListTables                IntentType = "list_tables"
	IntentGetRecord                 IntentType = "get_record"
	IntentCreateWebhook             IntentType = "create_webhook"
	IntentListWebhooks              IntentType = "list_webhooks"
	IntentDeleteWebhook             IntentType = "delete_webhook"
	IntentGetWebhookPayloads        IntentType = "get_webhook_payloads"
	IntentGetBaseSchema             IntentType = "get_base_schema"
	IntentDescribeTable             IntentType = "describe_table"
	IntentCreateTable               IntentType = "create_table"
	IntentDeleteTable               IntentType = "delete_table"
	IntentUpdateTable               IntentType = "update_table"
	IntentCreateField               IntentType = "create_field"
	IntentDeleteField               IntentType = "delete_field"
	IntentUpdateField               IntentType = "update_field"
	IntentListFieldTypes            IntentType = "list_field_types"
	IntentBatchCreateRecords        IntentType = "batch_create_records"
	IntentBatchUpdateRecords        IntentType = "batch_update_records"
	IntentBatchDeleteRecords        IntentType = "batch_delete_records"
	IntentBatchUpsertRecords        IntentType = "batch_upsert_records"
	IntentUploadAttachment          IntentType = "upload_attachment"
	IntentListCollaborators         IntentType = "list_collaborators"
	IntentListShares                IntentType = "list_shares"
	IntentCreateView                IntentType = "create_view"
	IntentGetViewMetadata           IntentType = "get_view_metadata"
	IntentGetTableViews             IntentType = "get_table_views"
	IntentCreateBase                IntentType = "create_base"
	IntentAnalyzeData               IntentType = "analyze_data"
	IntentCreateReport              IntentType = "create_report"
	IntentDataInsights              IntentType = "data_insights"
	IntentOptimizeWorkflow          IntentType = "optimize_workflow"
	IntentSmartSchemaDesign         IntentType = "smart_schema_design"
	IntentDataQualityAudit          IntentType = "data_quality_audit"
	IntentPredictiveAnalytics       IntentType = "predictive_analytics"
	IntentNaturalLanguageQuery      IntentType = "natural_language_query"
	IntentSmartDataTransformation   IntentType = "smart_data_transformation"
	IntentAutomationRecommendations IntentType = "automation_recommendations"
	IntentUnknown                   IntentType = "unknown"
)

// String implements fmt.Stringer.
func (i IntentType) String() string { return string(i) }

// Query is the input of the pipeline.
type Query struct {
	Text      string
	UserID    string
	SessionID string
	Timestamp time.Time
}

// ExtractedEntities holds the typed values pulled out of a query.
type ExtractedEntities struct {
	TableName     string         `json:"table_name,omitempty"`
	RecordID      string         `json:"record_id,omitempty"`
	FieldName     string         `json:"field_name,omitempty"`
	FieldValue    string         `json:"field_value,omitempty"`
	FieldType     string         `json:"field_type,omitempty"`
	BaseID        string         `json:"base_id,omitempty"`
	WebhookURL    string         `json:"webhook_url,omitempty"`
	WebhookID     string         `json:"webhook_id,omitempty"`
	AttachmentURL string         `json:"attachment_url,omitempty"`
	Priority      Priority       `json:"priority,omitempty"`
	Status        string         `json:"status,omitempty"`
	DateReference string         `json:"date_reference,omitempty"`
	Count         int            `json:"count,omitempty"`
	FieldNames    []string       `json:"field_names,omitempty"`
	ViewName      string         `json:"view_name,omitempty"`
	Permissions   string         `json:"permissions,omitempty"`
	ShareURL      string         `json:"share_url,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// Priority is the normalized priority value written to records.
type Priority string

const (
	PriorityHigh   Priority = "Alta"
	PriorityMedium Priority = "Media"
	PriorityLow    Priority = "Baja"
)

// SortSpec orders list results.
type SortSpec struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// QueryParameters is what an executor needs to run an intent.
type QueryParameters struct {
	Table           string         `json:"table,omitempty"`
	BaseID          string         `json:"base_id,omitempty"`
	RecordID        string         `json:"record_id,omitempty"`
	Fields          map[string]any `json:"fields,omitempty"`
	FilterByFormula string         `json:"filter_by_formula,omitempty"`
	MaxRecords      int            `json:"max_records,omitempty"`
	Sort            []SortSpec     `json:"sort,omitempty"`
	View            string         `json:"view,omitempty"`
	WebhookConfig   map[string]any `json:"webhook_config,omitempty"`
	AttachmentData  map[string]any `json:"attachment_data,omitempty"`
	Extra           map[string]any `json:"extra,omitempty"`
}

// PreviousQuery is one entry of a session's query history.
type PreviousQuery struct {
	Query     string     `json:"query"`
	Intent    IntentType `json:"intent"`
	Timestamp time.Time  `json:"timestamp"`
	Result    any        `json:"result,omitempty"`
}

// MentionedEntities lists every entity referenced during a session.
type MentionedEntities struct {
	Tables  []string `json:"tables"`
	Fields  []string `json:"fields"`
	Records []string `json:"records"`
}

// Preferences are per-session conversation preferences.
type Preferences struct {
	Language       string `json:"language"`
	DateFormat     string `json:"date_format"`
	ResponseFormat string `json:"response_format"`
}

// ConversationContext is the state kept for one (user, session) pair.
type ConversationContext struct {
	SessionID         string            `json:"session_id"`
	UserID            string            `json:"user_id"`
	CurrentBaseID     string            `json:"current_base_id,omitempty"`
	CurrentTable      string            `json:"current_table,omitempty"`
	CurrentRecordID   string            `json:"current_record_id,omitempty"`
	PreviousQueries   []PreviousQuery   `json:"previous_queries"`
	MentionedEntities MentionedEntities `json:"mentioned_entities"`
	Preferences       Preferences       `json:"preferences"`
}

// NewConversationContext returns an empty context with default preferences.
func NewConversationContext(sessionID, userID string) *ConversationContext {
	return &ConversationContext{
		SessionID: sessionID,
		UserID:    userID,
		Preferences: Preferences{
			Language:       "es",
			DateFormat:     "YYYY-MM-DD",
			ResponseFormat: "natural",
		},
	}
}

// Clone returns a deep copy. Result payloads in the history are shared.
func (c *ConversationContext) Clone() *ConversationContext {
	if c == nil {
		return nil
	}
	out := *c
	out.PreviousQueries = append([]PreviousQuery(nil), c.PreviousQueries...)
	out.MentionedEntities = MentionedEntities{
		Tables:  append([]string(nil), c.MentionedEntities.Tables...),
		Fields:  append([]string(nil), c.MentionedEntities.Fields...),
		Records: append([]string(nil), c.MentionedEntities.Records...),
	}
	return &out
}

// ClarificationType is the kind of follow-up question.
type ClarificationType string

const (
	ClarificationMissingTable       ClarificationType = "missing_table"
	ClarificationMissingField       ClarificationType = "missing_field"
	ClarificationMissingValue       ClarificationType = "missing_value"
	ClarificationAmbiguousReference ClarificationType = "ambiguous_reference"
	ClarificationPermissionIssue    ClarificationType = "permission_issue"
)

// Clarification is a question that must be answered before execution.
type Clarification struct {
	Question    string            `json:"question"`
	Type        ClarificationType `json:"type"`
	Suggestions []string          `json:"suggestions"`
	Required    bool              `json:"required"`
}

// ProcessedQuery is the terminal artifact of the pipeline.
type ProcessedQuery struct {
	Intent                IntentType        `json:"intent"`
	Entities              ExtractedEntities `json:"entities"`
	Parameters            QueryParameters   `json:"parameters"`
	Confidence            float64           `json:"confidence"`
	RequiresClarification bool              `json:"requires_clarification"`
	Clarifications        []Clarification   `json:"clarifications,omitempty"`
	Validation            ValidationResult  `json:"validation"`
}

// DateFormat classifies a date expression.
type DateFormat string

const (
	DateFormatRelative DateFormat = "relative"
	DateFormatAbsolute DateFormat = "absolute"
	DateFormatInvalid  DateFormat = "invalid"
)

// RelativeType is the direction of a relative date.
type RelativeType string

const (
	RelativePast   RelativeType = "past"
	RelativeFuture RelativeType = "future"
)

// RelativeUnit is the unit of a relative date.
type RelativeUnit string

const (
	UnitDays   RelativeUnit = "days"
	UnitWeeks  RelativeUnit = "weeks"
	UnitMonths RelativeUnit = "months"
	UnitYears  RelativeUnit = "years"
)

// DateProcessingResult is the outcome of ProcessDateReference. ProcessedDate
// is empty when nothing was recognized.
type DateProcessingResult struct {
	OriginalText  string       `json:"original_text"`
	ProcessedDate string       `json:"processed_date,omitempty"`
	Confidence    float64      `json:"confidence"`
	Format        DateFormat   `json:"format"`
	RelativeType  RelativeType `json:"relative_type,omitempty"`
	RelativeValue int          `json:"relative_value,omitempty"`
	RelativeUnit  RelativeUnit `json:"relative_unit,omitempty"`
}

// ReferenceType selects what kind of entity a deictic phrase points to.
type ReferenceType string

const (
	ReferenceTable  ReferenceType = "table"
	ReferenceField  ReferenceType = "field"
	ReferenceRecord ReferenceType = "record"
	ReferenceBase   ReferenceType = "base"
)

// ContextReference is the result of resolving a deictic reference.
type ContextReference struct {
	ReferenceType ReferenceType `json:"reference_type"`
	Reference     string        `json:"reference"`
	Resolved      bool          `json:"resolved"`
	Alternatives  []string      `json:"alternatives,omitempty"`
	Confidence    float64       `json:"confidence"`
}

// Sentiment of a query.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Urgency of a query.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// Complexity buckets a query by length and entity count.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// QueryType is the speech act of a query.
type QueryType string

const (
	QueryTypeAction   QueryType = "action"
	QueryTypeQuestion QueryType = "question"
	QueryTypeRequest  QueryType = "request"
	QueryTypeUnknown  QueryType = "unknown"
)

// SemanticAnalysis is derived per query and never stored.
type SemanticAnalysis struct {
	Confidence float64    `json:"confidence"`
	Entities   []string   `json:"entities"`
	Actions    []string   `json:"actions"`
	Context    []string   `json:"context"`
	Sentiment  Sentiment  `json:"sentiment"`
	Urgency    Urgency    `json:"urgency"`
	Keywords   []string   `json:"keywords"`
	QueryType  QueryType  `json:"query_type"`
	Complexity Complexity `json:"complexity"`
}
