package nlp

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Severity of a validation finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// RuleType selects how a ValidationRule is applied.
type RuleType string

const (
	// RuleRequired fails when the parameter is absent or invalid.
	RuleRequired RuleType = "required"
	// RuleConditional only runs when the parameter is present.
	RuleConditional RuleType = "conditional"
)

// ValidationRule checks one parameter of an intent. Valid defaults to a
// non-empty check.
type ValidationRule struct {
	Parameter    string
	Type         RuleType
	ErrorMessage string
	Valid        func(v any) bool
}

// ValidationError blocks execution.
type ValidationError struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ValidationWarning is advisory only.
type ValidationWarning struct {
	Field      string `json:"field"`
	Message    string `json:"message"`
	Code       string `json:"code"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ValidationResult is valid iff Errors is empty.
type ValidationResult struct {
	IsValid     bool                `json:"is_valid"`
	Errors      []ValidationError   `json:"errors"`
	Warnings    []ValidationWarning `json:"warnings"`
	Suggestions []string            `json:"suggestions"`
}

// HasError reports whether any error carries code.
func (r ValidationResult) HasError(code string) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// PermissionCheck is the outcome of ValidatePermissions.
type PermissionCheck struct {
	HasPermission bool `json:"has_permission"`
	Sensitive     bool `json:"sensitive"`
}

const msgTableRequired = "El nombre de la tabla es requerido"

func requiredTable() ValidationRule {
	return ValidationRule{Parameter: "table", Type: RuleRequired, ErrorMessage: msgTableRequired}
}

func requiredRecordID() ValidationRule {
	return ValidationRule{Parameter: "record_id", Type: RuleRequired, ErrorMessage: "El ID del registro es requerido"}
}

func mapKeyPresent(key string) func(any) bool {
	return func(v any) bool {
		m, ok := v.(map[string]any)
		if !ok {
			return false
		}
		return truthy(m[key])
	}
}

var defaultValidationRules = map[IntentType][]ValidationRule{
	IntentListRecords: {requiredTable()},
	IntentCreateRecord: {
		requiredTable(),
		{Parameter: "fields", Type: RuleRequired, ErrorMessage: "Se requiere al menos un campo para crear el registro"},
	},
	IntentUpdateRecord: {
		requiredTable(),
		requiredRecordID(),
		{Parameter: "fields", Type: RuleRequired, ErrorMessage: "Se requiere al menos un campo para actualizar"},
	},
	IntentDeleteRecord: {requiredTable(), requiredRecordID()},
	IntentCreateWebhook: {
		requiredTable(),
		{Parameter: "webhook_config", Type: RuleRequired, ErrorMessage: "La configuración del webhook es requerida", Valid: mapKeyPresent("notificationUrl")},
	},
	IntentDeleteWebhook: {
		{Parameter: "webhook_id", Type: RuleRequired, ErrorMessage: "El ID del webhook es requerido"},
	},
	IntentUploadAttachment: {
		requiredTable(),
		requiredRecordID(),
		{Parameter: "attachment_data", Type: RuleRequired, ErrorMessage: "Los datos del adjunto son requeridos", Valid: mapKeyPresent("url")},
	},
	IntentBatchCreateRecords: {
		requiredTable(),
		{Parameter: "max_records", Type: RuleConditional, ErrorMessage: "El número de registros debe estar entre 1 y 10", Valid: func(v any) bool {
			n, ok := v.(int)
			return ok && n >= 1 && n <= 10
		}},
	},
}

var sensitiveIntents = map[IntentType]bool{
	IntentDeleteRecord:  true,
	IntentDeleteWebhook: true,
	IntentDeleteTable:   true,
	IntentDeleteField:   true,
	IntentCreateTable:   true,
	IntentCreateField:   true,
}

var (
	tableNameRe = regexp.MustCompile(`^\p{L}[\p{L}\p{N}\s_-]*$`)
	recordIDRe  = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

const maxTableNameLen = 50

// ValidationEngine checks QueryParameters against per-intent rules and a set
// of checks that apply to every intent.
type ValidationEngine struct {
	rules map[IntentType][]ValidationRule
}

// NewValidationEngine returns an engine loaded with the built-in rules.
func NewValidationEngine() *ValidationEngine {
	return &ValidationEngine{rules: defaultValidationRules}
}

// Rules returns the rules registered for intent.
func (v *ValidationEngine) Rules(intent IntentType) []ValidationRule {
	return v.rules[intent]
}

// AllRules returns the full rule table.
func (v *ValidationEngine) AllRules() map[IntentType][]ValidationRule {
	return v.rules
}

// Validate runs the intent's rules and the cross-cutting checks. Every
// error also contributes its suggestions.
func (v *ValidationEngine) Validate(intent IntentType, p QueryParameters, c *ConversationContext) ValidationResult {
	var res ValidationResult

	for _, r := range v.rules[intent] {
		value := paramValue(p, r.Parameter)
		valid := r.Valid
		if valid == nil {
			valid = truthy
		}
		switch r.Type {
		case RuleRequired:
			if !truthy(value) || !valid(value) {
				res.Errors = append(res.Errors, ValidationError{
					Field:    r.Parameter,
					Message:  r.ErrorMessage,
					Code:     "MISSING_" + strings.ToUpper(r.Parameter),
					Severity: SeverityError,
				})
			}
		case RuleConditional:
			if truthy(value) && !valid(value) {
				res.Errors = append(res.Errors, ValidationError{
					Field:    r.Parameter,
					Message:  r.ErrorMessage,
					Code:     "INVALID_" + strings.ToUpper(r.Parameter),
					Severity: SeverityError,
				})
			}
		}
	}

	v.crossChecks(intent, p, &res)

	for _, e := range res.Errors {
		for _, s := range v.GenerateSuggestions(e, c) {
			res.Suggestions = appendUnique(res.Suggestions, s)
		}
	}
	for _, w := range res.Warnings {
		if w.Suggestion != "" {
			res.Suggestions = appendUnique(res.Suggestions, w.Suggestion)
		}
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

func (v *ValidationEngine) crossChecks(intent IntentType, p QueryParameters, res *ValidationResult) {
	if u, ok := p.WebhookConfig["notificationUrl"].(string); ok && u != "" && !isHTTPURL(u) {
		res.Errors = append(res.Errors, ValidationError{
			Field:    "webhook_config.notificationUrl",
			Message:  "La URL del webhook no es válida",
			Code:     "INVALID_WEBHOOK_URL",
			Severity: SeverityError,
		})
	}
	if u, ok := p.AttachmentData["url"].(string); ok && u != "" && !isHTTPURL(u) {
		res.Errors = append(res.Errors, ValidationError{
			Field:    "attachment_data.url",
			Message:  "La URL del adjunto no es válida",
			Code:     "INVALID_ATTACHMENT_URL",
			Severity: SeverityError,
		})
	}
	if strings.Contains(string(intent), "batch") && p.MaxRecords > 10 {
		res.Warnings = append(res.Warnings, ValidationWarning{
			Field:      "max_records",
			Message:    "El tamaño del lote es mayor a 10, se recomienda usar un valor menor",
			Code:       "LARGE_BATCH_SIZE",
			Suggestion: "Usar un tamaño de lote de 10 o menos para mejor rendimiento",
		})
	}
	if p.Table != "" {
		if utf8.RuneCountInString(p.Table) > maxTableNameLen {
			res.Errors = append(res.Errors, ValidationError{
				Field:    "table",
				Message:  "El nombre de la tabla es demasiado largo",
				Code:     "TABLE_NAME_TOO_LONG",
				Severity: SeverityError,
			})
		}
		if !tableNameRe.MatchString(p.Table) {
			res.Errors = append(res.Errors, ValidationError{
				Field:    "table",
				Message:  "El nombre de la tabla contiene caracteres no válidos",
				Code:     "INVALID_TABLE_NAME",
				Severity: SeverityError,
			})
		}
	}
	if p.RecordID != "" && !recordIDRe.MatchString(p.RecordID) {
		res.Errors = append(res.Errors, ValidationError{
			Field:    "record_id",
			Message:  "El ID del registro no es válido",
			Code:     "INVALID_RECORD_ID",
			Severity: SeverityError,
		})
	}
}

// ValidatePermissions always grants access; sensitive intents are flagged
// so callers can ask for confirmation.
func (v *ValidationEngine) ValidatePermissions(intent IntentType, _ *ConversationContext) PermissionCheck {
	return PermissionCheck{HasPermission: true, Sensitive: sensitiveIntents[intent]}
}

// GenerateSuggestions returns correction hints for err.
func (v *ValidationEngine) GenerateSuggestions(err ValidationError, c *ConversationContext) []string {
	if c == nil {
		c = &ConversationContext{}
	}
	switch err.Code {
	case "MISSING_TABLE":
		if len(c.MentionedEntities.Tables) > 0 {
			return []string{fmt.Sprintf("¿Quisiste decir una de estas tablas: %s?", strings.Join(c.MentionedEntities.Tables, ", "))}
		}
		return []string{`Especifica el nombre de la tabla: "en la tabla [nombre]"`}
	case "MISSING_RECORD_ID":
		if c.CurrentRecordID != "" {
			return []string{fmt.Sprintf("¿Te refieres al registro %s?", c.CurrentRecordID)}
		}
		return []string{`Especifica el ID del registro: "registro [ID]"`}
	case "MISSING_FIELDS":
		return []string{`Indica los valores a guardar, por ejemplo: "con prioridad alta"`}
	case "MISSING_WEBHOOK_ID":
		return []string{`Especifica el ID del webhook: "webhook [ID]"`}
	case "INVALID_TABLE_NAME":
		return []string{"Usa solo letras, números, espacios, guiones y guiones bajos"}
	case "INVALID_WEBHOOK_URL", "INVALID_ATTACHMENT_URL":
		return []string{"La URL debe comenzar con http:// o https://"}
	case "LARGE_BATCH_SIZE":
		return []string{"Para mejor rendimiento, usa lotes de 10 o menos registros"}
	}
	return nil
}

func paramValue(p QueryParameters, name string) any {
	switch name {
	case "table":
		return p.Table
	case "base_id":
		return p.BaseID
	case "record_id":
		return p.RecordID
	case "fields":
		return p.Fields
	case "filter_by_formula":
		return p.FilterByFormula
	case "max_records":
		return p.MaxRecords
	case "view":
		return p.View
	case "webhook_config":
		return p.WebhookConfig
	case "attachment_data":
		return p.AttachmentData
	}
	if v, ok := p.Extra[name]; ok {
		return v
	}
	if v, ok := p.Fields[name]; ok {
		return v
	}
	return nil
}

// truthy treats nil, zero numbers, blank strings and empty maps as absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case int:
		return t != 0
	case float64:
		return t != 0
	case bool:
		return t
	case map[string]any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case []any:
		return len(t) > 0
	}
	return true
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
