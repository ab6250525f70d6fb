package nlp

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const nameRun = `(\p{L}[\p{L}\p{N}_-]*)`

var (
	tablePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:tabla|table)\s+["“']([^"”']+)["”']`),
		regexp.MustCompile(`(?i)(?:tabla|table)\s+(?:llamada|called|named)\s+` + nameRun),
		regexp.MustCompile(`(?i)` + wordStart + `(?:tabla|table)\s+` + nameRun),
		regexp.MustCompile(`(?i)` + wordStart + `(?:registros|records|tareas|tasks)\s+(?:de|en|from|in|of)\s+` + nameRun),
	}

	recordIDPattern  = regexp.MustCompile(`rec[a-zA-Z0-9]{14}`)
	recordRefPattern = regexp.MustCompile(`(?i)` + wordStart + `(?:registro|record|id)\s+([a-zA-Z0-9]+)`)
	baseIDPattern    = regexp.MustCompile(`app[a-zA-Z0-9]{14}`)
	webhookIDPattern = regexp.MustCompile(`(?i)` + wordStart + `webhook\s+([a-zA-Z0-9_]+)`)
	urlPattern       = regexp.MustCompile(`(?i)[a-z][a-z0-9+.-]*://[^\s"'<>]+`)
	countPattern     = regexp.MustCompile(wordStart + `(\d+)` + wordEnd)
	fieldPattern     = regexp.MustCompile(`(?i)` + wordStart + `(?:campo|field)\s+["']?` + nameRun)
	fieldValueRe     = regexp.MustCompile(`(?i)` + wordStart + `(?:campo|field)\s+["']?` + nameRun + `["']?\s+(?:a|como|con\s+valor|=|to|as|with\s+value)\s+(?:"([^"]+)"|([\p{L}\p{N}_.@:/-]+))`)
	viewPattern      = regexp.MustCompile(`(?i)` + wordStart + `(?:vista|view)\s+["']?` + nameRun)
	filterPattern    = regexp.MustCompile(`(?i)` + wordStart + `(?:donde|where)\s+` + nameRun + `\s+(?:sea\s+igual\s+a|sea|es|is|equals|=)\s+(?:"([^"]+)"|([\p{L}\p{N}_.@-]+))`)

	tableDeicticRes  = phrases(tableDeictics...)
	recordDeicticRes = phrases(recordDeictics...)
	baseDeicticRes   = phrases(baseDeictics...)

	webhookWords    = []*regexp.Regexp{phrase("webhook")}
	attachmentWords = phrases("adjuntar", "adjunto", "archivo", "imagen", "subir", "attach", "attachment", "upload", "file", "image")

	// nameNoise are words that follow "tabla" or "webhook" without naming
	// anything.
	nameNoise = set(
		"nueva", "nuevo", "new", "llamada", "called", "named", "actual",
		"current", "activos", "active", "con", "todos", "registros", "records",
		"on", "to", "at", "in", "for", "from", "of", "the", "with",
	)
)

type priorityWord struct {
	re       *regexp.Regexp
	priority Priority
}

var priorityWords = []priorityWord{
	{phrase("alta prioridad"), PriorityHigh},
	{phrase("media prioridad"), PriorityMedium},
	{phrase("baja prioridad"), PriorityLow},
	{phrase("prioridad alta"), PriorityHigh},
	{phrase("prioridad media"), PriorityMedium},
	{phrase("prioridad baja"), PriorityLow},
	{phrase("high priority"), PriorityHigh},
	{phrase("medium priority"), PriorityMedium},
	{phrase("low priority"), PriorityLow},
	{phrase("alta"), PriorityHigh},
	{phrase("media"), PriorityMedium},
	{phrase("baja"), PriorityLow},
}

var statusWords = []string{
	"activo", "completado", "archivado", "pendiente", "en progreso",
	"active", "completed", "archived", "pending", "in progress",
}

var statusRes = phrases(statusWords...)

func phrases(ps ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(ps))
	for i, p := range ps {
		out[i] = phrase(p)
	}
	return out
}

// firstPhrase returns the first of ps found in text, by list order.
func firstPhrase(text string, ps []string, res []*regexp.Regexp) (string, bool) {
	for i, re := range res {
		if re.MatchString(text) {
			return ps[i], true
		}
	}
	return "", false
}

func isNoise(word string) bool {
	w := strings.ToLower(word)
	return stopWords[w] || nameNoise[w]
}

// extractEntities pulls typed values out of query. Table, record and base
// references that are only deictic ("esa tabla") are resolved against the
// session when contextual references are enabled.
func (p *Processor) extractEntities(ctx context.Context, s Session, query string) ExtractedEntities {
	var e ExtractedEntities

	if tables := extractTableNames(query); len(tables) > 0 {
		e.TableName = tables[0]
	} else if p.cfg.EnableContextualReferences {
		if ref, ok := firstPhrase(query, tableDeictics, tableDeicticRes); ok {
			if r := p.contexts.ResolveReference(ctx, s, ref, ReferenceTable); r.Resolved {
				e.TableName = r.Reference
			}
		}
	}

	if ids := extractRecordIDs(query); len(ids) > 0 {
		e.RecordID = ids[0]
	} else if p.cfg.EnableContextualReferences {
		if ref, ok := firstPhrase(query, recordDeictics, recordDeicticRes); ok {
			if r := p.contexts.ResolveReference(ctx, s, ref, ReferenceRecord); r.Resolved {
				e.RecordID = r.Reference
			}
		}
	}

	if m := baseIDPattern.FindString(query); m != "" {
		e.BaseID = m
	} else if p.cfg.EnableContextualReferences {
		if ref, ok := firstPhrase(query, baseDeictics, baseDeicticRes); ok {
			if r := p.contexts.ResolveReference(ctx, s, ref, ReferenceBase); r.Resolved {
				e.BaseID = r.Reference
			}
		}
	}

	e.FieldNames = extractFieldNames(query)
	if len(e.FieldNames) > 0 {
		e.FieldName = e.FieldNames[0]
	}
	if m := fieldValueRe.FindStringSubmatch(query); m != nil {
		e.FieldName = m[1]
		e.FieldValue = firstNonEmpty(m[2], m[3])
	}

	if m := viewPattern.FindStringSubmatch(query); m != nil && !isNoise(m[1]) {
		e.ViewName = m[1]
	}

	for _, pw := range priorityWords {
		if pw.re.MatchString(query) {
			e.Priority = pw.priority
			break
		}
	}
	if st, ok := firstPhrase(query, statusWords, statusRes); ok {
		e.Status = titleCase(st)
	}

	if p.cfg.EnableDateProcessing {
		if d := p.dates.ProcessDateReference(query); d.Confidence > 0.5 {
			e.DateReference = d.ProcessedDate
		}
	}

	if m := countPattern.FindStringSubmatch(query); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			e.Count = n
		}
	}

	// Webhook ids carry digits; this keeps "webhook to https://..." from
	// naming a webhook "to".
	if m := webhookIDPattern.FindStringSubmatch(query); m != nil && !isNoise(m[1]) && strings.IndexFunc(m[1], unicode.IsDigit) >= 0 {
		e.WebhookID = m[1]
	}
	if u := urlPattern.FindString(query); u != "" {
		u = strings.TrimRight(u, ".,;)")
		if anyMatch(webhookWords, query) {
			e.WebhookURL = u
		}
		if anyMatch(attachmentWords, query) {
			e.AttachmentURL = u
		}
	}

	if m := filterPattern.FindStringSubmatch(query); m != nil {
		e.Extra = map[string]any{
			"filter_field": m[1],
			"filter_value": firstNonEmpty(m[2], m[3]),
		}
	}

	return e
}

func extractTableNames(query string) []string {
	var tables []string
	for _, re := range tablePatterns {
		for _, m := range re.FindAllStringSubmatch(query, -1) {
			name := strings.TrimSpace(m[1])
			if name == "" || isNoise(name) {
				continue
			}
			tables = appendUnique(tables, name)
		}
	}
	return tables
}

// extractRecordIDs prefers Airtable record ids; "registro X" and "ID X"
// forms only count when X contains a digit so words like "nuevo" are not
// taken for ids.
func extractRecordIDs(query string) []string {
	var ids []string
	for _, m := range recordIDPattern.FindAllString(query, -1) {
		ids = appendUnique(ids, m)
	}
	for _, m := range recordRefPattern.FindAllStringSubmatch(query, -1) {
		if strings.IndexFunc(m[1], unicode.IsDigit) >= 0 {
			ids = appendUnique(ids, m[1])
		}
	}
	return ids
}

func extractFieldNames(query string) []string {
	var fields []string
	for _, m := range fieldPattern.FindAllStringSubmatch(query, -1) {
		if !isNoise(m[1]) {
			fields = appendUnique(fields, m[1])
		}
	}
	return fields
}

// buildParameters turns entities into executor parameters, falling back to
// the session's focus for table, record and base.
func (p *Processor) buildParameters(query string, e ExtractedEntities, c *ConversationContext) QueryParameters {
	var params QueryParameters

	params.Table = firstNonEmpty(e.TableName, c.CurrentTable)
	params.RecordID = firstNonEmpty(e.RecordID, c.CurrentRecordID)
	params.BaseID = firstNonEmpty(e.BaseID, c.CurrentBaseID, p.cfg.DefaultBaseID)
	params.View = e.ViewName

	fields := map[string]any{}
	if e.FieldName != "" && e.FieldValue != "" {
		fields[e.FieldName] = e.FieldValue
	}
	if e.Priority != "" {
		fields["Prioridad"] = string(e.Priority)
	}
	if e.Status != "" {
		fields["Estado"] = e.Status
	}
	if e.DateReference != "" {
		fields["Fecha de Vencimiento"] = e.DateReference
	}
	if len(fields) > 0 {
		params.Fields = fields
	}

	if e.Count > 0 {
		params.MaxRecords = e.Count
	}

	if f, ok := e.Extra["filter_field"].(string); ok {
		v, _ := e.Extra["filter_value"].(string)
		params.FilterByFormula = fmt.Sprintf("{%s} = '%s'", f, strings.ReplaceAll(v, "'", `\'`))
	}

	if e.WebhookURL != "" {
		params.WebhookConfig = map[string]any{"notificationUrl": e.WebhookURL}
	}
	if e.AttachmentURL != "" {
		params.AttachmentData = map[string]any{"url": e.AttachmentURL}
	}
	if e.WebhookID != "" {
		params.Extra = map[string]any{"webhook_id": e.WebhookID}
	}

	return params
}

// clarifications turns missing-parameter errors and unresolved deictic
// references into follow-up questions, in error order, worded in the
// session language.
func (p *Processor) clarifications(query string, e ExtractedEntities, v ValidationResult, c *ConversationContext) []Clarification {
	var out []Clarification
	mentioned := c.MentionedEntities
	q := questionsFor(requestedLanguage(query, c.Preferences.Language))

	for _, err := range v.Errors {
		switch {
		case err.Code == "MISSING_TABLE" && e.TableName == "":
			out = append(out, Clarification{
				Question:    q.table,
				Type:        ClarificationMissingTable,
				Suggestions: firstN(mentioned.Tables, 3),
				Required:    true,
			})
		case err.Code == "MISSING_RECORD_ID" && e.RecordID == "":
			out = append(out, Clarification{
				Question:    q.recordID,
				Type:        ClarificationMissingValue,
				Suggestions: firstN(mentioned.Records, 3),
				Required:    true,
			})
		case err.Code == "MISSING_FIELDS":
			out = append(out, Clarification{
				Question:    q.fields,
				Type:        ClarificationMissingField,
				Suggestions: firstN(mentioned.Fields, 3),
				Required:    true,
			})
		case err.Code == "MISSING_WEBHOOK_ID":
			out = append(out, Clarification{
				Question: q.webhookID,
				Type:     ClarificationMissingValue,
				Required: true,
			})
		case err.Code == "MISSING_WEBHOOK_CONFIG":
			out = append(out, Clarification{
				Question: q.webhookURL,
				Type:     ClarificationMissingValue,
				Required: true,
			})
		case err.Code == "MISSING_ATTACHMENT_DATA":
			out = append(out, Clarification{
				Question: q.attachment,
				Type:     ClarificationMissingValue,
				Required: true,
			})
		}
	}

	if ref := matchedPhrase(thatTable, query); e.TableName == "" && ref != "" {
		out = append(out, Clarification{
			Question:    fmt.Sprintf(q.whichTable, ref),
			Type:        ClarificationAmbiguousReference,
			Suggestions: firstN(mentioned.Tables, 3),
		})
	}
	if ref := matchedPhrase(thatRecord, query); e.RecordID == "" && ref != "" {
		out = append(out, Clarification{
			Question:    fmt.Sprintf(q.whichRecord, ref),
			Type:        ClarificationAmbiguousReference,
			Suggestions: firstN(mentioned.Records, 3),
		})
	}

	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
