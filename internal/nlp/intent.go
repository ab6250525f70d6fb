package nlp

import (
	"regexp"
	"strings"
)

// IntentRule is one entry of the ordered classification table.
type IntentRule struct {
	Intent   IntentType
	Patterns []*regexp.Regexp
}

// rx compiles a case-insensitive pattern in which \w matches any Unicode
// word rune.
func rx(p string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + strings.ReplaceAll(p, `\w`, `[\p{L}\p{N}_]`))
}

func rule(intent IntentType, patterns ...string) IntentRule {
	r := IntentRule{Intent: intent}
	for _, p := range patterns {
		r.Patterns = append(r.Patterns, rx(p))
	}
	return r
}

// defaultRules is evaluated top to bottom and the first matching pattern
// wins, so more specific intents must be registered before general ones.
var defaultRules = []IntentRule{
	rule(IntentListBases,
		`listar\s+(todas\s+mis\s+)?bases\s+airtable\s+accesibles`,
		`mostrarme\s+todas\s+mis\s+bases`,
		`qué\s+bases\s+tengo\s+accesibles`,
		`listar\s+bases`,
		`list\s+(?:all\s+)?(?:my\s+)?bases`,
		`show\s+(?:me\s+)?(?:all\s+)?(?:my\s+)?bases`,
		`which\s+bases\s+(?:do\s+)?i\s+have`,
	),
	rule(IntentListRecords,
		`mostrarme\s+todos\s+los\s+registros\s+(?:en|en\s+la)\s+tabla\s+\w+`,
		`listar\s+registros\s+(?:de|en)\s+\w+`,
		`ver\s+registros\s+de\s+\w+`,
		`obtener\s+registros\s+de\s+\w+`,
		`(?:list|show|get)\s+(?:me\s+)?(?:all\s+)?(?:the\s+)?records\s+(?:from|in|of)\s+\w+`,
	),
	rule(IntentCreateRecord,
		`crear\s+(?:una\s+)?nueva\s+tarea`,
		`crear\s+registro\s+nuevo`,
		`agregar\s+registro`,
		`insertar\s+registro`,
		`añadir\s+nuevo\s+registro`,
		`create\s+(?:a\s+)?new\s+(?:record|task)`,
		`(?:add|insert)\s+(?:a\s+)?(?:new\s+)?record`,
	),
	rule(IntentUpdateRecord,
		`actualizar\s+(?:el\s+)?estado\s+de\s+(?:la\s+)?tarea`,
		`cambiar\s+estado\s+de`,
		`modificar\s+registro`,
		`editar\s+registro`,
		`actualizar\s+registro`,
		`update\s+(?:the\s+)?status\s+of`,
		`(?:update|modify|edit)\s+(?:the\s+)?record`,
	),
	rule(IntentDeleteRecord,
		`eliminar\s+(?:todos\s+los\s+)?registros\s+donde\s+el\s+estado\s+sea`,
		`borrar\s+registros\s+con\s+estado`,
		`suprimir\s+registros`,
		`eliminar\s+registros`,
		`(?:delete|remove)\s+(?:all\s+)?(?:the\s+)?records`,
	),
	rule(IntentSearchRecords,
		`buscar\s+registros\s+donde\s+\w+\s+sea\s+igual\s+a`,
		`filtrar\s+registros\s+por`,
		`encontrar\s+registros\s+con`,
		`buscar\s+registros\s+que`,
		`(?:search|find)\s+records\s+(?:where|with|that)`,
		`filter\s+records\s+by`,
	),
	rule(IntentListTables,
		`qué\s+tablas\s+hay\s+en\s+mi\s+base`,
		`mostrar\s+tablas\s+de\s+la\s+base`,
		`listar\s+tablas`,
		`qué\s+tablas\s+tengo`,
		`list\s+(?:all\s+)?(?:the\s+)?tables`,
		`(?:what|which)\s+tables`,
		`show\s+(?:me\s+)?(?:the\s+)?tables`,
	),
	rule(IntentCreateWebhook,
		`crear\s+un\s+webhook\s+para\s+mi\s+tabla`,
		`crear\s+webhook`,
		`configurar\s+webhook`,
		`establecer\s+webhook`,
		`create\s+(?:a\s+)?webhook`,
		`set\s+up\s+(?:a\s+)?webhook`,
	),
	rule(IntentListWebhooks,
		`listar\s+todos\s+los\s+webhooks\s+activos`,
		`mostrar\s+webhooks`,
		`ver\s+webhooks`,
		`qué\s+webhooks\s+tengo`,
		`(?:list|show)\s+(?:all\s+)?(?:the\s+)?(?:active\s+)?webhooks`,
	),
	rule(IntentDeleteWebhook,
		`eliminar\s+webhook\s+\w+`,
		`borrar\s+webhook`,
		`remover\s+webhook`,
		`(?:delete|remove)\s+(?:the\s+)?webhook`,
	),
	rule(IntentGetBaseSchema,
		`mostrarme\s+el\s+esquema\s+completo\s+para\s+(?:esta|la)\s+base`,
		`obtener\s+esquema\s+de\s+base`,
		`describir\s+base`,
		`(?:show|get)\s+(?:me\s+)?(?:the\s+)?(?:full\s+)?(?:base\s+)?schema`,
		`describe\s+(?:the\s+|this\s+)?base`,
	),
	rule(IntentDescribeTable,
		`describir\s+la\s+tabla\s+\w+\s+con\s+todos\s+los\s+detalles\s+de\s+campo`,
		`mostrar\s+estructura\s+de\s+tabla`,
		`ver\s+campos\s+de\s+tabla`,
		`describe\s+(?:the\s+)?table`,
		`show\s+(?:the\s+)?table\s+structure`,
	),
	rule(IntentCreateTable,
		`crear\s+una\s+nueva\s+tabla\s+llamada\s+\w+`,
		`crear\s+tabla\s+nueva`,
		`añadir\s+tabla`,
		`create\s+(?:a\s+)?(?:new\s+)?table`,
	),
	rule(IntentCreateField,
		`agregar\s+un\s+campo\s+de\s+\w+\s+a\s+la\s+tabla`,
		`añadir\s+campo`,
		`crear\s+campo`,
		`(?:add|create)\s+(?:a\s+)?(?:new\s+)?field`,
	),
	rule(IntentListFieldTypes,
		`qué\s+tipos\s+de\s+campos\s+están\s+disponibles\s+en\s+airtable`,
		`tipos\s+de\s+campos\s+disponibles`,
		`campos\s+disponibles`,
		`field\s+types`,
	),
	rule(IntentBatchCreateRecords,
		`crear\s+\d+\s+registros\s+nuevos\s+a\s+la\s+vez`,
		`crear\s+múltiples\s+registros`,
		`añadir\s+varios\s+registros`,
		`create\s+(?:multiple|several|\d+)\s+(?:new\s+)?records`,
	),
	rule(IntentBatchUpdateRecords,
		`actualizar\s+múltiples\s+registros`,
		`modificar\s+varios\s+registros`,
		`cambiar\s+varios\s+registros`,
		`update\s+(?:multiple|several)\s+records`,
	),
	rule(IntentBatchDeleteRecords,
		`eliminar\s+estos\s+\d+\s+registros\s+en\s+una\s+operación`,
		`borrar\s+múltiples\s+registros`,
		`eliminar\s+varios\s+registros`,
		`delete\s+(?:multiple|several|these\s+\d+)\s+records`,
	),
	rule(IntentUploadAttachment,
		`adjuntar\s+esta\s+url\s+de\s+imagen`,
		`subir\s+archivo`,
		`adjuntar\s+archivo`,
		`añadir\s+adjunto`,
		`(?:upload|attach)\s+(?:a\s+|an\s+|this\s+)?(?:file|image|attachment)`,
	),
	rule(IntentListCollaborators,
		`quiénes\s+son\s+los\s+colaboradores\s+en\s+esta\s+base`,
		`mostrar\s+colaboradores`,
		`ver\s+colaboradores`,
		`(?:list|show|who\s+are)\s+(?:the\s+)?collaborators`,
	),
	rule(IntentListShares,
		`mostrarme\s+todas\s+las\s+vistas\s+compartidas\s+en\s+esta\s+base`,
		`ver\s+vistas\s+compartidas`,
		`mostrar\s+compartidos`,
		`shared\s+views`,
	),
	rule(IntentAnalyzeData,
		`analizar\s+datos\s+de`,
		`analizar\s+tabla`,
		`estudiar\s+datos`,
		`analy[sz]e\s+(?:the\s+)?(?:data|table)`,
	),
}

var (
	thatTable  = []*regexp.Regexp{phrase("esa tabla"), phrase("that table")}
	thatRecord = []*regexp.Regexp{phrase("ese registro"), phrase("that record")}

	createVerbs  = set("crear", "nuevo", "nueva", "añadir", "insertar", "agregar", "create", "new", "add", "insert")
	displayVerbs = set("mostrar", "mostrarme", "listar", "ver", "obtener", "list", "show", "view", "get")
	updateVerbs  = set("actualizar", "modificar", "cambiar", "editar", "update", "modify", "change", "edit")
	deleteVerbs  = set("eliminar", "borrar", "suprimir", "remover", "delete", "remove")
)

// IntentMapper classifies a query into exactly one IntentType.
type IntentMapper struct {
	rules []IntentRule
}

// NewIntentMapper returns a mapper over the built-in rule table.
func NewIntentMapper() *IntentMapper {
	return &IntentMapper{rules: defaultRules}
}

// NewIntentMapperWithRules returns a mapper over a custom rule table.
func NewIntentMapperWithRules(rules []IntentRule) *IntentMapper {
	return &IntentMapper{rules: rules}
}

// Rules returns the ordered classification table.
func (m *IntentMapper) Rules() []IntentRule {
	return m.rules
}

// MatchRule reports the first rule pattern that matches query.
func (m *IntentMapper) MatchRule(query string) (IntentType, string, bool) {
	for _, r := range m.rules {
		for _, p := range r.Patterns {
			if p.MatchString(query) {
				return r.Intent, p.String(), true
			}
		}
	}
	return IntentUnknown, "", false
}

// MapIntent classifies query. Rule patterns are tried first, then
// deictic overrides against the session context, then verb families.
// It never fails; unclassifiable input is IntentUnknown.
func (m *IntentMapper) MapIntent(query string, _ SemanticAnalysis, c *ConversationContext) IntentType {
	if intent, _, ok := m.MatchRule(query); ok {
		return intent
	}

	tokens := wordTokens(query)
	lower := strings.ToLower(query)

	if c != nil {
		if c.CurrentTable != "" && anyMatch(thatTable, query) {
			switch {
			case containsAnyWord(tokens, displayVerbs):
				return IntentListRecords
			case containsAnyWord(tokens, createVerbs):
				return IntentCreateRecord
			}
		}
		if c.CurrentRecordID != "" && anyMatch(thatRecord, query) {
			switch {
			case containsAnyWord(tokens, updateVerbs):
				return IntentUpdateRecord
			case containsAnyWord(tokens, deleteVerbs):
				return IntentDeleteRecord
			}
		}
	}

	switch {
	case containsAnyWord(tokens, createVerbs):
		switch {
		case mentions(lower, "tabla", "table"):
			return IntentCreateTable
		case mentions(lower, "campo", "field"):
			return IntentCreateField
		default:
			return IntentCreateRecord
		}
	case containsAnyWord(tokens, displayVerbs):
		// Records are checked first so "mostrar registros de la base" lists
		// records rather than bases.
		switch {
		case mentions(lower, "registro", "record"):
			return IntentListRecords
		case mentions(lower, "base"):
			return IntentListBases
		case mentions(lower, "tabla", "table"):
			return IntentListTables
		case mentions(lower, "webhook"):
			return IntentListWebhooks
		default:
			return IntentListRecords
		}
	case containsAnyWord(tokens, updateVerbs):
		return IntentUpdateRecord
	case containsAnyWord(tokens, deleteVerbs):
		if mentions(lower, "webhook") {
			return IntentDeleteWebhook
		}
		return IntentDeleteRecord
	}
	return IntentUnknown
}

func anyMatch(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func mentions(lower string, nouns ...string) bool {
	for _, n := range nouns {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

var tableIntents = map[IntentType]bool{
	IntentListRecords:        true,
	IntentCreateRecord:       true,
	IntentUpdateRecord:       true,
	IntentDeleteRecord:       true,
	IntentSearchRecords:      true,
	IntentDescribeTable:      true,
	IntentCreateField:        true,
	IntentCreateWebhook:      true,
	IntentBatchCreateRecords: true,
	IntentBatchUpdateRecords: true,
	IntentBatchDeleteRecords: true,
	IntentUploadAttachment:   true,
}

var recordIntents = map[IntentType]bool{
	IntentUpdateRecord:     true,
	IntentDeleteRecord:     true,
	IntentGetRecord:        true,
	IntentUploadAttachment: true,
}

// RequiresTable reports whether intent operates on a table.
func (m *IntentMapper) RequiresTable(intent IntentType) bool {
	return tableIntents[intent]
}

// RequiresRecordID reports whether intent operates on a single record.
func (m *IntentMapper) RequiresRecordID(intent IntentType) bool {
	return recordIntents[intent]
}

// knownIntents are the intents with a tool of the same name.
var knownIntents = map[IntentType]bool{}

func init() {
	for _, i := range []IntentType{
		IntentListBases, IntentListRecords, IntentCreateRecord, IntentUpdateRecord,
		IntentDeleteRecord, IntentSearchRecords, IntentListTables, IntentGetRecord,
		IntentCreateWebhook, IntentListWebhooks, IntentDeleteWebhook, IntentGetWebhookPayloads,
		IntentGetBaseSchema, IntentDescribeTable, IntentCreateTable, IntentDeleteTable,
		IntentUpdateTable, IntentCreateField, IntentDeleteField, IntentUpdateField,
		IntentListFieldTypes, IntentBatchCreateRecords, IntentBatchUpdateRecords,
		IntentBatchDeleteRecords, IntentBatchUpsertRecords, IntentUploadAttachment,
		IntentListCollaborators, IntentListShares, IntentCreateView, IntentGetViewMetadata,
		IntentGetTableViews, IntentCreateBase, IntentAnalyzeData, IntentCreateReport,
		IntentDataInsights, IntentOptimizeWorkflow, IntentSmartSchemaDesign,
		IntentDataQualityAudit, IntentPredictiveAnalytics, IntentNaturalLanguageQuery,
		IntentSmartDataTransformation, IntentAutomationRecommendations, IntentUnknown,
	} {
		knownIntents[i] = true
	}
}

// ToolName returns the tool that executes intent, or "unknown".
func (m *IntentMapper) ToolName(intent IntentType) string {
	if knownIntents[intent] {
		return string(intent)
	}
	return string(IntentUnknown)
}

// ParseIntent converts a tool name back into an IntentType.
func ParseIntent(s string) (IntentType, bool) {
	i := IntentType(strings.ToLower(strings.TrimSpace(s)))
	return i, knownIntents[i]
}
