package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapIntent(t *testing.T) {
	m := NewIntentMapper()
	a := NewSemanticAnalyzer()
	empty := NewConversationContext("s", "u")

	tests := []struct {
		query string
		want  IntentType
	}{
		{"listar registros de Tasks", IntentListRecords},
		{"eliminar webhook wh123", IntentDeleteWebhook},
		{"listar bases", IntentListBases},
		{"mostrarme todas mis bases", IntentListBases},
		{"qué tablas tengo", IntentListTables},
		{"crear una nueva tarea", IntentCreateRecord},
		{"crear una nueva tabla llamada Proyectos", IntentCreateTable},
		{"crear campo Email", IntentCreateField},
		{"crear 5 registros nuevos a la vez", IntentBatchCreateRecords},
		{"eliminar varios registros", IntentBatchDeleteRecords},
		{"subir archivo al registro rec1", IntentUploadAttachment},
		{"ver webhooks", IntentListWebhooks},
		{"crear webhook para mi tabla Tasks", IntentCreateWebhook},
		{"buscar registros donde Estado sea igual a Activo", IntentSearchRecords},
		{"describir base", IntentGetBaseSchema},
		{"mostrar estructura de tabla Tasks", IntentDescribeTable},
		{"qué tipos de campos están disponibles en airtable", IntentListFieldTypes},
		{"ver colaboradores", IntentListCollaborators},
		{"ver vistas compartidas", IntentListShares},
		{"analizar datos de ventas", IntentAnalyzeData},
		{"show me all my bases", IntentListBases},
		{"list records from Tasks", IntentListRecords},
		{"delete the webhook ach123", IntentDeleteWebhook},
		{"LISTAR REGISTROS DE Tasks", IntentListRecords},

		// Keyword fallback.
		{"actualizar ese registro", IntentUpdateRecord},
		{"borrar ese registro", IntentDeleteRecord},
		{"mostrar registros", IntentListRecords},
		{"mostrar registros de la base", IntentListRecords},
		{"mostrar la base", IntentListBases},
		{"mostrar esa tabla", IntentListTables},
		{"añadir algo en esa tabla", IntentCreateTable},
		{"borrar el webhook", IntentDeleteWebhook},
		{"hola", IntentUnknown},
		{"", IntentUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := m.MapIntent(tt.query, a.Analyze(tt.query, empty), empty)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapIntentContextualOverride(t *testing.T) {
	m := NewIntentMapper()
	c := NewConversationContext("s", "u")
	c.CurrentTable = "Tasks"
	c.CurrentRecordID = "rec1"

	tests := []struct {
		query string
		want  IntentType
	}{
		{"mostrar esa tabla", IntentListRecords},
		{"añadir algo en esa tabla", IntentCreateRecord},
		{"cambiar ese registro", IntentUpdateRecord},
		{"borrar ese registro", IntentDeleteRecord},
		{"show that table", IntentListRecords},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, m.MapIntent(tt.query, SemanticAnalysis{}, c))
		})
	}
}

func TestMapIntentNilContext(t *testing.T) {
	m := NewIntentMapper()
	assert.Equal(t, IntentUpdateRecord, m.MapIntent("actualizar ese registro", SemanticAnalysis{}, nil))
}

func TestMapIntentDeterministic(t *testing.T) {
	m := NewIntentMapper()
	c := NewConversationContext("s", "u")
	for _, q := range []string{"listar registros de Tasks", "actualizar ese registro", "hola"} {
		assert.Equal(t, m.MapIntent(q, SemanticAnalysis{}, c), m.MapIntent(q, SemanticAnalysis{}, c))
	}
}

func TestMatchRule(t *testing.T) {
	m := NewIntentMapper()

	intent, pattern, ok := m.MatchRule("listar registros de Tasks")
	require.True(t, ok)
	assert.Equal(t, IntentListRecords, intent)
	assert.Contains(t, pattern, `listar\s+registros`)

	_, _, ok = m.MatchRule("actualizar ese registro")
	assert.False(t, ok)
}

func TestRulesAreOrdered(t *testing.T) {
	rules := NewIntentMapper().Rules()
	require.NotEmpty(t, rules)
	assert.Equal(t, IntentListBases, rules[0].Intent)

	seen := map[IntentType]bool{}
	for _, r := range rules {
		assert.False(t, seen[r.Intent], "duplicate rule for %s", r.Intent)
		seen[r.Intent] = true
		assert.NotEmpty(t, r.Patterns, r.Intent.String())
	}
}

func TestCustomRules(t *testing.T) {
	m := NewIntentMapperWithRules([]IntentRule{rule(IntentCreateReport, `generar\s+informe`)})
	assert.Equal(t, IntentCreateReport, m.MapIntent("generar informe mensual", SemanticAnalysis{}, nil))
}

func TestRequirementPredicates(t *testing.T) {
	m := NewIntentMapper()

	assert.True(t, m.RequiresTable(IntentListRecords))
	assert.True(t, m.RequiresTable(IntentUploadAttachment))
	assert.False(t, m.RequiresTable(IntentListBases))
	assert.False(t, m.RequiresTable(IntentDeleteWebhook))

	assert.True(t, m.RequiresRecordID(IntentUpdateRecord))
	assert.True(t, m.RequiresRecordID(IntentGetRecord))
	assert.False(t, m.RequiresRecordID(IntentCreateRecord))
}

func TestToolName(t *testing.T) {
	m := NewIntentMapper()
	assert.Equal(t, "list_records", m.ToolName(IntentListRecords))
	assert.Equal(t, "automation_recommendations", m.ToolName(IntentAutomationRecommendations))
	assert.Equal(t, "unknown", m.ToolName(IntentType("bogus")))

	i, ok := ParseIntent(" LIST_BASES ")
	assert.True(t, ok)
	assert.Equal(t, IntentListBases, i)
	_, ok = ParseIntent("nope")
	assert.False(t, ok)
}
