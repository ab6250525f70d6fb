package nltool

import (
	"fmt"

	"github.com/desarrollo032/airtable-mcp/internal/nlp"
)

type reply struct {
	text  string
	key   string // payload list counted in the annotation
	count string // annotation format, one %d verb
}

var replies = map[string]map[nlp.IntentType]reply{
	"es": {
		nlp.IntentListBases:     {"He encontrado las siguientes bases Airtable accesibles:", "bases", " Encontré %d bases accesibles."},
		nlp.IntentListRecords:   {"Aquí están los registros encontrados en la tabla:", "records", " Se encontraron %d registros."},
		nlp.IntentCreateRecord:  {"He creado el nuevo registro exitosamente.", "", ""},
		nlp.IntentUpdateRecord:  {"He actualizado el registro como solicitaste.", "", ""},
		nlp.IntentDeleteRecord:  {"He eliminado el registro especificado.", "", ""},
		nlp.IntentSearchRecords: {"Aquí están los resultados de tu búsqueda:", "records", " Se encontraron %d registros."},
		nlp.IntentListTables:    {"Las tablas disponibles en tu base son:", "tables", " Encontré %d tablas."},
		nlp.IntentCreateWebhook: {"He creado el webhook correctamente.", "", ""},
		nlp.IntentListWebhooks:  {"Los webhooks activos en tu base son:", "webhooks", " Hay %d webhooks activos."},
		nlp.IntentDeleteWebhook: {"He eliminado el webhook especificado.", "", ""},
		nlp.IntentGetBaseSchema: {"El esquema completo de tu base es:", "tables", " Contiene %d tablas."},
		nlp.IntentDescribeTable: {"Los detalles de la tabla solicitada son:", "fields", " Tiene %d campos."},
		nlp.IntentUnknown:       {"No pude entender completamente tu consulta.", "", ""},
	},
	"en": {
		nlp.IntentListBases:     {"I found the following accessible Airtable bases:", "bases", " Found %d accessible bases."},
		nlp.IntentListRecords:   {"Here are the records found in the table:", "records", " Found %d records."},
		nlp.IntentCreateRecord:  {"I created the new record successfully.", "", ""},
		nlp.IntentUpdateRecord:  {"I updated the record as requested.", "", ""},
		nlp.IntentDeleteRecord:  {"I deleted the specified record.", "", ""},
		nlp.IntentSearchRecords: {"Here are your search results:", "records", " Found %d records."},
		nlp.IntentListTables:    {"The tables available in your base are:", "tables", " Found %d tables."},
		nlp.IntentCreateWebhook: {"I created the webhook successfully.", "", ""},
		nlp.IntentListWebhooks:  {"The active webhooks in your base are:", "webhooks", " There are %d active webhooks."},
		nlp.IntentDeleteWebhook: {"I deleted the specified webhook.", "", ""},
		nlp.IntentGetBaseSchema: {"The full schema of your base is:", "tables", " It has %d tables."},
		nlp.IntentDescribeTable: {"The details of the requested table are:", "fields", " It has %d fields."},
		nlp.IntentUnknown:       {"I could not fully understand your query.", "", ""},
	},
}

// messages are the fixed adapter sentences per language.
var messages = map[string]struct {
	clarify, failed, invalid, execFailed, done, notImplemented string
}{
	"es": {
		clarify:        "Necesito más información para procesar tu consulta.",
		failed:         "Lo siento, ocurrió un error al procesar tu consulta: %v",
		invalid:        "La consulta no es válida: %s",
		execFailed:     "No se pudo completar la operación: %v",
		done:           "Operación completada.",
		notImplemented: "Operación %s solicitada pero no implementada completamente.",
	},
	"en": {
		clarify:        "I need more information to process your query.",
		failed:         "Sorry, an error occurred while processing your query: %v",
		invalid:        "The query is not valid: %s",
		execFailed:     "The operation could not be completed: %v",
		done:           "Operation completed.",
		notImplemented: "Operation %s requested but not fully implemented.",
	},
}

// missingTexts explain which parameters an intent still needs before it can
// run, per language.
var missingTexts = map[string]struct {
	base, table, tableFields, update, tableRecord, webhook, webhookID string
}{
	"es": {
		base:        "ID de base requerido: indica la base (app...) o configura una base por defecto",
		table:       "Nombre de tabla requerido",
		tableFields: "Tabla y campos requeridos",
		update:      "Tabla, ID de registro y campos requeridos",
		tableRecord: "Tabla e ID de registro requeridos",
		webhook:     "Tabla y configuración de webhook requeridas",
		webhookID:   "ID de webhook requerido",
	},
	"en": {
		base:        "Base ID required: name the base (app...) or configure a default base",
		table:       "Table name required",
		tableFields: "Table and fields required",
		update:      "Table, record ID and fields required",
		tableRecord: "Table and record ID required",
		webhook:     "Table and webhook configuration required",
		webhookID:   "Webhook ID required",
	},
}

func lang(l string) string {
	if _, ok := replies[l]; ok {
		return l
	}
	return "es"
}

// replyFor builds the canned sentence for intent, annotated with the size of
// the relevant list in data.
func replyFor(language string, intent nlp.IntentType, data Payload) string {
	language = lang(language)
	r, ok := replies[language][intent]
	if !ok {
		return messages[language].done
	}
	if r.key == "" {
		return r.text
	}
	if n, ok := countOf(data, r.key); ok {
		return r.text + fmt.Sprintf(r.count, n)
	}
	return r.text
}

func countOf(data Payload, key string) (int, bool) {
	switch v := data[key].(type) {
	case []any:
		return len(v), true
	case []map[string]any:
		return len(v), true
	case []string:
		return len(v), true
	default:
		return 0, false
	}
}
