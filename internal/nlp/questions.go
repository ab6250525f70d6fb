package nlp

import (
	"regexp"
	"strings"
	"unicode"
)

type questionSet struct {
	table, recordID, fields           string
	webhookID, webhookURL, attachment string
	whichTable, whichRecord           string // one %s verb: the phrase the user typed
}

var questions = map[string]questionSet{
	"es": {
		table:       "¿En qué tabla quieres realizar esta operación?",
		recordID:    "¿Cuál es el ID del registro que quieres modificar?",
		fields:      "¿Qué campos y valores quieres establecer?",
		webhookID:   "¿Cuál es el ID del webhook?",
		webhookURL:  "¿A qué URL debe enviar notificaciones el webhook?",
		attachment:  "¿Cuál es la URL del archivo que quieres adjuntar?",
		whichTable:  "¿A qué tabla te refieres con '%s'?",
		whichRecord: "¿A qué registro te refieres con '%s'?",
	},
	"en": {
		table:       "Which table do you want to run this operation on?",
		recordID:    "What is the ID of the record you want to change?",
		fields:      "Which fields and values do you want to set?",
		webhookID:   "What is the webhook ID?",
		webhookURL:  "Which URL should the webhook send notifications to?",
		attachment:  "What is the URL of the file you want to attach?",
		whichTable:  "Which table do you mean by '%s'?",
		whichRecord: "Which record do you mean by '%s'?",
	},
}

// questionsFor returns the prompts for language, Spanish when unknown.
func questionsFor(language string) questionSet {
	if q, ok := questions[language]; ok {
		return q
	}
	return questions["es"]
}

// matchedPhrase returns the first phrase in s matched by res, as typed with
// whitespace collapsed, or "" when none matches.
func matchedPhrase(res []*regexp.Regexp, s string) string {
	for _, re := range res {
		if m := re.FindString(s); m != "" {
			m = strings.TrimFunc(m, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
			})
			return strings.Join(strings.Fields(m), " ")
		}
	}
	return ""
}
