package nlp

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	actionWords = set(
		"crear", "mostrar", "listar", "ver", "obtener", "buscar", "filtrar",
		"actualizar", "modificar", "cambiar", "editar", "eliminar", "borrar",
		"agregar", "añadir", "insertar", "subir", "adjuntar",
		"create", "show", "list", "view", "get", "search", "filter",
		"update", "modify", "change", "edit", "delete", "remove",
		"add", "insert", "upload", "attach",
	)

	contextWords = set(
		"tabla", "registro", "base", "campo", "webhook", "archivo", "imagen",
		"proyecto", "tarea", "estado", "prioridad", "fecha", "vencimiento",
		"table", "record", "field", "file", "image", "project", "task",
		"status", "priority", "date",
	)

	positiveWords = set("bueno", "excelente", "perfecto", "correcto", "bien", "good", "great", "perfect", "correct")
	negativeWords = set("malo", "incorrecto", "error", "problema", "fallo", "bad", "wrong", "problem", "failure")

	urgentWords = set("urgente", "rápido", "inmediato", "ahora", "ya", "urgent", "asap", "immediately", "now")
	mediumWords = set("pronto", "rápido", "próximo", "soon", "quickly")

	requestPhrases = []*regexp.Regexp{
		phrase("por favor"), phrase("podrías"), phrase("puedes"),
		phrase("please"), phrase("could you"), phrase("can you"),
	}

	capitalizedPhrase = regexp.MustCompile(wordStart + `(\p{Lu}[\p{Ll} ]+)`)
	wordRun           = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

// SemanticAnalyzer extracts surface signals from a query. It keeps no state
// and never mutates the context it is given.
type SemanticAnalyzer struct{}

// NewSemanticAnalyzer returns an analyzer.
func NewSemanticAnalyzer() *SemanticAnalyzer {
	return &SemanticAnalyzer{}
}

// Analyze computes the SemanticAnalysis of query. A query without signal
// yields a low confidence, never an error.
func (a *SemanticAnalyzer) Analyze(query string, _ *ConversationContext) SemanticAnalysis {
	words := whitespaceTokens(query)

	var actions, contexts []string
	for _, w := range words {
		if actionWords[w] {
			actions = append(actions, w)
		}
		if contextWords[w] {
			contexts = append(contexts, w)
		}
	}

	entities := a.NamedEntities(query)

	return SemanticAnalysis{
		Confidence: confidence(len(actions), len(entities), len(contexts)),
		Entities:   entities,
		Actions:    actions,
		Context:    contexts,
		Sentiment:  sentiment(words),
		Urgency:    urgency(words),
		Keywords:   a.ExtractKeywords(query),
		QueryType:  a.QueryType(query),
		Complexity: a.Complexity(query),
	}
}

// confidence is 0.3 base plus capped contributions from actions (0.2 each,
// max 0.4), entities (0.1 each, max 0.3) and context words (0.1 each,
// max 0.2), clamped to 1.0.
func confidence(actions, entities, contexts int) float64 {
	c := 0.3
	c += minFloat(float64(actions)*0.2, 0.4)
	c += minFloat(float64(entities)*0.1, 0.3)
	c += minFloat(float64(contexts)*0.1, 0.2)
	return round2(minFloat(c, 1.0))
}

// NamedEntities returns capitalized phrases, acronyms and identifier-like
// tokens found in the original-case query, minus common words, in
// first-seen order.
func (a *SemanticAnalyzer) NamedEntities(query string) []string {
	var candidates []string
	for _, m := range capitalizedPhrase.FindAllStringSubmatch(query, -1) {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}

	tokens := wordRun.FindAllString(query, -1)
	for _, t := range tokens {
		if isAcronym(t) {
			candidates = append(candidates, t)
		}
	}
	for _, t := range tokens {
		first, _ := utf8.DecodeRuneInString(t)
		if unicode.IsLower(first) || first == '_' {
			candidates = append(candidates, t)
		}
	}

	var entities []string
	for _, c := range candidates {
		if utf8.RuneCountInString(c) <= 2 || stopWords[strings.ToLower(c)] {
			continue
		}
		entities = appendUnique(entities, c)
	}
	return entities
}

func isAcronym(token string) bool {
	if utf8.RuneCountInString(token) < 2 {
		return false
	}
	for _, r := range token {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// ExtractKeywords returns the lower-cased content words of query.
func (a *SemanticAnalyzer) ExtractKeywords(query string) []string {
	var keywords []string
	for _, w := range wordTokens(query) {
		if utf8.RuneCountInString(w) > 2 && !stopWords[w] {
			keywords = append(keywords, w)
		}
	}
	return keywords
}

// QueryType classifies the speech act of query.
func (a *SemanticAnalyzer) QueryType(query string) QueryType {
	if strings.ContainsAny(query, "?¿") {
		return QueryTypeQuestion
	}
	for _, re := range requestPhrases {
		if re.MatchString(query) {
			return QueryTypeRequest
		}
	}
	if containsAnyWord(wordTokens(query), actionWords) {
		return QueryTypeAction
	}
	return QueryTypeUnknown
}

// Complexity buckets query by word and entity count.
func (a *SemanticAnalyzer) Complexity(query string) Complexity {
	words := len(strings.Fields(query))
	entities := len(a.NamedEntities(query))
	switch {
	case words <= 5 && entities <= 1:
		return ComplexitySimple
	case words <= 15 && entities <= 3:
		return ComplexityModerate
	default:
		return ComplexityComplex
	}
}

// ActionDensity is the share of whitespace tokens that are action words.
func (a *SemanticAnalyzer) ActionDensity(query string) float64 {
	words := whitespaceTokens(query)
	if len(words) == 0 {
		return 0
	}
	n := 0
	for _, w := range words {
		if actionWords[w] {
			n++
		}
	}
	return float64(n) / float64(len(words))
}

// EntityDensity is the number of named entities per word.
func (a *SemanticAnalyzer) EntityDensity(query string) float64 {
	words := strings.Fields(query)
	if len(words) == 0 {
		return 0
	}
	return float64(len(a.NamedEntities(query))) / float64(len(words))
}

var queryPatternRules = []struct {
	name  string
	words []*regexp.Regexp
}{
	{"listing_pattern", []*regexp.Regexp{phrase("listar"), phrase("mostrar"), phrase("ver"), phrase("list"), phrase("show")}},
	{"creation_pattern", []*regexp.Regexp{phrase("crear"), phrase("agregar"), phrase("añadir"), phrase("create"), phrase("add")}},
	{"update_pattern", []*regexp.Regexp{phrase("actualizar"), phrase("modificar"), phrase("cambiar"), phrase("update")}},
	{"deletion_pattern", []*regexp.Regexp{phrase("eliminar"), phrase("borrar"), phrase("suprimir"), phrase("delete")}},
	{"search_pattern", []*regexp.Regexp{phrase("buscar"), phrase("filtrar"), phrase("encontrar"), phrase("search"), phrase("find")}},
	{"schema_pattern", []*regexp.Regexp{phrase("crear tabla"), phrase("añadir campo"), phrase("create table"), phrase("add field")}},
}

// QueryPatterns names the broad operation families present in query.
func (a *SemanticAnalyzer) QueryPatterns(query string) []string {
	var patterns []string
	for _, rule := range queryPatternRules {
		for _, re := range rule.words {
			if re.MatchString(query) {
				patterns = append(patterns, rule.name)
				break
			}
		}
	}
	return patterns
}

func sentiment(words []string) Sentiment {
	pos, neg := 0, 0
	for _, w := range words {
		if positiveWords[w] {
			pos++
		}
		if negativeWords[w] {
			neg++
		}
	}
	switch {
	case pos > neg:
		return SentimentPositive
	case neg > pos:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func urgency(words []string) Urgency {
	switch {
	case containsAnyWord(words, urgentWords):
		return UrgencyHigh
	case containsAnyWord(words, mediumWords):
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// whitespaceTokens lower-cases and splits on whitespace, trimming edge
// punctuation so "tabla?" still counts as "tabla".
func whitespaceTokens(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, `.,;:!?¿¡"'()[]{}`)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// round2 removes float noise such as 0.30000000000000004.
func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
