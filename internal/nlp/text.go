package nlp

import (
	"regexp"
	"strings"
	"unicode"
)

// Go's \b is ASCII-only, which breaks on words like "mañana". These
// boundaries treat any Unicode letter, digit or underscore as a word rune.
const (
	wordStart = `(?:^|[^\p{L}\p{N}_])`
	wordEnd   = `(?:[^\p{L}\p{N}_]|$)`
)

// phrase compiles a case-insensitive matcher for a whole word or phrase.
// Inner spaces in the phrase match any run of whitespace.
func phrase(p string) *regexp.Regexp {
	parts := strings.Fields(p)
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.MustCompile(`(?i)` + wordStart + strings.Join(parts, `\s+`) + wordEnd)
}

// containsPhrase reports whether text contains p as a whole word or phrase.
func containsPhrase(text, p string) bool {
	return phrase(p).MatchString(text)
}

// containsAnyWord reports whether any token of text is in words.
func containsAnyWord(tokens []string, words map[string]bool) bool {
	for _, t := range tokens {
		if words[t] {
			return true
		}
	}
	return false
}

// wordTokens splits lower-cased text into letter/digit runs, dropping
// punctuation.
func wordTokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// appendUnique appends v to list unless it is already present.
func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func firstN(list []string, n int) []string {
	if len(list) == 0 {
		return nil
	}
	if len(list) > n {
		list = list[:n]
	}
	return append([]string(nil), list...)
}

// stopWords are function words ignored as entities and keywords.
var stopWords = set(
	"una", "un", "el", "la", "de", "en", "con", "para", "por", "sobre",
	"esta", "este", "esa", "ese", "todas", "todos", "que", "donde",
	"como", "cuando", "cual", "cuales", "quien", "quienes",
	"los", "las", "del", "al", "mis", "mi", "tu", "sus",
	"the", "and", "for", "with", "from", "that", "this", "all",
)
