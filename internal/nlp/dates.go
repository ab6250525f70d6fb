package nlp

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const isoLayout = "2006-01-02"

type relativeWord struct {
	text   string
	re     *regexp.Regexp
	dir    RelativeType
	unit   RelativeUnit
	amount int
}

func rel(text string, dir RelativeType, unit RelativeUnit, amount int) relativeWord {
	return relativeWord{text: text, re: phrase(text), dir: dir, unit: unit, amount: amount}
}

// Checked in order; the first phrase found wins.
var relativeWords = []relativeWord{
	rel("hoy", RelativeFuture, UnitDays, 0),
	rel("mañana", RelativeFuture, UnitDays, 1),
	rel("ayer", RelativePast, UnitDays, 1),
	rel("próxima semana", RelativeFuture, UnitWeeks, 1),
	rel("semana pasada", RelativePast, UnitWeeks, 1),
	rel("próximo mes", RelativeFuture, UnitMonths, 1),
	rel("mes pasado", RelativePast, UnitMonths, 1),
	rel("today", RelativeFuture, UnitDays, 0),
	rel("tomorrow", RelativeFuture, UnitDays, 1),
	rel("yesterday", RelativePast, UnitDays, 1),
	rel("next week", RelativeFuture, UnitWeeks, 1),
	rel("last week", RelativePast, UnitWeeks, 1),
	rel("next month", RelativeFuture, UnitMonths, 1),
	rel("last month", RelativePast, UnitMonths, 1),
}

var (
	inDaysRe   = regexp.MustCompile(`(?i)` + wordStart + `((?:en|in)\s+(\d+)\s+(?:días?|dias?|days?))` + wordEnd)
	daysAgoRe  = regexp.MustCompile(`(?i)` + wordStart + `(hace\s+(\d+)\s+(?:días?|dias?))` + wordEnd)
	daysAgoEn  = regexp.MustCompile(`(?i)` + wordStart + `((\d+)\s+days?\s+ago)` + wordEnd)
	isoDateRe  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	slashDate  = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	dashDateRe = regexp.MustCompile(`(\d{1,2})-(\d{1,2})-(\d{4})`)
)

// DateProcessor turns Spanish and English date expressions into ISO dates.
type DateProcessor struct {
	now func() time.Time
}

// DateOption configures a DateProcessor.
type DateOption func(*DateProcessor)

// WithClock overrides the time source used for relative dates.
func WithClock(now func() time.Time) DateOption {
	return func(p *DateProcessor) { p.now = now }
}

// NewDateProcessor returns a processor using the wall clock unless
// overridden.
func NewDateProcessor(opts ...DateOption) *DateProcessor {
	p := &DateProcessor{now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessDateReference recognizes the first date expression in text.
// Relative phrases beat day counts, which beat absolute dates.
func (p *DateProcessor) ProcessDateReference(text string) DateProcessingResult {
	today := p.now()

	for _, w := range relativeWords {
		if !w.re.MatchString(text) {
			continue
		}
		n := w.amount
		if w.dir == RelativePast {
			n = -n
		}
		return DateProcessingResult{
			OriginalText:  w.text,
			ProcessedDate: shift(today, w.unit, n).Format(isoLayout),
			Confidence:    0.9,
			Format:        DateFormatRelative,
			RelativeType:  w.dir,
			RelativeValue: w.amount,
			RelativeUnit:  w.unit,
		}
	}

	if m := inDaysRe.FindStringSubmatch(text); m != nil {
		return dayCount(today, m[1], m[2], RelativeFuture)
	}
	if m := daysAgoRe.FindStringSubmatch(text); m != nil {
		return dayCount(today, m[1], m[2], RelativePast)
	}
	if m := daysAgoEn.FindStringSubmatch(text); m != nil {
		return dayCount(today, m[1], m[2], RelativePast)
	}

	if m := isoDateRe.FindString(text); m != "" && validDate(m) {
		return DateProcessingResult{OriginalText: m, ProcessedDate: m, Confidence: 1.0, Format: DateFormatAbsolute}
	}
	for _, re := range []*regexp.Regexp{slashDate, dashDateRe} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		iso := fmt.Sprintf("%s-%02d-%02d", m[3], month, day)
		if validDate(iso) {
			return DateProcessingResult{OriginalText: m[0], ProcessedDate: iso, Confidence: 0.9, Format: DateFormatAbsolute}
		}
	}

	return DateProcessingResult{OriginalText: text, Confidence: 0.0, Format: DateFormatInvalid}
}

func dayCount(today time.Time, original, digits string, dir RelativeType) DateProcessingResult {
	days, err := strconv.Atoi(digits)
	if err != nil {
		return DateProcessingResult{OriginalText: original, Format: DateFormatInvalid}
	}
	n := days
	if dir == RelativePast {
		n = -n
	}
	return DateProcessingResult{
		OriginalText:  original,
		ProcessedDate: today.AddDate(0, 0, n).Format(isoLayout),
		Confidence:    0.8,
		Format:        DateFormatRelative,
		RelativeType:  dir,
		RelativeValue: days,
		RelativeUnit:  UnitDays,
	}
}

// shift moves t by n units. Month and year shifts clamp the day to the
// length of the target month, so Jan 31 plus one month is Feb 28 or 29.
func shift(t time.Time, unit RelativeUnit, n int) time.Time {
	switch unit {
	case UnitWeeks:
		return t.AddDate(0, 0, 7*n)
	case UnitMonths:
		return addMonths(t, n)
	case UnitYears:
		return addMonths(t, 12*n)
	default:
		return t.AddDate(0, 0, n)
	}
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func validDate(s string) bool {
	_, err := time.Parse(isoLayout, s)
	return err == nil
}

// ProcessFieldDate returns the ISO date for a field value when the
// recognition confidence is above 0.5.
func (p *DateProcessor) ProcessFieldDate(text, _ string) (string, bool) {
	r := p.ProcessDateReference(text)
	if r.Confidence > 0.5 && r.ProcessedDate != "" {
		return r.ProcessedDate, true
	}
	return "", false
}

// ContainsDateReference reports whether text holds any recognizable date.
func (p *DateProcessor) ContainsDateReference(text string) bool {
	return len(p.ExtractDateReferences(text)) > 0
}

// ExtractDateReferences lists every date expression in text, deduplicated
// in order of pattern precedence.
func (p *DateProcessor) ExtractDateReferences(text string) []string {
	var refs []string
	for _, w := range relativeWords {
		if w.re.MatchString(text) {
			refs = appendUnique(refs, w.text)
		}
	}
	for _, re := range []*regexp.Regexp{inDaysRe, daysAgoRe, daysAgoEn} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			refs = appendUnique(refs, m[1])
		}
	}
	for _, re := range []*regexp.Regexp{isoDateRe, slashDate, dashDateRe} {
		for _, m := range re.FindAllString(text, -1) {
			refs = appendUnique(refs, m)
		}
	}
	return refs
}

// Today returns the current date in ISO form.
func (p *DateProcessor) Today() string { return p.now().Format(isoLayout) }

// Tomorrow returns tomorrow's date in ISO form.
func (p *DateProcessor) Tomorrow() string { return p.now().AddDate(0, 0, 1).Format(isoLayout) }

// Yesterday returns yesterday's date in ISO form.
func (p *DateProcessor) Yesterday() string { return p.now().AddDate(0, 0, -1).Format(isoLayout) }
