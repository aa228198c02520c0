package censor

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// A single matched region. Offsets are byte offsets into Hit.Text, End is exclusive.
type Span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Word  string `json:"word"`
}

type Hit struct {
	Matched bool `json:"matched"`
	// de-duplicated banned terms which matched, in dictionary order
	Words []string `json:"words"`
	// every match, sorted by position. Matches for different terms may overlap.
	Spans []Span `json:"spans"`
	// the NFC-normalized input which Spans index into
	Text string `json:"-"`
}

type term struct {
	word string
	re   *regexp.Regexp
}

// Detects banned terms in free-form text, tolerating look-alike character substitution and separators inserted between letters.
//
// A Matcher is immutable after construction and safe for concurrent use.
type Matcher struct {
	terms     []term
	whitelist []*regexp.Regexp
}

// Compiles one expression per banned term. Whitelisted phrases are masked out of the text before any term is scanned for.
func NewMatcher(terms, whitelist []string) (*Matcher, error) {
	m := &Matcher{}
	seen := map[string]bool{}
	for _, raw := range terms {
		w := normalizeTerm(raw)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		re, err := compileTerm(w)
		if err != nil {
			return nil, fmt.Errorf("compiling banned term %q: %w", w, err)
		}
		m.terms = append(m.terms, term{word: w, re: re})
	}
	for _, raw := range whitelist {
		w := normalizeTerm(raw)
		if w == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(w))
		if err != nil {
			return nil, fmt.Errorf("compiling whitelist term %q: %w", w, err)
		}
		m.whitelist = append(m.whitelist, re)
	}
	return m, nil
}

func normalizeTerm(raw string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(raw)))
}

// Number of compiled banned terms.
func (m *Matcher) Len() int {
	return len(m.terms)
}

func (m *Matcher) Check(text string) Hit {
	censorChecks.Inc()
	normed := norm.NFC.String(text)
	hit := Hit{
		Words: []string{},
		Spans: []Span{},
		Text:  normed,
	}
	if normed == "" {
		return hit
	}

	masked := m.mask(normed)
	for _, t := range m.terms {
		spans := findTerm(t, masked)
		if len(spans) == 0 {
			continue
		}
		hit.Words = append(hit.Words, t.word)
		hit.Spans = append(hit.Spans, spans...)
		censorHits.WithLabelValues(t.word).Add(float64(len(spans)))
	}
	sort.SliceStable(hit.Spans, func(i, j int) bool {
		if hit.Spans[i].Start != hit.Spans[j].Start {
			return hit.Spans[i].Start < hit.Spans[j].Start
		}
		return hit.Spans[i].End < hit.Spans[j].End
	})
	hit.Matched = len(hit.Spans) > 0
	return hit
}

func (m *Matcher) ContainsBannedWords(text string) bool {
	return m.Check(text).Matched
}

// Replaces every matched span with 'replacement', and returns the filtered (NFC-normalized) text along with the de-duplicated matched terms.
//
// Overlapping spans are merged first, then replaced from the rightmost to the leftmost so earlier offsets remain valid.
func (m *Matcher) FilterText(text, replacement string) (string, []string) {
	hit := m.Check(text)
	if !hit.Matched {
		return hit.Text, hit.Words
	}
	merged := mergeSpans(hit.Spans)
	out := hit.Text
	for i := len(merged) - 1; i >= 0; i-- {
		sp := merged[i]
		out = out[:sp.Start] + replacement + out[sp.End:]
	}
	return out, hit.Words
}

// Replaces whitelisted occurrences with '_' byte-for-byte. Offsets stay aligned with the input, and the filler still counts as a word rune for boundary checks.
func (m *Matcher) mask(text string) string {
	if len(m.whitelist) == 0 {
		return text
	}
	buf := []byte(text)
	for _, re := range m.whitelist {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			for i := loc[0]; i < loc[1]; i++ {
				buf[i] = '_'
			}
		}
	}
	return string(buf)
}

func findTerm(t term, text string) []Span {
	var out []Span
	pos := 0
	for pos < len(text) {
		loc := t.re.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if end > start && atWordBoundary(text, start, end) {
			out = append(out, Span{Start: start, End: end, Word: t.word})
			pos = end
			continue
		}
		// rejected; retry from the next rune after the rejected start
		_, size := utf8.DecodeRuneInString(text[start:])
		if size == 0 {
			size = 1
		}
		pos = start + size
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// A match is disqualified when a word rune sits directly before or after it.
func atWordBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

// expects spans sorted by start
func mergeSpans(spans []Span) []Span {
	out := make([]Span, 0, len(spans))
	for _, sp := range spans {
		if n := len(out); n > 0 && sp.Start < out[n-1].End {
			if sp.End > out[n-1].End {
				out[n-1].End = sp.End
			}
			continue
		}
		out = append(out, sp)
	}
	return out
}
