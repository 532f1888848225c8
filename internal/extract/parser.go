package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// parseError signals that the model output contained no usable diagnosis
// list. Surfaced to the caller, never silently swallowed.
type parseError struct{ msg string }

func (e parseError) Error() string { return e.msg }

// ErrParse constructs a parseError.
func ErrParse(msg string) error { return parseError{msg: msg} }

// IsParse reports whether err indicates unusable model output.
func IsParse(err error) bool {
	_, ok := err.(parseError)
	return ok
}

// listMarker matches bullet and numbered-list prefixes ("- ", "* ", "1. ",
// "(2) "). Digits require trailing punctuation so names like "22q11
// deletion syndrome" keep their leading digits.
var listMarker = regexp.MustCompile(`^\s*(?:[-*•·]+\s*|\(?\d{1,3}[.)]\s*)`)

// trimCutset removes wrapping quotes/brackets the model sometimes emits
// around individual entries.
const trimCutset = " \t\"'[]{}()"

// leadIns are first words of prose the model wraps around the list
// ("The diagnoses include:", "Here is the list"). Observed in prior work
// with clinical notes; needs revisiting against a labeled dataset.
var leadIns = map[string]bool{
	"diagnosis": true, "diagnoses": true,
	"assessment": true, "assess": true,
	"the": true, "these": true, "this": true,
	"include": true, "includes": true, "including": true,
	"following": true, "answer": true, "here": true,
	"possible": true, "based": true, "note": true,
	"patient": true, "provide": true,
}

// ParseDiagnoses extracts an ordered list of diagnosis names from raw
// model output. Lines and list markers split first, then commas and
// semicolons within a line. Entries are trimmed, structural noise and
// prose lead-ins are dropped, and duplicates are removed
// case-insensitively preserving first appearance. Returns a parseError
// when nothing extractable remains.
func ParseDiagnoses(raw string) ([]string, error) {
	out := collectDiagnoses(raw)
	if len(out) == 0 {
		// Handles outputs shaped like "Extracted list: pneumonia, diabetes"
		// where the whole text was swallowed by the lead-in filter.
		if i := strings.Index(raw, ":"); i >= 0 {
			out = collectDiagnoses(raw[i+1:])
		}
	}
	if len(out) == 0 {
		return nil, ErrParse("no diagnoses found in model output")
	}
	return out, nil
}

func collectDiagnoses(raw string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, line := range strings.Split(raw, "\n") {
		// Cut a prose prefix before a colon ("The patient has:", "Diagnoses:").
		if i := strings.Index(line, ":"); i >= 0 && isLeadIn(line[:i]) {
			line = line[i+1:]
		}
		for _, seg := range splitInline(line) {
			d := cleanSegment(seg)
			if d == "" {
				continue
			}
			key := strings.ToLower(d)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}

func splitInline(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ';'
	})
}

func cleanSegment(seg string) string {
	s := listMarker.ReplaceAllString(strings.TrimSpace(seg), "")
	s = strings.Trim(s, trimCutset+".")
	s = strings.TrimSpace(s)
	if s == "" || isStructural(s) {
		return ""
	}
	words := strings.Fields(strings.ToLower(s))
	if len(words) > 0 && leadIns[words[0]] {
		return ""
	}
	return s
}

// isLeadIn reports whether the text before a colon is wrapper prose
// rather than part of a diagnosis name.
func isLeadIn(prefix string) bool {
	words := strings.Fields(strings.ToLower(strings.Trim(prefix, trimCutset)))
	if len(words) == 0 {
		return true
	}
	if leadIns[words[0]] {
		return true
	}
	return strings.Contains(strings.ToLower(prefix), "diagnos")
}

// isStructural reports whether a segment is a bare number or marker with
// no text, e.g. "2" or "--".
func isStructural(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
