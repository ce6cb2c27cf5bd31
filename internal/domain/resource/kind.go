package resource

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Canonical resource types offered as filters.
const (
	TypeReport   = "report"
	TypeArticle  = "article"
	TypeJudgment = "judgment"
	TypeVideo    = "video"
	TypePodcast  = "podcast"
)

// typeSynonyms maps a canonical type filter to the raw sourceType fragments it matches.
var typeSynonyms = map[string][]string{
	TypeReport:   {"report"},
	TypeArticle:  {"article", "news", "blog"},
	TypeJudgment: {"judgment", "judgement", "court", "case"},
	TypeVideo:    {"video", "documentary", "film"},
	TypePodcast:  {"podcast", "audio", "episode"},
}

// KnownType reports whether t (any case) has a synonym table entry.
func KnownType(t string) bool {
	_, ok := typeSynonyms[strings.ToLower(strings.TrimSpace(t))]
	return ok
}

// TypeVariants returns the literal fragments a type filter expands to.
// Known types expand through the synonym table in lower, capitalized and upper
// case. Unknown types fall back to the raw string and its upper/lower forms.
func TypeVariants(t string) []string {
	t = strings.TrimSpace(t)
	if t == "" {
		return nil
	}
	syns, ok := typeSynonyms[strings.ToLower(t)]
	if !ok {
		return dedupe([]string{t, strings.ToUpper(t), strings.ToLower(t)})
	}
	out := make([]string, 0, len(syns)*3)
	for _, s := range syns {
		out = append(out, s, capitalize(s), strings.ToUpper(s))
	}
	return dedupe(out)
}

// MatchesType reports whether a raw sourceType satisfies a type filter,
// using the same expansion the store query uses.
func MatchesType(filterType, rawType string) bool {
	for _, v := range TypeVariants(filterType) {
		if strings.Contains(rawType, v) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
