package resource

import "strings"

// SplitKeywords splits a comma-joined keyword string into trimmed tags.
// Empty segments are dropped. Tags that differ only in case are kept: they are
// distinct for display and only merged when counted.
func SplitKeywords(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		tags = append(tags, p)
	}
	return tags
}

// JoinKeywords is the inverse of SplitKeywords, used when writing records.
func JoinKeywords(tags []string) string {
	return strings.Join(SplitKeywords(strings.Join(tags, ",")), ", ")
}
