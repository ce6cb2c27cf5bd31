// Package category models facet values computed from a sample of resources.
package category

import (
	"strings"
	"unicode"
)

// Kind is the facet a category belongs to.
type Kind string

// Facet kinds with a browsable page.
const (
	KindTheme    Kind = "theme"
	KindTag      Kind = "tag"
	KindType     Kind = "type"
	KindLocation Kind = "location"
)

// Category is a facet value with its occurrence count. Never persisted.
type Category struct {
	name  string
	count int
	kind  Kind
	slug  string
}

// New creates a Category and derives its slug.
func New(name string, count int, kind Kind) Category {
	return Category{name: name, count: count, kind: kind, slug: Slugify(name)}
}

// Name returns the display name.
func (c Category) Name() string { return c.name }

// Count returns the number of occurrences in the sample.
func (c Category) Count() int { return c.count }

// Kind returns the facet kind.
func (c Category) Kind() Kind { return c.kind }

// Slug returns the URL-safe form of the name.
func (c Category) Slug() string { return c.slug }

// Link returns the browse path, e.g. /themes/solitary-confinement.
func (c Category) Link() string {
	if c.slug == "" {
		return ""
	}
	return "/" + string(c.kind) + "s/" + c.slug
}

// Slugify lowercases s and collapses every run of non-alphanumerics into one hyphen.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
