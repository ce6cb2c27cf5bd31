// Package facet holds the user-selected filter values of a search.
package facet

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/reformhub/internal/domain/search/filter"
)

// MaxValuesPerField bounds how many values one facet may carry.
const MaxValuesPerField = 16

// Field is a filterable dimension.
type Field string

// Facet fields.
const (
	Type     Field = "type"
	Theme    Field = "theme"
	Source   Field = "source"
	Author   Field = "author"
	Location Field = "location"
)

// Fields lists the text facets in the order they are combined into a query.
var Fields = []Field{Type, Theme, Source, Author, Location}

// DateRange is an inclusive publication date range; either bound may be nil.
type DateRange struct {
	from *time.Time
	to   *time.Time
}

// NewDateRange validates a range. Supplying one bound yields a one-sided range.
func NewDateRange(from, to *time.Time) (DateRange, error) {
	if from != nil && to != nil && to.Before(*from) {
		return DateRange{}, fmt.Errorf("date range end %s is before start %s",
			to.Format(time.DateOnly), from.Format(time.DateOnly))
	}
	return DateRange{from: from, to: to}, nil
}

// From returns the inclusive lower bound.
func (d DateRange) From() *time.Time { return d.from }

// To returns the inclusive upper bound.
func (d DateRange) To() *time.Time { return d.to }

// IsEmpty reports whether neither bound is set.
func (d DateRange) IsEmpty() bool { return d.from == nil && d.to == nil }

// Set is a validated collection of facet filters.
type Set struct {
	values    map[Field][]string
	dateRange DateRange
}

// NewSet trims, de-duplicates and validates facet values.
func NewSet(values map[Field][]string, dr DateRange) (Set, error) {
	clean := make(map[Field][]string, len(values))
	for f, vs := range values {
		if !f.IsValid() {
			return Set{}, fmt.Errorf("unknown facet %q", f)
		}
		vs = normalize(vs)
		if len(vs) == 0 {
			continue
		}
		if len(vs) > MaxValuesPerField {
			return Set{}, fmt.Errorf("too many %s values (max %d)", f, MaxValuesPerField)
		}
		clean[f] = vs
	}
	return Set{values: clean, dateRange: dr}, nil
}

// Values returns the values for a field.
func (s Set) Values(f Field) []string { return s.values[f] }

// DateRange returns the date range filter.
func (s Set) DateRange() DateRange { return s.dateRange }

// IsEmpty reports whether no facet filter is set.
func (s Set) IsEmpty() bool {
	return len(s.values) == 0 && s.dateRange.IsEmpty()
}

// IsValid checks if the field is a known facet.
func (f Field) IsValid() bool {
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

func normalize(vs []string) []string {
	out := make([]string, 0, len(vs))
	seen := make(map[string]struct{}, len(vs))
	for _, v := range vs {
		v = strings.TrimSpace(filter.StripWildcards(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
