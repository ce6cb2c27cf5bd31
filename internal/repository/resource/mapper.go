package resource

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kailas-cloud/reformhub/internal/db/weaviate"
	domres "github.com/kailas-cloud/reformhub/internal/domain/resource"
)

// path is a sequence of keys into a nested record.
type path []string

func (p path) String() string { return strings.Join(p, ".") }

// accessors lists, per field, the paths tried in priority order: every
// top-level alias first, then the same aliases under "properties".
func accessors(aliases ...string) []path {
	out := make([]path, 0, len(aliases)*2)
	for _, a := range aliases {
		out = append(out, path{a})
	}
	for _, a := range aliases {
		out = append(out, path{"properties", a})
	}
	return out
}

var (
	idPaths       = []path{{"id"}, {"_additional", "id"}}
	titlePaths    = accessors(domres.PropTitle, "name", "headline")
	summaryPaths  = accessors(domres.PropSummary, "description", "abstract")
	typePaths     = accessors(domres.PropSourceType, "type", "resourceType")
	themePaths    = accessors(domres.PropTheme, "category")
	keywordPaths  = accessors(domres.PropKeywords, "tags")
	sourcePaths   = accessors(domres.PropSource, "publisher")
	platformPaths = accessors(domres.PropPlatform)
	authorPaths   = accessors(domres.PropAuthor, "authors", "creator")
	locationPaths = accessors(domres.PropLocation, "country", "region")
	datePaths     = accessors(domres.PropPublicationDate, "publishedAt", "date")
	linkPaths     = accessors(
		domres.PropLinkToOriginalSource, "link", "url", "sourceUrl", "originalUrl", "externalLink",
	)
	imagePaths  = accessors(domres.PropImageURL, "imageURL", "image", "ogImage", "thumbnail")
	statusPaths = accessors(domres.PropStatus)
)

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "2006"}

// Mapper converts raw store records into resources.
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a Mapper; now supplies the date for undated records (nil means time.Now).
func NewMapper(now func() time.Time) Mapper {
	if now == nil {
		now = time.Now
	}
	return Mapper{now: now}
}

// Map normalizes one record. It never fails: missing fields take their zero
// or display defaults and invalid links are dropped.
func (m Mapper) Map(rec weaviate.Record) domres.Resource {
	f := rec.Fields
	r := domres.Resource{
		Title:    text(f, titlePaths),
		Summary:  text(f, summaryPaths),
		Type:     text(f, typePaths),
		Theme:    text(f, themePaths),
		Tags:     keywords(f, keywordPaths),
		Source:   text(f, sourcePaths),
		Platform: text(f, platformPaths),
		Author:   text(f, authorPaths),
		Location: text(f, locationPaths),

		LinkToOriginalSource: firstValid(f, linkPaths, absoluteURL),
		ImageURL:             firstValid(f, imagePaths, absoluteURL),
		Status:               domres.Status(text(f, statusPaths)),
	}
	if r.Type == "" {
		r.Type = domres.DefaultType
	}
	if !r.Status.IsValid() {
		r.Status = domres.StatusPublished
	}

	if d, ok := date(f, datePaths); ok {
		r.PublicationDate = d
	} else {
		now := m.now().UTC()
		r.PublicationDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	r.ID = rec.ID
	if r.ID == "" {
		r.ID = text(f, idPaths)
	}
	if r.ID == "" && r.Title != "" {
		// Known limitation: resources sharing a title collide under this ID.
		r.ID = r.Title
		r.SyntheticID = true
	}
	return r
}

// lookup returns the first present, non-blank value along paths.
func lookup(fields map[string]any, paths []path) (any, bool) {
	for _, p := range paths {
		if v, ok := present(fields, p); ok {
			return v, true
		}
	}
	return nil, false
}

func present(fields map[string]any, p path) (any, bool) {
	v, ok := walk(fields, p)
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func walk(fields map[string]any, p path) (any, bool) {
	var cur any = fields
	for _, key := range p {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// text coerces the first value found to a trimmed string.
func text(fields map[string]any, paths []path) string {
	v, ok := lookup(fields, paths)
	if !ok {
		return ""
	}
	return textOf(v)
}

// firstValid tries every path in order and returns the first value that
// survives normalize; values normalize rejects ("") are skipped.
func firstValid(fields map[string]any, paths []path, normalize func(string) string) string {
	for _, p := range paths {
		v, ok := present(fields, p)
		if !ok {
			continue
		}
		if s := normalize(textOf(v)); s != "" {
			return s
		}
	}
	return ""
}

// textOf renders a scalar as trimmed text. Arrays are joined with ", ".
func textOf(v any) string {
	if list, isList := v.([]any); isList {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if s := strings.TrimSpace(stringify(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return strings.TrimSpace(stringify(v))
}

// keywords accepts a comma-joined string, an array, or any scalar coerced to text.
func keywords(fields map[string]any, paths []path) []string {
	v, ok := lookup(fields, paths)
	if !ok {
		return nil
	}
	if list, isList := v.([]any); isList {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, stringify(item))
		}
		return domres.SplitKeywords(strings.Join(parts, ","))
	}
	return domres.SplitKeywords(stringify(v))
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case float64:
		// JSON numbers decode as float64; integers should not print as 2.02e+03.
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
	}
	return fmt.Sprint(v)
}

// date returns the first value along paths that parses as a date.
func date(fields map[string]any, paths []path) (time.Time, bool) {
	for _, p := range paths {
		v, ok := present(fields, p)
		if !ok {
			continue
		}
		if t, ok := parseDate(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDate(v any) (time.Time, bool) {
	if t, isTime := v.(time.Time); isTime {
		return t, !t.IsZero()
	}
	s := strings.TrimSpace(stringify(v))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// absoluteURL returns raw if it is an absolute http(s) URL with a host, else "".
func absoluteURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return raw
}

// toProperties is the inverse of Map for records this service writes.
func toProperties(r domres.Resource) map[string]any {
	props := map[string]any{
		domres.PropTitle:           r.Title,
		domres.PropSummary:         r.Summary,
		domres.PropSourceType:      r.Type,
		domres.PropTheme:           r.Theme,
		domres.PropKeywords:        domres.JoinKeywords(r.Tags),
		domres.PropSource:          r.Source,
		domres.PropPlatform:        r.Platform,
		domres.PropAuthor:          r.Author,
		domres.PropLocation:        r.Location,
		domres.PropStatus:          string(r.Status),
		domres.PropPublicationDate: r.PublicationDate.UTC().Format(time.RFC3339),
	}
	if r.LinkToOriginalSource != "" {
		props[domres.PropLinkToOriginalSource] = r.LinkToOriginalSource
	}
	if r.ImageURL != "" {
		props[domres.PropImageURL] = r.ImageURL
	}
	return props
}
