package contribution

import (
	"html"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/kailas-cloud/reformhub/internal/domain"
)

// Field limits in runes.
const (
	MaxTitle   = 300
	MaxSummary = 5000
	MaxShort   = 200
)

// Input is a visitor-submitted resource.
type Input struct {
	Title           string `json:"title"`
	Summary         string `json:"summary"`
	Type            string `json:"type"`
	Theme           string `json:"theme"`
	Keywords        string `json:"keywords"`
	Source          string `json:"source"`
	Author          string `json:"author"`
	Location        string `json:"location"`
	PublicationDate string `json:"publicationDate"`
	Link            string `json:"link"`
	ImageURL        string `json:"imageUrl"`
}

var strict = bluemonday.StrictPolicy()

// maxSanitizePasses bounds the decode and strip loops in plain.
const maxSanitizePasses = 4

// plain strips all markup and returns trimmed text. Entity-encoded markup is
// decoded and stripped again until a pass changes nothing, so the result
// holds no tags the policy would remove. Input that keeps changing is
// returned in its escaped form.
func plain(s string) string {
	cur := decode(s)
	for range maxSanitizePasses {
		next := decode(strict.Sanitize(cur))
		if next == cur {
			return strings.TrimSpace(cur)
		}
		cur = next
	}
	return strings.TrimSpace(strict.Sanitize(cur))
}

// decode unescapes entities until none are left, so double-encoded markup is exposed.
func decode(s string) string {
	for range maxSanitizePasses {
		next := html.UnescapeString(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

// sanitize returns a copy with every field stripped of markup.
func (in Input) sanitize() Input {
	return Input{
		Title:           plain(in.Title),
		Summary:         plain(in.Summary),
		Type:            plain(in.Type),
		Theme:           plain(in.Theme),
		Keywords:        plain(in.Keywords),
		Source:          plain(in.Source),
		Author:          plain(in.Author),
		Location:        plain(in.Location),
		PublicationDate: strings.TrimSpace(in.PublicationDate),
		Link:            strings.TrimSpace(in.Link),
		ImageURL:        strings.TrimSpace(in.ImageURL),
	}
}

func (in Input) validate() error {
	if in.Title == "" {
		return domain.NewFieldError("title", "is required")
	}
	if utf8.RuneCountInString(in.Title) > MaxTitle {
		return domain.NewFieldError("title", "is too long")
	}
	if utf8.RuneCountInString(in.Summary) > MaxSummary {
		return domain.NewFieldError("summary", "is too long")
	}
	for name, v := range map[string]string{
		"type": in.Type, "theme": in.Theme, "source": in.Source,
		"author": in.Author, "location": in.Location,
	} {
		if utf8.RuneCountInString(v) > MaxShort {
			return domain.NewFieldError(name, "is too long")
		}
	}
	if in.Link != "" && !absolute(in.Link) {
		return domain.NewFieldError("link", "must be an absolute http or https URL")
	}
	if in.ImageURL != "" && !absolute(in.ImageURL) {
		return domain.NewFieldError("imageUrl", "must be an absolute http or https URL")
	}
	if in.PublicationDate != "" {
		if _, ok := parseDate(in.PublicationDate); !ok {
			return domain.NewFieldError("publicationDate", "must be YYYY-MM-DD or RFC 3339")
		}
	}
	return nil
}

func absolute(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ID derives the stable identifier of a contribution: a UUIDv5 over the
// normalized link, or over the title when no link is given.
func ID(link, title string) string {
	name := "title:" + strings.ToLower(strings.Join(strings.Fields(title), " "))
	if n := normalizeLink(link); n != "" {
		name = n
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// normalizeLink lowercases scheme and host, drops the fragment and trailing slash.
func normalizeLink(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String()
}
