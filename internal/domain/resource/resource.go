// Package resource holds the portal's single domain entity.
package resource

import (
	"strings"
	"time"
)

// Display fallbacks.
const (
	DefaultType  = "Resource"
	DefaultTheme = "General"
)

// Status is the moderation state of a resource.
type Status string

// Status values.
const (
	StatusPublished     Status = "published"
	StatusPendingReview Status = "pending_review"
)

// IsValid checks if the status is one of the supported values.
func (s Status) IsValid() bool {
	return s == StatusPublished || s == StatusPendingReview
}

// Resource is a report, article, judgment, video or podcast surfaced by the portal.
// Resources are read-only apart from contribution intake and the image URL patch.
type Resource struct {
	ID string
	// SyntheticID is set when the store returned no identifier and ID holds the title.
	// Two resources sharing a title collide under such an ID.
	SyntheticID bool

	Title    string
	Summary  string
	Type     string
	Theme    string
	Tags     []string
	Source   string
	Platform string
	Author   string
	Location string

	PublicationDate      time.Time
	LinkToOriginalSource string
	ImageURL             string
	Status               Status
}

// DisplayTheme returns the theme, or "General" for theme-less resources.
func (r *Resource) DisplayTheme() string {
	if strings.TrimSpace(r.Theme) == "" {
		return DefaultTheme
	}
	return r.Theme
}

// DisplayType returns the type, or the generic label when unset.
func (r *Resource) DisplayType() string {
	if strings.TrimSpace(r.Type) == "" {
		return DefaultType
	}
	return r.Type
}

// Attribution returns the first non-empty of source, platform and author.
func (r *Resource) Attribution() string {
	for _, s := range []string{r.Source, r.Platform, r.Author} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// HasImage reports whether an image URL is set.
func (r *Resource) HasImage() bool { return r.ImageURL != "" }
