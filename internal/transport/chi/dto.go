package chi

import (
	"time"

	"github.com/kailas-cloud/reformhub/internal/domain/category"
	"github.com/kailas-cloud/reformhub/internal/domain/resource"
	"github.com/kailas-cloud/reformhub/internal/domain/search/result"
	"github.com/kailas-cloud/reformhub/internal/usecase/facets"
)

// ResourceResponse is the JSON shape of a resource.
type ResourceResponse struct {
	ID                   string   `json:"id"`
	SyntheticID          bool     `json:"synthetic_id,omitempty"`
	Title                string   `json:"title"`
	Summary              string   `json:"summary"`
	Type                 string   `json:"type"`
	Theme                string   `json:"theme"`
	Tags                 []string `json:"tags"`
	Source               string   `json:"source,omitempty"`
	Platform             string   `json:"platform,omitempty"`
	Author               string   `json:"author,omitempty"`
	Attribution          string   `json:"attribution,omitempty"`
	Location             string   `json:"location,omitempty"`
	PublicationDate      string   `json:"publication_date"`
	LinkToOriginalSource string   `json:"link_to_original_source,omitempty"`
	ImageURL             string   `json:"image_url,omitempty"`
	Status               string   `json:"status,omitempty"`
	Score                *float64 `json:"score,omitempty"`
}

// CategoryResponse is the JSON shape of a facet value.
type CategoryResponse struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Slug  string `json:"slug"`
	Link  string `json:"link,omitempty"`
}

// SearchFacets are the facet lists computed from a result set.
type SearchFacets struct {
	Tags   []CategoryResponse `json:"tags"`
	Themes []CategoryResponse `json:"themes"`
	Types  []string           `json:"types"`
}

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Results  []ResourceResponse `json:"results"`
	Count    int                `json:"count"`
	Facets   SearchFacets       `json:"facets"`
	Strategy string             `json:"strategy"`
	Degraded bool               `json:"degraded"`
}

// CatalogResponse is the body of GET /api/facets.
type CatalogResponse struct {
	Themes    []CategoryResponse `json:"themes"`
	Tags      []CategoryResponse `json:"tags"`
	Types     []CategoryResponse `json:"types"`
	Locations []CategoryResponse `json:"locations"`
}

// RelatedResponse is the body of GET /api/resources/{id}/related.
type RelatedResponse struct {
	Results []ResourceResponse `json:"results"`
	Count   int                `json:"count"`
}

// ImageUploadRequest is the body of POST /api/resources/{id}/image.
type ImageUploadRequest struct {
	URL string `json:"url"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func resourceToResponse(r *resource.Resource) ResourceResponse {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	resp := ResourceResponse{
		ID:                   r.ID,
		SyntheticID:          r.SyntheticID,
		Title:                r.Title,
		Summary:              r.Summary,
		Type:                 r.DisplayType(),
		Theme:                r.DisplayTheme(),
		Tags:                 tags,
		Source:               r.Source,
		Platform:             r.Platform,
		Author:               r.Author,
		Attribution:          r.Attribution(),
		Location:             r.Location,
		LinkToOriginalSource: r.LinkToOriginalSource,
		ImageURL:             r.ImageURL,
		Status:               string(r.Status),
	}
	if !r.PublicationDate.IsZero() {
		resp.PublicationDate = r.PublicationDate.Format(time.DateOnly)
	}
	return resp
}

func resultsToResponse(rs []result.Result) []ResourceResponse {
	out := make([]ResourceResponse, len(rs))
	for i := range rs {
		r := rs[i].Resource()
		out[i] = resourceToResponse(&r)
		if rs[i].HasScore() {
			score := rs[i].Score()
			out[i].Score = &score
		}
	}
	return out
}

func resourcesToResponse(rs []resource.Resource) []ResourceResponse {
	out := make([]ResourceResponse, len(rs))
	for i := range rs {
		out[i] = resourceToResponse(&rs[i])
	}
	return out
}

func categoriesToResponse(cs []category.Category) []CategoryResponse {
	out := make([]CategoryResponse, len(cs))
	for i, c := range cs {
		out[i] = CategoryResponse{Name: c.Name(), Count: c.Count(), Slug: c.Slug(), Link: c.Link()}
	}
	return out
}

func catalogToResponse(c *facets.Catalog) CatalogResponse {
	return CatalogResponse{
		Themes:    categoriesToResponse(c.Themes),
		Tags:      categoriesToResponse(c.Tags),
		Types:     categoriesToResponse(c.Types),
		Locations: categoriesToResponse(c.Locations),
	}
}
