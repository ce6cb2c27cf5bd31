package facets

import "github.com/kailas-cloud/reformhub/internal/domain/category"

// categoryDTO is the cached form of a category; kind is implied by the list it sits in.
type categoryDTO struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type catalogDTO struct {
	Themes    []categoryDTO `json:"themes"`
	Tags      []categoryDTO `json:"tags"`
	Types     []categoryDTO `json:"types"`
	Locations []categoryDTO `json:"locations"`
}

func fromDomain(c Catalog) catalogDTO {
	return catalogDTO{
		Themes:    toDTOs(c.Themes),
		Tags:      toDTOs(c.Tags),
		Types:     toDTOs(c.Types),
		Locations: toDTOs(c.Locations),
	}
}

func (d catalogDTO) toDomain() Catalog {
	return Catalog{
		Themes:    fromDTOs(d.Themes, category.KindTheme),
		Tags:      fromDTOs(d.Tags, category.KindTag),
		Types:     fromDTOs(d.Types, category.KindType),
		Locations: fromDTOs(d.Locations, category.KindLocation),
	}
}

func toDTOs(cs []category.Category) []categoryDTO {
	out := make([]categoryDTO, len(cs))
	for i, c := range cs {
		out[i] = categoryDTO{Name: c.Name(), Count: c.Count()}
	}
	return out
}

func fromDTOs(ds []categoryDTO, kind category.Kind) []category.Category {
	out := make([]category.Category, len(ds))
	for i, d := range ds {
		out[i] = category.New(d.Name, d.Count, kind)
	}
	return out
}
