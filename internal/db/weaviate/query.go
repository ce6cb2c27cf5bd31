package weaviate

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/kailas-cloud/reformhub/internal/db"
	"github.com/kailas-cloud/reformhub/internal/domain"
	"github.com/kailas-cloud/reformhub/internal/domain/search/plan"
)

// Record is one raw object as the store returned it. Property names and
// nesting vary between ingestion pipelines; callers map it once.
type Record struct {
	ID     string
	Score  float64
	Scored bool
	Fields map[string]any
}

// Query runs a plan against class, projecting properties.
func (c *Client) Query(ctx context.Context, class string, p plan.Plan, properties []string) ([]Record, error) {
	fields := make([]graphql.Field, 0, len(properties)+1)
	for _, prop := range properties {
		fields = append(fields, graphql.Field{Name: prop})
	}
	additional := []graphql.Field{{Name: "id"}}
	if p.IsRanked() {
		additional = append(additional, graphql.Field{Name: "score"})
	}
	fields = append(fields, graphql.Field{Name: "_additional", Fields: additional})

	get := c.client.GraphQL().Get().
		WithClassName(class).
		WithFields(fields...).
		WithLimit(p.Limit)

	switch p.Strategy {
	case plan.Filtered:
		where, err := Where(p.Where)
		if err != nil {
			return nil, &db.Error{Op: OpQuery, Err: fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)}
		}
		get = get.WithWhere(where)
	case plan.BM25:
		get = get.WithBM25(c.client.GraphQL().Bm25ArgBuilder().
			WithQuery(p.Query).
			WithProperties(p.Properties...))
	case plan.Hybrid:
		hybrid := c.client.GraphQL().HybridArgumentBuilder().
			WithQuery(p.Query).
			WithProperties(p.Properties)
		if len(p.Vector) > 0 {
			hybrid = hybrid.WithVector(p.Vector)
		}
		get = get.WithHybrid(hybrid)
	}

	resp, err := get.Do(ctx)
	if err != nil {
		return nil, wrap(OpQuery, err)
	}
	return decodeGet(resp, class)
}

// decodeGet unpacks data.Get.<class>[] from a GraphQL response.
func decodeGet(resp *models.GraphQLResponse, class string) ([]Record, error) {
	if len(resp.Errors) > 0 {
		return nil, &db.Error{Op: OpQuery, Err: fmt.Errorf("%w: %s", domain.ErrUpstreamUnavailable, resp.Errors[0].Message)}
	}
	get, ok := resp.Data["Get"].(map[string]any)
	if !ok {
		return nil, &db.Error{Op: OpQuery, Err: errors.New("response has no Get block")}
	}
	items, ok := get[class].([]any)
	if !ok {
		// A class with no objects comes back as null.
		return []Record{}, nil
	}

	out := make([]Record, 0, len(items))
	for _, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rec := Record{Fields: fields}
		if add, ok := fields["_additional"].(map[string]any); ok {
			rec.ID, _ = add["id"].(string)
			rec.Score, rec.Scored = parseScore(add["score"])
			delete(fields, "_additional")
		}
		out = append(out, rec)
	}
	return out, nil
}

// parseScore accepts the score as a JSON number or, as Weaviate sends it, a string.
func parseScore(v any) (float64, bool) {
	switch s := v.(type) {
	case float64:
		return s, true
	case string:
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}
