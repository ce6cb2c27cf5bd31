package weaviate

import (
	"fmt"

	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"

	"github.com/kailas-cloud/reformhub/internal/domain/search/filter"
)

var operators = map[filter.Operator]filters.WhereOperator{
	filter.OpAnd:              filters.And,
	filter.OpOr:               filters.Or,
	filter.OpEqual:            filters.Equal,
	filter.OpLike:             filters.Like,
	filter.OpGreaterThanEqual: filters.GreaterThanEqual,
	filter.OpLessThanEqual:    filters.LessThanEqual,
}

// Where translates a filter tree into a where builder. An empty tree yields nil.
func Where(n filter.Node) (*filters.WhereBuilder, error) {
	if n.IsEmpty() {
		return nil, nil
	}
	op, ok := operators[n.Op()]
	if !ok {
		return nil, fmt.Errorf("unsupported filter operator %q", n.Op())
	}

	if n.Op().IsGroup() {
		operands := make([]*filters.WhereBuilder, 0, len(n.Operands()))
		for _, child := range n.Operands() {
			w, err := Where(child)
			if err != nil {
				return nil, err
			}
			operands = append(operands, w)
		}
		return filters.Where().WithOperator(op).WithOperands(operands), nil
	}

	w := filters.Where().WithPath([]string{n.Path()}).WithOperator(op)
	if n.IsDate() {
		return w.WithValueDate(n.Date()), nil
	}
	return w.WithValueText(n.Text()), nil
}
