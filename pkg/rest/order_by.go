package rest

import (
	"slices"
	"strings"
)

// Direction is the sort direction of one OrderParam.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// OrderParam is one sort key; a list of them is applied primary first.
type OrderParam struct {
	Field     string
	Direction Direction
}

// parseOrderBy parses "name asc,quantity desc" into order params.
// An expression without an exact "asc" or "desc" token is dropped.
func parseOrderBy(order string) []OrderParam {
	parts := strings.Split(order, ",")
	result := make([]OrderParam, 0, len(parts))

	for _, part := range parts {
		tokens := strings.Fields(part)

		var direction Direction
		if i := slices.Index(tokens, string(Asc)); i >= 0 {
			direction = Asc
			tokens = slices.Delete(tokens, i, i+1)
		} else if i := slices.Index(tokens, string(Desc)); i >= 0 {
			direction = Desc
			tokens = slices.Delete(tokens, i, i+1)
		} else {
			continue
		}

		field := strings.Join(tokens, " ")
		if field == "" {
			continue
		}

		result = append(result, OrderParam{
			Field:     field,
			Direction: direction,
		})
	}

	return result
}
