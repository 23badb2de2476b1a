// Package query is the generic paged-query capability the listing store
// consumes. Backends translate a Request into their own query language.
package query

import (
	"context"
	"errors"
	"strings"
)

// Op is a comparison applied by a Predicate.
type Op string

const (
	OpEq       Op = "eq"
	OpGte      Op = "gte"
	OpLte      Op = "lte"
	OpOverlaps Op = "ov" // array column shares at least one element with Value ([]string)
	OpILike    Op = "ilike"
)

// Predicate constrains one column.
type Predicate struct {
	Column string `json:"column"`
	Op     Op     `json:"op"`
	Value  any    `json:"value"`
}

// Request selects rows [RangeStart, RangeEnd] (inclusive, zero-based) of a
// table after filtering and ordering.
type Request struct {
	Table      string      `json:"table"`
	Select     []string    `json:"select,omitempty"`
	Filters    []Predicate `json:"filters,omitempty"`
	RangeStart int         `json:"rangeStart"`
	RangeEnd   int         `json:"rangeEnd"`
	OrderBy    string      `json:"orderBy,omitempty"`
	Descending bool        `json:"descending,omitempty"`
}

// Limit is the number of rows the range asks for.
func (r Request) Limit() int {
	return r.RangeEnd - r.RangeStart + 1
}

// Row is an untyped result row keyed by column name.
type Row map[string]any

// Result holds one page of rows and the total number of matching rows.
type Result struct {
	Rows       []Row `json:"rows"`
	TotalCount int   `json:"totalCount"`
}

// Querier runs paged queries.
type Querier interface {
	Query(ctx context.Context, req Request) (Result, error)
}

var (
	// ErrRangeNotSatisfiable means the requested offset is past the last
	// matching row. Callers treat it as end of data.
	ErrRangeNotSatisfiable = errors.New("requested range not satisfiable")
	// ErrUnsupported marks tables, columns or operators a backend refuses.
	ErrUnsupported = errors.New("unsupported query")
)

// EscapeLike escapes '\', '%' and '_' so s matches literally inside an
// OpILike pattern.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func validate(req Request) error {
	if req.Table == "" {
		return errors.New("query: table required")
	}
	if req.RangeStart < 0 || req.RangeEnd < req.RangeStart {
		return errors.New("query: invalid range")
	}
	return nil
}
