package query

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Memory serves queries from in-process tables. It mirrors the range
// semantics of the HTTP/SQL backends: asking for an offset past the end of
// a non-empty result fails with ErrRangeNotSatisfiable.
type Memory struct {
	mu     sync.RWMutex
	tables map[string][]Row
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[string][]Row)}
}

// Put appends rows to table.
func (m *Memory) Put(table string, rows ...Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = append(m.tables[table], rows...)
}

// Replace swaps the full content of table.
func (m *Memory) Replace(table string, rows []Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = append([]Row(nil), rows...)
}

func (m *Memory) Query(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := validate(req); err != nil {
		return Result{}, err
	}
	m.mu.RLock()
	rows, ok := m.tables[req.Table]
	m.mu.RUnlock()
	if !ok {
		return Result{}, fmt.Errorf("%w: table %q", ErrUnsupported, req.Table)
	}

	matched := make([]Row, 0, len(rows))
	for _, row := range rows {
		keep := true
		for _, p := range req.Filters {
			ok, err := evaluate(row, p)
			if err != nil {
				return Result{}, err
			}
			if !ok {
				keep = false
				break
			}
		}
		if keep {
			matched = append(matched, row)
		}
	}

	if req.OrderBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			less := lessValue(matched[i][req.OrderBy], matched[j][req.OrderBy])
			if req.Descending {
				return lessValue(matched[j][req.OrderBy], matched[i][req.OrderBy])
			}
			return less
		})
	}

	total := len(matched)
	if req.RangeStart > 0 && req.RangeStart >= total {
		return Result{TotalCount: total}, ErrRangeNotSatisfiable
	}
	end := req.RangeEnd + 1
	if end > total {
		end = total
	}
	page := matched[req.RangeStart:end]

	out := make([]Row, 0, len(page))
	for _, row := range page {
		out = append(out, project(row, req.Select))
	}
	return Result{Rows: out, TotalCount: total}, nil
}

func project(row Row, columns []string) Row {
	out := make(Row, len(row))
	if len(columns) == 0 {
		for k, v := range row {
			out[k] = v
		}
		return out
	}
	for _, c := range columns {
		if v, ok := row[c]; ok {
			out[c] = v
		}
	}
	return out
}

func evaluate(row Row, p Predicate) (bool, error) {
	v := row[p.Column]
	switch p.Op {
	case OpEq:
		return equalValue(v, p.Value), nil
	case OpGte, OpLte:
		a, ok := AsFloat(v)
		b, okB := AsFloat(p.Value)
		if !ok || !okB || a != a {
			return false, nil
		}
		if p.Op == OpGte {
			return a >= b, nil
		}
		return a <= b, nil
	case OpOverlaps:
		want := AsStrings(p.Value)
		have := AsStrings(v)
		for _, h := range have {
			for _, w := range want {
				if h == w {
					return true, nil
				}
			}
		}
		return false, nil
	case OpILike:
		s, _ := v.(string)
		pattern, _ := p.Value.(string)
		return ilike(s, pattern), nil
	default:
		return false, fmt.Errorf("%w: operator %q", ErrUnsupported, p.Op)
	}
}

func equalValue(a, b any) bool {
	if fa, ok := AsFloat(a); ok {
		if fb, ok := AsFloat(b); ok {
			return fa == fb
		}
	}
	return a == b
}

func lessValue(a, b any) bool {
	fa, okA := AsFloat(a)
	fb, okB := AsFloat(b)
	if okA && okB {
		return fa < fb
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

// ilike matches s against a LIKE pattern case-insensitively: '%' is any
// run, '_' any single character, and '\' escapes the next character.
func ilike(s, pattern string) bool {
	var b strings.Builder
	b.WriteString("(?is)^")
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteString(".*")
		case r == '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

// Upsert replaces the row of table whose column equals row[column], or
// appends row when none does.
func (m *Memory) Upsert(table, column string, row Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	for i, existing := range rows {
		if equalValue(existing[column], row[column]) {
			rows[i] = row
			return
		}
	}
	m.tables[table] = append(rows, row)
}
