package query

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const totalColumn = "__total"

type postgresQuerier struct {
	pool   *pgxpool.Pool
	logger *log.Logger
	tables map[string]struct{}
}

// DefaultTables are the tables the postgres querier serves unless told
// otherwise.
var DefaultTables = []string{"listings", "products"}

// NewPostgres returns a Querier translating requests into parameterized SQL.
// Only the given tables (DefaultTables when empty) are queryable.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger, tables ...string) Querier {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if len(tables) == 0 {
		tables = DefaultTables
	}
	allowed := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		allowed[t] = struct{}{}
	}
	return &postgresQuerier{pool: pool, logger: logger, tables: allowed}
}

func (q *postgresQuerier) Query(ctx context.Context, req Request) (Result, error) {
	if err := validate(req); err != nil {
		return Result{}, err
	}
	if _, ok := q.tables[req.Table]; !ok {
		return Result{}, fmt.Errorf("%w: table %q", ErrUnsupported, req.Table)
	}
	sql, args, err := buildSelect(req)
	if err != nil {
		return Result{}, err
	}

	rows, err := q.pool.Query(ctx, sql, args...)
	if err != nil {
		q.logger.Printf("query repo: select table=%s error=%v", req.Table, err)
		return Result{}, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	result := Result{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return Result{}, err
		}
		row := make(Row, len(values))
		for i, fd := range fields {
			if fd.Name == totalColumn {
				if n, ok := AsFloat(values[i]); ok {
					result.TotalCount = int(n)
				}
				continue
			}
			row[fd.Name] = values[i]
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		q.logger.Printf("query repo: rows table=%s error=%v", req.Table, err)
		return Result{}, err
	}

	if len(result.Rows) == 0 {
		total, err := q.count(ctx, req)
		if err != nil {
			return Result{}, err
		}
		result.TotalCount = total
		if req.RangeStart > 0 && req.RangeStart >= total {
			q.logger.Printf("query repo: range table=%s offset=%d total=%d not satisfiable", req.Table, req.RangeStart, total)
			return result, ErrRangeNotSatisfiable
		}
	}
	q.logger.Printf("query repo: select table=%s offset=%d count=%d total=%d", req.Table, req.RangeStart, len(result.Rows), result.TotalCount)
	return result, nil
}

func (q *postgresQuerier) count(ctx context.Context, req Request) (int, error) {
	where, args, err := buildWhere(req.Filters)
	if err != nil {
		return 0, err
	}
	sql := "SELECT count(*) FROM " + pgx.Identifier{req.Table}.Sanitize() + where
	var total int
	if err := q.pool.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		q.logger.Printf("query repo: count table=%s error=%v", req.Table, err)
		return 0, err
	}
	return total, nil
}

func buildSelect(req Request) (string, []any, error) {
	columns := "*"
	if len(req.Select) > 0 {
		quoted := make([]string, 0, len(req.Select))
		for _, c := range req.Select {
			quoted = append(quoted, pgx.Identifier{c}.Sanitize())
		}
		columns = strings.Join(quoted, ", ")
	}
	where, args, err := buildWhere(req.Filters)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s, count(*) OVER() AS %s FROM %s%s", columns, totalColumn, pgx.Identifier{req.Table}.Sanitize(), where)
	if req.OrderBy != "" {
		dir := "ASC"
		if req.Descending {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", pgx.Identifier{req.OrderBy}.Sanitize(), dir)
	}
	args = append(args, req.Limit(), req.RangeStart)
	fmt.Fprintf(&b, " LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return b.String(), args, nil
}

func buildWhere(filters []Predicate) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	clauses := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, p := range filters {
		col := pgx.Identifier{p.Column}.Sanitize()
		var op, escape string
		value := p.Value
		switch p.Op {
		case OpEq:
			op = "="
		case OpGte:
			op = ">="
		case OpLte:
			op = "<="
		case OpOverlaps:
			op = "&&"
			value = AsStrings(p.Value)
		case OpILike:
			op = "ILIKE"
			escape = ` ESCAPE '\'`
		default:
			return "", nil, fmt.Errorf("%w: operator %q", ErrUnsupported, p.Op)
		}
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s %s $%d%s", col, op, len(args), escape))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}
