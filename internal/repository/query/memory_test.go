package query

import (
	"context"
	"errors"
	"testing"
)

func sampleRows() []Row {
	return []Row{
		{"id": int64(3), "name": "Ferme du Coteau", "lat": 45.7, "lng": 4.8, "is_active": true, "product_type": []string{"Fruits"}},
		{"id": int64(1), "name": "Le Potager", "lat": 48.8, "lng": 2.3, "is_active": true, "product_type": []string{"Légumes", "Fruits"}},
		{"id": int64(2), "name": "Rucher Bleu", "lat": 43.6, "lng": 1.4, "is_active": false, "product_type": []string{"Miel"}},
		{"id": int64(4), "name": "Vergers d'Oc", "lat": "43.3", "lng": "3.2", "is_active": true, "product_type": "Fruits, Jus"},
	}
}

func TestMemory_FiltersOrderAndCount(t *testing.T) {
	m := NewMemory()
	m.Replace("listings", sampleRows())

	res, err := m.Query(context.Background(), Request{
		Table: "listings",
		Filters: []Predicate{
			{Column: "is_active", Op: OpEq, Value: true},
			{Column: "product_type", Op: OpOverlaps, Value: []string{"Fruits"}},
		},
		RangeStart: 0,
		RangeEnd:   9,
		OrderBy:    "id",
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if res.TotalCount != 3 || len(res.Rows) != 3 {
		t.Fatalf("expected 3 rows, got total=%d rows=%d", res.TotalCount, len(res.Rows))
	}
	for i, want := range []int64{1, 3, 4} {
		if res.Rows[i]["id"] != want {
			t.Fatalf("row %d: expected id %d, got %v", i, want, res.Rows[i]["id"])
		}
	}
}

func TestMemory_BoundsAndSearch(t *testing.T) {
	m := NewMemory()
	m.Replace("listings", sampleRows())

	res, err := m.Query(context.Background(), Request{
		Table: "listings",
		Filters: []Predicate{
			{Column: "lat", Op: OpGte, Value: 43.0},
			{Column: "lat", Op: OpLte, Value: 46.0},
			{Column: "name", Op: OpILike, Value: "%oc%"},
		},
		RangeEnd: 9,
		OrderBy:  "id",
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0]["id"] != int64(4) {
		t.Fatalf("expected only id 4, got %v", res.Rows)
	}
}

func TestILike(t *testing.T) {
	cases := []struct {
		s, pattern string
		want       bool
	}{
		{"Ferme du Coteau", "%COTEAU%", true},
		{"Ferme du Coteau", "ferme%", true},
		{"Ferme du Coteau", "%ferme", false},
		{"Ferme du Coteau", "f_rme%", true},
		{"Bio 100%", "%" + EscapeLike("100%") + "%", true},
		{"Bio 1000", "%" + EscapeLike("100%") + "%", false},
		{"Miel_toutes_fleurs", "%" + EscapeLike("l_t") + "%", true},
		{"Miel toutes fleurs", "%" + EscapeLike("l_t") + "%", false},
		{`C:\ferme`, "%" + EscapeLike(`\`) + "%", true},
		{"Château", "%château%", true},
	}
	for _, tc := range cases {
		if got := ilike(tc.s, tc.pattern); got != tc.want {
			t.Fatalf("ilike(%q, %q) = %v, want %v", tc.s, tc.pattern, got, tc.want)
		}
	}
}

func TestEscapeLike(t *testing.T) {
	if got := EscapeLike(`a%b_c\d`); got != `a\%b\_c\\d` {
		t.Fatalf("unexpected escape %q", got)
	}
}

func TestMemory_RangeAndSelect(t *testing.T) {
	m := NewMemory()
	m.Replace("listings", sampleRows())

	res, err := m.Query(context.Background(), Request{
		Table:      "listings",
		Select:     []string{"id"},
		RangeStart: 1,
		RangeEnd:   2,
		OrderBy:    "id",
		Descending: true,
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if res.TotalCount != 4 || len(res.Rows) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Rows[0]["id"] != int64(3) || res.Rows[1]["id"] != int64(2) {
		t.Fatalf("unexpected order %v", res.Rows)
	}
	if _, ok := res.Rows[0]["name"]; ok {
		t.Fatalf("expected projection to drop name")
	}
}

func TestMemory_RangeNotSatisfiable(t *testing.T) {
	m := NewMemory()
	m.Replace("listings", sampleRows())

	_, err := m.Query(context.Background(), Request{Table: "listings", RangeStart: 4, RangeEnd: 7})
	if !errors.Is(err, ErrRangeNotSatisfiable) {
		t.Fatalf("expected ErrRangeNotSatisfiable, got %v", err)
	}

	m.Replace("empty", nil)
	res, err := m.Query(context.Background(), Request{Table: "empty", RangeStart: 0, RangeEnd: 19})
	if err != nil || len(res.Rows) != 0 {
		t.Fatalf("expected empty first page without error, got %v %v", res, err)
	}
}

func TestMemory_Rejects(t *testing.T) {
	m := NewMemory()
	if _, err := m.Query(context.Background(), Request{Table: "missing", RangeEnd: 1}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for unknown table, got %v", err)
	}
	m.Put("listings", sampleRows()...)
	_, err := m.Query(context.Background(), Request{Table: "listings", RangeEnd: 1, Filters: []Predicate{{Column: "id", Op: "like"}}})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for unknown op, got %v", err)
	}
	if _, err := m.Query(context.Background(), Request{Table: "listings", RangeStart: 5, RangeEnd: 1}); err == nil {
		t.Fatalf("expected invalid range error")
	}
}

func TestAsStrings(t *testing.T) {
	if got := AsStrings("a, b,,c "); len(got) != 3 || got[2] != "c" {
		t.Fatalf("unexpected split %v", got)
	}
	if got := AsStrings([]any{"x", 3, "y"}); len(got) != 2 {
		t.Fatalf("expected non-strings dropped, got %v", got)
	}
	if AsStrings(nil) != nil {
		t.Fatalf("expected nil")
	}
}
