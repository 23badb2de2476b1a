package listing

import (
	"encoding/json"
	"math"
	"testing"

	"producermap/internal/domain"
	"producermap/internal/repository/query"
)

func TestNormalize_Coercions(t *testing.T) {
	l := Normalize(query.Row{
		"id":            "12",
		"name":          "Les Ruchers",
		"lat":           json.Number("43.61"),
		"lng":           "1.44",
		"certification": "Bio, AOP",
		"availability":  []any{"Été", 3},
	})
	if l.ID != 12 || l.Position.Lat != 43.61 || l.Position.Lng != 1.44 {
		t.Fatalf("unexpected coercion %+v", l)
	}
	if !l.TagsFor(domain.CategoryCertification).Has("AOP") || !l.TagsFor(domain.CategoryAvailability).Has("Été") {
		t.Fatalf("unexpected tags %+v", l.Tags)
	}
	if len(l.TagsFor(domain.CategoryProductType)) != 0 {
		t.Fatalf("expected empty product type set")
	}
	if l.Images == nil || len(l.Images) != 0 {
		t.Fatalf("expected empty images slice, got %#v", l.Images)
	}
	if !l.IsActive {
		t.Fatalf("rows without is_active default to active")
	}
}

func TestNormalize_BadCoordinatesBecomeNaN(t *testing.T) {
	l := Normalize(query.Row{"id": 1.0, "lat": "north", "is_active": "false"})
	if !math.IsNaN(l.Position.Lat) || !math.IsNaN(l.Position.Lng) {
		t.Fatalf("expected NaN coordinates, got %+v", l.Position)
	}
	if l.IsActive {
		t.Fatalf("expected is_active string false to parse")
	}
}
