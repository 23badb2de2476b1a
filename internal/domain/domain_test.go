package domain

import (
	"encoding/json"
	"math"
	"testing"
)

func TestTagSetJSONSorted(t *testing.T) {
	s := NewTagSet("Légumes", "Fruits", "")
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["Fruits","Légumes"]` {
		t.Fatalf("unexpected json %s", data)
	}
	var back TagSet
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(s) {
		t.Fatalf("expected %v, got %v", s, back)
	}
}

func TestTagSetIntersects(t *testing.T) {
	a := NewTagSet("Fruits", "Légumes")
	if !a.Intersects(NewTagSet("Fruits")) {
		t.Fatalf("expected intersection")
	}
	if a.Intersects(NewTagSet("Miel")) || a.Intersects(TagSet{}) {
		t.Fatalf("expected no intersection")
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, err := ParseCategory(string(c))
		if err != nil || got != c {
			t.Fatalf("ParseCategory(%q) = %q, %v", c, got, err)
		}
	}
	if _, err := ParseCategory("color"); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}

func TestLatLngValid(t *testing.T) {
	cases := []struct {
		p    LatLng
		want bool
	}{
		{LatLng{Lat: 48.85, Lng: 2.35}, true},
		{LatLng{Lat: 90, Lng: -180}, true},
		{LatLng{Lat: 91, Lng: 0}, false},
		{LatLng{Lat: 0, Lng: 181}, false},
		{LatLng{Lat: math.NaN(), Lng: 0}, false},
	}
	for _, tc := range cases {
		if got := tc.p.Valid(); got != tc.want {
			t.Fatalf("Valid(%+v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestDeliveryModeJSONNull(t *testing.T) {
	data, err := json.Marshal(Cart{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"vendorId":null,"vendorName":null,"items":null,"deliveryMode":null}` {
		t.Fatalf("unexpected json %s", data)
	}
	var c Cart
	if err := json.Unmarshal([]byte(`{"deliveryMode":"pickup"}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.DeliveryMode != DeliveryPickup {
		t.Fatalf("expected pickup, got %q", c.DeliveryMode)
	}
}

func TestFilterStateCloneFillsCategories(t *testing.T) {
	s := FilterState{CategoryProductType: NewTagSet("Fruits")}
	c := s.Clone()
	if len(c) != len(Categories) {
		t.Fatalf("expected all categories, got %d", len(c))
	}
	c[CategoryProductType]["Miel"] = struct{}{}
	if s[CategoryProductType].Has("Miel") {
		t.Fatalf("clone shares tag sets with original")
	}
	if !s.Equal(FilterState{CategoryProductType: NewTagSet("Fruits")}) {
		t.Fatalf("expected equal states")
	}
}
