package geo

import (
	"math"
	"testing"

	"producermap/internal/domain"
)

var paris = domain.BoundingBox{
	SouthWest: domain.LatLng{Lat: 48.80, Lng: 2.25},
	NorthEast: domain.LatLng{Lat: 48.90, Lng: 2.42},
}

func TestContains(t *testing.T) {
	cases := []struct {
		name  string
		point domain.LatLng
		want  bool
	}{
		{"inside", domain.LatLng{Lat: 48.85, Lng: 2.35}, true},
		{"south-west corner", paris.SouthWest, true},
		{"north-east corner", paris.NorthEast, true},
		{"on east edge", domain.LatLng{Lat: 48.85, Lng: 2.42}, true},
		{"north of box", domain.LatLng{Lat: 48.91, Lng: 2.35}, false},
		{"west of box", domain.LatLng{Lat: 48.85, Lng: 2.2}, false},
		{"nan lat", domain.LatLng{Lat: math.NaN(), Lng: 2.35}, false},
		{"nan lng", domain.LatLng{Lat: 48.85, Lng: math.NaN()}, false},
		{"out of range", domain.LatLng{Lat: 120, Lng: 2.35}, false},
	}
	for _, tc := range cases {
		if got := Contains(paris, tc.point); got != tc.want {
			t.Fatalf("%s: Contains = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestOverlapsAndEqual(t *testing.T) {
	touching := domain.BoundingBox{
		SouthWest: domain.LatLng{Lat: 48.90, Lng: 2.42},
		NorthEast: domain.LatLng{Lat: 49.0, Lng: 2.5},
	}
	apart := domain.BoundingBox{
		SouthWest: domain.LatLng{Lat: 43.2, Lng: 5.3},
		NorthEast: domain.LatLng{Lat: 43.4, Lng: 5.5},
	}
	if !Overlaps(paris, touching) {
		t.Fatalf("expected boxes sharing a corner to overlap")
	}
	if Overlaps(paris, apart) {
		t.Fatalf("expected distant boxes not to overlap")
	}
	if !Equal(paris, paris) || Equal(paris, apart) {
		t.Fatalf("unexpected Equal result")
	}
}

func TestBoxAround(t *testing.T) {
	center := domain.LatLng{Lat: 45.76, Lng: 4.84}
	box, ok := BoxAround(center, 12)
	if !ok {
		t.Fatalf("expected box for valid center")
	}
	if !box.Valid() || !Contains(box, center) {
		t.Fatalf("derived box %+v does not contain center", box)
	}
	wide, _ := BoxAround(center, 6)
	if wide.NorthEast.Lat-wide.SouthWest.Lat <= box.NorthEast.Lat-box.SouthWest.Lat {
		t.Fatalf("expected lower zoom to give a wider box")
	}
	if _, ok := BoxAround(domain.LatLng{Lat: math.NaN()}, 10); ok {
		t.Fatalf("expected no box for invalid center")
	}
}

func TestBoxAroundClampsToWorld(t *testing.T) {
	box, ok := BoxAround(domain.LatLng{Lat: 89, Lng: 179}, 0)
	if !ok {
		t.Fatalf("expected box")
	}
	if box.NorthEast.Lat != 90 || box.NorthEast.Lng != 180 || !box.Valid() {
		t.Fatalf("expected clamped box, got %+v", box)
	}
}

func TestRadiusForZoomFloor(t *testing.T) {
	if r := RadiusForZoom(30); r != minRadiusKm {
		t.Fatalf("expected floor radius, got %f", r)
	}
}
