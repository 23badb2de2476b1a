package domain

import "math"

// LatLng is a WGS84 coordinate in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both coordinates are finite and within range.
func (p LatLng) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// BoundingBox is an axis-aligned lat/lng rectangle. Boxes crossing the
// antimeridian are not supported.
type BoundingBox struct {
	SouthWest LatLng `json:"southWest"`
	NorthEast LatLng `json:"northEast"`
}

// Valid reports whether both corners are valid and correctly ordered.
func (b BoundingBox) Valid() bool {
	if !b.SouthWest.Valid() || !b.NorthEast.Valid() {
		return false
	}
	return b.SouthWest.Lat <= b.NorthEast.Lat && b.SouthWest.Lng <= b.NorthEast.Lng
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() LatLng {
	return LatLng{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lng: (b.SouthWest.Lng + b.NorthEast.Lng) / 2,
	}
}
