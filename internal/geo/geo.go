// Package geo provides the coarse bounding-box geometry used to scope listings
// to the map viewport.
package geo

import (
	"math"

	"producermap/internal/domain"
)

const (
	// kmPerDegree is a flat approximation applied to both axes. It is accurate
	// enough for mainland France and degrades toward the poles.
	kmPerDegree = 111.32

	minRadiusKm = 0.5
	worldSpanKm = 20000.0
)

// Contains reports whether point lies inside box, edges included. It returns
// false for NaN or out-of-range coordinates.
func Contains(box domain.BoundingBox, point domain.LatLng) bool {
	if !point.Valid() {
		return false
	}
	return point.Lat >= box.SouthWest.Lat && point.Lat <= box.NorthEast.Lat &&
		point.Lng >= box.SouthWest.Lng && point.Lng <= box.NorthEast.Lng
}

// Equal compares two boxes corner by corner.
func Equal(a, b domain.BoundingBox) bool {
	return a.SouthWest == b.SouthWest && a.NorthEast == b.NorthEast
}

// Overlaps reports whether the boxes share any point, edges included.
func Overlaps(a, b domain.BoundingBox) bool {
	if !a.Valid() || !b.Valid() {
		return false
	}
	return a.SouthWest.Lat <= b.NorthEast.Lat && b.SouthWest.Lat <= a.NorthEast.Lat &&
		a.SouthWest.Lng <= b.NorthEast.Lng && b.SouthWest.Lng <= a.NorthEast.Lng
}

// RadiusForZoom approximates the half-width in km of a map viewport at zoom.
func RadiusForZoom(zoom int) float64 {
	if zoom < 0 {
		zoom = 0
	}
	r := worldSpanKm / math.Pow(2, float64(zoom))
	if r < minRadiusKm {
		return minRadiusKm
	}
	return r
}

// BoxAround derives an approximate box centered on center for the given zoom.
// It is a best-effort substitute for real map bounds, not a geodesic result.
// The second return is false when center is invalid.
func BoxAround(center domain.LatLng, zoom int) (domain.BoundingBox, bool) {
	if !center.Valid() {
		return domain.BoundingBox{}, false
	}
	delta := RadiusForZoom(zoom) / kmPerDegree
	return domain.BoundingBox{
		SouthWest: domain.LatLng{
			Lat: clamp(center.Lat-delta, -90, 90),
			Lng: clamp(center.Lng-delta, -180, 180),
		},
		NorthEast: domain.LatLng{
			Lat: clamp(center.Lat+delta, -90, 90),
			Lng: clamp(center.Lng+delta, -180, 180),
		},
	}, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
