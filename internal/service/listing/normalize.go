package listing

import (
	"math"
	"strconv"
	"strings"

	"producermap/internal/domain"
	"producermap/internal/repository/query"
)

// Normalize converts an untyped row into a Listing. It never fails: bad
// coordinates become NaN (and so fall outside every bounding box), missing
// tag columns become empty sets and missing images an empty slice. Rows
// without an is_active column are treated as active.
func Normalize(row query.Row) domain.Listing {
	l := domain.Listing{
		ID:       asID(row["id"]),
		Name:     asString(row["name"]),
		Position: domain.LatLng{Lat: coordinate(row, "lat", "latitude"), Lng: coordinate(row, "lng", "longitude")},
		Tags:     make(map[domain.Category]domain.TagSet, len(domain.Categories)),
		Images:   query.AsStrings(row["images"]),
		IsActive: asBool(row["is_active"], true),
	}
	for _, c := range domain.Categories {
		l.Tags[c] = domain.NewTagSet(query.AsStrings(row[string(c)])...)
	}
	if l.Images == nil {
		l.Images = []string{}
	}
	return l
}

func coordinate(row query.Row, keys ...string) float64 {
	for _, k := range keys {
		v, ok := row[k]
		if !ok || v == nil {
			continue
		}
		if f, ok := query.AsFloat(v); ok {
			return f
		}
		return math.NaN()
	}
	return math.NaN()
}

func asID(v any) int64 {
	f, ok := query.AsFloat(v)
	if !ok || math.IsNaN(f) {
		return 0
	}
	return int64(f)
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any, fallback bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return fallback
		}
		return parsed
	case nil:
		return fallback
	default:
		if f, ok := query.AsFloat(v); ok {
			return f != 0
		}
		return fallback
	}
}
