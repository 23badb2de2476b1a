package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Category is one of the fixed classification keys carried by a listing.
type Category string

const (
	CategoryProductType       Category = "product_type"
	CategoryCertification     Category = "certification"
	CategoryPurchaseMode      Category = "purchase_mode"
	CategoryProductionMethod  Category = "production_method"
	CategoryAdditionalService Category = "additional_service"
	CategoryAvailability      Category = "availability"
)

// Categories lists every category key in display order. The keys double as
// column names and persisted filter keys, so they must never change.
var Categories = []Category{
	CategoryProductType,
	CategoryCertification,
	CategoryPurchaseMode,
	CategoryProductionMethod,
	CategoryAdditionalService,
	CategoryAvailability,
}

// ParseCategory validates a raw category key.
func ParseCategory(raw string) (Category, error) {
	for _, c := range Categories {
		if string(c) == raw {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrInvalidRequest, raw)
}

// TagSet is an unordered set of tag values.
type TagSet map[string]struct{}

// NewTagSet builds a set from values, skipping empty strings.
func NewTagSet(values ...string) TagSet {
	s := make(TagSet, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		s[v] = struct{}{}
	}
	return s
}

func (s TagSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Intersects reports whether the two sets share at least one value.
func (s TagSet) Intersects(other TagSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for v := range small {
		if large.Has(v) {
			return true
		}
	}
	return false
}

func (s TagSet) Clone() TagSet {
	out := make(TagSet, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

// Values returns the members sorted.
func (s TagSet) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s TagSet) Equal(other TagSet) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if !other.Has(v) {
			return false
		}
	}
	return true
}

func (s TagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

func (s *TagSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewTagSet(values...)
	return nil
}

// Listing is one vendor's public record. Listings are never mutated in place;
// updates arrive as replacement rows merged by ID.
type Listing struct {
	ID       int64               `json:"id"`
	Name     string              `json:"name"`
	Position LatLng              `json:"position"`
	Tags     map[Category]TagSet `json:"tags"`
	Images   []string            `json:"images"`
	IsActive bool                `json:"isActive"`
}

// TagsFor returns the listing's tags for a category, never nil.
func (l Listing) TagsFor(c Category) TagSet {
	if s, ok := l.Tags[c]; ok && s != nil {
		return s
	}
	return TagSet{}
}
