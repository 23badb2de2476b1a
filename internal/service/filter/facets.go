package filter

import (
	"sort"

	"producermap/internal/domain"
)

// FacetValue is one tag value with the number of listings carrying it.
type FacetValue struct {
	Value    string `json:"value"`
	Count    int    `json:"count"`
	Selected bool   `json:"selected"`
}

// Facets counts tag values per category over active listings. Selected
// values are always present, with a zero count if no listing carries them.
// Values are ordered by count, then alphabetically.
func Facets(listings []domain.Listing, state domain.FilterState) map[domain.Category][]FacetValue {
	counts := make(map[domain.Category]map[string]int, len(domain.Categories))
	for _, c := range domain.Categories {
		counts[c] = make(map[string]int)
		for v := range state[c] {
			counts[c][v] = 0
		}
	}
	for _, l := range listings {
		if !l.IsActive {
			continue
		}
		for c, tags := range l.Tags {
			m, ok := counts[c]
			if !ok {
				continue
			}
			for v := range tags {
				m[v]++
			}
		}
	}

	out := make(map[domain.Category][]FacetValue, len(counts))
	for c, m := range counts {
		values := make([]FacetValue, 0, len(m))
		for v, n := range m {
			values = append(values, FacetValue{Value: v, Count: n, Selected: state[c].Has(v)})
		}
		sort.Slice(values, func(i, j int) bool {
			if values[i].Count != values[j].Count {
				return values[i].Count > values[j].Count
			}
			return values[i].Value < values[j].Value
		})
		out[c] = values
	}
	return out
}
