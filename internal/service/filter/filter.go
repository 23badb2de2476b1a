// Package filter holds the per-category tag selections and decides whether
// a listing satisfies them.
package filter

import (
	"producermap/internal/domain"
)

// Toggle returns a copy of state with value flipped in category c.
func Toggle(state domain.FilterState, c domain.Category, value string) domain.FilterState {
	next := state.Clone()
	tags := next[c]
	if tags.Has(value) {
		delete(tags, value)
	} else if value != "" {
		tags[value] = struct{}{}
	}
	next[c] = tags
	return next
}

// Matches applies OR within a category and AND across constrained
// categories. A listing without tags for a constrained category fails it.
func Matches(l domain.Listing, state domain.FilterState) bool {
	for _, c := range domain.Categories {
		selected := state[c]
		if len(selected) == 0 {
			continue
		}
		if !l.TagsFor(c).Intersects(selected) {
			return false
		}
	}
	return true
}

func validCategory(c domain.Category) error {
	_, err := domain.ParseCategory(string(c))
	return err
}
