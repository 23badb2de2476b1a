package domain

// FilterState maps a category to its selected tag values. An empty set means
// no constraint for that category.
type FilterState map[Category]TagSet

// NewFilterState returns a state with every category present and empty.
func NewFilterState() FilterState {
	s := make(FilterState, len(Categories))
	for _, c := range Categories {
		s[c] = TagSet{}
	}
	return s
}

// Clone deep-copies the state, filling in missing categories.
func (s FilterState) Clone() FilterState {
	out := NewFilterState()
	for c, tags := range s {
		out[c] = tags.Clone()
	}
	return out
}

// IsEmpty reports whether no category is constrained.
func (s FilterState) IsEmpty() bool {
	for _, tags := range s {
		if len(tags) > 0 {
			return false
		}
	}
	return true
}

func (s FilterState) Equal(other FilterState) bool {
	for _, c := range Categories {
		if !s[c].Equal(other[c]) {
			return false
		}
	}
	return true
}

// PaginationState tracks offset pagination for the listing view.
type PaginationState struct {
	PageSize   int  `json:"pageSize"`
	Page       int  `json:"page"`
	TotalCount int  `json:"totalCount"`
	HasMore    bool `json:"hasMore"`
	IsLoading  bool `json:"isLoading"`
}
