package filter

import "math/rand/v2"

// Listing owns the loaded collection and filter state of one listing view.
// It is not safe for concurrent use.
type Listing[T Viewer] struct {
	records []T
	state   State
}

// NewListing starts a view over records with an unrestricted state.
func NewListing[T Viewer](records []T) *Listing[T] {
	return &Listing[T]{records: records, state: NewState()}
}

// SetSearch updates the search term and returns the visible records.
func (l *Listing[T]) SetSearch(term string) []T {
	l.state.SearchTerm = term
	return l.Visible()
}

// SetCategory updates the active category and returns the visible records.
func (l *Listing[T]) SetCategory(category string) []T {
	l.state.ActiveCategory = category
	return l.Visible()
}

// Reset clears the search term and category.
func (l *Listing[T]) Reset() []T {
	l.state = NewState()
	return l.Visible()
}

// Load replaces the collection, keeping the current state.
func (l *Listing[T]) Load(records []T) []T {
	l.records = records
	return l.Visible()
}

// State returns the current filter state.
func (l *Listing[T]) State() State { return l.state }

// Visible filters the loaded collection with the current state.
func (l *Listing[T]) Visible() []T {
	return Records(l.records, l.state)
}

// Related picks up to limit records other than the current one, those of
// the same category first, each group shuffled with rng.
func Related[T Viewer](records []T, isCurrent func(T) bool, category string, limit int, rng *rand.Rand) []T {
	var same, others []T
	for _, r := range records {
		if isCurrent(r) {
			continue
		}
		if r.View().Category == category {
			same = append(same, r)
		} else {
			others = append(others, r)
		}
	}
	if rng != nil {
		rng.Shuffle(len(same), func(i, j int) { same[i], same[j] = same[j], same[i] })
		rng.Shuffle(len(others), func(i, j int) { others[i], others[j] = others[j], others[i] })
	}
	out := append(same, others...)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
