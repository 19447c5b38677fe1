// Package filter narrows an in-memory collection for listing views.
package filter

import "strings"

// AllCategories is the category value that disables category filtering.
const AllCategories = "All"

// RecordView is the projection of a record used for matching.
type RecordView struct {
	Title        string `json:"title"`
	LocationText string `json:"location_text"`
	Category     string `json:"category"`
}

// Viewer is implemented by records that can be projected for filtering.
type Viewer interface {
	View() RecordView
}

// State is the current search box and category control of a view.
// An empty ActiveCategory is treated like AllCategories.
type State struct {
	SearchTerm     string `json:"search_term"`
	ActiveCategory string `json:"active_category"`
}

// NewState returns the state a view starts with.
func NewState() State {
	return State{ActiveCategory: AllCategories}
}

// Matches reports whether v passes both the search term and the category.
func (s State) Matches(v RecordView) bool {
	return s.matchesSearch(v) && s.matchesCategory(v)
}

func (s State) matchesSearch(v RecordView) bool {
	if s.SearchTerm == "" {
		return true
	}
	term := strings.ToLower(s.SearchTerm)
	return strings.Contains(strings.ToLower(v.Title), term) ||
		strings.Contains(strings.ToLower(v.LocationText), term)
}

func (s State) matchesCategory(v RecordView) bool {
	if s.unrestricted() {
		return true
	}
	return strings.EqualFold(s.ActiveCategory, v.Category)
}

func (s State) unrestricted() bool {
	return s.ActiveCategory == "" || strings.EqualFold(s.ActiveCategory, AllCategories)
}

// Apply returns the views matching s in their original order.
func Apply(views []RecordView, s State) []RecordView {
	out := make([]RecordView, 0, len(views))
	for _, v := range views {
		if s.Matches(v) {
			out = append(out, v)
		}
	}
	return out
}

// Records is Apply over full records. Each record is projected fresh on every call.
func Records[T Viewer](records []T, s State) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if s.Matches(r.View()) {
			out = append(out, r)
		}
	}
	return out
}

// Categories lists the distinct non-empty categories in first-seen order,
// prefixed with AllCategories, for rendering the category controls.
func Categories[T Viewer](records []T) []string {
	out := []string{AllCategories}
	seen := map[string]struct{}{strings.ToLower(AllCategories): {}}
	for _, r := range records {
		c := strings.TrimSpace(r.View().Category)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
