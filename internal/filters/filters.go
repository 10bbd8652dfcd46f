// Package filters holds the system-agnostic algorithms that operate
// over the grid data model: filter classification, auto-populate
// placement, and auto-sort compaction. Nothing here persists or renders;
// callers feed results back through the persistence manager.
package filters

import (
	"github.com/BragginRites/bg3-hud-core-sub001/internal/state"
)

// Matcher decides whether a cell belongs to a filter. The system
// adapter supplies one; DefaultMatcher compares the cell type against
// the filter id.
type Matcher func(f *state.Filter, cell *state.CellData) bool

// DefaultMatcher classifies by cell type.
func DefaultMatcher(f *state.Filter, cell *state.CellData) bool {
	if f == nil || cell == nil {
		return false
	}
	return cell.Type == f.ID
}

// Set tracks the filter buttons for one HUD: at most one highlighted
// filter and a membership set of used filters.
type Set struct {
	filters     []*state.Filter
	byID        map[string]*state.Filter
	matcher     Matcher
	highlighted string
	used        map[string]bool
}

// NewSet builds a filter set. A nil matcher falls back to DefaultMatcher.
func NewSet(filters []*state.Filter, matcher Matcher) *Set {
	if matcher == nil {
		matcher = DefaultMatcher
	}
	s := &Set{
		filters: make([]*state.Filter, 0, len(filters)),
		byID:    make(map[string]*state.Filter, len(filters)),
		matcher: matcher,
		used:    make(map[string]bool),
	}
	for _, f := range filters {
		if f == nil {
			continue
		}
		clone := f.Clone()
		s.filters = append(s.filters, clone)
		s.byID[clone.ID] = clone
	}
	return s
}

// Filters returns the set's filters in declaration order.
func (s *Set) Filters() []*state.Filter { return s.filters }

// ToggleHighlight highlights a filter, clearing any previous highlight.
// Toggling the highlighted filter again clears it. Returns whether the
// filter is highlighted afterwards; unknown ids are ignored.
func (s *Set) ToggleHighlight(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	if s.highlighted == id {
		s.highlighted = ""
		return false
	}
	s.highlighted = id
	return true
}

// Highlighted returns the highlighted filter, nil when none.
func (s *Set) Highlighted() *state.Filter {
	if s.highlighted == "" {
		return nil
	}
	return s.byID[s.highlighted]
}

// ToggleUsed flips a filter's membership in the used set. Returns
// whether the filter is used afterwards; unknown ids are ignored.
func (s *Set) ToggleUsed(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	if s.used[id] {
		delete(s.used, id)
		return false
	}
	s.used[id] = true
	return true
}

// Used returns the used filters in declaration order.
func (s *Set) Used() []*state.Filter {
	used := make([]*state.Filter, 0, len(s.used))
	for _, f := range s.filters {
		if s.used[f.ID] {
			used = append(used, f)
		}
	}
	return used
}

// Matches returns the ids of used filters the cell belongs to, in
// declaration order.
func (s *Set) Matches(cell *state.CellData) []string {
	var ids []string
	for _, f := range s.filters {
		if s.used[f.ID] && s.matcher(f, cell) {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// MatchesHighlighted reports whether the cell belongs to the
// highlighted filter. Always false when nothing is highlighted.
func (s *Set) MatchesHighlighted(cell *state.CellData) bool {
	f := s.Highlighted()
	if f == nil {
		return false
	}
	return s.matcher(f, cell)
}
