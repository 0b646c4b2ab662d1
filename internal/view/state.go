// Package view derives the four board columns from a document and the session's view state.
package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hylla/planboard/internal/domain"
	"github.com/hylla/planboard/internal/rules"
)

// Mode is the active view mode. Exactly one mode holds at a time.
type Mode int

// Mode values.
const (
	ModeNormal Mode = iota
	ModeSearchFlat
	ModeSearchHierarchy
	ModeFilterFlat
	ModeFilterHierarchy
)

var modeNames = map[Mode]string{
	ModeNormal:          "normal",
	ModeSearchFlat:      "search",
	ModeSearchHierarchy: "search-hierarchy",
	ModeFilterFlat:      "filter",
	ModeFilterHierarchy: "filter-hierarchy",
}

// String returns the mode name.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// MarshalText encodes the mode name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// IsSearch reports whether the mode belongs to the search branch.
func (m Mode) IsSearch() bool {
	return m == ModeSearchFlat || m == ModeSearchHierarchy
}

// IsFilter reports whether the mode belongs to the filter branch.
func (m Mode) IsFilter() bool {
	return m == ModeFilterFlat || m == ModeFilterHierarchy
}

// IsHierarchy reports whether one result is expanded into its hierarchy.
func (m Mode) IsHierarchy() bool {
	return m == ModeSearchHierarchy || m == ModeFilterHierarchy
}

// ErrUnknownVisibility reports a visibility name outside all, active, and completed.
var ErrUnknownVisibility = errors.New("unknown visibility")

// Visibility filters rows by completion in every mode.
type Visibility string

// Visibility values.
const (
	VisibilityAll       Visibility = "all"
	VisibilityActive    Visibility = "active"
	VisibilityCompleted Visibility = "completed"
)

// ParseVisibility accepts a visibility name, case-insensitively. Blank means all.
func ParseVisibility(raw string) (Visibility, error) {
	switch v := Visibility(strings.ToLower(strings.TrimSpace(raw))); v {
	case "":
		return VisibilityAll, nil
	case VisibilityAll, VisibilityActive, VisibilityCompleted:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVisibility, raw)
	}
}

// Shows reports whether an entity with the given completion passes the visibility filter.
func (v Visibility) Shows(completed bool) bool {
	switch v {
	case VisibilityActive:
		return !completed
	case VisibilityCompleted:
		return completed
	default:
		return true
	}
}

// State is the session's view state. Values are immutable; every transition returns a new State.
// The query is only held in the search modes, the filter key only in the filter modes, and the
// anchor only in the hierarchy modes.
type State struct {
	mode       Mode
	selection  domain.Path
	query      string
	filterKey  string
	anchor     domain.Path
	visibility Visibility
}

// NewState returns the initial Normal state.
func NewState(visibility Visibility) State {
	if visibility == "" {
		visibility = VisibilityAll
	}
	return State{mode: ModeNormal, visibility: visibility}
}

// Mode returns the active mode.
func (s State) Mode() Mode { return s.mode }

// Selection returns the drilled-into path.
func (s State) Selection() domain.Path { return s.selection }

// Query returns the search query, or "" outside the search modes.
func (s State) Query() string { return s.query }

// FilterKey returns the active filter key, or "" outside the filter modes.
func (s State) FilterKey() string { return s.filterKey }

// Anchor returns the path of the expanded result, or the zero path outside the hierarchy modes.
func (s State) Anchor() domain.Path { return s.anchor }

// Visibility returns the completion visibility.
func (s State) Visibility() Visibility { return s.visibility }

// Select drills into ref. In a flat result mode this expands the result into its hierarchy,
// using the result's ancestors; a leaf result expands to its owning task.
// Selecting at any level clears the selection below it.
func (s State) Select(ref domain.Ref) State {
	switch s.mode {
	case ModeSearchFlat:
		s.mode = ModeSearchHierarchy
		s.anchor = ref.Path()
	case ModeFilterFlat:
		s.mode = ModeFilterHierarchy
		s.anchor = ref.Path()
	}
	s.selection = ref.Path()
	if s.mode.IsHierarchy() && depth(s.selection) < depth(s.anchor) {
		s.selection = s.anchor
	}
	return s
}

// Focus points the selection at a newly created entity. Flat result modes are left alone.
func (s State) Focus(ref domain.Ref) State {
	if s.mode == ModeSearchFlat || s.mode == ModeFilterFlat {
		return s
	}
	return s.Select(ref)
}

// SetSearchQuery enters flat search for a non-blank query, leaving any filter state behind.
// A blank query returns to Normal.
func (s State) SetSearchQuery(query string) State {
	query = strings.TrimSpace(query)
	if query == "" {
		if !s.mode.IsSearch() {
			return s
		}
		return NewState(s.visibility)
	}
	next := NewState(s.visibility)
	next.mode = ModeSearchFlat
	next.query = query
	return next
}

// SetFilter resets every other piece of view state, then applies the named filter.
// The "all" filter returns to Normal.
func (s State) SetFilter(key string) (State, error) {
	f, ok := rules.Lookup(key)
	if !ok {
		return s, fmt.Errorf("%w: %q", rules.ErrUnknownFilter, key)
	}
	next := NewState(s.visibility)
	if f.Key == rules.AllKey {
		return next, nil
	}
	next.mode = ModeFilterFlat
	next.filterKey = f.Key
	return next, nil
}

// ReturnToResults collapses an expanded result back to the flat result lists.
func (s State) ReturnToResults() State {
	switch s.mode {
	case ModeSearchHierarchy:
		s.mode = ModeSearchFlat
	case ModeFilterHierarchy:
		s.mode = ModeFilterFlat
	default:
		return s
	}
	s.anchor = domain.Path{}
	s.selection = domain.Path{}
	return s
}

// SetVisibility changes the completion visibility without touching the mode.
func (s State) SetVisibility(v Visibility) State {
	if v == "" {
		v = VisibilityAll
	}
	s.visibility = v
	return s
}

// Reconcile drops selection levels that no longer resolve in idx. An expanded result whose
// anchor disappeared collapses back to its flat result lists.
func (s State) Reconcile(idx domain.Index) State {
	s.selection = prune(idx, s.selection)
	if s.mode.IsHierarchy() && prune(idx, s.anchor) != s.anchor {
		return s.ReturnToResults()
	}
	return s
}

func prune(idx domain.Index, p domain.Path) domain.Path {
	for level := domain.LevelTask; level >= domain.LevelGoal; level-- {
		if p.At(level) == "" {
			continue
		}
		if !idx.ResolvesPath(p.Truncate(level)) {
			p = p.Truncate(level - 1)
		}
	}
	return p
}

// depth returns the deepest selected level, or 0 for an empty path.
func depth(p domain.Path) domain.Level {
	for level := domain.LevelTask; level >= domain.LevelGoal; level-- {
		if p.At(level) != "" {
			return level
		}
	}
	return 0
}
