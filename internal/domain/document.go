package domain

import "strings"

// Default column header labels.
const (
	DefaultGoalsHeader       = "Big Goals"
	DefaultStepsHeader       = "Milestones"
	DefaultTasksHeader       = "Targets"
	DefaultInitiativesHeader = "Action Steps"
)

// ColumnHeaders holds the display label for each level.
type ColumnHeaders struct {
	Goals       string `json:"goals" yaml:"goals"`
	Steps       string `json:"steps" yaml:"steps"`
	Tasks       string `json:"tasks" yaml:"tasks"`
	Initiatives string `json:"initiatives" yaml:"initiatives"`
}

// DefaultColumnHeaders returns the stock level labels.
func DefaultColumnHeaders() ColumnHeaders {
	return ColumnHeaders{
		Goals:       DefaultGoalsHeader,
		Steps:       DefaultStepsHeader,
		Tasks:       DefaultTasksHeader,
		Initiatives: DefaultInitiativesHeader,
	}
}

// WithDefaults fills blank labels from the stock labels.
func (h ColumnHeaders) WithDefaults() ColumnHeaders {
	def := DefaultColumnHeaders()
	h.Goals = fallback(h.Goals, def.Goals)
	h.Steps = fallback(h.Steps, def.Steps)
	h.Tasks = fallback(h.Tasks, def.Tasks)
	h.Initiatives = fallback(h.Initiatives, def.Initiatives)
	return h
}

// Label returns the header for one level.
func (h ColumnHeaders) Label(level Level) string {
	switch level {
	case LevelGoal:
		return h.Goals
	case LevelStep:
		return h.Steps
	case LevelTask:
		return h.Tasks
	case LevelInitiative:
		return h.Initiatives
	default:
		return ""
	}
}

// Document is the entire persisted board state.
type Document struct {
	ColumnHeaders ColumnHeaders `json:"columnHeaders" yaml:"columnHeaders"`
	Goals         []Goal        `json:"goals" yaml:"goals"`
}

// NewDocument returns an empty board with the given headers.
func NewDocument(headers ColumnHeaders) Document {
	return Document{
		ColumnHeaders: headers.WithDefaults(),
		Goals:         []Goal{},
	}
}

// Clone returns a deep copy so callers can edit without touching the original.
func (d Document) Clone() Document {
	out := Document{ColumnHeaders: d.ColumnHeaders}
	if d.Goals != nil {
		out.Goals = make([]Goal, len(d.Goals))
		for i, g := range d.Goals {
			out.Goals[i] = g.Clone()
		}
	}
	return out
}

// Visit is called once per entity in tree order.
type Visit func(level Level, item Item, path Path)

// Walk visits every entity depth-first in stored order.
func (d Document) Walk(fn Visit) {
	for _, g := range d.Goals {
		fn(LevelGoal, g.Item, Path{})
		for _, s := range g.Steps {
			fn(LevelStep, s.Item, Path{GoalID: g.ID})
			for _, t := range s.Tasks {
				fn(LevelTask, t.Item, Path{GoalID: g.ID, StepID: s.ID})
				for _, in := range t.Initiatives {
					fn(LevelInitiative, in.Item, Path{GoalID: g.ID, StepID: s.ID, TaskID: t.ID})
				}
			}
		}
	}
}

// Counts tallies entities across all four levels.
type Counts struct {
	All       int `json:"all"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

// Count tallies every entity in the document by completion.
func (d Document) Count() Counts {
	var c Counts
	d.Walk(func(_ Level, item Item, _ Path) {
		c.All++
		if item.Completed {
			c.Completed++
		} else {
			c.Active++
		}
	})
	return c
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}
