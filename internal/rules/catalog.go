package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hylla/planboard/internal/domain"
)

// ErrUnknownFilter is returned when a filter key is not in the catalog.
var ErrUnknownFilter = errors.New("unknown filter")

// AllKey is the filter key that disables filtering.
const AllKey = "all"

// Filter is one named option of the rule-filter selector.
type Filter struct {
	Key   string       `json:"key"`
	Label string       `json:"label"`
	Level domain.Level `json:"level,omitempty"`

	goal func(*Evaluator, domain.Goal) bool
	step func(*Evaluator, domain.Step) bool
	task func(*Evaluator, domain.Task) bool
}

var catalog = []Filter{
	{Key: AllKey, Label: "All"},
	{Key: "ending-soon", Label: "Ending soon", Level: domain.LevelGoal, goal: (*Evaluator).EndingSoon},
	{Key: "report-due", Label: "Report almost due", Level: domain.LevelGoal, goal: (*Evaluator).ReportAlmostDue},
	{Key: "report-overdue", Label: "Report overdue", Level: domain.LevelGoal, goal: (*Evaluator).ReportOverdue},
	{Key: "doing-well", Label: "Doing well", Level: domain.LevelGoal, goal: (*Evaluator).DoingWell},
	{Key: "still-building", Label: "Still building", Level: domain.LevelGoal, goal: (*Evaluator).StillBuilding},
	{Key: "not-started", Label: "Not started", Level: domain.LevelStep, step: func(_ *Evaluator, s domain.Step) bool {
		return StatusIs(s, domain.StatusNotStarted)
	}},
	{Key: "at-risk", Label: "At risk", Level: domain.LevelStep, step: func(_ *Evaluator, s domain.Step) bool {
		return StatusIs(s, domain.StatusAtRisk)
	}},
	{Key: "struggling", Label: "Struggling", Level: domain.LevelTask, task: func(_ *Evaluator, t domain.Task) bool {
		return ProgressIs(t, domain.ProgressStruggling)
	}},
}

// Catalog lists every filter in selector order, starting with "all".
func Catalog() []Filter {
	return append([]Filter(nil), catalog...)
}

// Lookup finds a filter by key, ignoring case and surrounding space.
func Lookup(key string) (Filter, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		key = AllKey
	}
	for _, f := range catalog {
		if f.Key == key {
			return f, true
		}
	}
	return Filter{}, false
}

// IsAll reports whether key selects the unfiltered view.
func IsAll(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	return key == "" || key == AllKey
}

// Apply evaluates the named filter against every entity at the filter's level and returns
// the matches in tree order. Each entity is evaluated independently.
func (e *Evaluator) Apply(doc domain.Document, key string) ([]domain.Ref, error) {
	f, ok := Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, key)
	}
	var out []domain.Ref
	for _, g := range doc.Goals {
		if f.goal != nil && f.goal(e, g) {
			out = append(out, domain.Ref{Level: domain.LevelGoal, ID: g.ID})
		}
		for _, s := range g.Steps {
			if f.step != nil && f.step(e, s) {
				out = append(out, domain.Ref{Level: domain.LevelStep, ID: s.ID, Ancestors: domain.Path{GoalID: g.ID}})
			}
			if f.task == nil {
				continue
			}
			for _, t := range s.Tasks {
				if f.task(e, t) {
					out = append(out, domain.Ref{
						Level:     domain.LevelTask,
						ID:        t.ID,
						Ancestors: domain.Path{GoalID: g.ID, StepID: s.ID},
					})
				}
			}
		}
	}
	return out, nil
}
