// Package mutate implements structural edits on a board document.
//
// Every operation takes a tree and returns a tree. The input is never modified. When an
// operation cannot apply, the input tree is returned unchanged together with an error
// explaining why, so the caller can treat the call as a no-op.
package mutate

import (
	"fmt"
	"strings"
	"time"

	"github.com/hylla/planboard/internal/domain"
)

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Defaults holds the values applied to fields a caller leaves unset on insert.
type Defaults struct {
	GoalDurationYears    int
	ReportIntervalMonths int
	StepStatus           domain.Status
	TaskProgress         domain.Progress
	InitiativePriority   domain.PriorityLevel
}

// DefaultDefaults returns the stock insert defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		GoalDurationYears:    1,
		ReportIntervalMonths: 3,
		StepStatus:           domain.StatusNotStarted,
		TaskProgress:         domain.ProgressGoingWell,
		InitiativePriority:   domain.PriorityMedium,
	}
}

// Engine applies mutations. It holds no document state.
type Engine struct {
	newID    IDGenerator
	clock    Clock
	defaults Defaults
}

// NewEngine constructs an Engine. A nil clock uses time.Now.
func NewEngine(newID IDGenerator, clock Clock, defaults Defaults) *Engine {
	if newID == nil {
		newID = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if defaults.GoalDurationYears <= 0 {
		defaults.GoalDurationYears = 1
	}
	if defaults.ReportIntervalMonths < 0 {
		defaults.ReportIntervalMonths = 0
	}
	return &Engine{newID: newID, clock: clock, defaults: defaults}
}

// Insert appends a new entity at level under the parent named by parent.
// It returns the new entity's id.
func (e *Engine) Insert(tree domain.Tree, level domain.Level, parent domain.Path, title string, patch domain.Fields) (domain.Tree, string, error) {
	if !level.Valid() {
		return tree, "", domain.ErrInvalidLevel
	}
	idx := tree.Index()
	var parentLoc domain.Location
	if level != domain.LevelGoal {
		parentLevel := level - 1
		parentID := strings.TrimSpace(parent.At(parentLevel))
		loc, ok := idx.LookupAt(parentID, parentLevel)
		if parentID == "" || !ok {
			return tree, "", fmt.Errorf("insert %s: %w", level, domain.ErrParentNotSelected)
		}
		parentLoc = loc
	}

	id := strings.TrimSpace(e.newID())
	if id == "" || idx.Contains(id) {
		return tree, "", fmt.Errorf("insert %s: %w", level, domain.ErrInvalidID)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "New " + level.String()
	}

	doc := tree.Document().Clone()
	gi, si, ti := parentLoc.Pos[0], parentLoc.Pos[1], parentLoc.Pos[2]
	switch level {
	case domain.LevelGoal:
		g := e.newGoal(id, title, len(doc.Goals)+1, patch)
		doc.Goals = append(doc.Goals, g)
	case domain.LevelStep:
		goal := &doc.Goals[gi]
		s := domain.Step{
			Item:   newItem(id, title, len(goal.Steps)+1),
			GoalID: goal.ID,
			Status: e.defaults.StepStatus,
			Tasks:  []domain.Task{},
		}
		patch.ApplyToStep(&s)
		goal.Steps = append(goal.Steps, s)
	case domain.LevelTask:
		step := &doc.Goals[gi].Steps[si]
		t := domain.Task{
			Item:        newItem(id, title, len(step.Tasks)+1),
			StepID:      step.ID,
			Progress:    e.defaults.TaskProgress,
			Initiatives: []domain.Initiative{},
		}
		patch.ApplyToTask(&t)
		step.Tasks = append(step.Tasks, t)
	case domain.LevelInitiative:
		task := &doc.Goals[gi].Steps[si].Tasks[ti]
		in := domain.Initiative{
			Item:          newItem(id, title, len(task.Initiatives)+1),
			TaskID:        task.ID,
			PriorityLevel: e.defaults.InitiativePriority,
		}
		patch.ApplyToInitiative(&in)
		task.Initiatives = append(task.Initiatives, in)
	}
	return domain.NewTree(doc), id, nil
}

// newGoal builds a goal with defaulted dates and a corrected date range.
func (e *Engine) newGoal(id, title string, order int, patch domain.Fields) domain.Goal {
	today := domain.DateOf(e.clock())
	g := domain.Goal{
		Item:           newItem(id, title, order),
		StartDate:      domain.FormatDate(today),
		EndDate:        domain.FormatDate(today.AddDate(e.defaults.GoalDurationYears, 0, 0)),
		NextReportDate: domain.FormatDate(today.AddDate(0, e.defaults.ReportIntervalMonths, 0)),
		Steps:          []domain.Step{},
	}
	patch.ApplyToGoal(&g)
	g.EndDate, _ = domain.CorrectDateRange(g.StartDate, g.EndDate)
	return g
}

// newItem builds the shared fields; priority follows the insertion position until edited.
func newItem(id, title string, order int) domain.Item {
	return domain.Item{
		ID:         id,
		Title:      title,
		OrderIndex: order,
		Priority:   order,
	}
}

// EditFields updates the title and the supplied fields of one entity.
// A blank title keeps the previous one. The id and orderIndex never change.
func (e *Engine) EditFields(tree domain.Tree, id string, level domain.Level, title string, patch domain.Fields) (domain.Tree, error) {
	loc, ok := tree.Index().LookupAt(id, level)
	if !ok {
		return tree, fmt.Errorf("edit %s %q: %w", level, id, domain.ErrNotFound)
	}
	doc := tree.Document().Clone()
	item := itemAt(&doc, loc)
	if title = strings.TrimSpace(title); title != "" {
		item.Title = title
	}

	gi, si, ti, ii := loc.Pos[0], loc.Pos[1], loc.Pos[2], loc.Pos[3]
	switch level {
	case domain.LevelGoal:
		g := &doc.Goals[gi]
		patch.ApplyToGoal(g)
		if patch.StartDate != nil && patch.EndDate != nil {
			g.EndDate, _ = domain.CorrectDateRange(g.StartDate, g.EndDate)
		}
	case domain.LevelStep:
		patch.ApplyToStep(&doc.Goals[gi].Steps[si])
	case domain.LevelTask:
		patch.ApplyToTask(&doc.Goals[gi].Steps[si].Tasks[ti])
	case domain.LevelInitiative:
		patch.ApplyToInitiative(&doc.Goals[gi].Steps[si].Tasks[ti].Initiatives[ii])
	}
	return domain.NewTree(doc), nil
}

// SetColumnHeaders replaces the level labels, keeping stock labels for blanks.
func (e *Engine) SetColumnHeaders(tree domain.Tree, headers domain.ColumnHeaders) domain.Tree {
	doc := tree.Document().Clone()
	doc.ColumnHeaders = headers.WithDefaults()
	return domain.NewTree(doc)
}

// itemAt returns a pointer to the shared fields of the entity at loc inside doc.
func itemAt(doc *domain.Document, loc domain.Location) *domain.Item {
	gi, si, ti, ii := loc.Pos[0], loc.Pos[1], loc.Pos[2], loc.Pos[3]
	switch loc.Level {
	case domain.LevelGoal:
		return &doc.Goals[gi].Item
	case domain.LevelStep:
		return &doc.Goals[gi].Steps[si].Item
	case domain.LevelTask:
		return &doc.Goals[gi].Steps[si].Tasks[ti].Item
	default:
		return &doc.Goals[gi].Steps[si].Tasks[ti].Initiatives[ii].Item
	}
}
