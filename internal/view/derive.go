package view

import (
	"cmp"
	"slices"

	"github.com/hylla/planboard/internal/domain"
	"github.com/hylla/planboard/internal/rules"
)

// Row is one render-ready entity without its children.
type Row struct {
	domain.Item
	Level          domain.Level         `json:"level"`
	Ancestors      domain.Path          `json:"ancestors"`
	StartDate      string               `json:"startDate,omitempty"`
	EndDate        string               `json:"endDate,omitempty"`
	NextReportDate string               `json:"nextReportDate,omitempty"`
	Amount         string               `json:"amount,omitempty"`
	Status         domain.Status        `json:"status,omitempty"`
	Progress       domain.Progress      `json:"progress,omitempty"`
	Assignee       string               `json:"assignee,omitempty"`
	PriorityLevel  domain.PriorityLevel `json:"priorityLevel,omitempty"`
	Children       int                  `json:"children"`
	Selected       bool                 `json:"selected,omitempty"`
}

// Columns is everything a rendering layer needs to draw the board.
type Columns struct {
	Mode        Mode                 `json:"mode"`
	Selection   domain.Path          `json:"selection"`
	Query       string               `json:"query,omitempty"`
	Filter      string               `json:"filter,omitempty"`
	Visibility  Visibility           `json:"visibility"`
	Headers     domain.ColumnHeaders `json:"headers"`
	Goals       []Row                `json:"goals"`
	Steps       []Row                `json:"steps"`
	Tasks       []Row                `json:"tasks"`
	Initiatives []Row                `json:"initiatives"`
}

// Column returns the rows shown for one level.
func (c Columns) Column(level domain.Level) []Row {
	switch level {
	case domain.LevelGoal:
		return c.Goals
	case domain.LevelStep:
		return c.Steps
	case domain.LevelTask:
		return c.Tasks
	case domain.LevelInitiative:
		return c.Initiatives
	default:
		return nil
	}
}

func (c *Columns) add(r Row) {
	switch r.Level {
	case domain.LevelGoal:
		c.Goals = append(c.Goals, r)
	case domain.LevelStep:
		c.Steps = append(c.Steps, r)
	case domain.LevelTask:
		c.Tasks = append(c.Tasks, r)
	case domain.LevelInitiative:
		c.Initiatives = append(c.Initiatives, r)
	}
}

// Derive computes the four visible lists for st. Entities are resolved by id from tree on every
// call, so a stale selection simply yields shorter lists.
func Derive(tree domain.Tree, st State, ev *rules.Evaluator) (Columns, error) {
	if ev == nil {
		ev = rules.NewEvaluator(nil, nil, rules.DefaultThresholds())
	}
	doc := tree.Document()
	out := Columns{
		Mode:        st.mode,
		Selection:   st.selection,
		Query:       st.query,
		Filter:      st.filterKey,
		Visibility:  st.visibility,
		Headers:     doc.ColumnHeaders.WithDefaults(),
		Goals:       []Row{},
		Steps:       []Row{},
		Tasks:       []Row{},
		Initiatives: []Row{},
	}

	switch st.mode {
	case ModeSearchFlat:
		out.addRefs(tree, st, Search(doc, st.query))
	case ModeFilterFlat:
		refs, err := ev.Apply(doc, st.filterKey)
		if err != nil {
			return out, err
		}
		out.addRefs(tree, st, refs)
	default:
		out.addHierarchy(tree, st)
	}
	return out, nil
}

func (c *Columns) addRefs(tree domain.Tree, st State, refs []domain.Ref) {
	doc, idx := tree.Document(), tree.Index()
	for _, ref := range refs {
		loc, ok := idx.LookupAt(ref.ID, ref.Level)
		if !ok {
			continue
		}
		if r := rowAt(doc, loc); st.visibility.Shows(r.Completed) {
			c.add(r)
		}
	}
}

// addHierarchy fills the columns by walking down the selection. In the hierarchy modes the
// levels covered by the anchor show only the anchored path.
func (c *Columns) addHierarchy(tree domain.Tree, st State) {
	doc, idx := tree.Document(), tree.Index()
	anchorDepth := domain.Level(0)
	if st.mode.IsHierarchy() {
		anchorDepth = depth(st.anchor)
	}

	rows := make([]Row, 0, len(doc.Goals))
	if anchorDepth >= domain.LevelGoal {
		if loc, ok := idx.LookupAt(st.anchor.GoalID, domain.LevelGoal); ok {
			rows = append(rows, goalRow(doc.GoalAt(loc)))
		}
	} else {
		for _, g := range doc.Goals {
			rows = append(rows, goalRow(g))
		}
	}
	c.Goals = visible(rows, st, st.selection.GoalID)

	loc, ok := idx.LookupAt(st.selection.GoalID, domain.LevelGoal)
	if !ok {
		return
	}
	g := doc.GoalAt(loc)
	rows = nil
	for _, s := range g.Steps {
		if anchorDepth >= domain.LevelStep && s.ID != st.anchor.StepID {
			continue
		}
		rows = append(rows, stepRow(s, domain.Path{GoalID: g.ID}))
	}
	c.Steps = visible(rows, st, st.selection.StepID)

	loc, ok = idx.LookupAt(st.selection.StepID, domain.LevelStep)
	if !ok || loc.Ancestors.GoalID != g.ID {
		return
	}
	s := doc.StepAt(loc)
	rows = nil
	for _, t := range s.Tasks {
		if anchorDepth >= domain.LevelTask && t.ID != st.anchor.TaskID {
			continue
		}
		rows = append(rows, taskRow(t, loc.Ancestors.With(domain.LevelStep, s.ID)))
	}
	c.Tasks = visible(rows, st, st.selection.TaskID)

	loc, ok = idx.LookupAt(st.selection.TaskID, domain.LevelTask)
	if !ok || loc.Ancestors.StepID != s.ID {
		return
	}
	t := doc.TaskAt(loc)
	rows = nil
	for _, in := range t.Initiatives {
		rows = append(rows, initiativeRow(in, loc.Ancestors.With(domain.LevelTask, t.ID)))
	}
	c.Initiatives = visible(rows, st, "")
}

// visible applies the completion filter, marks the selected row, and orders rows by orderIndex.
func visible(rows []Row, st State, selectedID string) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if !st.visibility.Shows(r.Completed) {
			continue
		}
		r.Selected = selectedID != "" && r.ID == selectedID
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b Row) int {
		return cmp.Compare(a.OrderIndex, b.OrderIndex)
	})
	return out
}

func rowAt(doc domain.Document, loc domain.Location) Row {
	switch loc.Level {
	case domain.LevelGoal:
		return goalRow(doc.GoalAt(loc))
	case domain.LevelStep:
		return stepRow(doc.StepAt(loc), loc.Ancestors)
	case domain.LevelTask:
		return taskRow(doc.TaskAt(loc), loc.Ancestors)
	default:
		return initiativeRow(doc.InitiativeAt(loc), loc.Ancestors)
	}
}

func goalRow(g domain.Goal) Row {
	return Row{
		Item:           g.Item,
		Level:          domain.LevelGoal,
		StartDate:      g.StartDate,
		EndDate:        g.EndDate,
		NextReportDate: g.NextReportDate,
		Amount:         g.Amount,
		Children:       len(g.Steps),
	}
}

func stepRow(s domain.Step, ancestors domain.Path) Row {
	return Row{
		Item:      s.Item,
		Level:     domain.LevelStep,
		Ancestors: ancestors,
		Status:    s.Status,
		Children:  len(s.Tasks),
	}
}

func taskRow(t domain.Task, ancestors domain.Path) Row {
	return Row{
		Item:      t.Item,
		Level:     domain.LevelTask,
		Ancestors: ancestors,
		Progress:  t.Progress,
		Children:  len(t.Initiatives),
	}
}

func initiativeRow(in domain.Initiative, ancestors domain.Path) Row {
	return Row{
		Item:          in.Item,
		Level:         domain.LevelInitiative,
		Ancestors:     ancestors,
		Assignee:      in.Assignee,
		PriorityLevel: in.PriorityLevel,
	}
}
