package mutate

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hylla/planboard/internal/domain"
)

func newTestEngine() *Engine {
	n := 0
	ids := func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	now := func() time.Time { return time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC) }
	return NewEngine(ids, now, DefaultDefaults())
}

func ptr[T any](v T) *T { return &v }

// seedTree builds goal g1 with steps s1..s3, task t1 under s1, and initiatives a..d under t1.
func seedTree() domain.Tree {
	doc := domain.NewDocument(domain.ColumnHeaders{})
	var initiatives []domain.Initiative
	for i, id := range []string{"a", "b", "c", "d"} {
		initiatives = append(initiatives, domain.Initiative{
			Item:   domain.Item{ID: id, Title: id, OrderIndex: i + 1, Priority: i + 1},
			TaskID: "t1",
		})
	}
	var steps []domain.Step
	for i, id := range []string{"s1", "s2", "s3"} {
		steps = append(steps, domain.Step{
			Item:   domain.Item{ID: id, Title: id, OrderIndex: i + 1},
			GoalID: "g1",
			Tasks:  []domain.Task{},
		})
	}
	steps[0].Tasks = []domain.Task{{
		Item:        domain.Item{ID: "t1", Title: "t1", OrderIndex: 1},
		StepID:      "s1",
		Initiatives: initiatives,
	}}
	doc.Goals = []domain.Goal{
		{Item: domain.Item{ID: "g1", Title: "g1", OrderIndex: 1}, Steps: steps},
		{Item: domain.Item{ID: "g2", Title: "g2", OrderIndex: 2}, Steps: []domain.Step{}},
	}
	return domain.NewTree(doc)
}

func initiativeOrder(tree domain.Tree) []string {
	var out []string
	for _, in := range tree.Document().Goals[0].Steps[0].Tasks[0].Initiatives {
		out = append(out, in.ID)
	}
	return out
}

func assertDense[T any](t *testing.T, items []T, item func(*T) *domain.Item) {
	t.Helper()
	for i := range items {
		if got := item(&items[i]).OrderIndex; got != i+1 {
			t.Fatalf("orderIndex at %d = %d, want %d", i, got, i+1)
		}
	}
}

func TestInsertGoalAppliesDefaults(t *testing.T) {
	e := newTestEngine()
	tree, id, err := e.Insert(domain.NewTree(domain.NewDocument(domain.ColumnHeaders{})), domain.LevelGoal, domain.Path{}, "  ", domain.Fields{})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	g := tree.Document().Goals[0]
	if g.ID != id || g.Title != "New goal" {
		t.Fatalf("unexpected goal %#v", g.Item)
	}
	if g.StartDate != "2024-06-01" || g.EndDate != "2025-06-01" || g.NextReportDate != "2024-09-01" {
		t.Fatalf("unexpected dates %s %s %s", g.StartDate, g.EndDate, g.NextReportDate)
	}
	if g.OrderIndex != 1 || g.Priority != 1 {
		t.Fatalf("unexpected order %d priority %d", g.OrderIndex, g.Priority)
	}
}

func TestInsertGoalCorrectsBackwardsRange(t *testing.T) {
	e := newTestEngine()
	patch := domain.Fields{StartDate: ptr("2024-06-01"), EndDate: ptr("2024-01-01")}
	tree, _, err := e.Insert(domain.NewTree(domain.NewDocument(domain.ColumnHeaders{})), domain.LevelGoal, domain.Path{}, "Goal", patch)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if got := tree.Document().Goals[0].EndDate; got != "2025-06-01" {
		t.Fatalf("expected corrected end date, got %s", got)
	}
}

func TestInsertRequiresSelectedParent(t *testing.T) {
	e := newTestEngine()
	tree := seedTree()
	got, _, err := e.Insert(tree, domain.LevelTask, domain.Path{GoalID: "g1"}, "x", domain.Fields{})
	if !errors.Is(err, domain.ErrParentNotSelected) {
		t.Fatalf("expected ErrParentNotSelected, got %v", err)
	}
	if got.Index().Len() != tree.Index().Len() {
		t.Fatal("expected unchanged tree")
	}
	_, _, err = e.Insert(tree, domain.LevelStep, domain.Path{GoalID: "s1"}, "x", domain.Fields{})
	if !errors.Is(err, domain.ErrParentNotSelected) {
		t.Fatalf("expected ErrParentNotSelected for wrong level parent, got %v", err)
	}
}

func TestInsertInitiativeAppendsAtEnd(t *testing.T) {
	e := newTestEngine()
	parent := domain.Path{GoalID: "g1", StepID: "s1", TaskID: "t1"}
	tree, id, err := e.Insert(seedTree(), domain.LevelInitiative, parent, "e", domain.Fields{Assignee: ptr(" Sam ")})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	loc, ok := tree.Index().LookupAt(id, domain.LevelInitiative)
	if !ok {
		t.Fatal("expected new initiative in index")
	}
	in := tree.Document().InitiativeAt(loc)
	if in.OrderIndex != 5 || in.TaskID != "t1" || in.Assignee != "Sam" || in.PriorityLevel != domain.PriorityMedium {
		t.Fatalf("unexpected initiative %#v", in)
	}
}

func TestInsertRejectsDuplicateID(t *testing.T) {
	e := NewEngine(func() string { return "g1" }, nil, DefaultDefaults())
	if _, _, err := e.Insert(seedTree(), domain.LevelGoal, domain.Path{}, "x", domain.Fields{}); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestEditFieldsKeepsTitleWhenBlank(t *testing.T) {
	e := newTestEngine()
	tree, err := e.EditFields(seedTree(), "s2", domain.LevelStep, "   ", domain.Fields{Status: ptr(domain.Status("at risk"))})
	if err != nil {
		t.Fatalf("EditFields() error = %v", err)
	}
	s := tree.Document().Goals[0].Steps[1]
	if s.Title != "s2" || s.Status != domain.StatusAtRisk || s.OrderIndex != 2 {
		t.Fatalf("unexpected step %#v", s)
	}
}

func TestEditFieldsCorrectsDatesOnlyWhenBothSupplied(t *testing.T) {
	e := newTestEngine()
	tree, err := e.EditFields(seedTree(), "g1", domain.LevelGoal, "", domain.Fields{StartDate: ptr("2024-06-01"), EndDate: ptr("2024-01-01")})
	if err != nil {
		t.Fatalf("EditFields() error = %v", err)
	}
	if got := tree.Document().Goals[0].EndDate; got != "2025-06-01" {
		t.Fatalf("expected corrected end date, got %s", got)
	}
	tree, err = e.EditFields(tree, "g1", domain.LevelGoal, "", domain.Fields{EndDate: ptr("2024-01-01")})
	if err != nil {
		t.Fatalf("EditFields() error = %v", err)
	}
	if got := tree.Document().Goals[0].EndDate; got != "2024-01-01" {
		t.Fatalf("expected single-field edit to be kept, got %s", got)
	}
}

func TestEditFieldsUnknownID(t *testing.T) {
	e := newTestEngine()
	if _, err := e.EditFields(seedTree(), "missing", domain.LevelGoal, "x", domain.Fields{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestToggleCompletionCascades(t *testing.T) {
	e := newTestEngine()
	original := seedTree()
	tree, err := e.ToggleCompletion(original, "g1", domain.LevelGoal)
	if err != nil {
		t.Fatalf("ToggleCompletion() error = %v", err)
	}
	g := tree.Document().Goals[0]
	if !g.Completed {
		t.Fatal("expected goal completed")
	}
	for _, s := range g.Steps {
		if !s.Completed {
			t.Fatalf("expected step %s completed", s.ID)
		}
	}
	for _, in := range g.Steps[0].Tasks[0].Initiatives {
		if !in.Completed {
			t.Fatalf("expected initiative %s completed", in.ID)
		}
	}
	if tree.Document().Goals[1].Completed {
		t.Fatal("expected sibling goal untouched")
	}
	if original.Document().Goals[0].Steps[0].Tasks[0].Initiatives[0].Completed {
		t.Fatal("expected input tree untouched")
	}

	tree, err = e.ToggleCompletion(tree, "t1", domain.LevelTask)
	if err != nil {
		t.Fatalf("ToggleCompletion() error = %v", err)
	}
	task := tree.Document().Goals[0].Steps[0].Tasks[0]
	if task.Completed || task.Initiatives[3].Completed {
		t.Fatal("expected task subtree uncompleted")
	}
	if !tree.Document().Goals[0].Completed {
		t.Fatal("expected ancestor goal to keep its flag")
	}
}

func TestToggleInitiativeLeavesParent(t *testing.T) {
	e := newTestEngine()
	tree, err := e.ToggleCompletion(seedTree(), "b", domain.LevelInitiative)
	if err != nil {
		t.Fatalf("ToggleCompletion() error = %v", err)
	}
	task := tree.Document().Goals[0].Steps[0].Tasks[0]
	if task.Completed || !task.Initiatives[1].Completed || task.Initiatives[0].Completed {
		t.Fatalf("unexpected completion state %#v", task)
	}
}

func TestDeleteRenumbersSiblings(t *testing.T) {
	e := newTestEngine()
	tree, err := e.Delete(seedTree(), "s2", domain.LevelStep)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	steps := tree.Document().Goals[0].Steps
	if len(steps) != 2 || steps[0].ID != "s1" || steps[1].ID != "s3" {
		t.Fatalf("unexpected steps %#v", steps)
	}
	assertDense(t, steps, stepItem)
}

func TestDeleteRemovesSubtreeFromIndex(t *testing.T) {
	e := newTestEngine()
	tree, err := e.Delete(seedTree(), "s1", domain.LevelStep)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	for _, id := range []string{"s1", "t1", "a", "d"} {
		if tree.Index().Contains(id) {
			t.Fatalf("expected %s removed", id)
		}
	}
	if _, err := e.Delete(tree, "s1", domain.LevelStep); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReorderMovesSourceToTargetPosition(t *testing.T) {
	e := newTestEngine()
	parent := domain.Path{GoalID: "g1", StepID: "s1", TaskID: "t1"}
	tree, err := e.Reorder(seedTree(), domain.LevelInitiative, parent, "a", "c")
	if err != nil {
		t.Fatalf("Reorder() error = %v", err)
	}
	got := initiativeOrder(tree)
	want := []string{"b", "c", "a", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	assertDense(t, tree.Document().Goals[0].Steps[0].Tasks[0].Initiatives, initiativeItem)

	tree, err = e.Reorder(tree, domain.LevelInitiative, parent, "d", "b")
	if err != nil {
		t.Fatalf("Reorder() error = %v", err)
	}
	if got := initiativeOrder(tree); got[0] != "d" || got[1] != "b" {
		t.Fatalf("unexpected order after upward move %v", got)
	}
}

func TestReorderSameIDIsNoop(t *testing.T) {
	e := newTestEngine()
	tree := seedTree()
	got, err := e.Reorder(tree, domain.LevelGoal, domain.Path{}, "g2", "g2")
	if err != nil {
		t.Fatalf("Reorder() error = %v", err)
	}
	if got.Document().Goals[1].ID != "g2" || got.Document().Goals[1].OrderIndex != 2 {
		t.Fatal("expected unchanged goals")
	}
}

func TestReorderRejectsNonSiblings(t *testing.T) {
	e := newTestEngine()
	tree := seedTree()
	if _, err := e.Reorder(tree, domain.LevelStep, domain.Path{GoalID: "g1"}, "s1", "g2"); !errors.Is(err, domain.ErrNotSiblings) {
		t.Fatalf("expected ErrNotSiblings, got %v", err)
	}
	if _, err := e.Reorder(tree, domain.LevelStep, domain.Path{GoalID: "g2"}, "s1", "s2"); !errors.Is(err, domain.ErrNotSiblings) {
		t.Fatalf("expected ErrNotSiblings for stale parent, got %v", err)
	}
	if _, err := e.Reorder(tree, domain.LevelStep, domain.Path{}, "s1", "s2"); !errors.Is(err, domain.ErrParentNotSelected) {
		t.Fatalf("expected ErrParentNotSelected, got %v", err)
	}
}

func TestMoveWithin(t *testing.T) {
	in := []int{1, 2, 3, 4}
	got := MoveWithin(in, 3, 0)
	want := []int{4, 1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MoveWithin() = %v, want %v", got, want)
		}
	}
	if in[0] != 1 {
		t.Fatal("expected input untouched")
	}
	if out := MoveWithin(in, 9, 0); len(out) != 4 || out[0] != 1 {
		t.Fatalf("expected copy for out-of-range move, got %v", out)
	}
}

func TestSetColumnHeaders(t *testing.T) {
	e := newTestEngine()
	tree := e.SetColumnHeaders(seedTree(), domain.ColumnHeaders{Goals: "Aims"})
	h := tree.Document().ColumnHeaders
	if h.Goals != "Aims" || h.Steps != domain.DefaultStepsHeader {
		t.Fatalf("unexpected headers %#v", h)
	}
}
