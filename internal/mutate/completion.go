package mutate

import (
	"fmt"

	"github.com/hylla/planboard/internal/domain"
)

// ToggleCompletion flips one entity's completed flag and pushes the new value down its whole subtree.
func (e *Engine) ToggleCompletion(tree domain.Tree, id string, level domain.Level) (domain.Tree, error) {
	loc, ok := tree.Index().LookupAt(id, level)
	if !ok {
		return tree, fmt.Errorf("toggle %s %q: %w", level, id, domain.ErrNotFound)
	}
	doc := tree.Document().Clone()
	gi, si, ti, ii := loc.Pos[0], loc.Pos[1], loc.Pos[2], loc.Pos[3]
	switch level {
	case domain.LevelGoal:
		g := doc.Goals[gi]
		doc.Goals[gi] = SetGoalCompletion(g, !g.Completed)
	case domain.LevelStep:
		s := doc.Goals[gi].Steps[si]
		doc.Goals[gi].Steps[si] = SetStepCompletion(s, !s.Completed)
	case domain.LevelTask:
		t := doc.Goals[gi].Steps[si].Tasks[ti]
		doc.Goals[gi].Steps[si].Tasks[ti] = SetTaskCompletion(t, !t.Completed)
	case domain.LevelInitiative:
		in := &doc.Goals[gi].Steps[si].Tasks[ti].Initiatives[ii]
		in.Completed = !in.Completed
	}
	return domain.NewTree(doc), nil
}

// SetGoalCompletion returns a copy of g with completed set to value on g and every descendant.
func SetGoalCompletion(g domain.Goal, value bool) domain.Goal {
	g.Completed = value
	if g.Steps != nil {
		steps := make([]domain.Step, len(g.Steps))
		for i, s := range g.Steps {
			steps[i] = SetStepCompletion(s, value)
		}
		g.Steps = steps
	}
	return g
}

// SetStepCompletion returns a copy of s with completed set to value on s and every descendant.
func SetStepCompletion(s domain.Step, value bool) domain.Step {
	s.Completed = value
	if s.Tasks != nil {
		tasks := make([]domain.Task, len(s.Tasks))
		for i, t := range s.Tasks {
			tasks[i] = SetTaskCompletion(t, value)
		}
		s.Tasks = tasks
	}
	return s
}

// SetTaskCompletion returns a copy of t with completed set to value on t and its initiatives.
func SetTaskCompletion(t domain.Task, value bool) domain.Task {
	t.Completed = value
	if t.Initiatives != nil {
		initiatives := make([]domain.Initiative, len(t.Initiatives))
		for i, in := range t.Initiatives {
			in.Completed = value
			initiatives[i] = in
		}
		t.Initiatives = initiatives
	}
	return t
}
