package mutate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hylla/planboard/internal/domain"
)

// Delete removes one entity together with its subtree and renumbers the remaining siblings 1..n.
func (e *Engine) Delete(tree domain.Tree, id string, level domain.Level) (domain.Tree, error) {
	loc, ok := tree.Index().LookupAt(id, level)
	if !ok {
		return tree, fmt.Errorf("delete %s %q: %w", level, id, domain.ErrNotFound)
	}
	doc := tree.Document().Clone()
	gi, si, ti, ii := loc.Pos[0], loc.Pos[1], loc.Pos[2], loc.Pos[3]
	switch level {
	case domain.LevelGoal:
		doc.Goals = Renumber(slices.Delete(doc.Goals, gi, gi+1), goalItem)
	case domain.LevelStep:
		g := &doc.Goals[gi]
		g.Steps = Renumber(slices.Delete(g.Steps, si, si+1), stepItem)
	case domain.LevelTask:
		s := &doc.Goals[gi].Steps[si]
		s.Tasks = Renumber(slices.Delete(s.Tasks, ti, ti+1), taskItem)
	case domain.LevelInitiative:
		t := &doc.Goals[gi].Steps[si].Tasks[ti]
		t.Initiatives = Renumber(slices.Delete(t.Initiatives, ii, ii+1), initiativeItem)
	}
	return domain.NewTree(doc), nil
}

// Reorder moves source to target's position among their shared siblings.
// parent names the owning entity for levels below goal and must match both ids' parent.
func (e *Engine) Reorder(tree domain.Tree, level domain.Level, parent domain.Path, sourceID, targetID string) (domain.Tree, error) {
	if !level.Valid() {
		return tree, domain.ErrInvalidLevel
	}
	idx := tree.Index()
	src, ok := idx.LookupAt(sourceID, level)
	if !ok {
		return tree, fmt.Errorf("reorder source %s %q: %w", level, sourceID, domain.ErrNotSiblings)
	}
	dst, ok := idx.LookupAt(targetID, level)
	if !ok {
		return tree, fmt.Errorf("reorder target %s %q: %w", level, targetID, domain.ErrNotSiblings)
	}
	if src.ParentID() != dst.ParentID() {
		return tree, fmt.Errorf("reorder %s %q -> %q: %w", level, sourceID, targetID, domain.ErrNotSiblings)
	}
	if level != domain.LevelGoal {
		want := strings.TrimSpace(parent.At(level - 1))
		if want == "" {
			return tree, fmt.Errorf("reorder %s: %w", level, domain.ErrParentNotSelected)
		}
		if want != src.ParentID() {
			return tree, fmt.Errorf("reorder %s under %q: %w", level, want, domain.ErrNotSiblings)
		}
	}
	if sourceID == targetID {
		return tree, nil
	}

	from, to := src.Pos[level-1], dst.Pos[level-1]
	doc := tree.Document().Clone()
	gi, si, ti := src.Pos[0], src.Pos[1], src.Pos[2]
	switch level {
	case domain.LevelGoal:
		doc.Goals = Renumber(MoveWithin(doc.Goals, from, to), goalItem)
	case domain.LevelStep:
		g := &doc.Goals[gi]
		g.Steps = Renumber(MoveWithin(g.Steps, from, to), stepItem)
	case domain.LevelTask:
		s := &doc.Goals[gi].Steps[si]
		s.Tasks = Renumber(MoveWithin(s.Tasks, from, to), taskItem)
	case domain.LevelInitiative:
		t := &doc.Goals[gi].Steps[si].Tasks[ti]
		t.Initiatives = Renumber(MoveWithin(t.Initiatives, from, to), initiativeItem)
	}
	return domain.NewTree(doc), nil
}

// MoveWithin returns a new slice with the element at from removed and reinserted at to.
// Elements between the two positions shift by one. Out-of-range positions return a plain copy.
func MoveWithin[T any](items []T, from, to int) []T {
	out := slices.Clone(items)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	moved := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, moved)
}

// Renumber assigns orderIndex 1..n following slice order.
func Renumber[T any](items []T, item func(*T) *domain.Item) []T {
	for i := range items {
		item(&items[i]).OrderIndex = i + 1
	}
	return items
}

func goalItem(g *domain.Goal) *domain.Item { return &g.Item }
func stepItem(s *domain.Step) *domain.Item { return &s.Item }
func taskItem(t *domain.Task) *domain.Item { return &t.Item }
func initiativeItem(in *domain.Initiative) *domain.Item { return &in.Item }
