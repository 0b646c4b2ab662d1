package domain

// Location pins one entity inside a document: its level, its ancestor ids, and its slice positions.
type Location struct {
	Level     Level
	Ancestors Path
	// Pos holds the slice index at each depth, outermost first; only the first Level entries are meaningful.
	Pos [4]int
}

// Owner returns the path that selects this entity's parent chain plus the entity itself.
func (l Location) Owner(id string) Path {
	if l.Level.IsLeaf() {
		return l.Ancestors
	}
	return l.Ancestors.With(l.Level, id)
}

// ParentID returns the id of the owning entity, or "" for goals.
func (l Location) ParentID() string {
	return l.Ancestors.At(l.Level - 1)
}

// Index maps every entity id to its location. It is rebuilt whenever the document is replaced.
type Index struct {
	byID       map[string]Location
	duplicates []string
}

// BuildIndex walks the document once and records every entity.
// When an id repeats, the first occurrence wins and the id is reported by Duplicates.
func BuildIndex(doc Document) Index {
	idx := Index{byID: map[string]Location{}}
	add := func(id string, loc Location) {
		if _, exists := idx.byID[id]; exists {
			idx.duplicates = append(idx.duplicates, id)
			return
		}
		idx.byID[id] = loc
	}
	for gi, g := range doc.Goals {
		add(g.ID, Location{Level: LevelGoal, Pos: [4]int{gi}})
		for si, s := range g.Steps {
			add(s.ID, Location{
				Level:     LevelStep,
				Ancestors: Path{GoalID: g.ID},
				Pos:       [4]int{gi, si},
			})
			for ti, t := range s.Tasks {
				add(t.ID, Location{
					Level:     LevelTask,
					Ancestors: Path{GoalID: g.ID, StepID: s.ID},
					Pos:       [4]int{gi, si, ti},
				})
				for ii, in := range t.Initiatives {
					add(in.ID, Location{
						Level:     LevelInitiative,
						Ancestors: Path{GoalID: g.ID, StepID: s.ID, TaskID: t.ID},
						Pos:       [4]int{gi, si, ti, ii},
					})
				}
			}
		}
	}
	return idx
}

// Lookup finds an entity at any level.
func (idx Index) Lookup(id string) (Location, bool) {
	loc, ok := idx.byID[id]
	return loc, ok
}

// LookupAt finds an entity only when it lives at the expected level.
func (idx Index) LookupAt(id string, level Level) (Location, bool) {
	loc, ok := idx.byID[id]
	if !ok || loc.Level != level {
		return Location{}, false
	}
	return loc, true
}

// Contains reports whether the id exists anywhere in the document.
func (idx Index) Contains(id string) bool {
	_, ok := idx.byID[id]
	return ok
}

// Len returns the number of distinct ids.
func (idx Index) Len() int {
	return len(idx.byID)
}

// Duplicates lists ids that occurred more than once.
func (idx Index) Duplicates() []string {
	return append([]string(nil), idx.duplicates...)
}

// ResolvesPath reports whether every id in p exists and the chain is a real parent chain.
func (idx Index) ResolvesPath(p Path) bool {
	if p.GoalID != "" {
		if _, ok := idx.LookupAt(p.GoalID, LevelGoal); !ok {
			return false
		}
	}
	if p.StepID != "" {
		loc, ok := idx.LookupAt(p.StepID, LevelStep)
		if !ok || loc.Ancestors.GoalID != p.GoalID {
			return false
		}
	}
	if p.TaskID != "" {
		loc, ok := idx.LookupAt(p.TaskID, LevelTask)
		if !ok || loc.Ancestors.StepID != p.StepID {
			return false
		}
	}
	return true
}

// GoalAt returns the goal pointed to by loc.
func (d Document) GoalAt(loc Location) Goal {
	return d.Goals[loc.Pos[0]]
}

// StepAt returns the step pointed to by loc.
func (d Document) StepAt(loc Location) Step {
	return d.Goals[loc.Pos[0]].Steps[loc.Pos[1]]
}

// TaskAt returns the task pointed to by loc.
func (d Document) TaskAt(loc Location) Task {
	return d.Goals[loc.Pos[0]].Steps[loc.Pos[1]].Tasks[loc.Pos[2]]
}

// InitiativeAt returns the initiative pointed to by loc.
func (d Document) InitiativeAt(loc Location) Initiative {
	return d.Goals[loc.Pos[0]].Steps[loc.Pos[1]].Tasks[loc.Pos[2]].Initiatives[loc.Pos[3]]
}

// Ref identifies one entity together with its ancestor chain.
type Ref struct {
	Level     Level  `json:"level"`
	ID        string `json:"id"`
	Ancestors Path   `json:"ancestors"`
}

// Path returns the selection path that drills down to the referenced entity.
func (r Ref) Path() Path {
	if r.Level.IsLeaf() {
		return r.Ancestors
	}
	return r.Ancestors.With(r.Level, r.ID)
}

// Ref returns the reference for an indexed id.
func (idx Index) Ref(id string) (Ref, bool) {
	loc, ok := idx.byID[id]
	if !ok {
		return Ref{}, false
	}
	return Ref{Level: loc.Level, ID: id, Ancestors: loc.Ancestors}, true
}
