package domain

import "slices"

// Item holds the fields shared by entities at every level.
type Item struct {
	ID         string `json:"id" yaml:"id"`
	Title      string `json:"title" yaml:"title"`
	Completed  bool   `json:"completed" yaml:"completed"`
	OrderIndex int    `json:"orderIndex" yaml:"orderIndex"`
	Priority   int    `json:"priority" yaml:"priority"`
}

// Goal is a level-1 entity.
type Goal struct {
	Item           `yaml:",inline"`
	StartDate      string `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	EndDate        string `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	NextReportDate string `json:"nextReportDate,omitempty" yaml:"nextReportDate,omitempty"`
	Amount         string `json:"amount,omitempty" yaml:"amount,omitempty"`
	Steps          []Step `json:"steps" yaml:"steps"`
}

// Step is a level-2 entity owned by a goal.
type Step struct {
	Item   `yaml:",inline"`
	GoalID string `json:"goalId" yaml:"goalId"`
	Status Status `json:"status,omitempty" yaml:"status,omitempty"`
	Tasks  []Task `json:"tasks" yaml:"tasks"`
}

// Task is a level-3 entity owned by a step.
type Task struct {
	Item        `yaml:",inline"`
	StepID      string       `json:"stepId" yaml:"stepId"`
	Progress    Progress     `json:"progress,omitempty" yaml:"progress,omitempty"`
	Initiatives []Initiative `json:"initiatives" yaml:"initiatives"`
}

// Initiative is a leaf action owned by a task.
type Initiative struct {
	Item          `yaml:",inline"`
	TaskID        string          `json:"taskId" yaml:"taskId"`
	Assignee      string          `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	PriorityLevel PriorityLevel   `json:"priorityLevel,omitempty" yaml:"priorityLevel,omitempty"`
	Meta          *InitiativeMeta `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// InitiativeMeta carries planning hints consumed by the plan wizard.
type InitiativeMeta struct {
	Tags          []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	ClosenessMin  int      `json:"closenessMin,omitempty" yaml:"closenessMin,omitempty"`
	EstEffortMins int      `json:"estEffortMins,omitempty" yaml:"estEffortMins,omitempty"`
	Needs         []string `json:"needs,omitempty" yaml:"needs,omitempty"`
}

// Clone returns a deep copy of the goal subtree.
func (g Goal) Clone() Goal {
	if g.Steps != nil {
		steps := make([]Step, len(g.Steps))
		for i, s := range g.Steps {
			steps[i] = s.Clone()
		}
		g.Steps = steps
	}
	return g
}

// Clone returns a deep copy of the step subtree.
func (s Step) Clone() Step {
	if s.Tasks != nil {
		tasks := make([]Task, len(s.Tasks))
		for i, t := range s.Tasks {
			tasks[i] = t.Clone()
		}
		s.Tasks = tasks
	}
	return s
}

// Clone returns a deep copy of the task subtree.
func (t Task) Clone() Task {
	if t.Initiatives != nil {
		initiatives := make([]Initiative, len(t.Initiatives))
		for i, in := range t.Initiatives {
			initiatives[i] = in.Clone()
		}
		t.Initiatives = initiatives
	}
	return t
}

// Clone returns a deep copy of the initiative.
func (in Initiative) Clone() Initiative {
	if in.Meta != nil {
		meta := *in.Meta
		meta.Tags = slices.Clone(meta.Tags)
		meta.Needs = slices.Clone(meta.Needs)
		in.Meta = &meta
	}
	return in
}
