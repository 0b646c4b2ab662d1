package domain

import "strings"

// Status describes how a step is tracking.
type Status string

// Status values.
const (
	StatusNotStarted Status = "Not started"
	StatusInProgress Status = "In progress"
	StatusOnTrack    Status = "On track"
	StatusAtRisk     Status = "At risk"
	StatusDone       Status = "Done"
)

var knownStatuses = []Status{StatusNotStarted, StatusInProgress, StatusOnTrack, StatusAtRisk, StatusDone}

// Progress describes how a task is going.
type Progress string

// Progress values.
const (
	ProgressGoingWell  Progress = "Going well"
	ProgressGoingOKish Progress = "Going OK-ish"
	ProgressStruggling Progress = "Struggling"
)

var knownProgress = []Progress{ProgressGoingWell, ProgressGoingOKish, ProgressStruggling}

// PriorityLevel ranks an initiative.
type PriorityLevel string

// PriorityLevel values.
const (
	PriorityHigh   PriorityLevel = "High"
	PriorityMedium PriorityLevel = "Medium"
	PriorityLow    PriorityLevel = "Low"
)

var knownPriorityLevels = []PriorityLevel{PriorityHigh, PriorityMedium, PriorityLow}

// NormalizeStatus maps a loosely spelled status onto its canonical form.
// Unknown values are kept as trimmed free text.
func NormalizeStatus(s Status) Status {
	return canonical(s, knownStatuses)
}

// NormalizeProgress maps a loosely spelled progress value onto its canonical form.
func NormalizeProgress(p Progress) Progress {
	return canonical(p, knownProgress)
}

// NormalizePriorityLevel maps a loosely spelled priority onto its canonical form.
func NormalizePriorityLevel(p PriorityLevel) PriorityLevel {
	return canonical(p, knownPriorityLevels)
}

// IsKnownStatus reports whether s is one of the canonical statuses.
func IsKnownStatus(s Status) bool {
	return isKnown(s, knownStatuses)
}

// IsKnownProgress reports whether p is one of the canonical progress values.
func IsKnownProgress(p Progress) bool {
	return isKnown(p, knownProgress)
}

// IsKnownPriorityLevel reports whether p is one of the canonical priority levels.
func IsKnownPriorityLevel(p PriorityLevel) bool {
	return isKnown(p, knownPriorityLevels)
}

func canonical[T ~string](v T, known []T) T {
	trimmed := T(strings.TrimSpace(string(v)))
	for _, k := range known {
		if strings.EqualFold(string(k), string(trimmed)) {
			return k
		}
	}
	return trimmed
}

func isKnown[T ~string](v T, known []T) bool {
	v = canonical(v, known)
	for _, k := range known {
		if k == v {
			return true
		}
	}
	return false
}

// Fields is a partial update of level-specific scalars. A nil pointer means "not supplied".
type Fields struct {
	Priority       *int           `json:"priority,omitempty"`
	StartDate      *string        `json:"startDate,omitempty"`
	EndDate        *string        `json:"endDate,omitempty"`
	NextReportDate *string        `json:"nextReportDate,omitempty"`
	Amount         *string        `json:"amount,omitempty"`
	Status         *Status        `json:"status,omitempty"`
	Progress       *Progress      `json:"progress,omitempty"`
	Assignee       *string        `json:"assignee,omitempty"`
	PriorityLevel  *PriorityLevel `json:"priorityLevel,omitempty"`
}

// ApplyToGoal copies the goal-level fields present in the patch.
func (f Fields) ApplyToGoal(g *Goal) {
	if f.Priority != nil {
		g.Priority = *f.Priority
	}
	if f.StartDate != nil {
		g.StartDate = strings.TrimSpace(*f.StartDate)
	}
	if f.EndDate != nil {
		g.EndDate = strings.TrimSpace(*f.EndDate)
	}
	if f.NextReportDate != nil {
		g.NextReportDate = strings.TrimSpace(*f.NextReportDate)
	}
	if f.Amount != nil {
		g.Amount = strings.TrimSpace(*f.Amount)
	}
}

// ApplyToStep copies the step-level fields present in the patch.
func (f Fields) ApplyToStep(s *Step) {
	if f.Priority != nil {
		s.Priority = *f.Priority
	}
	if f.Status != nil {
		s.Status = NormalizeStatus(*f.Status)
	}
}

// ApplyToTask copies the task-level fields present in the patch.
func (f Fields) ApplyToTask(t *Task) {
	if f.Priority != nil {
		t.Priority = *f.Priority
	}
	if f.Progress != nil {
		t.Progress = NormalizeProgress(*f.Progress)
	}
}

// ApplyToInitiative copies the initiative-level fields present in the patch.
func (f Fields) ApplyToInitiative(in *Initiative) {
	if f.Priority != nil {
		in.Priority = *f.Priority
	}
	if f.Assignee != nil {
		in.Assignee = strings.TrimSpace(*f.Assignee)
	}
	if f.PriorityLevel != nil {
		in.PriorityLevel = NormalizePriorityLevel(*f.PriorityLevel)
	}
}
