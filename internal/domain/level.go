package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Level identifies one depth of the board tree.
type Level int

// Level values, outermost first.
const (
	LevelGoal       Level = 1
	LevelStep       Level = 2
	LevelTask       Level = 3
	LevelInitiative Level = 4
)

// Levels lists every level in tree order.
var Levels = []Level{LevelGoal, LevelStep, LevelTask, LevelInitiative}

var levelNames = map[Level]string{
	LevelGoal:       "goal",
	LevelStep:       "step",
	LevelTask:       "task",
	LevelInitiative: "initiative",
}

// Valid reports whether the level is one of the four board levels.
func (l Level) Valid() bool {
	return l >= LevelGoal && l <= LevelInitiative
}

// String returns the canonical lower-case level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "level(" + strconv.Itoa(int(l)) + ")"
}

// IsLeaf reports whether entities at this level carry no children.
func (l Level) IsLeaf() bool {
	return l == LevelInitiative
}

// MarshalText encodes the level by name.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, ErrInvalidLevel
	}
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name or number.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel accepts a level name (plural or singular) or its 1-based number.
func ParseLevel(raw string) (Level, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "goal", "goals", "1":
		return LevelGoal, nil
	case "step", "steps", "2":
		return LevelStep, nil
	case "task", "tasks", "3":
		return LevelTask, nil
	case "initiative", "initiatives", "4":
		return LevelInitiative, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, raw)
	}
}

// Path names the drilled-into entity at each non-leaf level.
type Path struct {
	GoalID string `json:"goalId,omitempty"`
	StepID string `json:"stepId,omitempty"`
	TaskID string `json:"taskId,omitempty"`
}

// At returns the id held for one non-leaf level.
func (p Path) At(level Level) string {
	switch level {
	case LevelGoal:
		return p.GoalID
	case LevelStep:
		return p.StepID
	case LevelTask:
		return p.TaskID
	default:
		return ""
	}
}

// With sets the id at one level and clears every deeper level.
func (p Path) With(level Level, id string) Path {
	switch level {
	case LevelGoal:
		return Path{GoalID: id}
	case LevelStep:
		return Path{GoalID: p.GoalID, StepID: id}
	case LevelTask:
		return Path{GoalID: p.GoalID, StepID: p.StepID, TaskID: id}
	default:
		return p
	}
}

// Truncate keeps levels up to and including the given level.
func (p Path) Truncate(level Level) Path {
	switch {
	case level < LevelGoal:
		return Path{}
	case level == LevelGoal:
		return Path{GoalID: p.GoalID}
	case level == LevelStep:
		return Path{GoalID: p.GoalID, StepID: p.StepID}
	default:
		return p
	}
}

// IsZero reports whether nothing is selected.
func (p Path) IsZero() bool {
	return p == Path{}
}
