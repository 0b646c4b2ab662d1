// Package rules holds the named predicates used to filter a board.
//
// Predicates never fail. A missing date or field means the rule does not apply, and an
// unparseable one is logged and treated the same way, so a single malformed entity never
// hides the rest of a filtered result set.
package rules

import (
	"time"

	"github.com/hylla/planboard/internal/domain"
)

// Logger receives diagnostics about malformed entity data.
type Logger interface {
	Warn(msg any, keyvals ...any)
}

// Thresholds tunes the date-based rules.
type Thresholds struct {
	// EndingSoonFraction is the elapsed timeline share above which a goal is ending soon.
	EndingSoonFraction float64
	// ReportDueDays is the window, in days, inside which a report counts as almost due.
	ReportDueDays int
}

// DefaultThresholds returns the stock rule thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{EndingSoonFraction: 0.70, ReportDueDays: 60}
}

// Evaluator evaluates rules against a fixed notion of today.
type Evaluator struct {
	now        func() time.Time
	log        Logger
	thresholds Thresholds
}

// NewEvaluator constructs an Evaluator. A nil clock uses time.Now and a nil logger discards.
func NewEvaluator(now func() time.Time, logger Logger, thresholds Thresholds) *Evaluator {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = nopLogger{}
	}
	def := DefaultThresholds()
	if thresholds.EndingSoonFraction <= 0 || thresholds.EndingSoonFraction > 1 {
		thresholds.EndingSoonFraction = def.EndingSoonFraction
	}
	if thresholds.ReportDueDays < 0 {
		thresholds.ReportDueDays = def.ReportDueDays
	}
	return &Evaluator{now: now, log: logger, thresholds: thresholds}
}

// Thresholds returns the active thresholds.
func (e *Evaluator) Thresholds() Thresholds {
	return e.thresholds
}

func (e *Evaluator) today() time.Time {
	return domain.DateOf(e.now())
}

// date parses one goal date field. ok is false when the field is empty or malformed;
// only malformed values are logged.
func (e *Evaluator) date(rule string, g domain.Goal, field, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := domain.ParseDate(raw)
	if err != nil {
		e.log.Warn("rule input has an unparseable date", "rule", rule, "id", g.ID, "field", field, "value", raw)
		return time.Time{}, false
	}
	return t, true
}

// TimelineProgress returns the elapsed share of a goal's start..end range, clamped to [0, 1].
// ok is false when either date is missing or malformed.
func (e *Evaluator) TimelineProgress(g domain.Goal) (float64, bool) {
	return e.timelineProgress("timeline-progress", g)
}

func (e *Evaluator) timelineProgress(rule string, g domain.Goal) (float64, bool) {
	start, ok := e.date(rule, g, "startDate", g.StartDate)
	if !ok {
		return 0, false
	}
	end, ok := e.date(rule, g, "endDate", g.EndDate)
	if !ok {
		return 0, false
	}
	today := e.today()
	total := domain.DaysBetween(start, end)
	if total <= 0 {
		if today.Before(start) {
			return 0, true
		}
		return 1, true
	}
	fraction := float64(domain.DaysBetween(start, today)) / float64(total)
	return min(max(fraction, 0), 1), true
}

// EndingSoon reports whether more than the configured share of a goal's timeline has elapsed.
func (e *Evaluator) EndingSoon(g domain.Goal) bool {
	fraction, ok := e.timelineProgress("ending-soon", g)
	return ok && fraction > e.thresholds.EndingSoonFraction
}

// ReportDueness returns the signed number of days until the goal's next report.
func (e *Evaluator) ReportDueness(g domain.Goal) (int, bool) {
	return e.reportDueness("report-dueness", g)
}

func (e *Evaluator) reportDueness(rule string, g domain.Goal) (int, bool) {
	next, ok := e.date(rule, g, "nextReportDate", g.NextReportDate)
	if !ok {
		return 0, false
	}
	return domain.DaysBetween(e.today(), next), true
}

// ReportAlmostDue reports whether the next report falls inside the due window or has passed.
func (e *Evaluator) ReportAlmostDue(g domain.Goal) bool {
	days, ok := e.reportDueness("report-due", g)
	return ok && days < e.thresholds.ReportDueDays
}

// ReportOverdue reports whether the next report date has passed.
func (e *Evaluator) ReportOverdue(g domain.Goal) bool {
	days, ok := e.reportDueness("report-overdue", g)
	return ok && days < 0
}

// DoingWell reports whether a goal is on schedule with no step at risk and no struggling task.
// Missing dates and progress values do not count against the goal; malformed dates do.
func (e *Evaluator) DoingWell(g domain.Goal) bool {
	const rule = "doing-well"
	today := e.today()
	for _, field := range []struct{ name, raw string }{
		{"endDate", g.EndDate},
		{"nextReportDate", g.NextReportDate},
	} {
		if field.raw == "" {
			continue
		}
		at, ok := e.date(rule, g, field.name, field.raw)
		if !ok || at.Before(today) {
			return false
		}
	}
	for _, s := range g.Steps {
		if domain.NormalizeStatus(s.Status) == domain.StatusAtRisk {
			return false
		}
		for _, t := range s.Tasks {
			switch domain.NormalizeProgress(t.Progress) {
			case "", domain.ProgressGoingWell, domain.ProgressGoingOKish:
			default:
				return false
			}
		}
	}
	return true
}

// StillBuilding reports whether a goal's plan is not yet fleshed out: fewer than two steps,
// a step with no tasks, or fewer than two open initiatives in total.
func (e *Evaluator) StillBuilding(g domain.Goal) bool {
	if len(g.Steps) < 2 {
		return true
	}
	open := 0
	for _, s := range g.Steps {
		if len(s.Tasks) == 0 {
			return true
		}
		for _, t := range s.Tasks {
			for _, in := range t.Initiatives {
				if !in.Completed {
					open++
				}
			}
		}
	}
	return open < 2
}

// StatusIs reports whether a step carries the given status.
func StatusIs(s domain.Step, status domain.Status) bool {
	return domain.NormalizeStatus(s.Status) == domain.NormalizeStatus(status)
}

// ProgressIs reports whether a task carries the given progress value.
func ProgressIs(t domain.Task, progress domain.Progress) bool {
	return domain.NormalizeProgress(t.Progress) == domain.NormalizeProgress(progress)
}

type nopLogger struct{}

func (nopLogger) Warn(any, ...any) {}
