package rules

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hylla/planboard/internal/domain"
)

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Warn(msg any, keyvals ...any) {
	l.warnings = append(l.warnings, fmt.Sprint(msg))
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
}

func newTestEvaluator(log Logger) *Evaluator {
	return NewEvaluator(fixedNow, log, DefaultThresholds())
}

func healthyGoal() domain.Goal {
	return domain.Goal{
		Item:           domain.Item{ID: "g1", Title: "Housing"},
		StartDate:      "2026-01-01",
		EndDate:        "2026-12-31",
		NextReportDate: "2026-06-01",
		Steps: []domain.Step{
			{
				Item:   domain.Item{ID: "s1"},
				Status: domain.StatusOnTrack,
				Tasks: []domain.Task{{
					Item:     domain.Item{ID: "t1"},
					Progress: domain.ProgressGoingWell,
					Initiatives: []domain.Initiative{
						{Item: domain.Item{ID: "i1"}},
						{Item: domain.Item{ID: "i2"}},
					},
				}},
			},
			{
				Item:   domain.Item{ID: "s2"},
				Status: domain.StatusInProgress,
				Tasks: []domain.Task{{
					Item:     domain.Item{ID: "t2"},
					Progress: domain.ProgressGoingOKish,
				}},
			},
		},
	}
}

func TestTimelineProgress(t *testing.T) {
	e := newTestEvaluator(nil)
	cases := []struct {
		start, end string
		want       float64
		ok         bool
	}{
		{"2026-01-01", "2026-01-31", 1, true},
		{"2026-02-01", "2026-03-31", 28.0 / 58.0, true},
		{"2026-04-01", "2026-05-01", 0, true},
		{"", "2026-05-01", 0, false},
		{"2026-03-01", "2026-03-01", 1, true},
	}
	for _, tc := range cases {
		got, ok := e.TimelineProgress(domain.Goal{StartDate: tc.start, EndDate: tc.end})
		if ok != tc.ok || got != tc.want {
			t.Fatalf("TimelineProgress(%q, %q) = %v, %v; want %v, %v", tc.start, tc.end, got, ok, tc.want, tc.ok)
		}
	}
}

func TestEndingSoon(t *testing.T) {
	e := newTestEvaluator(nil)
	if !e.EndingSoon(domain.Goal{StartDate: "2026-01-01", EndDate: "2026-03-15"}) {
		t.Fatal("expected goal near its end to be ending soon")
	}
	if e.EndingSoon(domain.Goal{StartDate: "2026-01-01", EndDate: "2026-12-31"}) {
		t.Fatal("expected early goal not ending soon")
	}
}

func TestReportDueness(t *testing.T) {
	e := newTestEvaluator(nil)
	days, ok := e.ReportDueness(domain.Goal{NextReportDate: "2026-03-11"})
	if !ok || days != 10 {
		t.Fatalf("ReportDueness() = %d, %v; want 10, true", days, ok)
	}
	if !e.ReportAlmostDue(domain.Goal{NextReportDate: "2026-04-29"}) {
		t.Fatal("expected report 59 days out to be almost due")
	}
	if e.ReportAlmostDue(domain.Goal{NextReportDate: "2026-04-30"}) {
		t.Fatal("expected report 60 days out not to be almost due")
	}
	if !e.ReportOverdue(domain.Goal{NextReportDate: "2026-02-28"}) {
		t.Fatal("expected past report to be overdue")
	}
	if !e.ReportAlmostDue(domain.Goal{NextReportDate: "2026-02-28"}) {
		t.Fatal("expected overdue report to also be almost due")
	}
	if e.ReportOverdue(domain.Goal{}) {
		t.Fatal("expected missing report date not to be overdue")
	}
}

func TestDoingWellBoundary(t *testing.T) {
	e := newTestEvaluator(nil)
	if !e.DoingWell(healthyGoal()) {
		t.Fatal("expected healthy goal to be doing well")
	}

	past := healthyGoal()
	past.EndDate = "2026-02-28"
	if e.DoingWell(past) {
		t.Fatal("expected goal past its end date to fail")
	}

	undated := healthyGoal()
	undated.EndDate = ""
	undated.NextReportDate = ""
	if !e.DoingWell(undated) {
		t.Fatal("expected goal with no dates to pass")
	}

	atRisk := healthyGoal()
	atRisk.Steps[1].Status = domain.StatusAtRisk
	if e.DoingWell(atRisk) {
		t.Fatal("expected at-risk step to fail")
	}

	struggling := healthyGoal()
	struggling.Steps[0].Tasks[0].Progress = domain.ProgressStruggling
	if e.DoingWell(struggling) {
		t.Fatal("expected struggling task to fail")
	}
}

func TestStillBuilding(t *testing.T) {
	e := newTestEvaluator(nil)
	if e.StillBuilding(healthyGoal()) {
		t.Fatal("expected fleshed-out goal not to be still building")
	}

	oneStep := healthyGoal()
	oneStep.Steps = oneStep.Steps[:1]
	if !e.StillBuilding(oneStep) {
		t.Fatal("expected single-step goal to be still building")
	}

	emptyStep := healthyGoal()
	emptyStep.Steps[1].Tasks = nil
	if !e.StillBuilding(emptyStep) {
		t.Fatal("expected step without tasks to mark still building")
	}

	mostlyDone := healthyGoal()
	mostlyDone.Steps[0].Tasks[0].Initiatives[0].Completed = true
	if !e.StillBuilding(mostlyDone) {
		t.Fatal("expected fewer than two open initiatives to mark still building")
	}
}

func TestMalformedDateDoesNotDropOthers(t *testing.T) {
	log := &recordingLogger{}
	e := newTestEvaluator(log)
	doc := domain.NewDocument(domain.ColumnHeaders{})
	doc.Goals = []domain.Goal{
		{Item: domain.Item{ID: "bad"}, NextReportDate: "someday"},
		{Item: domain.Item{ID: "good"}, NextReportDate: "2026-02-01"},
	}
	refs, err := e.Apply(doc, "report-overdue")
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(refs) != 1 || refs[0].ID != "good" {
		t.Fatalf("unexpected matches %#v", refs)
	}
	if len(log.warnings) != 1 {
		t.Fatalf("expected one diagnostic, got %#v", log.warnings)
	}
}

func TestApplyStepAndTaskFilters(t *testing.T) {
	e := newTestEvaluator(nil)
	g := healthyGoal()
	g.Steps[1].Status = domain.Status("at risk")
	g.Steps[1].Tasks[0].Progress = domain.ProgressStruggling
	doc := domain.Document{Goals: []domain.Goal{g}}

	refs, err := e.Apply(doc, " At-Risk ")
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(refs) != 1 || refs[0].ID != "s2" || refs[0].Ancestors.GoalID != "g1" {
		t.Fatalf("unexpected at-risk matches %#v", refs)
	}

	refs, err = e.Apply(doc, "struggling")
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(refs) != 1 || refs[0].Level != domain.LevelTask || refs[0].Ancestors.StepID != "s2" {
		t.Fatalf("unexpected struggling matches %#v", refs)
	}
}

func TestApplyUnknownFilter(t *testing.T) {
	e := newTestEvaluator(nil)
	if _, err := e.Apply(domain.Document{}, "nope"); !errors.Is(err, ErrUnknownFilter) {
		t.Fatalf("expected ErrUnknownFilter, got %v", err)
	}
}

func TestCatalogStartsWithAll(t *testing.T) {
	filters := Catalog()
	if len(filters) == 0 || filters[0].Key != AllKey {
		t.Fatalf("unexpected catalog %#v", filters)
	}
	if !IsAll("  ALL ") || !IsAll("") || IsAll("at-risk") {
		t.Fatal("unexpected IsAll result")
	}
}
