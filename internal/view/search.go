package view

import (
	"strings"

	"github.com/hylla/planboard/internal/domain"
)

// Search scans every entity for a case-insensitive substring match against its title and
// level-specific fields. Matches come back in tree order with their ancestors attached.
func Search(doc domain.Document, query string) []domain.Ref {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}
	matches := func(fields ...string) bool {
		for _, f := range fields {
			if f != "" && strings.Contains(strings.ToLower(f), needle) {
				return true
			}
		}
		return false
	}

	var out []domain.Ref
	for _, g := range doc.Goals {
		if matches(g.Title, g.Amount, g.StartDate, g.EndDate, g.NextReportDate) {
			out = append(out, domain.Ref{Level: domain.LevelGoal, ID: g.ID})
		}
		for _, s := range g.Steps {
			stepPath := domain.Path{GoalID: g.ID}
			if matches(s.Title, string(s.Status)) {
				out = append(out, domain.Ref{Level: domain.LevelStep, ID: s.ID, Ancestors: stepPath})
			}
			for _, t := range s.Tasks {
				taskPath := stepPath.With(domain.LevelStep, s.ID)
				if matches(t.Title, string(t.Progress)) {
					out = append(out, domain.Ref{Level: domain.LevelTask, ID: t.ID, Ancestors: taskPath})
				}
				for _, in := range t.Initiatives {
					fields := []string{in.Title, in.Assignee, string(in.PriorityLevel)}
					if in.Meta != nil {
						fields = append(fields, in.Meta.Tags...)
						fields = append(fields, in.Meta.Needs...)
					}
					if matches(fields...) {
						out = append(out, domain.Ref{
							Level:     domain.LevelInitiative,
							ID:        in.ID,
							Ancestors: taskPath.With(domain.LevelTask, t.ID),
						})
					}
				}
			}
		}
	}
	return out
}
