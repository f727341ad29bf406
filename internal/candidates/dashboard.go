// Package candidates registers candidates and projects sessions into the
// dashboard views.
package candidates

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/ai-interviewer/internal/session"
)

// NoSummary is shown for candidates that have not been summarized yet.
const NoSummary = "No summary yet"

// Candidate is the dashboard projection of a session.
type Candidate struct {
	SessionID string            `json:"sessionId"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone"`
	Score     int               `json:"score"`
	Summary   string            `json:"summary"`
	Answers   []session.QAEntry `json:"answers"`
	Completed bool              `json:"completed"`
}

// Dashboard is a read-only view over the session store.
type Dashboard struct {
	store session.Store
}

func NewDashboard(store session.Store) *Dashboard {
	return &Dashboard{store: store}
}

// List returns every candidate in creation order.
func (d *Dashboard) List(ctx context.Context) ([]Candidate, error) {
	sessions, err := d.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	out := make([]Candidate, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, project(s))
	}
	return out, nil
}

// Get returns a single candidate or session.ErrNotFound.
func (d *Dashboard) Get(ctx context.Context, id string) (Candidate, error) {
	s, err := d.store.Get(ctx, id)
	if err != nil {
		return Candidate{}, err
	}
	return project(s), nil
}

func project(s *session.Session) Candidate {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		name = "Candidate " + s.ID
	}

	summary := NoSummary
	if s.Summary != nil {
		summary = *s.Summary
	}

	answers := s.Answers
	if answers == nil {
		answers = []session.QAEntry{}
	}

	return Candidate{
		SessionID: s.ID,
		Name:      name,
		Email:     s.Email,
		Phone:     s.Phone,
		Score:     s.FinalScore,
		Summary:   summary,
		Answers:   answers,
		Completed: s.State().Phase == session.Completed,
	}
}

// Search keeps the candidates whose name contains query, ignoring case.
// An empty query returns the list unchanged.
func Search(list []Candidate, query string) []Candidate {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list
	}

	out := make([]Candidate, 0, len(list))
	for _, c := range list {
		if strings.Contains(strings.ToLower(c.Name), query) {
			out = append(out, c)
		}
	}
	return out
}

// SortByScore orders candidates by descending score, then by name.
func SortByScore(list []Candidate) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}
		return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
	})
}

// SortByName orders candidates alphabetically, ignoring case.
func SortByName(list []Candidate) {
	sort.SliceStable(list, func(i, j int) bool {
		return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
	})
}

// Sort applies the named order ("score" or "name"). An empty name keeps the list as is.
func Sort(list []Candidate, by string) error {
	switch strings.ToLower(strings.TrimSpace(by)) {
	case "":
	case "score":
		SortByScore(list)
	case "name":
		SortByName(list)
	default:
		return fmt.Errorf("unknown sort order %q (expected score or name)", by)
	}
	return nil
}
