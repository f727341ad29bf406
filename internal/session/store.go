package session

import (
	"context"
	"sort"
)

// Store owns every session. Implementations must be safe for concurrent use
// and hand out copies, so mutation only happens through Update.
type Store interface {
	// Create inserts the session, replacing any record with the same id.
	Create(ctx context.Context, s *Session) error
	// Get returns ErrNotFound when the id is unknown.
	Get(ctx context.Context, id string) (*Session, error)
	// Update applies fn to the stored session atomically. An error returned by
	// fn aborts the update and is passed through.
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
	// List returns every session ordered by creation time.
	List(ctx context.Context) ([]*Session, error)
}

func sortByCreation(sessions []*Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
}
