package candidates

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/ai-interviewer/internal/logger"
	"github.com/spigell/ai-interviewer/internal/metrics"
	"github.com/spigell/ai-interviewer/internal/session"
	"github.com/spigell/ai-interviewer/internal/validation"
)

const (
	MessageRegistered        = "Candidate registered successfully"
	MessageAlreadyRegistered = "Candidate already registered"
)

// RegisterInput carries the candidate details confirmed by the client.
type RegisterInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Registration is the outcome of Register.
type Registration struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	Existing  bool   `json:"-"`
}

// Registry issues sessions to candidates, reusing the session of a known candidate.
type Registry struct {
	store  session.Store
	logger *zap.Logger
	now    func() time.Time
	newID  func() string

	mu sync.Mutex
}

func NewRegistry(store session.Store, log *zap.Logger) *Registry {
	return &Registry{
		store:  store,
		logger: logger.WithFields(log).Named("registry"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Register matches the candidate by email, or by name and phone when no email
// is given, and creates a new session when nothing matches.
func (r *Registry) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	in = RegisterInput{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
		Phone: strings.TrimSpace(in.Phone),
	}
	if in.Name == "" {
		return nil, validation.New("Name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	if existing := findExisting(sessions, in); existing != nil {
		metrics.Registrations.WithLabelValues("existing").Inc()
		r.logger.Info("candidate already registered", logger.SessionFields(existing.ID, "")...)
		return &Registration{
			SessionID: existing.ID,
			Name:      existing.Name,
			Email:     existing.Email,
			Phone:     existing.Phone,
			Message:   MessageAlreadyRegistered,
			Existing:  true,
		}, nil
	}

	created := session.New(r.newID(), in.Name, in.Email, in.Phone, r.now())
	if err := r.store.Create(ctx, created); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	metrics.Registrations.WithLabelValues("new").Inc()
	r.logger.Info("candidate registered", logger.SessionFields(created.ID, "")...)

	return &Registration{
		SessionID: created.ID,
		Name:      created.Name,
		Email:     created.Email,
		Phone:     created.Phone,
		Message:   MessageRegistered,
	}, nil
}

// CreateFromResume stores a session for an uploaded résumé. Fields the
// résumé did not reveal stay empty until registration confirms them.
func (r *Registry) CreateFromResume(ctx context.Context, name, email, phone string) (string, error) {
	created := session.New(r.newID(), strings.TrimSpace(name), strings.TrimSpace(email), strings.TrimSpace(phone), r.now())
	if err := r.store.Create(ctx, created); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	r.logger.Info("session created from resume", logger.SessionFields(created.ID, "")...)
	return created.ID, nil
}

func findExisting(sessions []*session.Session, in RegisterInput) *session.Session {
	for _, s := range sessions {
		if in.Email != "" {
			if strings.EqualFold(s.Email, in.Email) {
				return s
			}
			continue
		}
		if s.Name == in.Name && s.Phone == in.Phone {
			return s
		}
	}
	return nil
}
