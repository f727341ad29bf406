package server

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/spigell/ai-interviewer/internal/interview"
	"github.com/spigell/ai-interviewer/internal/resume"
	"github.com/spigell/ai-interviewer/internal/session"
	"github.com/spigell/ai-interviewer/internal/validation"
)

// statusFor maps a domain error to the HTTP status and the message shown to the client.
func statusFor(err error) (int, string) {
	switch {
	case validation.IsError(err),
		errors.Is(err, resume.ErrUnsupportedFormat),
		errors.Is(err, resume.ErrEmptyDocument),
		errors.Is(err, session.ErrDifficultyMismatch),
		errors.Is(err, session.ErrUnknownDifficulty):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrNoPendingQuestion),
		errors.Is(err, session.ErrNoAnswers):
		return http.StatusNotFound, rootMessage(err)
	case errors.Is(err, interview.ErrInterviewCompleted):
		return http.StatusConflict, interview.ErrInterviewCompleted.Error()
	case errors.Is(err, interview.ErrQuestionUnavailable):
		return http.StatusInternalServerError, "Failed to generate question"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func rootMessage(err error) string {
	for _, sentinel := range []error{session.ErrNotFound, session.ErrNoPendingQuestion, session.ErrNoAnswers} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	s.respondError(w, status, message)
}
