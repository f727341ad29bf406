package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/spigell/ai-interviewer/internal/candidates"
	"github.com/spigell/ai-interviewer/internal/export"
	"github.com/spigell/ai-interviewer/internal/interview"
	"github.com/spigell/ai-interviewer/internal/resume"
	"github.com/spigell/ai-interviewer/internal/validation"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type uploadResponse struct {
	SessionID string `json:"sessionId"`
	resume.Fields
}

type summaryRequest struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) handleResumeUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("File exceeds the %d byte limit", s.cfg.MaxUploadBytes))
			return
		}
		s.respondError(w, http.StatusBadRequest, "Failed to parse upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("resume")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	format, err := resume.DetectFormat(header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	text, err := resume.ExtractText(format, file, header.Size)
	if err != nil {
		if errors.Is(err, resume.ErrEmptyDocument) {
			s.fail(w, r, err)
			return
		}
		s.logger.Warn("failed to parse resume", zap.String("filename", header.Filename), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to parse resume")
		return
	}

	fields := resume.ExtractFields(text)
	id, err := s.registry.CreateFromResume(r.Context(), fields.Name, fields.Email, fields.Phone)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, uploadResponse{SessionID: id, Fields: fields})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in candidates.RegisterInput
	if err := s.decode(r, validation.Register, &in); err != nil {
		s.fail(w, r, err)
		return
	}

	reg, err := s.registry.Register(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, reg)
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	var in interview.QuestionInput
	if err := s.decode(r, validation.Question, &in); err != nil {
		s.fail(w, r, err)
		return
	}

	question, err := s.interview.GenerateQuestion(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, question)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var in interview.AnswerInput
	if err := s.decode(r, validation.Answer, &in); err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.interview.SubmitAnswer(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var in summaryRequest
	if err := s.decode(r, validation.Summary, &in); err != nil {
		s.fail(w, r, err)
		return
	}

	summary, err := s.interview.Summarize(r.Context(), in.SessionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.interview.Session(r.Context(), r.PathValue("sessionId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	list, err := s.dashboard.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleCandidate(w http.ResponseWriter, r *http.Request) {
	candidate, err := s.dashboard.Get(r.Context(), r.PathValue("sessionId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, candidate)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	list, err := s.dashboard.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	list = candidates.Search(list, r.URL.Query().Get("search"))
	sortBy := r.URL.Query().Get("sort")
	if sortBy == "" {
		sortBy = "score"
	}
	if err := candidates.Sort(list, sortBy); err != nil {
		s.fail(w, r, validation.New("%s", err.Error()))
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, list); err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="candidates.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("failed to write workbook", zap.Error(err))
	}
}

// decode validates the JSON body against the named schema and unmarshals it into dst.
func (s *Server) decode(r *http.Request, schema string, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxJSONBodyBytes))
	if err != nil {
		return validation.New("failed to read request body")
	}

	if err := validation.Validate(schema, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return &validation.Error{Message: "invalid request body", Details: []string{err.Error()}}
	}
	return nil
}
