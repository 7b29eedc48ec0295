package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"learnloop/internal/domain"
	"learnloop/internal/domain/model"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrContentInsufficient), errors.Is(err, domain.ErrSchemaValidation):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func (s *Server) sessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		token, err := s.auth.Mint(w, req.UserID)
		if err != nil {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

type studyItemResponse struct {
	Quiz *model.Quiz         `json:"quiz"`
	Type model.StudyItemType `json:"type"`
}

func (s *Server) studySessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		limit := queryInt(r, "limit", 20)
		reviewLimit := queryInt(r, "review_limit", limit)

		items, err := s.studyUC.ComposeSession(r.Context(), claims.UserID, limit, reviewLimit)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out := make([]studyItemResponse, 0, len(items))
		for _, it := range items {
			out = append(out, studyItemResponse{Quiz: it.Quiz, Type: it.Type})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": out})
	}
}

func (s *Server) studyAnswerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		var req struct {
			QuizID    string `json:"quiz_id"`
			IsCorrect bool   `json:"is_correct"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuizID == "" {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		progress, err := s.studyUC.RecordAnswer(r.Context(), claims.UserID, req.QuizID, req.IsCorrect)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"interval_days":  progress.IntervalDays,
			"current_streak": progress.CurrentStreak,
			"ease_factor":    progress.EaseFactor,
			"attempt_count":  progress.AttemptCount,
			"next_review_at": progress.NextReviewAt,
		})
	}
}

func (s *Server) quizListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		offset := queryInt(r, "offset", 0)
		limit := queryInt(r, "limit", 20)

		quizzes, total, err := s.quizUC.List(r.Context(), claims.UserID, offset, limit)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"quizzes": quizzes,
			"total":   total,
		})
	}
}

func (s *Server) quizDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		id := chi.URLParam(r, "id")
		if err := s.quizUC.Delete(r.Context(), claims.UserID, id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) quizProgressHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		id := chi.URLParam(r, "id")
		var req struct {
			Hidden *bool `json:"hidden"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Hidden == nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := s.studyUC.SetHidden(r.Context(), claims.UserID, id, *req.Hidden); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) statsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		stats, err := s.statsUC.GetUserStats(r.Context(), claims.UserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func (s *Server) generateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		var req struct {
			Content   string `json:"content"`
			SourceURL string `json:"source_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		quizzes, err := s.generateUC.GenerateFromContent(r.Context(), claims.UserID, req.Content, req.SourceURL)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"quizzes": quizzes})
	}
}

func (s *Server) batchRequestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		var req struct {
			SourceName string `json:"source_name"`
			Content    string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		created, err := s.quizUC.EnqueueBatchRequest(r.Context(), claims.UserID, req.SourceName, req.Content)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"id":     created.ID,
			"status": created.Status,
		})
	}
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
