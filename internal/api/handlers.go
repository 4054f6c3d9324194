// Package api exposes the reminder daemon's management surface: a
// bearer-authenticated HTTP API for the CLI and an MCP server for
// agent tooling.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okvist/nudge/internal/command"
	"github.com/okvist/nudge/internal/ringtone"
	"github.com/okvist/nudge/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

type AppDeps struct {
	Store       *storage.Store
	Registry    *ringtone.Registry
	Interpreter *command.Interpreter
	Token       string
}

// NewAppHandler builds the management API router. Everything except
// /health requires the bearer token.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/reminders", handleCreateReminder(deps))
		r.Get("/reminders", handleListReminders(deps))
		r.Get("/reminders/{id}", handleGetReminder(deps))
		r.Patch("/reminders/{id}", handleUpdateReminder(deps))
		r.Delete("/reminders/{id}", handleDeleteReminder(deps))
		r.Post("/reminders/{id}/complete", handleCompleteReminder(deps))

		r.Post("/interpret", handleInterpret(deps))

		r.Get("/ringtones", handleListRingtones(deps))
		r.Put("/ringtones/{name}", handlePutRingtone(deps))
		r.Delete("/ringtones/{name}", handleDeleteRingtone(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleCreateReminder(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var draft storage.Draft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if draft.Title == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "title is required")
			return
		}
		if draft.DueAt.IsZero() {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "due_at is required")
			return
		}

		reminder, err := deps.Store.CreateReminder(draft)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "failed to create reminder: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(reminder)
	}
}

func handleListReminders(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			reminders []storage.Reminder
			err       error
		)
		if r.URL.Query().Get("all") != "" {
			reminders, err = deps.Store.ListReminders()
		} else {
			reminders, err = deps.Store.ListPendingReminders()
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list reminders: %v", err)
			return
		}

		if limit := parseIntParam(r, "limit", 0, 1000); limit > 0 && limit < len(reminders) {
			reminders = reminders[:limit]
		}
		if reminders == nil {
			reminders = []storage.Reminder{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reminders)
	}
}

func handleGetReminder(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reminder, err := deps.Store.GetReminder(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "reminder not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get reminder: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reminder)
	}
}

func handleUpdateReminder(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var patch storage.Patch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if patch.Title != nil && *patch.Title == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "title must not be empty")
			return
		}
		if patch.Priority != nil && !storage.ValidPriority(*patch.Priority) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid priority %q", *patch.Priority)
			return
		}
		if patch.Channel != nil && !storage.ValidChannel(*patch.Channel) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid channel %q", *patch.Channel)
			return
		}

		reminder, err := deps.Store.UpdateReminder(chi.URLParam(r, "id"), patch)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "reminder not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to update reminder: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reminder)
	}
}

func handleDeleteReminder(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.Store.DeleteReminder(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "reminder not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete reminder: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

func handleCompleteReminder(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reminder, err := deps.Store.CompleteReminder(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "reminder not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to complete reminder: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reminder)
	}
}

type InterpretRequest struct {
	Utterance string `json:"utterance"`
}

func handleInterpret(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req InterpretRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Utterance == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "utterance is required")
			return
		}

		cmd, err := deps.Interpreter.Interpret(req.Utterance, time.Now())
		if errors.Is(err, command.ErrNotRecognized) || errors.Is(err, command.ErrEmptyTitle) {
			httpError(w, http.StatusUnprocessableEntity, "command_rejected", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to interpret: %v", err)
			return
		}

		reminder, err := deps.Store.CreateReminder(storage.Draft{
			Title:    cmd.Title,
			DueAt:    cmd.DueAt,
			Priority: cmd.Priority,
			Channel:  cmd.Channel,
			Ringtone: cmd.Ringtone,
		})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create reminder: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(reminder)
	}
}

func handleListRingtones(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(deps.Registry.List())
	}
}

type PutRingtoneRequest struct {
	Source string `json:"source"`
}

func handlePutRingtone(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		name := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "name")))

		var req PutRingtoneRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if err := deps.Registry.Add(name, req.Source); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Store.SaveCustomRingtone(name, req.Source); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to persist ringtone: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "saved"})
	}
}

func handleDeleteRingtone(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "name")))

		if err := deps.Registry.Remove(name); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err := deps.Store.DeleteCustomRingtone(name); err != nil && !errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to remove ringtone: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
