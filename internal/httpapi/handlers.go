package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskchat/taskchat/internal/agent"
	"github.com/taskchat/taskchat/internal/model"
	"github.com/taskchat/taskchat/internal/store"
	"github.com/taskchat/taskchat/internal/timeutil"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encoding response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return false
	}
	return true
}

type sendMessageRequest struct {
	UserID  int64  `json:"user_id" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// sendMessage handles POST /api/send-message, the conversational entry
// point. Upstream failures surface as 500 with success=false; the chat
// turn itself never 500s on tool-level problems.
func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		s.respondError(w, http.StatusBadRequest, "message must not be empty")
		return
	}

	reply, err := s.chat.HandleMessage(r.Context(), req.UserID, message)
	switch {
	case errors.Is(err, agent.ErrSnapshotFailed):
		s.logger.Error("task snapshot failed", zap.Int64("user_id", req.UserID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Could not load your tasks. Please try again.")
		return
	case errors.Is(err, agent.ErrBackendFailed):
		s.logger.Error("model backend failed", zap.Int64("user_id", req.UserID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "The assistant is unavailable right now. Please try again.")
		return
	case err != nil:
		s.logger.Error("chat turn failed", zap.Int64("user_id", req.UserID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"reply":   reply,
	})
}

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "Could not create account.")
		return
	}

	userID, err := s.users.CreateUser(r.Context(), req.Name, req.Email, string(hash))
	switch {
	case errors.Is(err, store.ErrEmailTaken):
		s.respondError(w, http.StatusBadRequest, "Email already registered.")
		return
	case err != nil:
		s.logger.Error("creating user", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Could not create account.")
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"uid":     userID,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := s.users.GetUserByEmail(r.Context(), req.Email)
	switch {
	case errors.Is(err, store.ErrBadCredentials):
		s.respondError(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	case err != nil:
		s.logger.Error("fetching user", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Could not log in.")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.respondError(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"uid":     user.ID,
		"name":    user.Name,
	})
}

// userIDQuery parses the mandatory user_id query parameter. Every direct
// task endpoint is owner scoped.
func (s *Server) userIDQuery(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("user_id")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		s.respondError(w, http.StatusBadRequest, "user_id query parameter is required")
		return 0, false
	}
	return userID, true
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userIDQuery(w, r)
	if !ok {
		return
	}

	window := store.Window(r.URL.Query().Get("window"))
	switch window {
	case store.WindowToday, store.WindowWeek:
	default:
		window = store.WindowAll
	}

	anchor := ""
	if raw := r.URL.Query().Get("anchor_date"); raw != "" {
		anchor, _ = timeutil.NormalizeDate(raw)
	}

	tasks, err := s.tasks.ListTasks(r.Context(), userID, window, anchor)
	if err != nil {
		s.logger.Error("listing tasks", zap.Int64("user_id", userID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Could not load tasks.")
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"tasks":   tasks,
	})
}

type addTaskRequest struct {
	UserID      int64  `json:"user_id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"required"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Priority    string `json:"priority" validate:"omitempty,oneof=Low Medium High"`
	Links       string `json:"links"`
}

func (s *Server) addTask(w http.ResponseWriter, r *http.Request) {
	var req addTaskRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	date, _ := timeutil.NormalizeDate(req.Date)
	task := model.Task{
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Date:        date,
		Priority:    req.Priority,
	}
	if hhmm, ok := timeutil.NormalizeTime(req.Time); ok {
		task.Time = &hhmm
	}
	if req.Links != "" {
		task.Links = &req.Links
	}

	created, err := s.tasks.CreateTask(r.Context(), task)
	if err != nil {
		s.logger.Error("creating task", zap.Int64("user_id", req.UserID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Could not create task.")
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"task":    created,
	})
}

type editTaskRequest struct {
	UserID      int64   `json:"user_id" validate:"required"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=Low Medium High"`
	Links       *string `json:"links"`
}

func (s *Server) editTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	var req editTaskRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	patch := store.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Links:       req.Links,
	}
	if req.Date != nil {
		date, _ := timeutil.NormalizeDate(*req.Date)
		patch.Date = &date
	}
	if req.Time != nil {
		if hhmm, ok := timeutil.NormalizeTime(*req.Time); ok {
			patch.Time = &hhmm
		} else {
			empty := ""
			patch.Time = &empty
		}
	}

	task, err := s.tasks.UpdateTask(r.Context(), req.UserID, taskID, patch)
	switch {
	case errors.Is(err, store.ErrNoFields):
		s.respondError(w, http.StatusBadRequest, "No fields to update.")
		return
	case errors.Is(err, store.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "Task not found.")
		return
	case err != nil:
		s.logger.Error("updating task", zap.Int64("user_id", req.UserID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Could not update task.")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"task":    task,
	})
}

type rescheduleTaskRequest struct {
	UserID int64  `json:"user_id" validate:"required"`
	Date   string `json:"date" validate:"required"`
	Time   string `json:"time"`
}

// rescheduleTask handles PUT /api/update-task/{taskID}: a date/time move
// that reopens a completed task.
func (s *Server) rescheduleTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	var req rescheduleTaskRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	date, _ := timeutil.NormalizeDate(req.Date)
	var tm *string
	if hhmm, ok := timeutil.NormalizeTime(req.Time); ok {
		tm = &hhmm
	}

	task, err := s.tasks.RescheduleTask(r.Context(), req.UserID, taskID, date, tm)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "Task not found.")
		return
	case err != nil:
		s.logger.Error("rescheduling task", zap.Int64("user_id", req.UserID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Could not update task.")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"task":    task,
	})
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	userID, ok := s.userIDQuery(w, r)
	if !ok {
		return
	}

	deleted, err := s.tasks.DeleteTask(r.Context(), userID, taskID)
	if err != nil {
		s.logger.Error("deleting task", zap.Int64("user_id", userID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Could not delete task.")
		return
	}
	if !deleted {
		s.respondError(w, http.StatusNotFound, "Task not found.")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

type markDoneRequest struct {
	UserID int64 `json:"user_id" validate:"required"`
	Done   *bool `json:"done"`
}

func (s *Server) markDone(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	var req markDoneRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	done := true
	if req.Done != nil {
		done = *req.Done
	}

	affected, err := s.tasks.SetTaskDone(r.Context(), req.UserID, taskID, done)
	if err != nil {
		s.logger.Error("marking task", zap.Int64("user_id", req.UserID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Could not update task.")
		return
	}
	if !affected {
		s.respondError(w, http.StatusNotFound, "Task not found.")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
