// Package httpapi exposes the chat endpoint, account endpoints, and the
// direct task CRUD endpoints over chi.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/taskchat/taskchat/internal/store"
)

// ChatService handles one inbound chat message and returns the reply.
type ChatService interface {
	HandleMessage(ctx context.Context, userID int64, message string) (string, error)
}

// Server wires the HTTP handlers to the chat service and the stores.
type Server struct {
	chat     ChatService
	tasks    store.TaskStore
	users    store.UserStore
	logger   *zap.Logger
	validate *validator.Validate
}

// NewServer creates the HTTP server facade.
func NewServer(chat ChatService, tasks store.TaskStore, users store.UserStore, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		chat:     chat,
		tasks:    tasks,
		users:    users,
		logger:   logger,
		validate: validator.New(),
	}
}

// Routes configures all routes and middleware.
func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(s.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", s.healthCheck)

	router.Route("/api", func(r chi.Router) {
		r.Post("/send-message", s.sendMessage)

		r.Post("/signup", s.signup)
		r.Post("/login", s.login)

		r.Get("/tasks", s.listTasks)
		r.Post("/add-task", s.addTask)
		r.Put("/edit-task/{taskID}", s.editTask)
		r.Put("/update-task/{taskID}", s.rescheduleTask)
		r.Delete("/delete-task/{taskID}", s.deleteTask)
		r.Put("/mark-done/{taskID}", s.markDone)
	})

	return router
}

func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// requestLogger logs one line per request with status and latency.
func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
