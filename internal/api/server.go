// Package api exposes the task calendar over a small JSON HTTP API.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"task-calendar/internal/calendar"
	"task-calendar/internal/logging"
	"task-calendar/internal/model"
	"task-calendar/internal/repository"
	"task-calendar/internal/service"
)

// UserHeader carries the Telegram ID of the calling user.
const UserHeader = "X-Telegram-ID"

type ctxKey int

const userKey ctxKey = iota

// Server serves the HTTP API.
type Server struct {
	users    *repository.UserRepository
	tasks    *service.TaskService
	calendar *service.CalendarService
	loc      *time.Location
	now      func() time.Time
	log      zerolog.Logger
}

// New creates a Server. now is the wall clock; "today" is derived from it once
// per request in loc.
func New(users *repository.UserRepository, tasks *service.TaskService, cal *service.CalendarService, loc *time.Location, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	return &Server{
		users:    users,
		tasks:    tasks,
		calendar: cal,
		loc:      loc,
		now:      now,
		log:      logging.Component("api"),
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.withUser)

		r.Get("/tasks", s.listTasks)
		r.Post("/tasks", s.createTask)
		r.Delete("/tasks", s.deleteAllTasks)
		r.Put("/tasks/order", s.reorderTasks)

		r.Route("/tasks/{id}", func(r chi.Router) {
			r.Put("/", s.updateTask)
			r.Delete("/", s.deleteTask)
			r.Post("/end", s.endTask)
			r.Post("/skip", s.skipOccurrence)
			r.Delete("/skip", s.unskipOccurrence)
			r.Post("/toggle", s.toggleCompletion)
			r.Get("/next", s.nextOccurrence)
		})

		r.Get("/day", s.day)
		r.Get("/calendar", s.grid)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

func (s *Server) today() time.Time {
	return calendar.Today(s.now(), s.loc)
}

func (s *Server) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(UserHeader))
		telegramID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || telegramID == 0 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing or invalid " + UserHeader + " header"})
			return
		}
		user, err := s.users.EnsureByTelegramID(r.Context(), telegramID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func userFrom(r *http.Request) *model.User {
	user, _ := r.Context().Value(userKey).(*model.User)
	return user
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}
