package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"task-calendar/internal/calendar"
	"task-calendar/internal/model"
	"task-calendar/internal/service"
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

type taskResponse struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	StartDate   string           `json:"start_date"`
	EndDate     *string          `json:"end_date"`
	RepeatType  model.RepeatType `json:"repeat_type"`
	RepeatDay   *int             `json:"repeat_day"`
	SortOrder   int              `json:"sort_order"`
	CreatedAt   time.Time        `json:"created_at"`
}

type createTaskRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	StartDate   string           `json:"start_date"`
	RepeatType  model.RepeatType `json:"repeat_type"`
}

type updateTaskRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	RepeatType  model.RepeatType `json:"repeat_type"`
}

type dateRequest struct {
	Date string `json:"date"`
}

type orderRequest struct {
	IDs []string `json:"ids"`
}

type dayTaskResponse struct {
	taskResponse
	Completed bool `json:"completed"`
}

type dayResponse struct {
	Date        string            `json:"date"`
	Completable bool              `json:"completable"`
	Progress    calendar.Progress `json:"progress"`
	Tasks       []dayTaskResponse `json:"tasks"`
}

type cellResponse struct {
	Date     string            `json:"date"`
	IsToday  bool              `json:"is_today"`
	Progress calendar.Progress `json:"progress"`
}

type gridResponse struct {
	WeekOffset       int            `json:"week_offset"`
	MinWeekOffset    int            `json:"min_week_offset"`
	CanScrollBack    bool           `json:"can_scroll_back"`
	CanScrollForward bool           `json:"can_scroll_forward"`
	Days             []cellResponse `json:"days"`
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.ListTasks(r.Context(), userFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]taskResponse, len(tasks))
	for i, task := range tasks {
		out[i] = toTaskResponse(task)
	}
	writeJSON(w, http.StatusOK, map[string][]taskResponse{"tasks": out})
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.StartDate == "" {
		req.StartDate = calendar.FormatDate(s.today())
	}

	task, err := s.tasks.CreateTask(r.Context(), userFrom(r), service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		RepeatType:  req.RepeatType,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info().Str("task_id", task.ID).Str("repeat", string(task.RepeatType)).Msg("task created")
	writeJSON(w, http.StatusCreated, toTaskResponse(*task))
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	task, err := s.tasks.EditTask(r.Context(), userFrom(r), chi.URLParam(r, "id"), service.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		RepeatType:  req.RepeatType,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(*task))
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.DeleteTask(r.Context(), userFrom(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteAllTasks(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.tasks.DeleteAll(r.Context(), userFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info().Uint("user_id", userFrom(r).ID).Int64("deleted", deleted).Msg("task data wiped")
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (s *Server) reorderTasks(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.tasks.Reorder(r.Context(), userFrom(r), req.IDs); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) endTask(w http.ResponseWriter, r *http.Request) {
	date, err := s.bodyDate(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	task, err := s.tasks.EndTask(r.Context(), userFrom(r), chi.URLParam(r, "id"), date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(*task))
}

func (s *Server) skipOccurrence(w http.ResponseWriter, r *http.Request) {
	date, err := s.bodyDate(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.tasks.SkipOccurrence(r.Context(), userFrom(r), chi.URLParam(r, "id"), date); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) unskipOccurrence(w http.ResponseWriter, r *http.Request) {
	date, err := s.queryDate(r, "date")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	removed, err := s.tasks.UnskipOccurrence(r.Context(), userFrom(r), chi.URLParam(r, "id"), date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (s *Server) toggleCompletion(w http.ResponseWriter, r *http.Request) {
	date, err := s.bodyDate(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	completed, err := s.tasks.ToggleCompletion(r.Context(), userFrom(r), chi.URLParam(r, "id"), date, s.today())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"completed": completed})
}

func (s *Server) nextOccurrence(w http.ResponseWriter, r *http.Request) {
	from, err := s.queryDate(r, "from")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	next, ok, err := s.calendar.NextOccurrence(r.Context(), userFrom(r), chi.URLParam(r, "id"), from)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var date *string
	if ok {
		formatted := calendar.FormatDate(next)
		date = &formatted
	}
	writeJSON(w, http.StatusOK, map[string]*string{"date": date})
}

func (s *Server) day(w http.ResponseWriter, r *http.Request) {
	today := s.today()
	date, err := s.queryDate(r, "date")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.calendar.Day(r.Context(), userFrom(r), date, today)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := dayResponse{
		Date:        calendar.FormatDate(view.Date),
		Completable: view.Completable,
		Progress:    view.Progress,
		Tasks:       make([]dayTaskResponse, len(view.Entries)),
	}
	for i, entry := range view.Entries {
		resp.Tasks[i] = dayTaskResponse{taskResponse: toTaskResponse(entry.Task), Completed: entry.Completed}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) grid(w http.ResponseWriter, r *http.Request) {
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, errors.Join(errBadRequest, errors.New("offset must be an integer")))
			return
		}
		offset = parsed
	}

	view, err := s.calendar.Grid(r.Context(), userFrom(r), s.today(), offset)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := gridResponse{
		WeekOffset:       view.WeekOffset,
		MinWeekOffset:    view.MinWeekOffset,
		CanScrollBack:    view.CanScrollBack,
		CanScrollForward: view.CanScrollForward,
		Days:             make([]cellResponse, len(view.Cells)),
	}
	for i, cell := range view.Cells {
		resp.Days[i] = cellResponse{Date: calendar.FormatDate(cell.Date), IsToday: cell.IsToday, Progress: cell.Progress}
	}
	writeJSON(w, http.StatusOK, resp)
}

// bodyDate reads {"date": "YYYY-MM-DD"}; an empty date means today.
func (s *Server) bodyDate(r *http.Request) (time.Time, error) {
	var req dateRequest
	if err := decode(r, &req); err != nil {
		return time.Time{}, err
	}
	return s.parseDate(req.Date)
}

func (s *Server) queryDate(r *http.Request, key string) (time.Time, error) {
	return s.parseDate(r.URL.Query().Get(key))
}

func (s *Server) parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return s.today(), nil
	}
	date, err := calendar.ParseDate(raw)
	if err != nil {
		return time.Time{}, service.ErrInvalidDate
	}
	return date, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
		err = errors.New("task not found")
	case errors.Is(err, errBadRequest),
		errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidRepeatType):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrFutureDate),
		errors.Is(err, service.ErrNotDue):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decode(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func toTaskResponse(task model.Task) taskResponse {
	return taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		StartDate:   task.StartDate,
		EndDate:     task.EndDate,
		RepeatType:  task.RepeatType,
		RepeatDay:   task.RepeatDay,
		SortOrder:   task.SortOrder,
		CreatedAt:   task.CreatedAt,
	}
}
