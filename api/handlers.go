package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskdash-api/command"
	"taskdash-api/domain"
	"taskdash-api/stats"
)

const requestBodyMaxSize = 1 << 20

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, term Terminal, auth Authenticator, logger *log.Logger) {
	e.GET("/api/tasks", getTasks(store, auth, logger))
	e.GET("/api/tasks/filter", filterTasks(store, auth))
	e.GET("/api/tasks/today", todayTasks(store, auth))
	e.GET("/api/tasks/stats", taskStats(store, auth))
	e.GET("/api/tasks/calendar", taskCalendar(store, auth))
	e.POST("/api/tasks", createTask(store, auth))
	e.PATCH("/api/tasks/:id", updateTask(store, auth))
	e.PATCH("/api/tasks/:id/complete", completeTask(store, auth))
	e.DELETE("/api/tasks/:id", deleteTask(store, auth))
	e.POST("/api/terminal", execTerminal(term, auth))
	e.GET("/api/terminal/history", terminalHistory(term, auth))
	e.GET("/healthz", healthz())
}

type errorResponse struct {
	Message string `json:"message"`
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func getTasks(store Storage, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newTaskRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		_, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		fetchStart := time.Now()
		tasks, fetchErr := store.ListTasks(ctx)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = c.JSON(http.StatusInternalServerError, errorResponse{Message: "Failed to fetch tasks"})
			return err
		}
		metrics.SetTasksReturned(len(tasks))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasks)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

// filterTasks intersects the category, priority and date query params over the
// sorted list: a task must match every provided param.
func filterTasks(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		tasks, err := store.ListTasks(ctx)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Failed to filter tasks"})
		}

		category := c.QueryParam("category")
		priority := c.QueryParam("priority")
		date := c.QueryParam("date")

		filtered := make([]domain.Task, 0, len(tasks))
		for _, t := range tasks {
			if category != "" && string(t.Category) != category {
				continue
			}
			if priority != "" && string(t.Priority) != priority {
				continue
			}
			if date != "" && t.DueDate != date {
				continue
			}
			filtered = append(filtered, t)
		}
		return c.JSON(http.StatusOK, filtered)
	}
}

func todayTasks(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		tasks, err := store.TasksByDate(ctx, domain.Today())
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Failed to fetch today's tasks"})
		}
		return c.JSON(http.StatusOK, tasks)
	}
}

func taskStats(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		tasks, err := store.ListTasks(ctx)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Failed to fetch task statistics"})
		}
		return c.JSON(http.StatusOK, stats.Compute(tasks, domain.Today()))
	}
}

type calendarResponse struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Days  []stats.DayCell `json:"days"`
}

func taskCalendar(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		now := time.Now()
		year, month := now.Year(), int(now.Month())
		if v := strings.TrimSpace(c.QueryParam("year")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid year"})
			}
			year = n
		}
		if v := strings.TrimSpace(c.QueryParam("month")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 12 {
				return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid month"})
			}
			month = n
		}

		tasks, err := store.ListTasks(ctx)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Failed to fetch task calendar"})
		}
		return c.JSON(http.StatusOK, calendarResponse{
			Year:  year,
			Month: month,
			Days:  stats.Month(year, time.Month(month), tasks, domain.Today()),
		})
	}
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	DueDate     string `json:"dueDate"`
}

func (r createTaskRequest) fields() (domain.TaskFields, string) {
	fields := domain.TaskFields{
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		DueDate:     r.DueDate,
	}
	if fields.Title == "" {
		return domain.TaskFields{}, "Task title is required"
	}
	if r.Priority != "" {
		p, ok := domain.ParsePriority(r.Priority)
		if !ok {
			return domain.TaskFields{}, "Invalid priority"
		}
		fields.Priority = p
	}
	if r.Category != "" {
		cat, ok := domain.ParseCategory(r.Category)
		if !ok {
			return domain.TaskFields{}, "Invalid category"
		}
		fields.Category = cat
	}
	if r.DueDate != "" && !domain.ValidDate(r.DueDate) {
		return domain.TaskFields{}, "Invalid due date"
	}
	return fields, ""
}

func decodeBody(c echo.Context, dst any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func createTask(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		var req createTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid task data"})
		}
		fields, msg := req.fields()
		if msg != "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: msg})
		}

		task, err := store.CreateTask(ctx, fields)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Failed to create task"})
		}
		return c.JSON(http.StatusCreated, task)
	}
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Category    *string `json:"category"`
	DueDate     *string `json:"dueDate"`
}

func (r updateTaskRequest) patch() (domain.TaskPatch, string) {
	var patch domain.TaskPatch
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return domain.TaskPatch{}, "Task title is required"
		}
		patch.Title = &title
	}
	patch.Description = r.Description
	if r.Priority != nil {
		p, ok := domain.ParsePriority(*r.Priority)
		if !ok {
			return domain.TaskPatch{}, "Invalid priority"
		}
		patch.Priority = &p
	}
	if r.Category != nil {
		cat, ok := domain.ParseCategory(*r.Category)
		if !ok {
			return domain.TaskPatch{}, "Invalid category"
		}
		patch.Category = &cat
	}
	if r.DueDate != nil {
		// An empty string clears the due date.
		if *r.DueDate != "" && !domain.ValidDate(*r.DueDate) {
			return domain.TaskPatch{}, "Invalid due date"
		}
		patch.DueDate = r.DueDate
	}
	return patch, ""
}

func updateTask(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		var req updateTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid task data"})
		}
		patch, msg := req.patch()
		if msg != "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: msg})
		}

		task, found, err := store.UpdateTask(ctx, c.Param("id"), patch)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Failed to update task"})
		}
		if !found {
			return c.JSON(http.StatusNotFound, errorResponse{Message: "Task not found"})
		}
		return c.JSON(http.StatusOK, task)
	}
}

func completeTask(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		task, found, err := store.CompleteTask(ctx, c.Param("id"))
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Failed to complete task"})
		}
		if !found {
			return c.JSON(http.StatusNotFound, errorResponse{Message: "Task not found"})
		}
		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(store Storage, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		deleted, err := store.DeleteTask(ctx, c.Param("id"))
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Failed to delete task"})
		}
		if !deleted {
			return c.JSON(http.StatusNotFound, errorResponse{Message: "Task not found"})
		}
		return c.NoContent(http.StatusNoContent)
	}
}

type terminalRequest struct {
	Command string `json:"command"`
}

func execTerminal(term Terminal, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}

		var req terminalRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid command payload"})
		}

		result, err := term.Execute(ctx, req.Command)
		if err != nil {
			if errors.Is(err, command.ErrEmptyCommand) {
				return c.JSON(http.StatusBadRequest, errorResponse{Message: "Command is required"})
			}
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Failed to execute command"})
		}
		return c.JSON(http.StatusOK, result)
	}
}

func terminalHistory(term Terminal, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization)); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		return c.JSON(http.StatusOK, term.History())
	}
}
