package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/ytakahashi/todo-api/internal/models"
	"github.com/ytakahashi/todo-api/internal/services"
)

// BasePath is the prefix of every to-do item route.
const BasePath = "/todoitems"

type TodoHandler struct {
	store services.TodoStore
	log   logrus.FieldLogger
}

func NewTodoHandler(store services.TodoStore, log logrus.FieldLogger) *TodoHandler {
	return &TodoHandler{
		store: store,
		log:   log,
	}
}

type route struct {
	method  string
	path    string
	handler echo.HandlerFunc
}

// routes maps method and path to handler. echo matches "/complete" before
// "/:id" whatever the order here.
func (h *TodoHandler) routes() []route {
	return []route{
		{http.MethodGet, "", h.ListAll},
		{http.MethodGet, "/complete", h.ListCompleted},
		{http.MethodGet, "/:id", h.GetByID},
		{http.MethodPost, "", h.Create},
		{http.MethodPut, "/:id", h.Update},
		{http.MethodDelete, "/:id", h.Delete},
	}
}

// Register mounts the to-do routes under BasePath.
func (h *TodoHandler) Register(e *echo.Echo) *echo.Group {
	g := e.Group(BasePath)
	for _, r := range h.routes() {
		g.Add(r.method, r.path, r.handler)
	}
	return g
}

// ListAll godoc
// @Summary List all to-do items
// @Tags todoitems
// @Produce json
// @Success 200 {array} models.TodoItemView
// @Router /todoitems [get]
func (h *TodoHandler) ListAll(c echo.Context) error {
	items, err := h.store.List(c.Request().Context())
	if err != nil {
		return h.internalError(c, "failed to list todo items", err)
	}
	return c.JSON(http.StatusOK, models.NewTodoItemViews(items))
}

// ListCompleted godoc
// @Summary List completed to-do items
// @Tags todoitems
// @Produce json
// @Success 200 {array} models.TodoItemView
// @Router /todoitems/complete [get]
func (h *TodoHandler) ListCompleted(c echo.Context) error {
	items, err := h.store.ListCompleted(c.Request().Context())
	if err != nil {
		return h.internalError(c, "failed to list completed todo items", err)
	}
	return c.JSON(http.StatusOK, models.NewTodoItemViews(items))
}

// GetByID godoc
// @Summary Get a to-do item
// @Tags todoitems
// @Produce json
// @Param id path int true "Item ID"
// @Success 200 {object} models.TodoItemView
// @Failure 400
// @Failure 404
// @Router /todoitems/{id} [get]
func (h *TodoHandler) GetByID(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	item, err := h.store.Find(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		return h.internalError(c, "failed to get todo item", err)
	}

	return c.JSON(http.StatusOK, models.NewTodoItemView(item))
}

// Create godoc
// @Summary Create a to-do item
// @Description The id in the request body is ignored.
// @Tags todoitems
// @Accept json
// @Produce json
// @Param item body models.TodoItemView true "Item to create"
// @Success 201 {object} models.TodoItemView
// @Header 201 {string} Location "/todoitems/{id}"
// @Failure 400
// @Router /todoitems [post]
func (h *TodoHandler) Create(c echo.Context) error {
	var view models.TodoItemView
	if err := c.Bind(&view); err != nil {
		return bindError(c, err)
	}

	item, err := h.store.Create(c.Request().Context(), view.ToItem())
	if err != nil {
		return h.internalError(c, "failed to create todo item", err)
	}

	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("%s/%d", BasePath, item.ID))
	return c.JSON(http.StatusCreated, models.NewTodoItemView(item))
}

// Update godoc
// @Summary Replace the name and completion of a to-do item
// @Tags todoitems
// @Accept json
// @Param id path int true "Item ID"
// @Param item body models.TodoItemView true "New values"
// @Success 204
// @Failure 400
// @Failure 404
// @Router /todoitems/{id} [put]
func (h *TodoHandler) Update(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	var view models.TodoItemView
	if err := c.Bind(&view); err != nil {
		return bindError(c, err)
	}

	item := view.ToItem()
	item.ID = id
	if err := h.store.Update(c.Request().Context(), item); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		return h.internalError(c, "failed to update todo item", err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Delete godoc
// @Summary Delete a to-do item
// @Tags todoitems
// @Param id path int true "Item ID"
// @Success 204
// @Failure 400
// @Failure 404
// @Router /todoitems/{id} [delete]
func (h *TodoHandler) Delete(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		return h.internalError(c, "failed to delete todo item", err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *TodoHandler) internalError(c echo.Context, msg string, err error) error {
	h.log.WithError(err).WithField("path", c.Path()).Error(msg)
	return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
}

// bindError answers a malformed request with an empty body, keeping the
// status echo chose (400, or 415 for an unsupported content type).
func bindError(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return c.NoContent(he.Code)
	}
	return c.NoContent(http.StatusBadRequest)
}
