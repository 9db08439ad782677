package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/todolist/internal/apierror"
	"github.com/mdouchement/todolist/internal/database"
	"github.com/mdouchement/todolist/internal/model"
	"github.com/mdouchement/todolist/internal/server/service"
)

// todo contains all todo handlers.
type todo struct {
	db database.Client
}

// Finish marks a todo as finished.
func (h *todo) Finish(c echo.Context) error {
	t, err := h.find(c)
	if err != nil {
		return err
	}

	service := service.NewTodo(h.db)
	render, err := service.Finish(t)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, render)
}

// Reopen marks a todo as open.
func (h *todo) Reopen(c echo.Context) error {
	t, err := h.find(c)
	if err != nil {
		return err
	}

	service := service.NewTodo(h.db)
	render, err := service.Reopen(t)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, render)
}

// Delete removes a todo.
func (h *todo) Delete(c echo.Context) error {
	t, err := h.find(c)
	if err != nil {
		return err
	}

	service := service.NewTodo(h.db)
	if err = service.Delete(t); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// find returns the todo from the path if the current user can modify it.
func (h *todo) find(c echo.Context) (*model.Todo, error) {
	id, err := strconv.ParseInt(c.Param("todo_id"), 10, 64)
	if err != nil {
		return nil, apierror.InvalidParameters("Invalid todo identifier.")
	}

	service := service.NewTodo(h.db)
	t, err := service.Find(id)
	if err != nil {
		return nil, err
	}

	list, err := h.db.FindTodoList(t.TodoListID)
	if err != nil && !h.db.IsNotFound(err) {
		return nil, err
	}
	if list != nil {
		if err = authorize(c, list.Creator); err != nil {
			return nil, err
		}
	}

	return t, nil
}
