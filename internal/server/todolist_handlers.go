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

// todolist contains all todolist handlers.
// They serve both the todolists of a user (/api/users/:username/todolists)
// and the ownerless ones (/api/todolists).
type todolist struct {
	db   database.Client
	base string
}

// List renders the todolists of the scope.
func (h *todolist) List(c echo.Context) error {
	owner, err := h.owner(c)
	if err != nil {
		return err
	}

	service := service.NewTodoList(h.db, h.base)
	render, err := service.List(owner)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, render)
}

// Create creates a todolist in the scope.
func (h *todolist) Create(c echo.Context) error {
	owner, err := h.owner(c)
	if err != nil {
		return err
	}
	if err = authorize(c, owner); err != nil {
		return err
	}

	var params service.TodoListParams
	if err = c.Bind(&params); err != nil {
		return apierror.InvalidParameters("Could not get todolist's params.")
	}

	service := service.NewTodoList(h.db, h.base)
	render, err := service.Create(owner, params)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, render)
}

// Show renders a todolist.
func (h *todolist) Show(c echo.Context) error {
	list, err := h.find(c)
	if err != nil {
		return err
	}

	service := service.NewTodoList(h.db, h.base)
	render, err := service.Show(list)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, render)
}

// Update changes the title of a todolist.
func (h *todolist) Update(c echo.Context) error {
	list, err := h.find(c)
	if err != nil {
		return err
	}
	if err = authorize(c, list.Creator); err != nil {
		return err
	}

	var params service.TodoListParams
	if err = c.Bind(&params); err != nil {
		return apierror.InvalidParameters("Could not get todolist's params.")
	}

	service := service.NewTodoList(h.db, h.base)
	render, err := service.Update(list, params)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, render)
}

// Delete removes a todolist and its todos.
func (h *todolist) Delete(c echo.Context) error {
	list, err := h.find(c)
	if err != nil {
		return err
	}
	if err = authorize(c, list.Creator); err != nil {
		return err
	}

	service := service.NewTodoList(h.db, h.base)
	if err = service.Delete(list); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// Todos renders the todos of a todolist.
func (h *todolist) Todos(c echo.Context) error {
	list, err := h.find(c)
	if err != nil {
		return err
	}

	service := service.NewTodo(h.db)
	render, err := service.List(list)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, render)
}

// AddTodo creates a todo in a todolist.
func (h *todolist) AddTodo(c echo.Context) error {
	list, err := h.find(c)
	if err != nil {
		return err
	}
	if err = authorize(c, list.Creator); err != nil {
		return err
	}

	var params service.TodoParams
	if err = c.Bind(&params); err != nil {
		return apierror.InvalidParameters("Could not get todo's params.")
	}

	var creator string
	if u := currentUser(c); u != nil {
		creator = u.Username
	}

	service := service.NewTodo(h.db)
	render, err := service.Create(list, creator, params)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, render)
}

// owner returns the username of the scope, empty for the ownerless todolists.
func (h *todolist) owner(c echo.Context) (string, error) {
	username := c.Param("username")
	if username == "" {
		return "", nil
	}

	u, err := findUser(h.db, username)
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

// find returns the todolist from the path, it must belong to the scope.
func (h *todolist) find(c echo.Context) (*model.TodoList, error) {
	owner, err := h.owner(c)
	if err != nil {
		return nil, err
	}

	id, err := strconv.ParseInt(c.Param("todolist_id"), 10, 64)
	if err != nil {
		return nil, apierror.InvalidParameters("Invalid todolist identifier.")
	}

	service := service.NewTodoList(h.db, h.base)
	list, err := service.Find(id)
	if err != nil {
		return nil, err
	}

	if list.Creator != owner {
		return nil, apierror.NotFound("No such todolist.")
	}
	return list, nil
}

// authorize checks that the current user can modify the resources of the given owner.
func authorize(c echo.Context, owner string) error {
	if owner == "" {
		return nil
	}

	u := currentUser(c)
	if u == nil {
		return apierror.InvalidAuth("Invalid login credentials.")
	}
	if u.Username != owner {
		return apierror.Forbidden("You can not modify the todolists of another user.")
	}
	return nil
}
