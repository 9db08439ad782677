package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/todolist/internal/apierror"
	"github.com/mdouchement/todolist/internal/database"
	"github.com/mdouchement/todolist/internal/model"
	"github.com/mdouchement/todolist/internal/server/service"
	"github.com/mdouchement/todolist/internal/server/session"
	"github.com/pkg/errors"
)

// user contains all user handlers.
type user struct {
	db       database.Client
	sessions session.Manager
	base     string
}

// Show renders the user from the path.
func (h *user) Show(c echo.Context) error {
	u, err := findUser(h.db, c.Param("username"))
	if err != nil {
		return err
	}

	service := service.NewUser(h.db, h.sessions, h.base)
	render, err := service.Show(u)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, render)
}

// Promote grants admin privileges to the user from the path.
func (h *user) Promote(c echo.Context) error {
	u, err := findUser(h.db, c.Param("username"))
	if err != nil {
		return err
	}

	service := service.NewUser(h.db, h.sessions, h.base)
	render, err := service.Promote(currentUser(c), u)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, render)
}

// Delete removes the user from the path with its todolists and sessions.
func (h *user) Delete(c echo.Context) error {
	u, err := findUser(h.db, c.Param("username"))
	if err != nil {
		return err
	}

	service := service.NewUser(h.db, h.sessions, h.base)
	if err = service.Delete(currentUser(c), u); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func findUser(db database.Client, username string) (*model.User, error) {
	u, err := db.FindUserByUsername(username)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, apierror.NotFound("No such user.")
		}
		return nil, errors.Wrap(err, "could not get user")
	}
	return u, nil
}
