package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/todolist/internal/apierror"
	"github.com/mdouchement/todolist/internal/database"
	"github.com/mdouchement/todolist/internal/server/service"
	"github.com/mdouchement/todolist/internal/server/session"
)

// auth contains all authentication handlers.
type auth struct {
	db       database.Client
	sessions session.Manager
	base     string
}

///// Register
////
//

// Register handler is used to register the user.
func (h *auth) Register(c echo.Context) error {
	// Filter params
	var params service.RegisterParams
	if err := c.Bind(&params); err != nil {
		return apierror.InvalidParameters("Could not get user's params.")
	}
	params.UserAgent = c.Request().UserAgent()

	if params.Username == "" {
		return apierror.InvalidParameters("No username provided.")
	}
	if params.Email == "" {
		return apierror.InvalidParameters("No email provided.")
	}
	if params.Password == "" {
		return apierror.InvalidParameters("No password provided.")
	}

	service := service.NewUser(h.db, h.sessions, h.base)
	register, err := service.Register(params)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, register)
}

///// Login
////
//

// Login used for authenticates a user and returns a session token.
func (h *auth) Login(c echo.Context) error {
	// Filter params
	var params service.LoginParams
	if err := c.Bind(&params); err != nil {
		return apierror.InvalidParameters("Could not get credentials.")
	}
	params.UserAgent = c.Request().UserAgent()

	if (params.Login == "" && params.Username == "" && params.Email == "") || params.Password == "" {
		return apierror.InvalidParameters("No login or password provided.")
	}

	service := service.NewUser(h.db, h.sessions, h.base)
	login, err := service.Login(params)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, login)
}

///// Logout
////
//

// Logout used for terminates the current session.
func (h *auth) Logout(c echo.Context) error {
	service := service.NewUser(h.db, h.sessions, h.base)
	if err := service.Logout(currentSession(c)); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
