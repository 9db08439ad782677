package middlewares

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/middlewarex"
	"github.com/mdouchement/todolist/internal/apierror"
	"github.com/mdouchement/todolist/internal/model"
	"github.com/mdouchement/todolist/internal/server/session"
	"github.com/o1egl/paseto/v2"
	"github.com/pkg/errors"
)

const (
	// CurrentUserContextKey is the key to retrieve the current_user from echo.Context.
	CurrentUserContextKey = "current_user"
	// CurrentSessionContextKey is the key to retrieve the current_session from echo.Context.
	CurrentSessionContextKey = "current_session"
)

// Session returns a Session auth middleware.
// It stores current_user and current_session into echo.Context
// and refreshes the last activity of the user.
func Session(m session.Manager, db model.Saver) echo.MiddlewareFunc {
	return authenticate(m, db, false)
}

// OptionalSession behaves like Session when an Authorization header is provided
// and lets anonymous requests through otherwise.
func OptionalSession(m session.Manager, db model.Saver) echo.MiddlewareFunc {
	return authenticate(m, db, true)
}

func authenticate(m session.Manager, db model.Saver, optional bool) echo.MiddlewareFunc {
	pst := middlewarex.PASETOWithConfig(middlewarex.PASETOConfig{
		SigningKey: m.SessionSecret(),
		Validators: []paseto.Validator{
			paseto.IssuedBy(session.Issuer),
			paseto.ForAudience(session.TypeAccessToken),
		},
	})

	fake := func(echo.Context) error {
		return nil
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authorization := c.Request().Header.Get(echo.HeaderAuthorization)
			if authorization == "" && optional {
				return next(c)
			}

			if token(authorization) == "" {
				return apierror.InvalidAuth("Invalid login credentials.")
			}

			// Check PASETO validity according its claims.
			if err := pst(fake)(c); err != nil {
				return apierror.InvalidAuth("Invalid login credentials.")
			}

			// Find and store current_session and current_user for handlers.
			session, user, err := m.Authenticate(token(authorization))
			if err != nil {
				return err
			}
			c.Set(CurrentSessionContextKey, session)

			if err = user.Seen(db); err != nil {
				return errors.Wrap(err, "could not update user activity")
			}
			c.Set(CurrentUserContextKey, user)

			return next(c)
		}
	}
}

func token(authorization string) string {
	parts := strings.Split(authorization, " ")
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
