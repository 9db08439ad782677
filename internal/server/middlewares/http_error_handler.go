package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"github.com/mdouchement/todolist/internal/apierror"
	"github.com/mdouchement/todolist/internal/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// HTTPErrorHandler returns a middleware that formats rendered errors.
func HTTPErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		switch cause := errors.Cause(err).(type) {
		case *echo.HTTPError:
			log.WithField("status", cause.Code).Debugf("Error [ECHO]: %v", cause.Internal)
			_ = c.JSON(cause.Code, echo.Map{
				"error": echo.Map{
					"message": cause.Message,
				},
			})
		case *model.ValidationError:
			_ = c.JSON(http.StatusBadRequest, apierror.InvalidParameters(cause.Error()))
		case *apierror.Error:
			status := apierror.StatusCode(cause)
			if status < 500 {
				_ = c.JSON(status, cause)
				return
			}

			internal(log, err, c)
		default:
			internal(log, err, c)
		}
	}
}

func internal(log logrus.FieldLogger, err error, c echo.Context) {
	id := uuid.Must(uuid.NewV4()).String()
	log.WithField("id", id).Errorf("%+v", err)

	_ = c.JSON(http.StatusInternalServerError, echo.Map{
		"error": echo.Map{
			"message": fmt.Sprintf("Unexpected error (id: %s)", id),
		},
	})
}
