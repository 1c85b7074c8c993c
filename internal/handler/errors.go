package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/tasktracker/internal/domain"
	"github.com/locvowork/tasktracker/internal/logger"
	"github.com/locvowork/tasktracker/internal/service/serviceutils"
)

// respondError writes the error envelope. msg is used for server-side
// failures, which are also logged; client errors carry their own message.
func respondError(c echo.Context, err error, msg string) error {
	code := serviceutils.StatusFor(err)
	switch {
	case code >= http.StatusInternalServerError:
		logger.ErrorLog(c.Request().Context(), fmt.Sprintf("%s: %v", msg, err))
		return serviceutils.ResponseError(c, code, msg, err)
	case domain.IsNotFound(err):
		return serviceutils.ResponseError(c, code, "resource not found", err)
	default:
		return serviceutils.ResponseError(c, code, "invalid request", err)
	}
}

func badRequest(c echo.Context, err error) error {
	return serviceutils.ResponseError(c, http.StatusBadRequest, "invalid request body", err)
}
