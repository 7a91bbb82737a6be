package handler

import (
	"net/http"

	"github.com/hobbiz/hobbiz-backend/internal/reqctx"
	"github.com/hobbiz/hobbiz-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// serviceError maps service sentinel errors to responses. notFound and failed
// are the messages used for 404 and 500.
func serviceError(c echo.Context, err error, notFound, failed string) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", notFound))
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not allowed"))
	case errors.Is(err, service.ErrInvalid):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
	jww.ERROR.Printf("%s%s: %+v", reqctx.Prefix(c.Request().Context()), failed, err)
	return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", failed))
}

func statusOK(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
