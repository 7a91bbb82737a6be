package handler

import (
	"net/http"
	"strconv"

	"github.com/hobbiz/hobbiz-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type AlertHandler struct {
	svc service.AlertService
}

func NewAlertHandler(svc service.AlertService) *AlertHandler {
	return &AlertHandler{svc: svc}
}

type CreateAlertRequest struct {
	Username string `json:"username"`
	Alert    string `json:"alert"`
}

func (h *AlertHandler) Create(c echo.Context) error {
	var req CreateAlertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	a, err := h.svc.Create(c.Request().Context(), req.Username, req.Alert)
	if err != nil {
		return serviceError(c, err, "", "failed to save alert")
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *AlertHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	list, err := h.svc.List(c.Request().Context(), c.QueryParam("username"), limit)
	if err != nil {
		return serviceError(c, err, "", "failed to fetch alerts")
	}
	return c.JSON(http.StatusOK, list)
}
