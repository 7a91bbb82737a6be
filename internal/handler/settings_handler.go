package handler

import (
	"net/http"

	"github.com/hobbiz/hobbiz-backend/internal/model"
	"github.com/hobbiz/hobbiz-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type SettingsHandler struct {
	svc service.SettingsService
}

func NewSettingsHandler(svc service.SettingsService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

type SetChannelRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *SettingsHandler) Get(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	prefs, err := h.svc.Get(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err, "", "failed to fetch settings")
	}
	return c.JSON(http.StatusOK, prefs)
}

func (h *SettingsHandler) Set(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var req SetChannelRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if req.Enabled == nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "enabled is required"))
	}
	prefs, err := h.svc.Set(c.Request().Context(), uid, model.Channel(c.Param("channel")), *req.Enabled)
	if err != nil {
		return serviceError(c, err, "", "failed to save settings")
	}
	return c.JSON(http.StatusOK, prefs)
}
