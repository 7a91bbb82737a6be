package handler

import (
	"net/http"

	"github.com/hobbiz/hobbiz-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type DeviceHandler struct {
	svc service.DeviceService
}

func NewDeviceHandler(svc service.DeviceService) *DeviceHandler {
	return &DeviceHandler{svc: svc}
}

type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

func (h *DeviceHandler) Register(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var req RegisterDeviceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if err := h.svc.Register(c.Request().Context(), uid, req.Token, req.Platform); err != nil {
		return serviceError(c, err, "", "failed to register device")
	}
	return statusOK(c)
}

func (h *DeviceHandler) Unregister(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	if err := h.svc.Unregister(c.Request().Context(), uid, c.Param("token")); err != nil {
		return serviceError(c, err, "", "failed to unregister device")
	}
	return statusOK(c)
}
