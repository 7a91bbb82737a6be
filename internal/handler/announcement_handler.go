package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/hobbiz/hobbiz-backend/internal/model"
	"github.com/hobbiz/hobbiz-backend/internal/service"
	"github.com/labstack/echo/v4"
)

type AnnouncementHandler struct {
	svc service.AnnouncementService
}

func NewAnnouncementHandler(svc service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{svc: svc}
}

type AnnouncementResponse struct {
	ID        string   `json:"id"`
	OwnerID   string   `json:"ownerId"`
	Title     string   `json:"title"`
	Price     uint     `json:"price"`
	Images    []string `json:"images"`
	CreatedAt string   `json:"createdAt"`
}

type AnnouncementListResponse struct {
	Announcements []AnnouncementResponse `json:"announcements"`
	Total         int64                  `json:"total"`
}

func (h *AnnouncementHandler) Get(c echo.Context) error {
	a, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceError(c, err, "announcement not found", "failed to fetch announcement")
	}
	return c.JSON(http.StatusOK, toAnnouncementResponse(a))
}

func (h *AnnouncementHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	list, total, err := h.svc.List(c.Request().Context(), limit, offset)
	if err != nil {
		return serviceError(c, err, "", "failed to fetch announcements")
	}
	resp := AnnouncementListResponse{
		Announcements: make([]AnnouncementResponse, 0, len(list)),
		Total:         total,
	}
	for i := range list {
		resp.Announcements = append(resp.Announcements, toAnnouncementResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func toAnnouncementResponse(a *model.Announcement) AnnouncementResponse {
	images := a.ImageURLs()
	if images == nil {
		images = []string{}
	}
	return AnnouncementResponse{
		ID:        a.ID,
		OwnerID:   a.OwnerUID,
		Title:     a.Title,
		Price:     a.Price,
		Images:    images,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}
