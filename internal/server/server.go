package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/hobbiz/hobbiz-backend/internal/cache"
	"github.com/hobbiz/hobbiz-backend/internal/events"
	"github.com/hobbiz/hobbiz-backend/internal/handler"
	appmw "github.com/hobbiz/hobbiz-backend/internal/middleware"
	"github.com/hobbiz/hobbiz-backend/internal/repository"
	"github.com/hobbiz/hobbiz-backend/internal/service"
	"github.com/hobbiz/hobbiz-backend/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// uploadBodyLimit leaves room for multipart framing around a 10 MiB file.
const uploadBodyLimit = "11M"

type Deps struct {
	DB             *gorm.DB
	Mongo          *mongo.Database
	Auth           *appmw.AuthMiddleware
	Files          storage.Store
	Summaries      cache.SummaryCache
	Bus            events.Bus
	Pusher         service.PushSender
	AllowedOrigins []string
	// UploadDir is served under /uploads when attachments are stored locally.
	UploadDir string
	SHA       string
	BuildTime string
}

type Server struct {
	e        *echo.Echo
	repos    []interface{ SetDB(*gorm.DB) }
	notifSvc service.NotificationService
}

func allowOrigin(allowed []string) func(string) (bool, error) {
	return func(origin string) (bool, error) {
		low := strings.ToLower(origin)
		if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
			strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
			return true, nil
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false, nil
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false, nil
		}
		for _, a := range allowed {
			if a == low || (strings.HasPrefix(a, ".") && strings.HasSuffix(u.Hostname(), a)) {
				return true, nil
			}
		}
		return false, nil
	}
}

func New(d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(appmw.RequestContext)
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin(d.AllowedOrigins),
	}))

	annRepo := repository.NewAnnouncementRepository(d.DB)
	convRepo := repository.NewConversationRepository(d.DB)
	notifRepo := repository.NewNotificationRepository(d.DB)
	settingsRepo := repository.NewSettingsRepository(d.DB)
	deviceRepo := repository.NewDeviceRepository(d.DB)
	alertRepo := repository.NewAlertRepository(d.Mongo)

	annSvc := service.NewAnnouncementService(annRepo)
	convSvc := service.NewConversationService(convRepo, annRepo, notifRepo, d.Files, d.Summaries, d.Bus)
	settingsSvc := service.NewSettingsService(settingsRepo)
	notifSvc := service.NewNotificationService(notifRepo, settingsSvc, deviceRepo, d.Pusher)
	deviceSvc := service.NewDeviceService(deviceRepo)
	alertSvc := service.NewAlertService(alertRepo)

	annHandler := handler.NewAnnouncementHandler(annSvc)
	convHandler := handler.NewConversationHandler(convSvc)
	notifHandler := handler.NewNotificationHandler(notifSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	deviceHandler := handler.NewDeviceHandler(deviceSvc)
	alertHandler := handler.NewAlertHandler(alertSvc)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    d.SHA,
			"build_time": d.BuildTime,
		})
	})
	if d.UploadDir != "" {
		e.Static("/uploads", d.UploadDir)
	}

	api := e.Group("/api")
	api.GET("/announcements", annHandler.List)
	api.GET("/announcements/:id", annHandler.Get)

	auth := api.Group("", d.Auth.RequireAuth)
	auth.POST("/announcements/:id/conversations", convHandler.Start)
	auth.GET("/conversations", convHandler.List)
	auth.GET("/conversations/:key/messages", convHandler.ListMessages)
	auth.POST("/conversations/:key/messages", convHandler.CreateMessage, middleware.BodyLimit(uploadBodyLimit))
	auth.POST("/conversations/:key/read", convHandler.MarkRead)
	auth.DELETE("/messages/:id", convHandler.DeleteMessage)
	auth.GET("/notifications", notifHandler.List)
	auth.POST("/notifications/read", notifHandler.MarkAllRead)
	auth.GET("/me/notification-settings", settingsHandler.Get)
	auth.PUT("/me/notification-settings/:channel", settingsHandler.Set)
	auth.POST("/me/devices", deviceHandler.Register)
	auth.DELETE("/me/devices/:token", deviceHandler.Unregister)
	auth.POST("/alerts", alertHandler.Create)
	auth.GET("/alerts", alertHandler.List)

	return &Server{
		e:        e,
		repos:    []interface{ SetDB(*gorm.DB) }{annRepo, convRepo, notifRepo, settingsRepo, deviceRepo},
		notifSvc: notifSvc,
	}
}

// Notifications exposes the fan-out handler for the event bus subscriber.
func (s *Server) Notifications() service.NotificationService {
	return s.notifSvc
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// SetDB injects the MySQL connection once it is ready. Until then the
// repositories answer with ErrDBNotReady.
func (s *Server) SetDB(db *gorm.DB) {
	for _, r := range s.repos {
		r.SetDB(db)
	}
}
