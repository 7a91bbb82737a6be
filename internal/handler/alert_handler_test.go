package handler

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/hobbiz/hobbiz-backend/internal/model"
	"github.com/hobbiz/hobbiz-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

type fakeAlertService struct {
	created []model.Alert
}

func (f *fakeAlertService) Create(_ context.Context, username, alert string) (*model.Alert, error) {
	if strings.TrimSpace(username) == "" {
		return nil, &service.InvalidError{Reason: "username is required"}
	}
	a := model.Alert{Username: username, Alert: alert}
	f.created = append(f.created, a)
	return &a, nil
}

func (f *fakeAlertService) List(context.Context, string, int) ([]model.Alert, error) {
	return f.created, nil
}

func TestAlertHandler(t *testing.T) {
	svc := &fakeAlertService{}
	h := NewAlertHandler(svc)

	rec := serve(t, "U1", "/api/alerts", http.MethodPost, "/api/alerts", h.Create, bytes.NewBufferString(`{"username":"ana","alert":"x"}`), echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"username":"ana"`)

	rec = serve(t, "U1", "/api/alerts", http.MethodPost, "/api/alerts", h.Create, bytes.NewBufferString(`{"alert":"x"}`), echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, "U1", "/api/alerts", http.MethodGet, "/api/alerts?username=ana", h.List, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.created, 1)
}
