package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/hobbiz/hobbiz-backend/internal/reqctx"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeVerifier map[string]string

func (f fakeVerifier) VerifyIDToken(_ context.Context, tok string) (*auth.Token, error) {
	uid, ok := f[tok]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &auth.Token{UID: uid}, nil
}

func TestRequireAuth(t *testing.T) {
	m := NewAuthMiddlewareWithVerifier(fakeVerifier{"good": "B1"})
	h := m.RequireAuth(func(c echo.Context) error {
		uid, _ := c.Get("uid").(string)
		return c.String(http.StatusOK, uid+"|"+reqctx.UID(c.Request().Context()))
	})

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"valid", "Bearer good", http.StatusOK, "B1|B1"},
		{"missing", "", http.StatusUnauthorized, `"code":"unauthorized"`},
		{"not bearer", "Basic abc", http.StatusUnauthorized, `"code":"unauthorized"`},
		{"invalid", "Bearer nope", http.StatusUnauthorized, "invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			require.NoError(t, h(e.NewContext(req, rec)))
			require.Equal(t, tt.wantCode, rec.Code)
			require.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestRequestContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Response().Header().Set(echo.HeaderXRequestID, "r1")

	var got string
	err := RequestContext(func(c echo.Context) error {
		got = reqctx.RID(c.Request().Context())
		return nil
	})(c)
	require.NoError(t, err)
	require.Equal(t, "r1", got)
}
