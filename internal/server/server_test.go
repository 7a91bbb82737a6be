package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	appmw "github.com/hobbiz/hobbiz-backend/internal/middleware"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type staticVerifier struct{}

func (staticVerifier) VerifyIDToken(_ context.Context, tok string) (*auth.Token, error) {
	if tok != "t" {
		return nil, errors.New("bad token")
	}
	return &auth.Token{UID: "U1"}, nil
}

func TestServerRoutes(t *testing.T) {
	srv := New(Deps{Auth: appmw.NewAuthMiddlewareWithVerifier(staticVerifier{}), SHA: "abc"})

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		wantCode int
	}{
		{"health", http.MethodGet, "/healthz", "", http.StatusOK},
		{"protected without token", http.MethodGet, "/api/conversations", "", http.StatusUnauthorized},
		{"db not ready", http.MethodGet, "/api/conversations", "t", http.StatusInternalServerError},
		{"public announcements", http.MethodGet, "/api/announcements", "", http.StatusInternalServerError},
		{"mongo not ready", http.MethodGet, "/api/alerts", "t", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
		})
	}
}

func TestAllowOrigin(t *testing.T) {
	allow := allowOrigin([]string{"https://hobbiz.ro", ".vercel.app"})
	for origin, want := range map[string]bool{
		"http://localhost:3000":        true,
		"https://hobbiz.ro":            true,
		"https://preview-1.vercel.app": true,
		"https://evil.example":         false,
		"ftp://hobbiz.ro":              false,
	} {
		got, err := allow(origin)
		require.NoError(t, err)
		require.Equal(t, want, got, origin)
	}
}
