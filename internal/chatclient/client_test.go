package chatclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hobbiz/hobbiz-backend/internal/model"
	"github.com/stretchr/testify/require"
)

func TestAPIClient_CreateMessageJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/conversations/S1-B1-A1/messages", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "S1", body["recipientId"])
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(model.Message{ID: "01X", Text: strPtr(body["text"])})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, StaticToken("tok"), srv.Client())
	msg, err := c.CreateMessage(context.Background(), "S1-B1-A1", CreateMessage{RecipientID: "S1", AnnouncementID: "A1", Text: "Hello"})
	require.NoError(t, err)
	require.Equal(t, "01X", msg.ID)
	require.Equal(t, "Hello", *msg.Text)
}

func TestAPIClient_CreateMessageMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "S1", r.FormValue("recipientId"))
		f, fh, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		body, _ := io.ReadAll(f)
		require.Equal(t, "doc.pdf", fh.Filename)
		require.Equal(t, "application/pdf", fh.Header.Get("Content-Type"))
		require.Equal(t, []byte("%PDF"), body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"01Y"}`))
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, nil, srv.Client())
	msg, err := c.CreateMessage(context.Background(), "S1-B1-A1", CreateMessage{
		RecipientID: "S1",
		Attachment:  &Attachment{Filename: "doc.pdf", MediaType: "application/pdf", Body: []byte("%PDF")},
	})
	require.NoError(t, err)
	require.Equal(t, "01Y", msg.ID)
}

func TestAPIClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/notifications":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"unauthorized","message":"missing bearer token"}}`))
		default:
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":"forbidden","message":"not allowed"}}`))
		}
	}))
	defer srv.Close()
	c := NewAPIClient(srv.URL, nil, srv.Client())

	_, err := c.Notifications(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.Messages(context.Background(), "S1-B1-A1")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnauthorized)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "forbidden", apiErr.Code)
}
