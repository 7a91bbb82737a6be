// Package chatclient is the client side of the chat API: an HTTP client for
// the message store, the per-conversation session, the unread badge
// aggregator and local guest favorites.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/hobbiz/hobbiz-backend/internal/convkey"
	"github.com/hobbiz/hobbiz-backend/internal/model"
	"github.com/pkg/errors"
)

var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// TokenSource returns the bearer token for the current user. An empty token
// sends the request unauthenticated.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken always returns tok.
func StaticToken(tok string) TokenSource {
	return func(context.Context) (string, error) { return tok, nil }
}

type Conversation struct {
	Key            string `json:"key"`
	AnnouncementID string `json:"announcementId"`
	SellerID       string `json:"sellerId"`
	BuyerID        string `json:"buyerId"`
	LastMessageAt  string `json:"lastMessageAt,omitempty"`
	HasUnread      bool   `json:"hasUnread"`
}

type Notification struct {
	ID             uint64  `json:"id"`
	Type           string  `json:"type"`
	Title          string  `json:"title"`
	Body           string  `json:"body"`
	ConversationID *string `json:"conversationId,omitempty"`
	Read           bool    `json:"read"`
}

// Attachment is a file picked for a message.
type Attachment struct {
	Filename  string
	MediaType string
	Body      []byte
}

type CreateMessage struct {
	RecipientID    string
	AnnouncementID string
	Text           string
	Attachment     *Attachment
}

type APIClient struct {
	baseURL string
	token   TokenSource
	http    *http.Client
}

// NewAPIClient talks to the API rooted at baseURL, e.g. https://api.hobbiz.ro.
// A nil hc uses a client with a 30 second timeout.
func NewAPIClient(baseURL string, token TokenSource, hc *http.Client) *APIClient {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	if token == nil {
		token = StaticToken("")
	}
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), token: token, http: hc}
}

func (c *APIClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	tok, err := c.token(ctx)
	if err != nil {
		return errors.WithMessage(err, "get token")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); json.Unmarshal(raw, &payload) == nil {
			apiErr.Code, apiErr.Message = payload.Error.Code, payload.Error.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s %s", method, path)
	}
	return nil
}

func (c *APIClient) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	if in == nil {
		return c.do(ctx, method, path, nil, "", out)
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "encode body")
	}
	return c.do(ctx, method, path, bytes.NewReader(raw), "application/json", out)
}

func keyPath(key convkey.Key) string {
	return "/api/conversations/" + url.PathEscape(key.String())
}

// StartConversation returns the conversation between the caller and the
// owner of the announcement.
func (c *APIClient) StartConversation(ctx context.Context, announcementID string) (*Conversation, error) {
	var cv Conversation
	if err := c.doJSON(ctx, http.MethodPost, "/api/announcements/"+url.PathEscape(announcementID)+"/conversations", nil, &cv); err != nil {
		return nil, err
	}
	return &cv, nil
}

func (c *APIClient) Conversations(ctx context.Context) ([]Conversation, error) {
	var list []Conversation
	if err := c.doJSON(ctx, http.MethodGet, "/api/conversations", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *APIClient) Messages(ctx context.Context, key convkey.Key) ([]model.Message, error) {
	var list []model.Message
	if err := c.doJSON(ctx, http.MethodGet, keyPath(key)+"/messages", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateMessage posts JSON, or multipart when an attachment is present.
func (c *APIClient) CreateMessage(ctx context.Context, key convkey.Key, in CreateMessage) (*model.Message, error) {
	var msg model.Message
	path := keyPath(key) + "/messages"
	if in.Attachment == nil {
		body := map[string]string{
			"recipientId":    in.RecipientID,
			"announcementId": in.AnnouncementID,
			"text":           in.Text,
		}
		if err := c.doJSON(ctx, http.MethodPost, path, body, &msg); err != nil {
			return nil, err
		}
		return &msg, nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range map[string]string{"recipientId": in.RecipientID, "announcementId": in.AnnouncementID, "text": in.Text} {
		if err := w.WriteField(k, v); err != nil {
			return nil, errors.Wrap(err, "write form field")
		}
	}
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename=%q`, in.Attachment.Filename)},
		"Content-Type":        {in.Attachment.MediaType},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create file part")
	}
	if _, err := part.Write(in.Attachment.Body); err != nil {
		return nil, errors.Wrap(err, "write file part")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "close form")
	}
	if err := c.do(ctx, http.MethodPost, path, &buf, w.FormDataContentType(), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *APIClient) DeleteMessage(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/messages/"+url.PathEscape(id), nil, nil)
}

func (c *APIClient) MarkRead(ctx context.Context, key convkey.Key) error {
	return c.doJSON(ctx, http.MethodPost, keyPath(key)+"/read", nil, nil)
}

func (c *APIClient) Notifications(ctx context.Context) ([]Notification, error) {
	var resp struct {
		Notifications []Notification `json:"notifications"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/notifications?unread_only=false&limit=100", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Notifications, nil
}

func (c *APIClient) Settings(ctx context.Context) (map[model.Channel]bool, error) {
	out := map[model.Channel]bool{}
	if err := c.doJSON(ctx, http.MethodGet, "/api/me/notification-settings", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) SetSetting(ctx context.Context, channel model.Channel, enabled bool) (map[model.Channel]bool, error) {
	out := map[model.Channel]bool{}
	body := map[string]bool{"enabled": enabled}
	if err := c.doJSON(ctx, http.MethodPut, "/api/me/notification-settings/"+url.PathEscape(string(channel)), body, &out); err != nil {
		return nil, err
	}
	return out, nil
}
