// Package push delivers single notifications through Firebase Cloud
// Messaging.
//
// A Dispatcher is built once at process start and handed to its users. If the
// service-account credential cannot be loaded the dispatcher is still
// returned, but every Send fails with ErrNotInitialized.
package push

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"go.uber.org/ratelimit"
	"google.golang.org/api/option"
)

// DefaultCredentialsPath is used when no path is configured.
const DefaultCredentialsPath = "config/firebase-service-account.json"

var (
	ErrNotInitialized = errors.New("push dispatcher not initialized")
	ErrInvalidTarget  = errors.New("exactly one of token or topic is required")
)

type Config struct {
	CredentialsPath string
	// ProjectID overrides the project id read from the credential.
	ProjectID     string
	RatePerSecond int
}

// Target addresses a single device token or a topic.
type Target struct {
	Token string
	Topic string
}

func (t Target) String() string {
	if t.Topic != "" {
		return "topic:" + t.Topic
	}
	if len(t.Token) > 8 {
		return "token:" + t.Token[:8] + "…"
	}
	return "token:" + t.Token
}

// Data is the string-only payload FCM accepts. Callers format values.
type Data map[string]string

type Notification struct {
	Title string
	Body  string
	Data  Data
}

// Sender is the transport; *messaging.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type Dispatcher struct {
	sender  Sender
	limiter ratelimit.Limiter
}

// New loads the credential and builds the messaging client. Failures are
// logged and produce an uninitialized dispatcher.
func New(ctx context.Context, cfg Config) *Dispatcher {
	path := cfg.CredentialsPath
	if path == "" {
		path = DefaultCredentialsPath
	}
	sender, err := newMessagingClient(ctx, path, cfg.ProjectID)
	if err != nil {
		jww.WARN.Printf("push: skipping initialization: %+v", err)
		return NewWithSender(nil, cfg.RatePerSecond)
	}
	jww.INFO.Printf("push: initialized from %s", path)
	return NewWithSender(sender, cfg.RatePerSecond)
}

// NewWithSender wraps an existing transport. A nil sender yields an
// uninitialized dispatcher; a non-positive rate disables limiting.
func NewWithSender(sender Sender, ratePerSecond int) *Dispatcher {
	limiter := ratelimit.NewUnlimited()
	if ratePerSecond > 0 {
		limiter = ratelimit.New(ratePerSecond)
	}
	return &Dispatcher{sender: sender, limiter: limiter}
}

func newMessagingClient(ctx context.Context, path, projectID string) (*messaging.Client, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read service account")
	}
	var sa struct {
		Type      string `json:"type"`
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, errors.Wrap(err, "parse service account")
	}
	if sa.Type != "service_account" {
		return nil, errors.Errorf("credential type %q is not service_account", sa.Type)
	}
	if projectID == "" {
		projectID = sa.ProjectID
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsJSON(raw))
	if err != nil {
		return nil, errors.Wrap(err, "init firebase app")
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "init messaging client")
	}
	return client, nil
}

// Initialized reports whether sends can reach the transport.
func (d *Dispatcher) Initialized() bool {
	return d != nil && d.sender != nil
}

// Send delivers one notification and returns the transport's message id.
// There is no retry; transport errors are returned wrapped.
func (d *Dispatcher) Send(ctx context.Context, to Target, n Notification) (string, error) {
	if !d.Initialized() {
		return "", ErrNotInitialized
	}
	to.Token = strings.TrimSpace(to.Token)
	to.Topic = strings.TrimPrefix(strings.TrimSpace(to.Topic), "/topics/")
	if (to.Token == "") == (to.Topic == "") {
		return "", ErrInvalidTarget
	}
	msg := &messaging.Message{
		Token: to.Token,
		Topic: to.Topic,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
	}
	if len(n.Data) > 0 {
		msg.Data = make(map[string]string, len(n.Data))
		for k, v := range n.Data {
			msg.Data[k] = v
		}
	}

	d.limiter.Take()
	id, err := d.sender.Send(ctx, msg)
	if err != nil {
		return "", errors.Wrapf(err, "push to %s", to)
	}
	jww.DEBUG.Printf("push: sent %s to %s", id, to)
	return id, nil
}

// IsUnregistered reports whether err means the device token is no longer
// valid and should be forgotten.
func IsUnregistered(err error) bool {
	if err == nil {
		return false
	}
	return messaging.IsUnregistered(errors.Cause(err))
}
