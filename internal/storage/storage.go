// Package storage keeps message attachments and returns their public URLs.
package storage

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Store interface {
	// Put stores body under a generated name and returns its URL. name is
	// the original file name and only contributes the extension.
	Put(ctx context.Context, name, mediaType string, body []byte) (string, error)
}

func objectName(name, mediaType string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return path.Join("messages", uuid.NewString()+ext)
}

type gcsStore struct {
	client *storage.Client
	bucket string
}

// NewGCS stores attachments in a Cloud Storage bucket.
func NewGCS(client *storage.Client, bucket string) Store {
	return &gcsStore{client: client, bucket: bucket}
}

func (s *gcsStore) Put(ctx context.Context, name, mediaType string, body []byte) (string, error) {
	obj := objectName(name, mediaType)
	w := s.client.Bucket(s.bucket).Object(obj).NewWriter(ctx)
	w.ContentType = mediaType
	w.CacheControl = "public, max-age=31536000"
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return "", errors.Wrap(err, "write object")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "close object")
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, obj), nil
}

type localStore struct {
	dir     string
	baseURL string
}

// NewLocal writes attachments below dir; they are served at
// baseURL + "/uploads/".
func NewLocal(dir, baseURL string) (Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, "messages"), 0o755); err != nil {
		return nil, errors.Wrap(err, "create upload dir")
	}
	return &localStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *localStore) Put(_ context.Context, name, mediaType string, body []byte) (string, error) {
	obj := objectName(name, mediaType)
	if err := os.WriteFile(filepath.Join(s.dir, filepath.FromSlash(obj)), body, 0o644); err != nil {
		return "", errors.Wrap(err, "write upload")
	}
	u, err := url.JoinPath(s.baseURL, "uploads", obj)
	if err != nil {
		return "", err
	}
	return u, nil
}
