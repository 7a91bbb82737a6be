// Package attachment validates files attached to chat messages before they
// are uploaded.
package attachment

import (
	"mime"
	"strings"

	"github.com/pkg/errors"
)

// MaxSize is the largest accepted attachment, inclusive.
const MaxSize int64 = 10 << 20

var (
	ErrTooLarge        = errors.New("attachment exceeds 10 MiB")
	ErrUnsupportedType = errors.New("attachment type not allowed")
)

var allowedTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/png":          {},
	"image/gif":          {},
	"image/webp":         {},
	"application/pdf":    {},
	"text/plain":         {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// Allowed reports whether mediaType is on the allow-list. Parameters such as
// charset are ignored.
func Allowed(mediaType string) bool {
	_, ok := allowedTypes[normalize(mediaType)]
	return ok
}

// Validate checks the declared media type and size. The type is checked first,
// so an unlisted type is rejected whatever its size.
func Validate(mediaType string, size int64) error {
	if !Allowed(mediaType) {
		return errors.Wrapf(ErrUnsupportedType, "%q", mediaType)
	}
	if size > MaxSize {
		return errors.Wrapf(ErrTooLarge, "%d bytes", size)
	}
	return nil
}

// IsImage reports whether the attachment should be rendered inline.
func IsImage(mediaType string) bool {
	return strings.HasPrefix(normalize(mediaType), "image/")
}

func normalize(mediaType string) string {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mediaType))
	}
	return mt
}
