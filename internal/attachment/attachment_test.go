package attachment

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mediaType string
		size      int64
		wantErr   error
	}{
		{"exactly max", "image/png", MaxSize, nil},
		{"one byte over", "image/png", MaxSize + 1, ErrTooLarge},
		{"zip small", "application/zip", 10, ErrUnsupportedType},
		{"zip huge", "application/zip", MaxSize * 3, ErrUnsupportedType},
		{"docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", 2048, nil},
		{"text with charset", "text/plain; charset=utf-8", 5, nil},
		{"upper case", "IMAGE/JPEG", 5, nil},
		{"empty file", "text/plain", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.mediaType, tt.size)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestIsImage(t *testing.T) {
	require.True(t, IsImage("image/gif"))
	require.False(t, IsImage("application/pdf"))
}
