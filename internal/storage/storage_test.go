package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalPut(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir, "http://localhost:8080/")
	require.NoError(t, err)

	u, err := s.Put(context.Background(), "Poza.JPG", "image/jpeg", []byte("jpeg"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u, "http://localhost:8080/uploads/messages/"), u)
	require.True(t, strings.HasSuffix(u, ".jpg"), u)

	rel := strings.TrimPrefix(u, "http://localhost:8080/uploads/")
	got, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	require.Equal(t, "jpeg", string(got))
}

func TestObjectName_ExtensionFromType(t *testing.T) {
	name := objectName("", "application/pdf")
	require.True(t, strings.HasPrefix(name, "messages/"))
	require.True(t, strings.HasSuffix(name, ".pdf"), name)
}
