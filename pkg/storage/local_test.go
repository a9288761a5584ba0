package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	userID := uuid.New()

	info, err := store.Upload(ctx, userID, "receipt.jpg", "image/jpeg", strings.NewReader("jpeg bytes"))
	require.NoError(t, err)
	assert.Equal(t, "receipt.jpg", info.Name)
	assert.Equal(t, "image/jpeg", info.ContentType)
	assert.Equal(t, int64(len("jpeg bytes")), info.Size)

	got, err := store.GetInfo(ctx, userID, info.ID)
	require.NoError(t, err)
	assert.Equal(t, info.ID, got.ID)

	rc, dlInfo, err := store.Download(ctx, userID, info.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(body))
	assert.Equal(t, info.Path, dlInfo.Path)

	files, err := store.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, files, 1)

	require.NoError(t, store.Delete(ctx, userID, info.ID))

	_, err = store.GetInfo(ctx, userID, info.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorageScopedByUser(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	owner := uuid.New()
	other := uuid.New()

	info, err := store.Upload(ctx, owner, "receipt.png", "image/png", strings.NewReader("png"))
	require.NoError(t, err)

	_, err = store.GetInfo(ctx, other, info.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	files, err := store.List(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"receipt.jpg", "receipt.jpg"},
		{"../../etc/passwd", "____etc_passwd"},
		{"a/b\\c:d.png", "a_b_c_d.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in))
	}
}
