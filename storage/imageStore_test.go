package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	pngHeader  = "\x89PNG\r\n\x1a\n"
	jpegHeader = "\xff\xd8\xff\xe0"
)

func TestLocalImageStoreSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalImageStore(dir, "/uploads/")
	require.NoError(t, err)

	path, err := store.Save(context.Background(), "image/jpeg", strings.NewReader(jpegHeader+"fake"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(path, "/uploads/"))
	assert.True(t, strings.HasSuffix(path, ".jpg"))

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(path, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, jpegHeader+"fake", string(data))
}

func TestLocalImageStoreUniqueNames(t *testing.T) {
	store, err := NewLocalImageStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	a, err := store.Save(context.Background(), "image/png", strings.NewReader("1"))
	require.NoError(t, err)
	b, err := store.Save(context.Background(), "image/png", strings.NewReader("2"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLocalImageStoreRejectsOtherTypes(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalImageStore(dir, "/uploads")
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "text/html", strings.NewReader("<script></script>"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSniffImage(t *testing.T) {
	large := pngHeader + strings.Repeat("x", 4*sniffLen)

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "png", body: pngHeader + "data", want: "image/png"},
		{name: "jpeg", body: jpegHeader + "data", want: "image/jpeg"},
		{name: "gif", body: "GIF89a" + "data", want: "image/gif"},
		{name: "larger than sniff window", body: large, want: "image/png"},
		{name: "html", body: "<script>alert(document.cookie)</script>", wantErr: true},
		{name: "svg", body: `<svg xmlns="http://www.w3.org/2000/svg"><script/></svg>`, wantErr: true},
		{name: "empty", body: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contentType, body, err := SniffImage(strings.NewReader(tt.body))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedImage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, contentType)

			replayed, err := io.ReadAll(body)
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(replayed))
		})
	}
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/civic/issues/x.png", PublicURL("civic", "issues/x.png"))
}
