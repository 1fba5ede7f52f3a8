package upload

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

var nameRE = regexp.MustCompile(`^diary_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.png$`)

func TestDirUploaderWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	u := &DirUploader{Dir: dir, BaseURL: "http://localhost:3000/uploads/"}
	data := tinyPNG(t)

	url, err := u.Upload(context.Background(), data)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "http://localhost:3000/uploads/diary_"))

	name := strings.TrimPrefix(url, "http://localhost:3000/uploads/")
	assert.Regexp(t, nameRE, name)

	got, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, data, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestDirUploaderRejects(t *testing.T) {
	u := &DirUploader{Dir: t.TempDir()}

	_, err := u.Upload(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = u.Upload(context.Background(), []byte("GIF89a"))
	assert.ErrorIs(t, err, ErrNotPNG)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = u.Upload(ctx, tinyPNG(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := FileName()
		assert.Regexp(t, nameRE, n)
		assert.False(t, seen[n])
		seen[n] = true
	}
}

func TestDataURLRoundTrip(t *testing.T) {
	data := tinyPNG(t)
	got, err := DecodeDataURL(EncodeDataURL(data))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestDecodeDataURLErrors(t *testing.T) {
	_, err := DecodeDataURL("data:image/jpeg;base64,AAAA")
	assert.ErrorIs(t, err, ErrNotPNG)

	_, err = DecodeDataURL(DataURLPrefix)
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = DecodeDataURL(DataURLPrefix + "!!!")
	assert.Error(t, err)
}
