// Package upload hands an exported page to storage and returns where it
// landed.
package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DataURLPrefix is the prefix of a base64 PNG data URL.
const DataURLPrefix = "data:image/png;base64,"

var (
	// ErrEmptyPayload is returned for an upload without image bytes.
	ErrEmptyPayload = errors.New("empty image payload")
	// ErrNotPNG is returned when a payload is not a PNG image.
	ErrNotPNG = errors.New("payload is not a png image")
)

// Uploader stores an encoded PNG and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, png []byte) (string, error)
}

// DirUploader writes uploads as diary_<uuid>.png files under Dir.
type DirUploader struct {
	Dir     string
	BaseURL string
	Logger  *slog.Logger
}

// Upload implements Uploader.
func (u *DirUploader) Upload(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyPayload
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := png.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotPNG, err)
	}

	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := FileName()
	tmp, err := os.CreateTemp(u.Dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(u.Dir, name)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to store upload: %w", err)
	}

	url := name
	if u.BaseURL != "" {
		url = strings.TrimRight(u.BaseURL, "/") + "/" + name
	}
	if u.Logger != nil {
		u.Logger.Info("page uploaded", "file", name, "bytes", len(data), "url", url)
	}
	return url, nil
}

// FileName returns a fresh upload file name.
func FileName() string {
	return "diary_" + uuid.NewString() + ".png"
}

// DecodeDataURL extracts the PNG bytes of a data:image/png;base64 URL.
func DecodeDataURL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, DataURLPrefix) {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrNotPNG, DataURLPrefix)
	}
	payload := strings.TrimPrefix(s, DataURLPrefix)
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data url: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	return data, nil
}

// EncodeDataURL wraps PNG bytes in a data URL.
func EncodeDataURL(data []byte) string {
	return DataURLPrefix + base64.StdEncoding.EncodeToString(data)
}
