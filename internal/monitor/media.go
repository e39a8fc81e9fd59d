package monitor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrUnsupportedMedia the upload is not a video
var ErrUnsupportedMedia = errors.New("unsupported media type")

// MediaInfo describes the loaded video
type MediaInfo struct {
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// Media a spooled video file. Release removes it exactly once.
type Media struct {
	MediaInfo
	path string

	once       sync.Once
	releaseErr error
}

func (m *Media) Path() string { return m.path }

// Open the spooled file for reading
func (m *Media) Open() (*os.File, error) {
	return os.Open(m.path)
}

func (m *Media) Release() error {
	m.once.Do(func() {
		if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			m.releaseErr = fmt.Errorf("failed to remove media file: %w", err)
		}
	})
	return m.releaseErr
}

func isVideo(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "video/")
}

func spoolMedia(dir, name, contentType string, r io.Reader, now time.Time) (*Media, error) {
	f, err := os.CreateTemp(dir, "vitalsim-*"+filepath.Ext(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create media file: %w", err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write media file: %w", err)
	}

	return &Media{
		MediaInfo: MediaInfo{
			Name:        filepath.Base(name),
			ContentType: contentType,
			Size:        size,
			LoadedAt:    now,
		},
		path: f.Name(),
	}, nil
}
