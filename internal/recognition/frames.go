package recognition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ErrSourceClosed is returned by Next after Close.
var ErrSourceClosed = errors.New("frame source closed")

// Frame is one captured image.
type Frame struct {
	Index      int
	Data       []byte    // encoded image passed to the extractor
	Width      int       // original width
	Height     int       // original height
	Scale      float64   // Data is the original scaled by this factor
	CapturedAt time.Time
}

// FrameSource yields frames until io.EOF. Close must be safe to call more than once.
type FrameSource interface {
	Next(ctx context.Context) (*Frame, error)
	Close() error
}

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".bmp": true}

// DirSource replays the images of a directory in name order. It stands in
// for a camera in tests and batch runs.
type DirSource struct {
	files  []string
	pos    int
	scale  float64
	now    func() time.Time
	closed bool
}

// NewDirSource lists the images of dir. scale (0, 1] downsizes frames before extraction.
func NewDirSource(dir string, scale float64) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	slices.Sort(files)
	if scale <= 0 || scale > 1 {
		scale = 1
	}
	return &DirSource{files: files, scale: scale, now: time.Now}, nil
}

// Len returns the number of frames.
func (s *DirSource) Len() int {
	return len(s.files)
}

func (s *DirSource) Next(ctx context.Context) (*Frame, error) {
	if s.closed {
		return nil, ErrSourceClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.files) {
		return nil, io.EOF
	}
	path := s.files[s.pos]
	index := s.pos
	s.pos++

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read frame %s: %w", path, err)
	}
	data, width, height, err := ScaleImage(raw, s.scale)
	if err != nil {
		return nil, fmt.Errorf("frame %s: %w", path, err)
	}
	return &Frame{
		Index:      index,
		Data:       data,
		Width:      width,
		Height:     height,
		Scale:      s.scale,
		CapturedAt: s.now(),
	}, nil
}

func (s *DirSource) Close() error {
	s.closed = true
	return nil
}
