//go:build !gocv

// Package camera reads frames from a video device or stream with OpenCV.
// Without the gocv build tag only the stub below is compiled.
package camera

import (
	"errors"

	"github.com/Pinkesh2905/FaceTrace/internal/recognition"
)

// Available reports whether camera support is compiled in.
const Available = false

// ErrUnavailable is returned when the binary was built without the gocv tag.
var ErrUnavailable = errors.New("camera support not compiled in (build with -tags gocv)")

// Open always fails without the gocv tag.
func Open(device string, scale float64) (recognition.FrameSource, error) {
	return nil, ErrUnavailable
}

// Display always fails without the gocv tag.
func Display(title string) (recognition.Annotator, error) {
	return nil, ErrUnavailable
}
