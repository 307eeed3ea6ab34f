//go:build gocv

// Package camera reads frames from a video device or stream with OpenCV.
// It is built only with the gocv tag because it needs the OpenCV libraries.
package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/Pinkesh2905/FaceTrace/internal/recognition"
)

// Available reports whether camera support is compiled in.
const Available = true

// Source captures frames from a device index ("0") or a stream URL.
type Source struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	scale   float64
	index   int
	once    sync.Once
}

// Open opens the device. scale (0, 1] downsizes frames before extraction.
func Open(device string, scale float64) (*Source, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %s: %w", device, err)
	}
	if scale <= 0 || scale > 1 {
		scale = 1
	}
	return &Source{capture: capture, mat: gocv.NewMat(), scale: scale}, nil
}

func (s *Source) Next(ctx context.Context) (*recognition.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, errors.New("failed to read frame from camera")
	}
	capturedAt := time.Now()
	width, height := s.mat.Cols(), s.mat.Rows()

	frame := s.mat
	if s.scale < 1 {
		small := gocv.NewMat()
		defer small.Close()
		gocv.Resize(s.mat, &small, image.Pt(int(float64(width)*s.scale), int(float64(height)*s.scale)), 0, 0, gocv.InterpolationLinear)
		frame = small
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		return nil, fmt.Errorf("IMEncode failed: %w", err)
	}
	defer buf.Close()
	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())

	f := &recognition.Frame{
		Index:      s.index,
		Data:       data,
		Width:      width,
		Height:     height,
		Scale:      s.scale,
		CapturedAt: capturedAt,
	}
	s.index++
	return f, nil
}

// Close releases the device. It is safe to call more than once.
func (s *Source) Close() error {
	var err error
	s.once.Do(func() {
		s.mat.Close()
		err = s.capture.Close()
	})
	return err
}

// WindowAnnotator draws labelled boxes into a desktop window.
type WindowAnnotator struct {
	window *gocv.Window
}

func NewWindowAnnotator(title string) *WindowAnnotator {
	return &WindowAnnotator{window: gocv.NewWindow(title)}
}

func (a *WindowAnnotator) Annotate(frame *recognition.Frame, detections []recognition.Detection) {
	img, err := gocv.IMDecode(frame.Data, gocv.IMReadColor)
	if err != nil {
		return
	}
	defer img.Close()

	for _, d := range detections {
		if !d.Face.Box.Valid() {
			continue
		}
		c := color.RGBA{R: 255, A: 255}
		if d.Err == nil && d.Result.Matched() {
			c = color.RGBA{G: 255, A: 255}
		}
		b := d.Face.Box
		rect := image.Rect(int(b[0]), int(b[1]), int(b[2]), int(b[3]))
		gocv.Rectangle(&img, rect, c, 2)
		gocv.PutText(&img, d.Label(), image.Pt(rect.Min.X+4, rect.Max.Y-6), gocv.FontHersheyDuplex, 0.5, color.RGBA{R: 255, G: 255, B: 255, A: 255}, 1)
	}
	a.window.IMShow(img)
	a.window.WaitKey(1)
}

func (a *WindowAnnotator) Close() error {
	return a.window.Close()
}

// Display opens a preview window.
func Display(title string) (recognition.Annotator, error) {
	return NewWindowAnnotator(title), nil
}
