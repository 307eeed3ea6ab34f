package recognition

import (
	"fmt"
	"log/slog"

	"github.com/Pinkesh2905/FaceTrace/internal/facematch"
)

// Detection is one face of a frame with its match outcome.
type Detection struct {
	Face   Face
	Result facematch.MatchResult
	Err    error
}

// Label returns the overlay text, e.g. "EMP001 (87.3%)" or "Unknown".
func (d Detection) Label() string {
	if d.Err != nil || !d.Result.Matched() {
		return "Unknown"
	}
	return fmt.Sprintf("%s (%.1f%%)", d.Result.EmployeeID, d.Result.Confidence)
}

// Annotator presents detections, e.g. by drawing boxes on a display.
type Annotator interface {
	Annotate(frame *Frame, detections []Detection)
}

// LogAnnotator writes one debug line per detection.
type LogAnnotator struct {
	Logger *slog.Logger
}

func (a LogAnnotator) Annotate(frame *Frame, detections []Detection) {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, d := range detections {
		box := d.Face.Box
		if frame.Scale > 0 && frame.Scale < 1 {
			box = box.Scale(1 / frame.Scale)
		}
		logger.Debug("face", "frame", frame.Index, "label", d.Label(), "box", []float64(box.Relative(frame.Width, frame.Height)))
	}
}

// NopAnnotator discards detections.
type NopAnnotator struct{}

func (NopAnnotator) Annotate(*Frame, []Detection) {}
