package recognition

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/Pinkesh2905/FaceTrace/internal/attendance"
	"github.com/Pinkesh2905/FaceTrace/internal/database"
)

// fakeExtractor returns the faces registered for a frame payload.
type fakeExtractor struct {
	faces map[string][]Face
	err   map[string]error
	calls int
}

func (f *fakeExtractor) Extract(ctx context.Context, image []byte) ([]Face, error) {
	f.calls++
	if err := f.err[string(image)]; err != nil {
		return nil, err
	}
	return f.faces[string(image)], nil
}

// sliceSource yields fixed frames, then io.EOF or failAt's error.
type sliceSource struct {
	frames  []*Frame
	pos     int
	failAt  int
	failErr error
	closes  int
}

func newSliceSource(start time.Time, step time.Duration, payloads ...string) *sliceSource {
	s := &sliceSource{failAt: -1}
	for i, p := range payloads {
		s.frames = append(s.frames, &Frame{Index: i, Data: []byte(p), Width: 640, Height: 480, Scale: 1, CapturedAt: start.Add(time.Duration(i) * step)})
	}
	return s
}

func (s *sliceSource) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos == s.failAt {
		return nil, s.failErr
	}
	if s.pos >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *sliceSource) Close() error {
	s.closes++
	return nil
}

// recordingMarker records observations and accepts everything not listed in reject.
type recordingMarker struct {
	mu     sync.Mutex
	seen   []attendance.Observation
	reject error
}

func (m *recordingMarker) MarkAttendance(ctx context.Context, obs attendance.Observation) (*database.Punch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, obs)
	if m.reject != nil {
		return nil, m.reject
	}
	return &database.Punch{ID: "p", EmployeeID: obs.Employee.EmployeeID, Timestamp: obs.Timestamp}, nil
}

func (m *recordingMarker) observations() []attendance.Observation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]attendance.Observation, len(m.seen))
	copy(out, m.seen)
	return out
}

var errCameraUnplugged = errors.New("camera unplugged")
