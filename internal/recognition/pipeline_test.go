package recognition

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Pinkesh2905/FaceTrace/internal/cache"
	"github.com/Pinkesh2905/FaceTrace/internal/database"
	"github.com/Pinkesh2905/FaceTrace/internal/database/mock"
	"github.com/Pinkesh2905/FaceTrace/internal/encodings"
	"github.com/Pinkesh2905/FaceTrace/internal/facematch"
)

type fixture struct {
	cache     *cache.Cache
	directory *mock.MockEmployeeDirectory
	marker    *recordingMarker
	committer *Committer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := mock.NewMockEmployeeDirectory()
	store := encodings.NewMemoryStore()
	for id, enc := range map[string]facematch.Encoding{"EMP001": {0, 0}, "EMP002": {1, 1}} {
		dir.AddEmployee(database.Employee{TenantID: "t1", EmployeeID: id, Status: database.StatusActive, FaceRegistered: true})
		if err := store.Save(ctx, "t1", id, enc); err != nil {
			t.Fatal(err)
		}
	}
	c := cache.New(cache.NewStoreLoader(dir, store, 0, nil))
	if err := c.Refresh(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	marker := &recordingMarker{}
	committer := NewCommitter(ctx, marker, dir, CommitterOptions{Workers: 2, QueueSize: 4})
	return &fixture{cache: c, directory: dir, marker: marker, committer: committer}
}

func (f *fixture) pipeline(extractor Extractor, stride int, interval time.Duration) *Pipeline {
	return NewPipeline(Options{
		TenantID:            "t1",
		CameraID:            "gate",
		Tolerance:           0.6,
		ConfidenceThreshold: 70,
		FrameStride:         stride,
		AttemptInterval:     interval,
	}, f.cache, extractor, f.committer, nil, nil)
}

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func face(v ...float64) Face {
	return Face{Encoding: facematch.Encoding(v), Box: facematch.Box{10, 10, 50, 50}, Score: 0.99}
}

func TestPipeline_StrideAndThrottle(t *testing.T) {
	f := newFixture(t)
	ext := &fakeExtractor{faces: map[string][]Face{"asha": {face(0, 0.01)}}}
	src := newSliceSource(t0, 2*time.Second, "asha", "asha", "asha", "asha", "asha", "asha", "asha", "asha")

	p := f.pipeline(ext, 2, 10*time.Second)
	if err := p.Run(context.Background(), src); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	f.committer.Close()

	// Frames 0,2,4,6 are processed (t=0,4,8,12s); attempts at 0s and 12s pass the 10s throttle.
	if ext.calls != 4 {
		t.Errorf("extractor calls = %d, want 4", ext.calls)
	}
	obs := f.marker.observations()
	if len(obs) != 2 {
		t.Fatalf("observations = %d, want 2", len(obs))
	}
	if obs[0].Employee.EmployeeID != "EMP001" || obs[0].CameraID != "gate" {
		t.Errorf("unexpected observation %+v", obs[0])
	}
	if !obs[1].Timestamp.Equal(t0.Add(12 * time.Second)) {
		t.Errorf("second attempt at %v, want t0+12s", obs[1].Timestamp)
	}
	if src.closes != 1 {
		t.Errorf("source closed %d times, want 1", src.closes)
	}
	st := p.Stats()
	if st.FramesRead != 8 || st.FramesProcessed != 4 || st.Submitted != 2 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestPipeline_ConfidencePrecheck(t *testing.T) {
	f := newFixture(t)
	// distance 0.3 -> confidence 50, below 70
	ext := &fakeExtractor{faces: map[string][]Face{"blurry": {face(0.3, 0)}}}
	src := newSliceSource(t0, time.Second, "blurry")

	if err := f.pipeline(ext, 1, 0).Run(context.Background(), src); err != nil {
		t.Fatal(err)
	}
	f.committer.Close()
	if n := len(f.marker.observations()); n != 0 {
		t.Errorf("expected no observations, got %d", n)
	}
}

func TestPipeline_MultipleFacesAndUnknowns(t *testing.T) {
	f := newFixture(t)
	ext := &fakeExtractor{faces: map[string][]Face{
		"group": {face(0, 0), face(1, 1), face(9, 9), face(1, 2, 3)},
	}}
	src := newSliceSource(t0, time.Second, "group")

	p := f.pipeline(ext, 1, 0)
	if err := p.Run(context.Background(), src); err != nil {
		t.Fatal(err)
	}
	f.committer.Close()

	seen := map[string]bool{}
	for _, o := range f.marker.observations() {
		seen[o.Employee.EmployeeID] = true
	}
	if len(seen) != 2 || !seen["EMP001"] || !seen["EMP002"] {
		t.Errorf("unexpected observations %v", seen)
	}
	if p.Stats().Faces != 4 || p.Stats().Matched != 2 {
		t.Errorf("unexpected stats %+v", p.Stats())
	}
}

func TestPipeline_ReadFailureClosesSource(t *testing.T) {
	f := newFixture(t)
	src := newSliceSource(t0, time.Second, "a", "b", "c")
	src.failAt = 1
	src.failErr = errCameraUnplugged

	err := f.pipeline(&fakeExtractor{}, 1, 0).Run(context.Background(), src)
	f.committer.Close()
	if !errors.Is(err, errCameraUnplugged) {
		t.Fatalf("err = %v, want camera failure", err)
	}
	if src.closes != 1 {
		t.Errorf("source closed %d times, want 1", src.closes)
	}
}

func TestPipeline_ExtractionFailureSkipsFrame(t *testing.T) {
	f := newFixture(t)
	ext := &fakeExtractor{
		faces: map[string][]Face{"ok": {face(0, 0)}},
		err:   map[string]error{"bad": errors.New("extractor timeout")},
	}
	src := newSliceSource(t0, time.Second, "bad", "ok")

	p := f.pipeline(ext, 1, 0)
	if err := p.Run(context.Background(), src); err != nil {
		t.Fatal(err)
	}
	f.committer.Close()
	if p.Stats().FramesFailed != 1 || len(f.marker.observations()) != 1 {
		t.Errorf("stats %+v, observations %d", p.Stats(), len(f.marker.observations()))
	}
}

func TestPipeline_Cancellation(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := newSliceSource(t0, time.Second, "a")

	if err := f.pipeline(&fakeExtractor{}, 1, 0).Run(ctx, src); err != nil {
		t.Errorf("cancellation should stop cleanly, got %v", err)
	}
	f.committer.Close()
	if src.closes != 1 {
		t.Errorf("source closed %d times, want 1", src.closes)
	}
}

func TestPipeline_UsesTenantSnapshot(t *testing.T) {
	f := newFixture(t)
	ext := &fakeExtractor{faces: map[string][]Face{"x": {face(0, 0)}}}
	p := NewPipeline(Options{TenantID: "other", Tolerance: 0.6, FrameStride: 1}, f.cache, ext, f.committer, nil, nil)
	if err := p.Run(context.Background(), newSliceSource(t0, time.Second, "x")); err != nil {
		t.Fatal(err)
	}
	f.committer.Close()
	if n := len(f.marker.observations()); n != 0 {
		t.Errorf("another tenant's encodings must not match, got %d observations", n)
	}
}

func TestDetectionLabel(t *testing.T) {
	d := Detection{Result: facematch.MatchResult{EmployeeID: "EMP001", Confidence: 87.34}}
	if got := d.Label(); got != "EMP001 (87.3%)" {
		t.Errorf("Label() = %q", got)
	}
	if got := (Detection{Result: facematch.NoMatch}).Label(); got != "Unknown" {
		t.Errorf("Label() = %q", got)
	}
}
