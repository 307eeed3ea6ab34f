package recognition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Pinkesh2905/FaceTrace/internal/cache"
)

// SnapshotSource returns the current known encodings of a tenant; *cache.Cache implements it.
type SnapshotSource interface {
	Get(tenantID string) *cache.Snapshot
}

// Options configures a Pipeline.
type Options struct {
	TenantID            string
	CameraID            string
	Tolerance           float64
	ConfidenceThreshold float64       // matches below this never reach the committer
	FrameStride         int           // process every n-th frame
	AttemptInterval     time.Duration // minimum time between two attempts for one employee
}

// RunStats counts what a Run did.
type RunStats struct {
	FramesRead      int
	FramesProcessed int
	FramesFailed    int
	Faces           int
	Matched         int
	Submitted       int
}

// Pipeline is the recognition loop of one camera.
type Pipeline struct {
	opts      Options
	snapshots SnapshotSource
	extractor Extractor
	committer *Committer
	annotator Annotator
	logger    *slog.Logger

	lastAttempt map[string]time.Time
	stats       RunStats
}

// NewPipeline creates a pipeline. annotator may be nil.
func NewPipeline(opts Options, snapshots SnapshotSource, extractor Extractor, committer *Committer, annotator Annotator, logger *slog.Logger) *Pipeline {
	if opts.FrameStride < 1 {
		opts.FrameStride = 1
	}
	if annotator == nil {
		annotator = NopAnnotator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		opts:        opts,
		snapshots:   snapshots,
		extractor:   extractor,
		committer:   committer,
		annotator:   annotator,
		logger:      logger.With("camera", opts.CameraID, "tenant", opts.TenantID),
		lastAttempt: make(map[string]time.Time),
	}
}

// Stats returns the counters of the last Run.
func (p *Pipeline) Stats() RunStats {
	return p.stats
}

// Run reads frames until the source is exhausted, a frame cannot be read,
// or ctx is cancelled. Cancellation and io.EOF are clean stops and return nil.
// The source is closed on every exit path.
func (p *Pipeline) Run(ctx context.Context, src FrameSource) (err error) {
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close frame source: %w", cerr)
		}
	}()

	p.stats = RunStats{}
	for {
		frame, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}
		p.stats.FramesRead++
		if (p.stats.FramesRead-1)%p.opts.FrameStride != 0 {
			continue
		}

		detections, err := p.ProcessFrame(ctx, frame)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.stats.FramesFailed++
			p.logger.Warn("frame skipped", "frame", frame.Index, "error", err)
			continue
		}
		p.stats.FramesProcessed++
		p.annotator.Annotate(frame, detections)
		if err := p.dispatch(ctx, frame, detections); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// ProcessFrame extracts and matches the faces of one frame.
func (p *Pipeline) ProcessFrame(ctx context.Context, frame *Frame) ([]Detection, error) {
	detections, err := Identify(ctx, p.extractor, p.snapshots.Get(p.opts.TenantID), frame.Data, p.opts.Tolerance)
	if err != nil {
		return nil, err
	}
	p.stats.Faces += len(detections)
	return detections, nil
}

func (p *Pipeline) dispatch(ctx context.Context, frame *Frame, detections []Detection) error {
	for _, d := range detections {
		if d.Err != nil {
			p.logger.Warn("face not comparable", "frame", frame.Index, "error", d.Err)
			continue
		}
		if !d.Result.Matched() {
			continue
		}
		p.stats.Matched++
		if d.Result.Confidence < p.opts.ConfidenceThreshold {
			p.logger.Debug("match below threshold", "employee", d.Result.EmployeeID, "confidence", d.Result.Confidence)
			continue
		}
		if last, ok := p.lastAttempt[d.Result.EmployeeID]; ok && frame.CapturedAt.Sub(last) < p.opts.AttemptInterval {
			continue
		}
		p.lastAttempt[d.Result.EmployeeID] = frame.CapturedAt

		err := p.committer.Submit(ctx, Candidate{
			TenantID:   p.opts.TenantID,
			EmployeeID: d.Result.EmployeeID,
			CameraID:   p.opts.CameraID,
			Confidence: d.Result.Confidence,
			Distance:   d.Result.Distance,
			Timestamp:  frame.CapturedAt,
		})
		if err != nil {
			return fmt.Errorf("submit candidate: %w", err)
		}
		p.stats.Submitted++
	}
	return nil
}
