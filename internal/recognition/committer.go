package recognition

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/Pinkesh2905/FaceTrace/internal/attendance"
	"github.com/Pinkesh2905/FaceTrace/internal/database"
)

var (
	// ErrCommitterClosed is returned by Submit after Close.
	ErrCommitterClosed = errors.New("committer closed")
	// ErrUnknownEmployee is reported when a matched id is no longer in the directory.
	ErrUnknownEmployee = errors.New("employee not in directory")
)

// Candidate is a matched face waiting for an attendance decision.
type Candidate struct {
	TenantID   string
	EmployeeID string
	CameraID   string
	Confidence float64
	Distance   float64
	Timestamp  time.Time
}

// Marker decides and commits attendance; *attendance.Service implements it.
type Marker interface {
	MarkAttendance(ctx context.Context, obs attendance.Observation) (*database.Punch, error)
}

// Decision is the outcome of one candidate.
type Decision struct {
	Candidate Candidate
	Punch     *database.Punch
	Err       error
}

// Committer runs attendance decisions off the frame loop. Candidates are
// sharded by (tenant, employee) so one employee's candidates are always
// handled by the same worker, in submission order.
type Committer struct {
	ctx        context.Context
	marker     Marker
	employees  database.EmployeeReader
	shards     []chan Candidate
	onDecision func(Decision)
	logger     *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// CommitterOptions configures a Committer.
type CommitterOptions struct {
	Workers    int
	QueueSize  int
	OnDecision func(Decision) // called from worker goroutines
	Logger     *slog.Logger
}

// NewCommitter starts the workers. ctx bounds every store call made by the workers.
func NewCommitter(ctx context.Context, marker Marker, employees database.EmployeeReader, opts CommitterOptions) *Committer {
	workers := max(1, opts.Workers)
	queue := max(1, opts.QueueSize)
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Committer{
		ctx:        ctx,
		marker:     marker,
		employees:  employees,
		shards:     make([]chan Candidate, workers),
		onDecision: opts.OnDecision,
		logger:     logger,
	}
	for i := range c.shards {
		c.shards[i] = make(chan Candidate, queue)
		c.wg.Add(1)
		go c.worker(c.shards[i])
	}
	return c
}

func (c *Committer) shardFor(tenantID, employeeID string) chan Candidate {
	h := fnv.New32a()
	h.Write([]byte(tenantID))
	h.Write([]byte{0})
	h.Write([]byte(employeeID))
	return c.shards[h.Sum32()%uint32(len(c.shards))]
}

// Submit queues a candidate, blocking while its shard is full.
func (c *Committer) Submit(ctx context.Context, cand Candidate) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrCommitterClosed
	}
	select {
	case c.shardFor(cand.TenantID, cand.EmployeeID) <- cand:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting candidates and waits until queued ones are decided.
func (c *Committer) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for _, ch := range c.shards {
		close(ch)
	}
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Committer) worker(ch <-chan Candidate) {
	defer c.wg.Done()
	for cand := range ch {
		d := c.decide(cand)
		if d.Err != nil {
			if attendance.IsRejection(d.Err) || errors.Is(d.Err, ErrUnknownEmployee) {
				c.logger.Debug("candidate rejected", "employee", cand.EmployeeID, "reason", d.Err)
			} else {
				c.logger.Error("attendance commit failed", "employee", cand.EmployeeID, "tenant", cand.TenantID, "error", d.Err)
			}
		}
		if c.onDecision != nil {
			c.onDecision(d)
		}
	}
}

func (c *Committer) decide(cand Candidate) Decision {
	emp, err := c.employees.GetEmployee(c.ctx, cand.TenantID, cand.EmployeeID)
	if err != nil {
		return Decision{Candidate: cand, Err: fmt.Errorf("get employee: %w", err)}
	}
	if emp == nil {
		return Decision{Candidate: cand, Err: fmt.Errorf("%w: %s", ErrUnknownEmployee, cand.EmployeeID)}
	}
	punch, err := c.marker.MarkAttendance(c.ctx, attendance.Observation{
		Employee:   *emp,
		Confidence: cand.Confidence,
		Distance:   cand.Distance,
		CameraID:   cand.CameraID,
		Timestamp:  cand.Timestamp,
	})
	return Decision{Candidate: cand, Punch: punch, Err: err}
}
