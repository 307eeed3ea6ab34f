// Package registration enrolls employee faces: one image, exactly one face,
// one stored encoding.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Pinkesh2905/FaceTrace/internal/database"
	"github.com/Pinkesh2905/FaceTrace/internal/encodings"
	"github.com/Pinkesh2905/FaceTrace/internal/facematch"
	"github.com/Pinkesh2905/FaceTrace/internal/recognition"
)

var (
	ErrNoFaceDetected        = errors.New("no face detected in the image, please upload a clear photo of the face")
	ErrMultipleFacesDetected = errors.New("multiple faces detected, please upload a photo with only one face")
)

// Refresher reloads one tenant's cached encodings; *cache.Cache implements it.
type Refresher interface {
	Refresh(ctx context.Context, tenantID string) error
}

// Registrar stores encodings and keeps the employee flag and cache in step.
type Registrar struct {
	extractor recognition.Extractor
	store     encodings.Store
	employees database.EmployeeWriter
	cache     Refresher
	dim       int
	logger    *slog.Logger
}

// New creates a Registrar. dim > 0 rejects encodings of any other dimension.
func New(extractor recognition.Extractor, store encodings.Store, employees database.EmployeeWriter, cache Refresher, dim int, logger *slog.Logger) *Registrar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registrar{
		extractor: extractor,
		store:     store,
		employees: employees,
		cache:     cache,
		dim:       dim,
		logger:    logger,
	}
}

// IsRegistrationError reports whether err is a problem with the submitted photo or vector.
func IsRegistrationError(err error) bool {
	return errors.Is(err, ErrNoFaceDetected) ||
		errors.Is(err, ErrMultipleFacesDetected) ||
		errors.Is(err, facematch.ErrShapeMismatch)
}

// Register extracts the single face of image and stores its encoding.
// On failure the employee record is left as it was.
func (r *Registrar) Register(ctx context.Context, tenantID, employeeID string, image []byte) (*database.Employee, error) {
	if _, err := r.lookup(ctx, tenantID, employeeID); err != nil {
		return nil, err
	}
	if r.extractor == nil {
		return nil, errors.New("no face extractor configured")
	}
	faces, err := r.extractor.Extract(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("extract faces: %w", err)
	}
	switch len(faces) {
	case 0:
		return nil, ErrNoFaceDetected
	case 1:
	default:
		return nil, fmt.Errorf("%w (%d found)", ErrMultipleFacesDetected, len(faces))
	}
	return r.RegisterEncoding(ctx, tenantID, employeeID, faces[0].Encoding)
}

// RegisterEncoding stores a precomputed encoding.
func (r *Registrar) RegisterEncoding(ctx context.Context, tenantID, employeeID string, enc facematch.Encoding) (*database.Employee, error) {
	if _, err := r.lookup(ctx, tenantID, employeeID); err != nil {
		return nil, err
	}
	if len(enc) == 0 || (r.dim > 0 && len(enc) != r.dim) {
		return nil, &facematch.ShapeMismatchError{EmployeeID: employeeID, Want: r.dim, Got: len(enc)}
	}
	if err := r.store.Save(ctx, tenantID, employeeID, enc); err != nil {
		return nil, fmt.Errorf("save encoding: %w", err)
	}

	ref := ""
	if rs, ok := r.store.(encodings.Referencer); ok {
		ref = rs.Ref(tenantID, employeeID)
	}
	if err := r.employees.SetFaceRegistered(ctx, tenantID, employeeID, true, ref); err != nil {
		return nil, fmt.Errorf("mark face registered: %w", err)
	}
	r.refresh(ctx, tenantID)
	r.logger.Info("face registered", "tenant", tenantID, "employee", employeeID, "dim", len(enc))

	return r.employees.GetEmployee(ctx, tenantID, employeeID)
}

// Unregister deletes the encoding and clears the face flag.
func (r *Registrar) Unregister(ctx context.Context, tenantID, employeeID string) error {
	if _, err := r.lookup(ctx, tenantID, employeeID); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, tenantID, employeeID); err != nil {
		return fmt.Errorf("delete encoding: %w", err)
	}
	if err := r.employees.SetFaceRegistered(ctx, tenantID, employeeID, false, ""); err != nil {
		return fmt.Errorf("clear face registered: %w", err)
	}
	r.refresh(ctx, tenantID)
	r.logger.Info("face unregistered", "tenant", tenantID, "employee", employeeID)
	return nil
}

func (r *Registrar) lookup(ctx context.Context, tenantID, employeeID string) (*database.Employee, error) {
	if err := encodings.ValidateKey(tenantID, employeeID); err != nil {
		return nil, err
	}
	emp, err := r.employees.GetEmployee(ctx, tenantID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if emp == nil {
		return nil, fmt.Errorf("%w: %s", database.ErrEmployeeNotFound, employeeID)
	}
	return emp, nil
}

// refresh reloads the tenant cache. The registration itself already succeeded,
// so a failure is logged and picked up by the next periodic refresh.
func (r *Registrar) refresh(ctx context.Context, tenantID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Refresh(ctx, tenantID); err != nil {
		r.logger.Warn("cache refresh after registration failed", "tenant", tenantID, "error", err)
	}
}
