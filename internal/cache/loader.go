package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Pinkesh2905/FaceTrace/internal/database"
	"github.com/Pinkesh2905/FaceTrace/internal/encodings"
	"github.com/Pinkesh2905/FaceTrace/internal/facematch"
)

// StoreLoader loads the encodings of recognizable employees from an encoding store.
type StoreLoader struct {
	employees database.EmployeeReader
	store     encodings.Store
	dim       int
	logger    *slog.Logger
}

// NewStoreLoader creates a loader. dim > 0 drops encodings of any other dimension.
func NewStoreLoader(employees database.EmployeeReader, store encodings.Store, dim int, logger *slog.Logger) *StoreLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreLoader{employees: employees, store: store, dim: dim, logger: logger}
}

// Load returns tenant -> employee -> encoding for active, face-registered employees.
// An employee whose encoding is missing, corrupt or of the wrong dimension is
// skipped with a warning. Directory failures and bulk store failures abort the load.
func (l *StoreLoader) Load(ctx context.Context, tenantID string) (map[string]map[string]facematch.Encoding, error) {
	employees, err := l.employees.ListRecognizable(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	result := make(map[string]map[string]facematch.Encoding)
	if tenantID != "" {
		result[tenantID] = map[string]facematch.Encoding{}
	}

	byTenant := make(map[string][]string)
	var tenants []string
	for _, e := range employees {
		if !e.Recognizable() {
			continue
		}
		if _, ok := byTenant[e.TenantID]; !ok {
			tenants = append(tenants, e.TenantID)
		}
		byTenant[e.TenantID] = append(byTenant[e.TenantID], e.EmployeeID)
	}

	for _, tid := range tenants {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		encs, err := l.loadTenant(ctx, tid, byTenant[tid])
		if err != nil {
			return nil, err
		}
		result[tid] = encs
	}
	return result, nil
}

func (l *StoreLoader) loadTenant(ctx context.Context, tenantID string, ids []string) (map[string]facematch.Encoding, error) {
	out := make(map[string]facematch.Encoding, len(ids))

	if bulk, ok := l.store.(encodings.BulkLoader); ok {
		loaded, err := bulk.LoadMany(ctx, tenantID, ids)
		if err != nil {
			return nil, fmt.Errorf("load encodings of tenant %s: %w", tenantID, err)
		}
		for _, id := range ids {
			enc, ok := loaded[id]
			if !ok {
				l.logger.Warn("skipping encoding", "tenant", tenantID, "employee", id, "error", encodings.ErrNotFound)
				continue
			}
			l.keep(out, tenantID, id, enc)
		}
		return out, nil
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		enc, err := l.store.Load(ctx, tenantID, id)
		if err != nil {
			l.logger.Warn("skipping encoding", "tenant", tenantID, "employee", id, "error", err)
			continue
		}
		l.keep(out, tenantID, id, enc)
	}
	return out, nil
}

func (l *StoreLoader) keep(out map[string]facematch.Encoding, tenantID, employeeID string, enc facematch.Encoding) {
	if l.dim > 0 && len(enc) != l.dim {
		l.logger.Warn("skipping encoding", "tenant", tenantID, "employee", employeeID,
			"error", &facematch.ShapeMismatchError{EmployeeID: employeeID, Want: l.dim, Got: len(enc)})
		return
	}
	out[employeeID] = enc
}
