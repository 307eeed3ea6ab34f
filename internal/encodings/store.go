// Package encodings persists one face encoding per (tenant, employee).
package encodings

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/Pinkesh2905/FaceTrace/internal/facematch"
)

var (
	// ErrNotFound is returned when no encoding is stored for the key.
	ErrNotFound = errors.New("encoding not found")
	// ErrInvalidKey is returned for tenant or employee ids that are unsafe as path segments.
	ErrInvalidKey = errors.New("invalid encoding key")
	// ErrCorrupt is returned when a stored record fails validation.
	ErrCorrupt = errors.New("encoding record corrupt")
)

// Store loads, saves and deletes encodings by (tenant, employee).
type Store interface {
	Load(ctx context.Context, tenantID, employeeID string) (facematch.Encoding, error)
	Save(ctx context.Context, tenantID, employeeID string, enc facematch.Encoding) error
	Delete(ctx context.Context, tenantID, employeeID string) error
}

// Referencer is implemented by stores that can describe where an encoding lives.
type Referencer interface {
	Ref(tenantID, employeeID string) string
}

// BulkLoader is implemented by stores that can fetch many encodings of one
// tenant in a single round trip. Missing ids are absent from the result.
type BulkLoader interface {
	LoadMany(ctx context.Context, tenantID string, employeeIDs []string) (map[string]facematch.Encoding, error)
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidateKey rejects ids that could escape the store root.
func ValidateKey(tenantID, employeeID string) error {
	if !keyPattern.MatchString(tenantID) {
		return fmt.Errorf("%w: tenant %q", ErrInvalidKey, tenantID)
	}
	if !keyPattern.MatchString(employeeID) {
		return fmt.Errorf("%w: employee %q", ErrInvalidKey, employeeID)
	}
	return nil
}
