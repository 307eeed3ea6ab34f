// Package facematch matches face encodings against the known encodings of one tenant.
package facematch

import (
	"errors"
	"fmt"
)

// Encoding is a fixed-length face descriptor produced by the feature extractor.
type Encoding []float64

// FromFloat32 converts an extractor or pgvector vector into an Encoding.
func FromFloat32(v []float32) Encoding {
	enc := make(Encoding, len(v))
	for i, x := range v {
		enc[i] = float64(x)
	}
	return enc
}

// Float32 returns the encoding as a float32 slice (pgvector, hnsw).
func (e Encoding) Float32() []float32 {
	out := make([]float32, len(e))
	for i, x := range e {
		out[i] = float32(x)
	}
	return out
}

// Clone returns a copy that shares no memory with e.
func (e Encoding) Clone() Encoding {
	if e == nil {
		return nil
	}
	out := make(Encoding, len(e))
	copy(out, e)
	return out
}

// MatchResult is the outcome of matching one unknown encoding.
// Confidence is a normalised score in [0, 100], not a probability.
type MatchResult struct {
	EmployeeID string  `json:"employee_id,omitempty"`
	Confidence float64 `json:"confidence"`
	Distance   float64 `json:"distance"`
}

// Matched reports whether an identity was found within tolerance.
func (r MatchResult) Matched() bool {
	return r.EmployeeID != ""
}

// NoMatch is returned when nothing is within tolerance.
var NoMatch = MatchResult{Confidence: 0, Distance: 1}

// BatchResult holds the result for one face of a frame.
type BatchResult struct {
	Result MatchResult
	Err    error
}

var (
	// ErrShapeMismatch is returned when two encodings cannot be compared.
	ErrShapeMismatch = errors.New("encoding shape mismatch")
	// ErrInvalidTolerance is returned for a tolerance outside (0, 1].
	ErrInvalidTolerance = errors.New("tolerance must be in (0, 1]")
)

// ShapeMismatchError describes a failed comparison against one known identity.
type ShapeMismatchError struct {
	EmployeeID string
	Want       int
	Got        int
}

func (e *ShapeMismatchError) Error() string {
	if e.EmployeeID == "" {
		return fmt.Sprintf("encoding shape mismatch: want %d dimensions, got %d", e.Want, e.Got)
	}
	return fmt.Sprintf("encoding shape mismatch for %s: want %d dimensions, got %d", e.EmployeeID, e.Want, e.Got)
}

func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}
