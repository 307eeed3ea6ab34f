package cache

import (
	"maps"
	"time"

	"github.com/Pinkesh2905/FaceTrace/internal/constants"
	"github.com/Pinkesh2905/FaceTrace/internal/facematch"
)

// Snapshot is an immutable known encoding set of one tenant.
type Snapshot struct {
	TenantID  string
	LoadedAt  time.Time
	encodings map[string]facematch.Encoding
	index     *candidateIndex
}

func newSnapshot(tenantID string, encs map[string]facematch.Encoding, loadedAt time.Time) *Snapshot {
	own := make(map[string]facematch.Encoding, len(encs))
	for id, enc := range encs {
		own[id] = enc.Clone()
	}
	return &Snapshot{TenantID: tenantID, LoadedAt: loadedAt, encodings: own}
}

func emptySnapshot(tenantID string) *Snapshot {
	return &Snapshot{TenantID: tenantID, encodings: map[string]facematch.Encoding{}}
}

// Len returns the number of known encodings.
func (s *Snapshot) Len() int {
	return len(s.encodings)
}

// Has reports whether employeeID is in the snapshot.
func (s *Snapshot) Has(employeeID string) bool {
	_, ok := s.encodings[employeeID]
	return ok
}

// Encodings returns a copy of the known encoding set.
func (s *Snapshot) Encodings() map[string]facematch.Encoding {
	return maps.Clone(s.encodings)
}

// Indexed reports whether candidate preselection is active.
func (s *Snapshot) Indexed() bool {
	return s.index != nil
}

// Match matches one unknown encoding against the snapshot. On an indexed
// snapshot only the preselected candidates are compared: a returned match is
// always within tolerance, but the approximate search may miss the true
// nearest identity or the lowest key of an exact tie.
func (s *Snapshot) Match(unknown facematch.Encoding, tolerance float64) (facematch.MatchResult, error) {
	return facematch.Match(unknown, s.candidates(unknown), tolerance)
}

// MatchBatch matches every face of a frame independently.
func (s *Snapshot) MatchBatch(unknowns []facematch.Encoding, tolerance float64) []facematch.BatchResult {
	results := make([]facematch.BatchResult, len(unknowns))
	for i, u := range unknowns {
		res, err := s.Match(u, tolerance)
		results[i] = facematch.BatchResult{Result: res, Err: err}
	}
	return results
}

func (s *Snapshot) candidates(unknown facematch.Encoding) map[string]facematch.Encoding {
	if s.index == nil {
		return s.encodings
	}
	ids := s.index.search(unknown, constants.HNSWCandidates)
	if ids == nil {
		return s.encodings
	}
	subset := make(map[string]facematch.Encoding, len(ids))
	for _, id := range ids {
		subset[id] = s.encodings[id]
	}
	return subset
}
