package facematch

import (
	"errors"
	"maps"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Encoding) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, &ShapeMismatchError{Want: len(a), Got: len(b)}
	}
	return floats.Distance(a, b, 2), nil
}

// Confidence maps a distance to a score in [0, 100]; 100 at distance 0, 0 at the tolerance.
func Confidence(distance, tolerance float64) float64 {
	if tolerance <= 0 {
		return 0
	}
	return max(0, (1-distance/tolerance)*100)
}

// ValidateTolerance checks that tolerance is in (0, 1].
func ValidateTolerance(tolerance float64) error {
	if tolerance <= 0 || tolerance > 1 {
		return ErrInvalidTolerance
	}
	return nil
}

// Match finds the closest known encoding to unknown.
//
// Candidates are visited in ascending key order and only a strictly smaller
// distance replaces the best, so the lowest key wins an exact tie. Known
// entries of a different dimension are skipped; if none could be compared
// the joined shape errors are returned.
func Match(unknown Encoding, known map[string]Encoding, tolerance float64) (MatchResult, error) {
	if err := ValidateTolerance(tolerance); err != nil {
		return NoMatch, err
	}
	if len(unknown) == 0 {
		return NoMatch, &ShapeMismatchError{Got: 0}
	}
	if len(known) == 0 {
		return NoMatch, nil
	}

	var (
		bestID       string
		bestDistance float64
		compared     int
		mismatches   []error
	)
	for _, id := range slices.Sorted(maps.Keys(known)) {
		enc := known[id]
		if len(enc) != len(unknown) {
			mismatches = append(mismatches, &ShapeMismatchError{EmployeeID: id, Want: len(unknown), Got: len(enc)})
			continue
		}
		d := floats.Distance(unknown, enc, 2)
		if compared == 0 || d < bestDistance {
			bestID, bestDistance = id, d
		}
		compared++
	}

	if compared == 0 {
		return NoMatch, errors.Join(mismatches...)
	}
	if bestDistance > tolerance {
		return NoMatch, nil
	}
	return MatchResult{
		EmployeeID: bestID,
		Confidence: Confidence(bestDistance, tolerance),
		Distance:   bestDistance,
	}, nil
}

// MatchBatch matches every unknown independently. A malformed unknown only
// affects its own slot.
func MatchBatch(unknowns []Encoding, known map[string]Encoding, tolerance float64) []BatchResult {
	results := make([]BatchResult, len(unknowns))
	for i, u := range unknowns {
		res, err := Match(u, known, tolerance)
		results[i] = BatchResult{Result: res, Err: err}
	}
	return results
}
