package recognition

import (
	"context"
	"fmt"

	"github.com/Pinkesh2905/FaceTrace/internal/cache"
	"github.com/Pinkesh2905/FaceTrace/internal/facematch"
)

// Identify extracts every face of image and matches it against snapshot.
func Identify(ctx context.Context, extractor Extractor, snapshot *cache.Snapshot, image []byte, tolerance float64) ([]Detection, error) {
	faces, err := extractor.Extract(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("extract faces: %w", err)
	}
	return MatchFaces(snapshot, faces, tolerance), nil
}

// MatchFaces matches already extracted faces as one batch.
func MatchFaces(snapshot *cache.Snapshot, faces []Face, tolerance float64) []Detection {
	unknowns := make([]facematch.Encoding, len(faces))
	for i, f := range faces {
		unknowns[i] = f.Encoding
	}
	results := snapshot.MatchBatch(unknowns, tolerance)
	detections := make([]Detection, len(faces))
	for i, f := range faces {
		detections[i] = Detection{Face: f, Result: results[i].Result, Err: results[i].Err}
	}
	return detections
}
