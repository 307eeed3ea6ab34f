// Package constants provides shared constants used across the codebase.
package constants

// Upload and request limits
const (
	// MaxUploadSize is the maximum accepted image upload (registration, recognize)
	MaxUploadSize = 10 << 20

	// MaxImageSize is the maximum dimension (width or height) sent to the extractor
	MaxImageSize = 1920
)

// Recognition loop constants
const (
	// CommitQueueSize is the buffer of each committer shard
	CommitQueueSize = 64

	// HNSWCandidates is the number of nearest neighbours preselected before exact matching
	HNSWCandidates = 32
)

// Query constants
const (
	// DefaultHistoryDays is the history window used when no range is given
	DefaultHistoryDays = 30
)
