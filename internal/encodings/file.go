package encodings

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"github.com/Pinkesh2905/FaceTrace/internal/facematch"
)

const recordVersion = 1

// record is the on-disk layout of an encoding file.
type record struct {
	Version    int       `cbor:"1,keyasint"`
	TenantID   string    `cbor:"2,keyasint"`
	EmployeeID string    `cbor:"3,keyasint"`
	Vector     []float64 `cbor:"4,keyasint"`
	Digest     []byte    `cbor:"5,keyasint"`
	SavedAt    time.Time `cbor:"6,keyasint"`
}

// FileStore keeps encodings under <root>/<tenant>/face_encodings/<employee>.cbor.
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// Ref returns the file path of an encoding.
func (s *FileStore) Ref(tenantID, employeeID string) string {
	return filepath.Join(s.root, tenantID, "face_encodings", employeeID+".cbor")
}

// Load reads and verifies an encoding.
func (s *FileStore) Load(ctx context.Context, tenantID, employeeID string) (facematch.Encoding, error) {
	if err := ValidateKey(tenantID, employeeID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Ref(tenantID, employeeID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read encoding: %w", err)
	}

	var rec record
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %v", ErrCorrupt, tenantID, employeeID, err)
	}
	if rec.Version != recordVersion {
		return nil, fmt.Errorf("%w: %s/%s: unsupported version %d", ErrCorrupt, tenantID, employeeID, rec.Version)
	}
	if rec.TenantID != tenantID || rec.EmployeeID != employeeID {
		return nil, fmt.Errorf("%w: %s/%s: record belongs to %s/%s", ErrCorrupt, tenantID, employeeID, rec.TenantID, rec.EmployeeID)
	}
	if len(rec.Vector) == 0 {
		return nil, fmt.Errorf("%w: %s/%s: empty vector", ErrCorrupt, tenantID, employeeID)
	}
	if !bytes.Equal(rec.Digest, digest(rec.Vector)) {
		return nil, fmt.Errorf("%w: %s/%s: digest mismatch", ErrCorrupt, tenantID, employeeID)
	}
	return facematch.Encoding(rec.Vector), nil
}

// Save writes an encoding atomically (temp file + rename), replacing any previous one.
func (s *FileStore) Save(ctx context.Context, tenantID, employeeID string, enc facematch.Encoding) error {
	if err := ValidateKey(tenantID, employeeID); err != nil {
		return err
	}
	if len(enc) == 0 {
		return fmt.Errorf("save encoding %s/%s: %w", tenantID, employeeID, facematch.ErrShapeMismatch)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := cbor.Marshal(record{
		Version:    recordVersion,
		TenantID:   tenantID,
		EmployeeID: employeeID,
		Vector:     enc,
		Digest:     digest(enc),
		SavedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode encoding: %w", err)
	}

	path := s.Ref(tenantID, employeeID)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create encoding dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".encoding-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write encoding: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync encoding: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close encoding: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename encoding: %w", err)
	}
	return nil
}

// Delete removes an encoding. Deleting a missing encoding is not an error.
func (s *FileStore) Delete(ctx context.Context, tenantID, employeeID string) error {
	if err := ValidateKey(tenantID, employeeID); err != nil {
		return err
	}
	if err := os.Remove(s.Ref(tenantID, employeeID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete encoding: %w", err)
	}
	return nil
}

// digest is the blake3 hash of the little-endian float64 bits of v.
func digest(v []float64) []byte {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(x))
	}
	sum := blake3.Sum256(buf)
	return sum[:]
}
