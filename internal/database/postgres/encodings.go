package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/Pinkesh2905/FaceTrace/internal/encodings"
	"github.com/Pinkesh2905/FaceTrace/internal/facematch"
)

// EncodingStore keeps face encodings in a pgvector column.
// Vectors are stored as float32.
type EncodingStore struct {
	pool *Pool
}

// NewEncodingStore creates a new PostgreSQL encoding store
func NewEncodingStore(pool *Pool) *EncodingStore {
	return &EncodingStore{pool: pool}
}

// Ref returns the row reference of an encoding
func (s *EncodingStore) Ref(tenantID, employeeID string) string {
	return "postgres://face_encodings/" + tenantID + "/" + employeeID
}

// Load retrieves an encoding
func (s *EncodingStore) Load(ctx context.Context, tenantID, employeeID string) (facematch.Encoding, error) {
	if err := encodings.ValidateKey(tenantID, employeeID); err != nil {
		return nil, err
	}

	var vec pgvector.Vector
	var dim int
	err := s.pool.QueryRow(ctx,
		`SELECT encoding, dim FROM face_encodings WHERE tenant_id = $1 AND employee_id = $2`,
		tenantID, employeeID,
	).Scan(&vec, &dim)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, encodings.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query encoding: %w", err)
	}
	return decodeVector(tenantID, employeeID, vec, dim)
}

// LoadMany retrieves the encodings of several employees of one tenant
func (s *EncodingStore) LoadMany(ctx context.Context, tenantID string, employeeIDs []string) (map[string]facematch.Encoding, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT employee_id, encoding, dim
		FROM face_encodings
		WHERE tenant_id = $1 AND employee_id = ANY($2)
	`, tenantID, pq.Array(employeeIDs))
	if err != nil {
		return nil, fmt.Errorf("query encodings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]facematch.Encoding, len(employeeIDs))
	for rows.Next() {
		var id string
		var vec pgvector.Vector
		var dim int
		if err := rows.Scan(&id, &vec, &dim); err != nil {
			return nil, fmt.Errorf("scan encoding: %w", err)
		}
		enc, err := decodeVector(tenantID, id, vec, dim)
		if err != nil {
			continue
		}
		out[id] = enc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate encodings: %w", err)
	}
	return out, nil
}

// Save stores an encoding, replacing any previous one
func (s *EncodingStore) Save(ctx context.Context, tenantID, employeeID string, enc facematch.Encoding) error {
	if err := encodings.ValidateKey(tenantID, employeeID); err != nil {
		return err
	}
	if len(enc) == 0 {
		return fmt.Errorf("save encoding %s/%s: %w", tenantID, employeeID, facematch.ErrShapeMismatch)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO face_encodings (tenant_id, employee_id, encoding, dim)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, employee_id) DO UPDATE SET
			encoding = EXCLUDED.encoding,
			dim = EXCLUDED.dim,
			updated_at = NOW()
	`, tenantID, employeeID, pgvector.NewVector(enc.Float32()), len(enc))
	if err != nil {
		return fmt.Errorf("save encoding: %w", err)
	}
	return nil
}

// Delete removes an encoding. Deleting a missing encoding is not an error.
func (s *EncodingStore) Delete(ctx context.Context, tenantID, employeeID string) error {
	if err := encodings.ValidateKey(tenantID, employeeID); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM face_encodings WHERE tenant_id = $1 AND employee_id = $2`,
		tenantID, employeeID,
	); err != nil {
		return fmt.Errorf("delete encoding: %w", err)
	}
	return nil
}

func decodeVector(tenantID, employeeID string, vec pgvector.Vector, dim int) (facematch.Encoding, error) {
	v := vec.Slice()
	if len(v) == 0 || len(v) != dim {
		return nil, fmt.Errorf("%w: %s/%s: stored dim %d, vector has %d", encodings.ErrCorrupt, tenantID, employeeID, dim, len(v))
	}
	return facematch.FromFloat32(v), nil
}
