package encodings

import (
	"context"
	"sync"

	"github.com/Pinkesh2905/FaceTrace/internal/facematch"
)

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]facematch.Encoding
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]facematch.Encoding)}
}

func (s *MemoryStore) Load(ctx context.Context, tenantID, employeeID string) (facematch.Encoding, error) {
	if err := ValidateKey(tenantID, employeeID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	enc, ok := s.data[tenantID+"/"+employeeID]
	if !ok {
		return nil, ErrNotFound
	}
	return enc.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, tenantID, employeeID string, enc facematch.Encoding) error {
	if err := ValidateKey(tenantID, employeeID); err != nil {
		return err
	}
	if len(enc) == 0 {
		return facematch.ErrShapeMismatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[tenantID+"/"+employeeID] = enc.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, tenantID, employeeID string) error {
	if err := ValidateKey(tenantID, employeeID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, tenantID+"/"+employeeID)
	return nil
}

// Ref returns a "memory://tenant/employee" reference.
func (s *MemoryStore) Ref(tenantID, employeeID string) string {
	return "memory://" + tenantID + "/" + employeeID
}
