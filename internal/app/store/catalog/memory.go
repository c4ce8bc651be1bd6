package catalogstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/residenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process catalog with the same behaviour as Store.
// Used by tests and local tooling.
type MemoryStore struct {
	mu        sync.RWMutex
	rotations map[primitive.ObjectID]models.Rotation
	residents map[primitive.ObjectID]models.Resident
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		rotations: make(map[primitive.ObjectID]models.Rotation),
		residents: make(map[primitive.ObjectID]models.Resident),
	}
}

func (s *MemoryStore) ListRotations(_ context.Context) ([]models.Rotation, error) {
	s.mu.RLock()
	out := make([]models.Rotation, 0, len(s.rotations))
	for _, r := range s.rotations {
		out = append(out, cloneRotation(r))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].NameCI != out[j].NameCI {
			return out[i].NameCI < out[j].NameCI
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func (s *MemoryStore) ListResidents(_ context.Context) ([]models.Resident, error) {
	s.mu.RLock()
	out := make([]models.Resident, 0, len(s.residents))
	for _, r := range s.residents {
		out = append(out, r)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].FullNameCI != out[j].FullNameCI {
			return out[i].FullNameCI < out[j].FullNameCI
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func (s *MemoryStore) GetRotation(_ context.Context, id primitive.ObjectID) (models.Rotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rotations[id]
	if !ok {
		return models.Rotation{}, fmt.Errorf("rotation %s: %w", id.Hex(), ErrNotFound)
	}
	return cloneRotation(r), nil
}

func (s *MemoryStore) GetResident(_ context.Context, id primitive.ObjectID) (models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.residents[id]
	if !ok {
		return models.Resident{}, fmt.Errorf("resident %s: %w", id.Hex(), ErrNotFound)
	}
	return r, nil
}

func (s *MemoryStore) UpsertRotation(_ context.Context, r models.Rotation) (models.Rotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.rotations[r.ID]
	exists = exists && !r.ID.IsZero()
	if exists {
		r.CreatedAt = prev.CreatedAt
	}
	r, err := prepareRotation(r, time.Now().UTC())
	if err != nil {
		return models.Rotation{}, err
	}
	if exists {
		if err := checkProceduresLocked(prev, r); err != nil {
			return models.Rotation{}, err
		}
	}
	s.rotations[r.ID] = r
	return cloneRotation(r), nil
}

func (s *MemoryStore) UpsertResident(_ context.Context, res models.Resident) (models.Resident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.residents[res.ID]; ok && !res.ID.IsZero() {
		res.CreatedAt = prev.CreatedAt
	}
	res, err := prepareResident(res, time.Now().UTC())
	if err != nil {
		return models.Resident{}, err
	}
	s.residents[res.ID] = res
	return res, nil
}
