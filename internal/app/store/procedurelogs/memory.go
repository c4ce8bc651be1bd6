package procedurelogstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/residenthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type pair struct {
	residentID primitive.ObjectID
	rotationID primitive.ObjectID
}

// entry is one ledger row guarded by its own lock, so unrelated keys never
// contend.
type entry struct {
	mu  sync.Mutex
	row models.ProcedureLog
}

// MemoryStore is an in-process ledger with the same semantics as Store.
type MemoryStore struct {
	mu    sync.RWMutex
	pairs map[pair]map[string]*entry
}

func NewMemory() *MemoryStore {
	return &MemoryStore{pairs: make(map[pair]map[string]*entry)}
}

// entryFor returns the row for k, creating an empty one under the store lock
// if needed.
func (s *MemoryStore) entryFor(k Key) *entry {
	p := pair{k.ResidentID, k.RotationID}

	s.mu.RLock()
	e := s.pairs[p][k.ProcedureID]
	s.mu.RUnlock()
	if e != nil {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.pairs[p]
	if rows == nil {
		rows = make(map[string]*entry)
		s.pairs[p] = rows
	}
	if e = rows[k.ProcedureID]; e == nil {
		e = &entry{row: models.ProcedureLog{
			ID:          primitive.NewObjectID(),
			ResidentID:  k.ResidentID,
			RotationID:  k.RotationID,
			ProcedureID: k.ProcedureID,
		}}
		rows[k.ProcedureID] = e
	}
	return e
}

// entries snapshots the row pointers of a pair.
func (s *MemoryStore) entries(residentID, rotationID primitive.ObjectID) []*entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.pairs[pair{residentID, rotationID}]
	out := make([]*entry, 0, len(rows))
	for _, e := range rows {
		out = append(out, e)
	}
	return out
}

func (s *MemoryStore) Increment(ctx context.Context, k Key, at time.Time) (models.ProcedureLog, error) {
	if err := ctx.Err(); err != nil {
		return models.ProcedureLog{}, err
	}
	e := s.entryFor(k)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.row.Count == 0 {
		e.row.CreatedAt = at
	}
	e.row.Count++
	e.row.LastLoggedAt = at
	e.row.UpdatedAt = at
	return e.row, nil
}

func (s *MemoryStore) ListPair(ctx context.Context, residentID, rotationID primitive.ObjectID) ([]models.ProcedureLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []models.ProcedureLog{}
	for _, e := range s.entries(residentID, rotationID) {
		e.mu.Lock()
		row := e.row
		e.mu.Unlock()
		// Rows are created just before their first increment lands.
		if row.Count > 0 {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProcedureID < out[j].ProcedureID })
	return out, nil
}

func (s *MemoryStore) ValidateAll(ctx context.Context, residentID, rotationID, validatorID primitive.ObjectID, at time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var changed int64
	for _, e := range s.entries(residentID, rotationID) {
		e.mu.Lock()
		if e.row.ValidatedCount < e.row.Count {
			e.row.ValidatedCount = e.row.Count
			t := at
			e.row.ValidatedAt = &t
			if !validatorID.IsZero() {
				v := validatorID
				e.row.ValidatedBy = &v
			}
			e.row.UpdatedAt = at
			changed++
		}
		e.mu.Unlock()
	}
	return changed, nil
}
