package procedurelogstore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	procedurelogstore "github.com/dalemusser/residenthub/internal/app/store/procedurelogs"
	"github.com/dalemusser/residenthub/internal/app/system/indexes"
	"github.com/dalemusser/residenthub/internal/domain/models"
	"github.com/dalemusser/residenthub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ledger interface {
	Increment(ctx context.Context, k procedurelogstore.Key, at time.Time) (models.ProcedureLog, error)
	ListPair(ctx context.Context, residentID, rotationID primitive.ObjectID) ([]models.ProcedureLog, error)
	ValidateAll(ctx context.Context, residentID, rotationID, validatorID primitive.ObjectID, at time.Time) (int64, error)
}

func stores() map[string]func(t *testing.T) ledger {
	return map[string]func(t *testing.T) ledger{
		"memory": func(t *testing.T) ledger { return procedurelogstore.NewMemory() },
		"mongo": func(t *testing.T) ledger {
			db := testutil.SetupTestDB(t)
			ctx, cancel := testutil.TestContext()
			defer cancel()
			require.NoError(t, indexes.EnsureAll(ctx, db))
			return procedurelogstore.New(db)
		},
	}
}

func newKey(procedureID string) procedurelogstore.Key {
	return procedurelogstore.Key{
		ResidentID:  primitive.NewObjectID(),
		RotationID:  primitive.NewObjectID(),
		ProcedureID: procedureID,
	}
}

func TestIncrement_CreatesThenCounts(t *testing.T) {
	for name, mk := range stores() {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx, cancel := testutil.TestContext()
			defer cancel()
			k := newKey("p1")

			row, err := s.Increment(ctx, k, time.Now().UTC())
			require.NoError(t, err)
			assert.Equal(t, int64(1), row.Count)
			assert.Equal(t, int64(0), row.ValidatedCount)
			assert.Equal(t, k.ResidentID, row.ResidentID)
			assert.Equal(t, k.RotationID, row.RotationID)
			assert.Equal(t, "p1", row.ProcedureID)
			assert.False(t, row.ID.IsZero())

			for i := 0; i < 4; i++ {
				row, err = s.Increment(ctx, k, time.Now().UTC())
				require.NoError(t, err)
			}
			assert.Equal(t, int64(5), row.Count)
			assert.Equal(t, int64(0), row.ValidatedCount)
		})
	}
}

func TestValidateAll(t *testing.T) {
	for name, mk := range stores() {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			k1 := newKey("p1")
			k2 := procedurelogstore.Key{ResidentID: k1.ResidentID, RotationID: k1.RotationID, ProcedureID: "p2"}
			other := procedurelogstore.Key{ResidentID: k1.ResidentID, RotationID: primitive.NewObjectID(), ProcedureID: "p1"}
			validator := primitive.NewObjectID()

			for _, k := range []procedurelogstore.Key{k1, k1, k1, k2, other} {
				_, err := s.Increment(ctx, k, time.Now().UTC())
				require.NoError(t, err)
			}

			n, err := s.ValidateAll(ctx, k1.ResidentID, k1.RotationID, validator, time.Now().UTC())
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)

			rows, err := s.ListPair(ctx, k1.ResidentID, k1.RotationID)
			require.NoError(t, err)
			require.Len(t, rows, 2)
			for _, r := range rows {
				assert.Equal(t, r.Count, r.ValidatedCount, r.ProcedureID)
				require.NotNil(t, r.ValidatedBy)
				assert.Equal(t, validator, *r.ValidatedBy)
				assert.NotNil(t, r.ValidatedAt)
			}

			// Idempotent: nothing left to advance.
			n, err = s.ValidateAll(ctx, k1.ResidentID, k1.RotationID, validator, time.Now().UTC())
			require.NoError(t, err)
			assert.Equal(t, int64(0), n)

			// Other rotation untouched.
			rows, err = s.ListPair(ctx, other.ResidentID, other.RotationID)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, int64(0), rows[0].ValidatedCount)

			// A new log after validation is pending again.
			row, err := s.Increment(ctx, k1, time.Now().UTC())
			require.NoError(t, err)
			assert.Equal(t, int64(4), row.Count)
			assert.Equal(t, int64(3), row.ValidatedCount)
		})
	}
}

func TestValidateAll_NoRows(t *testing.T) {
	for name, mk := range stores() {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			n, err := s.ValidateAll(ctx, primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), time.Now().UTC())
			require.NoError(t, err)
			assert.Equal(t, int64(0), n)
		})
	}
}

func TestConcurrentIncrementAndValidate(t *testing.T) {
	for name, mk := range stores() {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			k := newKey("p1")
			const workers, perWorker = 8, 25

			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < perWorker; i++ {
						row, err := s.Increment(ctx, k, time.Now().UTC())
						if assert.NoError(t, err) {
							assert.LessOrEqual(t, row.ValidatedCount, row.Count)
						}
					}
				}()
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 20; i++ {
					_, err := s.ValidateAll(ctx, k.ResidentID, k.RotationID, primitive.NilObjectID, time.Now().UTC())
					assert.NoError(t, err)
				}
			}()
			wg.Wait()

			rows, err := s.ListPair(ctx, k.ResidentID, k.RotationID)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, int64(workers*perWorker), rows[0].Count)
			assert.LessOrEqual(t, rows[0].ValidatedCount, rows[0].Count)
		})
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	s := procedurelogstore.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Increment(ctx, newKey("p1"), time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
