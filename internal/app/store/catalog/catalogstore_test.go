package catalogstore_test

import (
	"context"
	"errors"
	"testing"

	catalogstore "github.com/dalemusser/residenthub/internal/app/store/catalog"
	"github.com/dalemusser/residenthub/internal/domain/models"
	"github.com/dalemusser/residenthub/internal/testutil"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type catalog interface {
	ListRotations(ctx context.Context) ([]models.Rotation, error)
	ListResidents(ctx context.Context) ([]models.Resident, error)
	GetRotation(ctx context.Context, id primitive.ObjectID) (models.Rotation, error)
	GetResident(ctx context.Context, id primitive.ObjectID) (models.Resident, error)
	UpsertRotation(ctx context.Context, r models.Rotation) (models.Rotation, error)
	UpsertResident(ctx context.Context, r models.Resident) (models.Resident, error)
}

func stores(t *testing.T) map[string]func(t *testing.T) catalog {
	return map[string]func(t *testing.T) catalog{
		"memory": func(t *testing.T) catalog { return catalogstore.NewMemory() },
		"mongo":  func(t *testing.T) catalog { return catalogstore.New(testutil.SetupTestDB(t)) },
	}
}

func TestUpsertRotation_Normalizes(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			got, err := s.UpsertRotation(ctx, models.Rotation{
				Name: "  <b>Cirugía</b>   General ",
				Procedures: []models.RequiredProcedure{
					{Name: "Appendectomy", Goal: 10},
					{ID: "fixed-id", Name: "Hernia <i>repair</i>", Goal: -3},
				},
			})
			require.NoError(t, err)

			assert.False(t, got.ID.IsZero())
			assert.Equal(t, "Cirugía General", got.Name)
			assert.Equal(t, text.Fold("Cirugía General"), got.NameCI)
			require.Len(t, got.Procedures, 2)
			assert.NotEmpty(t, got.Procedures[0].ID)
			assert.Equal(t, int64(10), got.Procedures[0].Goal)
			assert.Equal(t, "fixed-id", got.Procedures[1].ID)
			assert.Equal(t, "Hernia repair", got.Procedures[1].Name)
			assert.Equal(t, int64(0), got.Procedures[1].Goal)
			assert.False(t, got.CreatedAt.IsZero())
		})
	}
}

func TestUpsertRotation_Rejects(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			_, err := s.UpsertRotation(ctx, models.Rotation{Name: "<script></script>"})
			assert.ErrorIs(t, err, catalogstore.ErrNameRequired)

			_, err = s.UpsertRotation(ctx, models.Rotation{
				Name: "Cardiology",
				Procedures: []models.RequiredProcedure{
					{ID: "a", Name: "Echo"}, {ID: "a", Name: "Stress test"},
				},
			})
			assert.ErrorIs(t, err, catalogstore.ErrDuplicateProcedure)
		})
	}
}

func TestUpsertRotation_UpdateKeepsCreatedAt(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			first, err := s.UpsertRotation(ctx, models.Rotation{Name: "Pediatrics"})
			require.NoError(t, err)

			first.Name = "Pediatría"
			second, err := s.UpsertRotation(ctx, first)
			require.NoError(t, err)

			assert.Equal(t, first.ID, second.ID)
			assert.Equal(t, "Pediatría", second.Name)
			assert.Equal(t, text.Fold("Pediatría"), second.NameCI)
			assert.WithinDuration(t, first.CreatedAt, second.CreatedAt, 0)

			all, err := s.ListRotations(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)
		})
	}
}

func TestUpsertRotation_ExistingProceduresAreLocked(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			orig, err := s.UpsertRotation(ctx, models.Rotation{
				Name:       "Medicina Interna",
				Procedures: []models.RequiredProcedure{{ID: "puncion", Name: "Punción", Goal: 10}},
			})
			require.NoError(t, err)

			regoal := orig
			regoal.Procedures = []models.RequiredProcedure{{ID: "puncion", Name: "Punción", Goal: 2}}
			_, err = s.UpsertRotation(ctx, regoal)
			assert.ErrorIs(t, err, catalogstore.ErrProcedureLocked)

			dropped := orig
			dropped.Procedures = nil
			_, err = s.UpsertRotation(ctx, dropped)
			assert.ErrorIs(t, err, catalogstore.ErrProcedureLocked)

			got, err := s.GetRotation(ctx, orig.ID)
			require.NoError(t, err)
			require.Len(t, got.Procedures, 1)
			assert.Equal(t, int64(10), got.Procedures[0].Goal)

			// Renames and additions are still accepted.
			grown := orig
			grown.Procedures = []models.RequiredProcedure{
				{ID: "puncion", Name: "Punción lumbar", Goal: 10},
				{ID: "biopsia", Name: "Biopsia", Goal: 4},
			}
			out, err := s.UpsertRotation(ctx, grown)
			require.NoError(t, err)
			require.Len(t, out.Procedures, 2)
			assert.Equal(t, "Punción lumbar", out.Procedures[0].Name)
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			_, err := s.GetRotation(ctx, primitive.NewObjectID())
			assert.True(t, errors.Is(err, catalogstore.ErrNotFound))

			_, err = s.GetResident(ctx, primitive.NewObjectID())
			assert.True(t, errors.Is(err, catalogstore.ErrNotFound))
		})
	}
}

func TestList_SortedByFoldedName(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := mk(t)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			for _, n := range []string{"Zoe Ruiz", "alvaro Diaz", "Bea Soto"} {
				_, err := s.UpsertResident(ctx, models.Resident{FullName: n, Level: "R1"})
				require.NoError(t, err)
			}
			for _, n := range []string{"Urology", "anesthesia", "Emergencias"} {
				_, err := s.UpsertRotation(ctx, models.Rotation{Name: n})
				require.NoError(t, err)
			}

			residents, err := s.ListResidents(ctx)
			require.NoError(t, err)
			var names []string
			for _, r := range residents {
				names = append(names, r.FullName)
			}
			assert.Equal(t, []string{"alvaro Diaz", "Bea Soto", "Zoe Ruiz"}, names)
			assert.Equal(t, "active", residents[0].Status)

			rotations, err := s.ListRotations(ctx)
			require.NoError(t, err)
			names = names[:0]
			for _, r := range rotations {
				names = append(names, r.Name)
			}
			assert.Equal(t, []string{"anesthesia", "Emergencias", "Urology"}, names)
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := catalogstore.NewMemory()
	ctx := context.Background()

	r, err := s.UpsertRotation(ctx, models.Rotation{
		Name:       "Oncology",
		Procedures: []models.RequiredProcedure{{ID: "p1", Name: "Biopsy", Goal: 5}},
	})
	require.NoError(t, err)

	r.Procedures[0].Goal = 99

	got, err := s.GetRotation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Procedures[0].Goal)
}
