package catalogstore_test

import (
	"testing"

	catalogstore "github.com/dalemusser/residenthub/internal/app/store/catalog"
	"github.com/dalemusser/residenthub/internal/app/system/paging"
	"github.com/dalemusser/residenthub/internal/domain/models"
	"github.com/dalemusser/residenthub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageResidents_WalksForwardAndBack(t *testing.T) {
	s := catalogstore.New(testutil.SetupTestDB(t))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, n := range []string{"Ana", "Beto", "Carla", "Dario", "Elena"} {
		_, err := s.UpsertResident(ctx, models.Resident{FullName: n, Level: "R2"})
		require.NoError(t, err)
	}

	names := func(rows []models.Resident) []string {
		out := make([]string, len(rows))
		for i, r := range rows {
			out[i] = r.FullName
		}
		return out
	}

	first, res, err := s.PageResidents(ctx, paging.Request{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana", "Beto"}, names(first))
	assert.False(t, res.HasPrev)
	require.True(t, res.HasNext)

	second, res, err := s.PageResidents(ctx, paging.Request{After: res.Next, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Carla", "Dario"}, names(second))
	assert.True(t, res.HasPrev)
	require.True(t, res.HasNext)

	third, res3, err := s.PageResidents(ctx, paging.Request{After: res.Next, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Elena"}, names(third))
	assert.False(t, res3.HasNext)

	back, resBack, err := s.PageResidents(ctx, paging.Request{Before: res.Prev, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana", "Beto"}, names(back))
	assert.False(t, resBack.HasPrev)
	assert.True(t, resBack.HasNext)
}

func TestPageRotations_Empty(t *testing.T) {
	s := catalogstore.New(testutil.SetupTestDB(t))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rows, res, err := s.PageRotations(ctx, paging.Request{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, paging.Result{}, res)
}
