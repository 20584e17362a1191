package restaurant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"besaha/internal/database"
	"besaha/internal/pkg/geo"
	"besaha/internal/pkg/logger"
)

func setupTestRepo(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db, err := database.Connect(":memory:", logger.Nop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &Model{}))
	return NewRepository(db), db
}

func TestSeedAndGet(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	n, err := Seed(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	nomad, err := repo.GetByID(ctx, "4")
	require.NoError(t, err)
	assert.Equal(t, "Nomad", nomad.Name)
	assert.Equal(t, geo.Coordinates{Lat: 31.6295, Lng: -7.9847}, nomad.Coordinates)
	assert.Len(t, nomad.Images, 3)
	assert.Equal(t, 512, nomad.Meta.ReviewsCount)
	require.NotNil(t, nomad.Meta.AvgScores)
	assert.InDelta(t, 4.2, nomad.Meta.AvgScores.Authenticity, 1e-9)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, _ := setupTestRepo(t)
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_FiltersByCity(t *testing.T) {
	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	_, err := Seed(ctx, repo)
	require.NoError(t, err)

	items, total, err := repo.List(ctx, Filters{City: CityFes})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, "Nur", items[0].Name)
	assert.Equal(t, "The Ruined Garden", items[1].Name)

	items, total, err = repo.List(ctx, Filters{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	assert.Len(t, items, 2)
}

func TestUpsert_KeepsAggregate(t *testing.T) {
	repo, db := setupTestRepo(t)
	ctx := context.Background()
	_, err := Seed(ctx, repo)
	require.NoError(t, err)

	require.NoError(t, UpdateAggregate(db, "4", Meta{ReviewsCount: 513, AvgScores: &Scores{4.2, 4.3, 4.0, 4.6, 4.8}}))

	// seeding again must not reset counted reviews
	_, err = Seed(ctx, repo)
	require.NoError(t, err)

	nomad, err := repo.GetByID(ctx, "4")
	require.NoError(t, err)
	assert.Equal(t, 513, nomad.Meta.ReviewsCount)
}

func TestAggregate_NewRestaurantHasNoScores(t *testing.T) {
	repo, db := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &Restaurant{
		ID:          "new",
		Name:        "Dar Tajine",
		City:        CityMarrakech,
		Coordinates: geo.Coordinates{Lat: 31.63, Lng: -7.99},
	}))

	r, err := repo.GetByID(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, 0, r.Meta.ReviewsCount)
	assert.Nil(t, r.Meta.AvgScores)
	assert.Nil(t, r.Rating())

	locked, err := LockForUpdate(db, "new")
	require.NoError(t, err)
	assert.Nil(t, locked.Meta.AvgScores)

	require.NoError(t, UpdateAggregate(db, "new", Meta{ReviewsCount: 1, AvgScores: &Scores{5, 4, 3, 2, 1}}))
	r, err = repo.GetByID(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Meta.ReviewsCount)
	require.NotNil(t, r.Rating())
	assert.InDelta(t, 3.0, *r.Rating(), 1e-9)
}

func TestUpdateAggregate_Missing(t *testing.T) {
	_, db := setupTestRepo(t)
	err := UpdateAggregate(db, "nope", Meta{ReviewsCount: 1, AvgScores: &Scores{}})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = LockForUpdate(db, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
