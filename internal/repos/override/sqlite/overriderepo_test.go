package sqlite

import (
	"io/ioutil"
	"testing"
	"time"

	"github.com/bebevio27-prog/calendar/internal/migrate"
	"github.com/bebevio27-prog/calendar/internal/models"
	"github.com/bebevio27-prog/calendar/internal/repos"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *OverrideRepo {
	logger := logrus.New()
	logger.Out = ioutil.Discard
	entry := logrus.NewEntry(logger)
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrate.ExecuteMigrationsOnDb(db, entry))
	return New(db, entry)
}

func TestUpsertCreatesAndUpdates(t *testing.T) {
	repo := newTestRepo(t)

	start := "09:30"
	first := models.EventOverride{EventID: 1, OriginalDate: "2025-03-10", NewStartTime: &start, OwnerID: 42}
	require.NoError(t, repo.Upsert(&first))
	assert.NotZero(t, first.ID)

	// The same (event, date, owner) triple updates in place
	second := models.EventOverride{EventID: 1, OriginalDate: "2025-03-10", Cancelled: true, OwnerID: 42}
	require.NoError(t, repo.Upsert(&second))
	assert.Equal(t, first.ID, second.ID)

	list, err := repo.ListByOwner(42)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Cancelled)
	// The update cleared the shifted start time again
	assert.Nil(t, list[0].NewStartTime)
	// The row keeps its original creation date through the update
	assert.False(t, second.CreatedAt.IsZero())
	assert.WithinDuration(t, first.CreatedAt, second.CreatedAt, 2*time.Second)
}

func TestUpsertKeepsDistinctDatesApart(t *testing.T) {
	repo := newTestRepo(t)

	a := models.EventOverride{EventID: 1, OriginalDate: "2025-03-10", Cancelled: true, OwnerID: 42}
	b := models.EventOverride{EventID: 1, OriginalDate: "2025-03-17", Cancelled: true, OwnerID: 42}
	require.NoError(t, repo.Upsert(&a))
	require.NoError(t, repo.Upsert(&b))
	assert.NotEqual(t, a.ID, b.ID)

	list, err := repo.ListByOwner(42)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestGetByID(t *testing.T) {
	repo := newTestRepo(t)

	end := "16:00"
	o := models.EventOverride{EventID: 7, OriginalDate: "2025-03-12", NewEndTime: &end, OwnerID: 42}
	require.NoError(t, repo.Upsert(&o))

	loaded, err := repo.GetByID(o.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(7), loaded.EventID)
	assert.Equal(t, "2025-03-12", loaded.OriginalDate)
	require.NotNil(t, loaded.NewEndTime)
	assert.Equal(t, "16:00", *loaded.NewEndTime)
	assert.Nil(t, loaded.NewStartTime)

	_, err = repo.GetByID(9999)
	assert.Equal(t, repos.ErrEntityNotExisting, err)
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)

	o := models.EventOverride{EventID: 1, OriginalDate: "2025-03-10", Cancelled: true, OwnerID: 42}
	require.NoError(t, repo.Upsert(&o))
	require.NoError(t, repo.Delete(o.ID))
	assert.Equal(t, repos.ErrEntityNotExisting, repo.Delete(o.ID))
}

func TestDeleteByEvent(t *testing.T) {
	repo := newTestRepo(t)

	for _, date := range []string{"2025-03-10", "2025-03-17", "2025-03-24"} {
		o := models.EventOverride{EventID: 1, OriginalDate: date, Cancelled: true, OwnerID: 42}
		require.NoError(t, repo.Upsert(&o))
	}
	other := models.EventOverride{EventID: 2, OriginalDate: "2025-03-10", Cancelled: true, OwnerID: 42}
	require.NoError(t, repo.Upsert(&other))

	require.NoError(t, repo.DeleteByEvent(1))
	list, err := repo.ListByOwner(42)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, uint(2), list[0].EventID)
}
