package repository_test

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-reservation/internal/database"
	"github.com/iliyamo/event-reservation/internal/model"
	"github.com/iliyamo/event-reservation/internal/repository"
	"github.com/iliyamo/event-reservation/internal/service"
)

var (
	db        *sql.DB
	getDbOnce sync.Once
)

// getDb connects to the database named by MYSQL_TEST_DSN, e.g.
// "root:root@tcp(localhost:3306)/reservations_test?parseTime=true&loc=UTC".
func getDb(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set")
	}
	getDbOnce.Do(func() {
		var err error
		db, err = database.Open(dsn)
		if err != nil {
			panic(err)
		}
		if err := database.Migrate(context.Background(), db); err != nil {
			panic(err)
		}
	})
	return db
}

func cleanupTestDB(t *testing.T, db *sql.DB) {
	for _, table := range []string{"reservations", "showings", "events", "venues"} {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
}

func seedMySQLShowing(t *testing.T, store *repository.MySQLStore, capacity int) model.Showing {
	ctx := context.Background()
	v := model.Venue{Name: "Teatro", Location: "Roma", Capacity: capacity}
	require.NoError(t, store.CreateVenue(ctx, &v))
	e := model.Event{VenueID: v.ID, Name: "Tosca"}
	require.NoError(t, store.CreateEvent(ctx, &e))
	sh := model.Showing{EventID: e.ID, StartTime: time.Date(2024, 6, 27, 14, 30, 0, 0, time.UTC)}
	require.NoError(t, store.CreateShowing(ctx, &sh))
	return sh
}

func TestMySQLStore_ConcurrentCreates_Integration(t *testing.T) {
	db := getDb(t)
	t.Cleanup(func() { cleanupTestDB(t, db) })

	store := repository.NewMySQLStore(db)
	sh := seedMySQLShowing(t, store, 10)
	manager := service.NewReservationManager(store, nil, 10*time.Second)
	ctx := context.Background()

	concurrency := 20
	errChan := make(chan error, concurrency)
	for i := 1; i <= concurrency; i++ {
		go func(userID uint64) {
			_, err := manager.Create(ctx, userID, sh.ID, 1)
			errChan <- err
		}(uint64(i))
	}

	ok := 0
	for i := 0; i < concurrency; i++ {
		err := <-errChan
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, service.ErrCapacityExceeded)
	}
	assert.Equal(t, 10, ok)

	var reserved int
	require.NoError(t, db.QueryRow("SELECT COALESCE(SUM(quantity), 0) FROM reservations WHERE showing_id = ?", sh.ID).Scan(&reserved))
	assert.Equal(t, 10, reserved)
}

func TestMySQLStore_Lifecycle_Integration(t *testing.T) {
	db := getDb(t)
	t.Cleanup(func() { cleanupTestDB(t, db) })

	store := repository.NewMySQLStore(db)
	sh := seedMySQLShowing(t, store, 10)
	manager := service.NewReservationManager(store, nil, 0)
	admin := service.NewAdminService(store)
	ctx := context.Background()

	r, err := manager.Create(ctx, 1, sh.ID, 4)
	require.NoError(t, err)
	_, err = manager.Create(ctx, 1, sh.ID, 1)
	assert.ErrorIs(t, err, service.ErrDuplicateReservation)
	_, err = manager.Create(ctx, 2, sh.ID, 7)
	assert.ErrorIs(t, err, service.ErrCapacityExceeded)

	updated, err := manager.Update(ctx, r.ID, 1, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Quantity)
	// Same quantity again is a no-op, not a missing row.
	_, err = manager.Update(ctx, r.ID, 1, 6)
	require.NoError(t, err)
	_, err = manager.Update(ctx, r.ID, 2, 1)
	assert.ErrorIs(t, err, service.ErrForbidden)

	assert.ErrorIs(t, admin.DeleteShowing(ctx, sh.ID), service.ErrReferentialConflict)
	ev, err := store.GetEvent(ctx, sh.EventID)
	require.NoError(t, err)
	assert.ErrorIs(t, admin.DeleteVenue(ctx, ev.VenueID), service.ErrReferentialConflict)

	_, err = admin.SetShowingCancelled(ctx, sh.ID, true)
	require.NoError(t, err)
	_, err = manager.Create(ctx, 3, sh.ID, 1)
	assert.ErrorIs(t, err, service.ErrShowingCancelled)

	require.NoError(t, manager.Cancel(ctx, r.ID, 1))
	list, err := manager.ListForUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
	require.NoError(t, admin.DeleteShowing(ctx, sh.ID))
}
