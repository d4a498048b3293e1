package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-reservation/internal/repository"
	"github.com/iliyamo/event-reservation/internal/service"
)

func TestAdmin_DeletesAreRejectedWhileDependentsExist(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	admin := service.NewAdminService(store)
	manager := service.NewReservationManager(store, nil, 0)

	v, err := admin.CreateVenue(ctx, "Teatro Verdi", "Firenze", 10)
	require.NoError(t, err)
	e, err := admin.CreateEvent(ctx, v.ID, "La Traviata", "")
	require.NoError(t, err)
	sh, err := admin.CreateShowing(ctx, e.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	r, err := manager.Create(ctx, 1, sh.ID, 2)
	require.NoError(t, err)

	assert.ErrorIs(t, admin.DeleteVenue(ctx, v.ID), service.ErrReferentialConflict)
	assert.ErrorIs(t, admin.DeleteEvent(ctx, e.ID), service.ErrReferentialConflict)
	assert.ErrorIs(t, admin.DeleteShowing(ctx, sh.ID), service.ErrReferentialConflict)

	// Nothing was removed.
	got, err := manager.Get(ctx, r.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)

	require.NoError(t, manager.Cancel(ctx, r.ID, 1))
	require.NoError(t, admin.DeleteShowing(ctx, sh.ID))
	require.NoError(t, admin.DeleteEvent(ctx, e.ID))
	require.NoError(t, admin.DeleteVenue(ctx, v.ID))

	_, err = manager.Create(ctx, 1, sh.ID, 1)
	assert.ErrorIs(t, err, service.ErrShowingNotFound)
	assert.ErrorIs(t, admin.DeleteShowing(ctx, sh.ID), service.ErrShowingNotFound)
	assert.ErrorIs(t, admin.DeleteEvent(ctx, e.ID), service.ErrEntityNotFound)
	assert.ErrorIs(t, admin.DeleteVenue(ctx, v.ID), service.ErrEntityNotFound)
}

func TestAdmin_Validation(t *testing.T) {
	ctx := context.Background()
	admin := service.NewAdminService(repository.NewMemoryStore())

	_, err := admin.CreateVenue(ctx, "Empty", "Nowhere", 0)
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
	_, err = admin.CreateVenue(ctx, "  ", "Nowhere", 10)
	assert.ErrorIs(t, err, service.ErrInvalidArgument)

	_, err = admin.CreateEvent(ctx, 404, "Orphan", "")
	assert.ErrorIs(t, err, service.ErrEntityNotFound)
	_, err = admin.CreateShowing(ctx, 404, time.Now())
	assert.ErrorIs(t, err, service.ErrEntityNotFound)

	_, err = admin.SetShowingCancelled(ctx, 404, true)
	assert.ErrorIs(t, err, service.ErrShowingNotFound)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "ok", service.Kind(nil))
	assert.Equal(t, "capacity_exceeded", service.Kind(service.ErrCapacityExceeded))
	assert.Equal(t, "timeout", service.Kind(context.DeadlineExceeded))
	assert.Equal(t, "internal", service.Kind(assert.AnError))
}
