package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/iliyamo/event-reservation/internal/model"
	"github.com/iliyamo/event-reservation/internal/queue"
	"github.com/iliyamo/event-reservation/internal/repository"
	"github.com/iliyamo/event-reservation/internal/service"
)

type publisherMock struct {
	mock.Mock
}

func (p *publisherMock) Publish(ctx context.Context, ev queue.ReservationEvent) error {
	return p.Called(ctx, ev).Error(0)
}

type ReservationSuite struct {
	suite.Suite

	ctx     context.Context
	store   *repository.MemoryStore
	admin   *service.AdminService
	catalog *service.CatalogService
	manager *service.ReservationManager

	showing model.Showing
}

func TestReservationSuite(t *testing.T) {
	suite.Run(t, new(ReservationSuite))
}

func (s *ReservationSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = repository.NewMemoryStore()
	s.admin = service.NewAdminService(s.store)
	s.catalog = service.NewCatalogService(s.store, time.UTC)
	s.manager = service.NewReservationManager(s.store, nil, 0)
	s.showing = s.newShowing(10)
}

func (s *ReservationSuite) newShowing(capacity int) model.Showing {
	v, err := s.admin.CreateVenue(s.ctx, "Teatro Verdi", "Firenze", capacity)
	s.Require().NoError(err)
	e, err := s.admin.CreateEvent(s.ctx, v.ID, "La Traviata", "traviata.jpg")
	s.Require().NoError(err)
	sh, err := s.admin.CreateShowing(s.ctx, e.ID, time.Date(2024, 6, 27, 14, 30, 0, 0, time.UTC))
	s.Require().NoError(err)
	return sh
}

func (s *ReservationSuite) available(showingID uint64) int {
	v, err := s.catalog.GetShowing(s.ctx, showingID)
	s.Require().NoError(err)
	return v.Available
}

func (s *ReservationSuite) TestCreateWithinAndBeyondCapacity() {
	r, err := s.manager.Create(s.ctx, 1, s.showing.ID, 4)
	s.Require().NoError(err)
	s.Equal(uint64(1), r.UserID)
	s.Equal(4, r.Quantity)
	s.NotZero(r.ID)
	s.Equal(6, s.available(s.showing.ID))

	_, err = s.manager.Create(s.ctx, 2, s.showing.ID, 7)
	s.ErrorIs(err, service.ErrCapacityExceeded)
	s.Equal(6, s.available(s.showing.ID))
}

func (s *ReservationSuite) TestUpdateUsesOwnSeats() {
	r, err := s.manager.Create(s.ctx, 1, s.showing.ID, 4)
	s.Require().NoError(err)

	updated, err := s.manager.Update(s.ctx, r.ID, 1, 6)
	s.Require().NoError(err)
	s.Equal(6, updated.Quantity)
	s.Equal(4, s.available(s.showing.ID))

	// 4 free + 6 held = 10 is the ceiling for this reservation.
	_, err = s.manager.Update(s.ctx, r.ID, 1, 10)
	s.Require().NoError(err)
	_, err = s.manager.Update(s.ctx, r.ID, 1, 11)
	s.ErrorIs(err, service.ErrCapacityExceeded)
	s.Equal(0, s.available(s.showing.ID))

	_, err = s.manager.Update(s.ctx, r.ID, 1, 2)
	s.Require().NoError(err)
	s.Equal(8, s.available(s.showing.ID))
}

func (s *ReservationSuite) TestConcurrentCreatesNeverOversell() {
	const users = 20
	errChan := make(chan error, users)
	var wg sync.WaitGroup
	for i := 1; i <= users; i++ {
		wg.Add(1)
		go func(userID uint64) {
			defer wg.Done()
			_, err := s.manager.Create(s.ctx, userID, s.showing.ID, 1)
			errChan <- err
		}(uint64(i))
	}
	wg.Wait()
	close(errChan)

	var ok, full int
	for err := range errChan {
		if err == nil {
			ok++
			continue
		}
		s.ErrorIs(err, service.ErrCapacityExceeded)
		full++
	}
	s.Equal(10, ok)
	s.Equal(10, full)
	s.Equal(0, s.available(s.showing.ID))
}

func (s *ReservationSuite) TestConcurrentUpdatesNeverOversell() {
	var ids []uint64
	for u := uint64(1); u <= 5; u++ {
		r, err := s.manager.Create(s.ctx, u, s.showing.ID, 1)
		s.Require().NoError(err)
		ids = append(ids, r.ID)
	}

	// Every owner tries to grow from 1 to 4 seats.  After the first one
	// commits only 2 seats are free and the others each need 3.
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(userID, id uint64) {
			defer wg.Done()
			_, _ = s.manager.Update(s.ctx, id, userID, 4)
		}(uint64(i+1), id)
	}
	wg.Wait()

	list, err := s.store.ListReservationsByShowing(s.ctx, s.showing.ID)
	s.Require().NoError(err)
	s.LessOrEqual(service.Reserved(list), 10)
	grown := 0
	for _, r := range list {
		if r.Quantity == 4 {
			grown++
		}
	}
	s.Equal(1, grown)
}

func (s *ReservationSuite) TestCancelledShowingRejectsCreate() {
	_, err := s.admin.SetShowingCancelled(s.ctx, s.showing.ID, true)
	s.Require().NoError(err)

	_, err = s.manager.Create(s.ctx, 1, s.showing.ID, 2)
	s.ErrorIs(err, service.ErrShowingCancelled)
	s.Equal(10, s.available(s.showing.ID))
}

func (s *ReservationSuite) TestCancelledShowingOnlyShrinks() {
	r, err := s.manager.Create(s.ctx, 1, s.showing.ID, 3)
	s.Require().NoError(err)
	_, err = s.admin.SetShowingCancelled(s.ctx, s.showing.ID, true)
	s.Require().NoError(err)

	_, err = s.manager.Update(s.ctx, r.ID, 1, 4)
	s.ErrorIs(err, service.ErrShowingCancelled)

	updated, err := s.manager.Update(s.ctx, r.ID, 1, 1)
	s.Require().NoError(err)
	s.Equal(1, updated.Quantity)
}

func (s *ReservationSuite) TestDuplicateReservation() {
	_, err := s.manager.Create(s.ctx, 1, s.showing.ID, 1)
	s.Require().NoError(err)
	_, err = s.manager.Create(s.ctx, 2, s.showing.ID, 1)
	s.Require().NoError(err)

	_, err = s.manager.Create(s.ctx, 1, s.showing.ID, 1)
	s.ErrorIs(err, service.ErrDuplicateReservation)
	s.Equal(8, s.available(s.showing.ID))
}

func (s *ReservationSuite) TestConcurrentDuplicateCreates() {
	errChan := make(chan error, 8)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.manager.Create(s.ctx, 42, s.showing.ID, 1)
			errChan <- err
		}()
	}
	wg.Wait()
	close(errChan)

	ok := 0
	for err := range errChan {
		if err == nil {
			ok++
			continue
		}
		s.ErrorIs(err, service.ErrDuplicateReservation)
	}
	s.Equal(1, ok)
}

func (s *ReservationSuite) TestCancelThenCreateAgain() {
	r, err := s.manager.Create(s.ctx, 1, s.showing.ID, 3)
	s.Require().NoError(err)

	s.Require().NoError(s.manager.Cancel(s.ctx, r.ID, 1))
	s.Equal(10, s.available(s.showing.ID))

	_, err = s.manager.Get(s.ctx, r.ID, 1)
	s.ErrorIs(err, service.ErrReservationNotFound)

	again, err := s.manager.Create(s.ctx, 1, s.showing.ID, 2)
	s.Require().NoError(err)
	s.NotEqual(r.ID, again.ID)
	s.Equal(8, s.available(s.showing.ID))
}

func (s *ReservationSuite) TestOwnership() {
	r, err := s.manager.Create(s.ctx, 1, s.showing.ID, 3)
	s.Require().NoError(err)

	_, err = s.manager.Update(s.ctx, r.ID, 2, 1)
	s.ErrorIs(err, service.ErrForbidden)
	s.ErrorIs(s.manager.Cancel(s.ctx, r.ID, 2), service.ErrForbidden)
	_, err = s.manager.Get(s.ctx, r.ID, 2)
	s.ErrorIs(err, service.ErrForbidden)

	got, err := s.manager.Get(s.ctx, r.ID, 1)
	s.Require().NoError(err)
	s.Equal(3, got.Quantity)
	s.Equal(7, s.available(s.showing.ID))
}

func (s *ReservationSuite) TestInvalidQuantity() {
	_, err := s.manager.Create(s.ctx, 1, s.showing.ID, 0)
	s.ErrorIs(err, service.ErrInvalidQuantity)
	_, err = s.manager.Create(s.ctx, 1, s.showing.ID, -3)
	s.ErrorIs(err, service.ErrInvalidQuantity)

	r, err := s.manager.Create(s.ctx, 1, s.showing.ID, 2)
	s.Require().NoError(err)
	_, err = s.manager.Update(s.ctx, r.ID, 1, 0)
	s.ErrorIs(err, service.ErrInvalidQuantity)
	s.Equal(8, s.available(s.showing.ID))
}

func (s *ReservationSuite) TestNotFound() {
	_, err := s.manager.Create(s.ctx, 1, 9999, 1)
	s.ErrorIs(err, service.ErrShowingNotFound)

	_, err = s.manager.Update(s.ctx, 9999, 1, 1)
	s.ErrorIs(err, service.ErrReservationNotFound)
	s.ErrorIs(s.manager.Cancel(s.ctx, 9999, 1), service.ErrReservationNotFound)

	_, err = s.manager.FindForShowing(s.ctx, 1, s.showing.ID)
	s.ErrorIs(err, service.ErrReservationNotFound)
}

func (s *ReservationSuite) TestAvailabilityReadIsIdempotent() {
	_, err := s.manager.Create(s.ctx, 1, s.showing.ID, 3)
	s.Require().NoError(err)

	first, err := s.catalog.GetShowing(s.ctx, s.showing.ID)
	s.Require().NoError(err)
	second, err := s.catalog.GetShowing(s.ctx, s.showing.ID)
	s.Require().NoError(err)
	s.Equal(first, second)
	s.Equal(7, first.Available)
}

func (s *ReservationSuite) TestListForUser() {
	other := s.newShowing(5)
	_, err := s.manager.Create(s.ctx, 1, s.showing.ID, 2)
	s.Require().NoError(err)
	_, err = s.manager.Create(s.ctx, 1, other.ID, 1)
	s.Require().NoError(err)
	_, err = s.manager.Create(s.ctx, 2, s.showing.ID, 1)
	s.Require().NoError(err)

	list, err := s.manager.ListForUser(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(list, 2)
	for _, r := range list {
		s.Equal(uint64(1), r.UserID)
	}

	found, err := s.manager.FindForShowing(s.ctx, 1, other.ID)
	s.Require().NoError(err)
	s.Equal(1, found.Quantity)
}

func (s *ReservationSuite) TestTimeoutAppliesNothing() {
	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.store.InShowing(s.ctx, s.showing.ID, func(context.Context, repository.ShowingTx) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	manager := service.NewReservationManager(s.store, nil, 50*time.Millisecond)
	_, err := manager.Create(s.ctx, 1, s.showing.ID, 1)
	s.ErrorIs(err, context.DeadlineExceeded)
	s.Equal("timeout", service.Kind(err))

	close(release)
	s.Require().NoError(<-done)
	s.Equal(10, s.available(s.showing.ID))
}

func TestReservationManager_PublishesLifecycleEvents(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	admin := service.NewAdminService(store)
	v, err := admin.CreateVenue(ctx, "Arena", "Verona", 100)
	require.NoError(t, err)
	e, err := admin.CreateEvent(ctx, v.ID, "Aida", "")
	require.NoError(t, err)
	sh, err := admin.CreateShowing(ctx, e.ID, time.Now().Add(24*time.Hour))
	require.NoError(t, err)

	pub := new(publisherMock)
	ofType := func(typ queue.EventType, quantity, previous int) interface{} {
		return mock.MatchedBy(func(ev queue.ReservationEvent) bool {
			return ev.Type == typ && ev.Quantity == quantity && ev.PreviousQuantity == previous &&
				ev.UserID == 7 && ev.ShowingID == sh.ID && ev.MessageID != ""
		})
	}
	pub.On("Publish", mock.Anything, ofType(queue.ReservationCreated, 2, 0)).Return(nil).Once()
	pub.On("Publish", mock.Anything, ofType(queue.ReservationUpdated, 5, 2)).Return(assert.AnError).Once()
	pub.On("Publish", mock.Anything, ofType(queue.ReservationCancelled, 0, 5)).Return(nil).Once()

	manager := service.NewReservationManager(store, pub, time.Second)
	r, err := manager.Create(ctx, 7, sh.ID, 2)
	require.NoError(t, err)
	// A broker failure does not undo the committed update.
	_, err = manager.Update(ctx, r.ID, 7, 5)
	require.NoError(t, err)
	require.NoError(t, manager.Cancel(ctx, r.ID, 7))

	// Rejected calls publish nothing.
	_, err = manager.Create(ctx, 8, sh.ID, 500)
	require.ErrorIs(t, err, service.ErrCapacityExceeded)

	pub.AssertExpectations(t)
}
