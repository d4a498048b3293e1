package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/event-reservation/internal/model"
)

// MemoryStore is an in-process implementation of the store used by the
// service layer.  It backs the "memory" store driver and the service
// tests.  Reservation mutations of one showing are serialised through a
// per-showing lock; different showings proceed in parallel.
type MemoryStore struct {
	mu        sync.RWMutex
	venues    map[uint64]model.Venue
	events    map[uint64]model.Event
	showings  map[uint64]model.Showing
	byShowing map[uint64]map[uint64]model.Reservation // showing id -> reservation id -> reservation
	resIndex  map[uint64]uint64                       // reservation id -> showing id
	lastID    uint64

	locks showingLocks
	now   func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		venues:    make(map[uint64]model.Venue),
		events:    make(map[uint64]model.Event),
		showings:  make(map[uint64]model.Showing),
		byShowing: make(map[uint64]map[uint64]model.Reservation),
		resIndex:  make(map[uint64]uint64),
		locks:     showingLocks{m: make(map[uint64]*showingLock)},
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// nextID must be called with s.mu held for writing.
func (s *MemoryStore) nextID() uint64 {
	s.lastID++
	return s.lastID
}

// showingLocks hands out one lock per showing id.  Entries are reference
// counted and dropped when the last holder or waiter leaves, so the map
// only holds showings that are currently being mutated.
type showingLocks struct {
	mu sync.Mutex
	m  map[uint64]*showingLock
}

type showingLock struct {
	sem  chan struct{}
	refs int
}

// acquire blocks until the lock for id is held or ctx is done.
func (l *showingLocks) acquire(ctx context.Context, id uint64) (func(), error) {
	l.mu.Lock()
	e, ok := l.m[id]
	if !ok {
		e = &showingLock{sem: make(chan struct{}, 1)}
		l.m[id] = e
	}
	e.refs++
	l.mu.Unlock()

	leave := func() {
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}

	select {
	case e.sem <- struct{}{}:
		return func() {
			<-e.sem
			leave()
		}, nil
	case <-ctx.Done():
		leave()
		return nil, ctx.Err()
	}
}

// InShowing runs fn with the showing's lock held.  Writes made through
// the ShowingTx are staged and applied in one step after fn returns nil;
// if fn fails or ctx is done by then, nothing is applied.
func (s *MemoryStore) InShowing(ctx context.Context, showingID uint64, fn ShowingFunc) error {
	release, err := s.locks.acquire(ctx, showingID)
	if err != nil {
		return err
	}
	defer release()

	s.mu.RLock()
	showing, ok := s.showings[showingID]
	var capacity int
	if ok {
		capacity = s.venues[s.events[showing.EventID].VenueID].Capacity
	}
	working := make(map[uint64]model.Reservation, len(s.byShowing[showingID]))
	for id, r := range s.byShowing[showingID] {
		working[id] = r
	}
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	tx := &memShowingTx{store: s, showing: showing, capacity: capacity, working: working}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.commit(tx)
	return nil
}

func (s *MemoryStore) commit(tx *memShowingTx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := tx.showing.ID
	for rid := range s.byShowing[id] {
		if _, kept := tx.working[rid]; !kept {
			delete(s.resIndex, rid)
		}
	}
	if tx.deleted {
		delete(s.byShowing, id)
		delete(s.showings, id)
		return
	}
	if len(tx.working) == 0 {
		delete(s.byShowing, id)
	} else {
		s.byShowing[id] = tx.working
	}
	for rid := range tx.working {
		s.resIndex[rid] = id
	}
	s.showings[id] = tx.showing
}

type memShowingTx struct {
	store    *MemoryStore
	showing  model.Showing
	capacity int
	working  map[uint64]model.Reservation
	deleted  bool
}

func (t *memShowingTx) Showing() model.Showing { return t.showing }

func (t *memShowingTx) Capacity() int { return t.capacity }

func (t *memShowingTx) Reservations(context.Context) ([]model.Reservation, error) {
	list := make([]model.Reservation, 0, len(t.working))
	for _, r := range t.working {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (t *memShowingTx) InsertReservation(_ context.Context, r *model.Reservation) error {
	for _, cur := range t.working {
		if cur.UserID == r.UserID {
			return ErrDuplicate
		}
	}
	t.store.mu.Lock()
	r.ID = t.store.nextID()
	t.store.mu.Unlock()
	now := t.store.now()
	r.ShowingID = t.showing.ID
	r.CreatedAt, r.UpdatedAt = now, now
	t.working[r.ID] = *r
	return nil
}

func (t *memShowingTx) UpdateReservationQuantity(_ context.Context, id uint64, quantity int) error {
	r, ok := t.working[id]
	if !ok {
		return ErrNotFound
	}
	r.Quantity = quantity
	r.UpdatedAt = t.store.now()
	t.working[id] = r
	return nil
}

func (t *memShowingTx) DeleteReservation(_ context.Context, id uint64) error {
	if _, ok := t.working[id]; !ok {
		return ErrNotFound
	}
	delete(t.working, id)
	return nil
}

func (t *memShowingTx) SetCancelled(_ context.Context, cancelled bool) error {
	t.showing.Cancelled = cancelled
	return nil
}

func (t *memShowingTx) DeleteShowing(context.Context) error {
	if len(t.working) > 0 {
		return ErrConflict
	}
	t.deleted = true
	return nil
}

// CreateVenue stores v and assigns its id.
func (s *MemoryStore) CreateVenue(_ context.Context, v *model.Venue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.ID = s.nextID()
	v.CreatedAt = s.now()
	s.venues[v.ID] = *v
	return nil
}

// CreateEvent stores e; the venue must exist.
func (s *MemoryStore) CreateEvent(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.venues[e.VenueID]; !ok {
		return ErrNotFound
	}
	e.ID = s.nextID()
	e.CreatedAt = s.now()
	s.events[e.ID] = *e
	return nil
}

// CreateShowing stores sh; the event must exist.
func (s *MemoryStore) CreateShowing(_ context.Context, sh *model.Showing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[sh.EventID]; !ok {
		return ErrNotFound
	}
	sh.ID = s.nextID()
	sh.StartTime = sh.StartTime.UTC()
	sh.CreatedAt = s.now()
	s.showings[sh.ID] = *sh
	return nil
}

// DeleteVenue removes a venue that hosts no events.
func (s *MemoryStore) DeleteVenue(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.venues[id]; !ok {
		return ErrNotFound
	}
	for _, e := range s.events {
		if e.VenueID == id {
			return ErrConflict
		}
	}
	delete(s.venues, id)
	return nil
}

// DeleteEvent removes an event that has no showings.
func (s *MemoryStore) DeleteEvent(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return ErrNotFound
	}
	for _, sh := range s.showings {
		if sh.EventID == id {
			return ErrConflict
		}
	}
	delete(s.events, id)
	return nil
}

func (s *MemoryStore) GetVenue(_ context.Context, id uint64) (model.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.venues[id]
	if !ok {
		return model.Venue{}, ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) GetEvent(_ context.Context, id uint64) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return model.Event{}, ErrNotFound
	}
	return e, nil
}

func (s *MemoryStore) ListEvents(context.Context) ([]model.Event, error) {
	s.mu.RLock()
	list := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		list = append(list, e)
	}
	s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *MemoryStore) GetShowing(_ context.Context, id uint64) (model.Showing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.showings[id]
	if !ok {
		return model.Showing{}, ErrNotFound
	}
	return sh, nil
}

func (s *MemoryStore) ListShowingsByEvent(_ context.Context, eventID uint64) ([]model.Showing, error) {
	s.mu.RLock()
	var list []model.Showing
	for _, sh := range s.showings {
		if sh.EventID == eventID {
			list = append(list, sh)
		}
	}
	s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if !list[i].StartTime.Equal(list[j].StartTime) {
			return list[i].StartTime.Before(list[j].StartTime)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (s *MemoryStore) ListReservationsByShowing(_ context.Context, showingID uint64) ([]model.Reservation, error) {
	s.mu.RLock()
	list := make([]model.Reservation, 0, len(s.byShowing[showingID]))
	for _, r := range s.byShowing[showingID] {
		list = append(list, r)
	}
	s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *MemoryStore) GetReservation(_ context.Context, id uint64) (model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	showingID, ok := s.resIndex[id]
	if !ok {
		return model.Reservation{}, ErrNotFound
	}
	return s.byShowing[showingID][id], nil
}

func (s *MemoryStore) FindReservation(_ context.Context, userID, showingID uint64) (model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.byShowing[showingID] {
		if r.UserID == userID {
			return r, nil
		}
	}
	return model.Reservation{}, ErrNotFound
}

func (s *MemoryStore) ListReservationsByUser(_ context.Context, userID uint64) ([]model.Reservation, error) {
	s.mu.RLock()
	var list []model.Reservation
	for _, set := range s.byShowing {
		for _, r := range set {
			if r.UserID == userID {
				list = append(list, r)
			}
		}
	}
	s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}
