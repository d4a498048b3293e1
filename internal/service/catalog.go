package service

import (
	"context"
	"time"

	"github.com/iliyamo/event-reservation/internal/model"
)

// DisplayTimeLayout renders showing times, e.g. "14:30 Thursday 27/06/2024".
const DisplayTimeLayout = "15:04 Monday 02/01/2006"

// CatalogService builds the read-only catalog views.  It never mutates
// anything; the availability it reports is a point-in-time figure and
// can be stale by the time a client acts on it.
type CatalogService struct {
	store CatalogStore
	loc   *time.Location
}

// NewCatalogService returns a catalog rendering times in loc (UTC if nil).
func NewCatalogService(store CatalogStore, loc *time.Location) *CatalogService {
	if loc == nil {
		loc = time.UTC
	}
	return &CatalogService{store: store, loc: loc}
}

// FormatTime renders t with DisplayTimeLayout in the catalog location.
func (c *CatalogService) FormatTime(t time.Time) string {
	return t.In(c.loc).Format(DisplayTimeLayout)
}

// ListEventsWithShowings returns every event with its venue labels and
// its showings, each carrying the seats currently available.
func (c *CatalogService) ListEventsWithShowings(ctx context.Context) ([]EventView, error) {
	events, err := c.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	venues := make(map[uint64]model.Venue)
	out := make([]EventView, 0, len(events))
	for _, e := range events {
		v, ok := venues[e.VenueID]
		if !ok {
			if v, err = c.store.GetVenue(ctx, e.VenueID); err != nil {
				return nil, err
			}
			venues[e.VenueID] = v
		}
		showings, err := c.store.ListShowingsByEvent(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		ev := EventView{
			ID:        e.ID,
			Name:      e.Name,
			Location:  v.Location,
			VenueName: v.Name,
			Image:     e.Image,
			Showings:  make([]ShowingView, 0, len(showings)),
		}
		for _, s := range showings {
			sv, err := c.showingView(ctx, s, v.Capacity)
			if err != nil {
				return nil, err
			}
			ev.Showings = append(ev.Showings, sv)
		}
		out = append(out, ev)
	}
	return out, nil
}

// GetShowing returns one showing with its availability.
func (c *CatalogService) GetShowing(ctx context.Context, showingID uint64) (ShowingView, error) {
	s, err := c.store.GetShowing(ctx, showingID)
	if err != nil {
		return ShowingView{}, storeErr(err, ErrShowingNotFound, showingID)
	}
	e, err := c.store.GetEvent(ctx, s.EventID)
	if err != nil {
		return ShowingView{}, err
	}
	v, err := c.store.GetVenue(ctx, e.VenueID)
	if err != nil {
		return ShowingView{}, err
	}
	return c.showingView(ctx, s, v.Capacity)
}

// ShowingDisplayTime returns the formatted start time of a showing.
func (c *CatalogService) ShowingDisplayTime(ctx context.Context, showingID uint64) (string, error) {
	s, err := c.store.GetShowing(ctx, showingID)
	if err != nil {
		return "", storeErr(err, ErrShowingNotFound, showingID)
	}
	return c.FormatTime(s.StartTime), nil
}

// ReservationViews decorates reservations with their showing summary.
func (c *CatalogService) ReservationViews(ctx context.Context, list []model.Reservation) ([]ReservationView, error) {
	showings := make(map[uint64]ReservationShowingView)
	events := make(map[uint64]model.Event)
	out := make([]ReservationView, 0, len(list))
	for _, r := range list {
		sv, ok := showings[r.ShowingID]
		if !ok {
			s, err := c.store.GetShowing(ctx, r.ShowingID)
			if err != nil {
				return nil, err
			}
			e, ok := events[s.EventID]
			if !ok {
				if e, err = c.store.GetEvent(ctx, s.EventID); err != nil {
					return nil, err
				}
				events[s.EventID] = e
			}
			sv = ReservationShowingView{
				ID:        s.ID,
				StartTime: c.FormatTime(s.StartTime),
				Cancelled: s.Cancelled,
				EventName: e.Name,
			}
			showings[r.ShowingID] = sv
		}
		out = append(out, ReservationView{
			ID:        r.ID,
			UserID:    r.UserID,
			ShowingID: r.ShowingID,
			Quantity:  r.Quantity,
			Showing:   sv,
		})
	}
	return out, nil
}

// ReservationView decorates a single reservation.
func (c *CatalogService) ReservationView(ctx context.Context, r model.Reservation) (ReservationView, error) {
	views, err := c.ReservationViews(ctx, []model.Reservation{r})
	if err != nil {
		return ReservationView{}, err
	}
	return views[0], nil
}

func (c *CatalogService) showingView(ctx context.Context, s model.Showing, capacity int) (ShowingView, error) {
	reservations, err := c.store.ListReservationsByShowing(ctx, s.ID)
	if err != nil {
		return ShowingView{}, err
	}
	return ShowingView{
		ID:        s.ID,
		StartTime: c.FormatTime(s.StartTime),
		Cancelled: s.Cancelled,
		Available: max(Available(capacity, reservations), 0),
	}, nil
}
