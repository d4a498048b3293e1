package service

// The view structs below are the JSON shapes served to clients.  Field
// names on the wire follow the public API contract used by the existing
// web front end.

// ShowingView is one showing inside an EventView.
type ShowingView struct {
	ID        uint64 `json:"id"`
	StartTime string `json:"data_ora"` // formatted with DisplayTimeLayout
	Cancelled bool   `json:"annullato"`
	Available int    `json:"posti_disponibili"`
}

// EventView is an event with its venue labels and showings.
type EventView struct {
	ID        uint64        `json:"id"`
	Name      string        `json:"nome_evento"`
	Location  string        `json:"luogo"`
	VenueName string        `json:"nome_locale"`
	Image     string        `json:"immagine"`
	Showings  []ShowingView `json:"repliche"`
}

// ReservationShowingView is the showing summary embedded in a
// ReservationView.
type ReservationShowingView struct {
	ID        uint64 `json:"id"`
	StartTime string `json:"data_ora"`
	Cancelled bool   `json:"annullato"`
	EventName string `json:"nome_evento"`
}

// ReservationView is a reservation as returned to its owner.
type ReservationView struct {
	ID        uint64                 `json:"id"`
	UserID    uint64                 `json:"utente_id"`
	ShowingID uint64                 `json:"replica_id"`
	Quantity  int                    `json:"quantita"`
	Showing   ReservationShowingView `json:"replica"`
}
