package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReservationOps counts reservation operations by operation and outcome.
	// The outcome is "ok" or the error kind that rejected the call.
	ReservationOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_operations_total",
		Help: "Reservation operations by operation and outcome",
	}, []string{"op", "outcome"})

	// ReservationOpDuration tracks how long operations take, including the
	// time spent waiting for the showing lock.
	ReservationOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reservation_operation_duration_seconds",
		Help:    "Latency of reservation operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	// SeatsReserved counts seats taken by successful creates and increases.
	SeatsReserved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservation_seats_reserved_total",
		Help: "Seats claimed by created or enlarged reservations",
	})

	// SeatsReleased counts seats given back by cancellations and decreases.
	SeatsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservation_seats_released_total",
		Help: "Seats released by cancelled or reduced reservations",
	})

	// EventsPublishFailures counts lifecycle events that could not be sent
	// to the broker.
	EventsPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservation_events_publish_failures_total",
		Help: "Reservation lifecycle events that failed to publish",
	})
)

// ObserveOp records one finished operation.
func ObserveOp(op, outcome string, started time.Time) {
	ReservationOps.WithLabelValues(op, outcome).Inc()
	ReservationOpDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// SeatDelta records a change in reserved seats; positive values are
// reservations, negative values are releases.
func SeatDelta(delta int) {
	switch {
	case delta > 0:
		SeatsReserved.Add(float64(delta))
	case delta < 0:
		SeatsReleased.Add(float64(-delta))
	}
}
