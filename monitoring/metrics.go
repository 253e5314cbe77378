package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentInitializations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_initializations_total",
			Help: "Total number of payment initialization attempts",
		},
		[]string{"result"},
	)

	PaymentVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verifications_total",
			Help: "Total number of payment verification outcomes by terminal status",
		},
		[]string{"result"},
	)

	TicketsMinted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_minted_total",
			Help: "Total number of ticket instances issued",
		},
	)

	InventoryConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_conflicts_total",
			Help: "Total number of purchases rejected by the inventory decrement",
		},
	)

	TicketCheckins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_checkins_total",
			Help: "Total number of check-in scans by outcome",
		},
		[]string{"result"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of outbound payment gateway calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func TrackInitialization(result string) {
	PaymentInitializations.WithLabelValues(result).Inc()
}

func TrackVerification(result string) {
	PaymentVerifications.WithLabelValues(result).Inc()
}

func TrackTicketsMinted(count int) {
	TicketsMinted.Add(float64(count))
}

func TrackInventoryConflict() {
	InventoryConflicts.Inc()
}

func TrackCheckin(result string) {
	TicketCheckins.WithLabelValues(result).Inc()
}

func ObserveGateway(operation string, d time.Duration) {
	GatewayRequestDuration.WithLabelValues(operation).Observe(d.Seconds())
}
