package storeclient

import (
	"errors"

	"github.com/dmitrijs2005/safedrop/internal/netx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safedrop_store_requests_total",
			Help: "Core Store operations by outcome",
		},
		[]string{"operation", "result"},
	)

	storeRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "safedrop_store_request_duration_seconds",
			Help:    "Time until the Core Store answered (upload reply or download header)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	storeBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safedrop_store_bytes_total",
			Help: "Attachment bytes sent to and received from the Core Store",
		},
		[]string{"direction"},
	)
)

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrBurned):
		return "burned"
	case errors.Is(err, ErrProtocolViolation):
		return "protocol_violation"
	case errors.Is(err, ErrStoreUnavailable) && netx.IsTimeout(err):
		return "timeout"
	case errors.Is(err, ErrStoreUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
