package corestore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	objectsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safedrop_core_objects_stored_total",
		Help: "Objects accepted by the Core Store.",
	})

	redemptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safedrop_core_redemptions_total",
		Help: "Successful downloads served by the Core Store.",
	})

	objectsBurned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safedrop_core_objects_burned_total",
			Help: "Objects destroyed by the Core Store.",
		},
		[]string{"reason"},
	)

	connectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safedrop_core_connections_total",
			Help: "Connections handled by the Core Store, by opcode and outcome.",
		},
		[]string{"op", "result"},
	)
)
