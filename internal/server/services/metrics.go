package services

import (
	"errors"

	"github.com/dmitrijs2005/safedrop/internal/common"
	"github.com/dmitrijs2005/safedrop/internal/server/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safedrop_messages_sent_total",
			Help: "Messages recorded in the ledger",
		},
		[]string{"attachment"},
	)

	downloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "safedrop_downloads_total",
			Help: "Attachment download attempts by outcome",
		},
		[]string{"result"},
	)

	attachmentsBurnedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "safedrop_attachments_burned_total",
			Help: "Attachments marked burned after the Core Store reported them gone",
		},
	)
)

func attachmentLabel(m *models.Message) string {
	if m.File != nil {
		return "true"
	}
	return "false"
}

func downloadLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrorGone):
		return "gone"
	case errors.Is(err, common.ErrorForbidden):
		return "forbidden"
	case errors.Is(err, common.ErrorNotFound):
		return "not_found"
	case errors.Is(err, common.ErrorService):
		return "unavailable"
	case errors.Is(err, common.ErrorUnauthorized):
		return "unauthorized"
	default:
		return "error"
	}
}
