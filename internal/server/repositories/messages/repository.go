// Package messages is the message ledger: the durable record of chat
// messages and the capability tokens of their attachments.
package messages

import (
	"context"

	"github.com/dmitrijs2005/safedrop/internal/server/models"
)

type Repository interface {
	// Create inserts m and assigns its ID.
	Create(ctx context.Context, m *models.Message) (*models.Message, error)
	GetByID(ctx context.Context, id int64) (*models.Message, error)
	// History returns the conversation between owner and contact as seen
	// by owner, ordered by ID.
	History(ctx context.Context, owner, contact models.Identity) ([]*models.Message, error)
	// MarkBurned replaces the file id with the burn sentinel. It is
	// idempotent and never touches messages without an attachment.
	MarkBurned(ctx context.Context, id int64) error
	SetVisibleToSender(ctx context.Context, id int64, visible bool) error
	SetVisibleToReceiver(ctx context.Context, id int64, visible bool) error
}
