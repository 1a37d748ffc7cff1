package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/safedrop/internal/common"
	"github.com/dmitrijs2005/safedrop/internal/dbx"
	"github.com/dmitrijs2005/safedrop/internal/logging"
	"github.com/dmitrijs2005/safedrop/internal/server/models"
	"github.com/dmitrijs2005/safedrop/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/safedrop/internal/server/storeclient"
)

// CoreStore is the ephemeral object store holding attachment bytes.
type CoreStore interface {
	Deposit(ctx context.Context, ext string, body io.Reader, policy models.RetentionPolicy) (fileID, fileKey string, err error)
	Redeem(ctx context.Context, fileID, fileKey string) (io.ReadCloser, error)
}

type Attachment struct {
	Filename string
	Content  io.Reader
	Policy   models.RetentionPolicy
}

type SendRequest struct {
	Receiver   models.Identity
	Text       string
	Attachment *Attachment
}

// Download is a redeemed attachment. Content streams from the Core Store
// and must be closed by the caller.
type Download struct {
	Filename string
	Content  io.ReadCloser
}

// ExchangeService is the gateway between chat messages and the Core Store.
// It keeps the ledger, decides who may redeem an attachment and records
// burns reported by the store. Retention itself is enforced by the store.
type ExchangeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       CoreStore
	logger      logging.Logger
	now         func() time.Time
}

func NewExchangeService(db *sql.DB, m repomanager.RepositoryManager, store CoreStore, l logging.Logger) *ExchangeService {
	return &ExchangeService{
		db:          db,
		repomanager: m,
		store:       store,
		logger:      l.With("module", "exchange"),
		now:         time.Now,
	}
}

// Send records a message from identity. An attachment is deposited in the
// Core Store first; if that fails nothing is recorded.
func (s *ExchangeService) Send(ctx context.Context, identity models.Identity, req SendRequest) (*models.Message, error) {
	if identity == "" {
		return nil, common.ErrorUnauthorized
	}
	if req.Receiver == "" {
		return nil, fmt.Errorf("%w: empty receiver", common.ErrorInvalidArgument)
	}

	msg := &models.Message{
		Sender:            identity,
		Receiver:          req.Receiver,
		Text:              req.Text,
		SentAt:            s.now(),
		VisibleToSender:   true,
		VisibleToReceiver: true,
	}

	if a := req.Attachment; a != nil {
		if a.Filename == "" {
			return nil, fmt.Errorf("%w: attachment without filename", common.ErrorInvalidArgument)
		}
		if err := a.Policy.Validate(); err != nil {
			return nil, err
		}

		fileID, fileKey, err := s.store.Deposit(ctx, ExtensionOf(a.Filename), a.Content, a.Policy)
		if err != nil {
			return nil, storeError(err)
		}
		msg.File = &models.FileRef{FileID: fileID, FileKey: fileKey, Filename: a.Filename}
	}

	saved, err := s.repomanager.Messages(s.db).Create(ctx, msg)
	if err != nil {
		if msg.File != nil {
			s.logger.Error(ctx, "deposited attachment not recorded", "file_id", msg.File.FileID, "error", err)
		}
		return nil, fmt.Errorf("error recording message: %w", err)
	}

	messagesSentTotal.WithLabelValues(attachmentLabel(saved)).Inc()
	s.logger.Info(ctx, "message sent", "message_id", saved.ID, "attachment", saved.File != nil)
	return saved, nil
}

// History returns the conversation between identity and contact as seen
// by identity, oldest first.
func (s *ExchangeService) History(ctx context.Context, identity, contact models.Identity) ([]*models.Message, error) {
	if identity == "" {
		return nil, common.ErrorUnauthorized
	}

	msgs, err := s.repomanager.Messages(s.db).History(ctx, identity, contact)
	if err != nil {
		return nil, fmt.Errorf("error loading history: %w", err)
	}
	return msgs, nil
}

// Download redeems the attachment of message id on behalf of its receiver.
// A burn reported by the store is recorded before ErrorGone is returned;
// store outages leave the ledger untouched.
func (s *ExchangeService) Download(ctx context.Context, identity models.Identity, id int64) (*Download, error) {
	d, err := s.download(ctx, identity, id)
	downloadsTotal.WithLabelValues(downloadLabel(err)).Inc()
	return d, err
}

func (s *ExchangeService) download(ctx context.Context, identity models.Identity, id int64) (*Download, error) {
	if identity == "" {
		return nil, common.ErrorUnauthorized
	}

	repo := s.repomanager.Messages(s.db)

	msg, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case msg.Sender == identity:
		return nil, fmt.Errorf("%w: sender cannot download own attachment", common.ErrorForbidden)
	case msg.Receiver != identity:
		return nil, common.ErrorForbidden
	case !msg.HasAttachment():
		return nil, fmt.Errorf("%w: message has no attachment", common.ErrorNotFound)
	case msg.File.Burned():
		return nil, common.ErrorGone
	}

	content, err := s.store.Redeem(ctx, msg.File.FileID, msg.File.FileKey)
	if err == nil {
		return &Download{Filename: msg.File.Filename, Content: content}, nil
	}

	if !errors.Is(err, storeclient.ErrBurned) {
		return nil, storeError(err)
	}

	if err := repo.MarkBurned(ctx, msg.ID); err != nil {
		return nil, fmt.Errorf("error recording burn: %w", err)
	}
	attachmentsBurnedTotal.Inc()
	s.logger.Info(ctx, "attachment burned", "message_id", msg.ID)

	return nil, common.ErrorGone
}

// HideForSender removes the message from the sender's history.
func (s *ExchangeService) HideForSender(ctx context.Context, identity models.Identity, id int64) error {
	return s.hide(ctx, identity, id, roleSender)
}

// HideForReceiver removes the message from the receiver's history.
func (s *ExchangeService) HideForReceiver(ctx context.Context, identity models.Identity, id int64) error {
	return s.hide(ctx, identity, id, roleReceiver)
}

// Hide removes the message from the caller's own history, whichever side
// of the conversation they are on.
func (s *ExchangeService) Hide(ctx context.Context, identity models.Identity, id int64) error {
	return s.hide(ctx, identity, id, roleAny)
}

type role int

const (
	roleAny role = iota
	roleSender
	roleReceiver
)

func (s *ExchangeService) hide(ctx context.Context, identity models.Identity, id int64, want role) error {
	if identity == "" {
		return common.ErrorUnauthorized
	}

	// the role check and the flag flip see the same row
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Messages(tx)

		msg, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		isSender := msg.Sender == identity
		isReceiver := msg.Receiver == identity

		switch {
		case want == roleSender && !isSender,
			want == roleReceiver && !isReceiver,
			!isSender && !isReceiver:
			return common.ErrorForbidden
		case want == roleSender, want == roleAny && isSender:
			return repo.SetVisibleToSender(ctx, id, false)
		default:
			return repo.SetVisibleToReceiver(ctx, id, false)
		}
	})
}

// ExtensionOf returns the extension of filename without the dot, or
// common.DefaultExtension when there is none. Leading dots of hidden files
// do not start an extension.
func ExtensionOf(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.TrimLeft(base, ".")

	ext := strings.TrimPrefix(path.Ext(base), ".")
	if ext == "" {
		return common.DefaultExtension
	}
	return ext
}

// storeError maps Core Store failures onto the gateway error taxonomy.
func storeError(err error) error {
	if errors.Is(err, storeclient.ErrStoreUnavailable) || errors.Is(err, storeclient.ErrProtocolViolation) {
		return fmt.Errorf("%w: %w", common.ErrorService, err)
	}
	return err
}
