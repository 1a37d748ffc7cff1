package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/safedrop/internal/common"
	"github.com/dmitrijs2005/safedrop/internal/dbx"
	"github.com/dmitrijs2005/safedrop/internal/server/models"
)

const selectColumns = `id, sender, receiver, text, sent_at, file_id, file_key, filename, visible_to_sender, visible_to_receiver`

type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) Create(ctx context.Context, m *models.Message) (*models.Message, error) {
	query := r.dialect.Rebind(
		`INSERT INTO messages (sender, receiver, text, sent_at, file_id, file_key, filename, visible_to_sender, visible_to_receiver)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING id`)

	if m.SentAt.IsZero() {
		m.SentAt = time.Now()
	}
	m.SentAt = m.SentAt.UTC().Truncate(time.Minute)

	var fileID, fileKey, filename sql.NullString
	if m.File != nil {
		fileID = sql.NullString{String: m.File.FileID, Valid: true}
		fileKey = sql.NullString{String: m.File.FileKey, Valid: true}
		filename = sql.NullString{String: m.File.Filename, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		string(m.Sender), string(m.Receiver), m.Text, m.SentAt,
		fileID, fileKey, filename,
		m.VisibleToSender, m.VisibleToReceiver).Scan(&m.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return m, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	query := r.dialect.Rebind(`SELECT ` + selectColumns + ` FROM messages WHERE id = ?`)

	m, err := scanMessage(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *SQLRepository) History(ctx context.Context, owner, contact models.Identity) ([]*models.Message, error) {
	query := r.dialect.Rebind(
		`SELECT ` + selectColumns + ` FROM messages
		 WHERE (sender = ? AND receiver = ? AND visible_to_sender)
		    OR (sender = ? AND receiver = ? AND visible_to_receiver)
		 ORDER BY id`)

	rows, err := r.db.QueryContext(ctx, query,
		string(owner), string(contact), string(contact), string(owner))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *SQLRepository) MarkBurned(ctx context.Context, id int64) error {
	query := r.dialect.Rebind(
		`UPDATE messages SET file_id = ?
		 WHERE id = ? AND file_id IS NOT NULL`)

	return r.execOne(ctx, query, common.BurnedFileID, id)
}

func (r *SQLRepository) SetVisibleToSender(ctx context.Context, id int64, visible bool) error {
	query := r.dialect.Rebind(`UPDATE messages SET visible_to_sender = ? WHERE id = ?`)
	return r.execOne(ctx, query, visible, id)
}

func (r *SQLRepository) SetVisibleToReceiver(ctx context.Context, id int64, visible bool) error {
	query := r.dialect.Rebind(`UPDATE messages SET visible_to_receiver = ? WHERE id = ?`)
	return r.execOne(ctx, query, visible, id)
}

// execOne runs an update that must match exactly one row.
func (r *SQLRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*models.Message, error) {
	var (
		m                         models.Message
		sender, receiver          string
		fileID, fileKey, filename sql.NullString
	)

	err := row.Scan(&m.ID, &sender, &receiver, &m.Text, &m.SentAt,
		&fileID, &fileKey, &filename,
		&m.VisibleToSender, &m.VisibleToReceiver)
	if err != nil {
		return nil, err
	}

	m.Sender = models.Identity(sender)
	m.Receiver = models.Identity(receiver)
	m.SentAt = m.SentAt.UTC()
	if fileID.Valid {
		m.File = &models.FileRef{FileID: fileID.String, FileKey: fileKey.String, Filename: filename.String}
	}
	return &m, nil
}
