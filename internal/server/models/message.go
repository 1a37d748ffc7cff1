// Package models defines server-side data models persisted in the ledger.
package models

import (
	"time"

	"github.com/dmitrijs2005/safedrop/internal/common"
)

// Identity is an authenticated username produced by the identity gate.
type Identity string

// FileRef is the capability token pair minted by the Core Store together
// with the original filename. It is either fully present or absent.
type FileRef struct {
	FileID   string
	FileKey  string
	Filename string
}

// Burned reports whether the attachment was destroyed by the Core Store.
func (f *FileRef) Burned() bool {
	return f != nil && f.FileID == common.BurnedFileID
}

// Message is a single chat message, optionally carrying an attachment.
type Message struct {
	ID                int64
	Sender            Identity
	Receiver          Identity
	Text              string
	SentAt            time.Time
	File              *FileRef
	VisibleToSender   bool
	VisibleToReceiver bool
}

// HasAttachment reports whether the message references a stored object.
func (m *Message) HasAttachment() bool {
	return m.File != nil && m.File.FileID != ""
}
