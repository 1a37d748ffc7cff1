package client

import (
	"context"
	"io"

	pb "github.com/dmitrijs2005/safedrop/internal/proto"
)

// Attachment is a file to send along with a message. Zero policy fields
// let the gateway apply its defaults.
type Attachment struct {
	Filename      string
	Content       io.Reader
	MaxDownloads  uint32
	ExpirySeconds uint32
}

type Client interface {
	Close() error
	Register(ctx context.Context, username string, password []byte) error
	Login(ctx context.Context, username string, password []byte) error
	Logout()
	Users(ctx context.Context) ([]string, error)
	Send(ctx context.Context, receiver, text string, att *Attachment) (*pb.Message, error)
	History(ctx context.Context, contact string) ([]*pb.Message, error)
	Download(ctx context.Context, id int64, w io.Writer) (string, error)
	Hide(ctx context.Context, id int64) error
}
