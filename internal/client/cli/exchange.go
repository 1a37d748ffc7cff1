package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dmitrijs2005/safedrop/internal/client/client"
	"github.com/dmitrijs2005/safedrop/internal/filex"
	pb "github.com/dmitrijs2005/safedrop/internal/proto"
)

func (a *App) Users(ctx context.Context) error {
	names, err := a.client.Users(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(a.out, n)
	}
	return nil
}

// Send posts a text-only message.
func (a *App) Send(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}

	text, err := GetMultiline(a.reader, "Enter message", a.out)
	if err != nil {
		return err
	}

	msg, err := a.client.Send(ctx, args[0], text, nil)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Sent:", formatMessage(msg))
	return nil
}

// SendFile posts a file with an optional caption and retention policy.
func (a *App) SendFile(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	receiver, path := args[0], args[1]

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	caption, err := getSimpleText(a.reader, "Caption (optional)", a.out)
	if err != nil {
		return err
	}
	maxDownloads, err := GetOptionalUint32(a.reader, "Max downloads", a.out)
	if err != nil {
		return err
	}
	expiry, err := GetOptionalUint32(a.reader, "Expiry in seconds", a.out)
	if err != nil {
		return err
	}

	msg, err := a.client.Send(ctx, receiver, caption, &client.Attachment{
		Filename:      filepath.Base(path),
		Content:       f,
		MaxDownloads:  maxDownloads,
		ExpirySeconds: expiry,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Sent:", formatMessage(msg))
	return nil
}

func (a *App) History(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}

	msgs, err := a.client.History(ctx, args[0])
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		fmt.Fprintln(a.out, "No messages")
		return nil
	}
	for _, m := range msgs {
		fmt.Fprintln(a.out, formatMessage(m))
	}
	return nil
}

// Download fetches the attachment into the download directory. Nothing is
// written unless the whole payload arrived.
func (a *App) Download(ctx context.Context, args []string) error {
	id, err := messageID(args)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	name, err := a.client.Download(ctx, id, &buf)
	if err != nil {
		return err
	}

	dir, err := filex.EnsureDir(a.config.DownloadDir)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, filepath.Base(name))
	if _, err := os.Stat(path); err == nil {
		path = filepath.Join(dir, fmt.Sprintf("%d_%s", id, filepath.Base(name)))
	}

	if err := filex.WriteFileAtomic(path, buf.Bytes(), 0o600); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %d bytes to %s\n", buf.Len(), path)
	return nil
}

func (a *App) Hide(ctx context.Context, args []string) error {
	id, err := messageID(args)
	if err != nil {
		return err
	}
	if err := a.client.Hide(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Hidden")
	return nil
}

func messageID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad message id %q", args[0])
	}
	return id, nil
}

func formatMessage(m *pb.Message) string {
	s := fmt.Sprintf("#%d %s %s -> %s", m.ID, m.SentAt.Local().Format(time.DateTime), m.Sender, m.Receiver)
	if m.Text != "" {
		s += ": " + m.Text
	}
	if m.FileState != pb.FileNone {
		s += fmt.Sprintf(" [file %s, %s]", m.Filename, m.FileState)
	}
	return s
}
