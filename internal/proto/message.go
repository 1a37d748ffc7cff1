package proto

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Attachment states reported to clients. The capability token pair never
// leaves the gateway.
const (
	FileNone   = "none"
	FileActive = "active"
	FileBurned = "burned"
)

// Message is the client-facing view of a ledger message, carried as a
// google.protobuf.Struct.
type Message struct {
	ID        int64
	Sender    string
	Receiver  string
	Text      string
	SentAt    time.Time
	Filename  string
	FileState string
}

func (m *Message) ToStruct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":         structpb.NewNumberValue(float64(m.ID)),
		"sender":     structpb.NewStringValue(m.Sender),
		"receiver":   structpb.NewStringValue(m.Receiver),
		"text":       structpb.NewStringValue(m.Text),
		"sent_at":    structpb.NewStringValue(m.SentAt.UTC().Format(time.RFC3339)),
		"filename":   structpb.NewStringValue(m.Filename),
		"file_state": structpb.NewStringValue(m.FileState),
	}}
}

func MessageFromStruct(s *structpb.Struct) (*Message, error) {
	f := s.GetFields()

	id, ok := f["id"].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return nil, fmt.Errorf("message without numeric id")
	}

	m := &Message{
		ID:        int64(id.NumberValue),
		Sender:    f["sender"].GetStringValue(),
		Receiver:  f["receiver"].GetStringValue(),
		Text:      f["text"].GetStringValue(),
		Filename:  f["filename"].GetStringValue(),
		FileState: f["file_state"].GetStringValue(),
	}

	if raw := f["sent_at"].GetStringValue(); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("bad sent_at: %w", err)
		}
		m.SentAt = t
	}
	if m.FileState == "" {
		m.FileState = FileNone
	}
	return m, nil
}

// Credentials builds the Register/Login request.
func Credentials(username, password string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"username": structpb.NewStringValue(username),
		"password": structpb.NewStringValue(password),
	}}
}

func CredentialsFromStruct(s *structpb.Struct) (username, password string) {
	f := s.GetFields()
	return f["username"].GetStringValue(), f["password"].GetStringValue()
}
