// Package wire defines the framing spoken between the gateway and the Core
// Store: one TCP connection per operation, a single opcode byte, fixed-size
// big-endian headers and unframed bodies terminated by a half-close.
//
// Upload:   'U' | magic u16 | max_downloads u32 | expiry_seconds u32 | tag[8] | body... <EOF>
// Reply:    "<file_id>|<file_key>"
// Download: 'D' | file_id | file_key
// Reply:    header[8] | payload... <EOF>, or a short / "ERROR" reply when burned.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	OpUpload   byte = 'U'
	OpDownload byte = 'D'

	// Magic doubles as the protocol version.
	Magic uint16 = 0xBEEF

	UploadHeaderSize   = 10
	TagSize            = 8
	DownloadHeaderSize = 8

	// Token sizes minted by the reference Core Store. The gateway never
	// relies on them; the store uses them to split a download request.
	FileIDSize  = 8
	FileKeySize = 64

	TokenDelimiter = "|"
	BurnSentinel   = "ERROR"
)

var (
	ErrBadMagic           = errors.New("bad protocol magic")
	ErrMalformedTokenPair = errors.New("malformed token pair")
)

// UploadHeader carries the retention policy of an upload.
type UploadHeader struct {
	MaxDownloads  uint32
	ExpirySeconds uint32
}

// MarshalBinary encodes the header including the magic prefix.
func (h UploadHeader) MarshalBinary() ([]byte, error) {
	b := make([]byte, UploadHeaderSize)
	binary.BigEndian.PutUint16(b[0:2], Magic)
	binary.BigEndian.PutUint32(b[2:6], h.MaxDownloads)
	binary.BigEndian.PutUint32(b[6:10], h.ExpirySeconds)
	return b, nil
}

// ReadUploadHeader reads and validates a header written by MarshalBinary.
func ReadUploadHeader(r io.Reader) (UploadHeader, error) {
	var b [UploadHeaderSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return UploadHeader{}, fmt.Errorf("read upload header: %w", err)
	}
	if m := binary.BigEndian.Uint16(b[0:2]); m != Magic {
		return UploadHeader{}, fmt.Errorf("%w: 0x%04X", ErrBadMagic, m)
	}
	return UploadHeader{
		MaxDownloads:  binary.BigEndian.Uint32(b[2:6]),
		ExpirySeconds: binary.BigEndian.Uint32(b[6:10]),
	}, nil
}

// Tag encodes a file extension as the fixed 8-byte tag: a leading dot is
// dropped, longer extensions are truncated, shorter ones are space-padded.
func Tag(ext string) []byte {
	ext = strings.TrimPrefix(ext, ".")
	tag := bytes.Repeat([]byte{' '}, TagSize)
	copy(tag, ext)
	return tag
}

// ParseTag returns the extension stored in a tag.
func ParseTag(tag []byte) string {
	return strings.TrimRight(string(tag), " ")
}

// EncodeTokenPair renders the upload reply.
func EncodeTokenPair(fileID, fileKey string) []byte {
	return []byte(fileID + TokenDelimiter + fileKey)
}

// ParseTokenPair splits an upload reply into file id and key. A reply
// without exactly one delimiter, or with an empty side, is malformed.
func ParseTokenPair(reply string) (fileID, fileKey string, err error) {
	reply = strings.TrimRight(reply, "\r\n")

	fileID, fileKey, ok := strings.Cut(reply, TokenDelimiter)
	if !ok || fileID == "" || fileKey == "" || strings.Contains(fileKey, TokenDelimiter) {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedTokenPair, truncate(reply, 64))
	}
	return fileID, fileKey, nil
}

// DownloadRequest renders a download request: opcode followed by the raw
// concatenation of file id and key.
func DownloadRequest(fileID, fileKey string) []byte {
	b := make([]byte, 0, 1+len(fileID)+len(fileKey))
	b = append(b, OpDownload)
	b = append(b, fileID...)
	b = append(b, fileKey...)
	return b
}

// IsBurned reports whether the leading bytes of a download reply signal
// that the object is gone. head holds at most DownloadHeaderSize bytes.
func IsBurned(head []byte) bool {
	return len(head) < DownloadHeaderSize || bytes.HasPrefix(head, []byte(BurnSentinel))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
