// Package cryptox wraps the two cryptographic jobs SafeDrop has: sealing
// stored blobs with a per-object key (Core Store) and hashing account
// passwords (gateway user registry).
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/safedrop/internal/common"
	"golang.org/x/crypto/argon2"
)

// KeySize is the length of a blob key (AES-256).
const KeySize = 32

var (
	ErrInvalidKey  = errors.New("invalid key size")
	ErrCorruptBlob = errors.New("corrupt blob")
	ErrBadHash     = errors.New("malformed password hash")
)

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// SealBlob encrypts plaintext with a fresh random key using AES-GCM.
// The returned blob is nonce || ciphertext; the key is returned separately
// and is never stored next to the blob.
func SealBlob(plaintext []byte) (blob, key []byte, err error) {
	key = common.GenerateRandByteArray(KeySize)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())
	blob = aesgcm.Seal(nonce, nonce, plaintext, nil)

	return blob, key, nil
}

// OpenBlob reverses SealBlob. A wrong key or a tampered blob yields an error.
func OpenBlob(blob, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	ns := aesgcm.NonceSize()
	if len(blob) < ns {
		return nil, ErrCorruptBlob
	}

	return aesgcm.Open(nil, blob[:ns], blob[ns:], nil)
}

// Argon2id parameters for password hashing.
const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16
)

// HashPassword derives an argon2id hash and encodes it together with its
// parameters in the PHC string format:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func HashPassword(password []byte) (string, error) {
	salt := common.GenerateRandByteArray(argonSaltLen)
	hash := argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword checks password against an encoded hash produced by
// HashPassword, using the parameters stored in the hash.
func VerifyPassword(password []byte, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrBadHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrBadHash
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, ErrBadHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrBadHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, ErrBadHash
	}

	got := argon2.IDKey(password, salt, time, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
