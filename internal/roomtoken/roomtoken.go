// Package roomtoken derives the sealed room handle stored on every
// conversation. A Token binds a random room id to the exact set of
// participants; it is serialized deterministically, encrypted with
// XChaCha20-Poly1305 under a process-wide key and encoded as
// unpadded base64url text.
//
// Encrypted token format:
//
//	[Version: 1 byte (0x01)] [Nonce: 24 bytes] [Ciphertext+Tag: N+16 bytes]
//
// The version byte is authenticated as additional data, so changing it
// fails decryption like any other tampered byte.
package roomtoken

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/pliu/roomchat/internal/codec"
	"github.com/pliu/roomchat/internal/objectid"
)

// KeySize is the required length of the process secret.
const KeySize = 32

// Version is the format byte prepended to every encrypted token.
const Version byte = 0x01

// Overhead is the fixed size added to a serialized token by Encrypt.
const Overhead = 1 + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

// hkdfInfo separates the room token key from any other key derived
// from the same process secret. Changing it invalidates every stored
// room token.
var hkdfInfo = []byte("roomchat.room-token.v1")

var (
	// ErrConfiguration means the codec has no usable key.
	ErrConfiguration = errors.New("roomtoken: missing or malformed secret key")
	// ErrInvalidToken means an encoded or encrypted token could not be
	// decoded, authenticated or parsed.
	ErrInvalidToken = errors.New("roomtoken: invalid room token")
)

var encoding = base64.RawURLEncoding

// Token binds a room to its participant set. Participants are kept
// sorted so that equal sets serialize to equal bytes.
type Token struct {
	RoomID       string        `cbor:"1,keyasint"`
	Participants []objectid.ID `cbor:"2,keyasint"`
}

// GenerateRoomID returns a random UUIDv4.
func GenerateRoomID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generating room id: %w", err)
	}
	return id.String(), nil
}

// GenerateRoomToken builds the token for roomID and participants. The
// input slice is not modified. Callers validate participants first:
// at least two, all distinct.
func GenerateRoomToken(roomID string, participants []objectid.ID) Token {
	sorted := slices.Clone(participants)
	slices.SortFunc(sorted, objectid.ID.Compare)
	return Token{RoomID: roomID, Participants: sorted}
}

// wireToken has Token's fields without its methods, so the CBOR encoder
// does not call back into MarshalBinary.
type wireToken Token

// MarshalBinary returns the deterministic serialization of t.
func (t Token) MarshalBinary() ([]byte, error) {
	return codec.Marshal(wireToken(t))
}

// UnmarshalToken parses a serialized token.
func UnmarshalToken(data []byte) (Token, error) {
	var t wireToken
	if err := codec.Unmarshal(data, &t); err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Token(t), nil
}

// Binds reports whether id is one of the token's participants.
func (t Token) Binds(id objectid.ID) bool {
	return slices.Contains(t.Participants, id)
}

// Codec encrypts and decrypts tokens under one key. It is immutable
// after construction and safe for concurrent use.
type Codec struct {
	key []byte
}

// NewCodec derives the room token key from secret. The secret must be
// exactly KeySize bytes.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrConfiguration, KeySize, len(secret))
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, hkdfInfo), key); err != nil {
		return nil, fmt.Errorf("%w: deriving key: %v", ErrConfiguration, err)
	}
	return &Codec{key: key}, nil
}

// Encrypt serializes and seals t.
func (c *Codec) Encrypt(t Token) ([]byte, error) {
	if c == nil || len(c.key) != chacha20poly1305.KeySize {
		return nil, ErrConfiguration
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	plaintext, err := t.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encoding room token: %w", err)
	}

	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generating random nonce: %w", err)
	}

	output := make([]byte, 1+chacha20poly1305.NonceSizeX, 1+chacha20poly1305.NonceSizeX+len(plaintext)+aead.Overhead())
	output[0] = Version
	copy(output[1:], nonce[:])
	return aead.Seal(output, nonce[:], plaintext, []byte{Version}), nil
}

// Decrypt authenticates and parses an encrypted token.
func (c *Codec) Decrypt(ciphertext []byte) (Token, error) {
	if c == nil || len(c.key) != chacha20poly1305.KeySize {
		return Token{}, ErrConfiguration
	}
	if len(ciphertext) < Overhead {
		return Token{}, fmt.Errorf("%w: %d bytes, minimum is %d", ErrInvalidToken, len(ciphertext), Overhead)
	}
	if ciphertext[0] != Version {
		return Token{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidToken, ciphertext[0])
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	nonce := ciphertext[1 : 1+chacha20poly1305.NonceSizeX]
	plaintext, err := aead.Open(nil, nonce, ciphertext[1+chacha20poly1305.NonceSizeX:], []byte{Version})
	if err != nil {
		return Token{}, fmt.Errorf("%w: authentication failed", ErrInvalidToken)
	}
	return UnmarshalToken(plaintext)
}

// Encode renders ciphertext as unpadded base64url.
func Encode(ciphertext []byte) string {
	return encoding.EncodeToString(ciphertext)
}

// Decode reverses Encode.
func Decode(encoded string) ([]byte, error) {
	data, err := encoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return data, nil
}

// Seal generates, encrypts and encodes the token for a new room.
func (c *Codec) Seal(roomID string, participants []objectid.ID) (string, error) {
	ciphertext, err := c.Encrypt(GenerateRoomToken(roomID, participants))
	if err != nil {
		return "", err
	}
	return Encode(ciphertext), nil
}

// Open decodes and decrypts a stored room handle.
func (c *Codec) Open(encoded string) (Token, error) {
	ciphertext, err := Decode(encoded)
	if err != nil {
		return Token{}, err
	}
	return c.Decrypt(ciphertext)
}
