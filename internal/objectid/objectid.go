// Package objectid is the identity type shared by users, conversations
// and messages. Identifiers are 12-byte object ids rendered as 24 hex
// characters, the same shape a document store hands out.
package objectid

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalid is returned when a raw identifier is not 24 hex characters.
var ErrInvalid = errors.New("objectid: invalid identifier")

// ID is a value type: two IDs are equal when their bytes are equal,
// regardless of the textual form they were parsed from.
type ID primitive.ObjectID

// Nil is the zero identifier. It is never handed out by New.
var Nil ID

// New returns a fresh identifier.
func New() ID {
	return ID(primitive.NewObjectID())
}

// IsValid reports whether raw is a structurally valid identifier.
func IsValid(raw string) bool {
	return primitive.IsValidObjectID(raw)
}

// Convert parses raw into its canonical ID. Upper and lower case hex
// of the same bytes yield equal IDs.
func Convert(raw string) (ID, error) {
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return Nil, fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	return ID(oid), nil
}

// MustConvert is Convert for literals in tests and fixtures.
func MustConvert(raw string) ID {
	id, err := Convert(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the canonical lowercase hex form.
func (id ID) String() string {
	return primitive.ObjectID(id).Hex()
}

// IsZero reports whether id is Nil.
func (id ID) IsZero() bool {
	return id == Nil
}

// Compare orders IDs by their bytes.
func (id ID) Compare(other ID) int {
	return bytes.Compare(id[:], other[:])
}

// MarshalText encodes id as lowercase hex.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses hex text, rejecting anything Convert rejects.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Convert(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value stores the ID as hex text.
func (id ID) Value() (driver.Value, error) {
	return id.String(), nil
}

// Scan accepts the hex text written by Value.
func (id *ID) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return id.UnmarshalText([]byte(v))
	case []byte:
		return id.UnmarshalText(v)
	default:
		return fmt.Errorf("objectid: cannot scan %T", src)
	}
}
