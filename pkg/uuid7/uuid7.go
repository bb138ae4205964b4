// Package uuid7 provides a version-7, time-ordered UUID type used as the
// entity identity across the observability domain.
package uuid7

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UUID represents a version-7 UUID that can be used in domain models with
// full database support.
// @Description UUIDv7 (time-ordered UUID, RFC 9562)
// @Example "018f5a1e-2b3c-7def-8abc-0123456789ab"
type UUID struct {
	uuid.UUID `json:"-" swaggerignore:"true"`
}

// New generates a new UUIDv7 with the current timestamp.
func New() UUID {
	id, err := uuid.NewV7()
	if err != nil {
		// uuid.NewV7 only fails if the system random source is broken.
		panic(err)
	}
	return UUID{id}
}

// NewFromTime generates a new UUIDv7 whose time prefix is t instead of now,
// with a fresh random tail. Used to backdate shadow rows and in tests.
func NewFromTime(t time.Time) UUID {
	var tail [10]byte
	if _, err := rand.Read(tail[:]); err != nil {
		panic(err)
	}
	return buildV7(t, tail[:])
}

// Derive computes a deterministic UUIDv7 from an opaque byte id (e.g. an
// OTel trace/span id) and a timestamp. The timestamp occupies the version-7
// time prefix so that two derivations sharing the same (bytes, millisecond)
// pair always produce the same UUID; the remaining bits are a SHA-256
// digest of the source bytes, keeping derivation a pure function of its
// inputs (no randomness, no external state).
func Derive(sourceBytes []byte, t time.Time) UUID {
	sum := sha256.Sum256(sourceBytes)
	return buildV7(t, sum[:10])
}

// buildV7 assembles a version-7 UUID from a timestamp and a 10-byte tail,
// laying out bits per RFC 9562 section 5.7.
func buildV7(t time.Time, tail []byte) UUID {
	ms := t.UnixMilli()
	var out [16]byte
	out[0] = byte(ms >> 40)
	out[1] = byte(ms >> 32)
	out[2] = byte(ms >> 24)
	out[3] = byte(ms >> 16)
	out[4] = byte(ms >> 8)
	out[5] = byte(ms)

	copy(out[6:], tail)
	out[6] = (out[6] & 0x0F) | 0x70 // version 7
	out[8] = (out[8] & 0x3F) | 0x80 // RFC 9562 variant

	id, err := uuid.FromBytes(out[:])
	if err != nil {
		panic(err)
	}
	return UUID{id}
}

// Parse parses a UUID string and returns a UUID.
func Parse(s string) (UUID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, err
	}
	return UUID{parsed}, nil
}

// MustParse parses a UUID string, panicking on error.
func MustParse(s string) UUID {
	parsed, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return parsed
}

// String returns the canonical string representation of the UUID.
func (u UUID) String() string {
	return u.UUID.String()
}

// Time returns the timestamp embedded in a version-7 UUID's high bits.
func (u UUID) Time() time.Time {
	b := u.UUID[:]
	ms := int64(b[0])<<40 | int64(b[1])<<32 | int64(b[2])<<24 | int64(b[3])<<16 | int64(b[4])<<8 | int64(b[5])
	return time.UnixMilli(ms).UTC()
}

// IsZero returns true if the UUID is zero-valued.
func (u UUID) IsZero() bool {
	return u.UUID == uuid.UUID{}
}

// IsV7 reports whether the UUID carries the version-7 marker. Entity ids
// that fail this check must be rejected with a 400 per invariant 6.
func (u UUID) IsV7() bool {
	return u.UUID.Version() == 7
}

// Scan implements the sql.Scanner interface for database reads.
func (u *UUID) Scan(value interface{}) error {
	if value == nil {
		*u = UUID{}
		return nil
	}

	switch v := value.(type) {
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*u = parsed
		return nil
	case []byte:
		parsed, err := Parse(string(v))
		if err != nil {
			return err
		}
		*u = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into UUID", value)
	}
}

// Value implements the driver.Valuer interface for database writes.
func (u UUID) Value() (driver.Value, error) {
	if u.IsZero() {
		return nil, nil
	}
	return u.String(), nil
}

// MarshalJSON implements the json.Marshaler interface.
func (u UUID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + u.String() + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (u *UUID) UnmarshalJSON(data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("invalid JSON for UUID: %s", string(data))
	}

	str := string(data[1 : len(data)-1])
	if str == "null" || str == "" {
		*u = UUID{}
		return nil
	}

	parsed, err := Parse(str)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// MarshalText implements the encoding.TextMarshaler interface.
func (u UUID) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (u *UUID) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
