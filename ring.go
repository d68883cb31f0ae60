// Package ring provides a symmetric, byte-oriented stream cipher built from a key-derived permutation of the byte
// alphabet, a rolling salt buffer which chains each output byte into later ones, and a periodic salt-driven
// re-permutation of the table.
//
// A Cipher transforms buffers in place, one byte at a time. Encoding and decoding sides stay in lockstep as long as
// both were constructed with the same key, salt, and mutation interval and see the same sequence of bytes. Between
// independent messages sharing a secret (e.g., two files), call Reinit on both sides.
//
// Ring provides neither authenticity nor integrity, and makes no claims of cryptographic strength.
package ring

import (
	"bytes"
	"encoding"
	"encoding/binary"
	"errors"

	"github.com/codahale/ring/internal/perm"
)

const (
	// MapSize is the default (and largest) alphabet size.
	MapSize = perm.MaxSize

	// MaxSaltSize is the default maximum length of a salt, in bytes.
	MaxSaltSize = 1024
)

var (
	// ErrInvalidKeyLength is returned when a key is empty or longer than the alphabet size.
	ErrInvalidKeyLength = errors.New("ring: invalid key length")

	// ErrInvalidSaltLength is returned when a salt is empty or longer than the maximum salt size.
	ErrInvalidSaltLength = errors.New("ring: invalid salt length")

	// ErrEmptyBuffer is returned when Encode or Decode is called with an empty buffer.
	ErrEmptyBuffer = errors.New("ring: empty buffer")

	// ErrOutOfRangeByte is returned when a buffer contains a value outside of a reduced alphabet.
	ErrOutOfRangeByte = errors.New("ring: byte out of alphabet range")

	// ErrInvalidAlphabetSize is returned when the requested alphabet size is not a power of two in [2, MapSize].
	ErrInvalidAlphabetSize = errors.New("ring: invalid alphabet size")

	// ErrInvalidMaxSaltSize is returned when the requested maximum salt size is not in [1, 65535].
	ErrInvalidMaxSaltSize = errors.New("ring: invalid max salt size")

	// ErrInvalidState is returned when a Cipher is used before initialization or restored from malformed data.
	ErrInvalidState = errors.New("ring: invalid state")
)

// A Cipher is the state of a ring stream cipher.
//
// The zero value is not usable; create a Cipher with New or restore one with UnmarshalBinary. Cipher instances are not
// concurrent-safe.
type Cipher struct {
	table    perm.Table
	key      []byte
	salt     []byte
	initSalt []byte
	cursor   int
	last     byte
	interval uint32
	ops      uint32
	maxSalt  int
}

// New returns a Cipher for the given key and salt. The key must be between 1 and the alphabet size (MapSize by default)
// bytes long; the salt must be between 1 and the maximum salt size (MaxSaltSize by default) bytes long. The salt may be
// public, and should be unique per key.
//
// Every mutationInterval transformed bytes the permutation table is shuffled using the current salt state. A
// mutationInterval of zero disables shuffling.
func New(key, salt []byte, mutationInterval uint32, opts ...Option) (*Cipher, error) {
	cfg := config{alphabet: MapSize, maxSalt: MaxSaltSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	if !perm.ValidSize(cfg.alphabet) {
		return nil, ErrInvalidAlphabetSize
	}

	if cfg.maxSalt < 1 || cfg.maxSalt > maxSaltLimit {
		return nil, ErrInvalidMaxSaltSize
	}

	if len(key) < 1 || len(key) > cfg.alphabet {
		return nil, ErrInvalidKeyLength
	}

	if len(salt) < 1 || len(salt) > cfg.maxSalt {
		return nil, ErrInvalidSaltLength
	}

	c := &Cipher{
		table:    perm.New(cfg.alphabet),
		key:      bytes.Clone(key),
		salt:     make([]byte, len(salt)),
		initSalt: bytes.Clone(salt),
		interval: mutationInterval,
		maxSalt:  cfg.maxSalt,
	}
	c.Reinit()
	return c, nil
}

// Reinit returns the Cipher to the state it had immediately after construction: the salt is restored, the chaining
// byte and operation counter are cleared, and the permutation table is rebuilt from the key.
func (c *Cipher) Reinit() {
	if c.table.Size() == 0 {
		return
	}

	copy(c.salt, c.initSalt)
	c.cursor = 0
	c.last = 0
	c.ops = 0
	c.table.Reset()
	c.table.Derive(c.key)
}

// Encode encodes buf in place.
//
// If buf is empty, ErrEmptyBuffer is returned. If the Cipher uses a reduced alphabet and buf contains a value outside
// of it, ErrOutOfRangeByte is returned. In both cases neither buf nor the Cipher's state is modified.
func (c *Cipher) Encode(buf []byte) error {
	if err := c.check(buf); err != nil {
		return err
	}

	for i, b := range buf {
		buf[i] = c.encodeByte(b)
	}
	return nil
}

// Decode decodes buf in place. It returns the same errors as Encode, under the same conditions.
func (c *Cipher) Decode(buf []byte) error {
	if err := c.check(buf); err != nil {
		return err
	}

	for i, b := range buf {
		buf[i] = c.decodeByte(b)
	}
	return nil
}

// AlphabetSize returns the number of distinct values the Cipher operates on.
func (c *Cipher) AlphabetSize() int {
	return c.table.Size()
}

// MutationInterval returns the number of transformed bytes between table shuffles, or zero if shuffling is disabled.
func (c *Cipher) MutationInterval() uint32 {
	return c.interval
}

// Clone returns a full, independent clone of the receiver.
func (c *Cipher) Clone() *Cipher {
	clone := *c
	clone.key = bytes.Clone(c.key)
	clone.salt = bytes.Clone(c.salt)
	clone.initSalt = bytes.Clone(c.initSalt)
	return &clone
}

// Equal returns true if the two Ciphers have identical state, and will therefore produce identical outputs for
// identical inputs.
func (c *Cipher) Equal(other *Cipher) bool {
	return c.table.Equal(&other.table) &&
		c.cursor == other.cursor &&
		c.last == other.last &&
		c.interval == other.interval &&
		c.ops == other.ops &&
		c.maxSalt == other.maxSalt &&
		bytes.Equal(c.key, other.key) &&
		bytes.Equal(c.salt, other.salt) &&
		bytes.Equal(c.initSalt, other.initSalt)
}

// AppendBinary appends the binary representation of the Cipher's state to the given slice. It implements
// encoding.BinaryAppender.
//
// N.B.: The representation includes the key.
func (c *Cipher) AppendBinary(b []byte) ([]byte, error) {
	if c.table.Size() == 0 {
		return nil, ErrInvalidState
	}

	b = append(b, stateVersion)
	b = binary.BigEndian.AppendUint16(b, uint16(c.table.Size())) //nolint:gosec // <= 256
	b = binary.BigEndian.AppendUint16(b, uint16(c.maxSalt))      //nolint:gosec // <= maxSaltLimit
	b = binary.BigEndian.AppendUint32(b, c.interval)
	b = binary.BigEndian.AppendUint32(b, c.ops)
	b = binary.BigEndian.AppendUint16(b, uint16(c.cursor)) //nolint:gosec // < len(salt)
	b = append(b, c.last)
	b = binary.BigEndian.AppendUint16(b, uint16(len(c.key))) //nolint:gosec // <= 256
	b = append(b, c.key...)
	b = binary.BigEndian.AppendUint16(b, uint16(len(c.salt))) //nolint:gosec // <= maxSaltLimit
	b = append(b, c.salt...)
	b = append(b, c.initSalt...)
	return c.table.AppendMap(b), nil
}

// MarshalBinary returns the binary representation of the Cipher's state. It implements encoding.BinaryMarshaler.
func (c *Cipher) MarshalBinary() (data []byte, err error) {
	return c.AppendBinary(nil)
}

// UnmarshalBinary restores the Cipher's state from the given binary representation. It implements
// encoding.BinaryUnmarshaler. If data is malformed, ErrInvalidState is returned and the receiver is left unchanged.
func (c *Cipher) UnmarshalBinary(data []byte) error {
	d := decoder{b: data}
	if d.uint8() != stateVersion {
		return ErrInvalidState
	}

	n := int(d.uint16())
	maxSalt := int(d.uint16())
	interval := d.uint32()
	ops := d.uint32()
	cursor := int(d.uint16())
	last := d.uint8()
	key := d.next(int(d.uint16()))
	saltLen := int(d.uint16())
	salt := d.next(saltLen)
	initSalt := d.next(saltLen)
	m := d.next(n)

	if d.err || len(d.b) != 0 ||
		!perm.ValidSize(n) ||
		maxSalt < 1 ||
		len(key) < 1 || len(key) > n ||
		saltLen < 1 || saltLen > maxSalt ||
		cursor >= saltLen ||
		int(last) >= n ||
		(interval == 0 && ops != 0) || (interval != 0 && ops >= interval) {
		return ErrInvalidState
	}

	table := perm.New(n)
	if !table.Load(m) {
		return ErrInvalidState
	}

	*c = Cipher{
		table:    table,
		key:      bytes.Clone(key),
		salt:     bytes.Clone(salt),
		initSalt: bytes.Clone(initSalt),
		cursor:   cursor,
		last:     last,
		interval: interval,
		ops:      ops,
		maxSalt:  maxSalt,
	}
	return nil
}

func (c *Cipher) check(buf []byte) error {
	n := c.table.Size()
	if n == 0 {
		return ErrInvalidState
	}

	if len(buf) == 0 {
		return ErrEmptyBuffer
	}

	if n < MapSize {
		mask := c.table.Mask()
		for _, b := range buf {
			if b&^mask != 0 {
				return ErrOutOfRangeByte
			}
		}
	}
	return nil
}

func (c *Cipher) encodeByte(b byte) byte {
	s := c.advance()
	mask := c.table.Mask()
	out := (c.table.Encode((b^c.salt[s])&mask) ^ c.last) & mask
	c.salt[s] = out
	c.tick()
	c.last = b
	return out
}

func (c *Cipher) decodeByte(b byte) byte {
	s := c.advance()
	mask := c.table.Mask()
	out := (c.table.Decode((b^c.last)&mask) ^ c.salt[s]) & mask
	c.salt[s] = b
	c.tick()
	c.last = out
	return out
}

// advance returns the current salt slot and moves the cursor to the next one.
func (c *Cipher) advance() int {
	s := c.cursor
	c.cursor = (s + 1) % len(c.salt)
	return s
}

// tick counts a transformed byte and shuffles the table once every interval bytes.
func (c *Cipher) tick() {
	if c.interval == 0 {
		return
	}

	c.ops++
	if c.ops == c.interval {
		c.table.Shuffle(c.salt)
		c.ops = 0
	}
}

const (
	stateVersion = 0x01
	maxSaltLimit = 1<<16 - 1
)

type decoder struct {
	b   []byte
	err bool
}

func (d *decoder) next(n int) []byte {
	if d.err || len(d.b) < n {
		d.err = true
		return nil
	}
	v := d.b[:n]
	d.b = d.b[n:]
	return v
}

func (d *decoder) uint8() byte {
	if v := d.next(1); v != nil {
		return v[0]
	}
	return 0
}

func (d *decoder) uint16() uint16 {
	if v := d.next(2); v != nil {
		return binary.BigEndian.Uint16(v)
	}
	return 0
}

func (d *decoder) uint32() uint32 {
	if v := d.next(4); v != nil {
		return binary.BigEndian.Uint32(v)
	}
	return 0
}

var (
	_ encoding.BinaryAppender    = (*Cipher)(nil)
	_ encoding.BinaryMarshaler   = (*Cipher)(nil)
	_ encoding.BinaryUnmarshaler = (*Cipher)(nil)
)
