// Package envelope implements the header written at the start of an encoded file, which carries the public parameters
// needed to construct a decoding cipher: the alphabet size, the mutation interval, and the salt.
//
// The header layout is:
//
//	magic     [4]byte "RING"
//	version   uint8   1
//	alphabet  uint16  big endian
//	interval  uint32  big endian
//	saltLen   uint16  big endian
//	salt      [saltLen]byte
package envelope

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Version is the current header version.
const Version = 1

// FixedSize is the size, in bytes, of the header excluding the salt.
const FixedSize = len(magic) + 1 + 2 + 4 + 2

var (
	// ErrInvalidMagic is returned when the input does not start with the header magic.
	ErrInvalidMagic = errors.New("ring/envelope: invalid magic")

	// ErrUnsupportedVersion is returned when the header version is unknown.
	ErrUnsupportedVersion = errors.New("ring/envelope: unsupported version")

	// ErrInvalidHeader is returned when the header fields are out of range.
	ErrInvalidHeader = errors.New("ring/envelope: invalid header")
)

var magic = [4]byte{'R', 'I', 'N', 'G'}

// A Header holds the public parameters of an encoded stream.
type Header struct {
	AlphabetSize     int
	MutationInterval uint32
	Salt             []byte
}

// Size returns the encoded size of the header, in bytes.
func (h *Header) Size() int {
	return FixedSize + len(h.Salt)
}

// Equal returns true if both headers describe the same parameters.
func (h *Header) Equal(other *Header) bool {
	return h.AlphabetSize == other.AlphabetSize &&
		h.MutationInterval == other.MutationInterval &&
		bytes.Equal(h.Salt, other.Salt)
}

// AppendBinary appends the encoded header to b.
func (h *Header) AppendBinary(b []byte) ([]byte, error) {
	if h.AlphabetSize < 1 || h.AlphabetSize > 1<<16-1 || len(h.Salt) < 1 || len(h.Salt) > 1<<16-1 {
		return nil, ErrInvalidHeader
	}

	b = append(b, magic[:]...)
	b = append(b, Version)
	b = binary.BigEndian.AppendUint16(b, uint16(h.AlphabetSize)) //nolint:gosec // checked above
	b = binary.BigEndian.AppendUint32(b, h.MutationInterval)
	b = binary.BigEndian.AppendUint16(b, uint16(len(h.Salt))) //nolint:gosec // checked above
	return append(b, h.Salt...), nil
}

// Write writes the encoded header to w.
func Write(w io.Writer, h *Header) error {
	b, err := h.AppendBinary(make([]byte, 0, h.Size()))
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Read reads a header from r. Salts longer than maxSalt are rejected with ErrInvalidHeader before being read.
func Read(r io.Reader, maxSalt int) (*Header, error) {
	var fixed [FixedSize]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrInvalidMagic
		}
		return nil, err
	}

	if !bytes.Equal(fixed[:4], magic[:]) {
		return nil, ErrInvalidMagic
	}

	if v := fixed[4]; v != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	h := &Header{
		AlphabetSize:     int(binary.BigEndian.Uint16(fixed[5:7])),
		MutationInterval: binary.BigEndian.Uint32(fixed[7:11]),
	}

	saltLen := int(binary.BigEndian.Uint16(fixed[11:13]))
	if saltLen < 1 || saltLen > maxSalt || h.AlphabetSize < 1 {
		return nil, ErrInvalidHeader
	}

	h.Salt = make([]byte, saltLen)
	if _, err := io.ReadFull(r, h.Salt); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrInvalidHeader
		}
		return nil, err
	}
	return h, nil
}
