// Package testdata provides a deterministic source of test inputs.
package testdata

import (
	"crypto/sha3"
	"io"
)

// A DRBG is a deterministic random bit generator seeded with a label. Two DRBGs with the same label produce the same
// output.
type DRBG struct {
	h *sha3.SHAKE
}

// New returns a DRBG seeded with the given label.
func New(label string) *DRBG {
	h := sha3.NewSHAKE128()
	_, _ = h.Write([]byte(label))
	return &DRBG{h: h}
}

// Read fills p with pseudorandom data. It never returns an error.
func (d *DRBG) Read(p []byte) (n int, err error) {
	return d.h.Read(p)
}

// Data returns n bytes of pseudorandom data.
func (d *DRBG) Data(n int) []byte {
	b := make([]byte, n)
	_, _ = d.h.Read(b)
	return b
}

var _ io.Reader = (*DRBG)(nil)
