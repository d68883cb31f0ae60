package ring

import (
	"errors"
	"io"
)

// EncodeWriter returns an io.Writer which encodes whatever data is written to it and writes the result to w.
//
// To avoid encoding the written slices in-place, this writer copies the data before encoding. As such, it is slightly
// slower than its EncodeReader counterpart.
//
// If a Write call returns an error, then the Cipher will be out of sync and must be discarded (or reinitialized).
func (c *Cipher) EncodeWriter(w io.Writer) io.Writer {
	return &cryptWriter{f: c.Encode, w: w, buf: nil}
}

// EncodeReader returns an io.Reader which encodes whatever data is read from r.
func (c *Cipher) EncodeReader(r io.Reader) io.Reader {
	return &cryptReader{f: c.Encode, r: r}
}

// DecodeWriter returns an io.Writer which decodes whatever data is written to it and writes the result to w.
//
// To avoid decoding the written slices in-place, this writer copies the data before decoding. As such, it is slightly
// slower than its DecodeReader counterpart.
//
// If a Write call returns an error, then the Cipher will be out of sync and must be discarded (or reinitialized).
func (c *Cipher) DecodeWriter(w io.Writer) io.Writer {
	return &cryptWriter{f: c.Decode, w: w, buf: nil}
}

// DecodeReader returns an io.Reader which decodes whatever data is read from r.
func (c *Cipher) DecodeReader(r io.Reader) io.Reader {
	return &cryptReader{f: c.Decode, r: r}
}

type cryptWriter struct {
	f   func(buf []byte) error
	w   io.Writer
	buf []byte
}

func (c *cryptWriter) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}

	c.buf = append(c.buf[:0], p...)
	if err := c.f(c.buf); err != nil {
		return 0, err
	}

	for n < len(c.buf) {
		nn, err := c.w.Write(c.buf[n:])
		n += nn
		if err != nil && !errors.Is(err, io.ErrShortWrite) {
			return n, err
		}
		if nn == 0 {
			return n, io.ErrShortWrite
		}
	}
	return n, nil
}

type cryptReader struct {
	f func(buf []byte) error
	r io.Reader
}

func (c *cryptReader) Read(p []byte) (n int, err error) {
	n, err = c.r.Read(p)
	if n > 0 {
		if err := c.f(p[:n]); err != nil {
			return 0, err
		}
	}
	return n, err
}

var (
	_ io.Writer = (*cryptWriter)(nil)
	_ io.Reader = (*cryptReader)(nil)
)
