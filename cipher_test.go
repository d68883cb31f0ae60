package ring //nolint:testpackage // testing table internals

import (
	"bytes"
	"testing"

	"github.com/codahale/ring/internal/testdata"
)

func TestCipher_MutationGating(t *testing.T) {
	c, err := New([]byte("a key"), []byte("a salt"), 0)
	if err != nil {
		t.Fatal(err)
	}
	want := c.table

	buf := testdata.New("ring gating").Data(10_000)
	if err := c.Encode(buf); err != nil {
		t.Fatal(err)
	}

	if !c.table.Equal(&want) {
		t.Error("table changed with mutation disabled")
	}

	if got, want := c.ops, uint32(0); got != want {
		t.Errorf("ops = %d, want = %d", got, want)
	}
}

func TestCipher_MutationTriggering(t *testing.T) {
	for _, op := range []struct {
		name string
		f    func(c *Cipher, buf []byte) error
	}{
		{name: "encode", f: (*Cipher).Encode},
		{name: "decode", f: (*Cipher).Decode},
	} {
		t.Run(op.name, func(t *testing.T) {
			const interval = 7
			c, err := New([]byte("a key"), []byte("a salt"), interval)
			if err != nil {
				t.Fatal(err)
			}

			drbg := testdata.New("ring triggering")
			for i := 1; i <= 5*interval; i++ {
				before := c.table
				if err := op.f(c, drbg.Data(1)); err != nil {
					t.Fatal(err)
				}

				changed := !c.table.Equal(&before)
				if i%interval == 0 {
					if !changed {
						t.Errorf("byte %d: table did not change", i)
					}
					if c.ops != 0 {
						t.Errorf("byte %d: ops = %d, want = 0", i, c.ops)
					}
				} else {
					if changed {
						t.Errorf("byte %d: table changed before the interval", i)
					}
					if got, want := c.ops, uint32(i%interval); got != want {
						t.Errorf("byte %d: ops = %d, want = %d", i, got, want)
					}
				}

				if !c.table.Valid() {
					t.Fatalf("byte %d: table is not a bijection", i)
				}
			}
		})
	}
}

func TestCipher_SaltFeedback(t *testing.T) {
	c, err := New([]byte("abc"), []byte("xyz"), 0)
	if err != nil {
		t.Fatal(err)
	}

	buf := []byte("hello")
	if err := c.Encode(buf); err != nil {
		t.Fatal(err)
	}

	// Three salt slots, five bytes: slots 0 and 1 hold the fourth and fifth outputs, slot 2 holds the third.
	if got, want := c.salt, []byte{buf[3], buf[4], buf[2]}; !bytes.Equal(got, want) {
		t.Errorf("salt = %x, want = %x", got, want)
	}

	if got, want := c.initSalt, []byte("xyz"); !bytes.Equal(got, want) {
		t.Errorf("initSalt = %x, want = %x", got, want)
	}

	if got, want := c.cursor, 2; got != want {
		t.Errorf("cursor = %d, want = %d", got, want)
	}

	if got, want := c.last, byte('o'); got != want {
		t.Errorf("last = %q, want = %q", got, want)
	}
}

func TestCipher_DecodeChaining(t *testing.T) {
	enc, err := New([]byte("abc"), []byte("xyz"), 4)
	if err != nil {
		t.Fatal(err)
	}
	dec := enc.Clone()

	buf := []byte("chained")
	if err := enc.Encode(buf); err != nil {
		t.Fatal(err)
	}
	if err := dec.Decode(buf); err != nil {
		t.Fatal(err)
	}

	if !enc.Equal(dec) {
		t.Error("encode and decode states diverged")
	}
}
