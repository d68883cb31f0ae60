package perm_test

import (
	"encoding/hex"
	"testing"

	"github.com/codahale/ring/internal/perm"
)

func TestValidSize(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		n    int
		want bool
	}{
		{n: 0, want: false},
		{n: 1, want: false},
		{n: 2, want: true},
		{n: 3, want: false},
		{n: 16, want: true},
		{n: 100, want: false},
		{n: 256, want: true},
		{n: 512, want: false},
	} {
		if got, want := perm.ValidSize(test.n), test.want; got != want {
			t.Errorf("ValidSize(%d) = %v, want = %v", test.n, got, want)
		}
	}
}

func TestNew(t *testing.T) {
	t.Run("identity", func(t *testing.T) {
		table := perm.New(16)
		for i := range 16 {
			if got, want := table.Encode(byte(i)), byte(i); got != want {
				t.Errorf("Encode(%d) = %d, want = %d", i, got, want)
			}
		}
		if !table.Valid() {
			t.Error("identity table is not valid")
		}
	})

	t.Run("invalid size", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("The code did not panic")
			}
		}()

		perm.New(17)
	})
}

func TestTable_Derive(t *testing.T) {
	for _, test := range []struct {
		name string
		n    int
		key  []byte
		want string
	}{
		{name: "abc", n: 256, key: []byte("abc"), want: "3836ef763c345ef5c56954233e326cae"},
		{name: "zero", n: 256, key: []byte{0}, want: "ff008001c0028103e0048205c1068307"},
		{name: "max", n: 256, key: []byte{255}, want: "00c701e66502dea61e033a94d5680489"},
		{name: "small alphabet", n: 16, key: []byte{1, 2, 3}, want: "0f090004070c010d0b050a020806030e"},
	} {
		t.Run(test.name, func(t *testing.T) {
			table := perm.New(test.n)
			table.Derive(test.key)

			if got, want := hex.EncodeToString(table.AppendMap(nil)[:min(test.n, 16)]), test.want; got != want {
				t.Errorf("Derive(%x) = %s, want = %s", test.key, got, want)
			}

			if !table.Valid() {
				t.Error("derived table is not a bijection")
			}
		})
	}

	t.Run("empty key", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("The code did not panic")
			}
		}()

		table := perm.New(256)
		table.Derive(nil)
	})

	t.Run("deterministic", func(t *testing.T) {
		a, b := perm.New(256), perm.New(256)
		a.Derive([]byte("a key"))
		b.Derive([]byte("a key"))
		if !a.Equal(&b) {
			t.Error("Derive is not deterministic")
		}
	})

	t.Run("key sensitivity", func(t *testing.T) {
		a, b := perm.New(256), perm.New(256)
		a.Derive([]byte("a key"))
		b.Derive([]byte("b key"))
		if a.Equal(&b) {
			t.Error("different keys produced the same table")
		}
	})
}

func TestTable_Shuffle(t *testing.T) {
	t.Run("golden", func(t *testing.T) {
		table := perm.New(256)
		table.Derive([]byte("abc"))
		table.Shuffle([]byte("xyz"))

		if got, want := hex.EncodeToString(table.AppendMap(nil)[:16]), "2a787b6c9ea07cb97071d67376af6077"; got != want {
			t.Errorf("Shuffle = %s, want = %s", got, want)
		}
	})

	t.Run("small alphabet", func(t *testing.T) {
		table := perm.New(16)
		table.Derive([]byte{1, 2, 3})
		table.Shuffle([]byte{5, 9})

		if got, want := hex.EncodeToString(table.AppendMap(nil)), "090807060d050c0e03000f02040a0b01"; got != want {
			t.Errorf("Shuffle = %s, want = %s", got, want)
		}
	})

	t.Run("bijective", func(t *testing.T) {
		table := perm.New(256)
		table.Derive([]byte("key"))
		salt := []byte("a salt which is longer than it needs to be")
		for i := range 100 {
			salt[i%len(salt)] ^= byte(i)
			table.Shuffle(salt)
			if !table.Valid() {
				t.Fatalf("table is not a bijection after %d shuffles", i+1)
			}
		}
	})

	t.Run("empty salt", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("The code did not panic")
			}
		}()

		table := perm.New(256)
		table.Shuffle(nil)
	})
}

func TestTable_Decode(t *testing.T) {
	table := perm.New(256)
	table.Derive([]byte("inverse"))
	for i := range 256 {
		if got, want := table.Decode(table.Encode(byte(i))), byte(i); got != want {
			t.Errorf("Decode(Encode(%d)) = %d, want = %d", i, got, want)
		}
	}
}

func TestTable_Load(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		a := perm.New(256)
		a.Derive([]byte("load"))

		b := perm.New(256)
		if !b.Load(a.AppendMap(nil)) {
			t.Fatal("Load rejected a valid permutation")
		}
		if !a.Equal(&b) || !b.Valid() {
			t.Error("loaded table differs from source")
		}
	})

	t.Run("duplicate entry", func(t *testing.T) {
		table := perm.New(4)
		if table.Load([]byte{0, 1, 1, 3}) {
			t.Error("Load accepted a non-permutation")
		}
	})

	t.Run("out of range", func(t *testing.T) {
		table := perm.New(4)
		if table.Load([]byte{0, 1, 2, 4}) {
			t.Error("Load accepted an out-of-range entry")
		}
	})

	t.Run("wrong length", func(t *testing.T) {
		table := perm.New(4)
		if table.Load([]byte{0, 1, 2}) {
			t.Error("Load accepted a short map")
		}
	})
}

func BenchmarkTable_Derive(b *testing.B) {
	table := perm.New(256)
	key := []byte("a benchmark key")
	b.ReportAllocs()
	for b.Loop() {
		table.Reset()
		table.Derive(key)
	}
}

func BenchmarkTable_Shuffle(b *testing.B) {
	table := perm.New(256)
	table.Derive([]byte("a benchmark key"))
	salt := []byte("a benchmark salt")
	b.ReportAllocs()
	for b.Loop() {
		table.Shuffle(salt)
	}
}
