// Package perm implements the byte permutation tables used by the ring cipher: a bijection over [0, n) and its inverse,
// a key-driven construction, and a cheap salt-driven re-permutation.
package perm

// MaxSize is the largest supported alphabet, one entry per byte value.
const MaxSize = 256

// A Table is a permutation of [0, n) paired with its inverse. n is always a power of two between 2 and MaxSize.
//
// The zero value has no alphabet and must be initialized with New before use.
type Table struct {
	enc, dec [MaxSize]byte
	n        int
}

// ValidSize returns true if n is a power of two in [2, MaxSize].
func ValidSize(n int) bool {
	return n >= 2 && n <= MaxSize && n&(n-1) == 0
}

// New returns an identity table over [0, n).
//
// New panics if n is not a valid size.
func New(n int) Table {
	if !ValidSize(n) {
		panic("perm: invalid table size")
	}
	t := Table{n: n}
	t.Reset()
	return t
}

// Size returns the size of the table's alphabet.
func (t *Table) Size() int {
	return t.n
}

// Mask returns n-1. Since n is a power of two, x&Mask() == x mod n.
func (t *Table) Mask() byte {
	return byte(t.n - 1)
}

// Reset sets the table to the identity permutation.
func (t *Table) Reset() {
	for i := range t.n {
		t.enc[i] = byte(i)
		t.dec[i] = byte(i)
	}
}

// Encode returns the image of i. i must be less than the table size.
func (t *Table) Encode(i byte) byte {
	return t.enc[i]
}

// Decode returns the preimage of i. i must be less than the table size.
func (t *Table) Decode(i byte) byte {
	return t.dec[i]
}

// Derive rearranges the table using the given key. The current contents are dealt, in order, onto the slots of a
// circular list of unassigned positions; before each placement the cursor hops forward (key[j]+1) mod remaining
// positions, with j cycling over the key. Assigned positions are spliced out of the list.
//
// Derive panics if key is empty.
func (t *Table) Derive(key []byte) {
	if len(key) == 0 {
		panic("perm: empty key")
	}

	var next, prev [MaxSize]int
	n := t.n
	for i := range n {
		next[i] = (i + 1) % n
		prev[i] = (i + n - 1) % n
	}

	snapshot := t.enc
	cur, k := 0, 0
	for count := range n {
		steps := (int(key[k]) + 1) % (n - count)
		k = (k + 1) % len(key)
		for range steps {
			cur = next[cur]
		}

		t.enc[cur] = snapshot[count]

		nx, pv := next[cur], prev[cur]
		next[pv] = nx
		prev[nx] = pv
		cur = nx
	}

	t.invert()
}

// Shuffle perturbs the table using the given salt: each position i is swapped with position (enc[i] ^ salt[i mod
// len(salt)]) mod n.
//
// Shuffle panics if salt is empty.
func (t *Table) Shuffle(salt []byte) {
	if len(salt) == 0 {
		panic("perm: empty salt")
	}

	mask := t.Mask()
	for i := range t.n {
		j := (t.enc[i] ^ salt[i%len(salt)]) & mask
		t.enc[i], t.enc[j] = t.enc[j], t.enc[i]
	}

	t.invert()
}

// AppendMap appends the forward permutation to b.
func (t *Table) AppendMap(b []byte) []byte {
	return append(b, t.enc[:t.n]...)
}

// Load replaces the forward permutation with m, which must have exactly Size() entries, and rebuilds the inverse. It
// returns false, leaving the table unchanged, if m is not a permutation of [0, n).
func (t *Table) Load(m []byte) bool {
	if len(m) != t.n {
		return false
	}

	var seen [MaxSize]bool
	for _, v := range m {
		if int(v) >= t.n || seen[v] {
			return false
		}
		seen[v] = true
	}

	copy(t.enc[:], m)
	t.invert()
	return true
}

// Valid returns true if the inverse table is consistent with the forward table.
func (t *Table) Valid() bool {
	if !ValidSize(t.n) {
		return false
	}
	for i := range t.n {
		if int(t.enc[i]) >= t.n || int(t.dec[t.enc[i]]) != i {
			return false
		}
	}
	return true
}

// Equal returns true if both tables have the same alphabet and permutation.
func (t *Table) Equal(other *Table) bool {
	return t.n == other.n && t.enc == other.enc
}

func (t *Table) invert() {
	for i := range t.n {
		t.dec[t.enc[i]] = byte(i)
	}
}
