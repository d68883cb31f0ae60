package ring

// An Option configures a Cipher at construction.
type Option func(*config)

type config struct {
	alphabet int
	maxSalt  int
}

// WithAlphabetSize restricts the Cipher to the values [0, n). n must be a power of two between 2 and MapSize. Keys may
// be at most n bytes long, and buffers passed to Encode and Decode must not contain values of n or greater.
func WithAlphabetSize(n int) Option {
	return func(c *config) {
		c.alphabet = n
	}
}

// WithMaxSaltSize sets the maximum accepted salt length, in bytes. n must be between 1 and 65535.
func WithMaxSaltSize(n int) Option {
	return func(c *config) {
		c.maxSalt = n
	}
}
