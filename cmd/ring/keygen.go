package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codahale/ring"
)

// KeyEnv names the environment variable holding the default hex-encoded key.
const KeyEnv = "RING_KEY"

func newKeygenCmd() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Print a random hex-encoded key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size < 1 || size > ring.MapSize {
				return fmt.Errorf("key size must be between 1 and %d bytes", ring.MapSize)
			}

			key := make([]byte, size)
			if _, err := rand.Read(key); err != nil {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(key))
			return err
		},
	}

	cmd.Flags().IntVarP(&size, "size", "n", 32, "Key size in bytes")
	return cmd
}

// keyFlags are the flags shared by commands which need a key.
type keyFlags struct {
	hex  string
	file string
}

func (k *keyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&k.hex, "key", "k", "", "Hex-encoded key; defaults to $"+KeyEnv)
	cmd.Flags().StringVar(&k.file, "key-file", "", "Path to a file holding a hex-encoded key")
	cmd.MarkFlagsMutuallyExclusive("key", "key-file")
}

// load returns the key from --key, --key-file, or the environment, in that order of preference.
func (k *keyFlags) load() ([]byte, error) {
	s := k.hex
	switch {
	case s != "":
	case k.file != "":
		b, err := os.ReadFile(k.file)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		s = string(b)
	default:
		s = os.Getenv(KeyEnv)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("no key given; use --key, --key-file, or $%s", KeyEnv)
	}

	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	return key, nil
}
