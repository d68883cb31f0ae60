package main

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/codahale/ring"
	"github.com/codahale/ring/internal/envelope"
)

const (
	// Ext is the extension given to encoded files.
	Ext = ".ring"

	defaultSaltSize = 16
)

var errOutputExists = errors.New("output file exists")

type outputFlags struct {
	dir   string
	force bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.dir, "output-dir", "o", "", "Directory for output files; defaults to each input's directory")
	cmd.Flags().BoolVarP(&o.force, "force", "f", false, "Overwrite existing output files")
}

func (o *outputFlags) path(input, name string) string {
	dir := o.dir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, name)
}

func newEncodeCmd(logger func(*cobra.Command) hclog.Logger) *cobra.Command {
	var (
		key      keyFlags
		out      outputFlags
		salt     string
		interval uint32
		alphabet int
	)

	cmd := &cobra.Command{
		Use:   "encode FILE...",
		Short: "Encode files, writing each to FILE" + Ext,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger(cmd)

			k, err := key.load()
			if err != nil {
				return err
			}

			s := []byte(salt)
			if len(s) == 0 {
				s = make([]byte, defaultSaltSize)
				if _, err := rand.Read(s); err != nil {
					return err
				}
			}

			c, err := ring.New(k, s, interval, ring.WithAlphabetSize(alphabet))
			if err != nil {
				return err
			}

			h := &envelope.Header{AlphabetSize: alphabet, MutationInterval: interval, Salt: s}
			for _, input := range args {
				// Every file starts from the freshly-keyed state.
				c.Reinit()

				output := out.path(input, filepath.Base(input)+Ext)
				if err := encodeFile(c, h, input, output, out.force); err != nil {
					return fmt.Errorf("encode %s: %w", input, err)
				}
				log.Info("encoded file", "input", input, "output", output)
			}
			return nil
		},
	}

	key.register(cmd)
	out.register(cmd)
	cmd.Flags().StringVarP(&salt, "salt", "s", "", "Salt; defaults to random bytes")
	cmd.Flags().Uint32VarP(&interval, "interval", "i", 1024, "Bytes between table mutations (0 disables mutation)")
	cmd.Flags().IntVarP(&alphabet, "alphabet", "a", ring.MapSize, "Alphabet size (a power of two)")
	return cmd
}

func newDecodeCmd(logger func(*cobra.Command) hclog.Logger) *cobra.Command {
	var (
		key keyFlags
		out outputFlags
	)

	cmd := &cobra.Command{
		Use:   "decode FILE...",
		Short: "Decode files, removing the " + Ext + " extension",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger(cmd)

			k, err := key.load()
			if err != nil {
				return err
			}

			var (
				c    *ring.Cipher
				prev *envelope.Header
			)
			for _, input := range args {
				name := filepath.Base(input)
				if trimmed := strings.TrimSuffix(name, Ext); trimmed != name && trimmed != "" {
					name = trimmed
				} else {
					name += ".out"
				}
				output := out.path(input, name)

				c, prev, err = decodeFile(k, c, prev, input, output, out.force)
				if err != nil {
					return fmt.Errorf("decode %s: %w", input, err)
				}
				log.Info("decoded file", "input", input, "output", output)
			}
			return nil
		},
	}

	key.register(cmd)
	out.register(cmd)
	return cmd
}

func encodeFile(c *ring.Cipher, h *envelope.Header, input, output string, force bool) error {
	in, err := os.Open(input)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	size, err := fileSize(in)
	if err != nil {
		return err
	}

	return writeOutput(output, size+int64(h.Size()), force, func(w io.Writer) error {
		if err := envelope.Write(w, h); err != nil {
			return err
		}
		_, err := io.Copy(c.EncodeWriter(w), in)
		return err
	})
}

// decodeFile decodes input into output. If the file's header matches prev, c is reinitialized and reused; otherwise a
// new cipher is constructed from the header.
func decodeFile(
	key []byte, c *ring.Cipher, prev *envelope.Header, input, output string, force bool,
) (*ring.Cipher, *envelope.Header, error) {
	in, err := os.Open(input)
	if err != nil {
		return c, prev, err
	}
	defer func() {
		_ = in.Close()
	}()

	size, err := fileSize(in)
	if err != nil {
		return c, prev, err
	}

	h, err := envelope.Read(in, ring.MaxSaltSize)
	if err != nil {
		return c, prev, err
	}

	if c != nil && prev != nil && h.Equal(prev) {
		c.Reinit()
	} else {
		c, err = ring.New(key, h.Salt, h.MutationInterval, ring.WithAlphabetSize(h.AlphabetSize))
		if err != nil {
			return nil, nil, err
		}
	}

	err = writeOutput(output, size-int64(h.Size()), force, func(w io.Writer) error {
		_, err := io.Copy(w, c.DecodeReader(in))
		return err
	})
	return c, h, err
}

// writeOutput writes to a temporary file next to path and renames it into place once f succeeds.
func writeOutput(path string, size int64, force bool, f func(w io.Writer) error) (err error) {
	if !force {
		if _, err := os.Lstat(path); err == nil {
			return fmt.Errorf("%w: %s", errOutputExists, path)
		}
	}

	dir := filepath.Dir(path)
	if err := checkDiskSpace(dir, size); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := f(tmp); err != nil {
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func fileSize(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
