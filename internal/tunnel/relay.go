package tunnel

import (
	"errors"
	"io"
	"net"
)

// Relay copies data between a and b in both directions until either side is finished, then closes both. It returns the
// first error encountered, ignoring those caused by the connections being closed.
func Relay(a, b io.ReadWriteCloser) error {
	errs := make(chan error, 2)
	pipe := func(dst, src io.ReadWriteCloser) {
		_, err := io.Copy(dst, src)
		_ = dst.Close()
		_ = src.Close()
		errs <- err
	}

	go pipe(a, b)
	go pipe(b, a)

	var err error
	for range 2 {
		if e := <-errs; err == nil && e != nil && !errors.Is(e, net.ErrClosed) && !errors.Is(e, io.ErrClosedPipe) {
			err = e
		}
	}
	return err
}
