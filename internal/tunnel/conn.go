// Package tunnel carries TCP streams over connections encoded with ring ciphers keyed by a handshake.
package tunnel

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/codahale/ring"
	"github.com/codahale/ring/handshake"
)

// A Conn is a net.Conn which encodes everything written to it and decodes everything read from it.
//
// Reads and writes may happen concurrently with each other, but not with themselves.
type Conn struct {
	net.Conn
	r io.Reader
	w io.Writer
}

// NewConn wraps conn with the given ciphers.
func NewConn(conn net.Conn, send, recv *ring.Cipher) *Conn {
	return &Conn{
		Conn: conn,
		r:    recv.DecodeReader(conn),
		w:    send.EncodeWriter(conn),
	}
}

func (c *Conn) Read(p []byte) (n int, err error) {
	return c.r.Read(p)
}

func (c *Conn) Write(p []byte) (n int, err error) {
	return c.w.Write(p)
}

// Dial connects to the TCP address addr and performs the initiator side of the handshake.
func Dial(ctx context.Context, addr string, psk []byte) (*Conn, error) {
	dialer := new(net.Dialer)
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	c, err := Client(ctx, conn, psk)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

// Client performs the initiator side of the handshake over conn using the given pre-shared key. The handshake is
// abandoned if ctx is canceled or its deadline passes.
func Client(ctx context.Context, conn net.Conn, psk []byte) (*Conn, error) {
	defer watch(ctx, conn)()

	finish, request, err := handshake.Initiate(psk, rand.Reader)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Write(request); err != nil {
		return nil, fmt.Errorf("tunnel: write request: %w", err)
	}

	response := make([]byte, handshake.ResponseSize)
	if _, err := io.ReadFull(conn, response); err != nil {
		return nil, fmt.Errorf("tunnel: read response: %w", err)
	}

	send, recv, err := finish(response)
	if err != nil {
		return nil, err
	}
	return NewConn(conn, send, recv), nil
}

// Server performs the responder side of the handshake over conn using the given pre-shared key. The handshake is
// abandoned if ctx is canceled or its deadline passes.
func Server(ctx context.Context, conn net.Conn, psk []byte) (*Conn, error) {
	defer watch(ctx, conn)()

	request := make([]byte, handshake.RequestSize)
	if _, err := io.ReadFull(conn, request); err != nil {
		return nil, fmt.Errorf("tunnel: read request: %w", err)
	}

	send, recv, response, err := handshake.Respond(psk, rand.Reader, request)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Write(response); err != nil {
		return nil, fmt.Errorf("tunnel: write response: %w", err)
	}
	return NewConn(conn, send, recv), nil
}

// watch applies ctx's deadline to conn and interrupts pending I/O when ctx is canceled. The returned function clears
// the deadline.
func watch(ctx context.Context, conn net.Conn) func() {
	if d, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(d)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})

	return func() {
		stop()
		_ = conn.SetDeadline(time.Time{})
	}
}

var _ net.Conn = (*Conn)(nil)
