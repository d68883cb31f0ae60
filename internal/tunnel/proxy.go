package tunnel

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// A Mode determines which side of a Proxy is tunneled.
type Mode int

const (
	// Forward accepts plaintext connections and forwards them through a tunnel.
	Forward Mode = iota
	// Reverse accepts tunnel connections and forwards them as plaintext.
	Reverse
)

func (m Mode) String() string {
	switch m {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return "unknown"
	}
}

// DefaultHandshakeTimeout bounds dialing and handshaking when a Proxy does not set HandshakeTimeout.
const DefaultHandshakeTimeout = 10 * time.Second

// A Proxy relays connections accepted on a listener to a remote address, tunneling one side of each relay.
type Proxy struct {
	// Mode selects which side of each relay is tunneled.
	Mode Mode
	// Connect is the TCP address each accepted connection is relayed to.
	Connect string
	// PSK is the pre-shared key mixed into every handshake. May be empty.
	PSK []byte
	// HandshakeTimeout bounds dialing Connect and completing the handshake.
	HandshakeTimeout time.Duration
	// Logger receives connection events. If nil, nothing is logged.
	Logger hclog.Logger
}

// Serve accepts connections on ln until ctx is canceled, relaying each in its own goroutine. It closes ln and waits for
// active relays to finish before returning.
func (p *Proxy) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	log := p.logger()
	log.Info("listening", "addr", ln.Addr(), "mode", p.Mode, "connect", p.Connect)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Error("failed to accept connection", "err", err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			p.handle(ctx, conn)
		}()
	}
}

func (p *Proxy) handle(ctx context.Context, conn net.Conn) {
	log := p.logger().With("addr", conn.RemoteAddr())
	log.Info("accepted new connection")
	defer func() {
		_ = conn.Close()
		log.Info("closed connection")
	}()

	setupCtx, cancel := context.WithTimeout(ctx, p.handshakeTimeout())
	defer cancel()

	var local io.ReadWriteCloser = conn
	if p.Mode == Reverse {
		tc, err := Server(setupCtx, conn, p.PSK)
		if err != nil {
			log.Error("handshake failed", "err", err)
			return
		}
		local = tc
		log.Debug("handshake established")
	}

	log.Debug("connecting", "connect", p.Connect)
	var remote io.ReadWriteCloser
	if p.Mode == Forward {
		tc, err := Dial(setupCtx, p.Connect, p.PSK)
		if err != nil {
			log.Error("error connecting", "err", err)
			return
		}
		remote = tc
		log.Debug("handshake established")
	} else {
		dialer := new(net.Dialer)
		upstream, err := dialer.DialContext(setupCtx, "tcp", p.Connect)
		if err != nil {
			log.Error("error connecting", "err", err)
			return
		}
		remote = upstream
	}
	defer func() {
		_ = remote.Close()
	}()

	stop := context.AfterFunc(ctx, func() {
		_ = local.Close()
		_ = remote.Close()
	})
	defer stop()

	if err := Relay(local, remote); err != nil {
		log.Error("relay failed", "err", err)
	}
}

func (p *Proxy) handshakeTimeout() time.Duration {
	if p.HandshakeTimeout > 0 {
		return p.HandshakeTimeout
	}
	return DefaultHandshakeTimeout
}

func (p *Proxy) logger() hclog.Logger {
	if p.Logger == nil {
		return hclog.NewNullLogger()
	}
	return p.Logger
}
