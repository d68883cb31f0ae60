package main

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

func newEchoCmd(logger func(*cobra.Command) hclog.Logger) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "echo",
		Short: "Listen for plaintext connections and write back whatever they send",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lc := new(net.ListenConfig)
			ln, err := lc.Listen(cmd.Context(), "tcp", addr)
			if err != nil {
				return err
			}
			return serveEcho(cmd.Context(), ln, logger(cmd).Named("echo"))
		},
	}

	cmd.Flags().StringVar(&addr, "listen", "127.0.0.1:4040", "The address to listen on")
	return cmd
}

func newConnectCmd(logger func(*cobra.Command) hclog.Logger) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Make a plaintext connection, writing stdin to it and its responses to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return connect(cmd.Context(), addr, cmd.InOrStdin(), cmd.OutOrStdout(), logger(cmd).Named("connect"))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:6060", "The address to connect to")
	return cmd
}

// serveEcho echoes every connection accepted on ln until ctx is canceled.
func serveEcho(ctx context.Context, ln net.Listener, log hclog.Logger) error {
	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	log.Info("listening", "addr", ln.Addr())

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

			log.Info("accepted new connection", "addr", conn.RemoteAddr())
			defer func() {
				_ = conn.Close()
				log.Info("closed connection", "addr", conn.RemoteAddr())
			}()

			unblock := context.AfterFunc(ctx, func() {
				_ = conn.Close()
			})
			defer unblock()

			if _, err := io.Copy(conn, conn); err != nil && !errors.Is(err, net.ErrClosed) {
				log.Error("error echoing data", "err", err)
			}
		}()
	}
}

// connect copies in to a connection to addr and the connection's responses to out. Once in is exhausted, the write
// side of the connection is closed and connect waits for the remote end to finish.
func connect(ctx context.Context, addr string, in io.Reader, out io.Writer, log hclog.Logger) error {
	log.Info("connecting", "addr", addr)
	dialer := new(net.Dialer)
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer func() {
		_ = conn.Close()
		log.Info("closed connection")
	}()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	go func() {
		if _, err := io.Copy(conn, in); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Error("error reading from stdin", "err", err)
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.CloseWrite()
		}
	}()

	if _, err := io.Copy(out, conn); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
