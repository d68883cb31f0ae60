package main

import (
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/codahale/ring/internal/tunnel"
)

// PSKEnv names the environment variable holding the default hex-encoded pre-shared key.
const PSKEnv = "RING_PSK"

func newProxyCmd(logger func(*cobra.Command) hclog.Logger, reverse bool) *cobra.Command {
	var (
		listen  string
		connect string
		psk     string
		timeout time.Duration
	)

	p := &tunnel.Proxy{Mode: tunnel.Forward}
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Accept plaintext connections and forward them through a ring tunnel",
		Args:  cobra.NoArgs,
	}
	if reverse {
		p.Mode = tunnel.Reverse
		cmd.Use = "reverse-proxy"
		cmd.Short = "Terminate ring tunnels and forward them as plaintext connections"
	}

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if psk == "" {
			psk = os.Getenv(PSKEnv)
		}

		key, err := hex.DecodeString(psk)
		if err != nil {
			return fmt.Errorf("invalid psk: %w", err)
		}

		p.Connect = connect
		p.PSK = key
		p.HandshakeTimeout = timeout
		p.Logger = logger(cmd).Named(cmd.Use)

		lc := new(net.ListenConfig)
		ln, err := lc.Listen(cmd.Context(), "tcp", listen)
		if err != nil {
			return err
		}
		return p.Serve(cmd.Context(), ln)
	}

	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:6060", "The address to listen on")
	cmd.Flags().StringVar(&connect, "connect", "127.0.0.1:5050", "The address to connect to")
	cmd.Flags().StringVar(&psk, "psk", "", "Hex-encoded pre-shared key; defaults to $"+PSKEnv)
	cmd.Flags().DurationVar(&timeout, "handshake-timeout", tunnel.DefaultHandshakeTimeout,
		"Time allowed for connecting and handshaking")
	return cmd
}
