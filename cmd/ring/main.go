// Command ring encodes and decodes files with the ring cipher, and runs TCP proxies which tunnel connections through
// handshake-keyed ring ciphers.
//
// A full tunnel can be tried locally with four processes:
//
//	ring echo --listen 127.0.0.1:4040
//	ring reverse-proxy --listen 127.0.0.1:5050 --connect 127.0.0.1:4040
//	ring proxy --listen 127.0.0.1:6060 --connect 127.0.0.1:5050
//	ring connect --addr 127.0.0.1:6060
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/codahale/ring/internal/logging"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "ring",
		Short:         "Encode, decode, and tunnel data with the ring cipher",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (trace, debug, info, warn, error); defaults to $"+logging.LevelEnv)

	logger := func(cmd *cobra.Command) hclog.Logger {
		return logging.New("ring", logLevel, cmd.ErrOrStderr())
	}

	root.AddCommand(
		newKeygenCmd(),
		newEncodeCmd(logger),
		newDecodeCmd(logger),
		newProxyCmd(logger, false),
		newProxyCmd(logger, true),
		newEchoCmd(logger),
		newConnectCmd(logger),
	)
	return root
}
