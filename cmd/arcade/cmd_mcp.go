package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/felixgeelhaar/brainarcade/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the engine as MCP tools (stdio by default)",
		Long: `Serve the engine as MCP tools for editor and assistant integrations.
Tool calls are forwarded to the running daemon, so start it first with 'arcade start'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			if !isRunning(cmd.Context(), c) {
				return fmt.Errorf("daemon not reachable at %s (run 'arcade start')", c.BaseURL())
			}

			srv := mcpserver.NewServer(mcpserver.Config{Engine: c, Version: Version})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if addr, _ := cmd.Flags().GetString("http"); addr != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "MCP listening on %s\n", addr)
				return srv.ServeHTTP(ctx, addr)
			}
			// stdout carries the protocol
			return srv.ServeStdio(ctx)
		},
	}
	cmd.Flags().String("http", "", "Serve over HTTP on this address instead of stdio")
	return cmd
}
