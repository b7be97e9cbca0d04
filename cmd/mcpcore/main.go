// Copyright 2025 The mcpcore Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command mcpcore launches or dials an MCP session over the stdio or SSE
// transports, parameterized by a TOML config file plus flag overrides.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/mcpcore/mcpcore/internal/config"
	"github.com/mcpcore/mcpcore/mcp"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mcpcore",
		Short: "Run or dial a Model Context Protocol session",
	}
	root.AddCommand(newServeStdioCmd(), newServeSSECmd(), newDialStdioCmd())
	return root
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func newServeStdioCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve-stdio",
		Short: "Run an MCP server over stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log := newLogger(cfg.Logging.Level)
			server := mcp.NewServer(
				mcp.Implementation{Name: cfg.Server.Name, Version: cfg.Server.Version},
				mcp.ServerOptions{
					ToolsListChanged:     cfg.Server.ToolsListChanged,
					ResourcesListChanged: cfg.Server.ResourcesListChanged,
					ResourcesSubscribe:   cfg.Server.ResourcesSubscribe,
					PromptsListChanged:   cfg.Server.PromptsListChanged,
					LoggingCapability:    cfg.Server.LoggingCapability,
					Instructions:         cfg.Server.Instructions,
					Logger:               log,
				},
			)
			transport := mcp.NewStandardStdioTransport(log)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			session, err := server.Connect(ctx, transport)
			if err != nil {
				return err
			}
			<-ctx.Done()
			return session.CloseGracefully(context.Background())
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	return cmd
}

func newServeSSECmd() *cobra.Command {
	var configPath, addr string
	cmd := &cobra.Command{
		Use:   "serve-sse",
		Short: "Run an MCP server over Server-Sent Events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log := newLogger(cfg.Logging.Level)
			if addr == "" {
				addr = cfg.SSE.Addr
			}
			if addr == "" {
				return fmt.Errorf("mcpcore: --addr or [sse].addr is required")
			}
			server := mcp.NewServer(
				mcp.Implementation{Name: cfg.Server.Name, Version: cfg.Server.Version},
				mcp.ServerOptions{
					ToolsListChanged:     cfg.Server.ToolsListChanged,
					ResourcesListChanged: cfg.Server.ResourcesListChanged,
					ResourcesSubscribe:   cfg.Server.ResourcesSubscribe,
					PromptsListChanged:   cfg.Server.PromptsListChanged,
					LoggingCapability:    cfg.Server.LoggingCapability,
					Instructions:         cfg.Server.Instructions,
					Logger:               log,
				},
			)
			transport := mcp.NewSSETransport(log)
			if _, err := server.Connect(cmd.Context(), transport); err != nil {
				return err
			}
			r := chi.NewRouter()
			r.Mount("/", transport.Handler())
			log.Info("mcpcore: serving SSE", "addr", addr)
			return http.ListenAndServe(addr, r)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	cmd.Flags().StringVar(&addr, "addr", "", "host:port to listen on")
	return cmd
}

func newDialStdioCmd() *cobra.Command {
	var command string
	var cmdArgs []string
	cmd := &cobra.Command{
		Use:   "dial-stdio",
		Short: "Connect a client to a server launched as a child process",
		RunE: func(cmd *cobra.Command, args []string) error {
			if command == "" {
				return fmt.Errorf("mcpcore: --command is required")
			}
			log := newLogger("info")
			transport, err := mcp.NewCommandTransport(mcp.CommandTransportOptions{
				Command: command,
				Args:    cmdArgs,
				Stderr:  func(line string) { log.Warn("child stderr", "line", line) },
				Log:     log,
			})
			if err != nil {
				return err
			}
			client, err := mcp.NewClient(mcp.Implementation{Name: "mcpcore-cli", Version: "dev"}, mcp.ClientOptions{Logger: log})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			session, err := client.Connect(ctx, transport)
			if err != nil {
				return err
			}
			result, err := session.Initialize(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("connected to %s %s (protocol %s)\n", result.ServerInfo.Name, result.ServerInfo.Version, result.ProtocolVersion)
			<-ctx.Done()
			return session.CloseGracefully(context.Background())
		},
	}
	cmd.Flags().StringVar(&command, "command", "", "the server command to launch")
	cmd.Flags().StringArrayVar(&cmdArgs, "arg", nil, "an argument to pass the server command (repeatable)")
	return cmd
}
