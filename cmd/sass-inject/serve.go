package main

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/alevsk/sass-inject/internal/api"
	"github.com/alevsk/sass-inject/internal/logger"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	host     string
	port     int
	timeout  string
	logLevel string
}

// newServeCmd creates the serve command
func newServeCmd(ro *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sass-inject API server",
		Args:  cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, args []string) {
			// Override config values with flags if provided
			cfg := ro.cfg
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = opts.host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = opts.port
			}
			if cmd.Flags().Changed("timeout") {
				if duration, err := time.ParseDuration(opts.timeout); err == nil {
					cfg.Server.Timeout = duration
				}
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Server.LogLevel = opts.logLevel
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			inj, err := ro.injector()
			if err != nil {
				return fmt.Errorf("error resolving variables: %w", err)
			}
			cfg := ro.cfg
			if cfg.Server.LogLevel != "" && !cfg.Debug {
				if err := logger.SetLevel(cfg.Server.LogLevel); err != nil {
					return err
				}
			}
			addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
			fmt.Fprintf(cmd.OutOrStdout(), "Starting sass-inject API server on %s...\n", addr)
			return api.NewServer(inj).Start(addr, cfg.Server.Timeout)
		},
	}

	// Server flags
	cmd.Flags().StringVarP(&opts.host, "host", "H", "", "Server host (default: 0.0.0.0)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Server port (default: 8080)")
	cmd.Flags().StringVarP(&opts.timeout, "timeout", "t", "", "Server timeout (e.g., 30s, 1m)")
	cmd.Flags().StringVarP(&opts.logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")

	return cmd
}
