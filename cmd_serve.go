package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gtoxlili/echoChart/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				log.Error("failed to close", "error", err)
			}
		}()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := cfg.Server.Addr
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			addr = v
		}
		srv := server.NewServer(server.Deps{
			Engine:      a.engine,
			Analyzer:    a.analyzer,
			Sessions:    a.sessions,
			Log:         log,
			CORSOrigins: cfg.Server.CORSOrigins,
		})
		return srv.Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address override")
}
