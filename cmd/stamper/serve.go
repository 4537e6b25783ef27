package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	stamphttp "github.com/dropDatabas3/stamper/internal/http"
	"github.com/dropDatabas3/stamper/internal/http/router"
	"github.com/dropDatabas3/stamper/internal/metrics"
	"github.com/dropDatabas3/stamper/internal/observability/logger"
	"github.com/dropDatabas3/stamper/internal/stamper"
)

func newServeCmd(o *rootOptions) *cobra.Command {
	var (
		addr   string
		noInit bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el agente HTTP local (ciclo de vida, stamp, verify, /metrics)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if addr == "" {
				addr = o.cfg.Server.Addr
			}
			if err := metrics.RegisterHTTP(nil); err != nil {
				return err
			}
			log := logger.L().With(logger.Component("serve"))

			return withManager(ctx, o.cfg, !noInit, func(mgr *stamper.Manager) error {
				if info, ok := mgr.KeyInfo(); ok {
					log.Info("signing key ready", logger.KeyID(info.KeyID), logger.ExpiresAt(info.ExpiresAt))
				}
				srv, err := stamphttp.Listen(addr, router.New(router.Deps{
					Manager:    mgr,
					Version:    version,
					MaxPayload: o.cfg.Server.MaxPayloadBytes,
				}))
				if err != nil {
					return err
				}
				return srv.Run(logger.ToContext(ctx, log))
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "dirección de escucha (default: server.addr)")
	cmd.Flags().BoolVar(&noInit, "no-init", false, "no inicializar la clave al arrancar")
	return cmd
}

