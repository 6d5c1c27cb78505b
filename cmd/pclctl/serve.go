package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/genivi/pclient/pkg/client"
	"github.com/genivi/pclient/pkg/metrics"
	"github.com/genivi/pclient/pkg/plog"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep an instance initialized and serve its Prometheus/health endpoints until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

		return withClient(cmd, func(cl *client.Client) error {
			metrics.RegisterComponent("loop", true, "running")
			metrics.RegisterComponent("kv", true, "running")
			metrics.RegisterComponent("rct", true, "running")

			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			mux.Handle("/health", metrics.HealthHandler())
			mux.Handle("/ready", metrics.ReadyHandler())
			mux.Handle("/live", metrics.LivenessHandler())

			server := &http.Server{Addr: metricsAddr, Handler: mux}
			log := plog.WithComponent("pclctl")
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error().Err(err).Msg("metrics server exited")
				}
			}()
			fmt.Printf("serving metrics on http://%s/metrics (health/ready/live alongside)\n", metricsAddr)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			return server.Close()
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("root", "/Data", "Filesystem root the cache/write-through/backup trees live under")
	serveCmd.Flags().String("app-id", "", "Application id to keep initialized")
	serveCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address to serve /metrics, /health, /ready, /live on")
	serveCmd.MarkFlagRequired("app-id")
}
