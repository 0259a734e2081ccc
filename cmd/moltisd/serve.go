package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/moltislabs/moltis/internal/bootstrap"
	"github.com/moltislabs/moltis/internal/config"
)

func newServeCommand() *cobra.Command {
	var keysPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, diags, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			for _, d := range diags {
				if d.Severity == config.SeverityError {
					fmt.Printf("%s %s\n", red("error:"), d.String())
				}
			}

			if keysPath == "" {
				keysPath = filepath.Join(filepath.Dir(configPath), "moltis-keys.json")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			gw, err := bootstrap.Wire(ctx, cfg, echoChatService{}, keysPath)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}

			addr := net.JoinHostPort(cfg.Server.Host, fmt.Sprintf("%d", cfg.Server.Port))
			srv := &http.Server{Addr: addr, Handler: gw.Handler()}

			errCh := make(chan error, 1)
			go func() {
				fmt.Printf("%s listening on %s\n", green("moltisd"), addr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				return fmt.Errorf("serve: %w", err)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				fmt.Printf("%s graceful shutdown: %v\n", yellow("warn:"), err)
			}
			return gw.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&keysPath, "keys", "", "path to the credential store (default: alongside --config)")
	return cmd
}
