package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/zksync-wallet/cmd/flags"
	"github/chapool/zksync-wallet/internal/api"
	"github/chapool/zksync-wallet/internal/util/command"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Starts the server",
		Long: `Starts the RESTful JSON server

Requires configuration through ENV and a reachable zkSync node.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	cfg := flags.ServerConfig()

	return command.WithServer(ctx, cfg, func(ctx context.Context, s *api.Server) error {
		log.Info().
			Str("address", s.Wallet.Address().Hex()).
			Str("node", s.Provider.URL()).
			Msg("Wallet ready")

		errc := make(chan error, 1)
		go func() {
			if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
				return
			}
			errc <- nil
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case err := <-errc:
			if err != nil {
				log.Error().Err(err).Msg("Failed to start server")
			}
			return err
		case sig := <-quit:
			log.Info().Str("signal", sig.String()).Msg("Shutting down server")
		case <-ctx.Done():
		}

		// WithServer shuts the server down once we return
		return nil
	})
}
