package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/zksync-wallet/cmd/account"
	"github/chapool/zksync-wallet/cmd/env"
	"github/chapool/zksync-wallet/cmd/flags"
	"github/chapool/zksync-wallet/cmd/keystore"
	"github/chapool/zksync-wallet/cmd/probe"
	"github/chapool/zksync-wallet/cmd/server"
	"github/chapool/zksync-wallet/cmd/status"
	"github/chapool/zksync-wallet/cmd/transfer"
	"github/chapool/zksync-wallet/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "app",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

A zkSync wallet: transfers, balances and operation status against a zkSync
node, as a one-shot CLI or as a RESTful JSON service.
Configured through ENV (ZKSYNC_*, SERVER_*) or the persistent flags.`, config.ModuleName),
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := flags.Register(rootCmd); err != nil {
		log.Fatal().Err(err).Msg("Failed to register flags")
	}

	// attach the subcommands
	rootCmd.AddCommand(
		account.New(),
		env.New(),
		keystore.New(),
		probe.New(),
		server.New(),
		status.New(),
		transfer.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}
