package keystore

import (
	"github.com/spf13/cobra"
	"github/chapool/zksync-wallet/cmd/flags"
	"github/chapool/zksync-wallet/internal/wallet/keystore"
)

func newAddress() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Prints the address stored in a keystore without decrypting it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := keystorePath(cmd, flags.CLIConfig())
			if err != nil {
				return err
			}

			addr, err := keystore.NewService(path, keystore.DefaultScryptParams()).Address(cmd.Context())
			if err != nil {
				return err
			}

			return flags.PrintJSON(cmd.OutOrStdout(), createOutput{Path: path, Address: addr.Hex()})
		},
	}
	cmd.Flags().String(pathFlag, "", "Keystore file, defaults to ZKSYNC_KEYSTORE_PATH")

	return cmd
}
