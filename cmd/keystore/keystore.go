package keystore

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/zksync-wallet/internal/config"
	"github/chapool/zksync-wallet/internal/util/command"
)

const (
	pathFlag  = "path"
	lightFlag = "light"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("keystore",
		newCreate(),
		newAddress(),
	)
}

// keystorePath is --path, falling back to the configured keystore.
func keystorePath(cmd *cobra.Command, cfg config.Server) (string, error) {
	path, err := cmd.Flags().GetString(pathFlag)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = cfg.Signer.KeystorePath
	}
	if path == "" {
		return "", errors.New("no keystore path: pass --path or set ZKSYNC_KEYSTORE_PATH")
	}
	return path, nil
}
