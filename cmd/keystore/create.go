package keystore

import (
	"context"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/zksync-wallet/cmd/flags"
	"github/chapool/zksync-wallet/internal/config"
	"github/chapool/zksync-wallet/internal/util/command"
	"github/chapool/zksync-wallet/internal/wallet"
	"github/chapool/zksync-wallet/internal/wallet/address"
	"github/chapool/zksync-wallet/internal/wallet/keystore"
	"github/chapool/zksync-wallet/internal/wallet/seed"
)

type createOutput struct {
	Path    string `json:"path"`
	Address string `json:"address"`
}

func newCreate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Encrypts a host-chain key into a keystore file",
		Long: `Encrypts the configured private key, or the key derived from the
configured mnemonic, into a v3 keystore. A fresh key is generated when
neither is set. The password is ZKSYNC_KEYSTORE_PASSWORD or prompted for.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := flags.CLIConfig()
			command.ConfigureLogger(cfg.Logger)

			path, err := keystorePath(cmd, cfg)
			if err != nil {
				return err
			}

			params := keystore.DefaultScryptParams()
			if light, _ := cmd.Flags().GetBool(lightFlag); light {
				params = keystore.LightScryptParams()
			}

			privateKey, err := sourceKey(ctx, cfg.Signer)
			if err != nil {
				return err
			}
			defer clear(privateKey)

			password, err := createPassword(cfg.Signer)
			if err != nil {
				return err
			}

			ks, err := keystore.NewService(path, params).Create(ctx, privateKey, password)
			if err != nil {
				return err
			}

			return flags.PrintJSON(cmd.OutOrStdout(), createOutput{Path: path, Address: "0x" + ks.Address})
		},
	}
	cmd.Flags().String(pathFlag, "", "Keystore file, defaults to ZKSYNC_KEYSTORE_PATH")
	cmd.Flags().Bool(lightFlag, false, "Use light scrypt parameters (testing only)")

	return cmd
}

func sourceKey(ctx context.Context, cfg config.Signer) ([]byte, error) {
	switch {
	case cfg.PrivateKey != "":
		key, err := crypto.HexToECDSA(trimHex(cfg.PrivateKey))
		if err != nil {
			return nil, errors.Wrap(err, "invalid private key")
		}
		return crypto.FromECDSA(key), nil

	case cfg.Mnemonic != "":
		seeds, err := seed.NewManagerFromMnemonic(cfg.Mnemonic, cfg.MnemonicPass)
		if err != nil {
			return nil, err
		}
		defer seeds.Clear()

		s := seeds.GetSeed()
		defer clear(s)

		return address.NewService().DerivePrivateKey(ctx, s, cfg.DerivationPath)

	default:
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, errors.Wrap(err, "failed to generate key")
		}
		log.Info().Msg("Generated a new private key")
		return crypto.FromECDSA(key), nil
	}
}

func createPassword(cfg config.Signer) (string, error) {
	if cfg.KeystorePass != "" {
		return cfg.KeystorePass, nil
	}

	password, err := wallet.PromptPassword("New keystore password: ")
	if err != nil {
		return "", err
	}
	repeated, err := wallet.PromptPassword("Repeat password: ")
	if err != nil {
		return "", err
	}
	if password != repeated {
		return "", errors.New("passwords do not match")
	}

	return password, nil
}

func trimHex(s string) string {
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
