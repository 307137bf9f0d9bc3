package transfer

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/zksync-wallet/cmd/flags"
	"github/chapool/zksync-wallet/internal/api"
	"github/chapool/zksync-wallet/internal/util/command"
	"github/chapool/zksync-wallet/internal/wallet"
	"github/chapool/zksync-wallet/internal/zksync"
)

func newSubmit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <prepared.json|->",
		Short: "Submits a transfer printed by \"transfer prepare\"",
		Long: `Submits a prepared transfer. Without --signature the configured signer
signs the confirmation message.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prepared, err := readPrepared(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			var sig *zksync.PackedEthSignature
			if raw, _ := cmd.Flags().GetString("signature"); raw != "" {
				parsed, err := zksync.ParsePackedEthSignature(raw)
				if err != nil {
					return err
				}
				sig = &parsed
			}

			return command.WithServer(cmd.Context(), flags.CLIConfig(), func(ctx context.Context, s *api.Server) error {
				hash, err := submit(ctx, s.Wallet, prepared, sig)
				if err != nil {
					return err
				}

				return flags.PrintJSON(cmd.OutOrStdout(), sendOutput{Hash: hash})
			})
		},
	}
	cmd.Flags().String("signature", "", "Hex host-chain signature over the confirmation message")

	return cmd
}

func readPrepared(stdin io.Reader, path string) (*wallet.PreparedTransfer, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read prepared transfer")
	}

	var prepared wallet.PreparedTransfer
	if err := json.Unmarshal(raw, &prepared); err != nil {
		return nil, errors.Wrap(err, "failed to decode prepared transfer")
	}
	if prepared.Tx == nil {
		return nil, errors.New("prepared transfer has no tx")
	}

	return &prepared, nil
}

// submit checks the token against the node's catalogue before signing, the
// file's copy is not trusted for the confirmation message.
func submit(ctx context.Context, w *wallet.Wallet, prepared *wallet.PreparedTransfer, sig *zksync.PackedEthSignature) (zksync.TxHash, error) {
	token, err := w.ResolveToken(ctx, prepared.Token.Symbol)
	if err != nil {
		return zksync.TxHash{}, err
	}
	if token.ID != prepared.Tx.Token {
		return zksync.TxHash{}, wallet.ErrTransferMismatch
	}
	prepared.Token = token

	if sig == nil {
		signed, err := w.SignTransfer(ctx, prepared)
		if err != nil {
			return zksync.TxHash{}, err
		}
		sig = &signed
	}

	return w.SubmitTransfer(ctx, prepared, sig)
}
