package account

import (
	"github.com/spf13/cobra"
	"github/chapool/zksync-wallet/cmd/flags"
	"github/chapool/zksync-wallet/internal/util/command"
	"github/chapool/zksync-wallet/internal/wallet"
)

type balanceOutput struct {
	Token     string `json:"token"`
	State     string `json:"state"`
	Amount    string `json:"amount"`
	Formatted string `json:"formatted"`
}

func newBalance() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance <token>",
		Short: "Prints the balance of a token by symbol or address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := flags.CLIConfig()
			command.ConfigureLogger(cfg.Logger)

			rawState, err := cmd.Flags().GetString("state")
			if err != nil {
				return err
			}
			state, err := wallet.ParseBalanceState(rawState)
			if err != nil {
				return err
			}

			w, client, err := openWallet(ctx, cmd, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			balance, err := w.GetBalance(ctx, args[0], state)
			if err != nil {
				return err
			}

			return flags.PrintJSON(cmd.OutOrStdout(), balanceOutput{
				Token:     balance.Token.Symbol,
				State:     balance.State.String(),
				Amount:    balance.Amount.String(),
				Formatted: balance.Formatted(),
			})
		},
	}
	cmd.Flags().String(addressFlag, "", "Account address, defaults to the signer's")
	cmd.Flags().String("state", "committed", `Balance state, "committed" or "verified"`)

	return cmd
}
