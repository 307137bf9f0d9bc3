package probe

import (
	"github.com/spf13/cobra"
	"github/chapool/zksync-wallet/internal/util/command"
)

const (
	verboseFlag string = "verbose"
)

// New groups the probes used as container liveness and readiness checks.
// Both exit non-zero when a check fails.
func New() *cobra.Command {
	cmd := command.NewSubcommandGroup("probe",
		newLiveness(),
		newReadiness(),
	)
	cmd.Short = "Liveness and readiness probes"

	return cmd
}
