package flags

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github/chapool/zksync-wallet/internal/config"
	"github/chapool/zksync-wallet/internal/util"
)

// EnvPrefix is shared by flags and the env based config, so --rpc-url and
// ZKSYNC_RPC_URL name the same setting.
const EnvPrefix = "ZKSYNC"

const (
	RPCURLKey          = "rpc-url"
	RPCTimeoutKey      = "rpc-timeout"
	ChainIDKey         = "chain-id"
	SignerKey          = "signer"
	SignerRPCURLKey    = "signer-rpc-url"
	SignerAddressKey   = "signer-address"
	KeystorePathKey    = "keystore-path"
	DerivationPathKey  = "derivation-path"
	TrustLocalNonceKey = "trust-local-nonce"
	PollIntervalKey    = "poll-interval"
	LogLevelKey        = "log-level"
	PrettyKey          = "pretty"
)

var v = viper.New()

// Register adds the persistent flags every subcommand understands and
// binds them to viper.
func Register(cmd *cobra.Command) error {
	fs := cmd.PersistentFlags()
	addFlags(fs)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v.BindPFlags(fs)
}

func addFlags(fs *pflag.FlagSet) {
	fs.String(RPCURLKey, "", "zkSync node JSON-RPC endpoint")
	fs.Duration(RPCTimeoutKey, 0, "Timeout of a single node call")
	fs.Uint64(ChainIDKey, 0, "Host chain id used for signer-derived native keys")
	fs.String(SignerKey, "", `Host-chain signer kind, "local" or "jsonrpc"`)
	fs.String(SignerRPCURLKey, "", "JSON-RPC endpoint of a remote signer")
	fs.String(SignerAddressKey, "", "Account to use on a remote signer")
	fs.String(KeystorePathKey, "", "Path of an encrypted keystore file")
	fs.String(DerivationPathKey, "", "BIP44 path used with a mnemonic")
	fs.Bool(TrustLocalNonceKey, false, "Keep a locally advanced nonce when the node reports a lower one")
	fs.Duration(PollIntervalKey, 0, "Interval between status polls")
	fs.String(LogLevelKey, "", "Log level (trace, debug, info, warn, error)")
	fs.Bool(PrettyKey, false, "Pretty print console logs")
}

// ServerConfig is the env based config with flags and ZKSYNC_* variables
// applied on top. Unset flags keep the env or default value.
func ServerConfig() config.Server {
	cfg := config.DefaultServiceConfigFromEnv()

	if s := v.GetString(RPCURLKey); s != "" {
		cfg.Node.RPCURL = s
	}
	if d := v.GetDuration(RPCTimeoutKey); d > 0 {
		cfg.Node.Timeout = d
	}
	if id := v.GetUint64(ChainIDKey); id > 0 {
		cfg.Node.ChainID = id
	}
	if s := v.GetString(SignerKey); s != "" {
		cfg.Signer.Kind = s
	}
	if s := v.GetString(SignerRPCURLKey); s != "" {
		cfg.Signer.RPCURL = s
	}
	if s := v.GetString(SignerAddressKey); s != "" {
		cfg.Signer.Address = s
	}
	if s := v.GetString(KeystorePathKey); s != "" {
		cfg.Signer.KeystorePath = s
	}
	if s := v.GetString(DerivationPathKey); s != "" {
		cfg.Signer.DerivationPath = s
	}
	if v.GetBool(TrustLocalNonceKey) {
		cfg.Wallet.TrustLocalNonce = true
	}
	if d := v.GetDuration(PollIntervalKey); d > 0 {
		cfg.Wallet.PollInterval = d
	}
	if s := v.GetString(LogLevelKey); s != "" {
		cfg.Logger.Level = util.LogLevelFromString(s)
	}
	if v.GetBool(PrettyKey) {
		cfg.Logger.PrettyPrintConsole = true
	}

	return cfg
}

// CLIConfig is ServerConfig for one-shot commands: request logging and the
// noisier middlewares are off and logs stay at warn unless asked for.
func CLIConfig() config.Server {
	cfg := ServerConfig()

	cfg.Echo.EnableLoggerMiddleware = false
	cfg.Echo.EnablePrometheusMiddleware = false
	if v.GetString(LogLevelKey) == "" && util.GetEnv("SERVER_LOGGER_LEVEL", "") == "" {
		cfg.Logger.Level = util.LogLevelFromString("warn")
	}

	return cfg
}

// WaitTimeout bounds the status polling of --wait.
func WaitTimeout(cmd *cobra.Command) time.Duration {
	d, err := cmd.Flags().GetDuration("timeout")
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// PrintJSON writes value indented to w.
func PrintJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
