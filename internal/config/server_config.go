package config

import (
	"time"

	"github.com/rs/zerolog"
	"github/chapool/zksync-wallet/internal/util"
)

type EchoServer struct {
	Debug                         bool
	ListenAddress                 string
	EnableCORSMiddleware          bool
	EnableLoggerMiddleware        bool
	EnableRecoverMiddleware       bool
	EnableRequestIDMiddleware     bool
	EnableTrailingSlashMiddleware bool
	EnableSecureMiddleware        bool
	EnablePrometheusMiddleware    bool
	BodyLimit                     string
}

type LoggerServer struct {
	Level              zerolog.Level
	RequestLevel       zerolog.Level
	LogRequestBody     bool
	LogRequestHeader   bool
	LogRequestQuery    bool
	LogResponseBody    bool
	LogResponseHeader  bool
	LogCaller          bool
	PrettyPrintConsole bool
}

type ManagementServer struct {
	Secret                  string `json:"-"`
	ReadinessTimeout        time.Duration
	LivenessTimeout         time.Duration
	ProbeWriteablePathsAbs  []string
	ProbeWriteableTouchfile string
}

// Node configures the connection to the zkSync node.
type Node struct {
	RPCURL  string
	Timeout time.Duration
	ChainID uint64
}

// Signer selects the host-chain signer backing the wallet.
type Signer struct {
	// Kind is "local" or "jsonrpc".
	Kind           string
	PrivateKey     string `json:"-"`
	KeystorePath   string
	KeystorePass   string `json:"-"`
	Mnemonic       string `json:"-"`
	MnemonicPass   string `json:"-"`
	DerivationPath string
	RPCURL         string
	Address        string
}

// Wallet configures the transaction pipeline.
type Wallet struct {
	// NativeSeed is a hex seed of at least 32 bytes. When empty the native
	// key is derived from a host-chain signature.
	NativeSeed      string `json:"-"`
	TrustLocalNonce bool
	PollInterval    time.Duration
}

type Server struct {
	Echo       EchoServer
	Logger     LoggerServer
	Management ManagementServer
	Node       Node
	Signer     Signer
	Wallet     Wallet
}

// DefaultServiceConfigFromEnv returns the server config as parsed from
// environment variables and their respective defaults defined below.
func DefaultServiceConfigFromEnv() Server {
	// An `.env.local` file in the working directory is loaded first when
	// present.
	LoadDotEnv()

	return Server{
		Echo: EchoServer{
			Debug:                         util.GetEnvAsBool("SERVER_ECHO_DEBUG", false),
			ListenAddress:                 util.GetEnv("SERVER_ECHO_LISTEN_ADDRESS", ":8080"),
			EnableCORSMiddleware:          util.GetEnvAsBool("SERVER_ECHO_ENABLE_CORS_MIDDLEWARE", true),
			EnableLoggerMiddleware:        util.GetEnvAsBool("SERVER_ECHO_ENABLE_LOGGER_MIDDLEWARE", true),
			EnableRecoverMiddleware:       util.GetEnvAsBool("SERVER_ECHO_ENABLE_RECOVER_MIDDLEWARE", true),
			EnableRequestIDMiddleware:     util.GetEnvAsBool("SERVER_ECHO_ENABLE_REQUEST_ID_MIDDLEWARE", true),
			EnableTrailingSlashMiddleware: util.GetEnvAsBool("SERVER_ECHO_ENABLE_TRAILING_SLASH_MIDDLEWARE", true),
			EnableSecureMiddleware:        util.GetEnvAsBool("SERVER_ECHO_ENABLE_SECURE_MIDDLEWARE", true),
			EnablePrometheusMiddleware:    util.GetEnvAsBool("SERVER_ECHO_ENABLE_PROMETHEUS_MIDDLEWARE", true),
			BodyLimit:                     util.GetEnv("SERVER_ECHO_BODY_LIMIT", "1M"),
		},
		Logger: LoggerServer{
			Level:              util.LogLevelFromString(util.GetEnv("SERVER_LOGGER_LEVEL", zerolog.DebugLevel.String())),
			RequestLevel:       util.LogLevelFromString(util.GetEnv("SERVER_LOGGER_REQUEST_LEVEL", zerolog.DebugLevel.String())),
			LogRequestBody:     util.GetEnvAsBool("SERVER_LOGGER_LOG_REQUEST_BODY", false),
			LogRequestHeader:   util.GetEnvAsBool("SERVER_LOGGER_LOG_REQUEST_HEADER", false),
			LogRequestQuery:    util.GetEnvAsBool("SERVER_LOGGER_LOG_REQUEST_QUERY", false),
			LogResponseBody:    util.GetEnvAsBool("SERVER_LOGGER_LOG_RESPONSE_BODY", false),
			LogResponseHeader:  util.GetEnvAsBool("SERVER_LOGGER_LOG_RESPONSE_HEADER", false),
			LogCaller:          util.GetEnvAsBool("SERVER_LOGGER_LOG_CALLER", false),
			PrettyPrintConsole: util.GetEnvAsBool("SERVER_LOGGER_PRETTY_PRINT_CONSOLE", false),
		},
		Management: ManagementServer{
			Secret:                  util.GetEnv("SERVER_MANAGEMENT_SECRET", ""),
			ReadinessTimeout:        util.GetEnvAsDuration("SERVER_MANAGEMENT_READINESS_TIMEOUT", 4*time.Second),
			LivenessTimeout:         util.GetEnvAsDuration("SERVER_MANAGEMENT_LIVENESS_TIMEOUT", 9*time.Second),
			ProbeWriteablePathsAbs:  util.GetEnvAsStringArr("SERVER_MANAGEMENT_PROBE_WRITEABLE_PATHS", []string{}),
			ProbeWriteableTouchfile: util.GetEnv("SERVER_MANAGEMENT_PROBE_WRITEABLE_TOUCHFILE", ".healthy"),
		},
		Node: Node{
			RPCURL:  util.GetEnv("ZKSYNC_RPC_URL", "http://127.0.0.1:3030"),
			Timeout: util.GetEnvAsDuration("ZKSYNC_RPC_TIMEOUT", 10*time.Second),
			ChainID: util.GetEnvAsUint64("ZKSYNC_CHAIN_ID", 1),
		},
		Signer: Signer{
			Kind:           util.GetEnv("ZKSYNC_SIGNER", "local"),
			PrivateKey:     util.GetEnv("ZKSYNC_SIGNER_PRIVATE_KEY", ""),
			KeystorePath:   util.GetEnv("ZKSYNC_KEYSTORE_PATH", ""),
			KeystorePass:   util.GetEnv("ZKSYNC_KEYSTORE_PASSWORD", ""),
			Mnemonic:       util.GetEnv("ZKSYNC_MNEMONIC", ""),
			MnemonicPass:   util.GetEnv("ZKSYNC_MNEMONIC_PASSPHRASE", ""),
			DerivationPath: util.GetEnv("ZKSYNC_DERIVATION_PATH", "m/44'/60'/0'/0/0"),
			RPCURL:         util.GetEnv("ZKSYNC_SIGNER_RPC_URL", ""),
			Address:        util.GetEnv("ZKSYNC_SIGNER_ADDRESS", ""),
		},
		Wallet: Wallet{
			NativeSeed:      util.GetEnv("ZKSYNC_NATIVE_SEED", ""),
			TrustLocalNonce: util.GetEnvAsBool("ZKSYNC_TRUST_LOCAL_NONCE", false),
			PollInterval:    util.GetEnvAsDuration("ZKSYNC_POLL_INTERVAL", 2*time.Second),
		},
	}
}
