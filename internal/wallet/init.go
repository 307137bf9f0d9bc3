package wallet

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/zksync-wallet/internal/config"
	"github/chapool/zksync-wallet/internal/wallet/address"
	"github/chapool/zksync-wallet/internal/wallet/keystore"
	"github/chapool/zksync-wallet/internal/wallet/seed"
	"github/chapool/zksync-wallet/internal/wallet/signer"
	"golang.org/x/term"
)

// InitializeSigner builds the host-chain signer described by cfg. Key
// sources for the local signer are tried in order: an explicit private
// key, the keystore file, then the mnemonic. A missing keystore password
// is prompted for when stdin is a terminal.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func InitializeSigner(ctx context.Context, cfg config.Signer) (signer.Signer, error) {
	log := log.With().Str("component", "wallet_init").Logger()

	kind := signer.Kind(cfg.Kind)

	if kind == signer.KindJSONRPC {
		log.Info().Str("url", cfg.RPCURL).Msg("Using remote JSON-RPC signer")
		return signer.NewService(ctx, signer.Config{Kind: kind, URL: cfg.RPCURL, Address: cfg.Address}, nil, nil)
	}

	if kind != signer.KindLocal && kind != "" {
		return nil, errors.Errorf("unsupported signer kind %q", cfg.Kind)
	}

	switch {
	case cfg.PrivateKey != "":
		log.Info().Msg("Using private key signer")
		return signer.NewService(ctx, signer.Config{Kind: signer.KindLocal, PrivateKey: cfg.PrivateKey}, nil, nil)

	case cfg.KeystorePath != "":
		ks := keystore.NewService(cfg.KeystorePath, keystore.DefaultScryptParams())

		password := cfg.KeystorePass
		if password == "" {
			var err error
			password, err = PromptPassword("Enter keystore password: ")
			if err != nil {
				return nil, err
			}
		}

		privateKey, err := ks.Unlock(ctx, password)
		if err != nil {
			return nil, errors.Wrap(err, "failed to unlock keystore (invalid password?)")
		}
		defer clear(privateKey)

		log.Info().Str("path", cfg.KeystorePath).Msg("Keystore unlocked")
		return signer.PrivateKeySignerFromBytes(privateKey)

	case cfg.Mnemonic != "":
		seeds, err := seed.NewManagerFromMnemonic(cfg.Mnemonic, cfg.MnemonicPass)
		if err != nil {
			return nil, errors.Wrap(err, "failed to initialize seed manager")
		}
		defer seeds.Clear()

		log.Info().Str("path", cfg.DerivationPath).Msg("Deriving signer from mnemonic")
		return signer.NewService(ctx, signer.Config{Kind: signer.KindLocal, DerivationPath: cfg.DerivationPath}, seeds, address.NewService())

	default:
		return nil, errors.New("no signer key configured: set a private key, a keystore path or a mnemonic")
	}
}

// InitializeWallet builds the signing wallet for cfg on top of prov. The
// native key comes from the configured native seed, or else from the
// host-chain signer.
func InitializeWallet(ctx context.Context, cfg config.Server, prov Provider) (*Wallet, error) {
	s, err := InitializeSigner(ctx, cfg.Signer)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithEthSigner(s), WithTrustLocalNonce(cfg.Wallet.TrustLocalNonce)}

	if cfg.Wallet.NativeSeed == "" {
		return FromEthSigner(ctx, prov, s, cfg.Node.ChainID, opts...)
	}

	nativeSeed, err := hex.DecodeString(strings.TrimPrefix(cfg.Wallet.NativeSeed, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid native seed")
	}

	addr, err := s.Address(ctx)
	if err != nil {
		return nil, stepError(StepHostSign, err)
	}

	return FromSeed(prov, nativeSeed, addr, opts...)
}

// PromptPassword reads a password from the terminal without echo.
//
//nolint:forbidigo // Password input requires direct terminal I/O
func PromptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("password required but stdin is not a terminal")
	}

	fmt.Fprint(os.Stderr, prompt)

	passwordBytes, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "failed to read password from terminal")
	}

	return string(passwordBytes), nil
}
