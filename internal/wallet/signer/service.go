package signer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/zksync-wallet/internal/wallet/address"
	"github/chapool/zksync-wallet/internal/wallet/seed"
)

// Config selects a signer variant. External signers are constructed in
// code with NewExternalSigner.
type Config struct {
	Kind Kind
	// PrivateKey is a hex secp256k1 key for KindLocal. When empty the key
	// is derived from the seed manager at DerivationPath.
	PrivateKey     string
	DerivationPath string
	// URL and the optional Address configure KindJSONRPC.
	URL     string
	Address string
}

// NewService builds the configured signer.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(ctx context.Context, cfg Config, seeds seed.Manager, deriver address.Service) (Signer, error) {
	switch cfg.Kind {
	case KindLocal, "":
		if cfg.PrivateKey != "" {
			return PrivateKeySignerFromHex(cfg.PrivateKey)
		}
		return FromSeed(ctx, seeds, deriver, cfg.DerivationPath)
	case KindJSONRPC:
		var opts []JSONRPCOption
		if cfg.Address != "" {
			if !common.IsHexAddress(cfg.Address) {
				return nil, errors.Errorf("invalid signer address %q", cfg.Address)
			}
			opts = append(opts, WithAddress(common.HexToAddress(cfg.Address)))
		}
		return NewJSONRPCSigner(ctx, cfg.URL, opts...)
	case KindExternal:
		return nil, errors.New("external signers are constructed in code")
	default:
		return nil, errors.Errorf("unknown signer kind %q", cfg.Kind)
	}
}

// FromSeed derives the host-chain key at path from the seed held by seeds.
// An empty path selects the first account.
func FromSeed(ctx context.Context, seeds seed.Manager, deriver address.Service, path string) (*PrivateKeySigner, error) {
	if seeds == nil || deriver == nil {
		return nil, errors.New("seed manager and deriver are required")
	}

	s := seeds.GetSeed()
	if s == nil {
		return nil, errors.New("seed not initialized")
	}
	defer clear(s)

	if path == "" {
		path = deriver.GetBIP44Path(0)
	}

	privateKey, err := deriver.DerivePrivateKey(ctx, s, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive private key")
	}
	defer clear(privateKey)

	return PrivateKeySignerFromBytes(privateKey)
}
