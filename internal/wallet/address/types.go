package address

import "context"

// Service derives host-chain keys from a BIP32 seed.
type Service interface {
	// DeriveAddress returns the checksummed address at path.
	DeriveAddress(ctx context.Context, seed []byte, path string) (string, error)

	// DerivePrivateKey returns the raw key at path. The caller clears it
	// after use.
	DerivePrivateKey(ctx context.Context, seed []byte, path string) ([]byte, error)

	// GetBIP44Path returns m/44'/60'/0'/0/{index}.
	GetBIP44Path(index int) string
}
