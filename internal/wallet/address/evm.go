package address

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip32"
)

type service struct{}

// NewService returns the BIP44 deriver for EVM keys.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService() Service {
	return service{}
}

func (service) GetBIP44Path(index int) string {
	return fmt.Sprintf("m/44'/60'/0'/0/%d", index)
}

func (s service) DeriveAddress(ctx context.Context, seed []byte, path string) (string, error) {
	privateKey, err := s.DerivePrivateKey(ctx, seed, path)
	if err != nil {
		return "", err
	}
	defer clear(privateKey)

	key, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to convert to ECDSA private key")
	}

	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}

func (service) DerivePrivateKey(_ context.Context, seed []byte, path string) ([]byte, error) {
	indices, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create master key")
	}

	for _, index := range indices {
		key, err = key.NewChildKey(index)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive child key at index %d", index)
		}
	}

	out := make([]byte, len(key.Key))
	copy(out, key.Key)
	return out, nil
}

// ParsePath turns "m/44'/60'/0'/0/0" into child indices with the hardened
// bit set for primed segments.
func ParsePath(path string) ([]uint32, error) {
	segments := strings.Split(strings.TrimSpace(path), "/")
	if len(segments) == 0 || segments[0] != "m" {
		return nil, errors.Errorf("invalid derivation path %q", path)
	}

	indices := make([]uint32, 0, len(segments)-1)
	for _, segment := range segments[1:] {
		hardened := strings.HasSuffix(segment, "'")
		segment = strings.TrimSuffix(segment, "'")

		index, err := strconv.ParseUint(segment, 10, 31)
		if err != nil {
			return nil, errors.Errorf("invalid path segment %q in %q", segment, path)
		}

		child := uint32(index)
		if hardened {
			child += bip32.FirstHardenedChild
		}
		indices = append(indices, child)
	}

	return indices, nil
}
