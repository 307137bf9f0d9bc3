package account

import (
	"crypto/sha256"

	"github.com/pkg/errors"
	"github/chapool/zksync-wallet/internal/zksync"
)

const (
	// MinSeedLength is the minimum entropy a seed must carry.
	MinSeedLength = 32

	// maxDerivationRounds bounds the re-hash loop. Each round succeeds with
	// probability close to 1/32, so exhausting it is astronomically
	// unlikely but not impossible.
	maxDerivationRounds = 1 << 16
)

var (
	ErrSeedTooShort      = errors.New("seed is too short")
	ErrDerivationFailure = errors.New("no valid native scalar derived from seed")
)

// PrivateKeyFromSeed derives the raw native private key from a seed.
//
// The seed is hashed once, then the digest is hashed repeatedly, each round
// hashing the previous round's output, until it is a valid scalar. Hashing
// the original seed again instead would change which key a seed maps to.
func PrivateKeyFromSeed(seed []byte) ([]byte, error) {
	if len(seed) < MinSeedLength {
		return nil, errors.Wrapf(ErrSeedTooShort, "got %d bytes, need at least %d", len(seed), MinSeedLength)
	}

	effective := sha256.Sum256(seed)
	for range maxDerivationRounds {
		candidate := sha256.Sum256(effective[:])
		if zksync.IsValidNativeScalar(candidate[:]) {
			return candidate[:], nil
		}
		effective = candidate
	}

	return nil, ErrDerivationFailure
}
