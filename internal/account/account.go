package account

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/zksync-wallet/internal/zksync"
)

var ErrMissingAccountID = errors.New("account id is not set")

// Account holds the native key of a rollup account together with its cached
// account id and nonce. It is safe for concurrent use: reading the nonce,
// signing and incrementing happen under one lock.
type Account struct {
	privateKey *zksync.NativePrivateKey
	pubKeyHash zksync.PubKeyHash
	address    common.Address

	mu        sync.Mutex
	accountID *zksync.AccountID
	nonce     zksync.Nonce
}

// New creates an account from an existing native key.
func New(privateKey *zksync.NativePrivateKey, nonce zksync.Nonce, address common.Address) *Account {
	return &Account{
		privateKey: privateKey,
		pubKeyHash: privateKey.PubKeyHash(),
		address:    address,
		nonce:      nonce,
	}
}

// FromSeed deterministically derives the native key from seed.
func FromSeed(seed []byte, address common.Address) (*Account, error) {
	raw, err := PrivateKeyFromSeed(seed)
	if err != nil {
		return nil, err
	}

	privateKey, err := zksync.NewNativePrivateKey(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read native private key")
	}

	return New(privateKey, 0, address), nil
}

func (a *Account) Address() common.Address {
	return a.address
}

func (a *Account) PubKeyHash() zksync.PubKeyHash {
	return a.pubKeyHash
}

// PrivateKey exposes the native key material.
func (a *Account) PrivateKey() *zksync.NativePrivateKey {
	return a.privateKey
}

func (a *Account) Nonce() zksync.Nonce {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.nonce
}

func (a *Account) SetNonce(nonce zksync.Nonce) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nonce = nonce
}

// RaiseNonce sets the nonce only if it moves forward and reports the value in
// effect afterwards.
func (a *Account) RaiseNonce(nonce zksync.Nonce) zksync.Nonce {
	a.mu.Lock()
	defer a.mu.Unlock()

	if nonce > a.nonce {
		a.nonce = nonce
	}
	return a.nonce
}

// AccountID returns the cached account id, if known.
func (a *Account) AccountID() (zksync.AccountID, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accountID == nil {
		return 0, false
	}
	return *a.accountID, true
}

func (a *Account) SetAccountID(id zksync.AccountID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.accountID = &id
}

// ClearAccountID forgets the cached account id.
func (a *Account) ClearAccountID() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.accountID = nil
}

// TransferRequest carries the caller-chosen fields of a transfer.
type TransferRequest struct {
	TokenID     zksync.TokenID
	TokenSymbol string
	// Decimals must match the token's registered precision, otherwise the
	// confirmation message will not match what the network renders.
	Decimals uint8
	Amount   *big.Int
	Fee      *big.Int
	To       common.Address
	// Nonce overrides the cached nonce when set.
	Nonce *zksync.Nonce
	// IncrementNonce advances the cached nonce right after signing.
	IncrementNonce bool
}

// SignTransfer signs a transfer and renders its confirmation message.
//
// With IncrementNonce the cached nonce is advanced before the lock is
// released, so concurrent callers never sign the same nonce. The increment
// is not rolled back if the transfer is never submitted; callers that
// abandon a signed transfer must resynchronize the nonce from the network.
func (a *Account) SignTransfer(req TransferRequest) (*zksync.Transfer, string, error) {
	if req.Amount == nil || req.Fee == nil {
		return nil, "", errors.New("amount and fee are required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accountID == nil {
		return nil, "", ErrMissingAccountID
	}

	nonce := a.nonce
	if req.Nonce != nil {
		nonce = *req.Nonce
	}

	tx, err := zksync.NewSignedTransfer(
		a.privateKey,
		*a.accountID,
		a.address,
		req.To,
		req.TokenID,
		req.Amount,
		req.Fee,
		nonce,
	)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to sign transfer")
	}

	if req.IncrementNonce {
		a.nonce++
	}

	log.Debug().
		Str("address", zksync.FormatAddress(a.address)).
		Uint32("nonce", uint32(nonce)).
		Str("tx_hash", tx.Hash().String()).
		Msg("Transfer signed")

	return tx, tx.EthSignMessage(req.TokenSymbol, req.Decimals), nil
}

// String omits key material.
func (a *Account) String() string {
	return fmt.Sprintf("Account{address: %s, pubKeyHash: %s}", zksync.FormatAddress(a.address), a.pubKeyHash)
}
