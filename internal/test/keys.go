package test

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github/chapool/zksync-wallet/internal/zksync"
)

// Well-known development key, never use it outside tests.
const EthPrivateKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

// EthKey returns the development host-chain key and its address.
func EthKey(t *testing.T) (*ecdsa.PrivateKey, common.Address) {
	t.Helper()

	key, err := crypto.HexToECDSA(EthPrivateKeyHex)
	if err != nil {
		t.Fatalf("failed to parse test key: %v", err)
	}

	return key, crypto.PubkeyToAddress(key.PublicKey)
}

// NewEthKey returns a fresh random host-chain key and its address.
func NewEthKey(t *testing.T) (*ecdsa.PrivateKey, common.Address) {
	t.Helper()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	return key, crypto.PubkeyToAddress(key.PublicKey)
}

// NativeSeed returns a 32 byte seed filled with b.
func NativeSeed(b byte) []byte {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = b
	}
	return seed
}

// SignEthMessage produces a personal-message signature over msg.
func SignEthMessage(t *testing.T, key *ecdsa.PrivateKey, msg []byte) zksync.PackedEthSignature {
	t.Helper()

	raw, err := crypto.Sign(accounts.TextHash(msg), key)
	if err != nil {
		t.Fatalf("failed to sign message: %v", err)
	}

	sig, err := zksync.NewPackedEthSignature(raw)
	if err != nil {
		t.Fatalf("failed to pack signature: %v", err)
	}

	return sig
}
