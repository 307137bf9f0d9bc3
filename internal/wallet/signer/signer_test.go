package signer_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/zksync-wallet/internal/test"
	"github/chapool/zksync-wallet/internal/wallet/address"
	"github/chapool/zksync-wallet/internal/wallet/seed"
	"github/chapool/zksync-wallet/internal/wallet/signer"
	"github/chapool/zksync-wallet/internal/zksync"
)

var receiver = common.HexToAddress("0x2b5ad5c4795c026514f8317c7a215e218dccd6cf")

func legacyTx() *signer.RawTransaction {
	return &signer.RawTransaction{
		ChainID:  big.NewInt(5),
		Nonce:    3,
		To:       &receiver,
		Value:    big.NewInt(1000),
		Gas:      21000,
		GasPrice: big.NewInt(2_000_000_000),
	}
}

func dynamicFeeTx() *signer.RawTransaction {
	return &signer.RawTransaction{
		ChainID:   big.NewInt(5),
		Nonce:     4,
		To:        &receiver,
		Value:     big.NewInt(1000),
		Gas:       21000,
		GasTipCap: big.NewInt(1_000_000_000),
		GasFeeCap: big.NewInt(30_000_000_000),
	}
}

func senderOf(t *testing.T, raw []byte, chainID *big.Int) (common.Address, *types.Transaction) {
	t.Helper()

	tx := new(types.Transaction)
	require.NoError(t, tx.UnmarshalBinary(raw))

	sender, err := types.Sender(types.NewLondonSigner(chainID), tx)
	require.NoError(t, err)

	return sender, tx
}

func TestPrivateKeySigner(t *testing.T) {
	ctx := t.Context()
	key, addr := test.EthKey(t)

	s, err := signer.PrivateKeySignerFromHex("0x" + test.EthPrivateKeyHex)
	require.NoError(t, err)
	assert.Equal(t, signer.KindLocal, s.Kind())

	got, err := s.Address(ctx)
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	msg := []byte("Transfer 1.0 ETH")
	sig, err := s.SignMessage(ctx, msg)
	require.NoError(t, err)
	assert.Equal(t, test.SignEthMessage(t, key, msg), sig)
	assert.True(t, sig.IsSignedBy(msg, addr))
	assert.GreaterOrEqual(t, sig[zksync.EthSignatureLength-1], byte(27))

	raw, err := s.SignTransaction(ctx, legacyTx())
	require.NoError(t, err)
	sender, tx := senderOf(t, raw, big.NewInt(5))
	assert.Equal(t, addr, sender)
	assert.Equal(t, uint8(types.LegacyTxType), tx.Type())
	assert.True(t, tx.Protected())

	raw, err = s.SignTransaction(ctx, dynamicFeeTx())
	require.NoError(t, err)
	sender, tx = senderOf(t, raw, big.NewInt(5))
	assert.Equal(t, addr, sender)
	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	assert.Equal(t, uint64(4), tx.Nonce())
}

func TestPrivateKeySignerInvalidInput(t *testing.T) {
	_, err := signer.PrivateKeySignerFromHex("not-a-key")
	require.Error(t, err)

	_, err = signer.PrivateKeySignerFromBytes([]byte{1, 2, 3})
	require.Error(t, err)

	key, _ := test.EthKey(t)
	s := signer.NewPrivateKeySigner(key)

	tx := legacyTx()
	tx.ChainID = nil
	_, err = s.SignTransaction(t.Context(), tx)
	require.Error(t, err)

	tx = legacyTx()
	tx.GasPrice = nil
	_, err = s.SignTransaction(t.Context(), tx)
	require.Error(t, err)
}

func TestJSONRPCSigner(t *testing.T) {
	ctx := t.Context()
	key, addr := test.EthKey(t)
	host := test.NewHostSigner(t, key)

	s, err := signer.NewJSONRPCSigner(ctx, host.URL())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	assert.Equal(t, signer.KindJSONRPC, s.Kind())

	got, err := s.Address(ctx)
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	msg := []byte("Access zkSync account.\n\nOnly sign this message for a trusted client!")
	sig, err := s.SignMessage(ctx, msg)
	require.NoError(t, err)
	assert.True(t, sig.IsSignedBy(msg, addr))
	assert.Equal(t, msg, host.LastMessage())

	// the address is asked for once
	assert.Equal(t, 1, host.Calls("eth_accounts"))

	raw, err := s.SignTransaction(ctx, dynamicFeeTx())
	require.NoError(t, err)
	sender, _ := senderOf(t, raw, big.NewInt(5))
	assert.Equal(t, addr, sender)

	host.ReturnBareTxHex(true)
	raw, err = s.SignTransaction(ctx, legacyTx())
	require.NoError(t, err)
	sender, _ = senderOf(t, raw, big.NewInt(5))
	assert.Equal(t, addr, sender)
}

func TestJSONRPCSignerAddressLookupDoesNotBlock(t *testing.T) {
	ctx := t.Context()
	key, addr := test.EthKey(t)
	host := test.NewHostSigner(t, key)

	s, err := signer.NewJSONRPCSigner(ctx, host.URL())
	require.NoError(t, err)
	t.Cleanup(s.Close)

	release := host.HoldAccounts()
	t.Cleanup(release)

	first := make(chan error, 1)
	go func() {
		_, err := s.Address(ctx)
		first <- err
	}()
	require.Eventually(t, func() bool { return host.Calls("eth_accounts") == 1 }, 2*time.Second, 5*time.Millisecond)

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	second := make(chan error, 1)
	go func() {
		_, err := s.Address(short)
		second <- err
	}()

	select {
	case err := <-second:
		require.ErrorIs(t, err, signer.ErrRemoteSignerUnavailable)
	case <-time.After(5 * time.Second):
		t.Fatal("Address waited for another caller's lookup")
	}

	release()
	require.NoError(t, <-first)

	calls := host.Calls("eth_accounts")
	got, err := s.Address(ctx)
	require.NoError(t, err)
	assert.Equal(t, addr, got)
	assert.Equal(t, calls, host.Calls("eth_accounts"))
}

func TestJSONRPCSignerPinnedAddress(t *testing.T) {
	key, addr := test.EthKey(t)
	host := test.NewHostSigner(t, key)

	s, err := signer.NewService(t.Context(), signer.Config{Kind: signer.KindJSONRPC, URL: host.URL(), Address: addr.Hex()}, nil, nil)
	require.NoError(t, err)

	_, err = s.SignMessage(t.Context(), []byte("hello"))
	require.NoError(t, err)
	assert.Zero(t, host.Calls("eth_accounts"))
}

func TestJSONRPCSignerRejected(t *testing.T) {
	key, _ := test.EthKey(t)
	host := test.NewHostSigner(t, key)
	host.Reject(true)

	s, err := signer.NewJSONRPCSigner(t.Context(), host.URL())
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = s.SignMessage(t.Context(), []byte("hello"))
	require.ErrorIs(t, err, signer.ErrRemoteSignerRejected)
	assert.NotErrorIs(t, err, signer.ErrRemoteSignerUnavailable)

	_, err = s.SignTransaction(t.Context(), legacyTx())
	require.ErrorIs(t, err, signer.ErrRemoteSignerRejected)
}

func TestJSONRPCSignerForeignKey(t *testing.T) {
	key, _ := test.EthKey(t)
	other, _ := test.NewEthKey(t)

	host := test.NewHostSigner(t, key)
	host.SignWith(other)

	s, err := signer.NewJSONRPCSigner(t.Context(), host.URL())
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = s.SignMessage(t.Context(), []byte("hello"))
	require.ErrorIs(t, err, signer.ErrRemoteSignerRejected)

	_, err = s.SignTransaction(t.Context(), legacyTx())
	require.ErrorIs(t, err, signer.ErrRemoteSignerRejected)
}

func TestJSONRPCSignerNoAccounts(t *testing.T) {
	key, _ := test.EthKey(t)
	host := test.NewHostSigner(t, key)
	host.HideAccounts()

	s, err := signer.NewJSONRPCSigner(t.Context(), host.URL())
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = s.Address(t.Context())
	require.ErrorIs(t, err, signer.ErrDefineAddress)
}

func TestJSONRPCSignerUnavailable(t *testing.T) {
	key, addr := test.EthKey(t)
	host := test.NewHostSigner(t, key)
	url := host.URL()
	host.Close()

	s, err := signer.NewJSONRPCSigner(t.Context(), url, signer.WithAddress(addr))
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = s.SignMessage(t.Context(), []byte("hello"))
	require.ErrorIs(t, err, signer.ErrRemoteSignerUnavailable)
	assert.NotErrorIs(t, err, signer.ErrRemoteSignerRejected)

	_, err = signer.NewJSONRPCSigner(t.Context(), "")
	require.Error(t, err)
}

type externalBackend struct {
	signer  *signer.PrivateKeySigner
	addrErr error
	signErr error
}

func (b *externalBackend) Address(ctx context.Context) (common.Address, error) {
	if b.addrErr != nil {
		return common.Address{}, b.addrErr
	}
	return b.signer.Address(ctx)
}

func (b *externalBackend) SignMessage(ctx context.Context, msg []byte) ([]byte, error) {
	if b.signErr != nil {
		return nil, b.signErr
	}
	sig, err := b.signer.SignMessage(ctx, msg)
	if err != nil {
		return nil, err
	}
	return sig[:], nil
}

func (b *externalBackend) SignTransaction(ctx context.Context, tx *signer.RawTransaction) ([]byte, error) {
	if b.signErr != nil {
		return nil, b.signErr
	}
	return b.signer.SignTransaction(ctx, tx)
}

func TestExternalSigner(t *testing.T) {
	ctx := t.Context()
	key, addr := test.EthKey(t)
	backend := &externalBackend{signer: signer.NewPrivateKeySigner(key)}

	s := signer.NewExternalSigner(ctx, backend)
	assert.Equal(t, signer.KindExternal, s.Kind())

	got, err := s.Address(ctx)
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	sig, err := s.SignMessage(ctx, []byte("hello"))
	require.NoError(t, err)
	assert.True(t, sig.IsSignedBy([]byte("hello"), addr))

	raw, err := s.SignTransaction(ctx, legacyTx())
	require.NoError(t, err)
	sender, _ := senderOf(t, raw, big.NewInt(5))
	assert.Equal(t, addr, sender)
}

func TestExternalSignerErrors(t *testing.T) {
	ctx := t.Context()
	key, _ := test.EthKey(t)
	other, _ := test.NewEthKey(t)

	locked := &externalBackend{signer: signer.NewPrivateKeySigner(key), addrErr: errors.New("device locked")}
	noAddress := signer.NewExternalSigner(ctx, locked)
	_, err := noAddress.SignMessage(ctx, []byte("hello"))
	require.ErrorIs(t, err, signer.ErrDefineAddress)
	require.ErrorIs(t, err, signer.ErrRemoteSignerRejected)
	assert.ErrorContains(t, err, "device locked")

	_, err = noAddress.SignTransaction(ctx, legacyTx())
	require.ErrorIs(t, err, signer.ErrDefineAddress)
	require.ErrorIs(t, err, signer.ErrRemoteSignerRejected)

	locked.addrErr = errors.Wrap(signer.ErrRemoteSignerUnavailable, "usb disconnected")
	_, err = noAddress.Address(ctx)
	require.ErrorIs(t, err, signer.ErrDefineAddress)
	require.ErrorIs(t, err, signer.ErrRemoteSignerUnavailable)
	assert.NotErrorIs(t, err, signer.ErrRemoteSignerRejected)

	// unlocked later, the address is resolved on the next call
	locked.addrErr = nil
	_, err = noAddress.SignMessage(ctx, []byte("hello"))
	require.NoError(t, err)

	refusing := signer.NewExternalSigner(ctx, &externalBackend{signer: signer.NewPrivateKeySigner(key), signErr: errors.New("user declined")})
	_, err = refusing.SignMessage(ctx, []byte("hello"))
	require.ErrorIs(t, err, signer.ErrRemoteSignerRejected)

	offline := signer.NewExternalSigner(ctx, &externalBackend{
		signer:  signer.NewPrivateKeySigner(key),
		signErr: errors.Wrap(signer.ErrRemoteSignerUnavailable, "usb disconnected"),
	})
	_, err = offline.SignTransaction(ctx, legacyTx())
	require.ErrorIs(t, err, signer.ErrRemoteSignerUnavailable)

	timedOut := signer.NewExternalSigner(ctx, &externalBackend{signer: signer.NewPrivateKeySigner(key), signErr: context.DeadlineExceeded})
	_, err = timedOut.SignMessage(ctx, []byte("hello"))
	require.ErrorIs(t, err, signer.ErrRemoteSignerUnavailable)

	// backend answering with another key than it advertised
	lying := &externalBackend{signer: signer.NewPrivateKeySigner(key)}
	s := signer.NewExternalSigner(ctx, lying)
	lying.signer = signer.NewPrivateKeySigner(other)
	_, err = s.SignMessage(ctx, []byte("hello"))
	require.ErrorIs(t, err, signer.ErrRemoteSignerRejected)
}

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestNewServiceFromSeed(t *testing.T) {
	seeds, err := seed.NewManagerFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	s, err := signer.NewService(t.Context(), signer.Config{Kind: signer.KindLocal}, seeds, address.NewService())
	require.NoError(t, err)

	addr, err := s.Address(t.Context())
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x9858EfFD232B4033E47d90003D41EC34EcaEda94"), addr)

	second, err := signer.FromSeed(t.Context(), seeds, address.NewService(), "m/44'/60'/0'/0/1")
	require.NoError(t, err)
	secondAddr, err := second.Address(t.Context())
	require.NoError(t, err)
	assert.NotEqual(t, addr, secondAddr)
}

func TestNewServiceInvalidConfig(t *testing.T) {
	_, err := signer.NewService(t.Context(), signer.Config{Kind: "hsm"}, nil, nil)
	require.Error(t, err)

	_, err = signer.NewService(t.Context(), signer.Config{Kind: signer.KindExternal}, nil, nil)
	require.Error(t, err)

	_, err = signer.NewService(t.Context(), signer.Config{Kind: signer.KindLocal}, nil, nil)
	require.Error(t, err)

	_, err = signer.NewService(t.Context(), signer.Config{Kind: signer.KindJSONRPC, URL: "http://localhost:1", Address: "nope"}, nil, nil)
	require.Error(t, err)

	_, err = signer.FromSeed(t.Context(), seed.NewManager(), address.NewService(), "")
	require.Error(t, err)
}
