package keystore_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	gethkeystore "github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/zksync-wallet/internal/test"
	"github/chapool/zksync-wallet/internal/wallet/keystore"
)

func testKey(t *testing.T) ([]byte, common.Address) {
	t.Helper()

	key, addr := test.EthKey(t)
	return crypto.FromECDSA(key), addr
}

func TestEncryptDecrypt(t *testing.T) {
	privateKey, addr := testKey(t)

	ks, err := keystore.Encrypt(privateKey, "correct horse", keystore.LightScryptParams())
	require.NoError(t, err)

	assert.Equal(t, keystore.Version, ks.Version)
	assert.Equal(t, common.Bytes2Hex(addr.Bytes()), ks.Address)
	assert.Equal(t, "aes-128-ctr", ks.Crypto.Cipher)
	assert.Equal(t, "scrypt", ks.Crypto.KDF)
	assert.NotEmpty(t, ks.ID)

	decrypted, err := keystore.Decrypt(ks, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, privateKey, decrypted)

	_, err = keystore.Decrypt(ks, "battery staple")
	require.ErrorIs(t, err, keystore.ErrWrongPassword)
}

func TestEncryptRandomizes(t *testing.T) {
	privateKey, _ := testKey(t)

	a, err := keystore.Encrypt(privateKey, "pw", keystore.LightScryptParams())
	require.NoError(t, err)
	b, err := keystore.Encrypt(privateKey, "pw", keystore.LightScryptParams())
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.Crypto.KDFParams.Salt, b.Crypto.KDFParams.Salt)
	assert.NotEqual(t, a.Crypto.Ciphertext, b.Crypto.Ciphertext)
}

func TestCompatibleWithGethKeystore(t *testing.T) {
	privateKey, addr := testKey(t)

	ks, err := keystore.Encrypt(privateKey, "pw", keystore.LightScryptParams())
	require.NoError(t, err)

	data, err := json.Marshal(ks)
	require.NoError(t, err)

	key, err := gethkeystore.DecryptKey(data, "pw")
	require.NoError(t, err)
	assert.Equal(t, addr, key.Address)
	assert.Equal(t, privateKey, crypto.FromECDSA(key.PrivateKey))

	// and the other way around
	ecdsaKey, err := crypto.ToECDSA(privateKey)
	require.NoError(t, err)
	gethJSON, err := gethkeystore.EncryptKey(&gethkeystore.Key{
		Address:    addr,
		PrivateKey: ecdsaKey,
	}, "pw", gethkeystore.LightScryptN, gethkeystore.LightScryptP)
	require.NoError(t, err)

	var parsed keystore.KeystoreJSON
	require.NoError(t, json.Unmarshal(gethJSON, &parsed))
	decrypted, err := keystore.Decrypt(&parsed, "pw")
	require.NoError(t, err)
	assert.Equal(t, privateKey, decrypted)
}

func TestDecryptRejectsUnsupported(t *testing.T) {
	privateKey, _ := testKey(t)

	ks, err := keystore.Encrypt(privateKey, "pw", keystore.LightScryptParams())
	require.NoError(t, err)

	wrongVersion := *ks
	wrongVersion.Version = 1
	_, err = keystore.Decrypt(&wrongVersion, "pw")
	require.Error(t, err)

	wrongKDF := *ks
	wrongKDF.Crypto.KDF = "pbkdf2"
	_, err = keystore.Decrypt(&wrongKDF, "pw")
	require.Error(t, err)

	_, err = keystore.Encrypt([]byte{1, 2, 3}, "pw", keystore.LightScryptParams())
	require.Error(t, err)
}

func TestService(t *testing.T) {
	ctx := t.Context()
	privateKey, addr := testKey(t)

	path := filepath.Join(t.TempDir(), "keys", "signer.json")
	ks := keystore.NewService(path, keystore.LightScryptParams())
	assert.Equal(t, path, ks.Path())

	exists, err := ks.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = ks.Load(ctx)
	require.ErrorIs(t, err, keystore.ErrKeystoreNotFound)
	_, err = ks.Unlock(ctx, "pw")
	require.ErrorIs(t, err, keystore.ErrKeystoreNotFound)

	_, err = ks.Create(ctx, privateKey, "pw")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	exists, err = ks.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	stored, err := ks.Address(ctx)
	require.NoError(t, err)
	assert.Equal(t, addr, stored)

	unlocked, err := ks.Unlock(ctx, "pw")
	require.NoError(t, err)
	assert.Equal(t, privateKey, unlocked)

	_, err = ks.Unlock(ctx, "wrong")
	require.ErrorIs(t, err, keystore.ErrWrongPassword)

	_, err = ks.Create(ctx, privateKey, "other")
	require.ErrorIs(t, err, keystore.ErrKeystoreExists)

	// the original file is untouched
	unlocked, err = ks.Unlock(ctx, "pw")
	require.NoError(t, err)
	assert.Equal(t, privateKey, unlocked)
}
