package address_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/zksync-wallet/internal/wallet/address"
	"github/chapool/zksync-wallet/internal/wallet/seed"
)

func TestParsePath(t *testing.T) {
	indices, err := address.ParsePath("m/44'/60'/0'/0/7")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x8000002c, 0x8000003c, 0x80000000, 0, 7}, indices)

	indices, err = address.ParsePath("m")
	require.NoError(t, err)
	assert.Empty(t, indices)

	for _, path := range []string{"", "44'/60'", "m/x", "m/-1", "m/2147483648", "m//0"} {
		_, err := address.ParsePath(path)
		assert.Error(t, err, path)
	}
}

func TestDeriveAddress(t *testing.T) {
	m, err := seed.NewManagerFromMnemonic("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about", "")
	require.NoError(t, err)

	svc := address.NewService()
	assert.Equal(t, "m/44'/60'/0'/0/3", svc.GetBIP44Path(3))

	addr, err := svc.DeriveAddress(t.Context(), m.GetSeed(), svc.GetBIP44Path(0))
	require.NoError(t, err)
	assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", addr)

	key, err := svc.DerivePrivateKey(t.Context(), m.GetSeed(), svc.GetBIP44Path(0))
	require.NoError(t, err)
	assert.Equal(t, "1ab42cc412b618bdea3a599e3c9bae199ebf030895b039e9db1e30dafb12b727", hex.EncodeToString(key))

	_, err = svc.DeriveAddress(t.Context(), m.GetSeed(), "bad")
	require.Error(t, err)
}
