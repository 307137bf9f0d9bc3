package keystore

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

var ErrWrongPassword = errors.New("could not decrypt key with given password")

// Decrypt opens a v3 keystore and returns the raw private key. The key is
// checked against the stored address when one is present.
//
//nolint:varnamelen // iv is a common abbreviation for initialization vector
func Decrypt(ks *KeystoreJSON, password string) ([]byte, error) {
	if ks.Version != Version {
		return nil, errors.Errorf("unsupported keystore version %d", ks.Version)
	}
	if ks.Crypto.Cipher != cipherName || ks.Crypto.KDF != kdfName {
		return nil, errors.Errorf("unsupported keystore cipher %s with kdf %s", ks.Crypto.Cipher, ks.Crypto.KDF)
	}

	salt, err := hex.DecodeString(ks.Crypto.KDFParams.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	iv, err := hex.DecodeString(ks.Crypto.CipherParams.IV)
	if err != nil {
		return nil, fmt.Errorf("failed to decode IV: %w", err)
	}

	ciphertext, err := hex.DecodeString(ks.Crypto.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	expectedMAC, err := hex.DecodeString(ks.Crypto.MAC)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MAC: %w", err)
	}

	params := ks.Crypto.KDFParams
	if params.DKLen < 2*aesKeyLen {
		return nil, errors.Errorf("derived key length %d too short", params.DKLen)
	}

	derivedKey, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, params.DKLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	if subtle.ConstantTimeCompare(mac(derivedKey, ciphertext), expectedMAC) != 1 {
		return nil, ErrWrongPassword
	}

	privateKey, err := aes128CTR(derivedKey[:aesKeyLen], iv, ciphertext)
	if err != nil {
		return nil, err
	}

	if ks.Address != "" {
		key, err := crypto.ToECDSA(privateKey)
		if err != nil {
			return nil, errors.Wrap(err, "keystore holds an invalid key")
		}
		got := hex.EncodeToString(crypto.PubkeyToAddress(key.PublicKey).Bytes())
		if !strings.EqualFold(got, strings.TrimPrefix(ks.Address, "0x")) {
			return nil, errors.New("keystore address does not match decrypted key")
		}
	}

	return privateKey, nil
}
