package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"
)

const (
	saltLength = 32
	ivLength   = aes.BlockSize
	aesKeyLen  = 16
)

// Encrypt seals a raw secp256k1 key under password.
//
//nolint:varnamelen // iv is a common abbreviation for initialization vector
func Encrypt(privateKey []byte, password string, params ScryptParams) (*KeystoreJSON, error) {
	key, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("failed to generate IV: %w", err)
	}

	derivedKey, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, params.DKLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	ciphertext, err := aes128CTR(derivedKey[:aesKeyLen], iv, privateKey)
	if err != nil {
		return nil, err
	}

	address := crypto.PubkeyToAddress(key.PublicKey)

	return &KeystoreJSON{
		Address: hex.EncodeToString(address.Bytes()),
		ID:      uuid.New().String(),
		Version: Version,
		Crypto: CryptoJSON{
			Cipher:       cipherName,
			Ciphertext:   hex.EncodeToString(ciphertext),
			CipherParams: CipherParamsJSON{IV: hex.EncodeToString(iv)},
			KDF:          kdfName,
			KDFParams: KDFParamsJSON{
				DKLen: params.DKLen,
				Salt:  hex.EncodeToString(salt),
				N:     params.N,
				R:     params.R,
				P:     params.P,
			},
			MAC: hex.EncodeToString(mac(derivedKey, ciphertext)),
		},
	}, nil
}

// aes128CTR is symmetric: it both encrypts and decrypts.
//
//nolint:varnamelen // iv is a common abbreviation for initialization vector
func aes128CTR(key []byte, iv []byte, in []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	out := make([]byte, len(in))
	cipher.NewCTR(block, iv).XORKeyStream(out, in)
	return out, nil
}

// mac is keccak256(derivedKey[16:32] || ciphertext).
func mac(derivedKey []byte, ciphertext []byte) []byte {
	return crypto.Keccak256(derivedKey[aesKeyLen:2*aesKeyLen], ciphertext)
}
