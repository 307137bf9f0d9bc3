package keystore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/zksync-wallet/internal/util"
)

var (
	ErrKeystoreExists   = errors.New("keystore already exists")
	ErrKeystoreNotFound = errors.New("keystore not found")
)

const filePerm = 0o600

// Service keeps a single encrypted host-chain key in a file.
type Service interface {
	// Create encrypts privateKey and writes it. An existing file is never
	// overwritten.
	Create(ctx context.Context, privateKey []byte, password string) (*KeystoreJSON, error)

	Load(ctx context.Context) (*KeystoreJSON, error)

	// Unlock loads and decrypts the key.
	Unlock(ctx context.Context, password string) ([]byte, error)

	// Address returns the stored address without decrypting.
	Address(ctx context.Context) (common.Address, error)

	Exists(ctx context.Context) (bool, error)

	Path() string
}

type service struct {
	path   string
	params ScryptParams
}

// NewService manages the keystore at path.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(path string, params ScryptParams) Service {
	return &service{path: path, params: params}
}

func (s *service) Path() string {
	return s.path
}

func (s *service) Create(ctx context.Context, privateKey []byte, password string) (*KeystoreJSON, error) {
	log := util.LogFromContext(ctx)

	ks, err := Encrypt(privateKey, password, s.params)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encrypt key")
		return nil, errors.Wrap(err, "failed to encrypt key")
	}

	data, err := json.Marshal(ks)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal keystore JSON")
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, errors.Wrap(err, "failed to create keystore directory")
		}
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, ErrKeystoreExists
		}
		return nil, errors.Wrap(err, "failed to create keystore file")
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return nil, errors.Wrap(err, "failed to write keystore file")
	}

	log.Info().Str("path", s.path).Str("address", "0x"+ks.Address).Msg("Created keystore")

	return ks, nil
}

func (s *service) Load(_ context.Context) (*KeystoreJSON, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrKeystoreNotFound
		}
		return nil, errors.Wrap(err, "failed to read keystore file")
	}

	var ks KeystoreJSON
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal keystore JSON")
	}

	return &ks, nil
}

func (s *service) Unlock(ctx context.Context, password string) ([]byte, error) {
	ks, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	privateKey, err := Decrypt(ks, password)
	if err != nil {
		util.LogFromContext(ctx).Debug().Err(err).Str("path", s.path).Msg("Failed to unlock keystore")
		return nil, errors.Wrap(err, "failed to decrypt keystore")
	}

	return privateKey, nil
}

func (s *service) Address(ctx context.Context) (common.Address, error) {
	ks, err := s.Load(ctx)
	if err != nil {
		return common.Address{}, err
	}

	if !common.IsHexAddress(ks.Address) {
		return common.Address{}, errors.Errorf("keystore carries invalid address %q", ks.Address)
	}

	return common.HexToAddress(ks.Address), nil
}

func (s *service) Exists(_ context.Context) (bool, error) {
	_, err := os.Stat(s.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, errors.Wrap(err, "failed to stat keystore file")
}
