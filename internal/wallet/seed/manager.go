package seed

import (
	"crypto/sha512"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

const (
	pbkdf2Iterations = 2048
	pbkdf2KeyLength  = 64
	saltPrefix       = "mnemonic"
)

var validWordCounts = map[int]bool{12: true, 15: true, 18: true, 21: true, 24: true}

type manager struct {
	mu   sync.RWMutex
	seed []byte
}

// NewManager returns an empty manager.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewManager() Manager {
	return &manager{}
}

// NewManagerFromMnemonic returns an initialized manager.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewManagerFromMnemonic(mnemonic string, passphrase string) (Manager, error) {
	m := &manager{}
	if err := m.Initialize(mnemonic, passphrase); err != nil {
		return nil, err
	}
	return m, nil
}

// NormalizeMnemonic collapses whitespace and lowercases the words.
func NormalizeMnemonic(mnemonic string) string {
	return strings.ToLower(strings.Join(strings.Fields(mnemonic), " "))
}

// Initialize replaces any previous seed. Only the word count is checked,
// the checksum is left to the tool that generated the mnemonic.
func (m *manager) Initialize(mnemonic string, passphrase string) error {
	normalized := NormalizeMnemonic(mnemonic)
	if words := len(strings.Fields(normalized)); !validWordCounts[words] {
		return errors.Wrapf(ErrInvalidMnemonic, "unexpected word count %d", words)
	}

	seed := pbkdf2.Key([]byte(normalized), []byte(saltPrefix+passphrase), pbkdf2Iterations, pbkdf2KeyLength, sha512.New)

	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.seed)
	m.seed = seed

	return nil
}

func (m *manager) GetSeed() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.seed == nil {
		return nil
	}

	out := make([]byte, len(m.seed))
	copy(out, m.seed)
	return out
}

func (m *manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.seed != nil
}

func (m *manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.seed)
	m.seed = nil
}
