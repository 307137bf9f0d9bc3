package seed

// Manager holds the BIP39 seed the host-chain keys are derived from.
type Manager interface {
	// Initialize derives the seed from a mnemonic and an optional
	// passphrase.
	Initialize(mnemonic string, passphrase string) error

	// GetSeed returns a copy of the seed, or nil before initialization.
	GetSeed() []byte

	IsInitialized() bool

	// Clear wipes the seed from memory.
	Clear()
}
