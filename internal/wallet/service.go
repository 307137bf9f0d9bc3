package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github/chapool/zksync-wallet/internal/account"
	"github/chapool/zksync-wallet/internal/provider"
	"github/chapool/zksync-wallet/internal/util"
	"github/chapool/zksync-wallet/internal/wallet/signer"
	"github/chapool/zksync-wallet/internal/zksync"
)

const (
	accessMessage        = "Access zkSync account.\n\nOnly sign this message for a trusted client!"
	chainIDMessageFormat = "\nChain ID: %d."
)

// NativeSeedMessage is the message a host-chain signer signs to derive the
// native key of its account on chain chainID.
func NativeSeedMessage(chainID uint64) string {
	if chainID == 1 {
		return accessMessage
	}
	return accessMessage + fmt.Sprintf(chainIDMessageFormat, chainID)
}

// Wallet coordinates one account's transfers: it syncs account state,
// resolves tokens and fees, signs natively and with the host-chain signer,
// submits, and polls for finality. It performs no retries.
type Wallet struct {
	address         common.Address
	provider        Provider
	account         *account.Account
	ethSigner       signer.Signer
	trustLocalNonce bool

	synced atomic.Bool

	tokensMu sync.RWMutex
	tokens   map[string]zksync.Token
}

type Option func(*Wallet)

// WithEthSigner sets the host-chain signer used by SignTransfer and
// Transfer.
func WithEthSigner(s signer.Signer) Option {
	return func(w *Wallet) {
		w.ethSigner = s
	}
}

// WithTrustLocalNonce makes every sync after the first one only raise the
// cached nonce, so back-to-back and concurrent preparations keep their
// locally reserved nonces. A caller that abandons a prepared transfer must
// call Resync before the next preparation.
func WithTrustLocalNonce(trust bool) Option {
	return func(w *Wallet) {
		w.trustLocalNonce = trust
	}
}

func newWallet(prov Provider, address common.Address, acc *account.Account, opts ...Option) *Wallet {
	w := &Wallet{
		address:  address,
		provider: prov,
		account:  acc,
		tokens:   make(map[string]zksync.Token),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// New wraps an existing signing context.
func New(prov Provider, acc *account.Account, opts ...Option) *Wallet {
	return newWallet(prov, acc.Address(), acc, opts...)
}

// FromSeed derives the native key from seed for the account at address.
func FromSeed(prov Provider, seed []byte, address common.Address, opts ...Option) (*Wallet, error) {
	acc, err := account.FromSeed(seed, address)
	if err != nil {
		return nil, err
	}

	return New(prov, acc, opts...), nil
}

// FromEthSigner derives the native key from the host-chain signature of
// NativeSeedMessage, so the same host key always yields the same native
// key. The signer is also used for confirmation messages.
func FromEthSigner(ctx context.Context, prov Provider, s signer.Signer, chainID uint64, opts ...Option) (*Wallet, error) {
	address, err := s.Address(ctx)
	if err != nil {
		return nil, stepError(StepHostSign, err)
	}

	sig, err := s.SignMessage(ctx, []byte(NativeSeedMessage(chainID)))
	if err != nil {
		return nil, stepError(StepHostSign, err)
	}

	opts = append([]Option{WithEthSigner(s)}, opts...)
	return FromSeed(prov, sig[:], address, opts...)
}

// FromPublicAddress returns a read-only wallet. It supports balance,
// account and finality queries and refuses to sign.
func FromPublicAddress(prov Provider, address common.Address, opts ...Option) *Wallet {
	return newWallet(prov, address, nil, opts...)
}

func (w *Wallet) Address() common.Address {
	return w.address
}

func (w *Wallet) IsReadOnly() bool {
	return w.account == nil
}

// Account returns the signing context, nil for read-only wallets.
func (w *Wallet) Account() *account.Account {
	return w.account
}

func (w *Wallet) EthSigner() signer.Signer {
	return w.ethSigner
}

// PubKeyHash returns the hash of the native public key, zero for
// read-only wallets.
func (w *Wallet) PubKeyHash() zksync.PubKeyHash {
	if w.account == nil {
		return zksync.PubKeyHash{}
	}
	return w.account.PubKeyHash()
}

func (w *Wallet) log(ctx context.Context) *zerolog.Logger {
	l := util.LogFromContext(ctx).With().
		Str("component", "wallet").
		Str("address", zksync.FormatAddress(w.address)).
		Logger()
	return &l
}

// AccountInfo returns the node's view of the account without touching the
// cached signing state.
func (w *Wallet) AccountInfo(ctx context.Context) (*provider.AccountInfo, error) {
	info, err := w.provider.AccountInfo(ctx, w.address)
	if err != nil {
		return nil, stepError(StepSync, err)
	}
	return info, nil
}

// GetAccountID asks the node for the account id.
func (w *Wallet) GetAccountID(ctx context.Context) (zksync.AccountID, error) {
	info, err := w.AccountInfo(ctx)
	if err != nil {
		return 0, err
	}
	if info.ID == nil {
		return 0, stepError(StepSync, ErrAccountNotRegistered)
	}
	return *info.ID, nil
}

// GetNonce returns the committed nonce the node expects next.
func (w *Wallet) GetNonce(ctx context.Context) (zksync.Nonce, error) {
	info, err := w.AccountInfo(ctx)
	if err != nil {
		return 0, err
	}
	return info.Committed.Nonce, nil
}

// Sync refreshes the account id and nonce of the signing context from the
// node. The cached nonce is overwritten with the committed one unless
// trust-local-nonce is enabled and a sync already happened, in which case
// it is only raised.
func (w *Wallet) Sync(ctx context.Context) error {
	if w.account == nil {
		return stepError(StepSync, ErrReadOnly)
	}

	info, err := w.AccountInfo(ctx)
	if err != nil {
		return err
	}

	if info.ID == nil {
		w.account.ClearAccountID()
		return stepError(StepSync, ErrAccountNotRegistered)
	}

	w.account.SetAccountID(*info.ID)

	remote := info.Committed.Nonce
	nonce := remote
	if w.trustLocalNonce && w.synced.Load() {
		nonce = w.account.RaiseNonce(remote)
	} else {
		w.account.SetNonce(remote)
	}
	w.synced.Store(true)

	w.log(ctx).Debug().
		Uint32("account_id", uint32(*info.ID)).
		Uint32("remote_nonce", uint32(remote)).
		Uint32("nonce", uint32(nonce)).
		Msg("Synced account state")

	return nil
}

// Resync overwrites the cached nonce from the node regardless of the
// trust-local-nonce setting. Use it after abandoning a prepared transfer.
func (w *Wallet) Resync(ctx context.Context) error {
	w.synced.Store(false)
	return w.Sync(ctx)
}

// Tokens returns the cached token catalogue, loading it on first use.
func (w *Wallet) Tokens(ctx context.Context) (map[string]zksync.Token, error) {
	w.tokensMu.RLock()
	loaded := len(w.tokens) > 0
	w.tokensMu.RUnlock()

	if !loaded {
		if err := w.RefreshTokens(ctx); err != nil {
			return nil, err
		}
	}

	w.tokensMu.RLock()
	defer w.tokensMu.RUnlock()

	out := make(map[string]zksync.Token, len(w.tokens))
	for symbol, token := range w.tokens {
		out[symbol] = token
	}
	return out, nil
}

// RefreshTokens reloads the token catalogue from the node.
func (w *Wallet) RefreshTokens(ctx context.Context) error {
	tokens, err := w.provider.Tokens(ctx)
	if err != nil {
		return stepError(StepResolveToken, err)
	}

	w.tokensMu.Lock()
	defer w.tokensMu.Unlock()

	w.tokens = make(map[string]zksync.Token, len(tokens))
	for symbol, token := range tokens {
		if token.Symbol == "" {
			token.Symbol = symbol
		}
		w.tokens[symbol] = token
	}

	w.log(ctx).Debug().Int("tokens", len(tokens)).Msg("Loaded token catalogue")

	return nil
}

// ResolveToken maps a symbol or token contract address to the catalogue
// entry. An empty cache is loaded first. A miss against a catalogue that was
// already cached reloads it once, a freshly loaded one is not fetched again.
func (w *Wallet) ResolveToken(ctx context.Context, token string) (zksync.Token, error) {
	w.tokensMu.RLock()
	cached := len(w.tokens) > 0
	w.tokensMu.RUnlock()

	if !cached {
		if _, err := w.Tokens(ctx); err != nil {
			return zksync.Token{}, err
		}
	}

	if found, ok := w.lookupToken(token); ok {
		return found, nil
	}

	if !cached {
		return zksync.Token{}, stepError(StepResolveToken, errors.Wrap(ErrUnknownToken, token))
	}

	if err := w.RefreshTokens(ctx); err != nil {
		return zksync.Token{}, err
	}

	if found, ok := w.lookupToken(token); ok {
		return found, nil
	}

	return zksync.Token{}, stepError(StepResolveToken, errors.Wrap(ErrUnknownToken, token))
}

func (w *Wallet) lookupToken(token string) (zksync.Token, bool) {
	w.tokensMu.RLock()
	defer w.tokensMu.RUnlock()

	if found, ok := w.tokens[token]; ok {
		return found, true
	}

	if common.IsHexAddress(token) {
		addr := common.HexToAddress(token)
		for _, found := range w.tokens {
			if found.Address == addr {
				return found, true
			}
		}
	}

	return zksync.Token{}, false
}

// ResolveFee returns fee verbatim when set, otherwise the node's estimate
// for a transfer of token to to.
func (w *Wallet) ResolveFee(ctx context.Context, token zksync.Token, to common.Address, fee *big.Int) (*big.Int, error) {
	if fee != nil {
		return new(big.Int).Set(fee), nil
	}

	estimated, err := w.provider.TxFee(ctx, zksync.TransferTxType, to, token.Symbol)
	if err != nil {
		return nil, stepError(StepResolveFee, fmt.Errorf("%w: %w", ErrFeeUnavailable, err))
	}

	return estimated, nil
}

// PrepareTransfer runs sync, token and fee resolution and the native
// signature. The cached nonce is advanced before returning, so a prepared
// transfer that is never submitted leaves the cache one ahead of the node
// until the next overwriting sync.
//
// By default every call re-syncs and overwrites the cached nonce before
// signing, so concurrent preparations on one Wallet can sign the same nonce.
// Callers preparing concurrently need WithTrustLocalNonce, or an explicit
// Nonce per request.
func (w *Wallet) PrepareTransfer(ctx context.Context, req TransferRequest) (*PreparedTransfer, error) {
	if w.account == nil {
		return nil, stepError(StepSync, ErrReadOnly)
	}
	if req.Amount == nil || req.Amount.Sign() < 0 {
		return nil, stepError(StepNativeSign, errors.New("transfer amount must be non-negative"))
	}

	if err := w.Sync(ctx); err != nil {
		return nil, err
	}

	token, err := w.ResolveToken(ctx, req.Token)
	if err != nil {
		return nil, err
	}

	fee, err := w.ResolveFee(ctx, token, req.To, req.Fee)
	if err != nil {
		return nil, err
	}

	tx, msg, err := w.account.SignTransfer(account.TransferRequest{
		TokenID:        token.ID,
		TokenSymbol:    token.Symbol,
		Decimals:       token.Decimals,
		Amount:         req.Amount,
		Fee:            fee,
		To:             req.To,
		Nonce:          req.Nonce,
		IncrementNonce: req.Nonce == nil,
	})
	if err != nil {
		return nil, stepError(StepNativeSign, err)
	}

	w.log(ctx).Info().
		Str("token", token.Symbol).
		Uint16("token_id", uint16(token.ID)).
		Str("amount", tx.Amount.String()).
		Str("fee", tx.Fee.String()).
		Uint32("nonce", uint32(tx.Nonce)).
		Str("tx_hash", tx.Hash().String()).
		Msg("Prepared transfer")

	return &PreparedTransfer{Tx: tx, Token: token, EthSignMessage: msg}, nil
}

// SignTransfer obtains the host-chain signature over the confirmation
// message of a prepared transfer.
func (w *Wallet) SignTransfer(ctx context.Context, prepared *PreparedTransfer) (zksync.PackedEthSignature, error) {
	if w.ethSigner == nil {
		return zksync.PackedEthSignature{}, stepError(StepHostSign, ErrNoEthSigner)
	}

	sig, err := w.ethSigner.SignMessage(ctx, []byte(prepared.EthSignMessage))
	if err != nil {
		return zksync.PackedEthSignature{}, stepError(StepHostSign, err)
	}

	return sig, nil
}

// SubmitTransfer sends a prepared transfer. The same prepared transfer may
// be submitted again after a transient failure.
func (w *Wallet) SubmitTransfer(ctx context.Context, prepared *PreparedTransfer, ethSignature *zksync.PackedEthSignature) (zksync.TxHash, error) {
	if err := prepared.Consistent(); err != nil {
		return zksync.TxHash{}, stepError(StepSubmit, err)
	}

	hash, err := w.provider.SubmitTx(ctx, prepared.Tx, ethSignature)
	if err != nil {
		w.log(ctx).Warn().Err(err).Str("tx_hash", prepared.Tx.Hash().String()).Msg("Transfer submission failed")
		return zksync.TxHash{}, stepError(StepSubmit, err)
	}

	w.log(ctx).Info().Str("tx_hash", hash.String()).Uint32("nonce", uint32(prepared.Tx.Nonce)).Msg("Submitted transfer")

	return hash, nil
}

// Transfer prepares, signs with the configured host-chain signer and
// submits in one go.
func (w *Wallet) Transfer(ctx context.Context, req TransferRequest) (zksync.TxHash, error) {
	if w.ethSigner == nil {
		return zksync.TxHash{}, stepError(StepHostSign, ErrNoEthSigner)
	}

	prepared, err := w.PrepareTransfer(ctx, req)
	if err != nil {
		return zksync.TxHash{}, err
	}

	sig, err := w.SignTransfer(ctx, prepared)
	if err != nil {
		return zksync.TxHash{}, err
	}

	return w.SubmitTransfer(ctx, prepared, &sig)
}

// GetBalance reads the balance of token at the given finality stage. A
// token missing from the snapshot has a zero balance. The signing context
// is left untouched.
func (w *Wallet) GetBalance(ctx context.Context, token string, state BalanceState) (*Balance, error) {
	resolved, err := w.ResolveToken(ctx, token)
	if err != nil {
		return nil, err
	}

	info, err := w.AccountInfo(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := info.Committed
	if state == BalanceVerified {
		snapshot = info.Verified
	}

	return &Balance{Token: resolved, State: state, Amount: snapshot.Balance(resolved.Symbol)}, nil
}

// TransactionState returns the finality of a submitted transaction.
func (w *Wallet) TransactionState(ctx context.Context, hash zksync.TxHash) (zksync.OperationState, error) {
	info, err := w.provider.TxInfo(ctx, hash)
	if err != nil {
		return zksync.OperationState{}, stepError(StepPoll, err)
	}
	return info.State(), nil
}

// EthOpState returns the finality of a priority operation.
func (w *Wallet) EthOpState(ctx context.Context, serialID uint64) (zksync.OperationState, error) {
	info, err := w.provider.EthOpInfo(ctx, serialID)
	if err != nil {
		return zksync.OperationState{}, stepError(StepPoll, err)
	}
	return info.State(), nil
}

// WaitForTransaction polls every interval until the transaction reaches
// stage. There is no built-in timeout; ctx bounds the wait. The first
// failed poll ends the wait. A transaction the node executed but rejected
// yields ErrTransactionFailed.
func (w *Wallet) WaitForTransaction(ctx context.Context, hash zksync.TxHash, stage zksync.FinalityStage, interval time.Duration) (zksync.OperationState, error) {
	return poll(ctx, interval, func(ctx context.Context) (zksync.OperationState, bool, error) {
		info, err := w.provider.TxInfo(ctx, hash)
		if err != nil {
			return zksync.OperationState{}, false, err
		}

		state := info.State()
		if info.Failed() {
			reason := "unknown reason"
			if info.FailReason != nil {
				reason = *info.FailReason
			}
			return state, true, errors.Wrap(ErrTransactionFailed, reason)
		}

		return state, state.Reached(stage), nil
	})
}

// WaitForEthOp polls a priority operation like WaitForTransaction.
func (w *Wallet) WaitForEthOp(ctx context.Context, serialID uint64, stage zksync.FinalityStage, interval time.Duration) (zksync.OperationState, error) {
	return poll(ctx, interval, func(ctx context.Context) (zksync.OperationState, bool, error) {
		info, err := w.provider.EthOpInfo(ctx, serialID)
		if err != nil {
			return zksync.OperationState{}, false, err
		}

		state := info.State()
		return state, state.Reached(stage), nil
	})
}

func poll(
	ctx context.Context,
	interval time.Duration,
	check func(ctx context.Context) (zksync.OperationState, bool, error),
) (zksync.OperationState, error) {
	if interval <= 0 {
		return zksync.OperationState{}, stepError(StepPoll, errors.New("poll interval must be positive"))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		state, done, err := check(ctx)
		if err != nil {
			return state, stepError(StepPoll, err)
		}
		if done {
			return state, nil
		}

		select {
		case <-ctx.Done():
			return state, stepError(StepPoll, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (w *Wallet) String() string {
	var b strings.Builder
	b.WriteString("Wallet{address: ")
	b.WriteString(zksync.FormatAddress(w.address))
	if w.account == nil {
		b.WriteString(", read-only")
	} else {
		b.WriteString(", pubKeyHash: ")
		b.WriteString(w.account.PubKeyHash().String())
	}
	b.WriteString("}")
	return b.String()
}
