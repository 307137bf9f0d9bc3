package test

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github/chapool/zksync-wallet/internal/provider"
	"github/chapool/zksync-wallet/internal/zksync"
)

// DefaultTokens is the catalogue a fresh Node serves.
var DefaultTokens = []zksync.Token{
	{ID: 0, Address: common.Address{}, Symbol: "ETH", Decimals: 18},
	{ID: 1, Address: common.HexToAddress("0x8c0b6e4d0a4bc2d4cc4b4b2ef2b1d0ab6b18d63f"), Symbol: "GNT", Decimals: 18},
	{ID: 2, Address: common.HexToAddress("0x3ab1bb8d6e2ab8e0e0a1bd73d1e5b5aa0d2d9ccb"), Symbol: "USDC", Decimals: 6},
}

// DefaultFee is the total fee a fresh Node asks for every token.
var DefaultFee = big.NewInt(1_000_000)

type nodeAccount struct {
	id         zksync.AccountID
	nonce      zksync.Nonce
	pubKeyHash zksync.PubKeyHash
	committed  map[string]*big.Int
	verified   map[string]*big.Int
}

type nodeFailure struct {
	status  int
	code    provider.ErrorCode
	message string
	raw     string
}

// Node is an in-process zkSync node speaking the JSON-RPC protocol. It
// checks native and host-chain signatures, nonces, fees and balances on
// submission. Finality is advanced explicitly by the test.
type Node struct {
	t      *testing.T
	server *httptest.Server

	mu            sync.Mutex
	tokens        map[string]zksync.Token
	fees          map[string]*big.Int
	accounts      map[common.Address]*nodeAccount
	nextAccountID zksync.AccountID
	txs           map[zksync.TxHash]*provider.TransactionInfo
	submitted     []*zksync.Transfer
	ethOps        map[uint64]*provider.EthOpInfo
	failures      map[string][]nodeFailure
	calls         map[string]int
	blockNumber   int64
}

// NewNode starts a fake node that is shut down when the test ends.
func NewNode(t *testing.T) *Node {
	t.Helper()

	n := &Node{
		t:             t,
		tokens:        make(map[string]zksync.Token),
		fees:          make(map[string]*big.Int),
		accounts:      make(map[common.Address]*nodeAccount),
		nextAccountID: 1,
		txs:           make(map[zksync.TxHash]*provider.TransactionInfo),
		ethOps:        make(map[uint64]*provider.EthOpInfo),
		failures:      make(map[string][]nodeFailure),
		calls:         make(map[string]int),
	}

	for _, token := range DefaultTokens {
		n.tokens[token.Symbol] = token
		n.fees[token.Symbol] = new(big.Int).Set(DefaultFee)
	}

	e := echo.New()
	e.HideBanner = true
	e.POST("/", n.handle)

	n.server = httptest.NewServer(e)
	t.Cleanup(n.server.Close)

	return n
}

func (n *Node) URL() string {
	return n.server.URL
}

func (n *Node) Close() {
	n.server.Close()
}

// SetFee changes the fee required for a token symbol.
func (n *Node) SetFee(symbol string, fee *big.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.fees[symbol] = new(big.Int).Set(fee)
}

// RemoveFee makes get_tx_fee reject the token symbol.
func (n *Node) RemoveFee(symbol string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.fees, symbol)
}

// Deposit credits an account, registering it with a fresh id when needed,
// and returns its id. Deposits are immediately verified.
func (n *Node) Deposit(address common.Address, symbol string, amount *big.Int) zksync.AccountID {
	n.mu.Lock()
	defer n.mu.Unlock()

	acc := n.accountLocked(address)
	credit(acc.committed, symbol, amount)
	credit(acc.verified, symbol, amount)

	return acc.id
}

// SetNonce overrides the committed nonce of a registered account.
func (n *Node) SetNonce(address common.Address, nonce zksync.Nonce) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.accountLocked(address).nonce = nonce
}

// SetPubKeyHash binds a native key to the account; transfers signed with
// any other key are then rejected.
func (n *Node) SetPubKeyHash(address common.Address, hash zksync.PubKeyHash) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.accountLocked(address).pubKeyHash = hash
}

// FailNext makes the next call of method return a node error envelope.
func (n *Node) FailNext(method string, code provider.ErrorCode, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.failures[method] = append(n.failures[method], nodeFailure{code: code, message: message})
}

// FailNextWithStatus makes the next call of method answer with a bare HTTP
// status.
func (n *Node) FailNextWithStatus(method string, status int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.failures[method] = append(n.failures[method], nodeFailure{status: status})
}

// FailNextWithBody makes the next call of method answer with body verbatim.
func (n *Node) FailNextWithBody(method string, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.failures[method] = append(n.failures[method], nodeFailure{raw: body})
}

// Calls returns how often method was called.
func (n *Node) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.calls[method]
}

// Submitted returns the accepted transfers in submission order.
func (n *Node) Submitted() []*zksync.Transfer {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]*zksync.Transfer, len(n.submitted))
	copy(out, n.submitted)
	return out
}

// Commit puts a pending transaction into a committed block.
func (n *Node) Commit(hash zksync.TxHash) {
	n.mu.Lock()
	defer n.mu.Unlock()

	info, ok := n.txs[hash]
	if !ok {
		n.t.Fatalf("unknown transaction %s", hash)
	}

	n.blockNumber++
	info.Executed = true
	success := true
	info.Success = &success
	info.Block = &provider.BlockInfo{BlockNumber: n.blockNumber, Committed: true}
}

// Verify marks a committed transaction's block as verified and publishes
// the committed balances as verified.
func (n *Node) Verify(hash zksync.TxHash) {
	n.mu.Lock()
	defer n.mu.Unlock()

	info, ok := n.txs[hash]
	if !ok || info.Block == nil {
		n.t.Fatalf("transaction %s is not committed", hash)
	}

	info.Block.Verified = true

	for _, acc := range n.accounts {
		acc.verified = copyBalances(acc.committed)
	}
}

// SetEthOp registers a priority operation with the given finality.
func (n *Node) SetEthOp(serialID uint64, executed bool, verified bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	op := &provider.EthOpInfo{Executed: executed}
	if executed {
		n.blockNumber++
		op.Block = &provider.BlockInfo{BlockNumber: n.blockNumber, Committed: true, Verified: verified}
	}
	n.ethOps[serialID] = op
}

type rpcRequest struct {
	Version string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func (n *Node) handle(c echo.Context) error {
	var req rpcRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls[req.Method]++

	if queued := n.failures[req.Method]; len(queued) > 0 {
		failure := queued[0]
		n.failures[req.Method] = queued[1:]

		switch {
		case failure.status != 0:
			return c.NoContent(failure.status)
		case failure.raw != "":
			return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(failure.raw))
		default:
			return n.reply(c, req, nil, &rpcError{Code: int(failure.code), Message: failure.message})
		}
	}

	result, rpcErr := n.dispatch(req)
	return n.reply(c, req, result, rpcErr)
}

func (n *Node) reply(c echo.Context, req rpcRequest, result any, rpcErr *rpcError) error {
	res := rpcResponse{Version: "2.0", ID: req.ID}
	if rpcErr != nil {
		res.Error = rpcErr
	} else {
		if result == nil {
			result = json.RawMessage("null")
		}
		res.Result = result
	}

	return c.JSON(http.StatusOK, res)
}

func (n *Node) dispatch(req rpcRequest) (any, *rpcError) {
	switch req.Method {
	case provider.MethodTokens:
		return n.tokens, nil
	case provider.MethodContractAddress:
		return provider.ContractAddress{
			MainContract: "0x70a0F165d6f8054d0d0CF8dFd4DD2005f0AF6B55",
			GovContract:  "0x8aB2E4E2d1c3C5D7d1E4f7c9e3a2d9B6e5F4A3c2",
		}, nil
	case provider.MethodTxFee:
		return n.txFee(req.Params)
	case provider.MethodAccountInfo:
		return n.accountInfo(req.Params)
	case provider.MethodOngoingDeposits:
		return n.ongoingDeposits(req.Params)
	case provider.MethodTxInfo:
		return n.txInfo(req.Params)
	case provider.MethodEthOpInfo:
		return n.ethOpInfo(req.Params)
	case provider.MethodTxSubmit:
		return n.submit(req.Params)
	default:
		return nil, &rpcError{Code: -32601, Message: fmt.Sprintf("method %s not found", req.Method)}
	}
}

func (n *Node) txFee(params []json.RawMessage) (any, *rpcError) {
	var (
		txType  string
		address common.Address
		symbol  string
	)
	if err := decodeParams(params, &txType, &address, &symbol); err != nil {
		return nil, err
	}

	fee, ok := n.fees[symbol]
	if !ok || txType != zksync.TransferTxType {
		return nil, &rpcError{Code: int(provider.CodeOther), Message: "Chosen token is not suitable for paying fees."}
	}

	total := zksync.NewBigUint(fee)
	return provider.Fee{FeeType: txType, TotalFee: &total}, nil
}

func (n *Node) accountInfo(params []json.RawMessage) (any, *rpcError) {
	var address common.Address
	if err := decodeParams(params, &address); err != nil {
		return nil, err
	}

	info := provider.AccountInfo{
		Address:    address,
		Depositing: provider.DepositingBalances{Balances: map[string]provider.DepositingFunds{}},
		Committed:  provider.AccountState{Balances: map[string]zksync.BigUint{}},
		Verified:   provider.AccountState{Balances: map[string]zksync.BigUint{}},
	}

	acc, ok := n.accounts[address]
	if !ok {
		return info, nil
	}

	id := acc.id
	info.ID = &id
	info.Committed = accountState(acc.committed, acc.nonce, acc.pubKeyHash)
	info.Verified = accountState(acc.verified, acc.nonce, acc.pubKeyHash)

	return info, nil
}

func (n *Node) ongoingDeposits(params []json.RawMessage) (any, *rpcError) {
	var address common.Address
	if err := decodeParams(params, &address); err != nil {
		return nil, err
	}

	return provider.OngoingDeposits{
		Address:                  address,
		Deposits:                 []provider.OngoingDeposit{},
		ConfirmationsForEthEvent: 1,
	}, nil
}

func (n *Node) txInfo(params []json.RawMessage) (any, *rpcError) {
	var hash zksync.TxHash
	if err := decodeParams(params, &hash); err != nil {
		return nil, err
	}

	info, ok := n.txs[hash]
	if !ok {
		return provider.TransactionInfo{}, nil
	}

	return info, nil
}

func (n *Node) ethOpInfo(params []json.RawMessage) (any, *rpcError) {
	var serialID uint64
	if err := decodeParams(params, &serialID); err != nil {
		return nil, err
	}

	op, ok := n.ethOps[serialID]
	if !ok {
		return provider.EthOpInfo{}, nil
	}

	return op, nil
}

func (n *Node) submit(params []json.RawMessage) (any, *rpcError) {
	var (
		tx     zksync.Transfer
		ethSig *zksync.TxEthSignature
	)
	if err := decodeParams(params, &tx, &ethSig); err != nil {
		return nil, err
	}

	if err := tx.VerifySignature(); err != nil {
		return nil, &rpcError{Code: int(provider.CodeIncorrectTx), Message: "Transaction signature is incorrect"}
	}

	acc, ok := n.accounts[tx.From]
	if !ok || acc.id != tx.AccountID {
		return nil, &rpcError{Code: int(provider.CodeIncorrectTx), Message: "Account does not exist"}
	}

	if !acc.pubKeyHash.IsZero() && acc.pubKeyHash != tx.Signature.PubKeyHash() {
		return nil, &rpcError{Code: int(provider.CodeIncorrectTx), Message: "Transaction signed with a wrong key"}
	}

	if tx.Nonce != acc.nonce {
		return nil, &rpcError{Code: int(provider.CodeNonceMismatch), Message: "Nonce mismatch"}
	}

	token, ok := n.tokenByID(tx.Token)
	if !ok {
		return nil, &rpcError{Code: int(provider.CodeIncorrectTx), Message: "Unknown token"}
	}

	if ethSig == nil {
		return nil, &rpcError{Code: int(provider.CodeMissingEthSignature), Message: "Eth signature is missing"}
	}

	msg := tx.EthSignMessage(token.Symbol, token.Decimals)
	if !ethSig.Signature.IsSignedBy([]byte(msg), tx.From) {
		return nil, &rpcError{Code: int(provider.CodeIncorrectEthSignature), Message: "Eth signature is incorrect"}
	}

	if required, ok := n.fees[token.Symbol]; ok && tx.Fee.Cmp(required) < 0 {
		return nil, &rpcError{Code: int(provider.CodeFeeTooLow), Message: "Transaction fee is too low"}
	}

	total := new(big.Int).Add(tx.Amount, tx.Fee)
	balance, ok := acc.committed[token.Symbol]
	if !ok || balance.Cmp(total) < 0 {
		return nil, &rpcError{Code: int(provider.CodeIncorrectTx), Message: "Not enough balance"}
	}

	balance.Sub(balance, total)
	credit(n.accountLocked(tx.To).committed, token.Symbol, tx.Amount)
	acc.nonce++

	hash := tx.Hash()
	n.txs[hash] = &provider.TransactionInfo{}
	submitted := tx
	n.submitted = append(n.submitted, &submitted)

	return hash, nil
}

func (n *Node) accountLocked(address common.Address) *nodeAccount {
	acc, ok := n.accounts[address]
	if !ok {
		acc = &nodeAccount{
			id:        n.nextAccountID,
			committed: make(map[string]*big.Int),
			verified:  make(map[string]*big.Int),
		}
		n.nextAccountID++
		n.accounts[address] = acc
	}

	return acc
}

func (n *Node) tokenByID(id zksync.TokenID) (zksync.Token, bool) {
	for _, token := range n.tokens {
		if token.ID == id {
			return token, true
		}
	}

	return zksync.Token{}, false
}

func decodeParams(params []json.RawMessage, targets ...any) *rpcError {
	if len(params) != len(targets) {
		return &rpcError{Code: -32602, Message: fmt.Sprintf("expected %d params, got %d", len(targets), len(params))}
	}

	for i, target := range targets {
		if err := json.Unmarshal(params[i], target); err != nil {
			return &rpcError{Code: -32602, Message: fmt.Sprintf("invalid param %d: %v", i, err)}
		}
	}

	return nil
}

func accountState(balances map[string]*big.Int, nonce zksync.Nonce, hash zksync.PubKeyHash) provider.AccountState {
	out := make(map[string]zksync.BigUint, len(balances))
	for symbol, amount := range balances {
		out[symbol] = zksync.NewBigUint(amount)
	}

	return provider.AccountState{Balances: out, Nonce: nonce, PubKeyHash: hash}
}

func credit(balances map[string]*big.Int, symbol string, amount *big.Int) {
	if current, ok := balances[symbol]; ok {
		current.Add(current, amount)
		return
	}
	balances[symbol] = new(big.Int).Set(amount)
}

func copyBalances(in map[string]*big.Int) map[string]*big.Int {
	out := make(map[string]*big.Int, len(in))
	for symbol, amount := range in {
		out[symbol] = new(big.Int).Set(amount)
	}
	return out
}
