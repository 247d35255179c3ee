package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

// CallMsg describes a call or a transaction sent from a node-managed account.
type CallMsg struct {
	From  common.Address
	To    *common.Address // nil = contract creation
	Data  []byte
	Value *big.Int
	Gas   uint64
}

// Backend is the subset of the client used by signers, contracts and the
// orchestration packages.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonce(ctx context.Context, addr common.Address) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg CallMsg) (uint64, error)
	Call(ctx context.Context, msg CallMsg) ([]byte, error)
	GetCode(ctx context.Context, addr common.Address) ([]byte, error)
	SendRawTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error)
	SendTransaction(ctx context.Context, msg CallMsg) (common.Hash, error)
	WaitForReceipt(ctx context.Context, hash common.Hash) (*Receipt, error)
}

// Client is an EVM JSON-RPC client.
type Client struct {
	url     string
	rpc     *rpc.Client
	limiter *rate.Limiter
	poll    time.Duration
	timeout time.Duration

	mu      sync.Mutex
	chainID *big.Int
}

var _ Backend = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithRateLimit caps outgoing requests per second. Zero or negative disables it.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithPollInterval sets how often WaitForReceipt polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.poll = d }
}

// WithReceiptTimeout bounds WaitForReceipt.
func WithReceiptTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// Dial connects to url. HTTP endpoints are not contacted until the first call.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	rc, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	c := &Client{
		url:     url,
		rpc:     rc,
		poll:    time.Second,
		timeout: 3 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL returns the endpoint the client talks to.
func (c *Client) URL() string { return c.url }

// Close releases the underlying connection.
func (c *Client) Close() { c.rpc.Close() }

// ChainID returns the chain's ID. The first answer is cached.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	cached := c.chainID
	c.mu.Unlock()
	if cached != nil {
		return new(big.Int).Set(cached), nil
	}

	var id hexutil.Big
	if err := c.call(ctx, &id, "eth_chainId"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.chainID = (*big.Int)(&id)
	c.mu.Unlock()
	return new(big.Int).Set((*big.Int)(&id)), nil
}

// Accounts returns the node-managed accounts (eth_accounts), in node order.
func (c *Client) Accounts(ctx context.Context) ([]common.Address, error) {
	var accs []common.Address
	if err := c.call(ctx, &accs, "eth_accounts"); err != nil {
		return nil, err
	}
	return accs, nil
}

// BlockNumber returns the latest block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var n hexutil.Uint64
	if err := c.call(ctx, &n, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// Balance returns the native balance of addr in wei.
func (c *Client) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	var bal hexutil.Big
	if err := c.call(ctx, &bal, "eth_getBalance", addr, "latest"); err != nil {
		return nil, err
	}
	return (*big.Int)(&bal), nil
}

// PendingNonce returns the transaction count including pending transactions.
func (c *Client) PendingNonce(ctx context.Context, addr common.Address) (uint64, error) {
	var n hexutil.Uint64
	if err := c.call(ctx, &n, "eth_getTransactionCount", addr, "pending"); err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// GasPrice returns the current gas price.
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	var gp hexutil.Big
	if err := c.call(ctx, &gp, "eth_gasPrice"); err != nil {
		return nil, err
	}
	return (*big.Int)(&gp), nil
}

// EstimateGas estimates gas for msg. A revert is returned as *RevertError.
func (c *Client) EstimateGas(ctx context.Context, msg CallMsg) (uint64, error) {
	var n hexutil.Uint64
	if err := c.call(ctx, &n, "eth_estimateGas", toCallArg(msg)); err != nil {
		if rev, ok := AsRevert(err); ok {
			return 0, rev
		}
		return 0, err
	}
	return uint64(n), nil
}

// Call executes a read-only call against the latest block.
func (c *Client) Call(ctx context.Context, msg CallMsg) ([]byte, error) {
	var out hexutil.Bytes
	if err := c.call(ctx, &out, "eth_call", toCallArg(msg), "latest"); err != nil {
		if rev, ok := AsRevert(err); ok {
			return nil, rev
		}
		return nil, err
	}
	return out, nil
}

// GetCode returns the bytecode at addr. Empty means an EOA or nothing deployed.
func (c *Client) GetCode(ctx context.Context, addr common.Address) ([]byte, error) {
	var code hexutil.Bytes
	if err := c.call(ctx, &code, "eth_getCode", addr, "latest"); err != nil {
		return nil, err
	}
	return code, nil
}

// SendRawTransaction broadcasts a signed transaction.
func (c *Client) SendRawTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return common.Hash{}, fmt.Errorf("encoding transaction: %w", err)
	}
	var hash common.Hash
	if err := c.call(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		if rev, ok := AsRevert(err); ok {
			return common.Hash{}, rev
		}
		return common.Hash{}, err
	}
	return hash, nil
}

// SendTransaction asks the node to sign and send msg from one of its own accounts.
func (c *Client) SendTransaction(ctx context.Context, msg CallMsg) (common.Hash, error) {
	var hash common.Hash
	if err := c.call(ctx, &hash, "eth_sendTransaction", toCallArg(msg)); err != nil {
		if rev, ok := AsRevert(err); ok {
			return common.Hash{}, rev
		}
		return common.Hash{}, err
	}
	return hash, nil
}

// Ping tests the RPC endpoint and returns latency + block number.
func (c *Client) Ping(ctx context.Context) (latency time.Duration, blockNum uint64, err error) {
	start := time.Now()
	blockNum, err = c.BlockNumber(ctx)
	return time.Since(start), blockNum, err
}

func (c *Client) call(ctx context.Context, result any, method string, args ...any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if err := c.rpc.CallContext(ctx, result, method, args...); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func toCallArg(msg CallMsg) map[string]any {
	arg := map[string]any{"from": msg.From}
	if msg.To != nil {
		arg["to"] = msg.To
	}
	if len(msg.Data) > 0 {
		arg["data"] = hexutil.Bytes(msg.Data)
	}
	if msg.Value != nil && msg.Value.Sign() > 0 {
		arg["value"] = (*hexutil.Big)(msg.Value)
	}
	if msg.Gas != 0 {
		arg["gas"] = hexutil.Uint64(msg.Gas)
	}
	return arg
}
