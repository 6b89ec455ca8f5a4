package replay

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/sethvargo/go-retry"
	"github.com/umbracle/ethgo"
	"github.com/umbracle/ethgo/jsonrpc"

	"github.com/0xPolygon/evm-tracecheck/replay/cache"
	"github.com/0xPolygon/evm-tracecheck/types"
)

var (
	// ErrUpstreamUnavailable means the upstream provider could not be
	// reached or kept failing after retries
	ErrUpstreamUnavailable = errors.New("upstream provider unavailable")

	// ErrBlockNotFound means the upstream provider has no block with the
	// requested number
	ErrBlockNotFound = errors.New("block not found")

	// ErrNoRPCURL means no upstream endpoint was configured
	ErrNoRPCURL = errors.New("no upstream RPC URL configured")
)

const (
	defaultRetryAttempts = 3
	defaultRetryBase     = 500 * time.Millisecond
)

// BlockClient is the part of the upstream eth namespace the fetcher uses
type BlockClient interface {
	GetBlockByNumber(i ethgo.BlockNumber, full bool) (*ethgo.Block, error)
	BlockNumber() (uint64, error)
}

// Fetcher retrieves historical blocks from an upstream JSON-RPC provider,
// with an optional on-disk cache consulted before the network
type Fetcher struct {
	chain         string
	client        BlockClient
	cache         *cache.Cache
	logger        hclog.Logger
	retryAttempts uint64
}

type FetcherOption func(*Fetcher)

// WithClient sets the upstream client, used instead of dialing the RPC URL
func WithClient(client BlockClient) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithCache sets the response cache
func WithCache(c *cache.Cache) FetcherOption {
	return func(f *Fetcher) {
		f.cache = c
	}
}

func WithLogger(logger hclog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithRetryAttempts sets how many times transient upstream failures are retried
func WithRetryAttempts(attempts uint64) FetcherOption {
	return func(f *Fetcher) {
		f.retryAttempts = attempts
	}
}

// NewFetcher creates a fetcher for the given chain name and upstream URL.
// The URL may be empty if every request can be served by the cache or a
// client is supplied with WithClient
func NewFetcher(chain, rpcURL string, opts ...FetcherOption) (*Fetcher, error) {
	f := &Fetcher{
		chain:         chain,
		retryAttempts: defaultRetryAttempts,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = hclog.NewNullLogger()
	}

	f.logger = f.logger.Named("fetcher")

	if f.client == nil && rpcURL != "" {
		client, err := jsonrpc.NewClient(rpcURL)
		if err != nil {
			return nil, fmt.Errorf("connect to upstream provider: %w", err)
		}

		f.client = client.Eth()
	}

	return f, nil
}

// GetBlock returns the block with the given number, with full transactions.
// The cache is consulted first, a successful fetch is written through
func (f *Fetcher) GetBlock(ctx context.Context, number uint64) (*Block, error) {
	key := f.blockKey(number)

	if f.cache != nil {
		data, ok, err := f.cache.Get(key)
		if err != nil {
			return nil, fmt.Errorf("cache lookup: %w", err)
		}

		if ok {
			block := &Block{}
			if err := block.UnmarshalRLP(data); err != nil {
				return nil, fmt.Errorf("decode cached block %d: %w", number, err)
			}

			f.logger.Debug("block served from cache", "number", number)

			return block, nil
		}
	}

	if f.client == nil {
		return nil, ErrNoRPCURL
	}

	var upstream *ethgo.Block

	err := f.withRetry(ctx, func() error {
		block, err := f.client.GetBlockByNumber(ethgo.BlockNumber(number), true)
		if err != nil {
			return err
		}

		upstream = block

		return nil
	})
	if err != nil {
		return nil, err
	}

	if upstream == nil {
		return nil, fmt.Errorf("%w: number %d", ErrBlockNotFound, number)
	}

	block := convertBlock(upstream)

	if f.cache != nil {
		if err := f.cache.Set(key, block.MarshalRLPTo(nil)); err != nil {
			f.logger.Warn("failed to cache block", "number", number, "err", err)
		}
	}

	return block, nil
}

// LatestBlockNumber returns the number of the most recent upstream block
func (f *Fetcher) LatestBlockNumber(ctx context.Context) (uint64, error) {
	if f.client == nil {
		return 0, ErrNoRPCURL
	}

	var number uint64

	err := f.withRetry(ctx, func() error {
		latest, err := f.client.BlockNumber()
		if err != nil {
			return err
		}

		number = latest

		return nil
	})
	if err != nil {
		return 0, err
	}

	return number, nil
}

func (f *Fetcher) withRetry(ctx context.Context, fn func() error) error {
	backoff, err := retry.NewFibonacci(defaultRetryBase)
	if err != nil {
		return err
	}

	err = retry.Do(ctx, retry.WithMaxRetries(f.retryAttempts, backoff), func(ctx context.Context) error {
		if err := fn(); err != nil {
			f.logger.Debug("upstream request failed, retrying", "err", err)

			return retry.RetryableError(err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUpstreamUnavailable, err)
	}

	return nil
}

func (f *Fetcher) blockKey(number uint64) []byte {
	return []byte(fmt.Sprintf("%s/block/%d", f.chain, number))
}

func convertBlock(b *ethgo.Block) *Block {
	block := &Block{
		Number:     b.Number,
		Hash:       types.BytesToHash(b.Hash[:]),
		ParentHash: types.BytesToHash(b.ParentHash[:]),
		Miner:      types.BytesToAddress(b.Miner[:]),
		GasLimit:   b.GasLimit,
		Timestamp:  b.Timestamp,
	}

	for _, txn := range b.Transactions {
		block.Transactions = append(block.Transactions, convertTransaction(txn))
	}

	return block
}

func convertTransaction(t *ethgo.Transaction) *Transaction {
	txn := &Transaction{
		Hash:     types.BytesToHash(t.Hash[:]),
		From:     types.BytesToAddress(t.From[:]),
		Gas:      t.Gas,
		GasPrice: t.GasPrice,
		Nonce:    t.Nonce,
	}

	if len(t.Input) > 0 {
		txn.Input = append(types.HexBytes{}, t.Input...)
	}

	if t.To != nil {
		addr := types.BytesToAddress(t.To[:])
		txn.To = &addr
	}

	if t.Value != nil {
		txn.Value = new(big.Int).Set(t.Value)
	}

	return txn
}
