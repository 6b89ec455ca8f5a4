package replay

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/0xPolygon/evm-tracecheck/trace"
	"github.com/0xPolygon/evm-tracecheck/tracer"
	"github.com/0xPolygon/evm-tracecheck/tracer/streamtracer"
)

// Engine is the external execution engine. It owns the EVM interpreter
// and the state access, and reports execution through the tracer hooks
type Engine interface {
	// ReplayTransaction executes one transaction of the block, driving
	// the tracer callbacks in execution order
	ReplayTransaction(ctx context.Context, block *Block, txn *Transaction, tr tracer.Tracer) error
}

// Replayer fetches a historical block and replays it through the engine,
// producing the finished trace event stream of the whole block
type Replayer struct {
	fetcher      *Fetcher
	engine       Engine
	logger       hclog.Logger
	tracerConfig streamtracer.Config
}

func NewReplayer(fetcher *Fetcher, engine Engine, tracerConfig streamtracer.Config, logger hclog.Logger) *Replayer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Replayer{
		fetcher:      fetcher,
		engine:       engine,
		logger:       logger.Named("replayer"),
		tracerConfig: tracerConfig,
	}
}

// ReplayBlock fetches the block with the given number and replays every
// transaction in order. Engine failures are collected across the whole
// block and fail the replay, no partial trace is returned
func (r *Replayer) ReplayBlock(ctx context.Context, number uint64) (*trace.Trace, error) {
	block, err := r.fetcher.GetBlock(ctx, number)
	if err != nil {
		return nil, err
	}

	r.logger.Info("replaying block", "number", block.Number, "txns", len(block.Transactions))

	st := streamtracer.NewStreamTracer(r.tracerConfig)

	var errs error

	for _, txn := range block.Transactions {
		if err := r.engine.ReplayTransaction(ctx, block, txn, st); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("transaction %s: %w", txn.Hash, err))
		}
	}

	if errs != nil {
		return nil, errs
	}

	return st.Trace()
}

// ReplayLatest replays the most recent upstream block
func (r *Replayer) ReplayLatest(ctx context.Context) (*trace.Trace, uint64, error) {
	number, err := r.fetcher.LatestBlockNumber(ctx)
	if err != nil {
		return nil, 0, err
	}

	result, err := r.ReplayBlock(ctx, number)

	return result, number, err
}
