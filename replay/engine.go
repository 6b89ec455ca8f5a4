package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/0xPolygon/evm-tracecheck/trace"
	"github.com/0xPolygon/evm-tracecheck/tracer"
	"github.com/0xPolygon/evm-tracecheck/types"
)

// EngineType names a registered execution engine
type EngineType string

const (
	// TransferEngineType is the builtin engine, limited to plain value transfers
	TransferEngineType EngineType = "transfer"
)

// EngineFactory creates an engine instance for a replay run
type EngineFactory func(logger hclog.Logger) (Engine, error)

var engineBackends = map[EngineType]EngineFactory{
	TransferEngineType: NewTransferEngine,
}

// RegisterEngine makes an external execution engine available under the
// given name. The builtin names cannot be overridden
func RegisterEngine(name EngineType, factory EngineFactory) error {
	if _, ok := engineBackends[name]; ok {
		return fmt.Errorf("engine %q is already registered", name)
	}

	engineBackends[name] = factory

	return nil
}

// EngineSupported reports whether an engine is registered under the given name
func EngineSupported(value string) bool {
	_, ok := engineBackends[EngineType(value)]

	return ok
}

// NewEngine instantiates the engine registered under the given name
func NewEngine(name EngineType, logger hclog.Logger) (Engine, error) {
	factory, ok := engineBackends[name]
	if !ok {
		return nil, fmt.Errorf("engine %q is not registered", name)
	}

	return factory(logger)
}

// ErrCodeExecutionUnsupported is returned by the transfer engine for
// transactions that would execute contract code
var ErrCodeExecutionUnsupported = errors.New("transfer engine cannot execute contract code")

const transferGasCost = 21000

// TransferEngine replays plain value transfers: one frame per
// transaction, no instruction steps. Transactions carrying input data
// or creating contracts need a full EVM engine and are rejected.
// It exists so the pipeline can be exercised end to end without an
// interpreter in tree
type TransferEngine struct {
	logger hclog.Logger
}

func NewTransferEngine(logger hclog.Logger) (Engine, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &TransferEngine{logger: logger.Named("transfer-engine")}, nil
}

func (e *TransferEngine) ReplayTransaction(
	ctx context.Context,
	block *Block,
	txn *Transaction,
	tr tracer.Tracer,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if txn.To == nil || len(txn.Input) > 0 {
		return fmt.Errorf("%w: transaction %s", ErrCodeExecutionUnsupported, txn.Hash)
	}

	tr.TxStart(txn.Gas)

	tr.CallStart(
		1,
		txn.From,
		txn.To,
		txn.To,
		int(trace.Call),
		false,
		txn.Gas,
		txn.Value,
		nil,
	)

	var err error
	if txn.Gas < transferGasCost {
		err = errors.New("out of gas")
	}

	gasUsed := uint64(transferGasCost)
	if txn.Gas < transferGasCost {
		gasUsed = txn.Gas
	}

	tr.CallEnd(1, nil, gasUsed, err)
	tr.TxEnd(txn.Gas - gasUsed)

	e.logger.Debug("replayed transfer",
		"txn", txn.Hash,
		"from", txn.From,
		"to", emptyIfNil(txn.To),
		"gasUsed", gasUsed,
	)

	return nil
}

func emptyIfNil(a *types.Address) types.Address {
	if a == nil {
		return types.ZeroAddress
	}

	return *a
}
