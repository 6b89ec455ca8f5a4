package tracer

import (
	"errors"
	"math/big"

	"github.com/0xPolygon/evm-tracecheck/types"
)

// ErrExecutionReverted is reported by the execution engine through CallEnd
// when a frame reverted. Any other non-nil error is treated as a halt
var ErrExecutionReverted = errors.New("execution was reverted")

// RuntimeHost is the interface defining the methods for accessing state by tracer
type RuntimeHost interface {
	// GetRefund returns refunded value
	GetRefund() uint64
	// GetStorage access the storage slot at the given address and slot hash
	GetStorage(types.Address, types.Hash) types.Hash
}

// VMState is the interface for the tracer to halt the running VM
type VMState interface {
	// Halt tells VM to terminate its process
	Halt()
}

// Tracer is the execution engine's hook surface. The engine drives the
// callbacks in execution order while running a transaction
type Tracer interface {
	// Cancel tells the tracer to terminate, GetResult returns the given error
	Cancel(err error)
	Clear()
	GetResult() (interface{}, error)

	// Tx-level
	TxStart(gasLimit uint64)
	TxEnd(gasLeft uint64)

	// Call-level
	CallStart(
		depth int, // begins from 1
		from types.Address,
		to *types.Address, // nil for contract creation
		codeAddress *types.Address, // differs from to for delegate calls
		callType int,
		isStatic bool,
		gas uint64,
		value *big.Int,
		input []byte,
	)
	CallEnd(
		depth int, // begins from 1
		output []byte,
		gasUsed uint64,
		err error,
	)

	// Op-level
	CaptureState(
		// memory
		memory []byte,
		// stack
		stack []*big.Int,
		opCode int,
		contractAddress types.Address,
		sp int,
		host RuntimeHost,
		state VMState,
	)
	ExecuteState(
		contractAddress types.Address,
		ip uint64,
		opcode string,
		availableGas uint64,
		cost uint64,
		lastReturnData []byte,
		depth int,
		err error,
		host RuntimeHost,
	)
}
