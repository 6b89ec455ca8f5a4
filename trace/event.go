package trace

import (
	"math/big"

	"github.com/0xPolygon/evm-tracecheck/types"
)

// CallType is the kind of frame a Message opens
type CallType int

const (
	Call CallType = iota
	CallCode
	DelegateCall
	StaticCall
	Create
	Create2
)

var callTypeNames = map[CallType]string{
	Call:         "CALL",
	CallCode:     "CALLCODE",
	DelegateCall: "DELEGATECALL",
	StaticCall:   "STATICCALL",
	Create:       "CREATE",
	Create2:      "CREATE2",
}

func (c CallType) String() string {
	name, ok := callTypeNames[c]
	if !ok {
		return "UNKNOWN"
	}

	return name
}

// Valid reports whether the call type is one of the known kinds
func (c CallType) Valid() bool {
	_, ok := callTypeNames[c]

	return ok
}

// ResultStatus classifies how a frame returned
type ResultStatus int

const (
	// Succeeded means the frame returned normally
	Succeeded ResultStatus = iota
	// Reverted means the frame executed REVERT or the engine reverted it
	Reverted
	// Halted means the frame stopped on an error (out of gas, bad opcode, ...)
	Halted
)

func (s ResultStatus) String() string {
	switch s {
	case Succeeded:
		return "SUCCEEDED"
	case Reverted:
		return "REVERTED"
	case Halted:
		return "HALTED"
	}

	return "UNKNOWN"
}

// Event is a single record emitted while executing a transaction.
// It is a closed union: the only implementations are Message, Step and
// MessageResult. Events are immutable once appended to a Trace.
type Event interface {
	// EventDepth returns the call depth the event was emitted at, begins from 1
	EventDepth() int

	sealedEvent()
}

// Message marks entry into a call or create frame
type Message struct {
	// Depth of the opened frame, begins from 1
	Depth int

	// From is the sender of the call
	From types.Address

	// To is the recipient. Nil for contract creation
	To *types.Address

	// CodeAddress is the address of the code being executed.
	// Differs from To for delegate calls. Nil for contract creation
	CodeAddress *types.Address

	// CallType is the kind of call that opened the frame
	CallType CallType

	// IsStatic is set when no state modification is allowed in the frame
	IsStatic bool

	// GasLimit is the gas provided to the frame
	GasLimit uint64

	// Input is the calldata, or the init code for creations
	Input types.HexBytes

	// Value is the amount transferred with the call
	Value *big.Int
}

func (m *Message) EventDepth() int { return m.Depth }

func (m *Message) sealedEvent() {}

// Step marks execution of a single instruction inside the active frame
type Step struct {
	// Depth of the frame the instruction ran in, begins from 1
	Depth int

	// Contract is the address the instruction executed against
	Contract types.Address

	// PC is the program counter
	PC uint64

	// Op is the opcode name
	Op string

	// RemainingGas is the gas left before executing the instruction
	RemainingGas uint64

	// GasCost is the cost of the instruction
	GasCost uint64

	// Stack holds the stack snapshot, bottom first. Nil when capture is disabled
	Stack []*big.Int

	// Memory holds the memory snapshot. Nil when capture is disabled
	Memory []byte
}

func (s *Step) EventDepth() int { return s.Depth }

func (s *Step) sealedEvent() {}

// MessageResult marks the return of a call frame. It closes the most
// recently opened, not yet closed Message
type MessageResult struct {
	// Depth of the closed frame, begins from 1
	Depth int

	// Status classifies the outcome of the frame
	Status ResultStatus

	// Output is the return data. Revert reason data for reverted frames
	Output types.HexBytes

	// GasUsed is the gas consumed by the frame
	GasUsed uint64

	// GasRefunded is the refund counter at frame exit
	GasRefunded uint64

	// Err holds the halt reason for frames that did not succeed
	Err string
}

func (r *MessageResult) EventDepth() int { return r.Depth }

func (r *MessageResult) sealedEvent() {}

// Succeeded reports whether the frame returned without revert or halt
func (r *MessageResult) Succeeded() bool {
	return r.Status == Succeeded
}
