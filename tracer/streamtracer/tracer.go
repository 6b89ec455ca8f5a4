package streamtracer

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/0xPolygon/evm-tracecheck/trace"
	"github.com/0xPolygon/evm-tracecheck/tracer"
	"github.com/0xPolygon/evm-tracecheck/types"
)

type Config struct {
	EnableMemory bool // enable memory capture
	EnableStack  bool // enable stack capture
}

// StreamTracer records the engine callbacks as an ordered trace event
// stream: a Message per frame entry, a Step per executed instruction and
// a MessageResult per frame exit
type StreamTracer struct {
	Config Config

	cancelLock sync.RWMutex
	reason     error
	stop       bool

	events      []trace.Event
	openDepths  []int
	gasLimit    uint64
	consumedGas uint64
	refund      uint64

	currentMemory []byte
	currentStack  []*big.Int
}

func NewStreamTracer(config Config) *StreamTracer {
	return &StreamTracer{
		Config: config,
	}
}

func (t *StreamTracer) Cancel(err error) {
	t.cancelLock.Lock()
	defer t.cancelLock.Unlock()

	t.reason = err
	t.stop = true
}

func (t *StreamTracer) cancelled() bool {
	t.cancelLock.RLock()
	defer t.cancelLock.RUnlock()

	return t.stop
}

func (t *StreamTracer) Clear() {
	t.cancelLock.Lock()
	defer t.cancelLock.Unlock()

	t.reason = nil
	t.stop = false
	t.events = t.events[:0]
	t.openDepths = t.openDepths[:0]
	t.gasLimit = 0
	t.consumedGas = 0
	t.refund = 0
	t.currentMemory = t.currentMemory[:0]
	t.currentStack = t.currentStack[:0]
}

func (t *StreamTracer) TxStart(gasLimit uint64) {
	t.gasLimit = gasLimit
}

func (t *StreamTracer) TxEnd(gasLeft uint64) {
	t.consumedGas = t.gasLimit - gasLeft
}

func (t *StreamTracer) CallStart(
	depth int,
	from types.Address,
	to *types.Address,
	codeAddress *types.Address,
	callType int,
	isStatic bool,
	gas uint64,
	value *big.Int,
	input []byte,
) {
	if t.cancelled() {
		return
	}

	kind := trace.CallType(callType)
	if !kind.Valid() {
		t.Cancel(fmt.Errorf("unknown call type %d at depth %d", callType, depth))

		return
	}

	var val *big.Int
	if value != nil {
		val = new(big.Int).Set(value)
	}

	data := make([]byte, len(input))
	copy(data, input)

	t.events = append(t.events, &trace.Message{
		Depth:       depth,
		From:        from,
		To:          copyAddress(to),
		CodeAddress: copyAddress(codeAddress),
		CallType:    kind,
		IsStatic:    isStatic || kind == trace.StaticCall,
		GasLimit:    gas,
		Input:       data,
		Value:       val,
	})

	t.openDepths = append(t.openDepths, depth)
}

func (t *StreamTracer) CallEnd(
	depth int,
	output []byte,
	gasUsed uint64,
	err error,
) {
	if t.cancelled() {
		return
	}

	status := trace.Succeeded
	errStr := ""

	if err != nil {
		errStr = err.Error()

		if errors.Is(err, tracer.ErrExecutionReverted) {
			status = trace.Reverted
		} else {
			status = trace.Halted
		}
	}

	out := make([]byte, len(output))
	copy(out, output)

	t.events = append(t.events, &trace.MessageResult{
		Depth:       depth,
		Status:      status,
		Output:      out,
		GasUsed:     gasUsed,
		GasRefunded: t.refund,
		Err:         errStr,
	})

	if len(t.openDepths) > 0 {
		t.openDepths = t.openDepths[:len(t.openDepths)-1]
	}
}

func (t *StreamTracer) CaptureState(
	memory []byte,
	stack []*big.Int,
	opCode int,
	contractAddress types.Address,
	sp int,
	host tracer.RuntimeHost,
	state tracer.VMState,
) {
	if t.cancelled() {
		state.Halt()

		return
	}

	t.captureMemory(memory)
	t.captureStack(stack)
}

func (t *StreamTracer) captureMemory(memory []byte) {
	if !t.Config.EnableMemory {
		return
	}

	// always allocate new space to get new reference
	t.currentMemory = make([]byte, len(memory))

	copy(t.currentMemory, memory)
}

func (t *StreamTracer) captureStack(stack []*big.Int) {
	if !t.Config.EnableStack {
		return
	}

	t.currentStack = make([]*big.Int, len(stack))

	for i, v := range stack {
		t.currentStack[i] = new(big.Int).Set(v)
	}
}

func (t *StreamTracer) ExecuteState(
	contractAddress types.Address,
	ip uint64,
	opCode string,
	availableGas uint64,
	cost uint64,
	lastReturnData []byte,
	depth int,
	err error,
	host tracer.RuntimeHost,
) {
	if t.cancelled() {
		return
	}

	var (
		memory []byte
		stack  []*big.Int
	)

	if t.Config.EnableMemory {
		memory = make([]byte, len(t.currentMemory))
		copy(memory, t.currentMemory)
	}

	if t.Config.EnableStack {
		stack = make([]*big.Int, len(t.currentStack))

		for i, v := range t.currentStack {
			stack[i] = new(big.Int).Set(v)
		}
	}

	if host != nil {
		t.refund = host.GetRefund()
	}

	t.events = append(t.events, &trace.Step{
		Depth:        depth,
		Contract:     contractAddress,
		PC:           ip,
		Op:           opCode,
		RemainingGas: availableGas,
		GasCost:      cost,
		Stack:        stack,
		Memory:       memory,
	})
}

// GetResult returns the finished trace. It fails with the cancel reason
// if the tracer was cancelled, and with a nesting error if the engine
// left frames open or closed frames it never opened
func (t *StreamTracer) GetResult() (interface{}, error) {
	return t.Trace()
}

// Trace is the typed variant of GetResult
func (t *StreamTracer) Trace() (*trace.Trace, error) {
	t.cancelLock.RLock()
	defer t.cancelLock.RUnlock()

	if t.reason != nil {
		return nil, t.reason
	}

	result := trace.NewTrace(t.events)

	if err := trace.CheckWellNested(result); err != nil {
		return nil, err
	}

	return result, nil
}

// ConsumedGas returns the gas consumed by the whole transaction,
// valid after TxEnd
func (t *StreamTracer) ConsumedGas() uint64 {
	return t.consumedGas
}

func copyAddress(a *types.Address) *types.Address {
	if a == nil {
		return nil
	}

	aa := *a

	return &aa
}
