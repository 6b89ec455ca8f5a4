package streamtracer

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xPolygon/evm-tracecheck/trace"
	"github.com/0xPolygon/evm-tracecheck/tracer"
	"github.com/0xPolygon/evm-tracecheck/types"
)

type mockHost struct {
	refund uint64
}

func (m *mockHost) GetRefund() uint64 {
	return m.refund
}

func (m *mockHost) GetStorage(types.Address, types.Hash) types.Hash {
	return types.ZeroHash
}

type mockVMState struct {
	halted bool
}

func (m *mockVMState) Halt() {
	m.halted = true
}

// drives the callbacks the way an engine would for a call that makes
// one nested call
func runNestedCall(t *testing.T, st *StreamTracer) {
	t.Helper()

	var (
		caller   = types.StringToAddress("0x1")
		contract = types.StringToAddress("0x2")
		inner    = types.StringToAddress("0x3")
		host     = &mockHost{}
		vmState  = &mockVMState{}
	)

	st.TxStart(100000)

	st.CallStart(1, caller, &contract, &contract, int(trace.Call), false, 100000, big.NewInt(1), []byte{0x01})

	st.CaptureState([]byte{0x10}, []*big.Int{big.NewInt(7)}, 0x60, contract, 1, host, vmState)
	st.ExecuteState(contract, 0, "PUSH1", 99997, 3, nil, 1, nil, host)

	st.CallStart(2, contract, &inner, &inner, int(trace.StaticCall), true, 50000, nil, nil)
	st.CaptureState(nil, nil, 0x00, inner, 0, host, vmState)
	st.ExecuteState(inner, 0, "STOP", 50000, 0, nil, 2, nil, host)
	st.CallEnd(2, nil, 100, nil)

	st.ExecuteState(contract, 1, "STOP", 90000, 0, nil, 1, nil, host)

	st.CallEnd(1, []byte{0xaa}, 21000, nil)
	st.TxEnd(79000)
}

func TestStreamTracer_NestedCalls(t *testing.T) {
	t.Parallel()

	st := NewStreamTracer(Config{})
	runNestedCall(t, st)

	result, err := st.Trace()
	require.NoError(t, err)
	require.Equal(t, 7, result.Len())

	require.NoError(t, trace.CheckWellNested(result))

	messages, steps, results, err := trace.Partition(result)
	require.NoError(t, err)

	require.Len(t, messages, 2)
	require.Len(t, steps, 3)
	require.Len(t, results, 2)

	outer := messages[0]
	assert.Equal(t, 1, outer.Depth)
	assert.Equal(t, trace.Call, outer.CallType)
	assert.False(t, outer.IsStatic)
	assert.Equal(t, uint64(100000), outer.GasLimit)
	assert.Equal(t, big.NewInt(1), outer.Value)

	innerMsg := messages[1]
	assert.Equal(t, 2, innerMsg.Depth)
	assert.Equal(t, trace.StaticCall, innerMsg.CallType)
	assert.True(t, innerMsg.IsStatic)
	assert.Nil(t, innerMsg.Value)

	// the inner frame closes first
	assert.Equal(t, 2, results[0].Depth)
	assert.Equal(t, uint64(100), results[0].GasUsed)
	assert.Equal(t, 1, results[1].Depth)
	assert.Equal(t, types.HexBytes{0xaa}, results[1].Output)

	assert.Equal(t, uint64(21000), st.ConsumedGas())
}

func TestStreamTracer_SnapshotCapture(t *testing.T) {
	t.Parallel()

	t.Run("capture disabled", func(t *testing.T) {
		t.Parallel()

		st := NewStreamTracer(Config{})
		runNestedCall(t, st)

		result, err := st.Trace()
		require.NoError(t, err)

		steps, err := trace.Steps(result)
		require.NoError(t, err)

		for _, step := range steps {
			assert.Nil(t, step.Memory)
			assert.Nil(t, step.Stack)
		}
	})

	t.Run("capture enabled", func(t *testing.T) {
		t.Parallel()

		st := NewStreamTracer(Config{EnableMemory: true, EnableStack: true})
		runNestedCall(t, st)

		result, err := st.Trace()
		require.NoError(t, err)

		steps, err := trace.Steps(result)
		require.NoError(t, err)
		require.Len(t, steps, 3)

		assert.Equal(t, []byte{0x10}, steps[0].Memory)
		require.Len(t, steps[0].Stack, 1)
		assert.Equal(t, big.NewInt(7), steps[0].Stack[0])
	})
}

func TestStreamTracer_DelegateCallCodeAddress(t *testing.T) {
	t.Parallel()

	st := NewStreamTracer(Config{})

	var (
		proxy = types.StringToAddress("0x2")
		impl  = types.StringToAddress("0x3")
	)

	st.CallStart(1, types.StringToAddress("0x1"), &proxy, &impl, int(trace.DelegateCall), false, 100000, nil, nil)
	st.CallEnd(1, nil, 5000, nil)

	result, err := st.Trace()
	require.NoError(t, err)

	messages, err := trace.Messages(result)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	// the proxy receives the call, the implementation's code runs
	require.NotNil(t, messages[0].To)
	require.NotNil(t, messages[0].CodeAddress)
	assert.Equal(t, proxy, *messages[0].To)
	assert.Equal(t, impl, *messages[0].CodeAddress)
}

func TestStreamTracer_RevertedFrame(t *testing.T) {
	t.Parallel()

	st := NewStreamTracer(Config{})
	contract := types.StringToAddress("0x2")

	st.CallStart(1, types.StringToAddress("0x1"), &contract, &contract, int(trace.Call), false, 100000, nil, nil)
	st.CallEnd(1, []byte{0x08}, 30000, tracer.ErrExecutionReverted)

	result, err := st.Trace()
	require.NoError(t, err)

	results, err := trace.Results(result)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, trace.Reverted, results[0].Status)
	assert.Equal(t, tracer.ErrExecutionReverted.Error(), results[0].Err)
}

func TestStreamTracer_HaltedFrame(t *testing.T) {
	t.Parallel()

	st := NewStreamTracer(Config{})
	contract := types.StringToAddress("0x2")

	st.CallStart(1, types.StringToAddress("0x1"), &contract, &contract, int(trace.Call), false, 100, nil, nil)
	st.CallEnd(1, nil, 100, errors.New("out of gas"))

	result, err := st.Trace()
	require.NoError(t, err)

	results, err := trace.Results(result)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, trace.Halted, results[0].Status)
	assert.Equal(t, "out of gas", results[0].Err)
}

func TestStreamTracer_Cancel(t *testing.T) {
	t.Parallel()

	st := NewStreamTracer(Config{})
	reason := errors.New("timeout")

	st.Cancel(reason)

	vmState := &mockVMState{}
	st.CaptureState(nil, nil, 0, types.ZeroAddress, 0, &mockHost{}, vmState)
	assert.True(t, vmState.halted)

	_, err := st.Trace()
	require.ErrorIs(t, err, reason)
}

func TestStreamTracer_UnknownCallType(t *testing.T) {
	t.Parallel()

	st := NewStreamTracer(Config{})

	st.CallStart(1, types.ZeroAddress, nil, nil, 42, false, 0, nil, nil)

	_, err := st.Trace()
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown call type")
}

func TestStreamTracer_UnterminatedFrame(t *testing.T) {
	t.Parallel()

	st := NewStreamTracer(Config{})
	contract := types.StringToAddress("0x2")

	st.CallStart(1, types.StringToAddress("0x1"), &contract, &contract, int(trace.Call), false, 100000, nil, nil)

	_, err := st.Trace()
	require.ErrorIs(t, err, trace.ErrUnterminatedFrame)
}

func TestStreamTracer_Clear(t *testing.T) {
	t.Parallel()

	st := NewStreamTracer(Config{EnableMemory: true, EnableStack: true})
	runNestedCall(t, st)
	st.Cancel(errors.New("stop"))

	st.Clear()

	result, err := st.Trace()
	require.NoError(t, err)
	assert.Zero(t, result.Len())
	assert.Zero(t, st.ConsumedGas())
}

func TestStreamTracer_SnapshotsAreCopies(t *testing.T) {
	t.Parallel()

	st := NewStreamTracer(Config{EnableMemory: true, EnableStack: true})

	var (
		contract = types.StringToAddress("0x2")
		memory   = []byte{0x01}
		stack    = []*big.Int{big.NewInt(5)}
		host     = &mockHost{}
	)

	st.CallStart(1, types.StringToAddress("0x1"), &contract, &contract, int(trace.Call), false, 100000, nil, nil)
	st.CaptureState(memory, stack, 0x60, contract, 1, host, &mockVMState{})

	// mutate the engine-owned buffers after the capture
	memory[0] = 0xff
	stack[0].SetInt64(9)

	st.ExecuteState(contract, 0, "PUSH1", 100000, 3, nil, 1, nil, host)
	st.CallEnd(1, nil, 0, nil)

	result, err := st.Trace()
	require.NoError(t, err)

	steps, err := trace.Steps(result)
	require.NoError(t, err)
	require.Len(t, steps, 1)

	assert.Equal(t, []byte{0x01}, steps[0].Memory)
	assert.Equal(t, big.NewInt(5), steps[0].Stack[0])
}
