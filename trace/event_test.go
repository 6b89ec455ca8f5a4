package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallType_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "CALL", Call.String())
	assert.Equal(t, "DELEGATECALL", DelegateCall.String())
	assert.Equal(t, "CREATE2", Create2.String())
	assert.Equal(t, "UNKNOWN", CallType(42).String())

	assert.True(t, StaticCall.Valid())
	assert.False(t, CallType(42).Valid())
}

func TestResultStatus_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "SUCCEEDED", Succeeded.String())
	assert.Equal(t, "REVERTED", Reverted.String())
	assert.Equal(t, "HALTED", Halted.String())
	assert.Equal(t, "UNKNOWN", ResultStatus(42).String())

	assert.True(t, (&MessageResult{Status: Succeeded}).Succeeded())
	assert.False(t, (&MessageResult{Status: Reverted}).Succeeded())
}
