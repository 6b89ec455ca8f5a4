package replay

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xPolygon/evm-tracecheck/types"
)

func newTestBlock() *Block {
	to := types.StringToAddress("0xbb")

	return &Block{
		Number:     18000000,
		Hash:       types.StringToHash("0x01"),
		ParentHash: types.StringToHash("0x02"),
		Miner:      types.StringToAddress("0x03"),
		GasLimit:   30000000,
		Timestamp:  1693000000,
		Transactions: []*Transaction{
			{
				Hash:     types.StringToHash("0x10"),
				From:     types.StringToAddress("0xaa"),
				To:       &to,
				Input:    types.HexBytes{0xde, 0xad},
				Gas:      21000,
				GasPrice: 30000000000,
				Value:    big.NewInt(1000000000),
				Nonce:    7,
			},
			{
				// contract creation, no recipient
				Hash:  types.StringToHash("0x11"),
				From:  types.StringToAddress("0xaa"),
				Input: types.HexBytes{0x60, 0x80},
				Gas:   1000000,
				Value: big.NewInt(0),
				Nonce: 8,
			},
		},
	}
}

func TestBlock_RLPRoundTrip(t *testing.T) {
	t.Parallel()

	original := newTestBlock()

	encoded := original.MarshalRLPTo(nil)
	require.NotEmpty(t, encoded)

	decoded := &Block{}
	require.NoError(t, decoded.UnmarshalRLP(encoded))

	assert.Equal(t, original.Number, decoded.Number)
	assert.Equal(t, original.Hash, decoded.Hash)
	assert.Equal(t, original.ParentHash, decoded.ParentHash)
	assert.Equal(t, original.Miner, decoded.Miner)
	assert.Equal(t, original.GasLimit, decoded.GasLimit)
	assert.Equal(t, original.Timestamp, decoded.Timestamp)

	require.Len(t, decoded.Transactions, 2)
	assert.Equal(t, original.Transactions[0], decoded.Transactions[0])

	creation := decoded.Transactions[1]
	assert.Nil(t, creation.To)
	assert.Equal(t, original.Transactions[1].Input, creation.Input)
}

func TestBlock_RLPEmptyBlock(t *testing.T) {
	t.Parallel()

	original := &Block{
		Number: 1,
		Hash:   types.StringToHash("0x01"),
	}

	decoded := &Block{}
	require.NoError(t, decoded.UnmarshalRLP(original.MarshalRLPTo(nil)))

	assert.Equal(t, original.Number, decoded.Number)
	assert.Empty(t, decoded.Transactions)
}

func TestBlock_RLPGarbageInput(t *testing.T) {
	t.Parallel()

	decoded := &Block{}
	require.Error(t, decoded.UnmarshalRLP([]byte{0xff, 0x00, 0x01}))
}
