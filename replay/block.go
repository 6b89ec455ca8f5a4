package replay

import (
	"fmt"
	"math/big"

	"github.com/umbracle/fastrlp"

	"github.com/0xPolygon/evm-tracecheck/types"
)

// Block is the slice of an upstream block the replay needs: the header
// fields that seed the execution context plus the full transactions
type Block struct {
	Number       uint64
	Hash         types.Hash
	ParentHash   types.Hash
	Miner        types.Address
	GasLimit     uint64
	Timestamp    uint64
	Transactions []*Transaction
}

type Transaction struct {
	Hash     types.Hash
	From     types.Address
	To       *types.Address // nil for contract creation
	Input    types.HexBytes
	Gas      uint64
	GasPrice uint64
	Value    *big.Int
	Nonce    uint64
}

type marshalRLPFunc func(ar *fastrlp.Arena) *fastrlp.Value

type unmarshalRLPFunc func(p *fastrlp.Parser, v *fastrlp.Value) error

func marshalRLPTo(obj marshalRLPFunc, dst []byte) []byte {
	ar := fastrlp.DefaultArenaPool.Get()
	dst = obj(ar).MarshalTo(dst)
	fastrlp.DefaultArenaPool.Put(ar)

	return dst
}

func unmarshalRLP(obj unmarshalRLPFunc, input []byte) error {
	pr := fastrlp.DefaultParserPool.Get()
	defer fastrlp.DefaultParserPool.Put(pr)

	v, err := pr.Parse(input)
	if err != nil {
		return err
	}

	return obj(pr, v)
}

func (b *Block) MarshalRLPTo(dst []byte) []byte {
	return marshalRLPTo(b.marshalRLPWith, dst)
}

func (b *Block) marshalRLPWith(ar *fastrlp.Arena) *fastrlp.Value {
	vv := ar.NewArray()

	vv.Set(ar.NewUint(b.Number))
	vv.Set(ar.NewCopyBytes(b.Hash[:]))
	vv.Set(ar.NewCopyBytes(b.ParentHash[:]))
	vv.Set(ar.NewCopyBytes(b.Miner[:]))
	vv.Set(ar.NewUint(b.GasLimit))
	vv.Set(ar.NewUint(b.Timestamp))

	if len(b.Transactions) == 0 {
		vv.Set(ar.NewNullArray())
	} else {
		v0 := ar.NewArray()
		for _, txn := range b.Transactions {
			v0.Set(txn.marshalRLPWith(ar))
		}
		vv.Set(v0)
	}

	return vv
}

func (b *Block) UnmarshalRLP(input []byte) error {
	return unmarshalRLP(b.unmarshalRLPFrom, input)
}

func (b *Block) unmarshalRLPFrom(p *fastrlp.Parser, v *fastrlp.Value) error {
	elems, err := v.GetElems()
	if err != nil {
		return err
	}

	if len(elems) != 7 {
		return fmt.Errorf("incorrect number of elements to decode block, expected 7 but found %d", len(elems))
	}

	if b.Number, err = elems[0].GetUint64(); err != nil {
		return err
	}

	if err = elems[1].GetHash(b.Hash[:]); err != nil {
		return err
	}

	if err = elems[2].GetHash(b.ParentHash[:]); err != nil {
		return err
	}

	if err = elems[3].GetAddr(b.Miner[:]); err != nil {
		return err
	}

	if b.GasLimit, err = elems[4].GetUint64(); err != nil {
		return err
	}

	if b.Timestamp, err = elems[5].GetUint64(); err != nil {
		return err
	}

	txns, err := elems[6].GetElems()
	if err != nil {
		return err
	}

	b.Transactions = nil

	for _, txn := range txns {
		bTxn := &Transaction{}
		if err := bTxn.unmarshalRLPFrom(p, txn); err != nil {
			return err
		}

		b.Transactions = append(b.Transactions, bTxn)
	}

	return nil
}

func (t *Transaction) marshalRLPWith(ar *fastrlp.Arena) *fastrlp.Value {
	vv := ar.NewArray()

	vv.Set(ar.NewCopyBytes(t.Hash[:]))
	vv.Set(ar.NewCopyBytes(t.From[:]))

	if t.To == nil {
		vv.Set(ar.NewNull())
	} else {
		vv.Set(ar.NewCopyBytes(t.To[:]))
	}

	vv.Set(ar.NewCopyBytes(t.Input))
	vv.Set(ar.NewUint(t.Gas))
	vv.Set(ar.NewUint(t.GasPrice))

	if t.Value == nil {
		vv.Set(ar.NewBigInt(big.NewInt(0)))
	} else {
		vv.Set(ar.NewBigInt(t.Value))
	}

	vv.Set(ar.NewUint(t.Nonce))

	return vv
}

func (t *Transaction) unmarshalRLPFrom(p *fastrlp.Parser, v *fastrlp.Value) error {
	elems, err := v.GetElems()
	if err != nil {
		return err
	}

	if len(elems) != 8 {
		return fmt.Errorf("incorrect number of elements to decode transaction, expected 8 but found %d", len(elems))
	}

	if err = elems[0].GetHash(t.Hash[:]); err != nil {
		return err
	}

	if err = elems[1].GetAddr(t.From[:]); err != nil {
		return err
	}

	if bb, _ := elems[2].Bytes(); len(bb) == types.AddressLength {
		addr := types.BytesToAddress(bb)
		t.To = &addr
	} else {
		t.To = nil
	}

	input, err := elems[3].Bytes()
	if err != nil {
		return err
	}

	t.Input = nil
	if len(input) > 0 {
		t.Input = append(types.HexBytes{}, input...)
	}

	if t.Gas, err = elems[4].GetUint64(); err != nil {
		return err
	}

	if t.GasPrice, err = elems[5].GetUint64(); err != nil {
		return err
	}

	t.Value = new(big.Int)
	if err = elems[6].GetBigInt(t.Value); err != nil {
		return err
	}

	if t.Nonce, err = elems[7].GetUint64(); err != nil {
		return err
	}

	return nil
}
