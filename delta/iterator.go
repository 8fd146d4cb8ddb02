package delta

import (
	"math"
	"slices"
)

// Iterator walks over a list of ops, possibly consuming a fraction of each.
//
// Past the last op, an iterator behaves as if the list ended with an
// unbounded retain.
type Iterator struct {
	ops   []Op
	index int
	// offset is in runes, and byteOffset is the same position in the text
	// of the current op.
	offset     int
	byteOffset int
	// length of the current op, or -1 if not counted yet.
	length int
}

// NewIterator returns an iterator at the start of ops.
func NewIterator(ops []Op) *Iterator {
	return &Iterator{ops: ops, length: -1}
}

func (it *Iterator) opLength() int {
	if it.length < 0 {
		it.length = it.ops[it.index].Length()
	}
	return it.length
}

// HasNext returns whether there are ops left to consume.
func (it *Iterator) HasNext() bool {
	return it.index < len(it.ops)
}

// Next consumes the remainder of the current op.
func (it *Iterator) Next() Op {
	return it.NextN(math.MaxInt)
}

// NextN consumes up to n runes of the current op, returning them as an op of
// the same type and attributes. It never crosses to the following op. A
// non-positive n consumes the whole remainder.
func (it *Iterator) NextN(n int) Op {
	if it.index >= len(it.ops) {
		return Op{Type: Retain, Unbounded: true}
	}
	op := it.ops[it.index]
	from, to := it.byteOffset, len(op.Text)
	if rest := it.opLength() - it.offset; n <= 0 || n >= rest {
		n = rest
		it.index++
		it.offset, it.byteOffset, it.length = 0, 0, -1
	} else {
		it.offset += n
		if op.Type == Insert && op.Embed == nil {
			it.byteOffset = runeOffset(op.Text, from, n)
			to = it.byteOffset
		}
	}
	switch {
	case op.Type == Delete:
		return DeleteOp(n)
	case op.Type == Retain:
		return RetainOp(n, op.Attributes)
	case op.Embed != nil:
		return op
	}
	return InsertOp(op.Text[from:to], op.Attributes)
}

// Peek returns the current op as a whole, regardless of how much of it was consumed.
func (it *Iterator) Peek() (Op, bool) {
	if it.index >= len(it.ops) {
		return Op{}, false
	}
	return it.ops[it.index], true
}

// PeekLength returns the length left in the current op, or math.MaxInt at the end.
func (it *Iterator) PeekLength() int {
	if it.index >= len(it.ops) {
		return math.MaxInt
	}
	return it.opLength() - it.offset
}

// PeekType returns the type of the current op, or Retain at the end.
func (it *Iterator) PeekType() OpType {
	if it.index >= len(it.ops) {
		return Retain
	}
	return it.ops[it.index].Type
}

// Rest returns the ops not consumed yet, without advancing the iterator.
func (it *Iterator) Rest() []Op {
	switch {
	case !it.HasNext():
		return nil
	case it.offset == 0:
		return slices.Clone(it.ops[it.index:])
	}
	saved := *it
	next := it.Next()
	rest := append([]Op{next}, it.ops[it.index:]...)
	*it = saved
	return rest
}
