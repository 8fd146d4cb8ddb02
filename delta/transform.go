package delta

// +-----------+
// | Transform |
// +-----------+

// Transform returns other adjusted to apply after d, both being concurrent
// changes over the same document.
//
// The priority flag decides which change happened "first" when both insert
// at the same position or format the same content. With priority, d goes
// first: its inserts are placed before other's, and its formatting wins.
//
// Time complexity: O(ops(d) + ops(other))
func (d *Delta) Transform(other *Delta, priority bool) *Delta {
	thisIter := NewIterator(d.Ops)
	otherIter := NewIterator(other.Ops)
	result := newBuilder()
	for thisIter.HasNext() || otherIter.HasNext() {
		switch {
		case thisIter.PeekType() == Insert && (priority || otherIter.PeekType() != Insert):
			// Skip over content inserted by d.
			result.retain(thisIter.Next().Length(), nil)
		case otherIter.PeekType() == Insert:
			result.push(otherIter.Next())
		default:
			n := min(thisIter.PeekLength(), otherIter.PeekLength())
			thisOp := thisIter.NextN(n)
			otherOp := otherIter.NextN(n)
			switch {
			case thisOp.Type == Delete:
				// Content is already gone.
			case otherOp.Type == Delete:
				result.push(otherOp)
			default:
				result.retain(n, TransformAttributes(thisOp.Attributes, otherOp.Attributes, priority))
			}
		}
	}
	return result.delta().Chop()
}

// TransformPosition returns where index ends up after applying d.
//
// Deletes before the index shift it left. Inserts before it shift it right,
// as do inserts exactly at it, unless priority is given to the index owner.
//
// Time complexity: O(ops)
func (d *Delta) TransformPosition(index int, priority bool) int {
	it := NewIterator(d.Ops)
	var offset int
	for it.HasNext() && offset <= index {
		n := it.PeekLength()
		typ := it.PeekType()
		it.Next()
		switch {
		case typ == Delete:
			index -= min(n, index-offset)
			continue
		case typ == Insert && (offset < index || !priority):
			index += n
		}
		offset += n
	}
	return index
}
