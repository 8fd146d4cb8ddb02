package delta

// +---------+
// | Compose |
// +---------+

// Compose returns a Delta equivalent to applying d and then other.
//
// Time complexity: O(ops(d) + ops(other))
func (d *Delta) Compose(other *Delta) *Delta {
	thisIter := NewIterator(d.Ops)
	otherIter := NewIterator(other.Ops)
	result := newBuilder()

	// A leading plain retain leaves the inserts it covers untouched.
	if first, ok := otherIter.Peek(); ok && first.Type == Retain && len(first.Attributes) == 0 {
		firstLeft := first.N
		for thisIter.PeekType() == Insert && thisIter.PeekLength() <= firstLeft {
			firstLeft -= thisIter.PeekLength()
			result.push(thisIter.Next())
		}
		if n := first.N - firstLeft; n > 0 {
			otherIter.NextN(n)
		}
	}

	for thisIter.HasNext() || otherIter.HasNext() {
		switch {
		case otherIter.PeekType() == Insert:
			// Later inserts always survive.
			result.push(otherIter.Next())
		case thisIter.PeekType() == Delete:
			// Deleted content can't be touched by later changes.
			result.push(thisIter.Next())
		default:
			n := min(thisIter.PeekLength(), otherIter.PeekLength())
			thisOp := thisIter.NextN(n)
			otherOp := otherIter.NextN(n)
			switch {
			case otherOp.Type == Retain:
				op := thisOp
				if thisOp.Type == Retain {
					op = RetainOp(n, nil)
				}
				// A nil attribute is still a removal over a retain, but
				// means nothing over an insert.
				op.Attributes = ComposeAttributes(thisOp.Attributes, otherOp.Attributes, thisOp.Type == Retain)
				result.push(op)

				// Once other is exhausted, the rest of d passes through unchanged.
				if !otherIter.HasNext() && deepEqual(result.last(), op) {
					return result.delta().concat(thisIter.Rest()).Chop()
				}
			case otherOp.Type == Delete && thisOp.Type == Retain:
				result.push(otherOp)
			}
			// An insert from d deleted by other vanishes.
		}
	}
	return result.delta().Chop()
}
