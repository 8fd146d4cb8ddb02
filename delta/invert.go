package delta

// Invert returns the change that undoes d, where base is the document d was applied to:
//
//	base.Compose(d).Compose(d.Invert(base)) == base
//
// Time complexity: O(ops(d) * ops(base))
func (d *Delta) Invert(base *Delta) *Delta {
	inverted := newBuilder()
	var baseIndex int
	for _, op := range d.Ops {
		switch {
		case op.Type == Insert:
			inverted.delete(op.Length())
		case op.Type == Retain && len(op.Attributes) == 0:
			inverted.retain(op.N, nil)
			baseIndex += op.N
		default:
			for _, baseOp := range base.Slice(baseIndex, baseIndex+op.N).Ops {
				if op.Type == Delete {
					// Bring back deleted content.
					inverted.push(baseOp)
				} else {
					inverted.retain(baseOp.Length(), InvertAttributes(op.Attributes, baseOp.Attributes))
				}
			}
			baseIndex += op.N
		}
	}
	return inverted.delta().Chop()
}
