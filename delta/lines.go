package delta

import "fmt"

// EachLine calls fn with each line of document d, split at '\n'. See EachLineSep.
func (d *Delta) EachLine(fn func(line *Delta, attrs Attributes, i int) bool) error {
	return d.EachLineSep('\n', fn)
}

// EachLineSep calls fn with the i-th line of document d, without its newline,
// and the attributes of the newline that ends it. The last line is only
// visited if it's not empty, with nil attributes.
//
// The closure should return 'false' to cut the iteration short, as in a
// 'break' statement. Otherwise, return true.
//
// Lines are visited until the first op that isn't an insert, and then
// ErrNotDocument is returned, rather than stopping silently as Quill does.
func (d *Delta) EachLineSep(newline rune, fn func(line *Delta, attrs Attributes, i int) bool) error {
	it := NewIterator(d.Ops)
	line := New()
	var i int
	for it.HasNext() {
		if typ := it.PeekType(); typ != Insert {
			return fmt.Errorf("%w: line %d has a %v", ErrNotDocument, i, typ)
		}
		op, _ := it.Peek()
		index := -1
		if op.Embed == nil {
			index = runeIndex(op.Text[it.byteOffset:], newline)
		}
		switch {
		case index < 0:
			line.Push(it.Next())
		case index > 0:
			line.Push(it.NextN(index))
		default:
			attrs := cloneAttributes(it.NextN(1).Attributes)
			if !fn(line, attrs, i) {
				return nil
			}
			i++
			line = New()
		}
	}
	if line.Length() > 0 {
		fn(line, nil, i)
	}
	return nil
}
