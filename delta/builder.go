package delta

import "strings"

// builder appends ops to a Delta like Push does, but gathers a run of text
// inserts with equal attributes in a strings.Builder. Merging them one by one
// with Push would copy the whole run on every step.
type builder struct {
	d *Delta

	// open is set while text holds an insert not pushed yet.
	open  bool
	text  strings.Builder
	attrs Attributes
	// deleted counts the deletes after the open insert. Any later insert
	// would be pushed before them anyway.
	deleted int
}

func newBuilder() *builder {
	return &builder{d: New()}
}

func (b *builder) push(op Op) {
	switch {
	case op.Type == Insert && op.Embed == nil:
		if op.Text == "" {
			return
		}
		if !b.open || !sameAttributes(b.attrs, op.Attributes) {
			b.flush()
			b.open, b.attrs = true, op.Attributes
		}
		b.text.WriteString(op.Text)
	case op.Type == Delete && b.open:
		b.deleted += op.N
	default:
		b.flush()
		b.d.Push(op)
	}
}

func (b *builder) retain(n int, attrs Attributes) {
	if n > 0 {
		b.push(RetainOp(n, attrs))
	}
}

func (b *builder) delete(n int) {
	if n > 0 {
		b.push(DeleteOp(n))
	}
}

// last returns the last op pushed so far.
func (b *builder) last() Op {
	b.flush()
	return b.d.Ops[len(b.d.Ops)-1]
}

func (b *builder) flush() {
	if !b.open {
		return
	}
	b.d.Push(InsertOp(b.text.String(), b.attrs))
	b.d.Delete(b.deleted)
	b.text.Reset()
	b.open, b.attrs, b.deleted = false, nil, 0
}

// delta returns the built Delta. The builder can't be used afterwards.
func (b *builder) delta() *Delta {
	b.flush()
	return b.d
}
