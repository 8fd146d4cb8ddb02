/*
Package delta implements rich text documents and changes as lists of
operations, and the algorithms of operational transformation over them.

A Delta is a list of inserts, retains and deletes. A Delta made only of
inserts is a document: it spells some content with its formatting. Any other
Delta is a change, to be applied over a document of at least the length it
retains and deletes.

  # BEGIN ASCII ART

  document:  insert "Gandalf" {bold} | insert " the " | insert "Grey" {color:#ccc}
  change:    retain 12               | retain 4 {color:#fff}
  composed:  insert "Gandalf" {bold} | insert " the " | insert "Grey" {color:#fff}

  # END ASCII ART
  # ALT TEXT: A document with three inserts, a change that retains the first 12 characters
              and recolors the next 4, and the document obtained by composing them.

Given two concurrent changes a and b over the same document, the changes
converge after exchanging their transformed versions:

  a.Compose(a.Transform(b, true)) == b.Compose(b.Transform(a, false))

The Delta format and algorithms follow Quill's rich text model [1].

[1]: https://github.com/slab/delta
*/
package delta

import (
	"errors"
	"slices"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var (
	ErrNotDocument = errors.New("delta is not a document")
	ErrUnbounded   = errors.New("unbounded retain can't be serialized")
	ErrInvalidOp   = errors.New("op must have one of insert, retain or delete")
)

// Delta is a list of ops describing a document or a change to a document.
//
// A Delta is not safe for concurrent mutation, but the OT algorithms only
// read their operands and return new values.
type Delta struct {
	Ops []Op
}

// New returns a Delta with the given ops, copied as they are, without normalization.
func New(ops ...Op) *Delta {
	return &Delta{Ops: slices.Clone(ops)}
}

// +---------+
// | Builder |
// +---------+

// Insert appends an insertion of text. Empty text is ignored.
func (d *Delta) Insert(text string, attrs Attributes) *Delta {
	if text == "" {
		return d
	}
	return d.Push(InsertOp(text, attrs))
}

// InsertEmbed appends an insertion of an embed.
func (d *Delta) InsertEmbed(embed Embed, attrs Attributes) *Delta {
	return d.Push(EmbedOp(embed, attrs))
}

// Delete appends a deletion of n runes. Non-positive lengths are ignored.
func (d *Delta) Delete(n int) *Delta {
	if n <= 0 {
		return d
	}
	return d.Push(DeleteOp(n))
}

// Retain appends a retain of n runes. Non-positive lengths are ignored.
func (d *Delta) Retain(n int, attrs Attributes) *Delta {
	if n <= 0 {
		return d
	}
	return d.Push(RetainOp(n, attrs))
}

// Push appends a copy of op, keeping the Delta's canonical form:
//
//   - adjacent deletes are merged;
//   - an insert right after a delete is moved before it;
//   - adjacent text inserts or retains with equal attributes are merged.
func (d *Delta) Push(op Op) *Delta {
	op = cloneOp(op)
	index := len(d.Ops)
	if index == 0 {
		d.Ops = append(d.Ops, op)
		return d
	}
	last := &d.Ops[index-1]
	if op.Type == Delete && last.Type == Delete {
		last.N += op.N
		return d
	}
	// Inserting before or after a delete at the same index is the same
	// change, so inserts always come first.
	if op.Type == Insert && last.Type == Delete {
		index--
		if index == 0 {
			d.Ops = slices.Insert(d.Ops, 0, op)
			return d
		}
		last = &d.Ops[index-1]
	}
	if sameAttributes(op.Attributes, last.Attributes) {
		switch {
		case op.Type == Insert && last.Type == Insert && op.Embed == nil && last.Embed == nil:
			last.Text += op.Text
			return d
		case op.Type == Retain && last.Type == Retain:
			last.N += op.N
			return d
		}
	}
	d.Ops = slices.Insert(d.Ops, index, op)
	return d
}

// Normalize returns a copy of d in canonical form, as if built op by op with
// Push, without empty ops nor a trailing retain without attributes.
func (d *Delta) Normalize() *Delta {
	b := newBuilder()
	for _, op := range d.Ops {
		if op.Type != Insert && (op.N <= 0 || op.Unbounded) {
			continue
		}
		b.push(op)
	}
	return b.delta().Chop()
}

// Chop removes a trailing retain without attributes, which has no effect.
func (d *Delta) Chop() *Delta {
	if n := len(d.Ops); n > 0 {
		if last := d.Ops[n-1]; last.Type == Retain && len(last.Attributes) == 0 {
			d.Ops = d.Ops[:n-1]
		}
	}
	return d
}

// +------------+
// | Properties |
// +------------+

// Length returns the sum of the lengths of all ops.
func (d *Delta) Length() int {
	var n int
	for _, op := range d.Ops {
		n += op.Length()
	}
	return n
}

// ChangeLength returns how much the length of a document changes after
// applying d: inserts add to it, and deletes subtract.
func (d *Delta) ChangeLength() int {
	var n int
	for _, op := range d.Ops {
		switch op.Type {
		case Insert:
			n += op.Length()
		case Delete:
			n -= op.N
		}
	}
	return n
}

// BaseLength returns the minimum length of a document d may be applied to,
// that is, the sum of all retains and deletes.
func (d *Delta) BaseLength() int {
	var n int
	for _, op := range d.Ops {
		if op.Type != Insert {
			n += op.N
		}
	}
	return n
}

// IsDocument returns whether d is made only of inserts.
func (d *Delta) IsDocument() bool {
	for _, op := range d.Ops {
		if op.Type != Insert {
			return false
		}
	}
	return true
}

// Equal returns whether both deltas have the same ops.
func (d *Delta) Equal(other *Delta) bool {
	return cmp.Equal(d.Ops, other.Ops, cmpopts.EquateEmpty())
}

// +--------+
// | Slices |
// +--------+

// Clone returns a deep copy of d.
func (d *Delta) Clone() *Delta {
	ops := make([]Op, len(d.Ops))
	for i, op := range d.Ops {
		ops[i] = cloneOp(op)
	}
	return &Delta{Ops: ops}
}

// Slice returns the ops within the rune range [start, end). Use math.MaxInt
// as end to slice until the end.
//
// Time complexity: O(ops)
func (d *Delta) Slice(start, end int) *Delta {
	result := New()
	it := NewIterator(d.Ops)
	for index := 0; index < end && it.HasNext(); {
		var op Op
		if index < start {
			op = it.NextN(start - index)
		} else {
			op = it.NextN(end - index)
			result.Push(op)
		}
		index += op.Length()
	}
	return result
}

// Concat returns a new Delta with the ops of d followed by the ops of other.
func (d *Delta) Concat(other *Delta) *Delta {
	return d.Clone().concat(other.Ops)
}

// concat appends ops to d in place. Only the first op is pushed, as the
// remaining ones are already in canonical form relative to each other.
func (d *Delta) concat(ops []Op) *Delta {
	if len(ops) == 0 {
		return d
	}
	d.Push(ops[0])
	for _, op := range ops[1:] {
		d.Ops = append(d.Ops, cloneOp(op))
	}
	return d
}

// +------------------+
// | Functional utils |
// +------------------+

// Filter returns the ops satisfying pred.
func (d *Delta) Filter(pred func(op Op, i int) bool) []Op {
	var ops []Op
	for i, op := range d.Ops {
		if pred(op, i) {
			ops = append(ops, op)
		}
	}
	return ops
}

// ForEach calls fn with each op.
func (d *Delta) ForEach(fn func(op Op, i int)) {
	for i, op := range d.Ops {
		fn(op, i)
	}
}

// Partition splits the ops between the ones satisfying pred and the ones that don't.
func (d *Delta) Partition(pred func(op Op) bool) (passed, failed []Op) {
	for _, op := range d.Ops {
		if pred(op) {
			passed = append(passed, op)
		} else {
			failed = append(failed, op)
		}
	}
	return passed, failed
}

// Map returns the result of fn over each op of d.
func Map[T any](d *Delta, fn func(op Op, i int) T) []T {
	out := make([]T, len(d.Ops))
	for i, op := range d.Ops {
		out[i] = fn(op, i)
	}
	return out
}

// Reduce folds the ops of d into an accumulator, starting from initial.
func Reduce[T any](d *Delta, fn func(acc T, op Op, i int) T, initial T) T {
	acc := initial
	for i, op := range d.Ops {
		acc = fn(acc, op, i)
	}
	return acc
}
