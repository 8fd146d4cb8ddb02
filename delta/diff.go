package delta

import (
	"fmt"
	"strings"

	"github.com/brunokim/delta/diff"
)

// Embeds are diffed as this placeholder rune, so two embeds at the same
// position are always aligned and then compared as a whole.
const embedPlaceholder = '\x00'

// Diff returns the change that transforms document d into document other.
// It fails with ErrNotDocument if either of them has a retain or a delete.
func (d *Delta) Diff(other *Delta) (*Delta, error) {
	return d.diff(other, nil)
}

// DiffWithCursor is like Diff, using the cursor position to resolve ambiguous
// edits to where the user most likely typed.
func (d *Delta) DiffWithCursor(other *Delta, cursor diff.Cursor) (*Delta, error) {
	return d.diff(other, &cursor)
}

func (d *Delta) diff(other *Delta, cursor *diff.Cursor) (*Delta, error) {
	if d == other {
		return New(), nil
	}
	text1, err := documentText(d)
	if err != nil {
		return nil, fmt.Errorf("diff() called with non-document: %w", err)
	}
	text2, err := documentText(other)
	if err != nil {
		return nil, fmt.Errorf("diff() called on non-document: %w", err)
	}

	var ops []diff.Operation
	if cursor != nil {
		ops = diff.DiffCursor(text1, text2, *cursor)
	} else {
		ops = diff.Diff(text1, text2)
	}

	result := newBuilder()
	thisIter := NewIterator(d.Ops)
	otherIter := NewIterator(other.Ops)
	for _, op := range ops {
		for n := op.Len(); n > 0; {
			var opLen int
			switch op.Op {
			case diff.Insert:
				opLen = min(otherIter.PeekLength(), n)
				result.push(otherIter.NextN(opLen))
			case diff.Delete:
				opLen = min(thisIter.PeekLength(), n)
				thisIter.NextN(opLen)
				result.delete(opLen)
			case diff.Keep:
				opLen = min(thisIter.PeekLength(), otherIter.PeekLength(), n)
				thisOp := thisIter.NextN(opLen)
				otherOp := otherIter.NextN(opLen)
				if sameContent(thisOp, otherOp) {
					result.retain(opLen, DiffAttributes(thisOp.Attributes, otherOp.Attributes))
				} else {
					// Only embeds differ under the same placeholder.
					result.push(otherOp)
					result.delete(opLen)
				}
			}
			n -= opLen
		}
	}
	return result.delta().Chop(), nil
}

// documentText flattens a document into text, with a placeholder rune for each embed.
func documentText(d *Delta) (string, error) {
	var b strings.Builder
	for i, op := range d.Ops {
		switch {
		case op.Type != Insert:
			return "", fmt.Errorf("%w: op #%d is a %v", ErrNotDocument, i, op.Type)
		case op.Embed != nil:
			b.WriteRune(embedPlaceholder)
		default:
			b.WriteString(op.Text)
		}
	}
	return b.String(), nil
}

func sameContent(a, b Op) bool {
	if a.IsEmbed() || b.IsEmbed() {
		return a.IsEmbed() && b.IsEmbed() && deepEqual(a.Embed, b.Embed)
	}
	return a.Text == b.Text
}
