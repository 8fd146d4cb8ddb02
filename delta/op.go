package delta

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// OpType is the kind of an op.
type OpType int

const (
	// Retain keeps content, optionally changing its formatting.
	Retain OpType = iota
	// Insert adds text or an embed.
	Insert
	// Delete removes content.
	Delete
)

func (t OpType) String() string {
	switch t {
	case Retain:
		return "retain"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	}
	return fmt.Sprintf("OpType(%d)", int(t))
}

// Embed is non-text content, like an image or a formula. It is atomic and has length 1.
type Embed map[string]any

// Op is a single insert, retain or delete.
//
// Lengths are measured in runes. Each embed counts as one.
type Op struct {
	Type OpType
	// Text is the content of a text insert.
	Text string
	// Embed is the content of an embed insert, and nil for text.
	Embed Embed
	// N is the length of a retain or delete.
	N int
	// Unbounded marks the retain returned by an exhausted Iterator, that
	// retains everything that follows. It's never part of a Delta.
	Unbounded bool
	// Attributes is the formatting of an insert or retain.
	Attributes Attributes
}

// InsertOp returns an op inserting text.
func InsertOp(text string, attrs Attributes) Op {
	return Op{Type: Insert, Text: text, Attributes: attrs}
}

// EmbedOp returns an op inserting an embed.
func EmbedOp(embed Embed, attrs Attributes) Op {
	if embed == nil {
		embed = Embed{}
	}
	return Op{Type: Insert, Embed: embed, Attributes: attrs}
}

// RetainOp returns an op retaining n runes.
func RetainOp(n int, attrs Attributes) Op {
	return Op{Type: Retain, N: n, Attributes: attrs}
}

// DeleteOp returns an op deleting n runes.
func DeleteOp(n int) Op {
	return Op{Type: Delete, N: n}
}

// IsEmbed returns whether op inserts an embed.
func (op Op) IsEmbed() bool {
	return op.Type == Insert && op.Embed != nil
}

// Length returns the number of runes covered by op. An unbounded retain has
// length math.MaxInt.
func (op Op) Length() int {
	switch {
	case op.Type == Insert && op.Embed != nil:
		return 1
	case op.Type == Insert:
		return utf8.RuneCountInString(op.Text)
	case op.Unbounded:
		return math.MaxInt
	}
	return op.N
}

func (op Op) String() string {
	var s string
	switch {
	case op.IsEmbed():
		s = fmt.Sprintf("insert %v", map[string]any(op.Embed))
	case op.Type == Insert:
		s = fmt.Sprintf("insert %q", op.Text)
	case op.Unbounded:
		s = "retain ∞"
	default:
		s = fmt.Sprintf("%v %d", op.Type, op.N)
	}
	if len(op.Attributes) > 0 {
		s += fmt.Sprintf(" %v", map[string]any(op.Attributes))
	}
	return s
}

func cloneOp(op Op) Op {
	op.Attributes = cloneAttributes(op.Attributes)
	if op.Embed != nil {
		op.Embed = cloneMap(op.Embed)
	}
	return op
}

// +---------+
// | Strings |
// +---------+

// runeOffset returns the byte offset n runes after byte offset from.
func runeOffset(s string, from, n int) int {
	for ; n > 0 && from < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[from:])
		from += size
	}
	return from
}

// runeIndex returns the rune index of the first r in s, or -1.
func runeIndex(s string, r rune) int {
	i := strings.IndexRune(s, r)
	if i < 0 {
		return -1
	}
	return utf8.RuneCountInString(s[:i])
}
