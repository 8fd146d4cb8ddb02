/*
Package diff computes character-level differences between two strings.

The algorithm is Myers' O(ND) bisection [1] with the speedups popularized by
diff-match-patch [2]: common prefix and suffix trimming, containment checks and
a half-match split that trades minimality for speed on large, mostly similar
inputs.

Texts are compared as sequences of Unicode scalar values. Every boundary of
the returned operations falls between two runes, so an operation never splits
an encoded character.

[1]: MYERS, EUGENE W. An O(ND) difference algorithm and its variations.
[2]: https://github.com/google/diff-match-patch
*/
package diff

import (
	"slices"
	"unicode/utf8"
)

// OpType is the kind of a diff operation.
type OpType int

const (
	// Keep marks text present in both strings.
	Keep OpType = iota
	// Insert marks text present only in the new string.
	Insert
	// Delete marks text present only in the old string.
	Delete
)

func (op OpType) String() string {
	switch op {
	case Keep:
		return "keep"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	}
	return "unknown"
}

// Operation is a run of text kept, inserted or deleted.
type Operation struct {
	Op   OpType
	Text string
}

// Len returns the length of the operation text in runes.
func (o Operation) Len() int {
	return utf8.RuneCountInString(o.Text)
}

// Example: abcd -> xabdy
//
//   Insert "x"
//   Keep   "ab"
//   Delete "c"
//   Keep   "d"
//   Insert "y"
//
// Concatenating Keep and Delete texts spells the old string, and Keep and
// Insert texts the new one.

// Diff returns the sequence of keeps, insertions and deletions that transforms s1 into s2.
func Diff(s1, s2 string) []Operation {
	if s1 == s2 {
		return equalOperations(s1)
	}
	return toOperations(diffMain([]rune(s1), []rune(s2)))
}

// DiffCursor is like Diff, but first tries to express the change as a single
// splice around the given cursor. This resolves ambiguous edits, like deleting
// one of many repeated characters, to the position where the user typed.
func DiffCursor(s1, s2 string, cursor Cursor) []Operation {
	if s1 == s2 {
		return equalOperations(s1)
	}
	text1, text2 := []rune(s1), []rune(s2)
	if spans := findCursorEdit(text1, text2, cursor); spans != nil {
		return toOperations(spans)
	}
	return toOperations(diffMain(text1, text2))
}

// Distance returns the number of runes inserted or deleted to transform s1 into s2.
func Distance(s1, s2 string) int {
	var dist int
	for _, op := range Diff(s1, s2) {
		if op.Op != Keep {
			dist += op.Len()
		}
	}
	return dist
}

func equalOperations(s string) []Operation {
	if s == "" {
		return nil
	}
	return []Operation{{Op: Keep, Text: s}}
}

// +----------------+
// | Core algorithm |
// +----------------+

// span is an operation over a rune slice. Slices may alias the input texts and
// must never be appended to in place; use concat.
type span struct {
	op   OpType
	text []rune
}

func toOperations(spans []span) []Operation {
	if len(spans) == 0 {
		return nil
	}
	ops := make([]Operation, len(spans))
	for i, s := range spans {
		ops[i] = Operation{Op: s.op, Text: string(s.text)}
	}
	return ops
}

func diffMain(text1, text2 []rune) []span {
	if slices.Equal(text1, text2) {
		if len(text1) == 0 {
			return nil
		}
		return []span{{Keep, text1}}
	}

	n := commonPrefix(text1, text2)
	prefix := text1[:n]
	text1, text2 = text1[n:], text2[n:]

	n = commonSuffix(text1, text2)
	suffix := text1[len(text1)-n:]
	text1, text2 = text1[:len(text1)-n], text2[:len(text2)-n]

	spans := compute(text1, text2)
	if len(prefix) > 0 {
		spans = slices.Insert(spans, 0, span{Keep, prefix})
	}
	if len(suffix) > 0 {
		spans = append(spans, span{Keep, suffix})
	}
	return cleanupMerge(spans)
}

// compute diffs two texts that have no common prefix or suffix.
func compute(text1, text2 []rune) []span {
	if len(text1) == 0 {
		return []span{{Insert, text2}}
	}
	if len(text2) == 0 {
		return []span{{Delete, text1}}
	}

	long, short := text2, text1
	if len(text1) > len(text2) {
		long, short = text1, text2
	}
	if i := indexFrom(long, short, 0); i >= 0 {
		// Shorter text is inside the longer one.
		op := Insert
		if len(text1) > len(text2) {
			op = Delete
		}
		return []span{
			{op, long[:i]},
			{Keep, short},
			{op, long[i+len(short):]},
		}
	}
	if len(short) == 1 {
		// After the containment check, a single char can't be kept.
		return []span{{Delete, text1}, {Insert, text2}}
	}

	if hm := findHalfMatch(text1, text2); hm != nil {
		spans := diffMain(hm.text1A, hm.text2A)
		spans = append(spans, span{Keep, hm.common})
		return append(spans, diffMain(hm.text1B, hm.text2B)...)
	}
	return bisect(text1, text2)
}

// bisect finds the middle snake of the edit graph, splits the problem in two
// and diffs each half.
func bisect(text1, text2 []rune) []span {
	n1, n2 := len(text1), len(text2)
	maxD := (n1 + n2 + 1) / 2
	vOffset := maxD
	vLength := 2 * maxD

	v1 := make([]int, vLength)
	v2 := make([]int, vLength)
	for i := range v1 {
		v1[i] = -1
		v2[i] = -1
	}
	v1[vOffset+1] = 0
	v2[vOffset+1] = 0

	delta := n1 - n2
	// With an odd total length, the forward path is the one that collides.
	front := delta%2 != 0
	// Offsets for start and end of k loops, preventing mapping of space beyond the grid.
	var k1start, k1end, k2start, k2end int
	for d := 0; d < maxD; d++ {
		// Walk the forward path one step.
		for k1 := -d + k1start; k1 <= d-k1end; k1 += 2 {
			k1Offset := vOffset + k1
			var x1 int
			if k1 == -d || (k1 != d && v1[k1Offset-1] < v1[k1Offset+1]) {
				x1 = v1[k1Offset+1]
			} else {
				x1 = v1[k1Offset-1] + 1
			}
			y1 := x1 - k1
			for x1 < n1 && y1 < n2 && text1[x1] == text2[y1] {
				x1++
				y1++
			}
			v1[k1Offset] = x1
			switch {
			case x1 > n1:
				// Ran off the right of the graph.
				k1end += 2
			case y1 > n2:
				// Ran off the bottom of the graph.
				k1start += 2
			case front:
				k2Offset := vOffset + delta - k1
				if k2Offset >= 0 && k2Offset < vLength && v2[k2Offset] != -1 {
					// Mirror x2 onto top-left coordinate system.
					if x2 := n1 - v2[k2Offset]; x1 >= x2 {
						return bisectSplit(text1, text2, x1, y1)
					}
				}
			}
		}

		// Walk the reverse path one step.
		for k2 := -d + k2start; k2 <= d-k2end; k2 += 2 {
			k2Offset := vOffset + k2
			var x2 int
			if k2 == -d || (k2 != d && v2[k2Offset-1] < v2[k2Offset+1]) {
				x2 = v2[k2Offset+1]
			} else {
				x2 = v2[k2Offset-1] + 1
			}
			y2 := x2 - k2
			for x2 < n1 && y2 < n2 && text1[n1-x2-1] == text2[n2-y2-1] {
				x2++
				y2++
			}
			v2[k2Offset] = x2
			switch {
			case x2 > n1:
				// Ran off the left of the graph.
				k2end += 2
			case y2 > n2:
				// Ran off the top of the graph.
				k2start += 2
			case !front:
				k1Offset := vOffset + delta - k2
				if k1Offset >= 0 && k1Offset < vLength && v1[k1Offset] != -1 {
					x1 := v1[k1Offset]
					y1 := vOffset + x1 - k1Offset
					if x1 >= n1-x2 {
						return bisectSplit(text1, text2, x1, y1)
					}
				}
			}
		}
	}
	// No commonality at all.
	return []span{{Delete, text1}, {Insert, text2}}
}

func bisectSplit(text1, text2 []rune, x, y int) []span {
	spans := diffMain(text1[:x], text2[:y])
	return append(spans, diffMain(text1[x:], text2[y:])...)
}

// +------------+
// | Half match |
// +------------+

type halfMatch struct {
	text1A, text1B []rune
	text2A, text2B []rune
	common         []rune
}

// findHalfMatch checks whether the two texts share a substring at least half
// the length of the longer one. The texts around it can be diffed separately.
func findHalfMatch(text1, text2 []rune) *halfMatch {
	long, short := text2, text1
	if len(text1) > len(text2) {
		long, short = text1, text2
	}
	if len(long) < 4 || len(short)*2 < len(long) {
		return nil
	}

	// Seed with the second quarter, then with the third.
	hm1 := halfMatchAt(long, short, (len(long)+3)/4)
	hm2 := halfMatchAt(long, short, (len(long)+1)/2)
	var hm *halfMatch
	switch {
	case hm1 == nil && hm2 == nil:
		return nil
	case hm2 == nil:
		hm = hm1
	case hm1 == nil:
		hm = hm2
	case len(hm1.common) > len(hm2.common):
		hm = hm1
	default:
		hm = hm2
	}

	// halfMatchAt returns the long text as text1.
	if len(text1) > len(text2) {
		return hm
	}
	return &halfMatch{
		text1A: hm.text2A,
		text1B: hm.text2B,
		text2A: hm.text1A,
		text2B: hm.text1B,
		common: hm.common,
	}
}

// halfMatchAt looks for the longest substring of short around a quarter-length
// seed of long starting at i.
func halfMatchAt(long, short []rune, i int) *halfMatch {
	seed := long[i : i+len(long)/4]
	var best *halfMatch
	var bestLen int
	for j := indexFrom(short, seed, 0); j != -1; j = indexFrom(short, seed, j+1) {
		prefixLen := commonPrefix(long[i:], short[j:])
		suffixLen := commonSuffix(long[:i], short[:j])
		if bestLen < prefixLen+suffixLen {
			bestLen = prefixLen + suffixLen
			best = &halfMatch{
				text1A: long[:i-suffixLen],
				text1B: long[i+prefixLen:],
				text2A: short[:j-suffixLen],
				text2B: short[j+prefixLen:],
				common: short[j-suffixLen : j+prefixLen],
			}
		}
	}
	if bestLen*2 < len(long) {
		return nil
	}
	return best
}

// +---------+
// | Helpers |
// +---------+

// commonPrefix returns the length of the common prefix, halving the search
// window at each step.
func commonPrefix(text1, text2 []rune) int {
	if len(text1) == 0 || len(text2) == 0 || text1[0] != text2[0] {
		return 0
	}
	lo, hi := 0, min(len(text1), len(text2))
	mid, start := hi, 0
	for lo < mid {
		if slices.Equal(text1[start:mid], text2[start:mid]) {
			lo = mid
			start = lo
		} else {
			hi = mid
		}
		mid = (hi-lo)/2 + lo
	}
	return mid
}

// commonSuffix returns the length of the common suffix, halving the search
// window at each step.
func commonSuffix(text1, text2 []rune) int {
	n1, n2 := len(text1), len(text2)
	if n1 == 0 || n2 == 0 || text1[n1-1] != text2[n2-1] {
		return 0
	}
	lo, hi := 0, min(n1, n2)
	mid, end := hi, 0
	for lo < mid {
		if slices.Equal(text1[n1-mid:n1-end], text2[n2-mid:n2-end]) {
			lo = mid
			end = lo
		} else {
			hi = mid
		}
		mid = (hi-lo)/2 + lo
	}
	return mid
}

// indexFrom returns the index of the first occurrence of pattern in text at
// or after from, or -1.
func indexFrom(text, pattern []rune, from int) int {
	for i := from; i+len(pattern) <= len(text); i++ {
		if slices.Equal(text[i:i+len(pattern)], pattern) {
			return i
		}
	}
	return -1
}

// concat joins rune slices into a fresh slice, leaving the originals untouched.
func concat(parts ...[]rune) []rune {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]rune, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func hasPrefix(text, prefix []rune) bool {
	return len(text) >= len(prefix) && slices.Equal(text[:len(prefix)], prefix)
}

func hasSuffix(text, suffix []rune) bool {
	return len(text) >= len(suffix) && slices.Equal(text[len(text)-len(suffix):], suffix)
}
