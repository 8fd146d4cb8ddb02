package diff

import "slices"

// Range is a selection within a text, measured in runes.
type Range struct {
	Index  int
	Length int
}

// Cursor describes the user selection around an edit.
type Cursor struct {
	// Old is the selection in the old text.
	Old Range
	// New is the selection in the new text, or nil if unknown.
	New *Range
}

// CursorAt returns a collapsed cursor at index in the old text.
func CursorAt(index int) Cursor {
	return Cursor{Old: Range{Index: index}}
}

// findCursorEdit tries to express the change from old to new as one splice
// next to the cursor: an insert or delete right before or after a collapsed
// cursor, or a replacement of the selected range. It returns nil when the
// cursor doesn't determine a unique splice. old and new must differ.
func findCursorEdit(old, new []rune, cursor Cursor) []span {
	oldRange, newRange := cursor.Old, cursor.New
	if oldRange.Index < 0 || oldRange.Index > len(old) || oldRange.Length < 0 {
		return nil
	}
	if oldRange.Length == 0 && (newRange == nil || newRange.Length == 0) {
		if spans := editBeforeCursor(old, new, oldRange.Index, newRange); spans != nil {
			return spans
		}
		if spans := editAfterCursor(old, new, oldRange.Index, newRange); spans != nil {
			return spans
		}
	}
	if oldRange.Length > 0 && newRange != nil && newRange.Length == 0 {
		return replaceRange(old, new, oldRange)
	}
	return nil
}

// editBeforeCursor checks for an insert or delete right before the old cursor.
func editBeforeCursor(old, new []rune, oldCursor int, newRange *Range) []span {
	newCursor := oldCursor + len(new) - len(old)
	if newRange != nil && newRange.Index != newCursor {
		return nil
	}
	if newCursor < 0 || newCursor > len(new) {
		return nil
	}
	oldBefore, oldAfter := old[:oldCursor], old[oldCursor:]
	newBefore, newAfter := new[:newCursor], new[newCursor:]
	if !slices.Equal(newAfter, oldAfter) {
		return nil
	}
	prefixLen := min(oldCursor, newCursor)
	if !slices.Equal(oldBefore[:prefixLen], newBefore[:prefixLen]) {
		return nil
	}
	return makeSplice(oldBefore[:prefixLen], oldBefore[prefixLen:], newBefore[prefixLen:], oldAfter)
}

// editAfterCursor checks for an insert or delete right after the old cursor.
func editAfterCursor(old, new []rune, cursor int, newRange *Range) []span {
	if newRange != nil && newRange.Index != cursor {
		return nil
	}
	if cursor > len(new) {
		return nil
	}
	oldBefore, oldAfter := old[:cursor], old[cursor:]
	newBefore, newAfter := new[:cursor], new[cursor:]
	if !slices.Equal(newBefore, oldBefore) {
		return nil
	}
	suffixLen := min(len(oldAfter), len(newAfter))
	oldSuffix := oldAfter[len(oldAfter)-suffixLen:]
	newSuffix := newAfter[len(newAfter)-suffixLen:]
	if !slices.Equal(oldSuffix, newSuffix) {
		return nil
	}
	return makeSplice(oldBefore, oldAfter[:len(oldAfter)-suffixLen], newAfter[:len(newAfter)-suffixLen], oldSuffix)
}

// replaceRange checks whether the selected old range was replaced.
func replaceRange(old, new []rune, oldRange Range) []span {
	end := oldRange.Index + oldRange.Length
	if end > len(old) {
		return nil
	}
	oldPrefix, oldSuffix := old[:oldRange.Index], old[end:]
	prefixLen, suffixLen := len(oldPrefix), len(oldSuffix)
	if len(new) < prefixLen+suffixLen {
		return nil
	}
	newPrefix, newSuffix := new[:prefixLen], new[len(new)-suffixLen:]
	if !slices.Equal(oldPrefix, newPrefix) || !slices.Equal(oldSuffix, newSuffix) {
		return nil
	}
	oldMiddle := old[prefixLen : len(old)-suffixLen]
	newMiddle := new[prefixLen : len(new)-suffixLen]
	return makeSplice(oldPrefix, oldMiddle, newMiddle, oldSuffix)
}

func makeSplice(before, oldMiddle, newMiddle, after []rune) []span {
	spans := make([]span, 0, 4)
	for _, s := range []span{
		{Keep, before},
		{Delete, oldMiddle},
		{Insert, newMiddle},
		{Keep, after},
	} {
		if len(s.text) > 0 {
			spans = append(spans, s)
		}
	}
	return spans
}
