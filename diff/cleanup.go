package diff

import "slices"

// cleanupMerge reorders and merges like edit sections, and merges equalities.
// Any edit section can move as long as it doesn't cross an equality.
//
// Runs of edits between two equalities become at most one delete followed by
// one insert, with their common prefix and suffix factored out into the
// surrounding equalities. Then single edits surrounded by equalities are slid
// sideways when that eliminates an equality, e.g. A<ins>BA</ins>C -> <ins>AB</ins>AC,
// repeating the whole merge while any slide happens.
func cleanupMerge(spans []span) []span {
	for {
		spans = mergeRuns(spans)
		var changed bool
		if spans, changed = shiftEdits(spans); !changed {
			return spans
		}
	}
}

func mergeRuns(spans []span) []span {
	// Dummy equality at the end collects a trailing common suffix.
	spans = append(spans, span{op: Keep})

	var (
		pointer                  int
		countDelete, countInsert int
		textDelete, textInsert   []rune
	)
	for pointer < len(spans) {
		if pointer < len(spans)-1 && len(spans[pointer].text) == 0 {
			spans = slices.Delete(spans, pointer, pointer+1)
			continue
		}
		switch spans[pointer].op {
		case Insert:
			countInsert++
			textInsert = concat(textInsert, spans[pointer].text)
			pointer++
		case Delete:
			countDelete++
			textDelete = concat(textDelete, spans[pointer].text)
			pointer++
		case Keep:
			if len(textDelete) > 0 || len(textInsert) > 0 {
				previousEquality := pointer - countInsert - countDelete - 1
				if len(textDelete) > 0 && len(textInsert) > 0 {
					// Factor out any common prefix.
					if n := commonPrefix(textInsert, textDelete); n != 0 {
						if previousEquality >= 0 {
							spans[previousEquality].text = concat(spans[previousEquality].text, textInsert[:n])
						} else {
							spans = slices.Insert(spans, 0, span{Keep, textInsert[:n]})
							pointer++
						}
						textInsert = textInsert[n:]
						textDelete = textDelete[n:]
					}
					// Factor out any common suffix.
					if n := commonSuffix(textInsert, textDelete); n != 0 {
						spans[pointer].text = concat(textInsert[len(textInsert)-n:], spans[pointer].text)
						textInsert = textInsert[:len(textInsert)-n]
						textDelete = textDelete[:len(textDelete)-n]
					}
				}
				// Replace the run with the merged records.
				n := countInsert + countDelete
				switch {
				case len(textDelete) == 0 && len(textInsert) == 0:
					spans = slices.Delete(spans, pointer-n, pointer)
					pointer -= n
				case len(textDelete) == 0:
					spans = slices.Replace(spans, pointer-n, pointer, span{Insert, textInsert})
					pointer = pointer - n + 1
				case len(textInsert) == 0:
					spans = slices.Replace(spans, pointer-n, pointer, span{Delete, textDelete})
					pointer = pointer - n + 1
				default:
					spans = slices.Replace(spans, pointer-n, pointer, span{Delete, textDelete}, span{Insert, textInsert})
					pointer = pointer - n + 2
				}
			}
			if pointer != 0 && spans[pointer-1].op == Keep {
				// Merge this equality with the previous one.
				spans[pointer-1].text = concat(spans[pointer-1].text, spans[pointer].text)
				spans = slices.Delete(spans, pointer, pointer+1)
			} else {
				pointer++
			}
			countInsert, countDelete = 0, 0
			textDelete, textInsert = nil, nil
		}
	}
	if n := len(spans); n > 0 && len(spans[n-1].text) == 0 {
		spans = spans[:n-1]
	}
	return spans
}

// shiftEdits slides single edits surrounded by equalities over one of them.
func shiftEdits(spans []span) ([]span, bool) {
	var changed bool
	// The first and last elements don't need checking.
	for pointer := 1; pointer < len(spans)-1; pointer++ {
		prev, next := spans[pointer-1], spans[pointer+1]
		if prev.op != Keep || next.op != Keep {
			continue
		}
		edit := spans[pointer].text
		switch {
		case hasSuffix(edit, prev.text):
			// Shift the edit over the previous equality.
			spans[pointer].text = concat(prev.text, edit[:len(edit)-len(prev.text)])
			spans[pointer+1].text = concat(prev.text, next.text)
			spans = slices.Delete(spans, pointer-1, pointer)
			changed = true
		case hasPrefix(edit, next.text):
			// Shift the edit over the next equality.
			spans[pointer-1].text = concat(prev.text, next.text)
			spans[pointer].text = concat(edit[len(next.text):], next.text)
			spans = slices.Delete(spans, pointer+1, pointer+2)
			changed = true
		}
	}
	return spans, changed
}
