// Package store persists the revision log of collaborative documents.
//
// A document starts empty at revision 0, and each committed change creates
// the next revision. Revisions are write-once: the log only grows at its head.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/brunokim/delta/delta"
)

var (
	ErrConflict = errors.New("revision is not the next in the log")
	ErrNotFound = errors.New("revision not found")
)

// Revision is a change committed to a document.
type Revision struct {
	DocID  string       `json:"doc"`
	Rev    int          `json:"rev"`
	Author string       `json:"author"`
	Change *delta.Delta `json:"change"`
	Time   time.Time    `json:"time"`
}

// Store is a revision log for many documents.
type Store interface {
	// Append adds rev to the log of its document. It fails with ErrConflict
	// if rev.Rev is not the head revision plus one.
	Append(ctx context.Context, rev Revision) error
	// Range returns revisions from..to of a document, inclusive, in ascending
	// order. It fails with ErrNotFound if any of them is missing.
	Range(ctx context.Context, docID string, from, to int) ([]Revision, error)
	// Head returns the latest revision number of a document, or 0 if it has none.
	Head(ctx context.Context, docID string) (int, error)
	// Close releases the resources held by the store.
	Close() error
}

// cloneChange copies a change so that a store never aliases its caller's
// deltas. A nil change is stored as an empty one.
func cloneChange(d *delta.Delta) *delta.Delta {
	if d == nil {
		return delta.New()
	}
	return d.Clone()
}
