package store

import (
	"context"
	"fmt"
	"sync"
)

// Memory is a Store kept in memory.
type Memory struct {
	mu   sync.Mutex
	logs map[string][]Revision
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{logs: make(map[string][]Revision)}
}

func (m *Memory) Append(ctx context.Context, rev Revision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	log := m.logs[rev.DocID]
	if rev.Rev != len(log)+1 {
		return fmt.Errorf("%w: appending %d to %q at %d", ErrConflict, rev.Rev, rev.DocID, len(log))
	}
	rev.Change = cloneChange(rev.Change)
	m.logs[rev.DocID] = append(log, rev)
	return nil
}

func (m *Memory) Range(ctx context.Context, docID string, from, to int) ([]Revision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if from > to {
		return nil, nil
	}
	log := m.logs[docID]
	if from < 1 || to > len(log) {
		return nil, fmt.Errorf("%w: %q has revisions 1..%d, want %d..%d", ErrNotFound, docID, len(log), from, to)
	}
	revs := make([]Revision, 0, to-from+1)
	for _, rev := range log[from-1 : to] {
		rev.Change = cloneChange(rev.Change)
		revs = append(revs, rev)
	}
	return revs, nil
}

func (m *Memory) Head(ctx context.Context, docID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logs[docID]), nil
}

func (m *Memory) Close() error {
	return nil
}

var _ Store = (*Memory)(nil)
