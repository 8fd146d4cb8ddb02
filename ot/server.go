// Package ot serves collaborative documents over a revision log.
//
// Clients submit changes made over some revision they have seen. The server
// transforms each change against the revisions committed since then, so that
// it applies over the latest document, and commits it as the next revision.
//
//	# BEGIN ASCII ART
//
//	rev:      1      2      3
//	log:   ──[a]────[b]────[c]──
//	               ╰──── x (base 1)
//	x' = c.T(b.T(x)) is committed as revision 4.
//
//	# END ASCII ART
//	# ALT TEXT: A revision log with three revisions a, b, c. A change x based on
//	            revision 1 is transformed against b and c before being committed.
package ot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/brunokim/delta/delta"
	"github.com/brunokim/delta/diff"
	"github.com/brunokim/delta/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrRevisionOutOfRange = errors.New("revision out of range")
	ErrInvalidChange      = errors.New("change doesn't apply to document")
)

// Options configure a Server.
type Options struct {
	// Store holds the revision log. Defaults to an in-memory store.
	Store store.Store
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// Now returns the commit time of revisions. Defaults to time.Now.
	Now func() time.Time
	// SubscriberBuffer is the number of revisions buffered for each
	// subscriber before they start being dropped. Defaults to 64.
	SubscriberBuffer int
}

// Server is a collaboration server for many documents.
//
// Changes to the same document are serialized, and changes to different
// documents proceed concurrently.
type Server struct {
	store      store.Store
	logger     *zap.Logger
	now        func() time.Time
	bufferSize int

	mu   sync.Mutex
	docs map[string]*document
}

type document struct {
	sync.Mutex

	id      string
	loaded  bool
	content *delta.Delta
	rev     int

	subscribers map[int]chan store.Revision
	nextSubID   int
}

// NewServer returns a server over the given options.
func NewServer(opts Options) *Server {
	s := &Server{
		store:      opts.Store,
		logger:     opts.Logger,
		now:        opts.Now,
		bufferSize: opts.SubscriberBuffer,
		docs:       make(map[string]*document),
	}
	if s.store == nil {
		s.store = store.NewMemory()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.bufferSize <= 0 {
		s.bufferSize = 64
	}
	return s
}

func (s *Server) document(docID string) *document {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok {
		doc = &document{
			id:          docID,
			subscribers: make(map[int]chan store.Revision),
		}
		s.docs[docID] = doc
	}
	return doc
}

// load rebuilds the document from its revisions on first access. Must be
// called with the document lock held.
func (s *Server) load(ctx context.Context, doc *document) error {
	if doc.loaded {
		return nil
	}
	head, err := s.store.Head(ctx, doc.id)
	if err != nil {
		return fmt.Errorf("error loading %q: %w", doc.id, err)
	}
	content, err := s.contentAt(ctx, doc.id, head)
	if err != nil {
		return err
	}
	doc.content, doc.rev, doc.loaded = content, head, true
	s.logger.Debug("loaded document", zap.String("doc", doc.id), zap.Int("rev", head))
	return nil
}

// contentAt composes the first rev revisions of a document.
func (s *Server) contentAt(ctx context.Context, docID string, rev int) (*delta.Delta, error) {
	revs, err := s.store.Range(ctx, docID, 1, rev)
	if err != nil {
		return nil, fmt.Errorf("error reading revisions of %q: %w", docID, err)
	}
	content := delta.New()
	for _, r := range revs {
		content = content.Compose(r.Change)
	}
	return content, nil
}

// +-------+
// | Reads |
// +-------+

// Document returns a copy of the latest content of a document and its revision.
func (s *Server) Document(ctx context.Context, docID string) (*delta.Delta, int, error) {
	doc := s.document(docID)
	doc.Lock()
	defer doc.Unlock()
	if err := s.load(ctx, doc); err != nil {
		return nil, 0, err
	}
	return doc.content.Clone(), doc.rev, nil
}

// DocumentAt returns the content of a document at a past revision.
func (s *Server) DocumentAt(ctx context.Context, docID string, rev int) (*delta.Delta, error) {
	doc := s.document(docID)
	doc.Lock()
	defer doc.Unlock()
	if err := s.checkRevision(ctx, doc, rev); err != nil {
		return nil, err
	}
	return s.contentAt(ctx, docID, rev)
}

// Since returns the revisions committed after rev.
func (s *Server) Since(ctx context.Context, docID string, rev int) ([]store.Revision, error) {
	doc := s.document(docID)
	doc.Lock()
	defer doc.Unlock()
	if err := s.checkRevision(ctx, doc, rev); err != nil {
		return nil, err
	}
	return s.store.Range(ctx, docID, rev+1, doc.rev)
}

// TransformIndex returns where an index in the document at rev is in the
// latest document. Inserts exactly at the index push it forward.
func (s *Server) TransformIndex(ctx context.Context, docID string, rev, index int) (int, error) {
	revs, err := s.Since(ctx, docID, rev)
	if err != nil {
		return 0, err
	}
	for _, r := range revs {
		index = r.Change.TransformPosition(index, false)
	}
	return index, nil
}

func (s *Server) checkRevision(ctx context.Context, doc *document, rev int) error {
	if err := s.load(ctx, doc); err != nil {
		return err
	}
	if rev < 0 || rev > doc.rev {
		return fmt.Errorf("%w: %d is not within 0..%d of %q", ErrRevisionOutOfRange, rev, doc.rev, doc.id)
	}
	return nil
}

// +--------+
// | Writes |
// +--------+

// Submit commits a change made over revision baseRev of a document, and
// returns the committed revision.
//
// The change is transformed against every revision after baseRev. These were
// committed first, so they have priority on concurrent inserts at the same
// position and on conflicting formats. If author is empty, a random one is
// assigned.
//
// A change that has no effect, by itself or after being transformed, is not
// committed. The returned revision then has the latest revision number and an
// empty change.
func (s *Server) Submit(ctx context.Context, docID string, baseRev int, change *delta.Delta, author string) (store.Revision, error) {
	if change == nil {
		change = delta.New()
	}
	change = change.Normalize()
	if author == "" {
		author = uuid.NewString()
	}
	log := s.logger.With(zap.String("doc", docID), zap.Int("base", baseRev), zap.String("author", author))

	doc := s.document(docID)
	doc.Lock()
	defer doc.Unlock()
	if err := s.checkRevision(ctx, doc, baseRev); err != nil {
		return store.Revision{}, err
	}
	concurrent, err := s.store.Range(ctx, docID, baseRev+1, doc.rev)
	if err != nil {
		return store.Revision{}, fmt.Errorf("error reading concurrent revisions: %w", err)
	}
	for _, r := range concurrent {
		change = r.Change.Transform(change, true)
	}
	if n, length := change.BaseLength(), doc.content.Length(); n > length {
		return store.Revision{}, fmt.Errorf("%w: change spans %d runes over document with %d", ErrInvalidChange, n, length)
	}
	if len(change.Ops) == 0 {
		log.Debug("ignored empty change", zap.Int("rev", doc.rev))
		return store.Revision{DocID: docID, Rev: doc.rev, Author: author, Change: change}, nil
	}

	rev := store.Revision{
		DocID:  docID,
		Rev:    doc.rev + 1,
		Author: author,
		Change: change,
		Time:   s.now(),
	}
	if err := s.store.Append(ctx, rev); err != nil {
		return store.Revision{}, fmt.Errorf("error committing revision %d: %w", rev.Rev, err)
	}
	doc.content = doc.content.Compose(change)
	doc.rev = rev.Rev
	log.Info("committed revision", zap.Int("rev", rev.Rev), zap.Int("concurrent", len(concurrent)))

	s.broadcast(doc, rev, log)
	return rev, nil
}

// SubmitDocument commits the difference between the document at baseRev and
// content, as if the author had typed it. cursor is the author's cursor in
// the document at baseRev, used to place ambiguous edits, or negative if
// unknown.
func (s *Server) SubmitDocument(ctx context.Context, docID string, baseRev int, content *delta.Delta, cursor int, author string) (store.Revision, error) {
	base, err := s.DocumentAt(ctx, docID, baseRev)
	if err != nil {
		return store.Revision{}, err
	}
	var change *delta.Delta
	if cursor >= 0 {
		change, err = base.DiffWithCursor(content, diff.CursorAt(cursor))
	} else {
		change, err = base.Diff(content)
	}
	if err != nil {
		return store.Revision{}, fmt.Errorf("%w: %v", ErrInvalidChange, err)
	}
	return s.Submit(ctx, docID, baseRev, change, author)
}

// Undo commits the inverse of revision rev, transformed over the revisions
// that followed it.
func (s *Server) Undo(ctx context.Context, docID string, rev int, author string) (store.Revision, error) {
	if rev < 1 {
		return store.Revision{}, fmt.Errorf("%w: can't undo revision %d", ErrRevisionOutOfRange, rev)
	}
	base, err := s.DocumentAt(ctx, docID, rev-1)
	if err != nil {
		return store.Revision{}, err
	}
	revs, err := s.store.Range(ctx, docID, rev, rev)
	if err != nil {
		return store.Revision{}, fmt.Errorf("error reading revision %d: %w", rev, err)
	}
	return s.Submit(ctx, docID, rev, revs[0].Change.Invert(base), author)
}

// +---------------+
// | Subscriptions |
// +---------------+

// Subscribe returns a channel receiving each revision committed to a
// document from now on. Revisions are dropped if the subscriber falls too
// far behind; it may catch up with Since. cancel closes the channel.
func (s *Server) Subscribe(docID string) (<-chan store.Revision, func()) {
	doc := s.document(docID)
	doc.Lock()
	defer doc.Unlock()
	id := doc.nextSubID
	doc.nextSubID++
	ch := make(chan store.Revision, s.bufferSize)
	doc.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			doc.Lock()
			defer doc.Unlock()
			delete(doc.subscribers, id)
			close(ch)
		})
	}
	return ch, cancel
}

// broadcast must be called with the document lock held.
func (s *Server) broadcast(doc *document, rev store.Revision, log *zap.Logger) {
	for id, ch := range doc.subscribers {
		r := rev
		r.Change = rev.Change.Clone()
		select {
		case ch <- r:
		default:
			log.Warn("dropped revision for slow subscriber", zap.Int("rev", rev.Rev), zap.Int("subscriber", id))
		}
	}
}
