package ot_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/brunokim/delta/delta"
	"github.com/brunokim/delta/ot"
	"github.com/brunokim/delta/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newServer(t *testing.T, s store.Store) *ot.Server {
	return ot.NewServer(ot.Options{Store: s, Logger: zaptest.NewLogger(t)})
}

func requireDocument(t *testing.T, server *ot.Server, docID string, wantRev int, want *delta.Delta) {
	t.Helper()
	doc, rev, err := server.Document(context.Background(), docID)
	require.NoError(t, err)
	require.Equal(t, wantRev, rev)
	require.True(t, want.Equal(doc), "want %v, got %v", want, doc)
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	server := newServer(t, nil)

	rev, err := server.Submit(ctx, "doc", 0, delta.New().Insert("Gandalf the Grey", nil), "alice")
	require.NoError(t, err)
	require.Equal(t, 1, rev.Rev)
	require.Equal(t, "alice", rev.Author)

	// Alice and Bob edit revision 1 concurrently.
	_, err = server.Submit(ctx, "doc", 1, delta.New().Retain(12, nil).Insert("White", nil).Delete(4), "alice")
	require.NoError(t, err)
	rev, err = server.Submit(ctx, "doc", 1, delta.New().Retain(7, delta.Attributes{"bold": true}), "bob")
	require.NoError(t, err)
	require.Equal(t, 3, rev.Rev)

	requireDocument(t, server, "doc", 3, delta.New().
		Insert("Gandalf", delta.Attributes{"bold": true}).
		Insert(" the White", nil))
}

func TestSubmitConcurrentInsertsAtSamePosition(t *testing.T) {
	ctx := context.Background()
	server := newServer(t, nil)

	_, err := server.Submit(ctx, "doc", 0, delta.New().Insert("ac", nil), "")
	require.NoError(t, err)
	_, err = server.Submit(ctx, "doc", 1, delta.New().Retain(1, nil).Insert("B", nil), "alice")
	require.NoError(t, err)
	_, err = server.Submit(ctx, "doc", 1, delta.New().Retain(1, nil).Insert("b", nil), "bob")
	require.NoError(t, err)

	// The first committed insert goes first.
	requireDocument(t, server, "doc", 3, delta.New().Insert("aBbc", nil))
}

func TestSubmitErrors(t *testing.T) {
	ctx := context.Background()
	server := newServer(t, nil)
	_, err := server.Submit(ctx, "doc", 0, delta.New().Insert("abc", nil), "alice")
	require.NoError(t, err)

	_, err = server.Submit(ctx, "doc", 2, delta.New().Insert("x", nil), "alice")
	require.ErrorIs(t, err, ot.ErrRevisionOutOfRange)
	_, err = server.Submit(ctx, "doc", -1, delta.New().Insert("x", nil), "alice")
	require.ErrorIs(t, err, ot.ErrRevisionOutOfRange)
	_, err = server.Submit(ctx, "doc", 1, delta.New().Retain(2, nil).Delete(2), "alice")
	require.ErrorIs(t, err, ot.ErrInvalidChange)

	requireDocument(t, server, "doc", 1, delta.New().Insert("abc", nil))
}

func TestSubmitNoop(t *testing.T) {
	ctx := context.Background()
	server := newServer(t, nil)
	_, err := server.Submit(ctx, "doc", 0, delta.New().Insert("abc", nil), "alice")
	require.NoError(t, err)
	ch, cancel := server.Subscribe("doc")
	defer cancel()

	for _, change := range []*delta.Delta{
		nil,
		delta.New(),
		delta.New().Retain(3, nil),
		delta.New(delta.RetainOp(0, nil), delta.DeleteOp(0), delta.InsertOp("", nil)),
	} {
		rev, err := server.Submit(ctx, "doc", 1, change, "alice")
		require.NoError(t, err)
		require.Equal(t, 1, rev.Rev)
		require.Empty(t, rev.Change.Ops)
	}

	// Bob deletes what Alice has already deleted.
	_, err = server.Submit(ctx, "doc", 1, delta.New().Retain(1, nil).Delete(1), "alice")
	require.NoError(t, err)
	rev, err := server.Submit(ctx, "doc", 1, delta.New().Retain(1, nil).Delete(1), "bob")
	require.NoError(t, err)
	require.Equal(t, 2, rev.Rev)

	require.Equal(t, 2, (<-ch).Rev)
	require.Empty(t, ch)
	revs, err := server.Since(ctx, "doc", 1)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	requireDocument(t, server, "doc", 2, delta.New().Insert("ac", nil))
}

func TestSubmitNormalizesChange(t *testing.T) {
	ctx := context.Background()
	server := newServer(t, nil)

	change := delta.New(
		delta.InsertOp("ab", nil),
		delta.DeleteOp(0),
		delta.InsertOp("c", nil),
	)
	rev, err := server.Submit(ctx, "doc", 0, change, "alice")
	require.NoError(t, err)
	require.Equal(t, []delta.Op{delta.InsertOp("abc", nil)}, rev.Change.Ops)

	revs, err := server.Since(ctx, "doc", 0)
	require.NoError(t, err)
	require.Equal(t, []delta.Op{delta.InsertOp("abc", nil)}, revs[0].Change.Ops)
}

func TestSubmitDocument(t *testing.T) {
	ctx := context.Background()
	server := newServer(t, nil)
	_, err := server.Submit(ctx, "doc", 0, delta.New().Insert("aaa", nil), "alice")
	require.NoError(t, err)

	// Bob deletes the first "a", as told by his cursor.
	rev, err := server.SubmitDocument(ctx, "doc", 1, delta.New().Insert("aa", nil), 1, "bob")
	require.NoError(t, err)
	require.True(t, delta.New().Delete(1).Equal(rev.Change), "got %v", rev.Change)

	// Alice formats the whole document based on revision 1.
	rev, err = server.SubmitDocument(ctx, "doc", 1, delta.New().Insert("aaa", delta.Attributes{"bold": true}), -1, "alice")
	require.NoError(t, err)
	require.True(t, delta.New().Retain(2, delta.Attributes{"bold": true}).Equal(rev.Change), "got %v", rev.Change)

	requireDocument(t, server, "doc", 3, delta.New().Insert("aa", delta.Attributes{"bold": true}))
}

func TestUndo(t *testing.T) {
	ctx := context.Background()
	server := newServer(t, nil)
	_, err := server.Submit(ctx, "doc", 0, delta.New().Insert("Hello World", nil), "alice")
	require.NoError(t, err)
	_, err = server.Submit(ctx, "doc", 1, delta.New().Retain(6, nil).Delete(5).Insert("Moon", nil), "alice")
	require.NoError(t, err)
	_, err = server.Submit(ctx, "doc", 2, delta.New().Insert("> ", nil), "bob")
	require.NoError(t, err)

	// Undoing Alice's change keeps Bob's.
	rev, err := server.Undo(ctx, "doc", 2, "alice")
	require.NoError(t, err)
	require.Equal(t, 4, rev.Rev)
	requireDocument(t, server, "doc", 4, delta.New().Insert("> Hello World", nil))

	_, err = server.Undo(ctx, "doc", 0, "alice")
	require.ErrorIs(t, err, ot.ErrRevisionOutOfRange)
}

func TestTransformIndex(t *testing.T) {
	ctx := context.Background()
	server := newServer(t, nil)
	_, err := server.Submit(ctx, "doc", 0, delta.New().Insert("abc", nil), "alice")
	require.NoError(t, err)
	_, err = server.Submit(ctx, "doc", 1, delta.New().Insert("xy", nil), "bob")
	require.NoError(t, err)
	_, err = server.Submit(ctx, "doc", 2, delta.New().Retain(3, nil).Delete(1), "bob")
	require.NoError(t, err)

	index, err := server.TransformIndex(ctx, "doc", 1, 2)
	require.NoError(t, err)
	require.Equal(t, 3, index)
}

func TestReloadFromStore(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	server := newServer(t, s)
	_, err := server.Submit(ctx, "doc", 0, delta.New().Insert("abc", nil), "alice")
	require.NoError(t, err)
	_, err = server.Submit(ctx, "doc", 1, delta.New().Retain(1, delta.Attributes{"bold": true}), "alice")
	require.NoError(t, err)

	restarted := newServer(t, s)
	requireDocument(t, restarted, "doc", 2, delta.New().Insert("a", delta.Attributes{"bold": true}).Insert("bc", nil))

	revs, err := restarted.Since(ctx, "doc", 1)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	require.Equal(t, 2, revs[0].Rev)
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	server := newServer(t, nil)
	ch, cancel := server.Subscribe("doc")

	_, err := server.Submit(ctx, "doc", 0, delta.New().Insert("a", nil), "alice")
	require.NoError(t, err)
	_, err = server.Submit(ctx, "other", 0, delta.New().Insert("b", nil), "alice")
	require.NoError(t, err)

	rev := <-ch
	require.Equal(t, "doc", rev.DocID)
	require.Equal(t, 1, rev.Rev)

	cancel()
	cancel()
	_, ok := <-ch
	require.False(t, ok, "channel should be closed")

	_, err = server.Submit(ctx, "doc", 1, delta.New().Insert("c", nil), "alice")
	require.NoError(t, err)
}

// Many clients typing at the start of their last seen revision always converge.
func TestConcurrentClients(t *testing.T) {
	ctx := context.Background()
	server := newServer(t, nil)
	const numClients, numEdits = 8, 20

	var wg sync.WaitGroup
	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < numEdits; j++ {
				_, rev, err := server.Document(ctx, "doc")
				if err != nil {
					t.Error(err)
					return
				}
				text := fmt.Sprintf("%c", 'a'+i)
				if _, err := server.Submit(ctx, "doc", rev, delta.New().Insert(text, nil), ""); err != nil {
					t.Error(err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	doc, rev, err := server.Document(ctx, "doc")
	require.NoError(t, err)
	require.Equal(t, numClients*numEdits, rev)
	require.Equal(t, numClients*numEdits, doc.Length())

	replayed, err := server.DocumentAt(ctx, "doc", rev)
	require.NoError(t, err)
	require.True(t, doc.Equal(replayed), "want %v, got %v", doc, replayed)
}
