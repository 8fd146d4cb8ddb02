package delta_test

import (
	"fmt"

	"github.com/brunokim/delta/delta"
)

// Showcasing the main operations over documents and changes.
func Example() {
	// Create a document and a change making part of it italic.
	doc := delta.New().
		Insert("Hello", nil).
		Insert(" World", delta.Attributes{"bold": true})
	change := delta.New().
		Retain(5, nil).
		Retain(6, delta.Attributes{"italic": true})
	fmt.Println("doc:", doc)
	fmt.Println("change:", change)

	// Apply the change, and then undo it.
	edited := doc.Compose(change)
	fmt.Println("edited:", edited)
	fmt.Println("undone:", edited.Compose(change.Invert(doc)))

	// Recover the change from both documents.
	diff, _ := doc.Diff(edited)
	fmt.Println("diff:", diff)
	// Output:
	// doc: {"ops":[{"insert":"Hello"},{"insert":" World","attributes":{"bold":true}}]}
	// change: {"ops":[{"retain":5},{"retain":6,"attributes":{"italic":true}}]}
	// edited: {"ops":[{"insert":"Hello"},{"insert":" World","attributes":{"bold":true,"italic":true}}]}
	// undone: {"ops":[{"insert":"Hello"},{"insert":" World","attributes":{"bold":true}}]}
	// diff: {"ops":[{"retain":5},{"retain":6,"attributes":{"italic":true}}]}
}

// Two users edit the same document concurrently, and exchange their changes.
func ExampleDelta_Transform() {
	doc := delta.New().Insert("Gandalf the Grey", nil)

	// Alice makes Gandalf white, while Bob makes him bold.
	alice := delta.New().Retain(12, nil).Insert("White", nil).Delete(4)
	bob := delta.New().Retain(7, delta.Attributes{"bold": true})

	// Each one receives the other's change transformed against their own.
	// Alice's change was accepted first, so it has priority.
	atAlice := doc.Compose(alice).Compose(alice.Transform(bob, true))
	atBob := doc.Compose(bob).Compose(bob.Transform(alice, false))
	fmt.Println("alice:", atAlice)
	fmt.Println("bob:  ", atBob)

	// A cursor after "Grey" moves to after "White".
	fmt.Println("cursor:", alice.TransformPosition(16, false))
	// Output:
	// alice: {"ops":[{"insert":"Gandalf","attributes":{"bold":true}},{"insert":" the White"}]}
	// bob:   {"ops":[{"insert":"Gandalf","attributes":{"bold":true}},{"insert":" the White"}]}
	// cursor: 17
}

// Iterating over lines of a document.
func ExampleDelta_EachLine() {
	doc := delta.New().
		Insert("Title", nil).
		Insert("\n", delta.Attributes{"header": 1}).
		Insert("Some text\n", nil)
	doc.EachLine(func(line *delta.Delta, attrs delta.Attributes, i int) bool {
		fmt.Println(i, line, attrs)
		return true
	})
	// Output:
	// 0 {"ops":[{"insert":"Title"}]} map[header:1]
	// 1 {"ops":[{"insert":"Some text"}]} map[]
}
