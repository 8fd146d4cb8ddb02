package delta_test

import (
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/brunokim/delta/delta"
)

func TestCompose(t *testing.T) {
	red := delta.Attributes{"bold": true, "color": "red"}
	tests := []struct {
		desc       string
		a, b, want *delta.Delta
	}{
		{
			"insert + insert",
			delta.New().Insert("A", nil),
			delta.New().Insert("B", nil),
			delta.New().Insert("B", nil).Insert("A", nil),
		},
		{
			"insert + retain",
			delta.New().Insert("A", nil),
			delta.New().Retain(1, delta.Attributes{"bold": true, "color": "red", "font": nil}),
			delta.New().Insert("A", red),
		},
		{
			"insert + delete",
			delta.New().Insert("A", nil),
			delta.New().Delete(1),
			delta.New(),
		},
		{
			"delete + insert",
			delta.New().Delete(1),
			delta.New().Insert("B", nil),
			delta.New().Insert("B", nil).Delete(1),
		},
		{
			"delete + retain",
			delta.New().Delete(1),
			delta.New().Retain(1, red),
			delta.New().Delete(1).Retain(1, red),
		},
		{
			"delete + delete",
			delta.New().Delete(1),
			delta.New().Delete(1),
			delta.New().Delete(2),
		},
		{
			"retain + insert",
			delta.New().Retain(1, delta.Attributes{"color": "blue"}),
			delta.New().Insert("B", nil),
			delta.New().Insert("B", nil).Retain(1, delta.Attributes{"color": "blue"}),
		},
		{
			"retain + retain",
			delta.New().Retain(1, delta.Attributes{"color": "blue"}),
			delta.New().Retain(1, delta.Attributes{"bold": true, "color": "red", "font": nil}),
			delta.New().Retain(1, delta.Attributes{"bold": true, "color": "red", "font": nil}),
		},
		{
			"retain + delete",
			delta.New().Retain(1, delta.Attributes{"color": "blue"}),
			delta.New().Delete(1),
			delta.New().Delete(1),
		},
		{
			"insert in middle of text",
			delta.New().Insert("Hello", nil),
			delta.New().Retain(3, nil).Insert("X", nil),
			delta.New().Insert("HelXlo", nil),
		},
		{
			"insert before delete",
			delta.New().Insert("Hello", nil),
			delta.New().Retain(3, nil).Insert("X", nil).Delete(1),
			delta.New().Insert("HelXo", nil),
		},
		{
			"delete before insert",
			delta.New().Insert("Hello", nil),
			delta.New().Retain(3, nil).Delete(1).Insert("X", nil),
			delta.New().Insert("HelXo", nil),
		},
		{
			"insert embed",
			delta.New().InsertEmbed(image, delta.Attributes{"alt": "logo"}),
			delta.New().Retain(1, delta.Attributes{"alt": nil}),
			delta.New().InsertEmbed(image, nil),
		},
		{
			"delete entire text",
			delta.New().Retain(4, nil).Insert("Hello", nil),
			delta.New().Delete(9),
			delta.New().Delete(4),
		},
		{
			"retain more than length of text",
			delta.New().Insert("Hello", nil),
			delta.New().Retain(10, nil),
			delta.New().Insert("Hello", nil),
		},
		{
			"remove all attributes",
			delta.New().Insert("A", bold),
			delta.New().Retain(1, delta.Attributes{"bold": nil}),
			delta.New().Insert("A", nil),
		},
		{
			"format inserted text",
			delta.New().Insert("Hello", nil).Insert(" World", bold),
			delta.New().Retain(5, nil).Retain(6, delta.Attributes{"italic": true}),
			delta.New().Insert("Hello", nil).Insert(" World", delta.Attributes{"bold": true, "italic": true}),
		},
		{
			"retain start optimization",
			delta.New().Insert("A", bold).Insert("B", nil).Insert("C", bold).Delete(1),
			delta.New().Retain(3, nil).Insert("D", nil),
			delta.New().Insert("A", bold).Insert("B", nil).Insert("C", bold).Insert("D", nil).Delete(1),
		},
		{
			"retain start optimization split",
			delta.New().Insert("A", bold).Insert("B", nil).Insert("C", bold).Retain(5, nil).Delete(1),
			delta.New().Retain(4, nil).Insert("D", nil),
			delta.New().Insert("A", bold).Insert("B", nil).Insert("C", bold).Retain(1, nil).Insert("D", nil).Retain(4, nil).Delete(1),
		},
		{
			"retain end optimization",
			delta.New().Insert("A", bold).Insert("B", nil).Insert("C", bold),
			delta.New().Delete(1),
			delta.New().Insert("B", nil).Insert("C", bold),
		},
		{
			"retain end optimization join",
			delta.New().Insert("A", bold).Insert("B", nil).Insert("C", bold).Insert("D", nil).Insert("E", bold).Insert("F", nil),
			delta.New().Retain(1, nil).Delete(1),
			delta.New().Insert("AC", bold).Insert("D", nil).Insert("E", bold).Insert("F", nil),
		},
	}
	for _, test := range tests {
		a, b := test.a.Clone(), test.b.Clone()
		got := test.a.Compose(test.b)
		if msg := opsDiff(test.want, got); msg != "" {
			t.Errorf("%s: %v.Compose(%v): (-want, +got)\n%s", test.desc, test.a, test.b, msg)
		}
		if !a.Equal(test.a) || !b.Equal(test.b) {
			t.Errorf("%s: Compose modified its operands", test.desc)
		}
	}
}

// Typing all over a long paragraph must take linear time and memory, even
// though the paragraph is a single insert.
func TestComposeLargeDocument(t *testing.T) {
	if testing.Short() {
		t.Skip("composes a large document")
	}
	const n = 200_000
	doc := delta.New().Insert(strings.Repeat("a", n), nil)
	change := delta.New()
	for i := 0; i < n/10; i++ {
		change.Retain(9, nil).Insert("x", nil)
	}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	start := time.Now()
	got := doc.Compose(change)
	elapsed := time.Since(start)
	runtime.ReadMemStats(&after)

	want := delta.New().Insert(strings.Repeat("aaaaaaaaax", n/10)+strings.Repeat("a", n/10), nil)
	if !want.Equal(got) {
		t.Fatalf("got %d ops of length %d, want a single insert of length %d", len(got.Ops), got.Length(), want.Length())
	}
	if elapsed > 2*time.Second {
		t.Errorf("Compose took %v", elapsed)
	}
	if allocated := after.TotalAlloc - before.TotalAlloc; allocated > 64*n {
		t.Errorf("Compose allocated %d bytes for a document with %d runes", allocated, n)
	}
}
