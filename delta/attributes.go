package delta

import (
	"maps"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Attributes hold the formatting of a piece of content, like {"bold": true}.
//
// Values are JSON values. A nil value marks an attribute for removal when
// composed over existing content.
//
// An empty attribute set is always represented by a nil map.
type Attributes map[string]any

// ComposeAttributes overlays b over a, returning the attributes of content
// formatted with a and then with b. Keys with a nil value in b are removed
// from the result, unless keepNull is set so the removal can still be applied
// later.
func ComposeAttributes(a, b Attributes, keepNull bool) Attributes {
	attrs := make(Attributes, len(a)+len(b))
	for k, v := range b {
		if v != nil || keepNull {
			attrs[k] = cloneValue(v)
		}
	}
	for k, v := range a {
		if _, ok := b[k]; !ok {
			attrs[k] = cloneValue(v)
		}
	}
	return nilIfEmpty(attrs)
}

// DiffAttributes returns the attributes that need to be composed over a to
// obtain b. Keys missing from b are set to nil.
func DiffAttributes(a, b Attributes) Attributes {
	attrs := make(Attributes)
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !deepEqual(va, vb) {
			attrs[k] = cloneValue(vb)
		}
	}
	for k, vb := range b {
		if _, ok := a[k]; !ok {
			attrs[k] = cloneValue(vb)
		}
	}
	return nilIfEmpty(attrs)
}

// InvertAttributes returns the attributes that undo the formatting of attrs
// over content formatted with base.
func InvertAttributes(attrs, base Attributes) Attributes {
	inverted := make(Attributes)
	for k, vbase := range base {
		if v, ok := attrs[k]; ok && !deepEqual(v, vbase) {
			inverted[k] = cloneValue(vbase)
		}
	}
	for k := range attrs {
		if _, ok := base[k]; !ok {
			inverted[k] = nil
		}
	}
	return nilIfEmpty(inverted)
}

// TransformAttributes returns the formatting b to apply after a concurrent
// formatting a. With priority, a was applied first and wins the conflicts, so
// only keys of b that a didn't touch survive.
func TransformAttributes(a, b Attributes, priority bool) Attributes {
	if !priority || len(b) == 0 {
		return nilIfEmpty(b)
	}
	attrs := make(Attributes)
	for k, v := range b {
		if _, ok := a[k]; !ok {
			attrs[k] = v
		}
	}
	return nilIfEmpty(attrs)
}

func nilIfEmpty(attrs Attributes) Attributes {
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// +---------------+
// | Deep equality |
// +---------------+

// deepEqual compares JSON values, considering nil and empty containers equal.
// sameAttributes is deepEqual for attributes, skipping cmp when both are empty.
func sameAttributes(a, b Attributes) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return deepEqual(a, b)
}

func deepEqual(a, b any) bool {
	return cmp.Equal(a, b, cmpopts.EquateEmpty())
}

func cloneAttributes(attrs Attributes) Attributes {
	if len(attrs) == 0 {
		return nil
	}
	out := maps.Clone(attrs)
	for k, v := range out {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies the containers within a JSON value. Scalars are immutable
// and returned as is.
func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMap(v)
	case Embed:
		return Embed(cloneMap(v))
	case Attributes:
		return Attributes(cloneMap(v))
	case []any:
		if v == nil {
			return v
		}
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = cloneValue(x)
		}
		return out
	}
	return v
}

func cloneMap(m map[string]any) map[string]any {
	out := maps.Clone(m)
	for k, v := range out {
		out[k] = cloneValue(v)
	}
	return out
}
