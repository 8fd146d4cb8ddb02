package delta

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// +------+
// | JSON |
// +------+

// Ops are encoded as in Quill, e.g.
//
//	{"insert": "Gandalf", "attributes": {"bold": true}}
//	{"insert": {"image": "gandalf.png"}}
//	{"retain": 5, "attributes": {"color": null}}
//	{"delete": 3}
type jsonOp struct {
	Insert     json.RawMessage `json:"insert,omitempty"`
	Delete     int             `json:"delete,omitempty"`
	Retain     int             `json:"retain,omitempty"`
	Attributes Attributes      `json:"attributes,omitempty"`
}

// MarshalJSON encodes an op as an object with one of the keys insert, retain or delete.
func (op Op) MarshalJSON() ([]byte, error) {
	v := jsonOp{Attributes: op.Attributes}
	switch {
	case op.Type == Insert:
		var content any = op.Text
		if op.Embed != nil {
			content = map[string]any(op.Embed)
		}
		bs, err := json.Marshal(content)
		if err != nil {
			return nil, fmt.Errorf("error marshaling insert: %w", err)
		}
		v.Insert = bs
	case op.Type == Delete:
		v.Delete = op.N
		v.Attributes = nil
	case op.Unbounded:
		return nil, ErrUnbounded
	default:
		v.Retain = op.N
	}
	return json.Marshal(v)
}

// UnmarshalJSON decodes an op. String inserts are text, and any other insert
// is an embed.
func (op *Op) UnmarshalJSON(data []byte) error {
	var v jsonOp
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	attrs := nilIfEmpty(v.Attributes)
	switch {
	case len(v.Insert) > 0 && v.Insert[0] == '"':
		var text string
		if err := json.Unmarshal(v.Insert, &text); err != nil {
			return fmt.Errorf("invalid text insert: %w", err)
		}
		*op = InsertOp(text, attrs)
	case len(v.Insert) > 0:
		var embed Embed
		if err := json.Unmarshal(v.Insert, &embed); err != nil {
			return fmt.Errorf("invalid embed insert %s: %w", v.Insert, err)
		}
		*op = EmbedOp(embed, attrs)
	case v.Delete > 0:
		*op = DeleteOp(v.Delete)
	case v.Retain > 0:
		*op = RetainOp(v.Retain, attrs)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidOp, data)
	}
	return nil
}

type jsonDelta struct {
	Ops []Op `json:"ops"`
}

// MarshalJSON encodes a Delta as {"ops": [...]}.
func (d *Delta) MarshalJSON() ([]byte, error) {
	ops := d.Ops
	if ops == nil {
		ops = []Op{}
	}
	return json.Marshal(jsonDelta{Ops: ops})
}

// UnmarshalJSON decodes a Delta either from {"ops": [...]} or from a bare list
// of ops. Ops are taken as they are, without normalization.
func (d *Delta) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var ops []Op
		if err := json.Unmarshal(trimmed, &ops); err != nil {
			return err
		}
		d.Ops = ops
		return nil
	}
	var v jsonDelta
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	d.Ops = v.Ops
	return nil
}

// String returns the JSON representation of d.
func (d *Delta) String() string {
	bs, err := json.Marshal(d)
	if err != nil {
		return fmt.Sprintf("%v", d.Ops)
	}
	return string(bs)
}
