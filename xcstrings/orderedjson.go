package xcstrings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// The catalog writer must reproduce a document with its original key order
// and any fields this tool does not understand. encoding/json maps cannot do
// that, so the document is held as a tree of nodes where every object keeps
// its key order from the file.

type nodeKind int

const (
	kindNull nodeKind = iota
	kindBool
	kindNumber
	kindString
	kindArray
	kindObject
)

// node is a single JSON value.
type node struct {
	kind nodeKind
	b    bool
	num  json.Number
	str  string
	arr  []*node
	obj  *object
}

// object is a JSON object with insertion-ordered keys.
type object struct {
	keys   []string
	values map[string]*node
}

func newObject() *object {
	return &object{values: make(map[string]*node)}
}

func (o *object) get(key string) (*node, bool) {
	n, ok := o.values[key]
	return n, ok
}

// set stores a value, appending the key at the end when it is new.
func (o *object) set(key string, n *node) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = n
}

func (o *object) delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

func stringNode(s string) *node {
	return &node{kind: kindString, str: s}
}

func objectNode() *node {
	return &node{kind: kindObject, obj: newObject()}
}

// objectAt returns the object stored under key, creating it when absent.
func (o *object) objectAt(key string) (*object, error) {
	n, ok := o.get(key)
	if !ok {
		n = objectNode()
		o.set(key, n)
	}
	if n.kind != kindObject {
		return nil, fmt.Errorf("field %q is not an object", key)
	}
	return n.obj, nil
}

// stringAt returns the string stored under key, or "" when absent.
func (o *object) stringAt(key string) string {
	if n, ok := o.get(key); ok && n.kind == kindString {
		return n.str
	}
	return ""
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// decodeDocument parses data into a node tree. The top-level value must be a
// JSON object.
func decodeDocument(data []byte) (*object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	root, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if root.kind != kindObject {
		return nil, fmt.Errorf("expected a JSON object at the top level")
	}

	// Anything but EOF after the document is a malformed file.
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON document")
	}
	return root.obj, nil
}

func decodeValue(dec *json.Decoder) (*node, error) {
	t, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFromToken(dec, t)
}

func decodeFromToken(dec *json.Decoder, t json.Token) (*node, error) {
	switch v := t.(type) {
	case json.Delim:
		switch v {
		case '{':
			obj := newObject()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("expected string key, got %v", kt)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.set(key, val)
			}
			if _, err := dec.Token(); err != nil { // closing }
				return nil, err
			}
			return &node{kind: kindObject, obj: obj}, nil
		case '[':
			var arr []*node
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil { // closing ]
				return nil, err
			}
			return &node{kind: kindArray, arr: arr}, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", v)
		}
	case string:
		return stringNode(v), nil
	case json.Number:
		return &node{kind: kindNumber, num: v}, nil
	case bool:
		return &node{kind: kindBool, b: v}, nil
	case nil:
		return &node{kind: kindNull}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", t)
	}
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// encodeDocument serializes the node tree with two-space indentation and the
// original key order.
func encodeDocument(root *object) []byte {
	var b strings.Builder
	encodeObject(&b, root, 0)
	b.WriteByte('\n')
	return []byte(b.String())
}

func encodeNode(b *strings.Builder, n *node, indent int) {
	switch n.kind {
	case kindNull:
		b.WriteString("null")
	case kindBool:
		if n.b {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case kindNumber:
		b.WriteString(n.num.String())
	case kindString:
		b.WriteString(encodeString(n.str))
	case kindArray:
		if len(n.arr) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteString("[\n")
		for i, item := range n.arr {
			writeIndent(b, indent+1)
			encodeNode(b, item, indent+1)
			if i < len(n.arr)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		writeIndent(b, indent)
		b.WriteByte(']')
	case kindObject:
		encodeObject(b, n.obj, indent)
	}
}

func encodeObject(b *strings.Builder, o *object, indent int) {
	if len(o.keys) == 0 {
		b.WriteString("{}")
		return
	}
	b.WriteString("{\n")
	for i, k := range o.keys {
		writeIndent(b, indent+1)
		b.WriteString(encodeString(k))
		b.WriteString(": ")
		encodeNode(b, o.values[k], indent+1)
		if i < len(o.keys)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	writeIndent(b, indent)
	b.WriteByte('}')
}

func writeIndent(b *strings.Builder, n int) {
	for i := 0; i < n; i++ {
		b.WriteString("  ")
	}
}

// encodeString produces a JSON string literal without HTML escaping, so the
// written file keeps characters like & and < readable.
func encodeString(s string) string {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		// Strings are always encodable; fall back to the default escaper.
		data, _ := json.Marshal(s)
		return string(data)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
