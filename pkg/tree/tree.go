// Package tree holds the parse-boundary representation of apimtpl input.
//
// YAML documents are converted exactly once into Node values whose Kind tells
// the rest of the compiler whether it is looking at a mapping, a sequence, a
// scalar or nothing at all. Mappings keep the key order of the source
// document so that merged output stays deterministic.
package tree

import (
	"sort"
	"strconv"

	"github.com/mitchellh/copystructure"

	"github.com/ajitpratap0/apimtpl/pkg/errors"
	stringpool "github.com/ajitpratap0/apimtpl/pkg/strings"
)

// Kind is the shape of a node
type Kind int

const (
	// KindNull is an absent or explicit null value
	KindNull Kind = iota
	// KindScalar is a string, number or boolean
	KindScalar
	// KindMap is an ordered mapping with string keys
	KindMap
	// KindSeq is a sequence
	KindSeq
)

// String returns a human readable kind name
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindMap:
		return "mapping"
	case KindSeq:
		return "sequence"
	default:
		return "unknown"
	}
}

// Scalar tags as produced by the YAML resolver
const (
	TagString = "!!str"
	TagInt    = "!!int"
	TagFloat  = "!!float"
	TagBool   = "!!bool"
	TagNull   = "!!null"
)

// Field is one entry of an ordered mapping
type Field struct {
	Key   string
	Value *Node
}

// Node is a tagged variant over the four input shapes.
type Node struct {
	Kind   Kind
	Tag    string
	Value  string
	Fields []Field
	Items  []*Node

	// Implicit marks values injected by contract defaults rather than
	// written by a user.
	Implicit bool

	Line   int
	Column int
}

// NewNull returns a null node
func NewNull() *Node {
	return &Node{Kind: KindNull, Tag: TagNull}
}

// NewString returns a string scalar
func NewString(s string) *Node {
	return &Node{Kind: KindScalar, Tag: TagString, Value: s}
}

// NewBool returns a boolean scalar
func NewBool(b bool) *Node {
	return &Node{Kind: KindScalar, Tag: TagBool, Value: strconv.FormatBool(b)}
}

// NewInt returns an integer scalar
func NewInt(i int64) *Node {
	return &Node{Kind: KindScalar, Tag: TagInt, Value: strconv.FormatInt(i, 10)}
}

// NewFloat returns a floating point scalar
func NewFloat(f float64) *Node {
	return &Node{Kind: KindScalar, Tag: TagFloat, Value: strconv.FormatFloat(f, 'g', -1, 64)}
}

// NewMap returns an empty mapping
func NewMap() *Node {
	return &Node{Kind: KindMap}
}

// NewSeq returns a sequence holding items
func NewSeq(items ...*Node) *Node {
	return &Node{Kind: KindSeq, Items: items}
}

// IsNull reports whether n is absent or null
func (n *Node) IsNull() bool {
	return n == nil || n.Kind == KindNull
}

// Get returns the value stored under key, or nil when n is not a mapping or
// the key is missing.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != KindMap {
		return nil
	}
	for i := range n.Fields {
		if n.Fields[i].Key == key {
			return n.Fields[i].Value
		}
	}
	return nil
}

// Has reports whether the mapping contains key
func (n *Node) Has(key string) bool {
	return n.Get(key) != nil
}

// Set stores value under key, replacing an existing entry in place or
// appending a new one.
func (n *Node) Set(key string, value *Node) {
	for i := range n.Fields {
		if n.Fields[i].Key == key {
			n.Fields[i].Value = value
			return
		}
	}
	n.Fields = append(n.Fields, Field{Key: key, Value: value})
}

// Delete removes key from the mapping
func (n *Node) Delete(key string) {
	for i := range n.Fields {
		if n.Fields[i].Key == key {
			n.Fields = append(n.Fields[:i], n.Fields[i+1:]...)
			return
		}
	}
}

// Lookup walks a chain of mapping keys
func (n *Node) Lookup(keys ...string) *Node {
	cur := n
	for _, k := range keys {
		cur = cur.Get(k)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// String returns the scalar text of n, or "" for anything else
func (n *Node) String() string {
	if n == nil || n.Kind != KindScalar {
		return ""
	}
	return n.Value
}

// Name returns the value of the "name" scalar of a mapping
func (n *Node) Name() (string, bool) {
	v := n.Get("name")
	if v == nil || v.Kind != KindScalar {
		return "", false
	}
	return v.Value, true
}

// Describe renders a short description used in conflict messages
func (n *Node) Describe() string {
	if n == nil {
		return "null"
	}
	desc := n.Kind.String()
	if n.Kind == KindScalar {
		desc = stringpool.Sprintf("scalar %q", n.Value)
	}
	if n.Line > 0 {
		desc = stringpool.Sprintf("%s (line %d)", desc, n.Line)
	}
	return desc
}

// Clone returns a deep copy of n sharing no memory with the original
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	copied, err := copystructure.Copy(n)
	if err != nil {
		// copystructure only fails on unsupported kinds, which Node never holds
		panic(errors.Wrap(err, errors.ErrorTypeInternal, "failed to clone tree"))
	}
	return copied.(*Node)
}

// Equal reports deep structural equality. Source positions and the Implicit
// flag are ignored.
func Equal(a, b *Node) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindScalar:
		return a.Value == b.Value && scalarClass(a.Tag) == scalarClass(b.Tag)
	case KindSeq:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for _, f := range a.Fields {
			if !Equal(f.Value, b.Get(f.Key)) {
				return false
			}
		}
		return true
	}
	return true
}

// scalarClass folds tags so that "1" written as int and as float compare by text
func scalarClass(tag string) string {
	switch tag {
	case TagInt, TagFloat:
		return "number"
	case TagBool:
		return TagBool
	default:
		return TagString
	}
}

// Interface converts n into plain Go values: map[string]interface{},
// []interface{}, string, bool, int64, float64 or nil.
func (n *Node) Interface() interface{} {
	if n.IsNull() {
		return nil
	}
	switch n.Kind {
	case KindScalar:
		switch n.Tag {
		case TagBool:
			if b, err := strconv.ParseBool(n.Value); err == nil {
				return b
			}
		case TagInt:
			if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
				return i
			}
		case TagFloat:
			if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
				return f
			}
		}
		return n.Value
	case KindSeq:
		out := make([]interface{}, len(n.Items))
		for i, item := range n.Items {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(n.Fields))
		for _, f := range n.Fields {
			out[f.Key] = f.Value.Interface()
		}
		return out
	}
	return nil
}

// FromValue converts plain Go values into a tree. Map keys are sorted because
// Go maps carry no order.
func FromValue(v interface{}) (*Node, error) {
	switch val := v.(type) {
	case nil:
		return NewNull(), nil
	case *Node:
		return val.Clone(), nil
	case string:
		return NewString(val), nil
	case bool:
		return NewBool(val), nil
	case int:
		return NewInt(int64(val)), nil
	case int32:
		return NewInt(int64(val)), nil
	case int64:
		return NewInt(val), nil
	case uint:
		return NewInt(int64(val)), nil
	case float32:
		return NewFloat(float64(val)), nil
	case float64:
		return NewFloat(val), nil
	case []string:
		seq := NewSeq()
		for _, s := range val {
			seq.Items = append(seq.Items, NewString(s))
		}
		return seq, nil
	case []interface{}:
		seq := NewSeq()
		for _, item := range val {
			child, err := FromValue(item)
			if err != nil {
				return nil, err
			}
			seq.Items = append(seq.Items, child)
		}
		return seq, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			child, err := FromValue(val[k])
			if err != nil {
				return nil, err
			}
			m.Fields = append(m.Fields, Field{Key: k, Value: child})
		}
		return m, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeStructural, "unsupported value of type %T", v)
	}
}

// MustFromValue is FromValue for literals known to be convertible
func MustFromValue(v interface{}) *Node {
	n, err := FromValue(v)
	if err != nil {
		panic(err)
	}
	return n
}

// KeyPath appends a mapping key to a diagnostic path
func KeyPath(path, key string) string {
	if path == "" {
		return key
	}
	return stringpool.Concat(path, ".", key)
}

// IndexPath appends a sequence index to a diagnostic path
func IndexPath(path string, i int) string {
	return stringpool.Concat(path, "[", strconv.Itoa(i), "]")
}
