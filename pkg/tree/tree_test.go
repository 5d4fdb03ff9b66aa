package tree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersDoc = `
apis:
  - name: orders
    operations:
      - name: list
        method: GET
      - name: create
        method: POST
parameters:
  - name: region
    value: westeurope
---
# empty documents are skipped
---
environments:
  - name: prod
    configuration:
      serviceName: svc
`

func TestParseMultiDocument(t *testing.T) {
	docs, err := Parse(strings.NewReader(ordersDoc))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, []string{"apis", "parameters"}, keys(docs[0]))

	ops := docs[0].Get("apis").Items[0].Get("operations")
	require.Equal(t, KindSeq, ops.Kind)
	name, ok := ops.Items[1].Name()
	require.True(t, ok)
	assert.Equal(t, "create", name)
	assert.Equal(t, "svc", docs[1].Get("environments").Items[0].Lookup("configuration", "serviceName").String())
}

func TestParseKeepsPositions(t *testing.T) {
	docs, err := ParseBytes([]byte("a:\n  b: 1\n"))
	require.NoError(t, err)
	b := docs[0].Lookup("a", "b")
	assert.Equal(t, 2, b.Line)
	assert.Equal(t, TagInt, b.Tag)
}

func TestParseRejectsDuplicateKeys(t *testing.T) {
	_, err := ParseBytes([]byte("a: 1\na: 2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate key "a"`)
}

func TestParseMergeKeys(t *testing.T) {
	docs, err := ParseBytes([]byte(`
base: &base
  method: GET
  path: /x
op:
  <<: *base
  path: /y
`))
	require.NoError(t, err)
	op := docs[0].Get("op")
	assert.Equal(t, "GET", op.Get("method").String())
	assert.Equal(t, "/y", op.Get("path").String())
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := ParseBytes([]byte("a: [1, 2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse yaml")
}

func TestCloneIsIndependent(t *testing.T) {
	docs, err := Parse(strings.NewReader(ordersDoc))
	require.NoError(t, err)

	original := docs[0]
	copied := original.Clone()
	require.True(t, Equal(original, copied))

	copied.Get("apis").Items[0].Set("path", NewString("changed"))
	assert.Nil(t, original.Get("apis").Items[0].Get("path"))
	assert.False(t, Equal(original, copied))
}

func TestEqualIgnoresImplicitAndPositions(t *testing.T) {
	a := MustFromValue(map[string]interface{}{"secret": false})
	b := MustFromValue(map[string]interface{}{"secret": false})
	b.Get("secret").Implicit = true
	b.Get("secret").Line = 12

	assert.True(t, Equal(a, b))
	assert.True(t, Equal(nil, NewNull()))
	assert.False(t, Equal(NewString("1"), NewInt(1)))
	assert.True(t, Equal(NewInt(1), &Node{Kind: KindScalar, Tag: TagFloat, Value: "1"}))
}

func TestInterfaceAndFromValue(t *testing.T) {
	n := MustFromValue(map[string]interface{}{
		"b":    true,
		"a":    []interface{}{"x", int64(2), 1.5},
		"none": nil,
	})
	assert.Equal(t, []string{"a", "b", "none"}, keys(n))
	assert.Equal(t, map[string]interface{}{
		"a":    []interface{}{"x", int64(2), 1.5},
		"b":    true,
		"none": nil,
	}, n.Interface())

	_, err := FromValue(struct{}{})
	assert.Error(t, err)
}

func TestSetDelete(t *testing.T) {
	m := NewMap()
	m.Set("a", NewString("1"))
	m.Set("b", NewString("2"))
	m.Set("a", NewString("3"))
	assert.Equal(t, []string{"a", "b"}, keys(m))
	assert.Equal(t, "3", m.Get("a").String())

	m.Delete("a")
	assert.Equal(t, []string{"b"}, keys(m))
	assert.Nil(t, NewString("x").Get("a"))
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "apis", KeyPath("", "apis"))
	assert.Equal(t, "apis[0].operations[1].method",
		KeyPath(IndexPath(KeyPath(IndexPath("apis", 0), "operations"), 1), "method"))
}

func keys(n *Node) []string {
	out := make([]string, 0, len(n.Fields))
	for _, f := range n.Fields {
		out = append(out, f.Key)
	}
	return out
}
