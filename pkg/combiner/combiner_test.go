package combiner

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/apimtpl/pkg/errors"
	"github.com/ajitpratap0/apimtpl/pkg/tree"
)

func parse(t *testing.T, src string) *tree.Node {
	t.Helper()
	docs, err := tree.ParseBytes([]byte(src))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	return docs[0]
}

const base = `
apis:
  - name: orders
    path: orders
    operations:
      - name: list
        method: GET
      - name: create
        method: POST
  - name: billing
    path: billing
protocols: [https, http]
`

func TestMergeWithItselfIsNoop(t *testing.T) {
	a := parse(t, base)
	merged, err := Merge(a.Clone(), a)
	require.NoError(t, err)

	if diff := cmp.Diff(a.Interface(), merged.Interface()); diff != "" {
		t.Errorf("merge(A, A) changed the tree (-want +got):\n%s", diff)
	}
}

func TestOverridePreservesSiblingsAndOrder(t *testing.T) {
	merged, err := Combine([]*tree.Node{
		parse(t, base),
		parse(t, `
apis:
  - name: orders
    operations:
      - name: create
        method: PUT
`),
	})
	require.NoError(t, err)

	want := parse(t, `
apis:
  - name: orders
    path: orders
    operations:
      - name: list
        method: GET
      - name: create
        method: PUT
  - name: billing
    path: billing
protocols: [https, http]
`)
	if diff := cmp.Diff(want.Interface(), merged.Interface()); diff != "" {
		t.Errorf("unexpected merge result (-want +got):\n%s", diff)
	}
}

func TestMergeAppendsUnknownNames(t *testing.T) {
	merged, err := Combine([]*tree.Node{
		parse(t, base),
		parse(t, "apis:\n  - name: users\n    path: users\n"),
	})
	require.NoError(t, err)

	var names []string
	for _, api := range merged.Get("apis").Items {
		name, _ := api.Name()
		names = append(names, name)
	}
	assert.Equal(t, []string{"orders", "billing", "users"}, names)
}

func TestMergeScalarSequencesAsSets(t *testing.T) {
	merged, err := Combine([]*tree.Node{
		parse(t, "protocols: [https, http]\n"),
		parse(t, "protocols: [http, ws]\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"https", "http", "ws"}, merged.Get("protocols").Interface())
}

func TestMergeUnnamedMapsByEquality(t *testing.T) {
	merged, err := Combine([]*tree.Node{
		parse(t, "tags: [{a: 1}]\n"),
		parse(t, "tags: [{a: 1}, {b: 2}]\n"),
	})
	require.NoError(t, err)
	assert.Len(t, merged.Get("tags").Items, 2)
}

func TestMergeNullSides(t *testing.T) {
	merged, err := Combine([]*tree.Node{
		parse(t, "description: kept\npath:\n"),
		parse(t, "description:\npath: orders\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "kept", merged.Get("description").String())
	assert.Equal(t, "orders", merged.Get("path").String())
}

func TestMergeScalarSourceWins(t *testing.T) {
	merged, err := Merge(tree.NewString("a"), tree.NewString("b"))
	require.NoError(t, err)
	assert.Equal(t, "b", merged.String())

	same := tree.NewString("a")
	merged, err = Merge(same, tree.NewString("a"))
	require.NoError(t, err)
	assert.Same(t, same, merged)
}

func TestImplicitValuesOnlyFillGaps(t *testing.T) {
	target := parse(t, "path: custom\nprotocols: [http]\n")

	source := parse(t, "path: ${name}\nprotocols: [https]\nsecret: false\n")
	source.Get("path").Implicit = true
	source.Get("protocols").Implicit = true
	source.Get("secret").Implicit = true

	merged, err := Merge(target, source)
	require.NoError(t, err)
	assert.Equal(t, "custom", merged.Get("path").String())
	assert.Equal(t, []interface{}{"http"}, merged.Get("protocols").Interface())
	assert.Equal(t, false, merged.Get("secret").Interface())
}

func TestExplicitSequenceReplacesImplicit(t *testing.T) {
	target := parse(t, "protocols: [https]\n")
	target.Get("protocols").Implicit = true

	merged, err := Merge(target, parse(t, "protocols: [http]\n"))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"http"}, merged.Get("protocols").Interface())
}

func TestMergeDoesNotAliasSource(t *testing.T) {
	source := parse(t, "apis:\n  - name: orders\n")
	merged, err := Merge(tree.NewMap(), source)
	require.NoError(t, err)

	merged.Get("apis").Items[0].Set("path", tree.NewString("x"))
	assert.Nil(t, source.Get("apis").Items[0].Get("path"))
}

func TestMergeConflict(t *testing.T) {
	_, err := Combine([]*tree.Node{
		parse(t, base),
		parse(t, "apis:\n  - name: orders\n    operations: nope\n"),
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeMergeConflict))
	assert.Contains(t, err.Error(), "document 2")
	assert.Contains(t, err.Error(), `apis[0].operations: cannot merge scalar "nope"`)
	assert.Contains(t, err.Error(), "into sequence")
}

func TestMergeConflictAtRoot(t *testing.T) {
	_, err := Merge(tree.NewMap(), tree.NewSeq())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "<root>: cannot merge sequence into mapping")
}
