// Package combiner deep-merges layered configuration documents.
//
// Sequences behave like ordered maps keyed by element identity: elements
// with the same name are merged in place, new elements are appended.
// Mappings are merged key by key. The result of Combine depends on the
// order of its input, so callers must hand documents over in a stable order.
package combiner

import (
	"github.com/ajitpratap0/apimtpl/pkg/errors"
	stringpool "github.com/ajitpratap0/apimtpl/pkg/strings"
	"github.com/ajitpratap0/apimtpl/pkg/tree"
)

// Combine left-folds docs into a single tree, starting from an empty mapping.
func Combine(docs []*tree.Node) (*tree.Node, error) {
	acc := tree.NewMap()
	for i, doc := range docs {
		merged, err := Merge(acc, doc)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeMergeConflict,
				stringpool.Sprintf("document %d", i+1))
		}
		acc = merged
	}
	return acc, nil
}

// Merge folds source into target and returns the merged value. target may
// be modified in place; source is never modified and never aliased.
func Merge(target, source *tree.Node) (*tree.Node, error) {
	return merge(target, source, "")
}

// MergeAt is Merge for values found at path, which prefixes conflict messages
func MergeAt(target, source *tree.Node, path string) (*tree.Node, error) {
	return merge(target, source, path)
}

func merge(target, source *tree.Node, path string) (*tree.Node, error) {
	switch {
	case source.IsNull():
		if target == nil {
			return tree.NewNull(), nil
		}
		return target, nil
	case target.IsNull():
		return source.Clone(), nil
	case target.Kind != source.Kind:
		return nil, conflict(target, source, path)
	}

	switch source.Kind {
	case tree.KindMap:
		return mergeMap(target, source, path)
	case tree.KindSeq:
		return mergeSeq(target, source, path)
	default:
		if source.Implicit || (target.Value == source.Value && target.Tag == source.Tag) {
			return target, nil
		}
		return source.Clone(), nil
	}
}

func mergeMap(target, source *tree.Node, path string) (*tree.Node, error) {
	for _, f := range source.Fields {
		existing := target.Get(f.Key)
		childPath := tree.KeyPath(path, f.Key)

		switch {
		case existing == nil:
			target.Set(f.Key, f.Value.Clone())
		case f.Value.IsNull():
			// present value wins
		case existing.Kind == tree.KindMap || existing.Kind == tree.KindSeq:
			merged, err := merge(existing, f.Value, childPath)
			if err != nil {
				return nil, err
			}
			target.Set(f.Key, merged)
		case f.Value.Implicit && !existing.IsNull():
			// defaults only fill gaps
		default:
			target.Set(f.Key, f.Value.Clone())
		}
	}
	return target, nil
}

func mergeSeq(target, source *tree.Node, path string) (*tree.Node, error) {
	if source.Implicit {
		return target, nil
	}
	if target.Implicit {
		return source.Clone(), nil
	}

	index := make(map[string]int, len(target.Items))
	for i, item := range target.Items {
		if key := identity(item); key != "" {
			if _, dup := index[key]; !dup {
				index[key] = i
			}
		}
	}

	for _, item := range source.Items {
		key := identity(item)
		if key == "" {
			if !containsEqual(target.Items, item) {
				target.Items = append(target.Items, item.Clone())
			}
			continue
		}

		i, found := index[key]
		if !found {
			index[key] = len(target.Items)
			target.Items = append(target.Items, item.Clone())
			continue
		}

		merged, err := merge(target.Items[i], item, tree.IndexPath(path, i))
		if err != nil {
			return nil, err
		}
		target.Items[i] = merged
	}
	return target, nil
}

// identity returns the key a sequence element is matched by, or "" for
// elements that can only be matched by deep equality.
func identity(n *tree.Node) string {
	switch n.Kind {
	case tree.KindMap:
		if name, ok := n.Name(); ok {
			return stringpool.Concat("name:", name)
		}
	case tree.KindScalar:
		return stringpool.Concat("scalar:", n.Value)
	}
	return ""
}

func containsEqual(items []*tree.Node, n *tree.Node) bool {
	for _, item := range items {
		if tree.Equal(item, n) {
			return true
		}
	}
	return false
}

func conflict(target, source *tree.Node, path string) error {
	at := path
	if at == "" {
		at = "<root>"
	}
	return errors.Newf(errors.ErrorTypeMergeConflict, "%s: cannot merge %s into %s",
		at, source.Describe(), target.Describe()).
		WithDetail("path", at)
}
