package tree

import (
	"bytes"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/apimtpl/pkg/errors"
)

const mergeKey = "<<"

// Parse reads every document of a YAML stream. Empty documents are skipped.
func Parse(r io.Reader) ([]*Node, error) {
	dec := yaml.NewDecoder(r)

	var docs []*Node
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeStructural, "failed to parse yaml")
		}

		n, err := convert(&doc)
		if err != nil {
			return nil, err
		}
		if n.IsNull() {
			continue
		}
		docs = append(docs, n)
	}
	return docs, nil
}

// ParseBytes is Parse over an in-memory document
func ParseBytes(data []byte) ([]*Node, error) {
	return Parse(bytes.NewReader(data))
}

// FromYAML converts an already decoded yaml.Node
func FromYAML(n *yaml.Node) (*Node, error) {
	return convert(n)
}

func convert(y *yaml.Node) (*Node, error) {
	switch y.Kind {
	case 0:
		return NewNull(), nil
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return NewNull(), nil
		}
		return convert(y.Content[0])
	case yaml.AliasNode:
		n, err := convert(y.Alias)
		if err != nil {
			return nil, err
		}
		n.Line, n.Column = y.Line, y.Column
		return n, nil
	case yaml.ScalarNode:
		if y.ShortTag() == TagNull {
			return &Node{Kind: KindNull, Tag: TagNull, Line: y.Line, Column: y.Column}, nil
		}
		tag := y.ShortTag()
		switch tag {
		case TagString, TagInt, TagFloat, TagBool:
		default:
			tag = TagString
		}
		return &Node{Kind: KindScalar, Tag: tag, Value: y.Value, Line: y.Line, Column: y.Column}, nil
	case yaml.SequenceNode:
		seq := &Node{Kind: KindSeq, Line: y.Line, Column: y.Column, Items: make([]*Node, 0, len(y.Content))}
		for _, c := range y.Content {
			item, err := convert(c)
			if err != nil {
				return nil, err
			}
			seq.Items = append(seq.Items, item)
		}
		return seq, nil
	case yaml.MappingNode:
		return convertMapping(y)
	default:
		return nil, errors.Newf(errors.ErrorTypeStructural, "unsupported yaml node at line %d", y.Line)
	}
}

func convertMapping(y *yaml.Node) (*Node, error) {
	m := &Node{Kind: KindMap, Line: y.Line, Column: y.Column, Fields: make([]Field, 0, len(y.Content)/2)}
	var merged []*Node

	for i := 0; i+1 < len(y.Content); i += 2 {
		k, v := y.Content[i], y.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, errors.Newf(errors.ErrorTypeStructural, "line %d: mapping keys must be scalars", k.Line)
		}

		value, err := convert(v)
		if err != nil {
			return nil, err
		}

		if k.Value == mergeKey && k.ShortTag() == "!!merge" {
			merged = append(merged, value)
			continue
		}
		if m.Has(k.Value) {
			return nil, errors.Newf(errors.ErrorTypeStructural, "line %d: duplicate key %q", k.Line, k.Value)
		}
		m.Fields = append(m.Fields, Field{Key: k.Value, Value: value})
	}

	// merge keys only fill keys the mapping does not define itself
	for _, src := range merged {
		sources := []*Node{src}
		if src.Kind == KindSeq {
			sources = src.Items
		}
		for _, s := range sources {
			if s.Kind != KindMap {
				return nil, errors.Newf(errors.ErrorTypeStructural, "line %d: merge key requires a mapping", y.Line)
			}
			for _, f := range s.Fields {
				if !m.Has(f.Key) {
					m.Fields = append(m.Fields, f)
				}
			}
		}
	}
	return m, nil
}
