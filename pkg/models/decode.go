package models

import (
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"

	"github.com/ajitpratap0/apimtpl/pkg/errors"
	"github.com/ajitpratap0/apimtpl/pkg/tree"
)

// Decode converts a tree into out, which must be a pointer to a model type.
// Input is weakly typed so that `defaultValue: 10` becomes "10".
func Decode(n *tree.Node, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       scalarTextHook,
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to create decoder")
	}
	if err := dec.Decode(n.Interface()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeStructural, "failed to decode configuration")
	}
	return nil
}

// scalarTextHook keeps booleans readable when decoded into strings; the weak
// decoder would otherwise turn true into "1".
func scalarTextHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	if b, ok := data.(bool); ok {
		return strconv.FormatBool(b), nil
	}
	return data, nil
}

// DecodeDeployment decodes the global parts of the root tree. Environments
// are left empty for the expander to fill.
func DecodeDeployment(root *tree.Node) (*Deployment, error) {
	d := &Deployment{}
	global := tree.NewMap()
	for _, key := range []string{"parameters", "validation"} {
		if v := root.Get(key); v != nil {
			global.Set(key, v)
		}
	}
	if err := Decode(global, d); err != nil {
		return nil, err
	}
	return d, nil
}
