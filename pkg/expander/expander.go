// Package expander specializes the combined configuration per environment.
//
// Every environment receives its own deep copy of the global collections
// with its overrides merged on top, so no two environments share memory.
package expander

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/apimtpl/pkg/combiner"
	"github.com/ajitpratap0/apimtpl/pkg/errors"
	"github.com/ajitpratap0/apimtpl/pkg/logger"
	"github.com/ajitpratap0/apimtpl/pkg/models"
	stringpool "github.com/ajitpratap0/apimtpl/pkg/strings"
	"github.com/ajitpratap0/apimtpl/pkg/tree"
)

// OverridableKeys are the collections an environment may override
var OverridableKeys = []string{"configuration", "variables", "apis", "products", "subscriptions", "properties"}

// Expander builds per-environment models
type Expander struct {
	logger *zap.Logger
}

// New creates an expander
func New(log *zap.Logger) *Expander {
	if log == nil {
		log = zap.NewNop()
	}
	return &Expander{logger: log}
}

// Expand decodes root into a deployment with one independent environment
// per entry of root's environments list.
func (e *Expander) Expand(ctx context.Context, root *tree.Node) (*models.Deployment, error) {
	d, err := models.DecodeDeployment(root)
	if err != nil {
		return nil, err
	}

	envs := root.Get("environments")
	if envs.IsNull() {
		return d, nil
	}

	c := errors.NewCollector("expander")
	for i, envNode := range envs.Items {
		env, err := e.expandOne(root, envNode)
		if err != nil {
			c.Add(errors.Wrap(err, typeOf(err), tree.IndexPath("environments", i)))
			continue
		}
		d.Environments = append(d.Environments, env)

		envCtx := context.WithValue(ctx, logger.EnvironmentKey, env.Name)
		logger.FromContext(envCtx, e.logger).Debug("environment expanded",
			zap.Int("apis", len(env.APIs)),
			zap.Int("products", len(env.Products)),
			zap.Int("subscriptions", len(env.Subscriptions)),
			zap.Int("properties", len(env.Properties)))
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

// ExpandTree returns the merged tree of one environment without decoding it
func ExpandTree(root, envNode *tree.Node) (*tree.Node, error) {
	out := tree.NewMap()
	for _, f := range envNode.Fields {
		if !isOverridable(f.Key) {
			out.Set(f.Key, f.Value.Clone())
		}
	}

	for _, key := range OverridableKeys {
		global, override := root.Get(key), envNode.Get(key)
		if global == nil && override == nil {
			continue
		}

		value := global.Clone()
		if override != nil {
			merged, err := combiner.MergeAt(value, override, key)
			if err != nil {
				return nil, err
			}
			value = merged
		}
		out.Set(key, value)
	}
	return out, nil
}

func (e *Expander) expandOne(root, envNode *tree.Node) (*models.Environment, error) {
	if envNode.Kind != tree.KindMap {
		return nil, errors.Newf(errors.ErrorTypeStructural, "expected mapping, got %s", envNode.Describe())
	}

	merged, err := ExpandTree(root, envNode)
	if err != nil {
		name, _ := envNode.Name()
		return nil, errors.Wrap(err, errors.ErrorTypeMergeConflict,
			stringpool.Sprintf("environment %q", name))
	}

	env := &models.Environment{}
	if err := models.Decode(merged, env); err != nil {
		return nil, err
	}
	return env, nil
}

func isOverridable(key string) bool {
	for _, k := range OverridableKeys {
		if k == key {
			return true
		}
	}
	return false
}

func typeOf(err error) errors.ErrorType {
	var typed *errors.Error
	if errors.As(err, &typed) {
		return typed.Type
	}
	return errors.ErrorTypeStructural
}
