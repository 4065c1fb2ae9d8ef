// Package registry holds the declarative catalog of metric groups: which
// endpoints publish them, how each field is located, and which bounds a
// plausible value must satisfy. Groups ship compiled in and can be
// replaced wholesale from a YAML file.
package registry

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/twmarket/chips-cli/internal/model"
)

// Registry is an immutable, ordered set of metric groups.
type Registry struct {
	groups []model.MetricGroup
	byName map[string]int
}

// New builds a registry from an explicit group list. Later groups with a
// duplicate name replace earlier ones.
func New(groups []model.MetricGroup) *Registry {
	r := &Registry{byName: make(map[string]int, len(groups))}
	for _, g := range groups {
		if i, ok := r.byName[g.Name]; ok {
			r.groups[i] = g
			continue
		}
		r.byName[g.Name] = len(r.groups)
		r.groups = append(r.groups, g)
	}
	return r
}

// Load builds the registry from the compiled-in groups, overridden by the
// YAML file at path when one is given. An empty path means builtin only.
func Load(path string) (*Registry, error) {
	groups := Builtin()
	if path == "" {
		return New(groups), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read %s", path)
	}

	var file struct {
		Groups []model.MetricGroup `yaml:"groups"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "registry: parse %s", path)
	}

	for _, g := range file.Groups {
		if err := validateGroup(g); err != nil {
			return nil, eris.Wrapf(err, "registry: group %q", g.Name)
		}
	}

	zap.L().Info("registry: applied overrides",
		zap.String("path", path),
		zap.Int("groups", len(file.Groups)),
	)
	return New(append(groups, file.Groups...)), nil
}

// Groups returns all metric groups in declaration order.
func (r *Registry) Groups() []model.MetricGroup {
	return r.groups
}

// Group looks up one metric group by name.
func (r *Registry) Group(name string) (model.MetricGroup, bool) {
	i, ok := r.byName[name]
	if !ok {
		return model.MetricGroup{}, false
	}
	return r.groups[i], true
}

// Field finds a field definition across all groups.
func (r *Registry) Field(name string) (model.Field, bool) {
	for _, g := range r.groups {
		for _, f := range g.Fields {
			if f.Name == name {
				return f, true
			}
		}
	}
	return model.Field{}, false
}

func validateGroup(g model.MetricGroup) error {
	if g.Name == "" {
		return eris.New("missing name")
	}
	if len(g.Endpoints) == 0 {
		return eris.New("no endpoints")
	}
	if len(g.Fields) == 0 {
		return eris.New("no fields")
	}
	seen := make(map[string]bool, len(g.Fields))
	for _, f := range g.Fields {
		if f.Name == "" {
			return eris.New("field with empty name")
		}
		if seen[f.Name] {
			return eris.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = true
	}
	for _, cg := range g.Consistency {
		if cg.Total == "" || len(cg.Components) < 2 {
			return eris.New("consistency group needs a total and at least two components")
		}
	}
	return nil
}
