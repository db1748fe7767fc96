// Package catalog provides the field-group catalogs that define a wizard's
// steps.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/petrijr/stepform/pkg/api"
)

// ErrEmpty is wrapped in the ConfigurationError returned for a wizard with
// no field groups.
var ErrEmpty = errors.New("catalog has no field groups")

// Static is a fixed, in-process list of groups.
type Static struct {
	wizardID string
	groups   []api.GroupID
}

var _ api.Catalog = (*Static)(nil)

// NewStatic returns a catalog that always yields groups, in order.
func NewStatic(wizardID string, groups ...api.GroupID) *Static {
	return &Static{wizardID: wizardID, groups: slices.Clone(groups)}
}

func (s *Static) Groups(ctx context.Context) ([]api.GroupID, error) {
	if len(s.groups) == 0 {
		return nil, api.NewConfigurationError(s.wizardID, "no field groups", ErrEmpty)
	}
	return slices.Clone(s.groups), nil
}

// File reads the groups of one wizard from a YAML document on every call,
// so edits to the file apply to the next request:
//
//	wizards:
//	  contact:
//	    groups: [personal, address, message]
type File struct {
	path     string
	wizardID string
}

var _ api.Catalog = (*File)(nil)

// NewFile returns a catalog backed by the YAML file at path.
func NewFile(path, wizardID string) *File {
	return &File{path: path, wizardID: wizardID}
}

type fileDocument struct {
	Wizards map[string]struct {
		Groups []api.GroupID `yaml:"groups"`
	} `yaml:"wizards"`
}

func (f *File) Groups(ctx context.Context) ([]api.GroupID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, api.NewConfigurationError(f.wizardID, "catalog unavailable", err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, api.NewConfigurationError(f.wizardID, "catalog unreadable", err)
	}

	w, ok := doc.Wizards[f.wizardID]
	if !ok {
		return nil, api.NewConfigurationError(f.wizardID, "not in catalog", fmt.Errorf("%s: no wizard %q", f.path, f.wizardID))
	}

	groups := slices.DeleteFunc(w.Groups, func(g api.GroupID) bool { return g == "" })
	if len(groups) == 0 {
		return nil, api.NewConfigurationError(f.wizardID, "no field groups", ErrEmpty)
	}
	return groups, nil
}
