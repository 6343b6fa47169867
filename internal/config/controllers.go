package config

import (
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"

	"github.com/ctrlbench/ctrlbench/internal/models"
)

// controllersFile is the TOML document shape: a [[controller]] block per
// definition.
type controllersFile struct {
	Controllers []models.ControllerSpec `toml:"controller"`
}

// DefaultControllerSpecs returns the built-in controller definitions, used
// when no controllers.toml is supplied.
func DefaultControllerSpecs() map[string]models.ControllerSpec {
	return map[string]models.ControllerSpec{
		"sequential": {
			Type:      "sequential",
			Role:      "a senior staff writer",
			Goal:      "produce a polished, publishable article on the assigned topic",
			Backstory: "You have spent a decade writing long-form technology journalism and edit your own drafts ruthlessly.",
		},
		"crew_manager": {
			Type:      "crew_manager",
			Role:      "a managing editor",
			Goal:      "coordinate a small writing team to produce a publishable article",
			Backstory: "You run a newsroom desk: you plan coverage, brief writers, and assemble their copy into one voice.",
		},
	}
}

// LoadControllerSpecs parses a controllers TOML file from the given
// filesystem, keyed by controller type. Definitions missing a type are
// rejected; duplicates are rejected rather than silently overwritten.
func LoadControllerSpecs(fsys fs.FS, name string) (map[string]models.ControllerSpec, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	var file controllersFile
	if _, err := toml.Decode(string(data), &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	specs := make(map[string]models.ControllerSpec, len(file.Controllers))
	for i, spec := range file.Controllers {
		if spec.Type == "" {
			return nil, fmt.Errorf("%s: controller[%d] missing type", name, i)
		}
		if _, dup := specs[spec.Type]; dup {
			return nil, fmt.Errorf("%s: duplicate controller type %q", name, spec.Type)
		}
		specs[spec.Type] = spec
	}

	if len(specs) == 0 {
		return nil, fmt.Errorf("%s: no controller definitions found", name)
	}

	return specs, nil
}
