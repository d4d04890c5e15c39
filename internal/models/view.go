package models

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// View is one depth map to refine together with its guide image
type View struct {
	// ID identifies the view in progress output and intermediary paths
	ID string `yaml:"id"`

	// Depth is the path of the input depth map; empty marks the view as ignored
	Depth string `yaml:"depth"`

	// Guide is the path of the guide image (color or intensity)
	Guide string `yaml:"guide"`

	// Output is the path the refined depth map is written to
	Output string `yaml:"output"`
}

// Manifest lists the views of a batch run
type Manifest struct {
	Views []View `yaml:"views"`
}

// LoadManifest reads a YAML manifest. Relative paths inside it are resolved
// against the manifest's directory and missing IDs are filled with the view
// index.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("error parsing manifest: %w", err)
	}

	base := filepath.Dir(path)
	for i := range m.Views {
		v := &m.Views[i]
		if v.ID == "" {
			v.ID = fmt.Sprintf("view_%04d", i)
		}
		v.Depth = resolve(base, v.Depth)
		v.Guide = resolve(base, v.Guide)
		v.Output = resolve(base, v.Output)
	}
	return &m, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
