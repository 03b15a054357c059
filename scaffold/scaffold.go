// Package scaffold writes fixed document and code template payloads to disk.
// A manifest maps each template name to an output path and its content; there
// is deliberately no logic beyond that mapping.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/labinsight/dbops/e"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	ECode070101 = e.Code0701 + "01"
	ECode070102 = e.Code0701 + "02"
	ECode070103 = e.Code0701 + "03"
	ECode070104 = e.Code0701 + "04"
	ECode070105 = e.Code0701 + "05"
)

// Template is a named payload written to a fixed output path
type Template struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Content string `yaml:"content"`
}

// Manifest the full set of templates to emit
type Manifest struct {
	Templates []Template `yaml:"templates"`
}

// LoadManifest reads and parses a manifest file
func LoadManifest(path string) (m *Manifest, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, e.W(err, ECode070101, fmt.Sprintf("manifest: %s", path))
	}

	return ParseManifest(b)
}

// ParseManifest parses manifest YAML
func ParseManifest(b []byte) (m *Manifest, err error) {
	m = &Manifest{}
	if err := yaml.Unmarshal(b, m); err != nil {
		return nil, e.W(err, ECode070102)
	}

	for _, t := range m.Templates {
		if t.Path == "" {
			return nil, e.N(ECode070103, fmt.Sprintf("%s: %s",
				e.MsgScaffoldNoPath, t.Name))
		}
	}

	return m, nil
}

// Emit writes every template under root, creating directories as needed.
// Existing files are overwritten; the templates are the source of truth.
func (m *Manifest) Emit(root string) (written []string, err error) {
	for _, t := range m.Templates {
		path := filepath.Join(root, t.Path)

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return written, e.W(err, ECode070104, fmt.Sprintf("template: %s", t.Name))
		}

		if err := os.WriteFile(path, []byte(t.Content), 0o644); err != nil {
			return written, e.W(err, ECode070105, fmt.Sprintf("template: %s", t.Name))
		}

		written = append(written, path)
		log.Info().Msgf("wrote template %s to %s", t.Name, path)
	}

	return written, nil
}
