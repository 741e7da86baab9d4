package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"mashupctl/internal/mashup"
)

// definitionFile is the YAML structure of files in the definitions directory.
type definitionFile struct {
	Mashups []mashupEntry `yaml:"mashups"`
	Things  []thingEntry  `yaml:"things"`
}

type mashupEntry struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	DeleteFirst bool           `yaml:"delete_first"`
	Project     string         `yaml:"project"`
	Extended    bool           `yaml:"extended"`
	Summary     []string       `yaml:"summary"`
	Content     map[string]any `yaml:"content"` // platform shape: UI, Data, Events, DataBindings
}

type thingEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Template    string `yaml:"template"`
}

// LoadDir reads every *.yaml and *.yml file in dir into reg. Definitions
// replace same-named entries already in reg. A missing directory is not an
// error.
func LoadDir(dir string, reg *Registry, logger *slog.Logger) error {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		logger.Debug("definitions dir not found", "dir", dir)
		return nil
	}

	var matches []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		m, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("glob definitions dir: %w", err)
		}
		matches = append(matches, m...)
	}
	sort.Strings(matches)
	if len(matches) == 0 {
		logger.Info("no definition files found", "dir", dir)
		return nil
	}

	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		defs, err := ParseDefinitions(data, path)
		if err != nil {
			return err
		}
		for _, d := range defs {
			if reg.Add(d) {
				logger.Info("definition overrides existing entry", "name", d.Name, "path", filepath.Base(path))
			}
		}
		logger.Info("loaded definition file", "path", filepath.Base(path), "definitions", len(defs))
	}
	return nil
}

// ParseDefinitions decodes one YAML definition file. source is recorded on
// every returned definition.
func ParseDefinitions(data []byte, source string) ([]Definition, error) {
	var df definitionFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}

	defs := make([]Definition, 0, len(df.Mashups)+len(df.Things))
	for i, m := range df.Mashups {
		if m.Name == "" {
			return nil, fmt.Errorf("%s: mashups[%d]: name is required", source, i)
		}
		raw, err := contentJSON(m.Content)
		if err != nil {
			return nil, fmt.Errorf("%s: mashup %s: %w", source, m.Name, err)
		}
		defs = append(defs, Definition{
			Name:        m.Name,
			Kind:        KindMashup,
			Description: m.Description,
			DeleteFirst: m.DeleteFirst,
			Project:     m.Project,
			Extended:    m.Extended,
			Summary:     m.Summary,
			Source:      source,
			content: func() (mashup.Content, error) {
				return mashup.DecodeContent(raw)
			},
		})
	}
	for i, t := range df.Things {
		if t.Name == "" {
			return nil, fmt.Errorf("%s: things[%d]: name is required", source, i)
		}
		if t.Template == "" {
			t.Template = DefaultThingTemplate
		}
		defs = append(defs, Definition{
			Name:        t.Name,
			Kind:        KindThing,
			Description: t.Description,
			Template:    t.Template,
			Source:      source,
		})
	}
	return defs, nil
}

// contentJSON converts YAML content into the JSON string form, filling in
// the default data sources and mashup type when absent. The result is
// decoded once here so malformed content fails at load time.
func contentJSON(content map[string]any) (string, error) {
	if content == nil {
		return "", errors.New("content is required")
	}
	if _, ok := content["UI"]; !ok {
		return "", errors.New("content.UI is required")
	}
	data, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("convert content: %w", err)
	}
	c, err := mashup.DecodeContent(string(data))
	if err != nil {
		return "", err
	}
	if c.UI.Type() == "" {
		return "", errors.New("content.UI.Properties.Type is required")
	}
	if len(c.Data) == 0 {
		c.Data = mashup.DefaultData()
	}
	if c.MashupType == "" {
		c.MashupType = mashup.TypeMashup
	}
	return c.Encode()
}
