package scenario

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"grocerycheck/domain/agegate"
)

// yamlSuite is the YAML structure for suite definitions.
type yamlSuite struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Scenarios   []yamlScenario `yaml:"scenarios"`
}

type yamlScenario struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Kind        string   `yaml:"kind"`
	Tags        []string `yaml:"tags,omitempty"`
	Timeout     Duration `yaml:"timeout,omitempty"`
	BirthDate   *string  `yaml:"birthDate,omitempty"`
	Age         *yamlAge `yaml:"age,omitempty"`
	Expect      string   `yaml:"expect,omitempty"`
	Password    string   `yaml:"password,omitempty"`
	Product     string   `yaml:"product,omitempty"`
	Stars       int      `yaml:"stars,omitempty"`
	Comment     string   `yaml:"comment,omitempty"`
}

type yamlAge struct {
	Years     int `yaml:"years"`
	DayOffset int `yaml:"dayOffset"`
}

// Duration is a time.Duration that reads Go duration strings from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Loader handles loading suite definitions into a registry.
type Loader struct {
	registry *Registry
}

// NewLoader creates a new suite loader that populates the given registry.
func NewLoader(registry *Registry) *Loader {
	return &Loader{registry: registry}
}

// LoadFromFS loads every *.yaml suite in dir of fsys.
func (l *Loader) LoadFromFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("failed to read scenarios directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext := path.Ext(entry.Name()); ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := l.LoadFile(fsys, path.Join(dir, entry.Name())); err != nil {
			return err
		}
	}

	return nil
}

// LoadFile loads a single suite file.
func (l *Loader) LoadFile(fsys fs.FS, name string) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("failed to read suite file %s: %w", name, err)
	}

	suite, err := Parse(data)
	if err != nil {
		return fmt.Errorf("failed to load suite file %s: %w", name, err)
	}
	l.registry.Register(suite)
	return nil
}

// LoadPath loads a suite file from the local filesystem.
func (l *Loader) LoadPath(name string) error {
	return l.LoadFile(os.DirFS(filepath.Dir(name)), filepath.Base(name))
}

// Parse decodes and validates a suite definition.
func Parse(data []byte) (*Suite, error) {
	var ys yamlSuite
	if err := yaml.Unmarshal(data, &ys); err != nil {
		return nil, fmt.Errorf("parse suite: %w", err)
	}

	suite, err := convertYAMLSuite(&ys)
	if err != nil {
		return nil, err
	}
	if err := suite.Validate(); err != nil {
		return nil, err
	}
	return suite, nil
}

// convertYAMLSuite converts a YAML suite to a domain Suite.
func convertYAMLSuite(ys *yamlSuite) (*Suite, error) {
	suite := &Suite{
		Name:        ys.Name,
		Description: ys.Description,
		Scenarios:   make([]*Scenario, len(ys.Scenarios)),
	}

	for i := range ys.Scenarios {
		sc, err := convertYAMLScenario(&ys.Scenarios[i])
		if err != nil {
			return nil, fmt.Errorf("suite %s: %w", ys.Name, err)
		}
		suite.Scenarios[i] = sc
	}

	return suite, nil
}

func convertYAMLScenario(ys *yamlScenario) (*Scenario, error) {
	sc := &Scenario{
		Name:        ys.Name,
		Description: ys.Description,
		Kind:        Kind(ys.Kind),
		Tags:        ys.Tags,
		Timeout:     time.Duration(ys.Timeout),
		BirthDate:   ys.BirthDate,
		Password:    ys.Password,
		Product:     ys.Product,
		Stars:       ys.Stars,
		Comment:     ys.Comment,
	}

	if ys.Age != nil {
		sc.Age = &AgeSpec{Years: ys.Age.Years, DayOffset: ys.Age.DayOffset}
	}

	if ys.Expect != "" {
		outcome, err := agegate.ParseOutcome(ys.Expect)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", ys.Name, err)
		}
		sc.Expect = outcome
	}

	return sc, nil
}
