// Package driver orchestrates module evaluation: it loads a run manifest,
// evaluates the listed modules in order with a shared frozen-module cache,
// and returns the entry module's exports.
package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Manifest represents the parsed contents of a run.yml.
type Manifest struct {
	Path    string
	Name    string
	Entry   string
	Limits  Limits
	Modules []*ModuleSpec
}

// ModuleSpec describes one evaluatable module from the manifest.
type ModuleSpec struct {
	Name string
	File string
}

// Limits bounds one evaluation run. Zero values mean the defaults.
type Limits struct {
	MaxCallDepth int
	MaxSteps     int64
	Timeout      time.Duration
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

type manifestFile struct {
	Name    string           `yaml:"name"`
	Entry   string           `yaml:"entry"`
	Limits  manifestLimits   `yaml:"limits"`
	Modules []manifestModule `yaml:"modules"`
}

type manifestLimits struct {
	MaxCallDepth int    `yaml:"max_call_depth"`
	MaxSteps     int64  `yaml:"max_steps"`
	Timeout      string `yaml:"timeout"`
}

type manifestModule struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

// LoadManifest parses run.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	manifest, err := decodeManifest(file)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		var verr *ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}
	manifest.Path = absPath
	return manifest, nil
}

func decodeManifest(r io.Reader) (*Manifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		return nil, err
	}

	manifest := &Manifest{
		Name:  raw.Name,
		Entry: raw.Entry,
		Limits: Limits{
			MaxCallDepth: raw.Limits.MaxCallDepth,
			MaxSteps:     raw.Limits.MaxSteps,
		},
	}
	if raw.Limits.Timeout != "" {
		timeout, err := time.ParseDuration(raw.Limits.Timeout)
		if err != nil {
			return nil, &ValidationError{Issues: []string{fmt.Sprintf("limits.timeout: %v", err)}}
		}
		manifest.Limits.Timeout = timeout
	}
	for _, m := range raw.Modules {
		manifest.Modules = append(manifest.Modules, &ModuleSpec{Name: m.Name, File: m.File})
	}
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if len(m.Modules) == 0 {
		errs.Issues = append(errs.Issues, "modules must list at least one module")
	}

	names := make(map[string]bool, len(m.Modules))
	for i, spec := range m.Modules {
		if spec.Name == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("modules[%d] must have a name", i))
			continue
		}
		if names[spec.Name] {
			errs.Issues = append(errs.Issues, fmt.Sprintf("module %q is listed more than once", spec.Name))
		}
		names[spec.Name] = true
		if spec.File == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("module %q must have a file", spec.Name))
		}
	}

	if m.Entry == "" {
		if len(m.Modules) > 0 {
			m.Entry = m.Modules[len(m.Modules)-1].Name
		}
	} else if !names[m.Entry] {
		errs.Issues = append(errs.Issues, fmt.Sprintf("entry %q is not a listed module", m.Entry))
	}

	if m.Limits.MaxCallDepth < 0 {
		errs.Issues = append(errs.Issues, "limits.max_call_depth must not be negative")
	}
	if m.Limits.MaxSteps < 0 {
		errs.Issues = append(errs.Issues, "limits.max_steps must not be negative")
	}
	if m.Limits.Timeout < 0 {
		errs.Issues = append(errs.Issues, "limits.timeout must not be negative")
	}

	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// ModuleFile resolves a module's AST file relative to the manifest.
func (m *Manifest) ModuleFile(spec *ModuleSpec) string {
	if filepath.IsAbs(spec.File) || m.Path == "" {
		return spec.File
	}
	return filepath.Join(filepath.Dir(m.Path), spec.File)
}
