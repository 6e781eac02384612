package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of a registry override. Sections left empty keep
// the built-in values; field_types entries are merged over the built-in map.
type File struct {
	Levels          []string          `json:"levels" yaml:"levels"`
	DatePresets     []string          `json:"date_presets" yaml:"date_presets"`
	TimeIncrements  []string          `json:"time_increments" yaml:"time_increments"`
	Breakdowns      []string          `json:"breakdowns" yaml:"breakdowns"`
	Fields          []string          `json:"fields" yaml:"fields"`
	ConversionGoals []Goal            `json:"conversion_goals" yaml:"conversion_goals"`
	Defaults        *Defaults         `json:"defaults" yaml:"defaults"`
	FieldTypes      map[string]string `json:"field_types" yaml:"field_types"`
}

// Load reads a YAML override file and returns the resulting registry.
// An empty path returns the built-in registry.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from YAML bytes layered over the built-in definition.
func Parse(data []byte) (*Registry, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse schema file: %w", err)
	}

	def := defaultDefinition()
	if len(f.Levels) > 0 {
		def.Levels = f.Levels
	}
	if len(f.DatePresets) > 0 {
		def.DatePresets = f.DatePresets
	}
	if len(f.TimeIncrements) > 0 {
		def.TimeIncrements = f.TimeIncrements
	}
	if len(f.Breakdowns) > 0 {
		def.Breakdowns = f.Breakdowns
	}
	if len(f.Fields) > 0 {
		def.Fields = f.Fields
	}
	if len(f.ConversionGoals) > 0 {
		def.Goals = f.ConversionGoals
	}
	if f.Defaults != nil {
		def.Defaults = *f.Defaults
	}
	for name, typeName := range f.FieldTypes {
		t, err := ParseFieldType(typeName)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		def.FieldTypes[name] = t
	}
	return New(def)
}

// File returns the registry in the override file shape. It is also the JSON
// form served to presentation layers.
func (r *Registry) File() File {
	d := r.Defaults()
	f := File{
		Levels:          r.Levels(),
		DatePresets:     r.DatePresets(),
		TimeIncrements:  r.TimeIncrements(),
		Breakdowns:      r.Breakdowns(),
		Fields:          r.Fields(),
		ConversionGoals: r.Goals(),
		Defaults:        &d,
		FieldTypes:      make(map[string]string, len(r.fieldTypes)),
	}
	for name, t := range r.fieldTypes {
		f.FieldTypes[name] = t.String()
	}
	return f
}

// Dump renders the registry in the override file format.
func (r *Registry) Dump() ([]byte, error) {
	return yaml.Marshal(r.File())
}
