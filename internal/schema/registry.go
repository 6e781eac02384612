// Package schema holds the static description of the insights API: the valid
// query parameters and the field→type map used to coerce result columns.
//
// A Registry is built once at startup (from the built-in defaults or a YAML
// override file) and never mutated afterwards. It is passed explicitly to the
// query builder, the row normalizer and the type coercer.
package schema

import (
	"fmt"
	"slices"
	"sort"
)

// CustomDatePreset selects an explicit start/end range instead of a preset.
const CustomDatePreset = "custom"

// AllDays is the time increment the API applies when none is given.
const AllDays = "all_days"

// Goal is a selectable conversion goal.
type Goal struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Defaults are the selections a fresh query starts from.
type Defaults struct {
	Level          string   `json:"level" yaml:"level"`
	DatePreset     string   `json:"date_preset" yaml:"date_preset"`
	TimeIncrement  string   `json:"time_increment" yaml:"time_increment"`
	Fields         []string `json:"fields" yaml:"fields"`
	ConversionGoal string   `json:"conversion_goal" yaml:"conversion_goal"`
}

// Registry is the immutable schema of the insights endpoint.
type Registry struct {
	levels         []string
	datePresets    []string
	timeIncrements []string
	breakdowns     []string
	fields         []string
	goals          []Goal
	defaults       Defaults
	fieldTypes     map[string]FieldType
}

// Definition is the mutable input a Registry is built from.
type Definition struct {
	Levels         []string
	DatePresets    []string
	TimeIncrements []string
	Breakdowns     []string
	Fields         []string
	Goals          []Goal
	Defaults       Defaults
	FieldTypes     map[string]FieldType
}

// New builds a Registry from a definition, copying every slice and map so
// later changes to def do not leak into the registry.
func New(def Definition) (*Registry, error) {
	r := &Registry{
		levels:         slices.Clone(def.Levels),
		datePresets:    slices.Clone(def.DatePresets),
		timeIncrements: slices.Clone(def.TimeIncrements),
		breakdowns:     slices.Clone(def.Breakdowns),
		fields:         slices.Clone(def.Fields),
		goals:          slices.Clone(def.Goals),
		defaults:       def.Defaults,
		fieldTypes:     make(map[string]FieldType, len(def.FieldTypes)),
	}
	r.defaults.Fields = slices.Clone(def.Defaults.Fields)
	for k, v := range def.FieldTypes {
		r.fieldTypes[k] = v
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the registry's internal consistency: the default
// selections must be members of their vocabularies.
func (r *Registry) Validate() error {
	if len(r.levels) == 0 {
		return fmt.Errorf("schema: no levels defined")
	}
	if r.defaults.Level != "" && !r.HasLevel(r.defaults.Level) {
		return fmt.Errorf("schema: default level %q is not a known level", r.defaults.Level)
	}
	if r.defaults.DatePreset != "" && !r.HasDatePreset(r.defaults.DatePreset) {
		return fmt.Errorf("schema: default date preset %q is not a known preset", r.defaults.DatePreset)
	}
	if r.defaults.TimeIncrement != "" && !r.HasTimeIncrement(r.defaults.TimeIncrement) {
		return fmt.Errorf("schema: default time increment %q is not a known increment", r.defaults.TimeIncrement)
	}
	for _, f := range r.defaults.Fields {
		if !r.HasField(f) {
			return fmt.Errorf("schema: default field %q is not a known field", f)
		}
	}
	if r.defaults.ConversionGoal != "" && !r.HasGoal(r.defaults.ConversionGoal) {
		return fmt.Errorf("schema: default conversion goal %q is not a known goal", r.defaults.ConversionGoal)
	}
	return nil
}

// Levels returns the aggregation levels.
func (r *Registry) Levels() []string { return slices.Clone(r.levels) }

// TimeIncrements returns the accepted time bucketing values.
func (r *Registry) TimeIncrements() []string { return slices.Clone(r.timeIncrements) }

// Breakdowns returns the breakdown dimensions.
func (r *Registry) Breakdowns() []string { return slices.Clone(r.breakdowns) }

// Fields returns the selectable fields in display order.
func (r *Registry) Fields() []string { return slices.Clone(r.fields) }

// Goals returns the conversion goals with their display labels.
func (r *Registry) Goals() []Goal { return slices.Clone(r.goals) }

// DatePresets returns the presets the API accepts, without the custom sentinel.
func (r *Registry) DatePresets() []string { return slices.Clone(r.datePresets) }

// Defaults returns a copy of the default selections.
func (r *Registry) Defaults() Defaults {
	d := r.defaults
	d.Fields = slices.Clone(r.defaults.Fields)
	return d
}

// FieldTypes returns a copy of the field→type map.
func (r *Registry) FieldTypes() map[string]FieldType {
	out := make(map[string]FieldType, len(r.fieldTypes))
	for k, v := range r.fieldTypes {
		out[k] = v
	}
	return out
}

// TypedFields returns the names of all fields with an explicit type, sorted.
func (r *Registry) TypedFields() []string {
	names := make([]string, 0, len(r.fieldTypes))
	for k := range r.fieldTypes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// TypeOf returns the configured type of a column. ok is false for unmapped
// columns, which the coercer handles with its fallback heuristics.
func (r *Registry) TypeOf(column string) (t FieldType, ok bool) {
	t, ok = r.fieldTypes[column]
	return t, ok
}

func (r *Registry) HasLevel(v string) bool         { return slices.Contains(r.levels, v) }
func (r *Registry) HasTimeIncrement(v string) bool { return slices.Contains(r.timeIncrements, v) }
func (r *Registry) HasBreakdown(v string) bool     { return slices.Contains(r.breakdowns, v) }
func (r *Registry) HasField(v string) bool         { return slices.Contains(r.fields, v) }

// HasDatePreset reports whether v is a preset or the custom sentinel.
func (r *Registry) HasDatePreset(v string) bool {
	return v == CustomDatePreset || slices.Contains(r.datePresets, v)
}

// HasGoal reports whether id is a configured conversion goal.
func (r *Registry) HasGoal(id string) bool {
	_, ok := r.GoalLabel(id)
	return ok
}

// GoalLabel returns the display label of a conversion goal.
func (r *Registry) GoalLabel(id string) (string, bool) {
	for _, g := range r.goals {
		if g.ID == id {
			return g.Label, true
		}
	}
	return "", false
}
