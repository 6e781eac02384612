package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType is returned when a field type name is not part of the
// registry vocabulary.
var ErrUnknownType = errors.New("unknown field type")

// FieldType is the closed set of column types a field can be coerced to.
type FieldType int

const (
	String FieldType = iota
	Integer
	Float
	DateTime
	Categorical
)

// typeNames maps the registry vocabulary to field types. Several spellings are
// accepted so override files can use the names people actually type.
var typeNames = map[string]FieldType{
	"str":         String,
	"string":      String,
	"text":        String,
	"int":         Integer,
	"integer":     Integer,
	"float":       Float,
	"number":      Float,
	"datetime":    DateTime,
	"date":        DateTime,
	"category":    Categorical,
	"categorical": Categorical,
}

// ParseFieldType resolves a registry type name (case-insensitive).
func ParseFieldType(name string) (FieldType, error) {
	t, ok := typeNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return String, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return t, nil
}

// String returns the canonical registry name of the type.
func (t FieldType) String() string {
	switch t {
	case Integer:
		return "int"
	case Float:
		return "float"
	case DateTime:
		return "datetime"
	case Categorical:
		return "category"
	case String:
		return "str"
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// MarshalText encodes the type by its canonical name.
func (t FieldType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes any accepted type name.
func (t *FieldType) UnmarshalText(b []byte) error {
	v, err := ParseFieldType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
