package frame

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/HolgerKurtz/meta-ads-insights/internal/model"
	"github.com/HolgerKurtz/meta-ads-insights/internal/schema"
)

var errNested = errors.New("column holds nested values")

// dateLayouts are tried in order when parsing datetime cells.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01",
}

// Coerce types every column of t in place, using reg's field→type map, and
// returns t.
//
// Mapped columns are converted to their registry type. Unmapped columns that
// hold only numbers (or nil) are left as they are; any other unmapped column
// becomes text. A column that cannot be converted is logged and left
// unmodified. An empty table is returned untouched.
func Coerce(t *Table, reg *schema.Registry, logger *slog.Logger) *Table {
	if t == nil || t.Empty() {
		return t
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	for _, col := range t.Columns {
		ft, mapped := reg.TypeOf(col.Name)
		if !mapped {
			coerceUnmapped(col)
			continue
		}
		if err := coerceColumn(col, ft); err != nil {
			logger.Warn("could not coerce column",
				"column", col.Name,
				"type", ft.String(),
				"error", err,
			)
		}
	}
	return t
}

// coerceColumn converts col to ft, or leaves it untouched and returns an
// error.
func coerceColumn(col *Column, ft schema.FieldType) error {
	var (
		values []any
		err    error
	)
	switch ft {
	case schema.Integer:
		values, err = toIntegers(col.Values)
	case schema.Float:
		values, err = toFloats(col.Values)
	case schema.DateTime:
		values, err = toDates(col.Values)
	case schema.Categorical:
		var levels []string
		var codes []int
		values, levels, codes, err = toCategories(col.Values)
		if err == nil {
			col.Levels, col.Codes = levels, codes
		}
	case schema.String:
		values = toStrings(col.Values)
	default:
		err = fmt.Errorf("unsupported field type %d", ft)
	}
	if err != nil {
		return err
	}
	col.Values = values
	col.Kind = kindOf(ft)
	return nil
}

func kindOf(ft schema.FieldType) Kind {
	switch ft {
	case schema.Integer:
		return Integer
	case schema.Float:
		return Float
	case schema.DateTime:
		return DateTime
	case schema.Categorical:
		return Categorical
	case schema.String:
		return String
	}
	return Untyped
}

func coerceUnmapped(col *Column) {
	numeric := true
	seen := false
	for _, v := range col.Values {
		switch v.(type) {
		case nil:
		case float64:
			seen = true
		default:
			numeric = false
		}
	}
	if numeric && seen {
		col.Kind = Float
		return
	}
	col.Values = toStrings(col.Values)
	col.Kind = String
}

func checkScalar(values []any) error {
	for i, v := range values {
		if model.IsNested(v) {
			return fmt.Errorf("%w at row %d", errNested, i)
		}
	}
	return nil
}

func toIntegers(values []any) ([]any, error) {
	if err := checkScalar(values); err != nil {
		return nil, err
	}
	out := make([]any, len(values))
	for i, v := range values {
		// Values outside the int64 range count as unparseable.
		f, ok := model.ToFloat(v)
		if !ok || f >= math.MaxInt64 || f < math.MinInt64 {
			f = 0
		}
		out[i] = int64(f)
	}
	return out, nil
}

func toFloats(values []any) ([]any, error) {
	if err := checkScalar(values); err != nil {
		return nil, err
	}
	out := make([]any, len(values))
	for i, v := range values {
		f, ok := model.ToFloat(v)
		if !ok {
			f = 0
		}
		out[i] = f
	}
	return out, nil
}

func toDates(values []any) ([]any, error) {
	if err := checkScalar(values); err != nil {
		return nil, err
	}
	out := make([]any, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case time.Time:
			out[i] = x
		case string:
			if ts, ok := ParseTime(x); ok {
				out[i] = ts
			}
		}
	}
	return out, nil
}

// ParseTime parses the date and timestamp forms the insights API returns.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func toCategories(values []any) ([]any, []string, []int, error) {
	if err := checkScalar(values); err != nil {
		return nil, nil, nil, err
	}
	out := make([]any, len(values))
	var levels []string
	for i, v := range values {
		if v == nil {
			continue
		}
		s := model.ToText(v)
		out[i] = s
		levels = append(levels, s)
	}
	slices.Sort(levels)
	levels = slices.Compact(levels)

	codes := make([]int, len(values))
	for i, v := range out {
		codes[i] = -1
		if s, ok := v.(string); ok {
			codes[i], _ = slices.BinarySearch(levels, s)
		}
	}
	return out, levels, codes, nil
}

func toStrings(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = model.ToText(v)
	}
	return out
}
