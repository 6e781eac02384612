// Package normalize flattens raw insights rows into scalar-valued rows.
//
// Each row goes through two passes. The first removes the conversion fields
// (actions, action_values, cost_per_action_type, purchase_roas,
// website_purchase_roas) and replaces each with a single number picked for
// the selected conversion goal. The second collapses any other list of
// {action_type, value} entries to the value of its first entry.
package normalize

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/HolgerKurtz/meta-ads-insights/internal/model"
)

// ROASCandidates are searched, in order, for both ROAS fields regardless of
// the conversion goal.
var ROASCandidates = []string{
	"purchase",
	"omni_purchase",
	"mobile_app_purchase",
	"offsite_conversion.fb_pixel_purchase",
}

type conversionField struct {
	source string
	column func(title string) string
	roas   bool
}

// conversionFields lists the extracted fields in the order their columns
// are appended to a row.
var conversionFields = []conversionField{
	{source: "actions", column: func(t string) string { return t }},
	{source: "action_values", column: func(t string) string { return "Value " + t }},
	{source: "cost_per_action_type", column: func(t string) string { return "Cost per " + t }},
	{source: "purchase_roas", column: func(string) string { return "ROAS" }, roas: true},
	{source: "website_purchase_roas", column: func(string) string { return "Website ROAS" }, roas: true},
}

// Options tunes the generic list pass.
type Options struct {
	// NullUnrecognizedLists replaces empty lists, and lists whose first
	// element has no "value" key, with nil instead of passing them through.
	NullUnrecognizedLists bool
}

// Normalizer turns raw rows into normalized rows for one conversion goal.
// It holds no per-row state and is safe for concurrent use.
type Normalizer struct {
	goal       string
	title      string
	candidates []string
	opts       Options
}

// New returns a Normalizer for goal, e.g. "purchase".
func New(goal string, opts Options) *Normalizer {
	g := strings.ToLower(strings.TrimSpace(goal))
	return &Normalizer{
		goal:       g,
		title:      TitleCase(g),
		candidates: []string{"offsite_conversion.fb_pixel_" + g, g},
		opts:       opts,
	}
}

// Columns returns the names of the columns produced by the conversion pass,
// in append order.
func (n *Normalizer) Columns() []string {
	out := make([]string, len(conversionFields))
	for i, cf := range conversionFields {
		out[i] = cf.column(n.title)
	}
	return out
}

// Rows normalizes every row. Output order matches input order and the input
// rows are left untouched.
func (n *Normalizer) Rows(rows []*model.Row) []*model.Row {
	out := make([]*model.Row, len(rows))
	for i, r := range rows {
		out[i] = n.Row(r)
	}
	return out
}

// Row normalizes a single row.
func (n *Normalizer) Row(in *model.Row) *model.Row {
	if in == nil {
		return model.NewRow()
	}
	row := model.CloneRow(in)

	for _, cf := range conversionFields {
		v, ok := row.Delete(cf.source)
		if !ok {
			continue
		}
		candidates := n.candidates
		if cf.roas {
			candidates = ROASCandidates
		}
		row.Set(cf.column(n.title), extract(v, candidates))
	}

	for p := row.Oldest(); p != nil; p = p.Next() {
		list, ok := p.Value.([]any)
		if !ok {
			continue
		}
		if v, ok := firstValue(list); ok {
			p.Value = numberOrRaw(v)
		} else if n.opts.NullUnrecognizedLists {
			p.Value = nil
		}
	}
	return row
}

// extract returns the value of the first entry whose action_type matches a
// candidate, trying candidates in order. Anything unexpected yields 0.
func extract(v any, candidates []string) float64 {
	list, ok := v.([]any)
	if !ok {
		return 0
	}
	for _, want := range candidates {
		for _, item := range list {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if at, _ := entry["action_type"].(string); at == want {
				f, _ := model.ToFloat(entry["value"])
				return f
			}
		}
	}
	return 0
}

func firstValue(list []any) (any, bool) {
	if len(list) == 0 {
		return nil, false
	}
	entry, ok := list[0].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := entry["value"]
	return v, ok
}

func numberOrRaw(v any) any {
	if f, ok := model.ToFloat(v); ok {
		return f
	}
	return v
}

// TitleCase upper-cases the first letter of each whitespace-separated word
// and lower-cases the rest.
// Punctuation and digits inside a word do not start a new one.
func TitleCase(s string) string {
	// A Caser is stateful, so each call gets its own.
	upper, lower := cases.Upper(language.Und), cases.Lower(language.Und)
	words := strings.Fields(s)
	for i, w := range words {
		_, n := utf8.DecodeRuneInString(w)
		words[i] = upper.String(w[:n]) + lower.String(w[n:])
	}
	return strings.Join(words, " ")
}
