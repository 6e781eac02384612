// Package query turns a user's parameter selection into a Graph API insights
// request URL. Building is pure: no I/O, no registry lookups.
package query

import (
	"encoding/json"
	"errors"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/HolgerKurtz/meta-ads-insights/internal/schema"
)

// DefaultBaseURL is the versioned Graph API root.
const DefaultBaseURL = "https://graph.facebook.com/v24.0"

// RowLimit is the row cap appended to every request. A result with exactly
// this many rows may be incomplete.
const RowLimit = 5000

// dateLayout is the ISO calendar date format used in time_range.
const dateLayout = "2006-01-02"

// ErrMissingCredentials is returned when the account id or access token is empty.
var ErrMissingCredentials = errors.New("account id and access token are required")

// MissingCredentialsMessage is displayed in place of a URL when
// ErrMissingCredentials prevents building one.
const MissingCredentialsMessage = "Please enter Account ID and Access Token."

// ConversionFields are always requested so the row normalizer has source data
// for conversion metrics, whatever columns the user picked.
var ConversionFields = []string{
	"actions",
	"action_values",
	"cost_per_action_type",
	"purchase_roas",
	"website_purchase_roas",
}

// Spec is one user selection. It is built fresh per interaction and not
// modified after the URL has been generated.
type Spec struct {
	AccountID      string
	AccessToken    string
	Level          string
	DatePreset     string
	TimeIncrement  string
	Breakdowns     []string
	Fields         []string
	StartDate      time.Time // zero when absent
	EndDate        time.Time // zero when absent
	ConversionGoal string
}

// IncompleteRange reports a custom date preset with a missing bound. Such a
// spec produces a URL without any date constraint.
func (s Spec) IncompleteRange() bool {
	return s.DatePreset == schema.CustomDatePreset && (s.StartDate.IsZero() || s.EndDate.IsZero())
}

// WithDefaults returns a copy of s with empty selections filled from d.
// Credentials, breakdowns and dates are never defaulted.
func (s Spec) WithDefaults(d schema.Defaults) Spec {
	if s.Level == "" {
		s.Level = d.Level
	}
	if s.DatePreset == "" {
		s.DatePreset = d.DatePreset
	}
	if s.TimeIncrement == "" {
		s.TimeIncrement = d.TimeIncrement
	}
	if len(s.Fields) == 0 {
		s.Fields = slices.Clone(d.Fields)
	}
	if s.ConversionGoal == "" {
		s.ConversionGoal = d.ConversionGoal
	}
	return s
}

type timeRange struct {
	Since string `json:"since"`
	Until string `json:"until"`
}

// BuildURL returns the insights request URL for spec against baseURL
// (DefaultBaseURL when empty). It fails only with ErrMissingCredentials.
func BuildURL(baseURL string, spec Spec) (string, error) {
	if spec.AccountID == "" || spec.AccessToken == "" {
		return "", ErrMissingCredentials
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	params := make([]string, 0, 8)
	add := func(key, value string) {
		params = append(params, key+"="+url.QueryEscape(value))
	}

	add("access_token", spec.AccessToken)
	add("level", spec.Level)
	add("fields", strings.Join(MergeFields(spec.Fields), ","))

	if len(spec.Breakdowns) > 0 {
		add("breakdowns", strings.Join(spec.Breakdowns, ","))
	}

	if spec.DatePreset == schema.CustomDatePreset {
		if !spec.IncompleteRange() {
			tr, err := json.Marshal(timeRange{
				Since: spec.StartDate.Format(dateLayout),
				Until: spec.EndDate.Format(dateLayout),
			})
			if err != nil {
				return "", err
			}
			add("time_range", string(tr))
		}
	} else {
		add("date_preset", spec.DatePreset)
	}

	if spec.TimeIncrement != schema.AllDays {
		add("time_increment", spec.TimeIncrement)
	}

	add("limit", strconv.Itoa(RowLimit))

	endpoint := "act_" + url.PathEscape(spec.AccountID) + "/insights"
	return strings.TrimRight(baseURL, "/") + "/" + endpoint + "?" + strings.Join(params, "&"), nil
}

// Preview returns the request URL, or the validation message when the spec
// cannot produce one.
func Preview(baseURL string, spec Spec) string {
	u, err := BuildURL(baseURL, spec)
	if errors.Is(err, ErrMissingCredentials) {
		return MissingCredentialsMessage
	}
	if err != nil {
		return err.Error()
	}
	return u
}

// MergeFields returns fields followed by any ConversionFields not already
// present. Duplicates in fields are dropped; order of first appearance wins.
func MergeFields(fields []string) []string {
	seen := make(map[string]bool, len(fields)+len(ConversionFields))
	out := make([]string, 0, len(fields)+len(ConversionFields))
	for _, group := range [][]string{fields, ConversionFields} {
		for _, f := range group {
			if f == "" || seen[f] {
				continue
			}
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// ParseList splits a comma-separated list like "age, country" into trimmed,
// non-empty names. Returns nil for empty input.
func ParseList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ParseDate parses an ISO calendar date. Empty input yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}
