package query

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/HolgerKurtz/meta-ads-insights/internal/schema"
)

// identifierRegex validates Graph API field and breakdown names.
var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// accountIDRegex matches a bare numeric ad account id (no act_ prefix).
var accountIDRegex = regexp.MustCompile(`^[0-9]+$`)

// ErrInvalidSpec wraps every problem reported by Validate.
var ErrInvalidSpec = errors.New("invalid query")

// ValidateIdentifier ensures a field or breakdown name is well formed. It
// rejects empty strings, names over 128 characters, and names outside the
// identifier grammar.
func ValidateIdentifier(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > 128 {
		return fmt.Errorf("identifier too long (max 128 chars): %q", name)
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("invalid identifier %q: must match [a-zA-Z_][a-zA-Z0-9_]*", name)
	}
	return nil
}

// ValidateIdentifiers validates multiple identifiers, returning the first error found.
func ValidateIdentifiers(names []string) error {
	for _, name := range names {
		if err := ValidateIdentifier(name); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a spec against the registry vocabulary. It is stricter than
// BuildURL, which accepts anything with credentials; outer surfaces call it to
// reject selections the API would refuse. Every problem found is reported.
func Validate(reg *schema.Registry, spec Spec) error {
	var errs []error
	if spec.AccountID == "" || spec.AccessToken == "" {
		errs = append(errs, ErrMissingCredentials)
	}
	if spec.AccountID != "" && !accountIDRegex.MatchString(spec.AccountID) {
		errs = append(errs, fmt.Errorf("account id %q must be numeric (without the act_ prefix)", spec.AccountID))
	}
	if !reg.HasLevel(spec.Level) {
		errs = append(errs, fmt.Errorf("unknown level %q (valid: %s)", spec.Level, strings.Join(reg.Levels(), ", ")))
	}
	if !reg.HasDatePreset(spec.DatePreset) {
		errs = append(errs, fmt.Errorf("unknown date preset %q", spec.DatePreset))
	}
	if spec.DatePreset == schema.CustomDatePreset && !spec.IncompleteRange() && spec.EndDate.Before(spec.StartDate) {
		errs = append(errs, fmt.Errorf("end date %s is before start date %s",
			spec.EndDate.Format(dateLayout), spec.StartDate.Format(dateLayout)))
	}
	if !reg.HasTimeIncrement(spec.TimeIncrement) {
		errs = append(errs, fmt.Errorf("unknown time increment %q (valid: %s)",
			spec.TimeIncrement, strings.Join(reg.TimeIncrements(), ", ")))
	}
	for _, b := range spec.Breakdowns {
		if err := ValidateIdentifier(b); err != nil {
			errs = append(errs, fmt.Errorf("breakdown: %w", err))
		} else if !reg.HasBreakdown(b) {
			errs = append(errs, fmt.Errorf("unknown breakdown %q", b))
		}
	}
	for _, f := range spec.Fields {
		if err := ValidateIdentifier(f); err != nil {
			errs = append(errs, fmt.Errorf("field: %w", err))
		} else if !reg.HasField(f) {
			errs = append(errs, fmt.Errorf("unknown field %q", f))
		}
	}
	if !reg.HasGoal(spec.ConversionGoal) {
		errs = append(errs, fmt.Errorf("unknown conversion goal %q", spec.ConversionGoal))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidSpec, errors.Join(errs...))
}
