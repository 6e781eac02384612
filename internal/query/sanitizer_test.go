package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/HolgerKurtz/meta-ads-insights/internal/schema"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		errMsg  string
	}{
		{"valid simple", "spend", false, ""},
		{"valid underscore prefix", "_id", false, ""},
		{"valid with numbers", "video_p25_watched_actions", false, ""},
		{"empty", "", true, "cannot be empty"},
		{"starts with number", "1col", true, "must match"},
		{"contains space", "col name", true, "must match"},
		{"contains ampersand", "spend&access_token=x", true, "must match"},
		{"contains comma", "spend,clicks", true, "must match"},
		{"too long", strings.Repeat("a", 129), true, "too long"},
		{"max length ok", strings.Repeat("a", 128), false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q, got nil", tt.input)
				} else if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error for %q: %v", tt.input, err)
			}
		})
	}
}

func TestValidateIdentifiers(t *testing.T) {
	if err := ValidateIdentifiers([]string{"spend", "clicks"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateIdentifiers([]string{"spend", "bad name"}); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Validate(schema.Default(), baseSpec()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateAcceptsIncompleteCustomRange(t *testing.T) {
	spec := baseSpec()
	spec.DatePreset = "custom"
	spec.StartDate = mustDate(t, "2024-01-01")
	if err := Validate(schema.Default(), spec); err != nil {
		t.Fatalf("incomplete custom range should pass validation: %v", err)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	spec := baseSpec()
	spec.AccountID = "act_123"
	spec.Level = "galaxy"
	spec.TimeIncrement = "weekly"
	spec.Breakdowns = []string{"age", "shoe_size"}
	spec.Fields = []string{"spend", "bad field"}
	spec.ConversionGoal = "subscribe"

	err := Validate(schema.Default(), spec)
	if !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("expected ErrInvalidSpec, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"must be numeric", "galaxy", "weekly", "shoe_size", "bad field", "subscribe"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %q", msg, want)
		}
	}
}

func TestValidateMissingCredentials(t *testing.T) {
	spec := baseSpec()
	spec.AccessToken = ""
	if err := Validate(schema.Default(), spec); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestValidateReversedRange(t *testing.T) {
	spec := baseSpec()
	spec.DatePreset = "custom"
	spec.StartDate = mustDate(t, "2024-02-01")
	spec.EndDate = mustDate(t, "2024-01-01")
	if err := Validate(schema.Default(), spec); err == nil || !strings.Contains(err.Error(), "before start date") {
		t.Fatalf("expected reversed range error, got %v", err)
	}
}
