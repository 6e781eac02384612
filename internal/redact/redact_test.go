package redact

import (
	"strings"
	"testing"
)

func TestSecrets(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"access token in URL",
			"https://graph.facebook.com/v24.0/act_1/insights?access_token=abc123&level=ad",
			"https://graph.facebook.com/v24.0/act_1/insights?access_token=<redacted>&level=ad",
		},
		{
			"access token at end",
			"GET /insights?level=ad&access_token=abc123",
			"GET /insights?level=ad&access_token=<redacted>",
		},
		{"bearer header", "Authorization: Bearer abc.def.ghi", "Authorization: Bearer <redacted>"},
		{"graph token", "token EAABwzLixnjYBOZBZC1234567890abcdef leaked", "token <redacted> leaked"},
		{"nothing to redact", "level=campaign", "level=campaign"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Secrets(tt.input); got != tt.want {
				t.Errorf("Secrets(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestToken(t *testing.T) {
	got := Token(`Get "https://x/y": token shorty is invalid`, "shorty")
	if strings.Contains(got, "shorty") {
		t.Errorf("token not redacted: %q", got)
	}
	if got := Token("no secrets", ""); got != "no secrets" {
		t.Errorf("Token with empty token = %q", got)
	}
}
