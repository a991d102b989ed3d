package models

import (
	"testing"
)

func TestExtractWorkItem(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		// Full profile URLs
		{"https://www.linkedin.com/in/jane-doe-1a2b3c/", "jane-doe-1a2b3c"},
		{"https://www.linkedin.com/in/jane-doe-1a2b3c", "jane-doe-1a2b3c"},
		{"https://linkedin.com/in/jane-doe?trk=feed", "jane-doe"},
		{"http://www.linkedin.com/in/j.doe/details/experience/", "j.doe"},

		// Scheme-less forms
		{"www.linkedin.com/in/jane-doe/", "jane-doe"},
		{"linkedin.com/in/jane-doe", "jane-doe"},

		// Already an identifier
		{"jane-doe-1a2b3c", "jane-doe-1a2b3c"},

		// Whitespace handling
		{"  https://www.linkedin.com/in/jane-doe/  ", "jane-doe"},
		{"  jane-doe  ", "jane-doe"},

		// Unusable input
		{"", ""},
		{"   ", ""},
		{"https://www.linkedin.com/feed/", ""},
		{"https://example.com/profile?x=1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ExtractWorkItem(tt.input); got != tt.want {
				t.Errorf("ExtractWorkItem(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractWorkItems(t *testing.T) {
	input := []string{
		"https://www.linkedin.com/in/alpha/",
		"",
		"https://www.linkedin.com/in/beta?trk=x",
		"https://www.linkedin.com/feed/",
		"gamma",
	}

	got := ExtractWorkItems(input)

	want := []string{"alpha", "beta", "gamma"}
	if len(got) != len(want) {
		t.Fatalf("ExtractWorkItems returned %d items, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("items[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
