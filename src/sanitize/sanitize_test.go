package sanitize

import "testing"

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "color codes",
			input:    "\x1b[31mFAILURE\x1b[0m: Tests failed: 3",
			expected: "FAILURE: Tests failed: 3",
		},
		{
			name:     "no ANSI",
			input:    "Tests passed: 120",
			expected: "Tests passed: 120",
		},
		{
			name:     "multiple codes",
			input:    "\x1b[1m\x1b[31mbold red\x1b[0m normal",
			expected: "bold red normal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StripANSI(tt.input)
			if result != tt.expected {
				t.Errorf("StripANSI(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestStripServiceMessages(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "build status message",
			input:    "##teamcity[buildStatus status='FAILURE' text='compile error']Exit code 1",
			expected: "Exit code 1",
		},
		{
			name:     "escaped bracket in value",
			input:    "before ##teamcity[message text='a|]b'] after",
			expected: "before  after",
		},
		{
			name:     "plain text",
			input:    "Tests failed: 1 (1 new)",
			expected: "Tests failed: 1 (1 new)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StripServiceMessages(tt.input)
			if result != tt.expected {
				t.Errorf("StripServiceMessages(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "full cleanup",
			input:    "##teamcity[progressMessage 'x']\x1b[31mERROR\x1b[0m: message\r\n",
			expected: "ERROR: message",
		},
		{
			name:     "carriage returns",
			input:    "line1\r\nline2\r",
			expected: "line1\nline2",
		},
		{
			name:     "already clean",
			input:    "clean message",
			expected: "clean message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Clean(tt.input)
			if result != tt.expected {
				t.Errorf("Clean(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}
