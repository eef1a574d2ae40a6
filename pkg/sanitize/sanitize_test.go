package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		replace  []string
		expected string
	}{
		{
			name:     "plain title untouched",
			input:    "The Expanse",
			expected: "The Expanse",
		},
		{
			name:     "accents transliterated and punctuation dropped",
			input:    "Café: Über Crème",
			expected: "Cafe Uber Creme",
		},
		{
			name:     "whitelisted punctuation kept",
			input:    "Don't Look Up (2021) [1080p]!",
			expected: "Don't Look Up (2021) [1080p]!",
		},
		{
			name:     "replace characters become underscores",
			input:    "a b c",
			replace:  []string{" "},
			expected: "a_b_c",
		},
		{
			name:     "disallowed characters removed",
			input:    `What/If: Part* 2?`,
			expected: "WhatIf Part 2",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  padded  ",
			expected: "padded",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clean(tt.input, tt.replace...))
		})
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"Café: Über Crème",
		"Show Name - S02E05 - The One",
		"[group] title (2020) 'quoted'!",
		"日本語タイトル mixed ascii",
	}

	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once), "Clean should be idempotent for %q", in)
	}
}
