package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "trims whitespace",
			input:    []string{"  first ", "second  "},
			expected: []string{"first", "second"},
		},
		{
			name:     "drops empties",
			input:    []string{"first", "", "   ", "second"},
			expected: []string{"first", "second"},
		},
		{
			name:     "drops duplicates keeping first-seen order",
			input:    []string{"b", "a", "b", "c", "a"},
			expected: []string{"b", "a", "c"},
		},
		{
			name:     "duplicates detected after trimming",
			input:    []string{" first", "first "},
			expected: []string{"first"},
		},
		{
			name:     "case sensitive",
			input:    []string{"First", "first"},
			expected: []string{"First", "first"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}
