package utils

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMap tests the Map function.
func TestMap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    []int
		expected []string
	}{
		{
			name:     "non-empty slice",
			input:    []int{1, 2, 3},
			expected: []string{"1", "2", "3"},
		},
		{
			name:     "empty slice",
			input:    []int{},
			expected: []string{},
		},
		{
			name:     "nil slice",
			input:    nil,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := Map(tt.input, strconv.Itoa)
			assert.Equal(t, tt.expected, result)
		})
	}
}
