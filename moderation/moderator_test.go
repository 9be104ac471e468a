package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions
// (e.g., "he" inside "The").
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	dictionary := []string{"warez", "leech", "phreak"}
	mod, err := NewModerator(dictionary, replacementChar)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "The warez is here",
			expected: "The ***** is here",
		},
		{
			name:     "Multiple occurrences and preserved spacing",
			input:    "warez warez warez",
			expected: "***** ***** *****",
		},
		{
			name:     "Leet speak substitutions",
			input:    "get the w4r3z now",
			expected: "get the ***** now",
		},
		{
			name:     "Internal punctuation noise",
			input:    "Look at w.a.r.e.z !",
			expected: "Look at ********* !",
		},
		{
			name:     "Uppercase and mixed noise",
			input:    "L-E-E-C-H is a P.H.R.E.A.K",
			expected: "********* is a ***********",
		},
		{
			name:     "Accents around the match (UTF-8)",
			input:    "Un été avec un leech",
			expected: "Un été avec un *****",
		},
		{
			name:     "Word adjacent to trailing punctuation",
			input:    "I love warez!",
			expected: "I love *****!",
		},
		{
			name:     "Nothing to censor",
			input:    "The board is amazing",
			expected: "The board is amazing",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req.Equal(tt.expected, mod.Censor(tt.input), "test=%s", tt.name)
		})
	}
}

func TestModerator_CensorKeepsUnmatchedTextIntact(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator([]string{"warez"}, replacementChar)
	req.NoError(err)

	// Given input with no match at all
	input := "perfectly clean sentence"

	// Then the original string comes back unchanged
	req.Equal(input, mod.Censor(input))
}
