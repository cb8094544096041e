package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSplitLaunchArg tests the translation of raw Chromium flags into the
// name/value form the rod launcher expects.
func TestSplitLaunchArg(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		arg            string
		expectedName   string
		expectedValues []string
	}{
		{
			name:         "bare flag",
			arg:          "--no-sandbox",
			expectedName: "no-sandbox",
		},
		{
			name:           "flag with value",
			arg:            "--window-size=1280,800",
			expectedName:   "window-size",
			expectedValues: []string{"1280,800"},
		},
		{
			name:         "single dash",
			arg:          "-incognito",
			expectedName: "incognito",
		},
		{
			name:         "no dashes",
			arg:          "disable-gpu",
			expectedName: "disable-gpu",
		},
		{
			name:           "value containing equals",
			arg:            "--js-flags=--max-old-space-size=500",
			expectedName:   "js-flags",
			expectedValues: []string{"--max-old-space-size=500"},
		},
		{
			name:         "whitespace trimmed",
			arg:          "  --mute-audio  ",
			expectedName: "mute-audio",
		},
		{
			name:         "empty string",
			arg:          "",
			expectedName: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			name, values := splitLaunchArg(tt.arg)

			assert.Equal(t, tt.expectedName, name)
			assert.Equal(t, tt.expectedValues, values)
		})
	}
}
