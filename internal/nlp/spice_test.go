package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSpice(t *testing.T) {
	cases := []struct {
		text     string
		spicy    bool
		nonspicy bool
	}{
		{"spicy", true, false},
		{"hot please", true, false},
		{"not spicy", false, true},
		{"non spicy", false, true},
		{"without spice", false, true},
		{"حار", true, false},
		{"بدون حار", false, true},
		{"with fries", false, false},
	}
	for _, tc := range cases {
		spicy, nonspicy := DetectSpice(tc.text)
		assert.Equal(t, tc.spicy, spicy, "DetectSpice(%q) spicy", tc.text)
		assert.Equal(t, tc.nonspicy, nonspicy, "DetectSpice(%q) nonspicy", tc.text)
	}
}

func TestSplitSpice(t *testing.T) {
	cases := []struct {
		text     string
		total    int
		spicy    int
		nonspicy int
	}{
		{"spicy", 3, 3, 0},
		{"not spicy", 3, 0, 3},
		{"whatever", 2, 0, 2},
		{"half spicy half non spicy", 5, 3, 2},
		{"half spicy and half not spicy", 4, 2, 2},
		{"half", 5, 0, 5}, // no preference mentioned, default applies
		{"2 spicy", 5, 2, 3},
		{"3 non spicy", 5, 2, 3},
		{"3 spicy 2 non spicy", 5, 3, 2},
		{"2 non spicy 3 spicy", 5, 3, 2},
		{"2 حار 1 بدون حار", 3, 2, 1},
		{"", 0, 0, 0},
	}
	for _, tc := range cases {
		spicy, nonspicy := SplitSpice(tc.text, tc.total)
		assert.Equal(t, tc.spicy, spicy, "SplitSpice(%q, %d) spicy", tc.text, tc.total)
		assert.Equal(t, tc.nonspicy, nonspicy, "SplitSpice(%q, %d) nonspicy", tc.text, tc.total)
	}
}

// swapping the order of the two halves never changes the split
func TestSplitSpiceSwapIdempotent(t *testing.T) {
	s1, n1 := SplitSpice("3 spicy 2 non spicy", 5)
	s2, n2 := SplitSpice("2 non spicy 3 spicy", 5)
	assert.Equal(t, s1, s2)
	assert.Equal(t, n1, n2)
}

// an over-claimed quantity clamps to the total being clarified
func TestSplitSpiceClampsToTotal(t *testing.T) {
	spicy, nonspicy := SplitSpice("7 spicy", 5)
	assert.Equal(t, 5, spicy)
	assert.Equal(t, 0, nonspicy)

	spicy, nonspicy = SplitSpice("9 non spicy", 5)
	assert.Equal(t, 0, spicy)
	assert.Equal(t, 5, nonspicy)

	// spicy is clamped first, non-spicy takes what remains
	spicy, nonspicy = SplitSpice("4 spicy 4 non spicy", 5)
	assert.Equal(t, 4, spicy)
	assert.Equal(t, 1, nonspicy)
}
