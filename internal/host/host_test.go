package host

import "testing"

func TestStyleClassHelpers(t *testing.T) {
	tests := []struct {
		style   StyleClass
		heading bool
		level   int
	}{
		{StyleNormal, false, 0},
		{StyleHeading1, true, 1},
		{StyleHeading2, true, 2},
		{StyleHeading3, true, 3},
		{StyleClass("Quote"), false, 0},
	}
	for _, tt := range tests {
		if got := tt.style.IsHeading(); got != tt.heading {
			t.Errorf("%s.IsHeading() = %v, want %v", tt.style, got, tt.heading)
		}
		if got := tt.style.HeadingLevel(); got != tt.level {
			t.Errorf("%s.HeadingLevel() = %d, want %d", tt.style, got, tt.level)
		}
	}
}

func TestHeadingStyleClamps(t *testing.T) {
	tests := []struct {
		level int
		want  StyleClass
	}{
		{0, StyleHeading1},
		{1, StyleHeading1},
		{2, StyleHeading2},
		{3, StyleHeading3},
		{6, StyleHeading3},
	}
	for _, tt := range tests {
		if got := HeadingStyle(tt.level); got != tt.want {
			t.Errorf("HeadingStyle(%d) = %s, want %s", tt.level, got, tt.want)
		}
	}
}
