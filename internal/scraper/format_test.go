package scraper

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestFormatCount(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0K"},
		{1234, "1.2K"},
		{1250, "1.3K"},
		{999_999, "1000.0K"},
		{1_000_000, "1.0M"},
		{5_600_000, "5.6M"},
		{123_456_789, "123.5M"},
	}
	for _, tt := range tests {
		if got := FormatCount(tt.in); got != tt.want {
			t.Errorf("FormatCount(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0s"},
		{10, "10s"},
		{59, "59s"},
		{60, "1m0s"},
		{90, "1m30s"},
		{3725, "62m5s"},
		{-5, "0s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		title    string
		duration int
		want     string
	}{
		{"T", 10, "T_10s"},
		{"Hello, World!", 90, "Hello_World_1m30s"},
		{"Café olé", 5, "Cafe_ole_5s"},
		{"🔥🔥🔥", 7, "tiktok_video_7s"},
		{"", 0, "tiktok_video_0s"},
		{"one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen", 1,
			"one_two_three_four_five_six_seven_eight_nine_ten_eleven_twelve_thirteen_fourteen_1s"},
		{"snake_case stays", 3, "snake_case_stays_3s"},
	}
	for _, tt := range tests {
		if got := Filename(tt.title, tt.duration); got != tt.want {
			t.Errorf("Filename(%q, %d) = %q, want %q", tt.title, tt.duration, got, tt.want)
		}
	}
}

// TestProperty_Filename_Safe checks that filenames only ever contain ASCII
// letters, digits and underscores and end with the duration.
func TestProperty_Filename_Safe(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		title := rapid.String().Draw(rt, "title")
		duration := rapid.IntRange(0, 36000).Draw(rt, "duration")

		name := Filename(title, duration)
		for _, r := range name {
			ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
			if !ok {
				rt.Fatalf("Filename(%q) = %q contains %q", title, name, r)
			}
		}
		if !strings.HasSuffix(name, "_"+FormatDuration(duration)) {
			rt.Fatalf("Filename(%q) = %q lacks duration suffix", title, name)
		}
	})
}
