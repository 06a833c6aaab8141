package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultFilename = "tiktok_video"
	maxTitleWords   = 14
)

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)

	nonWordOrSpace = regexp.MustCompile(`[^\w\s]`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// FormatCount abbreviates a counter: 1234 -> "1.2K", 5600000 -> "5.6M"
func FormatCount(n int64) string {
	d := decimal.NewFromInt(n)
	switch {
	case n >= 1_000_000:
		return d.Div(million).StringFixed(1) + "M"
	case n >= 1_000:
		return d.Div(thousand).StringFixed(1) + "K"
	default:
		return strconv.FormatInt(n, 10)
	}
}

// FormatDuration renders seconds as "1m30s", or "45s" under a minute
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	secs := seconds % 60
	if minutes > 0 {
		return fmt.Sprintf("%dm%ds", minutes, secs)
	}
	return fmt.Sprintf("%ds", secs)
}

// Filename derives a download filename from a title and duration:
// accents are folded, everything but letters, digits, underscores and
// spaces is dropped, the first 14 words are kept and whitespace becomes
// underscores. ("T", 10) -> "T_10s".
func Filename(title string, duration int) string {
	clean := nonWordOrSpace.ReplaceAllString(foldAccents(title), "")

	words := strings.Split(clean, " ")
	if len(words) > maxTitleWords {
		words = words[:maxTitleWords]
	}
	clean = strings.TrimSpace(strings.Join(words, " "))
	if clean == "" {
		clean = defaultFilename
	}

	return whitespaceRun.ReplaceAllString(clean+"_"+FormatDuration(duration), "_")
}

// foldAccents turns "Café" into "Cafe" so that accented titles keep their
// letters after the ASCII filter.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
