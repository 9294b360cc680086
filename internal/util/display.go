package util

import "github.com/mattn/go-runewidth"

// Terminal color sequences
const (
	ColorReset  = "\033[0m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorRed    = "\033[31m"
)

// GetDisplayWidth calculates the display width of a string, counting wide runes twice
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// PadRight pads text with spaces up to width display columns.
func PadRight(text string, width int) string {
	return runewidth.FillRight(text, width)
}

// PadLeft right-aligns text within width display columns.
func PadLeft(text string, width int) string {
	return runewidth.FillLeft(text, width)
}

// Truncate shortens text to width display columns, marking the cut with "…".
func Truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(text, width, "…")
}

// FormatStatus colors a pass/fail marker.
func FormatStatus(ok bool) string {
	if ok {
		return ColorGreen + "OK" + ColorReset
	}
	return ColorRed + "FAIL" + ColorReset
}

// FormatWarning colors a warning line (Yellow)
func FormatWarning(msg string) string {
	return ColorYellow + msg + ColorReset
}
