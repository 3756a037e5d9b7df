package console

import (
	"fmt"
	"strings"
)

// ANSI escape code constants for terminal styling.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"

	BrightRed    = "\033[91m"
	BrightGreen  = "\033[92m"
	BrightYellow = "\033[93m"
	BrightCyan   = "\033[96m"
	BrightWhite  = "\033[97m"
)

// Colorize wraps text with the given ANSI color code and a reset suffix.
//
// Precondition: color must be a valid ANSI escape sequence.
// Postcondition: Returns text wrapped with the color code and Reset.
func Colorize(color, text string) string {
	return color + text + Reset
}

// Colorf wraps a formatted string with the given ANSI color code.
func Colorf(color, format string, args ...any) string {
	return color + fmt.Sprintf(format, args...) + Reset
}

// StripANSI removes all ANSI escape sequences from a string.
//
// Postcondition: Returns text with all \033[...m sequences removed.
func StripANSI(s string) string {
	result := make([]byte, 0, len(s))
	i := 0
	for i < len(s) {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			if j < len(s) {
				i = j + 1
				continue
			}
		}
		result = append(result, s[i])
		i++
	}
	return string(result)
}

// Bar draws a fixed-width gauge of cur out of total, e.g. [#######---].
// The filled part takes color; cur is clamped to [0, total].
//
// Precondition: width >= 1.
// Postcondition: StripANSI of the result is exactly width+2 characters.
func Bar(cur, total, width int, color string) string {
	filled := 0
	if total > 0 {
		cur = max(0, min(cur, total))
		filled = cur * width / total
		if cur > 0 && filled == 0 {
			filled = 1
		}
	}
	return "[" + Colorize(color, strings.Repeat("#", filled)) + Colorize(Dim, strings.Repeat("-", width-filled)) + "]"
}

// healthColor picks green, yellow or red by the remaining fraction.
func healthColor(cur, total int) string {
	switch {
	case total <= 0 || cur*4 <= total:
		return BrightRed
	case cur*2 <= total:
		return BrightYellow
	default:
		return BrightGreen
	}
}
