package cli

import (
	"os"

	"golang.org/x/term"
)

// TerminalWidth reports the width of the terminal on stdout, or the fallback
// when stdout is not a terminal (pipes, CI).
func TerminalWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return fallback
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}
