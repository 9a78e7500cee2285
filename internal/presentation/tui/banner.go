package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the wattle wordmark with a gradient color scheme.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []string{
		`                  _     _     _`,
		`                 | |   | |   | |`,
		`__      __  __ _ | |_  | |_  | |  ___`,
		`\ \ /\ / / / _` + "`" + ` || __| | __| | | / _ \`,
		` \ V  V / | (_| || |_  | |_  | ||  __/`,
		`  \_/\_/   \__,_| \__|  \__| |_| \___|`,
	}
	colors := []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6", "#fb7185"}

	fmt.Fprintln(w)
	for i, line := range lines {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(colors[i])))
	}
	fmt.Fprintln(w)
}
