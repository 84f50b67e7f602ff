package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	`   ____`,
	`  / ___|__ _ _ ____   ____ _ ___ ___`,
	` | |   / _' | '_ \ \ / / _' / __/ __|`,
	` | |__| (_| | | | \ V / (_| \__ \__ \`,
	`  \____\__,_|_| |_|\_/ \__,_|___/___/`,
}

var bannerColors = []string{"#34d399", "#2dd4bf", "#22d3ee", "#38bdf8", "#60a5fa"}

// PrintBanner writes the ASCII banner followed by the version.
// Colors degrade with the terminal profile, so piping to a file yields plain text.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(p.Color(bannerColors[i])))
	}
	if version != "" {
		fmt.Fprintln(w, out.String("  v"+version).Faint())
	}
	fmt.Fprintln(w)
}
