package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"  _____ _                           _  __  __",
	" | ____| | ___ _ __ ___   ___ _ __ | |_\\ \\/ /",
	" |  _| | |/ _ \\ '_ ` _ \\ / _ \\ '_ \\| __|\\  / ",
	" | |___| |  __/ | | | | |  __/ | | | |_ /  \\ ",
	" |_____|_|\\___|_| |_| |_|\\___|_| |_|\\__/_/\\_\\",
}

// Teal to violet, one shade per line.
var bannerColors = []string{"#2dd4bf", "#22d3ee", "#38bdf8", "#818cf8", "#a78bfa"}

// PrintBanner writes the ElementX banner and version to w, coloured when w
// is a terminal that supports it.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(out.Color(bannerColors[i%len(bannerColors)])))
	}
	fmt.Fprintln(w, out.String("  stoichiometry for the synthesis bench  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
