package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the reschema banner followed by the version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"                     _                              ", "#818cf8"},
		{"  _ __ ___  ___  ___| |__   ___ _ __ ___   __ _     ", "#a78bfa"},
		{" | '__/ _ \\/ __|/ __| '_ \\ / _ \\ '_ ` _ \\ / _` |", "#c084fc"},
		{" | | |  __/\\__ \\ (__| | | |  __/ | | | | | (_| |", "#e879f9"},
		{" |_|  \\___||___/\\___|_| |_|\\___|_| |_| |_|\\__,_|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
