package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mrdg/polysampler/audio"
)

const meterWidth = 32

// renderStats prints the pool counters with a meter of live voices.
func renderStats(stats audio.Stats, w io.Writer) {
	fmt.Fprintf(w, "%s %s %d/%d\n", colorize("voices", colorBlue),
		meter(stats.Live, stats.Voices), stats.Live, stats.Voices)
	fmt.Fprintf(w, "%s %s %d\n", colorize("peak  ", colorBlue),
		meter(stats.HighWater, stats.Voices), stats.HighWater)
	fmt.Fprintf(w, "%s %d\n", colorize("mixed ", colorBlue), stats.MaxMixed)

	dropped := fmt.Sprint(stats.Dropped)
	if stats.Dropped > 0 {
		dropped = colorize(dropped, colorRed)
	}
	underruns := fmt.Sprint(stats.Underruns)
	if stats.Underruns > 0 {
		underruns = colorize(underruns, colorYellow)
	}
	fmt.Fprintf(w, "%s %s  %s %s\n", colorize("dropped", colorMagenta), dropped,
		colorize("underruns", colorMagenta), underruns)
}

func meter(n, max int) string {
	if max <= 0 {
		return ""
	}
	filled := n * meterWidth / max
	if n > 0 && filled == 0 {
		filled = 1
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", meterWidth-filled) + "]"
}

const (
	colorBlack = iota + 30
	colorRed
	colorGreen
	colorYellow
	colorBlue
	colorMagenta
)

func colorize(text string, color int) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, text)
}
