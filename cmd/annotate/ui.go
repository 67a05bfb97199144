package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

var (
	labelColor   = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
)

func printField(w io.Writer, label, value string) {
	labelColor.Fprintf(w, "%-10s", label+":")
	fmt.Fprintf(w, " %s\n", value)
}

func printSuccess(w io.Writer, format string, args ...interface{}) {
	successColor.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...interface{}) {
	warnColor.Fprintf(w, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// newProgressBar draws page progress on w.
func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		int64(total),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
}
