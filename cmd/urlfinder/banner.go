package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

const bannerWidth = 52

// printBanner writes the startup banner to w.
// Colors follow color.NoColor, which is set from --no-color and from
// whether the terminal supports them.
func printBanner(w io.Writer) {
	title := color.New(color.FgWhite, color.BgBlue, color.Bold)
	pad := color.New(color.BgBlue)
	desc := color.New(color.FgYellow)
	head := color.New(color.FgGreen, color.Bold)
	item := color.New(color.FgCyan)

	line := fmt.Sprintf(" URLFinder %s ", getVersion())
	if n := bannerWidth - len(line); n > 0 {
		line += strings.Repeat(" ", n)
	}

	fmt.Fprintln(w, pad.Sprint(strings.Repeat(" ", bannerWidth)))
	fmt.Fprintln(w, title.Sprint(line))
	fmt.Fprintln(w, pad.Sprint(strings.Repeat(" ", bannerWidth)))
	fmt.Fprintln(w, desc.Sprint(" Extracts URLs, JavaScript and sensitive strings"))
	fmt.Fprintln(w, desc.Sprint(" from web pages"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, head.Sprint(" Features:"))
	for _, f := range []string{
		"Concurrent fetching with a shared slot limit",
		"JavaScript URL extraction",
		"Sensitive information detection",
		"Path fuzzing from discovered URLs",
		"JSON, CSV, HTML, Markdown and XLSX reports",
	} {
		fmt.Fprintln(w, item.Sprint(" - "+f))
	}
	fmt.Fprintln(w)
}
