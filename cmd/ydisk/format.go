package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/yadisk-unofficial/yadisk-go"
)

func init() {
	// Colors only on a real terminal; piping ls into another tool must
	// produce plain text.
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// dirColor highlights directory names in listings.
var dirColor = color.New(color.FgBlue, color.Bold)

// Size unit constants for human-readable formatting.
const (
	sizeKB = 1024
	sizeMB = 1024 * 1024
	sizeGB = 1024 * 1024 * 1024
	sizeTB = 1024 * 1024 * 1024 * 1024
)

// formatSize returns a human-readable size string (e.g. "1.2 MB").
func formatSize(bytes int64) string {
	switch {
	case bytes >= sizeTB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/float64(sizeTB))
	case bytes >= sizeGB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(sizeGB))
	case bytes >= sizeMB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(sizeMB))
	case bytes >= sizeKB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(sizeKB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatTime returns a compact timestamp for display.
func formatTime(t time.Time) string {
	now := time.Now()

	if t.Year() == now.Year() {
		return t.Format("Jan _2 15:04")
	}

	return t.Format("Jan _2  2006")
}

// printResource writes one listing line, long or short form.
func printResource(res *yadisk.Resource, long bool) {
	name := res.Name
	if res.IsDir() {
		name = dirColor.Sprint(name) + "/"
	}

	if !long {
		fmt.Println(name)

		return
	}

	size := "-"
	if !res.IsDir() {
		size = formatSize(res.Size)
	}

	modified := "-"
	if res.Modified != nil {
		modified = formatTime(*res.Modified)
	}

	fmt.Printf("%10s  %s  %s\n", size, modified, name)
}
