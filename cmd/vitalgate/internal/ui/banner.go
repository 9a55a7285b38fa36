// Package ui holds the vitalgate process's startup banner.
package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	figure "github.com/common-nighthawk/go-figure"
)

// BannerStyle defines the styling for the ASCII banner.
var BannerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#2fb67c")).
	Bold(true)

// PrintBanner prints the "vitalgate" ASCII art banner to stderr.
func PrintBanner() {
	banner := figure.NewFigure("vitalgate", "banner3", true)

	fmt.Fprintln(os.Stderr, BannerStyle.Render(banner.String()))
	fmt.Fprintln(os.Stderr)
}
