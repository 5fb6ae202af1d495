package tui

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/chatstat/internal/parse"
)

const senderWidth = 12

var (
	// Colors
	colorPrimary   = lipgloss.Color("12")  // bright blue
	colorDim       = lipgloss.Color("240") // gray
	colorHighlight = lipgloss.Color("11")  // bright yellow
	colorBorder    = lipgloss.Color("238") // dark gray
	colorNotice    = lipgloss.Color("5")   // magenta

	// senderPalette is indexed by a hash of the sender name.
	senderPalette = []lipgloss.Color{
		lipgloss.Color("12"),
		lipgloss.Color("10"),
		lipgloss.Color("14"),
		lipgloss.Color("13"),
		lipgloss.Color("9"),
		lipgloss.Color("208"),
	}

	// Input area
	styleInput = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	// List items
	styleListSelected = lipgloss.NewStyle().
				Foreground(colorHighlight).
				Bold(true)

	styleListNormal = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	styleListTitle = lipgloss.NewStyle().
			Foreground(colorDim)

	// Panels
	stylePanelBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder)

	styleActiveBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary)

	// Status bar
	styleStatusBar = lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1)

	// Panel titles
	styleTitle = lipgloss.NewStyle().
			Foreground(colorDim).
			Bold(true)
)

func senderStyle(sender string) lipgloss.Style {
	if sender == parse.GroupNotification {
		return lipgloss.NewStyle().Foreground(colorNotice).Italic(true)
	}
	h := fnv.New32a()
	h.Write([]byte(sender))
	return lipgloss.NewStyle().Foreground(senderPalette[h.Sum32()%uint32(len(senderPalette))])
}
