package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/strrl/pixgrid/pkg/models"
)

// Cards are cardContentLines of text inside a rounded border
const (
	cardContentLines = 4
	cardHeight       = cardContentLines + 2
	cardGap          = 1
)

// gridColumns returns how many cards of cardWidth fit side by side in width
func gridColumns(width, cardWidth int) int {
	if cardWidth <= 0 {
		return 1
	}
	return max(1, (width+cardGap)/(cardWidth+cardGap))
}

// rowTop returns the first viewport line of the row holding item index
func rowTop(index, columns int) int {
	if columns <= 0 {
		columns = 1
	}
	return (index / columns) * cardHeight
}

func renderCard(img models.Image, cardWidth int, selected bool) string {
	inner := cardWidth - 4
	if inner < 1 {
		inner = 1
	}

	borderColor := lipgloss.Color("238")
	if selected {
		borderColor = lipgloss.Color("212")
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(cardWidth - 2).
		Height(cardContentLines)

	tagStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	if selected {
		tagStyle = tagStyle.Foreground(lipgloss.Color("212"))
	}
	metaStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	urlStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Underline(true)

	tags := img.Tags
	if tags == "" {
		tags = fmt.Sprintf("#%d", img.ID)
	}

	lines := []string{
		tagStyle.Render(truncate(tags, inner)),
		metaStyle.Render(truncate("by "+img.User, inner)),
		metaStyle.Render(truncate(fmt.Sprintf("%dx%d  ♥ %d  ↓ %d", img.ImageWidth, img.ImageHeight, img.Likes, img.Downloads), inner)),
		urlStyle.Render(truncate(img.LargeImageURL, inner)),
	}
	return style.Render(strings.Join(lines, "\n"))
}

// renderGrid lays images out in rows of as many cards as fit in width
func renderGrid(images []models.Image, width, cardWidth, selected int) string {
	if len(images) == 0 {
		return ""
	}

	columns := gridColumns(width, cardWidth)
	gap := strings.Repeat(" ", cardGap)

	var rows []string
	for start := 0; start < len(images); start += columns {
		end := min(start+columns, len(images))
		cells := make([]string, 0, 2*(end-start))
		for i := start; i < end; i++ {
			if i > start {
				cells = append(cells, gap)
			}
			cells = append(cells, renderCard(images[i], cardWidth, i == selected))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(rows, "\n")
}

// truncate shortens s to maxLen runes, marking the cut with an ellipsis
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-1]) + "…"
}
