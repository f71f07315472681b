package board

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/frahmantamala/gearguard/internal/request"
	"github.com/frahmantamala/gearguard/internal/schedule"
)

var columnColors = map[request.Status]lipgloss.Color{
	request.StatusNew:        lipgloss.Color("39"),
	request.StatusInProgress: lipgloss.Color("214"),
	request.StatusRepaired:   lipgloss.Color("42"),
	request.StatusScrap:      lipgloss.Color("245"),
}

// Render draws the board as side-by-side columns for a terminal of the given
// width. Provisional cards are marked with an asterisk.
func Render(b schedule.Board, width int) string {
	if len(b.Columns) == 0 {
		return ""
	}
	colWidth := width/len(b.Columns) - 2
	if colWidth < 16 {
		colWidth = 16
	}

	cols := make([]string, 0, len(b.Columns))
	for _, c := range b.Columns {
		cols = append(cols, renderColumn(c, colWidth))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func renderColumn(c schedule.Column, width int) string {
	color := columnColors[c.Status]
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(color).
		Width(width).
		Render(fmt.Sprintf("%s (%d)", c.Title, c.Count))

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Width(width - 2).
		MaxWidth(width)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	cards := []string{header}
	for _, r := range c.Requests {
		cards = append(cards, cardStyle.Render(cardText(r, width-4, dim)))
	}
	return lipgloss.NewStyle().MarginRight(2).Render(lipgloss.JoinVertical(lipgloss.Left, cards...))
}

func cardText(r request.Request, width int, dim lipgloss.Style) string {
	id := "#" + r.Key()
	if r.Provisional() {
		id = "*" + strings.TrimPrefix(r.Key(), tempIDPrefix)
		if len(id) > 9 {
			id = id[:9]
		}
	}
	lines := []string{truncate(id+" "+r.Subject, width)}

	var meta []string
	if r.Equipment != nil {
		meta = append(meta, r.Equipment.Name)
	}
	if r.AssignedTechnician != nil {
		meta = append(meta, r.AssignedTechnician.Name)
	}
	meta = append(meta, r.ScheduledDate.Format("Jan 2 15:04"))
	lines = append(lines, dim.Render(truncate(strings.Join(meta, " · "), width)))
	return strings.Join(lines, "\n")
}

func truncate(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > width-1 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
