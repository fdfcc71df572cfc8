package output

import "github.com/charmbracelet/lipgloss"

var (
	colorBorder  = lipgloss.Color("#1a3a1a")
	colorPrimary = lipgloss.Color("#00ff41")
	colorAmber   = lipgloss.Color("#ffb000")
	colorRed     = lipgloss.Color("#ff3333")
	colorCyan    = lipgloss.Color("#00b8ff")
	colorText    = lipgloss.Color("#e5e5e5")
	colorMuted   = lipgloss.Color("#707070")
)

// styles are bound to a renderer so colour is only emitted when the
// destination is a terminal.
type styles struct {
	border  lipgloss.Style
	header  lipgloss.Style
	address lipgloss.Style
	rule    lipgloss.Style
	reason  lipgloss.Style
	muted   lipgloss.Style
	summary lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		border:  r.NewStyle().Foreground(colorBorder),
		header:  r.NewStyle().Foreground(colorPrimary).Bold(true).Padding(0, 1),
		address: r.NewStyle().Foreground(colorRed).Bold(true).Padding(0, 1),
		rule:    r.NewStyle().Foreground(colorCyan).Padding(0, 1),
		reason:  r.NewStyle().Foreground(colorText).Padding(0, 1),
		muted:   r.NewStyle().Foreground(colorMuted).Padding(0, 1),
		summary: r.NewStyle().Foreground(colorAmber),
	}
}
