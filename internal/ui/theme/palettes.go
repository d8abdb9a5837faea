package theme

import "github.com/charmbracelet/lipgloss"

// palette is the handful of colors a scheme defines. Status and priority
// colors are derived from it.
type palette struct {
	name string

	background, foreground, subtle, highlight, border string
	primary, secondary, info                          string
	success, warning, danger                          string

	// active marks work in progress; hot marks high priority
	active, hot string
}

func (p palette) theme() Theme {
	c := func(hex string) lipgloss.Color { return lipgloss.Color(hex) }
	return Theme{
		Name: p.name,

		Background: c(p.background),
		Foreground: c(p.foreground),
		Subtle:     c(p.subtle),
		Highlight:  c(p.highlight),
		Border:     c(p.border),

		Primary:   c(p.primary),
		Secondary: c(p.secondary),
		Success:   c(p.success),
		Warning:   c(p.warning),
		Error:     c(p.danger),
		Info:      c(p.info),

		PriorityLow:    c(p.success),
		PriorityMedium: c(p.warning),
		PriorityHigh:   c(p.hot),

		StatusToDo:       c(p.warning),
		StatusInProgress: c(p.active),
		StatusDone:       c(p.success),
		StatusOverdue:    c(p.danger),
		StatusUnknown:    c(p.subtle),
	}
}

var (
	// Catppuccin Mocha, https://catppuccin.com/palette
	Catppuccin = palette{
		name:       "catppuccin",
		background: "#1E1E2E", foreground: "#CDD6F4", subtle: "#6C7086", highlight: "#313244", border: "#45475A",
		primary: "#89B4FA", secondary: "#CBA6F7", info: "#74C7EC",
		success: "#A6E3A1", warning: "#F9E2AF", danger: "#F38BA8",
		active: "#89B4FA", hot: "#FAB387",
	}.theme()

	// Nord, https://www.nordtheme.com/
	Nord = palette{
		name:       "nord",
		background: "#2E3440", foreground: "#ECEFF4", subtle: "#4C566A", highlight: "#3B4252", border: "#4C566A",
		primary: "#88C0D0", secondary: "#81A1C1", info: "#5E81AC",
		success: "#A3BE8C", warning: "#EBCB8B", danger: "#BF616A",
		active: "#88C0D0", hot: "#D08770",
	}.theme()

	// Dracula, https://draculatheme.com/contribute
	Dracula = palette{
		name:       "dracula",
		background: "#282A36", foreground: "#F8F8F2", subtle: "#6272A4", highlight: "#44475A", border: "#6272A4",
		primary: "#BD93F9", secondary: "#8BE9FD", info: "#8BE9FD",
		success: "#50FA7B", warning: "#F1FA8C", danger: "#FF5555",
		active: "#8BE9FD", hot: "#FFB86C",
	}.theme()

	// Gruvbox dark, https://github.com/morhetz/gruvbox
	Gruvbox = palette{
		name:       "gruvbox",
		background: "#282828", foreground: "#EBDBB2", subtle: "#928374", highlight: "#3C3836", border: "#504945",
		primary: "#83A598", secondary: "#8EC07C", info: "#83A598",
		success: "#B8BB26", warning: "#FABD2F", danger: "#FB4934",
		active: "#83A598", hot: "#FE8019",
	}.theme()
)
