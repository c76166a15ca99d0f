package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vvka-141/sfmeta/internal/services"
)

// ANSI 256 palette.
var (
	colorAccent = lipgloss.Color("39")
	colorDim    = lipgloss.Color("245")
	colorFaint  = lipgloss.Color("240")
	colorGood   = lipgloss.Color("34")
	colorNotice = lipgloss.Color("214")
	colorBad    = lipgloss.Color("196")
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	MessageStyle = lipgloss.NewStyle().Foreground(colorDim)
	SuccessStyle = lipgloss.NewStyle().Foreground(colorGood)
	ErrorStyle   = lipgloss.NewStyle().Foreground(colorBad)
	HelpStyle    = lipgloss.NewStyle().Foreground(colorFaint)
	SpinnerStyle = lipgloss.NewStyle().Foreground(colorAccent)
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorDim)
)

// stateStyles colors the State column of result tables.
var stateStyles = map[services.ComponentState]lipgloss.Style{
	services.StateCreated:   lipgloss.NewStyle().Foreground(colorGood),
	services.StateChanged:   lipgloss.NewStyle().Foreground(colorNotice),
	services.StateDeleted:   lipgloss.NewStyle().Foreground(colorBad),
	services.StateUnchanged: lipgloss.NewStyle().Foreground(colorFaint),
	services.StateFailed:    ErrorStyle,
}

// StateStyle returns the style for a component state, plain when unknown.
func StateStyle(s services.ComponentState) lipgloss.Style {
	if st, ok := stateStyles[s]; ok {
		return st
	}
	return lipgloss.NewStyle()
}

const (
	SymbolCheck  = "✓"
	SymbolCross  = "✗"
	SymbolBullet = "•"
)
