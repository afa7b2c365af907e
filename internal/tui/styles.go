package tui

import "github.com/charmbracelet/lipgloss"

const (
	colorPrimary = "#7D56F4"
	colorSuccess = "#04B575"
	colorError   = "#FF5F5F"
	colorInfo    = "#626262"
	colorTrack   = "#3A3A3A"
	colorDelete  = "#D7263D"
	colorHandle  = "#FFB000"
	colorPreview = "#F28D9B"
	colorHead    = "#FAFAFA"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorPrimary))

	StatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorSuccess))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorError))

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorInfo))

	trackStyle   = lipgloss.NewStyle().Background(lipgloss.Color(colorTrack))
	deleteStyle  = lipgloss.NewStyle().Background(lipgloss.Color(colorDelete))
	hoverStyle   = lipgloss.NewStyle().Background(lipgloss.Color(colorDelete)).Bold(true).Underline(true)
	handleStyle  = lipgloss.NewStyle().Background(lipgloss.Color(colorHandle))
	previewStyle = lipgloss.NewStyle().Background(lipgloss.Color(colorPreview))
	headStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorHead)).Bold(true)
)
