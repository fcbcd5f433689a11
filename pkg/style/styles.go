package style

import (
	"github.com/charmbracelet/lipgloss"
)

// Color definitions using AdaptiveColor for automatic light/dark mode switching
var (
	HeadingColor = lipgloss.AdaptiveColor{
		Light: "#212529",
		Dark:  "#F8F9FA",
	}

	MutedColor = lipgloss.AdaptiveColor{
		Light: "#6C757D",
		Dark:  "#ADB5BD",
	}

	HashColor = lipgloss.AdaptiveColor{
		Light: "#007ACC",
		Dark:  "#3D9EFF",
	}

	ContributingColor = lipgloss.AdaptiveColor{
		Light: "#28A745",
		Dark:  "#4CDD76",
	}

	SuppressedColor = lipgloss.AdaptiveColor{
		Light: "#DC3545",
		Dark:  "#FF6B7D",
	}

	HintColor = lipgloss.AdaptiveColor{
		Light: "#FFC107",
		Dark:  "#FFD54F",
	}
)

// Styles for the evaluate command's variant output
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(HeadingColor).
			Bold(true).
			MarginBottom(1)

	HashStyle = lipgloss.NewStyle().
			Foreground(HashColor)

	ContributingStyle = lipgloss.NewStyle().
				Foreground(ContributingColor).
				Bold(true)

	SuppressedStyle = lipgloss.NewStyle().
			Foreground(SuppressedColor)

	HintStyle = lipgloss.NewStyle().
			Foreground(HintColor).
			Italic(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	TreeIndentStyle = lipgloss.NewStyle().
			PaddingLeft(2)
)
