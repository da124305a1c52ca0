package output

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/sdejongh/locsync/pkg/models"
)

// overwrite marks a copy replacing a different destination file
const overwrite = "=>"

// Theme colors relation symbols
type Theme struct {
	styles map[string]lipgloss.Style
	header lipgloss.Style
	border lipgloss.Style
}

// NewTheme returns the theme for a color scheme
func NewTheme(scheme models.ColorScheme) (Theme, error) {
	plain := lipgloss.NewStyle()
	switch scheme {
	case models.ColorsNone:
		return Theme{styles: map[string]lipgloss.Style{}, header: plain, border: plain}, nil
	case "", models.ColorsDark:
		return Theme{
			styles: map[string]lipgloss.Style{
				string(models.RelationEqual):      lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
				string(models.RelationDiffers):    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
				string(models.RelationUnverified): lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
				string(models.RelationSourceOnly): lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
				string(models.RelationDestOnly):   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
				overwrite:                         lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
			},
			header: lipgloss.NewStyle().Bold(true),
			border: lipgloss.NewStyle().Foreground(lipgloss.Color("248")),
		}, nil
	default:
		return Theme{}, &models.ValidationError{Field: "colors", Message: fmt.Sprintf("unknown color scheme %q (valid: none, dark)", scheme)}
	}
}

// Symbol renders a relation or plan symbol
func (t Theme) Symbol(s string) string {
	if style, ok := t.styles[s]; ok {
		return style.Render(s)
	}
	return s
}

// style returns the style applied to a symbol, plain when uncolored
func (t Theme) style(s string) lipgloss.Style {
	if style, ok := t.styles[s]; ok {
		return style
	}
	return lipgloss.NewStyle()
}
