package render

import (
	"slices"

	"github.com/matzehuels/erdtower/pkg/errors"
)

// Theme is the colour scheme of a rendered diagram. Table and group colours
// set in the schema override HeaderFill and GroupStroke.
type Theme struct {
	Name        string
	Background  string
	TableFill   string
	TableStroke string
	HeaderFill  string
	HeaderText  string
	Text        string
	Muted       string // column types, notes and badges
	RowStripe   string
	Edge        string
	GroupFill   string
	GroupStroke string
	GroupText   string
	FontFamily  string
}

// Light is the default theme.
var Light = Theme{
	Name:        "light",
	Background:  "#ffffff",
	TableFill:   "#ffffff",
	TableStroke: "#94a3b8",
	HeaderFill:  "#334155",
	HeaderText:  "#ffffff",
	Text:        "#0f172a",
	Muted:       "#64748b",
	RowStripe:   "#f8fafc",
	Edge:        "#475569",
	GroupFill:   "#f1f5f9",
	GroupStroke: "#cbd5e1",
	GroupText:   "#334155",
	FontFamily:  "ui-monospace, SFMono-Regular, Menlo, Consolas, monospace",
}

// Dark suits dark page backgrounds.
var Dark = Theme{
	Name:        "dark",
	Background:  "#0f172a",
	TableFill:   "#1e293b",
	TableStroke: "#475569",
	HeaderFill:  "#0ea5e9",
	HeaderText:  "#0f172a",
	Text:        "#e2e8f0",
	Muted:       "#94a3b8",
	RowStripe:   "#233044",
	Edge:        "#94a3b8",
	GroupFill:   "#111c30",
	GroupStroke: "#334155",
	GroupText:   "#cbd5e1",
	FontFamily:  "ui-monospace, SFMono-Regular, Menlo, Consolas, monospace",
}

var themes = []Theme{Light, Dark}

// ThemeNames lists the built-in theme names.
func ThemeNames() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

// ThemeByName returns the built-in theme called name. The empty name is
// the light theme.
func ThemeByName(name string) (Theme, error) {
	if name == "" {
		return Light, nil
	}
	i := slices.IndexFunc(themes, func(t Theme) bool { return t.Name == name })
	if i < 0 {
		return Theme{}, errors.New(errors.ErrCodeInvalidInput, "unknown theme %q (want one of %v)", name, ThemeNames())
	}
	return themes[i], nil
}
