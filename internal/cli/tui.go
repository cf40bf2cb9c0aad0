package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/erdtower/pkg/diagram"
	"github.com/matzehuels/erdtower/pkg/geom"
	"github.com/matzehuels/erdtower/pkg/pipeline"
	"github.com/matzehuels/erdtower/pkg/session"
	"github.com/matzehuels/erdtower/pkg/solver"
	"github.com/matzehuels/erdtower/pkg/solver/dot"
)

const (
	defaultDragStep = 10.0
	fastDragFactor  = 5
)

// directionCycle is the order the d key steps through.
var directionCycle = []solver.Direction{solver.Right, solver.Down, solver.Left, solver.Up}

var (
	tuiSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
	tuiMovedStyle    = lipgloss.NewStyle().Foreground(colorYellow).Padding(0, 1)
	tuiNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite).Padding(0, 1)
	tuiErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// tuiCommand creates the interactive editor command.
func (c *CLI) tuiCommand() *cobra.Command {
	var (
		flags     layoutFlags
		sessionID string
		svgPath   string
		theme     string
		step      float64
	)

	cmd := &cobra.Command{
		Use:   "tui [schema]",
		Short: "Edit a diagram interactively",
		Long: `Edit a diagram interactively.

Select a table with tab, drag it with the arrow keys (shift for larger
steps) and press enter to drop it. r recomputes the layout and discards all
moves, d cycles the layer direction, x resets the selected table, s saves
the current view as SVG.

Sessions are kept on disk; resume one with --session.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := session.NewFileStore("")
			if err != nil {
				return err
			}
			defer store.Close()

			opts := pipeline.Options{}
			flags.apply(&opts)
			layouter := diagram.NewLayouter(dot.New(nil), nil, opts.BuildOptions()...)

			sess, err := c.openSession(ctx, store, layouter, args, sessionID, flags.direction)
			if err != nil {
				return err
			}
			if svgPath == "" {
				svgPath = sess.ID + ".svg"
				if len(args) == 1 {
					svgPath = outputPath("", args[0], ".svg")
				}
			}

			m := newEditorModel(ctx, sess, layouter, store)
			m.svgPath, m.theme, m.step = svgPath, theme, step

			if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
				return err
			}
			printSuccess("Session saved")
			printNextStep("Resume", fmt.Sprintf("%s tui --session %s", appName, sess.ID))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&sessionID, "session", "", "resume a saved session")
	cmd.Flags().StringVar(&svgPath, "svg", "", "file the s key writes (default: <input>.svg)")
	cmd.Flags().StringVar(&theme, "theme", pipeline.DefaultTheme, "colour theme for saved SVGs")
	cmd.Flags().Float64Var(&step, "step", defaultDragStep, "units per arrow key press")

	return cmd
}

func (c *CLI) openSession(ctx context.Context, store session.Store, l *diagram.Layouter, args []string, id, direction string) (*session.Session, error) {
	if id != "" {
		sess, err := store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !sess.HasLayout() {
			err = sess.Relayout(ctx, l)
		}
		return sess, err
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("a schema file or --session is required")
	}
	s, err := loadSchema(args[0])
	if err != nil {
		return nil, err
	}
	dir, err := solver.ParseDirection(direction)
	if err != nil {
		return nil, err
	}
	sess := session.New(s, dir, session.DefaultTTL)
	if _, err := spin(ctx, "Computing layout...", func() (struct{}, error) {
		return struct{}{}, sess.Relayout(ctx, l)
	}); err != nil {
		return nil, err
	}
	return sess, store.Set(ctx, sess)
}

// =============================================================================
// editorModel - Interactive diagram editing
// =============================================================================

// editorModel is the bubbletea model for dragging tables of one session.
type editorModel struct {
	ctx      context.Context
	sess     *session.Session
	layouter *diagram.Layouter
	store    session.Store // nil disables persistence

	svgPath string
	theme   string
	step    float64

	ids    []string   // table identities in base layout order
	cursor int        // index into ids
	offset geom.Point // total offset of the gesture in progress
	status string
	err    error
}

func newEditorModel(ctx context.Context, sess *session.Session, l *diagram.Layouter, store session.Store) *editorModel {
	m := &editorModel{
		ctx:      ctx,
		sess:     sess,
		layouter: l,
		store:    store,
		theme:    pipeline.DefaultTheme,
		step:     defaultDragStep,
	}
	m.refreshIDs()
	return m
}

func (m *editorModel) refreshIDs() {
	m.ids = m.ids[:0]
	if base := m.sess.Base(); base != nil {
		for _, n := range base.Nodes {
			m.ids = append(m.ids, n.ID)
		}
	}
	if m.cursor >= len(m.ids) {
		m.cursor = max(0, len(m.ids)-1)
	}
}

func (m *editorModel) selected() string {
	if len(m.ids) == 0 {
		return ""
	}
	return m.ids[m.cursor]
}

func (m *editorModel) Init() tea.Cmd {
	return nil
}

func (m *editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.err = nil

	switch key.String() {
	case "q", "ctrl+c":
		m.drop()
		m.persist()
		return m, tea.Quit
	case "tab":
		m.drop()
		m.cursor = (m.cursor + 1) % max(1, len(m.ids))
	case "shift+tab":
		m.drop()
		m.cursor = (m.cursor - 1 + len(m.ids)) % max(1, len(m.ids))
	case "up":
		m.nudge(geom.Pt(0, -m.step))
	case "down":
		m.nudge(geom.Pt(0, m.step))
	case "left":
		m.nudge(geom.Pt(-m.step, 0))
	case "right":
		m.nudge(geom.Pt(m.step, 0))
	case "shift+up":
		m.nudge(geom.Pt(0, -m.step*fastDragFactor))
	case "shift+down":
		m.nudge(geom.Pt(0, m.step*fastDragFactor))
	case "shift+left":
		m.nudge(geom.Pt(-m.step*fastDragFactor, 0))
	case "shift+right":
		m.nudge(geom.Pt(m.step*fastDragFactor, 0))
	case "enter", " ":
		m.drop()
		m.persist()
	case "esc":
		m.cancel()
	case "x":
		m.drop()
		if m.setErr(m.sess.ResetNode(m.selected())) {
			m.status = "reset " + m.selected()
			m.persist()
		}
	case "r":
		m.relayout(m.sess.Direction)
	case "d":
		m.relayout(nextDirection(m.sess.Direction))
	case "s":
		m.drop()
		m.saveSVG()
	}
	return m, nil
}

// nudge moves the selected table by d, starting a gesture when needed.
func (m *editorModel) nudge(d geom.Point) {
	id := m.selected()
	if active, ok := m.sess.Dragging(); !ok || active != id {
		m.drop()
		if !m.setErr(m.sess.StartDrag(m.ctx, id)) {
			return
		}
		m.offset = geom.Point{}
	}
	m.offset = m.offset.Add(d)
	if m.setErr(m.sess.MoveDrag(m.offset)) {
		m.status = fmt.Sprintf("dragging %s by %s", id, formatOffset(m.offset))
	}
}

// drop ends the gesture in progress.
func (m *editorModel) drop() {
	if id, d, ok := m.sess.EndDrag(m.ctx); ok {
		m.status = fmt.Sprintf("moved %s to %s", id, formatOffset(d))
	}
	m.offset = geom.Point{}
}

// cancel returns the dragged table to where the gesture started.
func (m *editorModel) cancel() {
	if _, ok := m.sess.Dragging(); !ok {
		return
	}
	if m.setErr(m.sess.MoveDrag(geom.Point{})) {
		m.sess.EndDrag(m.ctx)
		m.offset = geom.Point{}
		m.status = "drag cancelled"
	}
}

func (m *editorModel) relayout(dir solver.Direction) {
	moved := len(m.sess.Displacements())
	if !m.setErr(m.sess.SetDirection(m.ctx, m.layouter, dir)) {
		return
	}
	m.offset = geom.Point{}
	m.refreshIDs()
	m.status = fmt.Sprintf("laid out %s, discarded %s", strings.ToLower(string(dir)), plural(moved, "move"))
	m.persist()
}

func (m *editorModel) saveSVG() {
	svg, err := pipeline.RenderSVG(m.sess.Schema, m.sess.Base(), pipeline.Options{
		Theme:         m.theme,
		Title:         m.sess.Schema.Name,
		Displacements: m.sess.Displacements(),
	})
	if !m.setErr(err) {
		return
	}
	if m.setErr(os.WriteFile(m.svgPath, svg, 0o644)) {
		m.status = "saved " + m.svgPath
	}
}

func (m *editorModel) persist() {
	if m.store != nil {
		m.setErr(m.store.Set(m.ctx, m.sess))
	}
}

// setErr records err for display and reports whether the action succeeded.
func (m *editorModel) setErr(err error) bool {
	if err != nil {
		m.err = err
		return false
	}
	return true
}

func (m *editorModel) View() string {
	var b strings.Builder

	title := m.sess.Schema.Name
	if title == "" {
		title = "diagram"
	}
	disp := m.sess.Displacements()
	b.WriteString(StyleTitle.Render(title))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %s · %s moved", strings.ToLower(string(m.sess.Direction)), plural(len(disp), "table"))))
	b.WriteString("\n\n")

	view := m.sess.View()
	rows := make([][]string, 0, len(m.ids))
	if view != nil {
		for i, n := range view.Nodes {
			cursor := "  "
			if i == m.cursor {
				cursor = "▸ "
			}
			d := disp.Get(n.ID)
			rows = append(rows, []string{
				cursor + n.ID,
				fmt.Sprintf("%.0f", n.X),
				fmt.Sprintf("%.0f", n.Y),
				fmt.Sprintf("%.0f×%.0f", n.Width, n.Height),
				formatOffset(d),
			})
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Table", "X", "Y", "Size", "Offset").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader.Padding(0, 1)
			case row == m.cursor:
				return tuiSelectedStyle
			case row < len(m.ids) && disp.Get(m.ids[row]) != (geom.Point{}):
				return tuiMovedStyle
			}
			return tuiNormalStyle
		})
	b.WriteString(t.Render())
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(tuiErrorStyle.Render(iconError + " " + m.err.Error()))
	case m.status != "":
		b.WriteString(StyleDim.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("tab select  ←↑↓→ drag  ⏎ drop  esc cancel  x reset  r relayout  d direction  s save  q quit"))
	return b.String()
}

func nextDirection(d solver.Direction) solver.Direction {
	for i, dir := range directionCycle {
		if dir == d {
			return directionCycle[(i+1)%len(directionCycle)]
		}
	}
	return directionCycle[0]
}

func formatOffset(d geom.Point) string {
	if d == (geom.Point{}) {
		return "—"
	}
	return fmt.Sprintf("%+.0f,%+.0f", d.X, d.Y)
}
