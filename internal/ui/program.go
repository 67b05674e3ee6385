package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// tickInterval drives both the per-frame channel drain and the terminal
// poll cadence the apply loop's budgets are specified against.
const tickInterval = 50 * time.Millisecond

// ── Palette ──────────────────────────────────────────────────────────────

var (
	colorAccent  = lipgloss.Color("#7C6AF7")
	colorDim     = lipgloss.Color("#555555")
	colorMuted   = lipgloss.Color("#888888")
	colorText    = lipgloss.Color("#DDDDDD")
	colorSubdued = lipgloss.Color("#444444")
	colorScore   = lipgloss.Color("#5ECEF5")
	colorErr     = lipgloss.Color("#FF6B6B")
	colorGreen   = lipgloss.Color("#5AF078")

	sTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	sAccent  = lipgloss.NewStyle().Foreground(colorAccent)
	sDim     = lipgloss.NewStyle().Foreground(colorDim)
	sMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	sScore   = lipgloss.NewStyle().Foreground(colorScore).Bold(true)
	sPath    = lipgloss.NewStyle().Foreground(colorText)
	sErr     = lipgloss.NewStyle().Foreground(colorErr)
	sGreen   = lipgloss.NewStyle().Foreground(colorGreen)
	sSel     = lipgloss.NewStyle().Background(lipgloss.Color("#1E1A3A")).Foreground(colorText)
	sHint    = lipgloss.NewStyle().Foreground(colorDim).Background(lipgloss.Color("#111111"))
	sDivider = lipgloss.NewStyle().Foreground(colorSubdued)
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Outcome is what a session hands back to its caller once the user exits:
// whether a row was accepted, which one, and the query text in effect.
type Outcome struct {
	Accepted  bool
	Selection Selection
	Query     string
}

type frameMsg struct{}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return frameMsg{} })
}

// program is the bubbletea-facing wrapper around the pure Model: it owns
// the text input widget, the spinner frame, and the terminal dimensions,
// and translates tea.Msg traffic into Model method calls.
type program struct {
	m *Model

	input  textinput.Model
	width  int
	height int

	spinFrame int

	statusLabel string
	labels      map[string]string

	outcome Outcome
	done    bool
}

func newProgram(m *Model, statusLabels map[string]string) *program {
	ti := textinput.New()
	ti.Placeholder = "type to search…"
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 60
	ti.Prompt = "❯ "
	ti.PromptStyle = sAccent
	ti.TextStyle = lipgloss.NewStyle().Foreground(colorText)
	ti.SetValue(m.Query())

	return &program{m: m, input: ti, labels: statusLabels}
}

func (p *program) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

func (p *program) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		p.input.Width = clamp(p.width-8, 10, 200)
		return p, nil

	case frameMsg:
		p.m.DrainIndexUpdates()
		p.m.DrainMatchBatches()
		p.m.DrainPreviewResults()
		p.m.DispatchSearch()
		p.spinFrame = (p.spinFrame + 1) % len(spinnerFrames)
		if p.m.progress != nil {
			p.statusLabel, _ = p.m.progress.Status(p.labels)
		}
		return p, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			p.finish(false)
			return p, tea.Quit
		case "esc":
			p.finish(false)
			return p, tea.Quit
		case "enter":
			p.finish(true)
			return p, tea.Quit
		case "up", "ctrl+p":
			p.m.MoveSelection(-1)
			return p, nil
		case "down", "ctrl+n":
			p.m.MoveSelection(1)
			return p, nil
		}
	}

	prev := p.input.Value()
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	if p.input.Value() != prev {
		p.m.SetQuery(p.input.Value())
	}
	return p, cmd
}

func (p *program) finish(accepted bool) {
	p.done = true
	p.outcome.Query = p.m.Query()
	p.outcome.Accepted = accepted
	if accepted {
		if sel, ok := p.m.Selected(); ok {
			p.outcome.Selection = sel
		} else {
			p.outcome.Accepted = false
		}
	}
	p.m.Shutdown()
}

func (p *program) View() string {
	if p.width == 0 {
		return ""
	}
	var b strings.Builder
	divider := sDivider.Render(strings.Repeat("─", clamp(p.width-2, 10, 300)))

	left := "  " + sTitle.Render("frz") + "  " + sMuted.Render("live fuzzy search")
	right := sDim.Render(p.statusLabel)
	fmt.Fprintln(&b, padBetween(left, right, p.width))
	fmt.Fprintln(&b, "  "+p.input.View())
	fmt.Fprintln(&b, "  "+divider)

	if !p.m.GateExpired() {
		frame := spinnerFrames[p.spinFrame]
		fmt.Fprintln(&b, "  "+sAccent.Render(frame)+"  "+sMuted.Render("waiting for results…"))
	} else if p.m.FilteredLen() == 0 {
		fmt.Fprintln(&b, sMuted.Render("  no matches"))
	} else {
		p.renderResults(&b)
	}

	b.WriteString("\n  " + divider + "\n")
	p.renderStatusBar(&b)
	return b.String()
}

func (p *program) renderResults(b *strings.Builder) {
	bodyHeight := p.height - 7
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	maxResults := bodyHeight
	if maxResults < 1 {
		maxResults = 1
	}

	for i := 0; i < p.m.FilteredLen(); i++ {
		if i >= maxResults {
			fmt.Fprintf(b, "  %s\n", sDim.Render(fmt.Sprintf("… %d more", p.m.FilteredLen()-i)))
			break
		}
		idx := p.m.filtered[i]
		if idx < 0 || idx >= len(p.m.data.Files) {
			continue
		}
		r := p.m.data.Files[idx]
		var score uint16
		if i < len(p.m.scores) {
			score = p.m.scores[i]
		}
		line := fmt.Sprintf("  %s  %s", sScore.Render(fmt.Sprintf("%5d", score)), sPath.Render(r.Path))
		if i == p.m.selected {
			pad := clamp(p.width-len(r.Path)-12, 0, p.width)
			line = sSel.Render(fmt.Sprintf("  %5d  %s%s", score, r.Path, strings.Repeat(" ", pad)))
		}
		fmt.Fprintln(b, line)
	}
}

func (p *program) renderStatusBar(b *strings.Builder) {
	var left string
	if n := p.m.FilteredLen(); n > 0 {
		left = sGreen.Render(fmt.Sprintf("  %d result", n))
		if n != 1 {
			left += sGreen.Render("s")
		}
	} else {
		left = sDim.Render("  no results")
	}
	right := sHint.Render("↑↓ nav  enter select  esc cancel  ctrl+c quit  ")
	fmt.Fprint(b, padBetween(left, right, p.width))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func padBetween(left, right string, width int) string {
	lv := visibleLen(left)
	rv := visibleLen(right)
	gap := width - lv - rv - 2
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func visibleLen(s string) int {
	n := 0
	inEsc := false
	for _, c := range s {
		if c == '\x1b' {
			inEsc = true
		}
		if inEsc {
			if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
				inEsc = false
			}
			continue
		}
		n++
	}
	return n
}

// Run drives a full interactive session over m until the user accepts a
// row or cancels, returning the resulting Outcome. statusLabels maps
// dataset keys to the human-readable names shown in the progress status.
func Run(m *Model, statusLabels map[string]string) (Outcome, error) {
	p := newProgram(m, statusLabels)
	prog := tea.NewProgram(p, tea.WithAltScreen())
	final, err := prog.Run()
	if err != nil {
		return Outcome{}, err
	}
	return final.(*program).outcome, nil
}
