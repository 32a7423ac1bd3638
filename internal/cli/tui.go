package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/flyersmith/pkg/observability"
	"github.com/matzehuels/flyersmith/pkg/pipeline"
	"github.com/matzehuels/flyersmith/pkg/refine"
	"github.com/matzehuels/flyersmith/pkg/store"
)

// List styles
var (
	listDimStyle  = lipgloss.NewStyle().Foreground(colorDim)
	listFailStyle = lipgloss.NewStyle().Foreground(colorRed)
)

// maxHistory bounds the rows shown in the history table.
const maxHistory = 8

// =============================================================================
// FlyerModel - Interactive flyer generation
// =============================================================================

// RunFunc runs the pipeline for one prompt and writes its outputs.
type RunFunc func(ctx context.Context, prompt string) (*pipeline.Result, store.Outputs, error)

// HistoryEntry is one finished run shown in the history table.
type HistoryEntry struct {
	Prompt   string
	ID       string
	Summary  string
	Images   int
	Rounds   int
	Refined  bool
	Failed   bool
	Preview  string
	Err      error
	Finished time.Time
}

type stageMsg observability.Stage

type runDoneMsg struct {
	entry HistoryEntry
}

// FlyerModel is the bubbletea model for the interactive command: a prompt
// editor, a spinner while a run is in progress, and the runs so far.
type FlyerModel struct {
	ctx     context.Context
	run     RunFunc
	input   textarea.Model
	spin    spinner.Model
	running bool
	stage   string
	cancel  context.CancelFunc
	History []HistoryEntry
	width   int
}

// NewFlyerModel creates a model that calls run for every submitted prompt.
func NewFlyerModel(ctx context.Context, run RunFunc) FlyerModel {
	ta := textarea.New()
	ta.Placeholder = "Describe the event or product, e.g. Summer tea festival, slogan: Refresh Your Soul"
	ta.Prompt = "› "
	ta.CharLimit = 2000
	ta.ShowLineNumbers = false
	ta.SetWidth(80)
	ta.SetHeight(4)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleIconSpinner

	return FlyerModel{ctx: ctx, run: run, input: ta, spin: sp, width: 80}
}

func (m FlyerModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m FlyerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.running {
				m.cancel()
				return m, nil
			}
			return m, tea.Quit
		case "enter":
			if m.running {
				return m, nil
			}
			prompt := strings.TrimSpace(m.input.Value())
			if prompt == "" {
				return m, nil
			}
			return m.start(prompt)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.SetWidth(max(20, msg.Width-4))
		return m, nil

	case stageMsg:
		if text, ok := stageMessages[observability.Stage(msg)]; ok {
			m.stage = text
		}
		return m, nil

	case runDoneMsg:
		m.running = false
		m.cancel()
		m.History = append(m.History, msg.entry)
		m.input.Reset()
		m.input.Focus()
		return m, textarea.Blink

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	if m.running {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// start launches a run in the background.
func (m FlyerModel) start(prompt string) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(m.ctx)
	m.running = true
	m.cancel = cancel
	m.stage = "Designing flyer..."
	m.input.Blur()

	run := m.run
	work := func() tea.Msg {
		entry := HistoryEntry{Prompt: prompt}
		res, out, err := run(ctx, prompt)
		entry.Finished = time.Now()
		if err != nil {
			entry.Err = err
			return runDoneMsg{entry: entry}
		}
		entry.ID = res.ID
		entry.Summary = res.Summary
		entry.Images = len(res.Assets)
		entry.Rounds = len(res.Rounds)
		entry.Refined = refine.Accepted(res.Rounds)
		entry.Failed = res.Failed
		entry.Preview = out.Preview
		return runDoneMsg{entry: entry}
	}
	return m, tea.Batch(m.spin.Tick, work)
}

func (m FlyerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Flyersmith"))
	b.WriteString("\n\n")

	if len(m.History) > 0 {
		b.WriteString(m.historyTable())
		b.WriteString("\n")
		if last := m.History[len(m.History)-1]; last.Err == nil && last.Summary != "" {
			b.WriteString(StyleDim.Width(m.width).Render(last.Summary))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.running {
		b.WriteString(m.spin.View() + " " + StyleDim.Render(m.stage))
		b.WriteString("\n\n")
		b.WriteString(listDimStyle.Render("esc cancel"))
		return b.String()
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render("⏎ generate  alt+⏎ new line  esc quit"))
	return b.String()
}

func (m FlyerModel) historyTable() string {
	entries := m.History
	if len(entries) > maxHistory {
		entries = entries[len(entries)-maxHistory:]
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		status := StyleSuccess.Render(iconSuccess)
		result := e.Preview
		switch {
		case e.Err != nil:
			status = listFailStyle.Render(iconError)
			result = e.Err.Error()
		case e.Failed:
			status = StyleWarning.Render(iconWarning)
			result = "no usable plan"
		}
		rounds := fmt.Sprintf("%d", e.Rounds)
		if e.Refined {
			rounds += " " + iconRefined
		}
		rows = append(rows, []string{
			status,
			truncate(e.Prompt, 32),
			StyleNumber.Render(fmt.Sprintf("%d", e.Images)),
			rounds,
			truncate(result, 40),
			formatRelativeTime(e.Finished),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Prompt", "Images", "Rounds", "Preview", "Done").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}

// tuiHooks forwards stage starts to a running program.
type tuiHooks struct {
	observability.NoopPipelineHooks
	send func(tea.Msg)
}

func (h tuiHooks) OnStageStart(_ context.Context, stage observability.Stage) {
	h.send(stageMsg(stage))
}

// =============================================================================
// Helpers
// =============================================================================

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return t.Format("Jan 2, 15:04")
	}
}
