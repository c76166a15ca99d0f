package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// ProgressOptions configures RunProgress.
type ProgressOptions struct {
	Title       string
	Interactive bool
	Output      io.Writer

	// OnCancel is called when the user asks to cancel the job. Nil hides
	// the binding.
	OnCancel func()
}

// RunFunc does the long-running work. It calls report with each new status
// line and returns a one-line summary.
type RunFunc func(ctx context.Context, report func(status string)) (summary string, err error)

// RunProgress runs fn while showing its status. Interactive sessions get a
// spinner; otherwise each distinct status line is printed once. The ctx
// passed to fn is canceled when the user stops waiting.
func RunProgress(ctx context.Context, opts ProgressOptions, fn RunFunc) error {
	if !opts.Interactive {
		return runPlain(ctx, opts, fn)
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	m := newProgressModel(opts.Title, opts.OnCancel, stop)
	p := tea.NewProgram(m, tea.WithOutput(opts.Output))

	go func() {
		summary, err := fn(ctx, func(s string) { p.Send(statusMsg(s)) })
		p.Send(doneMsg{summary: summary, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress display failed: %w", err)
	}
	return final.(progressModel).err
}

func runPlain(ctx context.Context, opts ProgressOptions, fn RunFunc) error {
	fmt.Fprintln(opts.Output, opts.Title)

	var mu sync.Mutex
	last := ""
	report := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		if s == last {
			return
		}
		last = s
		fmt.Fprintf(opts.Output, "  %s %s\n", SymbolBullet, s)
	}

	summary, err := fn(ctx, report)
	if err != nil {
		return err
	}
	if summary != "" {
		fmt.Fprintln(opts.Output, SuccessStyle.Render(SymbolCheck+" "+summary))
	}
	return nil
}

type statusMsg string

type doneMsg struct {
	summary string
	err     error
}

type progressModel struct {
	spinner  spinner.Model
	keys     KeyMap
	title    string
	status   string
	onCancel func()
	detach   func()

	done    bool
	summary string
	err     error
}

func newProgressModel(title string, onCancel, detach func()) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle
	return progressModel{
		spinner:  s,
		keys:     DefaultKeyMap(),
		title:    title,
		status:   "Submitting",
		onCancel: onCancel,
		detach:   detach,
	}
}

// Init implements tea.Model.
func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Cancel) && m.onCancel != nil:
			m.status = "Canceling"
			m.onCancel()
			m.onCancel = nil
		case key.Matches(msg, m.keys.Detach), key.Matches(msg, m.keys.Cancel):
			m.status = "Stopping"
			m.detach()
		}
		return m, nil
	case statusMsg:
		m.status = string(msg)
		return m, nil
	case doneMsg:
		m.done = true
		m.summary = msg.summary
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m progressModel) View() string {
	if m.done {
		if m.err != nil {
			return ErrorStyle.Render(SymbolCross+" "+m.title+": "+m.err.Error()) + "\n"
		}
		return SuccessStyle.Render(SymbolCheck+" "+m.summary) + "\n"
	}

	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString(" ")
	b.WriteString(MessageStyle.Render(m.status))
	b.WriteString("\n")
	if m.onCancel != nil {
		b.WriteString(HelpStyle.Render(m.keys.HelpText()))
	} else {
		b.WriteString(HelpStyle.Render(m.keys.Detach.Help().Key + " " + m.keys.Detach.Help().Desc))
	}
	b.WriteString("\n")
	return b.String()
}

// DeployStatusLine summarizes an in-progress deploy.
func DeployStatusLine(s sfmeta.DeployStatus) string {
	line := fmt.Sprintf("%s: %d/%d components", s.Status, s.NumberComponentsDeployed+s.NumberComponentErrors, s.NumberComponentsTotal)
	if s.NumberComponentErrors > 0 {
		line += fmt.Sprintf(" (%d errors)", s.NumberComponentErrors)
	}
	if s.NumberTestsTotal > 0 {
		line += fmt.Sprintf(", %d/%d tests", s.NumberTestsCompleted+s.NumberTestErrors, s.NumberTestsTotal)
	}
	if s.StateDetail != "" {
		line += " - " + s.StateDetail
	}
	return line
}

// RetrieveStatusLine summarizes an in-progress retrieve.
func RetrieveStatusLine(s sfmeta.RetrieveStatus) string {
	if s.Status == "" {
		return string(sfmeta.StatusPending)
	}
	return string(s.Status)
}
