package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	orchestration "github.com/novahome/nova-core/core"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
	userStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7"))
	novaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff9f"))
	eventStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
)

type (
	stateChangedMsg struct{ from, to string }
	transcriptMsg   string
	responseMsg     string
	announcementMsg struct{ camera, eventKind string }
	deviceLostMsg   struct{ err error }
	runFinishedMsg  struct{ err error }
)

type tuiModel struct {
	assistant *orchestration.Orchestrator

	viewport viewport.Model
	lines    []string

	state  string
	width  int
	height int
	ready  bool

	runErr   error
	quitting bool
}

func newTUIModel(assistant *orchestration.Orchestrator) tuiModel {
	return tuiModel{
		assistant: assistant,
		state:     "idle",
		lines:     []string{helpStyle.Render("Waiting for the wake phrase...")},
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(msg.Height-4, 1))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = max(msg.Height-4, 1)
		}
		m.refreshViewport()

	case stateChangedMsg:
		m.state = msg.to

	case transcriptMsg:
		m.addLine(userStyle.Render("you ") + string(msg))

	case responseMsg:
		m.addLine(novaStyle.Render("nova ") + string(msg))

	case announcementMsg:
		m.addLine(eventStyle.Render(fmt.Sprintf("camera %s: %s event", msg.camera, msg.eventKind)))

	case deviceLostMsg:
		m.addLine(errorStyle.Render("device lost: " + msg.err.Error()))

	case runFinishedMsg:
		m.runErr = msg.err
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *tuiModel) addLine(line string) {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.lines = append(m.lines, wordwrap.String(line, width-2))
	m.refreshViewport()
}

func (m *tuiModel) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m tuiModel) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	snapshot := m.assistant.Session()
	status := fmt.Sprintf("[%s] turns:%d pending:%d",
		m.state, snapshot.Turns, snapshot.PendingAnnouncements)
	if snapshot.VoiceDegraded {
		status += " " + errorStyle.Render("voice:down")
	}
	if snapshot.CameraDegraded {
		status += " " + errorStyle.Render("camera:degraded")
	}

	header := titleStyle.Render("nova") + " " + statusStyle.Render(status)
	help := helpStyle.Render("q quit")

	return header + "\n\n" + m.viewport.View() + "\n" + help
}

func runTUI(ctx context.Context, cancel context.CancelFunc, assistant *orchestration.Orchestrator) error {
	program := tea.NewProgram(newTUIModel(assistant), tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		err := assistant.Run(ctx,
			orchestration.WithStateChangedCallback(func(from, to string) {
				program.Send(stateChangedMsg{from: from, to: to})
			}),
			orchestration.WithTranscriptionCallback(func(transcript string) {
				program.Send(transcriptMsg(transcript))
			}),
			orchestration.WithResponseCallback(func(response string) {
				program.Send(responseMsg(response))
			}),
			orchestration.WithAnnouncementQueuedCallback(func(camera, eventKind string) {
				program.Send(announcementMsg{camera: camera, eventKind: eventKind})
			}),
			orchestration.WithDeviceLostCallback(func(err error) {
				program.Send(deviceLostMsg{err: err})
			}),
		)
		program.Send(runFinishedMsg{err: err})
	}()

	model, err := program.Run()
	cancel()
	if err != nil {
		return err
	}
	if final, ok := model.(tuiModel); ok {
		return final.runErr
	}
	return nil
}
