package modelscmder

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/NICxKMS/chatcore/pkg/catalog"
	"github.com/NICxKMS/chatcore/pkg/reveal"
	"github.com/NICxKMS/chatcore/pkg/utils"
)

func init() {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)
}

var (
	browseTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	browseMutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	browseAccentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("215"))
	browseSectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	browseDividerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	browseHighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("214")).Bold(true)
	browseProviderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	browseExpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type browseKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	LoadAll key.Binding
	Pause   key.Binding
	Quit    key.Binding
}

func (k browseKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.LoadAll, k.Pause, k.Quit}
}

func (k browseKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Down, k.Up}, {k.LoadAll, k.Pause, k.Quit}}
}

func defaultBrowseKeyMap() browseKeyMap {
	return browseKeyMap{
		Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		LoadAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "load all")),
		Pause:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause/resume")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type revealedMsg struct{}

type browseModel struct {
	controller *reveal.Controller[catalog.Model]
	signal     chan struct{}
	items      []catalog.Model
	cursor     int
	width      int
	height     int
	keys       browseKeyMap
	help       help.Model
}

func runBrowseTUI(models []catalog.Model) error {
	signal := make(chan struct{}, 1)

	controller := reveal.New(models, revealConfig(), func([]catalog.Model) {
		select {
		case signal <- struct{}{}:
		default:
		}
	})

	model := browseModel{
		controller: controller,
		signal:     signal,
		keys:       defaultBrowseKeyMap(),
		help:       help.New(),
	}

	program := bubbletea.NewProgram(model, bubbletea.WithAltScreen())
	_, err := program.Run()
	controller.Pause()
	return err
}

func (m browseModel) Init() bubbletea.Cmd {
	m.controller.Start()
	return m.waitForReveal()
}

func (m browseModel) waitForReveal() bubbletea.Cmd {
	return func() bubbletea.Msg {
		<-m.signal
		return revealedMsg{}
	}
}

func (m browseModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case revealedMsg:
		m.items = m.controller.Loaded()
		if m.controller.IsComplete() {
			return m, nil
		}
		return m, m.waitForReveal()
	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m browseModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, bubbletea.Quit
	case "j", "down":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "a":
		if !m.controller.IsComplete() {
			m.controller.LoadAll()
		}
	case "p":
		if m.controller.IsComplete() {
			return m, nil
		}
		if m.controller.IsLoading() {
			m.controller.Pause()
			return m, nil
		}
		m.controller.Start()
		return m, m.waitForReveal()
	}
	return m, nil
}

func (m browseModel) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	header := browseTitleStyle.Render("chatcore models")
	status := browseMutedStyle.Render(m.statusLine())
	lines := []string{header + "  " + status, browseDividerStyle.Render(strings.Repeat("─", width)), ""}

	lines = append(lines, m.viewList()...)
	lines = append(lines, "")
	lines = append(lines, m.viewDetail()...)
	lines = append(lines, "", browseMutedStyle.Render(m.help.View(m.keys)))

	return strings.Join(lines, "\n")
}

func (m browseModel) statusLine() string {
	total := m.controller.Total()
	loaded := len(m.items)
	if m.controller.IsComplete() {
		return fmt.Sprintf("%d models", total)
	}
	state := "paused"
	if m.controller.IsLoading() {
		state = "loading"
	}
	return fmt.Sprintf("%d/%d models · %s %s", loaded, total, state, renderProgressBar(m.controller.Progress(), 20))
}

func (m browseModel) viewList() []string {
	if len(m.items) == 0 {
		return []string{browseMutedStyle.Render("no models yet")}
	}

	visible := m.visibleRows()
	start, end := visibleWindow(len(m.items), m.cursor, visible)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		model := m.items[i]
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}

		id := model.ID
		if model.IsExperimental {
			id += " " + browseExpStyle.Render("exp")
		}
		line := fmt.Sprintf("%s %s %-40s %8s",
			cursor,
			browseProviderStyle.Render(fmt.Sprintf("%-12s", model.Provider)),
			utils.Truncate(id, 40),
			formatWindow(model.ContextWindow),
		)
		if i == m.cursor {
			line = browseHighlightStyle.Render(line)
		}
		lines = append(lines, line)
	}

	return lines
}

func (m browseModel) viewDetail() []string {
	if len(m.items) == 0 || m.cursor >= len(m.items) {
		return nil
	}
	model := m.items[m.cursor]

	lines := []string{browseSectionStyle.Render("details"), browseDividerStyle.Render(strings.Repeat("─", 40))}
	lines = append(lines, "id:       "+browseAccentStyle.Render(model.ID))
	lines = append(lines, "provider: "+model.Provider)
	if model.Family != "" {
		lines = append(lines, "family:   "+model.Family)
	}
	if model.Type != "" {
		lines = append(lines, "type:     "+model.Type)
	}
	if model.Version != "" {
		lines = append(lines, "version:  "+model.Version)
	}
	if model.ContextWindow > 0 {
		lines = append(lines, fmt.Sprintf("context:  %s tokens", formatWindow(model.ContextWindow)))
	}
	if model.MaxOutputTokens > 0 {
		lines = append(lines, fmt.Sprintf("max out:  %s tokens", formatWindow(model.MaxOutputTokens)))
	}
	if len(model.Capabilities) > 0 {
		lines = append(lines, "caps:     "+strings.Join(model.Capabilities, ", "))
	}
	if model.InputPricePerToken > 0 || model.OutputPricePerToken > 0 {
		lines = append(lines, fmt.Sprintf("price:    $%.2f/$%.2f per MTok",
			model.InputPricePerToken*1_000_000,
			model.OutputPricePerToken*1_000_000,
		))
	}

	return lines
}

func (m browseModel) visibleRows() int {
	height := m.height
	if height <= 0 {
		height = 40
	}
	// Header, rule, detail pane, and footer take roughly 16 rows.
	rows := height - 16
	if rows < 5 {
		rows = 5
	}
	return rows
}

func visibleWindow(total, cursor, size int) (int, int) {
	if total <= size {
		return 0, total
	}
	start := cursor - size/2
	if start < 0 {
		start = 0
	}
	end := start + size
	if end > total {
		end = total
		start = end - size
	}
	return start, end
}

func renderProgressBar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
