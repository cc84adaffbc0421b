package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"stockintel/internal/dashboard"
	"stockintel/internal/domain"
)

// Controller is the set of dashboard actions the terminal UI drives.
// *dashboard.Controller satisfies it.
type Controller interface {
	Start(ctx context.Context)
	Refresh(ctx context.Context)
	Select(ctx context.Context, symbol string)
	Filter(term string) []domain.Company
	SetDays(days int)
	Days() int
	Current() string
}

var _ Controller = (*dashboard.Controller)(nil)

// DayPresets are the lookback windows cycled with [ and ].
var DayPresets = []int{7, 30, 90, 180, 365}

// Layout.
const (
	rosterWidth = 34
	headerH     = 1
	footerH     = 2
	statsH      = 4
	insightsH   = 8
)

// Styles.
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	symbolStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75")).Background(lipgloss.Color("236"))
	gainStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	priceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	noticeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	paneStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	volLowStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	volModStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	volHighStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpKeysStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Messages.
type screenUpdatedMsg struct{}
type startedMsg struct{}

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx    context.Context
	ctrl   Controller
	screen *Screen
	logger *slog.Logger

	search  textinput.Model
	roster  viewport.Model
	state   State
	cursor  int
	started bool

	ready         bool
	width, height int
}

// New creates the dashboard model. ctx bounds every load it starts.
func New(ctx context.Context, ctrl Controller, screen *Screen, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	ti := textinput.New()
	ti.Placeholder = "search name or symbol"
	ti.Prompt = "/ "
	ti.CharLimit = 40
	return Model{
		ctx:    ctx,
		ctrl:   ctrl,
		screen: screen,
		logger: logger,
		search: ti,
		state:  screen.Snapshot(),
	}
}

// waitForUpdate blocks until the screen changes.
func waitForUpdate(s *Screen) tea.Cmd {
	return func() tea.Msg {
		<-s.Updates()
		return screenUpdatedMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return tea.Batch(
		waitForUpdate(m.screen),
		func() tea.Msg {
			ctrl.Start(ctx)
			return startedMsg{}
		},
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.search.Focused() {
			return m.updateSearch(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "/":
			m.search.Focus()
			return m, textinput.Blink
		case "up", "k":
			m.moveCursor(-1)
			return m, nil
		case "down", "j":
			m.moveCursor(1)
			return m, nil
		case "enter":
			m.selectCursor()
			return m, nil
		case "[":
			m.cycleDays(-1)
			return m, nil
		case "]":
			m.cycleDays(1)
			return m, nil
		case "r":
			m.search.SetValue("")
			m.screen.ClearNotice()
			ctx, ctrl := m.ctx, m.ctrl
			go ctrl.Refresh(ctx)
			return m, nil
		case "esc":
			m.screen.ClearNotice()
			return m, nil
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		rosterH := max(m.height-headerH-footerH-4, 1)
		if !m.ready {
			m.roster = viewport.New(rosterWidth-2, rosterH)
			m.ready = true
		} else {
			m.roster.Width = rosterWidth - 2
			m.roster.Height = rosterH
		}
		m.screen.SetChartSize(m.chartWidth(), m.chartHeight())
		m.refreshRoster()
		return m, nil

	case screenUpdatedMsg:
		m.state = m.screen.Snapshot()
		if m.cursor >= len(m.state.Companies) {
			m.cursor = max(len(m.state.Companies)-1, 0)
		}
		m.refreshRoster()
		return m, waitForUpdate(m.screen)

	case startedMsg:
		m.started = true
		m.logger.Info("dashboard started")
		return m, nil
	}

	if m.ready {
		var cmd tea.Cmd
		m.roster, cmd = m.roster.Update(msg)
		return m, cmd
	}
	return m, nil
}

// updateSearch routes keys to the search box and re-filters the roster on
// every change.
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "tab":
		m.search.Blur()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}
	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != before {
		m.ctrl.Filter(v)
		m.cursor = 0
	}
	return m, cmd
}

func (m *Model) moveCursor(delta int) {
	n := len(m.state.Companies)
	if n == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
	m.refreshRoster()
}

func (m *Model) selectCursor() {
	if m.state.RosterState != dashboard.RosterReady || m.cursor >= len(m.state.Companies) {
		return
	}
	sym := m.state.Companies[m.cursor].Symbol
	m.logger.Info("selected", "symbol", sym, "days", m.ctrl.Days())
	m.ctrl.Select(m.ctx, sym)
}

// cycleDays moves to the neighbouring lookback preset and reloads the
// current symbol with it.
func (m *Model) cycleDays(dir int) {
	cur := m.ctrl.Days()
	idx := 0
	for i, d := range DayPresets {
		if d <= cur {
			idx = i
		}
	}
	idx = min(max(idx+dir, 0), len(DayPresets)-1)
	if DayPresets[idx] == cur {
		return
	}
	m.ctrl.SetDays(DayPresets[idx])
	if sym := m.ctrl.Current(); sym != "" {
		m.ctrl.Select(m.ctx, sym)
	}
}

func (m *Model) refreshRoster() {
	if !m.ready {
		return
	}
	m.roster.SetContent(renderRoster(m.state, m.cursor))
	switch {
	case m.cursor < m.roster.YOffset:
		m.roster.SetYOffset(m.cursor)
	case m.cursor >= m.roster.YOffset+m.roster.Height:
		m.roster.SetYOffset(m.cursor - m.roster.Height + 1)
	}
}

func (m Model) chartWidth() int {
	return max(m.width-rosterWidth-4, 20)
}

func (m Model) chartHeight() int {
	return max(m.height-headerH-footerH-statsH-insightsH-6, 5)
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	header := titleStyle.Render(fmt.Sprintf(" Stock Dashboard  %dd ", m.ctrl.Days()))

	left := paneStyle.Width(rosterWidth - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, m.search.View(), m.roster.View()))

	right := lipgloss.JoinVertical(lipgloss.Left,
		renderStats(m.state),
		paneStyle.Width(m.chartWidth()).Render(renderChart(m.state)),
		renderInsights(m.state, m.chartWidth()),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, renderFooter(m.state))
}

// renderRoster draws the roster panel for its current state.
func renderRoster(st State, cursor int) string {
	switch st.RosterState {
	case dashboard.RosterLoading:
		return dimStyle.Render("Loading companies...")
	case dashboard.RosterEmpty:
		return dimStyle.Render("No companies available.")
	case dashboard.RosterError:
		return errorStyle.Render("Error loading companies.")
	}
	if len(st.Companies) == 0 {
		return dimStyle.Render("(no matching companies)")
	}
	var b strings.Builder
	for i, c := range st.Companies {
		if i > 0 {
			b.WriteByte('\n')
		}
		line := fmt.Sprintf("%-10s %s", c.Symbol, truncate(c.Name, rosterWidth-15))
		if i == cursor {
			b.WriteString(cursorStyle.Render(line))
		} else {
			b.WriteString(symbolStyle.Render(fmt.Sprintf("%-10s", c.Symbol)) + " " + truncate(c.Name, rosterWidth-15))
		}
	}
	return b.String()
}

// renderStats draws the header line and the stat values of the selection.
func renderStats(st State) string {
	if st.Symbol == "" {
		return dimStyle.Render("Select a company to load its chart.")
	}
	title := symbolStyle.Render(st.Symbol)
	if st.Summary == nil {
		return title
	}
	s := st.Summary
	stats := fmt.Sprintf("%s %s   %s %s   %s %s",
		dimStyle.Render("Price"), priceStyle.Render(dashboard.FormatPrice(s.CurrentPrice)),
		dimStyle.Render("52W High"), gainStyle.Render(fmt.Sprintf("%.2f", s.Week52High)),
		dimStyle.Render("52W Low"), lossStyle.Render(fmt.Sprintf("%.2f", s.Week52Low)),
	)
	extra := fmt.Sprintf("%s %s   %s %s   %s %s",
		dimStyle.Render("Avg Close"), priceStyle.Render(fmt.Sprintf("%.2f", s.AvgClose)),
		dimStyle.Render("Avg Vol"), priceStyle.Render(dashboard.FormatVolume(s.AvgVolume)),
		dimStyle.Render("Volatility"), volatilityStyle(st.Volatility).Render(dashboard.FormatVolatility(st.Volatility)),
	)
	return lipgloss.JoinVertical(lipgloss.Left, title, stats, extra)
}

func volatilityStyle(v *domain.Volatility) lipgloss.Style {
	if v == nil {
		return dimStyle
	}
	switch v.Classification {
	case domain.VolatilityLow:
		return volLowStyle
	case domain.VolatilityModerate:
		return volModStyle
	case domain.VolatilityHigh:
		return volHighStyle
	default:
		return dimStyle
	}
}

func renderChart(st State) string {
	if st.Chart == "" {
		return dimStyle.Render("(no chart)")
	}
	return st.Chart
}

// renderInsights draws the gainers and losers lists side by side.
func renderInsights(st State, width int) string {
	col := max(width/2-1, 20)
	gainers := renderInsightList("Top Gainers", st.Gainers, gainStyle, dashboard.FormatGainerReturn)
	losers := renderInsightList("Top Losers", st.Losers, lossStyle, dashboard.FormatLoserReturn)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(col).Render(gainers),
		lipgloss.NewStyle().Width(col).Render(losers),
	)
}

func renderInsightList(title string, entries []domain.InsightEntry, style lipgloss.Style, format func(float64) string) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render(title))
	if len(entries) == 0 {
		b.WriteString("\n" + dimStyle.Render("-"))
	}
	for i, e := range entries {
		fmt.Fprintf(&b, "\n%d. %-10s %s", i+1, e.Symbol, style.Render(format(e.AvgReturn)))
	}
	return b.String()
}

func renderFooter(st State) string {
	help := helpKeysStyle.Render("↑/↓ move  enter select  / search  [ ] days  r reload  esc dismiss  q quit")
	if st.Notice == nil {
		return help
	}
	return lipgloss.JoinVertical(lipgloss.Left, noticeStyle.Render(" "+st.Notice.Message()+" "), help)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
