package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/assistant"
	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/dashboard"
)

type dashView int

const (
	viewLogin dashView = iota
	viewOverview
	viewDetail
)

// Messages delivered to the dashboard model by background commands.
type (
	snapshotMsg struct {
		snapshot *dashboard.Snapshot
		err      error
	}

	sessionLookupMsg struct {
		response *assistant.SessionFeedbackResponse
		err      error
	}

	exportDoneMsg struct {
		path string
		err  error
	}

	refreshTickMsg struct{}
)

// daysCycle lists the analysis windows the d key steps through.
var daysCycle = []int{1, 7, 14, 30}

// DashboardDeps wires the dashboard front-end to the core packages.
type DashboardDeps struct {
	Gate         *dashboard.Gate
	Fetcher      *dashboard.Fetcher
	Logger       *logrus.Logger
	ExportDir    string
	RefreshEvery time.Duration
}

// DashboardModel is the password-gated feedback analytics front-end: stats
// cards, rating and daily-activity charts, a filterable recent-feedback list
// with a detail view, and CSV export of the filtered rows.
type DashboardModel struct {
	deps DashboardDeps

	view     dashView
	password string
	loginErr string

	snapshot *dashboard.Snapshot
	filter   dashboard.Filter
	filtered []assistant.FeedbackItem
	selected int

	editingQuery bool
	queryDraft   string

	session *assistant.SessionFeedbackResponse

	loading  bool
	status   string
	width    int
	height   int
	quitting bool
}

func NewDashboard(deps DashboardDeps) DashboardModel {
	m := DashboardModel{
		deps:   deps,
		view:   viewLogin,
		filter: dashboard.Filter{Rating: dashboard.RatingAll, Days: dashboard.DefaultDays},
		width:  80,
		height: 24,
	}
	if deps.Gate.Authenticated() {
		m.view = viewOverview
	}
	return m
}

func (m DashboardModel) Init() tea.Cmd {
	if m.view == viewLogin {
		return refreshTick(m.deps.RefreshEvery)
	}
	return tea.Batch(loadSnapshot(m.deps.Fetcher), refreshTick(m.deps.RefreshEvery))
}

func loadSnapshot(fetcher *dashboard.Fetcher) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		snapshot, err := fetcher.Load(ctx)
		return snapshotMsg{snapshot: snapshot, err: err}
	}
}

func lookupSession(fetcher *dashboard.Fetcher, sessionID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		response, err := fetcher.Session(ctx, sessionID)
		return sessionLookupMsg{response: response, err: err}
	}
}

func exportCSV(dir string, items []assistant.FeedbackItem) tea.Cmd {
	return func() tea.Msg {
		path, err := dashboard.WriteCSV(dir, items, time.Now())
		return exportDoneMsg{path: path, err: err}
	}
}

func refreshTick(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		m.loading = false
		if msg.err != nil {
			// Keep showing the previous snapshot; only the status changes.
			m.status = errorStyle.Render("Refresh failed — is the backend up?")
			m.deps.Logger.WithError(msg.err).Error("Dashboard refresh failed")
			return m, nil
		}
		m.snapshot = msg.snapshot
		m.applyFilter()
		m.status = subtleStyle.Render("Updated " + msg.snapshot.FetchedAt.Format("15:04:05"))
		return m, nil

	case sessionLookupMsg:
		if msg.err != nil {
			m.status = errorStyle.Render("Session lookup failed")
			m.deps.Logger.WithError(msg.err).Warn("Session feedback lookup failed")
			return m, nil
		}
		m.session = msg.response
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.status = errorStyle.Render("Export failed")
			m.deps.Logger.WithError(msg.err).Error("CSV export failed")
			return m, nil
		}
		m.status = goodStyle.Render("Exported " + msg.path)
		return m, nil

	case refreshTickMsg:
		next := refreshTick(m.deps.RefreshEvery)
		if m.view == viewLogin || m.loading {
			return m, next
		}
		m.loading = true
		return m, tea.Batch(loadSnapshot(m.deps.Fetcher), next)
	}
	return m, nil
}

func (m DashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.view {
	case viewLogin:
		return m.handleLoginKey(msg)
	case viewDetail:
		return m.handleDetailKey(msg)
	default:
		return m.handleOverviewKey(msg)
	}
}

func (m DashboardModel) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.quitting = true
		return m, tea.Quit

	case "enter":
		err := m.deps.Gate.Login(m.password)
		if errors.Is(err, dashboard.ErrWrongPassword) {
			m.password = ""
			m.loginErr = "Wrong password — try again"
			return m, nil
		}
		if err != nil {
			m.loginErr = "Could not persist the login"
			m.deps.Logger.WithError(err).Error("Login failed")
			return m, nil
		}
		m.password = ""
		m.loginErr = ""
		m.view = viewOverview
		m.loading = true
		return m, loadSnapshot(m.deps.Fetcher)

	case "backspace":
		if m.password != "" {
			runes := []rune(m.password)
			m.password = string(runes[:len(runes)-1])
		}
		return m, nil
	}

	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
		if msg.Type == tea.KeySpace {
			m.password += " "
		} else {
			m.password += string(msg.Runes)
		}
	}
	return m, nil
}

func (m DashboardModel) handleOverviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editingQuery {
		switch msg.String() {
		case "enter":
			m.filter.Query = m.queryDraft
			m.editingQuery = false
			m.applyFilter()
			return m, nil
		case "esc":
			m.editingQuery = false
			m.queryDraft = ""
			return m, nil
		case "backspace":
			if m.queryDraft != "" {
				runes := []rune(m.queryDraft)
				m.queryDraft = string(runes[:len(runes)-1])
			}
			return m, nil
		}
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			if msg.Type == tea.KeySpace {
				m.queryDraft += " "
			} else {
				m.queryDraft += string(msg.Runes)
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit

	case "r":
		m.filter.Rating = nextRating(m.filter.Rating)
		m.applyFilter()
		return m, nil

	case "d":
		m.filter.Days = nextDays(m.filter.Days)
		m.applyFilter()
		return m, nil

	case "/":
		m.editingQuery = true
		m.queryDraft = m.filter.Query
		return m, nil

	case "e":
		if len(m.filtered) == 0 {
			m.status = "Nothing to export"
			return m, nil
		}
		return m, exportCSV(m.deps.ExportDir, m.filtered)

	case "f":
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, loadSnapshot(m.deps.Fetcher)

	case "l":
		if err := m.deps.Gate.Logout(); err != nil {
			m.status = errorStyle.Render("Logout failed")
			m.deps.Logger.WithError(err).Error("Logout failed")
			return m, nil
		}
		m.view = viewLogin
		m.password = ""
		m.loginErr = ""
		return m, nil

	case "up":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case "down":
		if m.selected < len(m.filtered)-1 {
			m.selected++
		}
		return m, nil

	case "enter":
		if m.selected >= 0 && m.selected < len(m.filtered) {
			m.view = viewDetail
			m.session = nil
		}
		return m, nil
	}
	return m, nil
}

func (m DashboardModel) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.view = viewOverview
		m.session = nil
		return m, nil

	case "s":
		if m.selected >= 0 && m.selected < len(m.filtered) {
			return m, lookupSession(m.deps.Fetcher, m.filtered[m.selected].SessionID)
		}
		return m, nil
	}
	return m, nil
}

func nextRating(current dashboard.RatingFilter) dashboard.RatingFilter {
	switch current {
	case dashboard.RatingAll, "":
		return dashboard.RatingPositive
	case dashboard.RatingPositive:
		return dashboard.RatingNegative
	default:
		return dashboard.RatingAll
	}
}

func nextDays(current int) int {
	for i, days := range daysCycle {
		if days == current {
			return daysCycle[(i+1)%len(daysCycle)]
		}
	}
	return dashboard.DefaultDays
}

func (m *DashboardModel) applyFilter() {
	if m.snapshot == nil {
		m.filtered = nil
		m.selected = 0
		return
	}
	m.filtered = m.filter.Apply(time.Now(), m.snapshot.Recent)
	if m.selected >= len(m.filtered) {
		m.selected = len(m.filtered) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m DashboardModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.view {
	case viewLogin:
		return m.viewLogin()
	case viewDetail:
		return m.viewDetail()
	default:
		return m.viewOverview()
	}
}

func (m DashboardModel) viewLogin() string {
	masked := strings.Repeat("•", len([]rune(m.password)))

	var errLine string
	if m.loginErr != "" {
		errLine = errorStyle.Render(m.loginErr)
	}

	box := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("Iron Lady · Feedback Dashboard"),
		"",
		"Password required",
		inputBoxStyle.Width(32).Render(masked+"▌"),
		errLine,
		subtleStyle.Render("enter unlock · esc quit"),
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m DashboardModel) viewOverview() string {
	header := titleStyle.Render("Iron Lady · Feedback Dashboard")
	if m.loading {
		header += "  " + warnStyle.Render("refreshing…")
	} else if m.snapshot != nil {
		header += subtleStyle.Render("  updated " + m.snapshot.FetchedAt.Format("15:04:05"))
	}

	if m.snapshot == nil {
		body := subtleStyle.Render("Loading feedback data…")
		return lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", m.footer())
	}

	sections := []string{
		header,
		m.renderCards(),
		m.renderRatingMix(),
		m.renderDailyActivity(),
		m.renderFilterLine(),
		m.renderList(),
		m.footer(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderCards() string {
	stats := m.snapshot.Stats
	width := (m.width - 12) / 4
	if width < 12 {
		width = 12
	}

	card := func(label, value string) string {
		return cardStyle.Width(width).Render(label + "\n" + titleStyle.Render(value))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total", fmt.Sprintf("%d", stats.TotalFeedback)),
		card("Positive", fmt.Sprintf("%d", stats.PositiveCount)),
		card("Negative", fmt.Sprintf("%d", stats.NegativeCount)),
		card("Positive %", fmt.Sprintf("%.2f%%", stats.PositivePercentage)),
	)
}

func (m DashboardModel) renderRatingMix() string {
	stats := m.snapshot.Stats
	total := stats.PositiveCount + stats.NegativeCount
	width := m.width - 30
	if width < 10 {
		width = 10
	}
	if total == 0 {
		return subtleStyle.Render("Rating mix   no feedback yet")
	}

	positive := stats.PositiveCount * width / total
	negative := width - positive
	mix := positiveBarStyle.Render(strings.Repeat("█", positive)) +
		negativeBarStyle.Render(strings.Repeat("█", negative))
	return fmt.Sprintf("Rating mix   %s  %d up · %d down", mix, stats.PositiveCount, stats.NegativeCount)
}

// renderDailyActivity charts feedback volume per day for the filtered rows.
func (m DashboardModel) renderDailyActivity() string {
	counts := dashboard.DailyCounts(m.filtered)
	if len(counts) == 0 {
		return subtleStyle.Render("Daily activity   nothing in this window")
	}

	// Most recent days only; the list is oldest first.
	const maxRows = 7
	if len(counts) > maxRows {
		counts = counts[len(counts)-maxRows:]
	}

	max := 0
	for _, day := range counts {
		if day.Count > max {
			max = day.Count
		}
	}

	barWidth := m.width - 30
	if barWidth < 10 {
		barWidth = 10
	}

	rows := []string{subtleStyle.Render("Daily activity")}
	for _, day := range counts {
		rows = append(rows, fmt.Sprintf("  %s %s %d",
			day.Date, positiveBarStyle.Render(bar(day.Count, max, barWidth)), day.Count))
	}
	return strings.Join(rows, "\n")
}

func (m DashboardModel) renderFilterLine() string {
	query := m.filter.Query
	if m.editingQuery {
		query = m.queryDraft + "▌"
	}
	if query == "" {
		query = "(none)"
	}

	line := fmt.Sprintf("Filters  rating %s · last %d days · search %s",
		selectedRowStyle.Render(string(m.filter.Rating)),
		m.filter.Days,
		selectedRowStyle.Render(query),
	)
	if m.editingQuery {
		line += subtleStyle.Render("   enter apply · esc cancel")
	}
	return line
}

func (m DashboardModel) renderList() string {
	count := fmt.Sprintf("Recent feedback  %d of %d shown", len(m.filtered), len(m.snapshot.Recent))
	if len(m.filtered) == 0 {
		return count + "\n" + subtleStyle.Render("  no rows match the filters")
	}

	visible := m.listHeight()
	start := 0
	if m.selected >= visible {
		start = m.selected - visible + 1
	}
	end := start + visible
	if end > len(m.filtered) {
		end = len(m.filtered)
	}

	rows := []string{count}
	for i := start; i < end; i++ {
		item := m.filtered[i]
		row := fmt.Sprintf("%s  %s  %s",
			item.Timestamp.Format("01-02 15:04"),
			ratingGlyph(item.Rating),
			truncate(item.Question, m.width-24),
		)
		if i == m.selected {
			rows = append(rows, selectedRowStyle.Render("> "+row))
		} else {
			rows = append(rows, "  "+row)
		}
	}
	return strings.Join(rows, "\n")
}

// listHeight is what remains after the fixed overview sections.
func (m DashboardModel) listHeight() int {
	h := m.height - 19
	if h < 3 {
		h = 3
	}
	return h
}

func (m DashboardModel) footer() string {
	hints := subtleStyle.Render("↑/↓ select · enter detail · r rating · d days · / search · e export · f refresh · l logout · q quit")
	status := m.status
	if status == "" {
		status = " "
	}
	return hints + "\n" + status
}

func (m DashboardModel) viewDetail() string {
	if m.selected < 0 || m.selected >= len(m.filtered) {
		return "No row selected"
	}
	item := m.filtered[m.selected]

	width := m.width - 6
	if width < 20 {
		width = 20
	}

	sections := []string{
		titleStyle.Render(fmt.Sprintf("Feedback #%d", item.ID)) +
			fmt.Sprintf("  %s %s", ratingGlyph(item.Rating), item.Rating) +
			subtleStyle.Render("  "+item.Timestamp.Format("2006-01-02 15:04:05")),
		subtleStyle.Render("session " + item.SessionID),
		"",
		userLabelStyle.Render("Question"),
		lipgloss.NewStyle().Width(width).Render(item.Question),
		"",
		assistantLabelStyle.Render("Answer"),
		lipgloss.NewStyle().Width(width).Render(item.Answer),
	}

	if item.UserComment != "" {
		sections = append(sections,
			"",
			warnStyle.Render("Comment"),
			lipgloss.NewStyle().Width(width).Render(item.UserComment),
		)
	}

	if m.session != nil {
		sections = append(sections, "", titleStyle.Render(
			fmt.Sprintf("All feedback from this session (%d)", m.session.FeedbackCount)))
		for _, other := range m.session.Feedback {
			sections = append(sections, fmt.Sprintf("  %s  %s  %s",
				other.Timestamp.Format("01-02 15:04"),
				ratingGlyph(other.Rating),
				truncate(other.Question, width-20),
			))
		}
	}

	sections = append(sections, "", subtleStyle.Render("s session feedback · esc back"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
