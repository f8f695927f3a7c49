package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"
	"github.com/sirupsen/logrus"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/assistant"
	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/chat"
)

// Messages delivered to the chat model by background commands.
type (
	streamEventMsg chat.StreamEvent

	healthCheckMsg struct {
		health *assistant.HealthResponse
		err    error
	}

	feedbackSentMsg struct {
		messageIndex int
		rating       string
		err          error
	}

	chatSpinnerMsg struct{}
)

const (
	healthUnknown = iota
	healthOK
	healthDegraded
	healthDown
)

// ChatDeps wires the chat front-end to the core packages. Everything is
// constructed in cmd/chat; the model only renders and dispatches.
type ChatDeps struct {
	SessionID    string
	Client       *assistant.Client
	Conversation *chat.Conversation
	Assembler    *chat.Assembler
	Feedback     *chat.FeedbackTracker
	Sessions     *chat.SessionManager
	Logger       *logrus.Logger
}

// ChatModel is the terminal chat front-end: a scrolling transcript, an input
// line and the live answer stream, with thumbs-up/down feedback on answers.
// All conversation invariants live in the chat package; this model is
// presentation and key dispatch only.
type ChatModel struct {
	deps      ChatDeps
	sessionID string

	input  string
	cursor int

	messages []chat.Message
	selected int // transcript index of the selected answer, -1 none

	streaming bool
	partial   string
	events    <-chan chat.StreamEvent
	spinner   int

	healthState  int
	healthDetail string

	status string
	scroll int // lines scrolled up from the transcript bottom

	width    int
	height   int
	quitting bool
}

func NewChat(deps ChatDeps) ChatModel {
	return ChatModel{
		deps:      deps,
		sessionID: deps.SessionID,
		selected:  -1,
		width:     80,
		height:    24,
		status:    "Ask anything about the Iron Lady programs",
	}
}

func (m ChatModel) Init() tea.Cmd {
	return checkHealth(m.deps.Client)
}

func checkHealth(client *assistant.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		health, err := client.Health(ctx)
		return healthCheckMsg{health: health, err: err}
	}
}

// waitForEvent pumps the next stream event into the update loop. The channel
// closes after its terminal event, which needs no message of its own.
func waitForEvent(events <-chan chat.StreamEvent) tea.Cmd {
	return func() tea.Msg {
		if ev, ok := <-events; ok {
			return streamEventMsg(ev)
		}
		return nil
	}
}

func chatTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return chatSpinnerMsg{}
	})
}

func sendFeedback(tracker *chat.FeedbackTracker, sessionID string, index int, turn assistant.Turn, rating string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		err := tracker.RateMessage(ctx, sessionID, index, turn, rating, "")
		return feedbackSentMsg{messageIndex: index, rating: rating, err: err}
	}
}

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case streamEventMsg:
		return m.handleStreamEvent(chat.StreamEvent(msg))

	case chatSpinnerMsg:
		if m.streaming {
			m.spinner++
			return m, chatTick()
		}
		return m, nil

	case healthCheckMsg:
		switch {
		case msg.err != nil:
			m.healthState = healthDown
			m.healthDetail = "backend unreachable"
			m.deps.Logger.WithError(msg.err).Warn("Health check failed")
		case msg.health.Status == "healthy" && msg.health.RAGLoaded:
			m.healthState = healthOK
			m.healthDetail = "backend healthy · knowledge base loaded"
		default:
			m.healthState = healthDegraded
			m.healthDetail = "backend degraded · knowledge base not loaded"
		}
		return m, nil

	case feedbackSentMsg:
		switch {
		case msg.err == nil:
			m.status = "Thanks for the feedback"
		case errors.Is(msg.err, chat.ErrAlreadyRated):
			m.status = "This answer is already rated"
		default:
			m.status = "Could not send feedback — try again"
			m.deps.Logger.WithError(msg.err).Warn("Feedback submission failed")
		}
		return m, nil
	}
	return m, nil
}

func (m ChatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.deps.Assembler.Cancel()
		m.quitting = true
		return m, tea.Quit

	case "esc":
		if m.streaming {
			m.deps.Assembler.Cancel()
			return m, nil
		}
		if m.input != "" {
			m.input = ""
			m.cursor = 0
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case "enter":
		return m.send()

	case "ctrl+n":
		return m.newChat()

	case "ctrl+y":
		return m.copySelected()

	case "backspace":
		if m.cursor > 0 {
			runes := []rune(m.input)
			m.input = string(runes[:m.cursor-1]) + string(runes[m.cursor:])
			m.cursor--
		}
		return m, nil

	case "delete":
		runes := []rune(m.input)
		if m.cursor < len(runes) {
			m.input = string(runes[:m.cursor]) + string(runes[m.cursor+1:])
		}
		return m, nil

	case "left":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "right":
		if m.cursor < len([]rune(m.input)) {
			m.cursor++
		}
		return m, nil

	case "home":
		m.cursor = 0
		return m, nil

	case "end":
		m.cursor = len([]rune(m.input))
		return m, nil

	case "up":
		if m.input == "" {
			m.moveSelection(-1)
		}
		return m, nil

	case "down":
		if m.input == "" {
			m.moveSelection(1)
		}
		return m, nil

	case "pgup":
		m.scroll += m.transcriptHeight() - 1
		return m, nil

	case "pgdown":
		m.scroll -= m.transcriptHeight() - 1
		if m.scroll < 0 {
			m.scroll = 0
		}
		return m, nil
	}

	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
		text := string(msg.Runes)
		if msg.Type == tea.KeySpace {
			text = " "
		}

		// Rating keys work from an empty input line; anywhere else they
		// are ordinary characters.
		if m.input == "" && len(text) == 1 {
			switch text {
			case "+":
				return m.rateSelected(assistant.RatingPositive)
			case "-":
				return m.rateSelected(assistant.RatingNegative)
			}
		}

		runes := []rune(m.input)
		m.input = string(runes[:m.cursor]) + text + string(runes[m.cursor:])
		m.cursor += len([]rune(text))
	}
	return m, nil
}

func (m ChatModel) send() (tea.Model, tea.Cmd) {
	events, err := m.deps.Assembler.Ask(context.Background(), m.sessionID, m.input)
	switch {
	case errors.Is(err, chat.ErrEmptyQuestion):
		return m, nil
	case errors.Is(err, chat.ErrStreamInFlight):
		m.status = "Hold on — the current answer is still streaming"
		return m, nil
	case err != nil:
		m.status = "Could not send the question"
		m.deps.Logger.WithError(err).Error("Ask failed to start")
		return m, nil
	}

	m.input = ""
	m.cursor = 0
	m.streaming = true
	m.partial = ""
	m.events = events
	m.status = ""
	m.scroll = 0
	m.refresh()
	return m, tea.Batch(waitForEvent(events), chatTick())
}

func (m ChatModel) handleStreamEvent(ev chat.StreamEvent) (tea.Model, tea.Cmd) {
	switch {
	case ev.Err != nil:
		wasStreaming := m.streaming
		m.streaming = false
		m.partial = ""
		if errors.Is(ev.Err, context.Canceled) {
			// Put the unanswered question back on the input line, unless a
			// new chat already swept it away.
			if wasStreaming {
				if question, ok := m.deps.Conversation.RemoveTrailingUser(); ok && m.input == "" {
					m.input = question
					m.cursor = len([]rune(question))
				}
				m.status = "Answer cancelled"
			}
		} else {
			m.status = "The assistant ran into a problem — see the transcript"
		}
		m.refresh()
		m.scroll = 0
		return m, nil

	case ev.Turn != nil:
		m.streaming = false
		m.partial = ""
		m.refresh()
		m.selected = m.lastAnswerIndex()
		m.scroll = 0
		m.status = "Rate this answer with + or -"
		return m, nil

	default:
		m.partial = ev.Partial
		return m, waitForEvent(m.events)
	}
}

func (m ChatModel) newChat() (tea.Model, tea.Cmd) {
	m.deps.Assembler.Cancel()
	m.deps.Conversation.Clear()
	m.streaming = false
	m.partial = ""

	// A fresh session id keeps feedback keys from colliding with ratings
	// left in the previous transcript.
	id, err := m.deps.Sessions.Reset()
	if err != nil {
		m.deps.Logger.WithError(err).Error("Session reset failed")
		m.status = "Could not start a new session"
	} else {
		m.sessionID = id
		m.status = "Started a new chat"
	}

	m.refresh()
	m.selected = -1
	m.scroll = 0
	return m, nil
}

func (m ChatModel) copySelected() (tea.Model, tea.Cmd) {
	index := m.selected
	if index < 0 {
		index = m.lastAnswerIndex()
	}
	if index < 0 || index >= len(m.messages) {
		m.status = "Nothing to copy yet"
		return m, nil
	}

	if err := clipboard.WriteAll(m.messages[index].Content); err != nil {
		m.status = "Clipboard unavailable"
		return m, nil
	}
	m.status = "Answer copied to clipboard"
	return m, nil
}

func (m ChatModel) rateSelected(rating string) (tea.Model, tea.Cmd) {
	index := m.selected
	if index < 0 {
		index = m.lastAnswerIndex()
	}
	if index < 0 {
		m.status = "Nothing to rate yet"
		return m, nil
	}

	turn, ok := m.deps.Conversation.TurnForMessage(index)
	if !ok {
		m.status = "Only answers can be rated"
		return m, nil
	}
	if _, rated := m.deps.Feedback.MessageRating(m.sessionID, index); rated {
		m.status = "This answer is already rated"
		return m, nil
	}

	m.selected = index
	m.status = "Sending feedback…"
	return m, sendFeedback(m.deps.Feedback, m.sessionID, index, turn, rating)
}

// refresh pulls the transcript from the conversation and keeps the selection
// pointing at a real answer.
func (m *ChatModel) refresh() {
	m.messages = m.deps.Conversation.Messages()
	if m.selected >= len(m.messages) {
		m.selected = m.lastAnswerIndex()
	}
}

// lastAnswerIndex returns the transcript index of the most recent rateable
// answer, or -1.
func (m ChatModel) lastAnswerIndex() int {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Role == chat.RoleAssistant && m.messages[i].TurnIndex >= 0 {
			return i
		}
	}
	return -1
}

func (m *ChatModel) moveSelection(delta int) {
	var answers []int
	for i, message := range m.messages {
		if message.Role == chat.RoleAssistant && message.TurnIndex >= 0 {
			answers = append(answers, i)
		}
	}
	if len(answers) == 0 {
		return
	}

	pos := len(answers) - 1
	for i, index := range answers {
		if index == m.selected {
			pos = i
			break
		}
	}
	if m.selected >= 0 {
		pos += delta
	}
	if pos < 0 {
		pos = 0
	}
	if pos >= len(answers) {
		pos = len(answers) - 1
	}
	m.selected = answers[pos]
	m.scrollTo(m.selected)
}

// scrollTo adjusts the scroll offset so the message block is visible.
func (m *ChatModel) scrollTo(index int) {
	lines, starts := m.renderTranscript(m.transcriptWidth())
	if index < 0 || index >= len(starts) {
		return
	}

	total := len(lines)
	visible := m.transcriptHeight()
	if total <= visible {
		m.scroll = 0
		return
	}

	start := starts[index]
	windowStart := total - visible - m.scroll
	if windowStart < 0 {
		windowStart = 0
	}

	if start < windowStart {
		m.scroll = total - visible - start
	} else if start >= windowStart+visible {
		m.scroll = total - visible - (start - visible + 1)
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

func (m ChatModel) transcriptWidth() int {
	return m.width - 2
}

// transcriptHeight is what remains after the fixed chrome: title, health
// line, input box and the hint/status lines.
func (m ChatModel) transcriptHeight() int {
	h := m.height - 8
	if h < 3 {
		h = 3
	}
	return h
}

// renderTranscript renders every message block and reports the first line of
// each transcript entry for scroll bookkeeping.
func (m ChatModel) renderTranscript(width int) (lines []string, starts []int) {
	bubbleWidth := width * 3 / 4
	if bubbleWidth < 20 {
		bubbleWidth = width
	}

	starts = make([]int, len(m.messages))
	for i, message := range m.messages {
		starts[i] = len(lines)
		block := m.renderMessage(i, message, width, bubbleWidth)
		lines = append(lines, strings.Split(block, "\n")...)
		lines = append(lines, "")
	}

	if m.streaming {
		label := assistantLabelStyle.Render("Assistant") + " " + warnStyle.Render(spinnerFrame(m.spinner))
		body := m.partial + "▌"
		block := label + "\n" + bubbleStyle.Width(bubbleWidth).Render(body)
		lines = append(lines, strings.Split(block, "\n")...)
	}
	return lines, starts
}

func (m ChatModel) renderMessage(index int, message chat.Message, width, bubbleWidth int) string {
	if message.Role == chat.RoleUser {
		label := userLabelStyle.Render("You")
		block := label + "\n" + bubbleStyle.Width(bubbleWidth).Render(message.Content)
		return placeRight(width, block)
	}

	// Notices are answers without a backing turn: stream failures.
	if message.TurnIndex < 0 {
		return noticeBubbleStyle.Width(bubbleWidth).Render(message.Content)
	}

	label := assistantLabelStyle.Render("Assistant")
	style := bubbleStyle
	if index == m.selected {
		style = selectedBubbleStyle
	}

	meta := ""
	if rating, ok := m.deps.Feedback.MessageRating(m.sessionID, index); ok {
		meta = subtleStyle.Render("rated " + ratingGlyph(rating))
	} else if index == m.selected {
		meta = subtleStyle.Render("[+] helpful · [-] not helpful · ctrl+y copy")
	}

	block := label + "\n" + style.Width(bubbleWidth).Render(message.Content)
	if meta != "" {
		block += "\n" + meta
	}
	return block
}

// placeRight pushes a multi-line block to the right edge.
func placeRight(width int, block string) string {
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(width, lipgloss.Right, line)
	}
	return strings.Join(lines, "\n")
}

func (m ChatModel) View() string {
	if m.quitting {
		return ""
	}

	title := titleStyle.Render("Iron Lady Assistant") +
		subtleStyle.Render(fmt.Sprintf("  session %s · %d answers", shortID(m.sessionID), len(m.deps.Conversation.Turns())))

	var health string
	switch m.healthState {
	case healthOK:
		health = goodStyle.Render("● " + m.healthDetail)
	case healthDegraded:
		health = warnStyle.Render("● " + m.healthDetail)
	case healthDown:
		health = errorStyle.Render("● " + m.healthDetail)
	default:
		health = subtleStyle.Render("● checking backend…")
	}

	transcript := m.renderTranscriptWindow()
	input := m.renderInput()

	hints := "enter ask · ↑/↓ pick answer · + / - rate · ctrl+y copy · ctrl+n new chat · esc quit"
	if m.streaming {
		hints = "esc cancel · answer streaming…"
	}

	status := m.status
	if status == "" {
		status = " "
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		health,
		transcript,
		input,
		subtleStyle.Render(hints),
		status,
	)
}

func (m ChatModel) renderTranscriptWindow() string {
	width := m.transcriptWidth()
	visible := m.transcriptHeight()

	if len(m.messages) == 0 && !m.streaming {
		banner := strings.Trim(figure.NewFigure("Iron Lady", "", true).String(), "\n")
		welcome := lipgloss.JoinVertical(lipgloss.Center,
			titleStyle.Render(banner),
			"",
			subtleStyle.Render("Your leadership-program assistant. Type a question below."),
		)
		return lipgloss.Place(width, visible, lipgloss.Center, lipgloss.Center, welcome)
	}

	lines, _ := m.renderTranscript(width)
	total := len(lines)

	scroll := m.scroll
	if scroll > total-visible {
		scroll = total - visible
	}
	if scroll < 0 {
		scroll = 0
	}

	start := total - visible - scroll
	if start < 0 {
		start = 0
	}
	end := start + visible
	if end > total {
		end = total
	}

	window := lines[start:end]
	for len(window) < visible {
		window = append(window, "")
	}
	return strings.Join(window, "\n")
}

func (m ChatModel) renderInput() string {
	width := m.width - 4
	if width < 10 {
		width = 10
	}

	if m.streaming {
		text := warnStyle.Render(spinnerFrame(m.spinner)) + " waiting for the answer…"
		return inputBoxStyle.Width(width).Render(text)
	}

	runes := []rune(m.input)
	var b strings.Builder
	for i := 0; i <= len(runes); i++ {
		if i == m.cursor {
			b.WriteString("▌")
		}
		if i < len(runes) {
			b.WriteRune(runes[i])
		}
	}
	return inputBoxStyle.Width(width).Render(b.String())
}
