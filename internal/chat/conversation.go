package chat

import (
	"sync"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/assistant"
)

// Role values for transcript messages
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one transcript entry. TurnIndex points at the completed turn an
// assistant answer belongs to, or -1 for user messages and error notices.
type Message struct {
	Role      string
	Content   string
	TurnIndex int
}

// Conversation holds the transcript and the completed turns for one session.
// Messages drive rendering; turns are replayed verbatim to the backend as
// context. A turn is appended in the same step as its assistant message, so
// the two lists never drift apart. Everything lives in memory; only the
// session id itself is durable.
type Conversation struct {
	mu       sync.Mutex
	messages []Message
	turns    []assistant.Turn
}

func NewConversation() *Conversation {
	return &Conversation{}
}

// AppendUser adds the question to the transcript and returns its index.
func (c *Conversation) AppendUser(content string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, Message{Role: RoleUser, Content: content, TurnIndex: -1})
	return len(c.messages) - 1
}

// CommitTurn adds the assistant answer to the transcript together with its
// completed turn and returns the message index.
func (c *Conversation) CommitTurn(turn assistant.Turn) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = append(c.turns, turn)
	c.messages = append(c.messages, Message{
		Role:      RoleAssistant,
		Content:   turn.Answer,
		TurnIndex: len(c.turns) - 1,
	})
	return len(c.messages) - 1
}

// AppendNotice adds an assistant-role message with no backing turn. Used for
// the synthetic message a failed stream leaves behind.
func (c *Conversation) AppendNotice(content string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, Message{Role: RoleAssistant, Content: content, TurnIndex: -1})
	return len(c.messages) - 1
}

// RemoveTrailingUser drops the last message if it is a user message, returning
// its content. Used when a stream is cancelled before any answer arrived.
func (c *Conversation) RemoveTrailingUser() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.messages) == 0 {
		return "", false
	}
	last := c.messages[len(c.messages)-1]
	if last.Role != RoleUser {
		return "", false
	}
	c.messages = c.messages[:len(c.messages)-1]
	return last.Content, true
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Turns returns a copy of the completed turns.
func (c *Conversation) Turns() []assistant.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]assistant.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// TurnForMessage resolves the turn behind the assistant message at the given
// transcript index.
func (c *Conversation) TurnForMessage(index int) (assistant.Turn, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.messages) {
		return assistant.Turn{}, false
	}
	turnIndex := c.messages[index].TurnIndex
	if turnIndex < 0 {
		return assistant.Turn{}, false
	}
	return c.turns[turnIndex], true
}

func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.messages)
}

// Clear wipes transcript and turns. Only an explicit user action calls this.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = nil
	c.turns = nil
}
