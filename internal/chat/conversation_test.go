package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/assistant"
)

func TestConversationLockstep(t *testing.T) {
	conv := NewConversation()

	userIdx := conv.AppendUser("What is 100BM?")
	assert.Equal(t, 0, userIdx)
	assert.Empty(t, conv.Turns())

	answerIdx := conv.CommitTurn(assistant.Turn{
		Question:  "What is 100BM?",
		Answer:    "A leadership program.",
		Timestamp: "2024-03-01T10:00:00.000000",
	})
	assert.Equal(t, 1, answerIdx)

	messages := conv.Messages()
	turns := conv.Turns()
	require.Len(t, messages, 2)
	require.Len(t, turns, 1)
	assert.Equal(t, messages[1].Content, turns[0].Answer)
	assert.Equal(t, 0, messages[1].TurnIndex)
	assert.Equal(t, -1, messages[0].TurnIndex)
}

func TestConversationNoticeHasNoTurn(t *testing.T) {
	conv := NewConversation()

	conv.AppendUser("hi")
	conv.AppendNotice("⚠️ something broke")
	conv.AppendUser("again")
	conv.CommitTurn(assistant.Turn{Question: "again", Answer: "ok"})

	messages := conv.Messages()
	require.Len(t, messages, 4)
	require.Len(t, conv.Turns(), 1)

	_, ok := conv.TurnForMessage(1)
	assert.False(t, ok, "notices have no backing turn")

	turn, ok := conv.TurnForMessage(3)
	require.True(t, ok)
	assert.Equal(t, "ok", turn.Answer)

	_, ok = conv.TurnForMessage(0)
	assert.False(t, ok, "user messages have no backing turn")
	_, ok = conv.TurnForMessage(99)
	assert.False(t, ok)
}

func TestConversationRemoveTrailingUser(t *testing.T) {
	conv := NewConversation()

	_, ok := conv.RemoveTrailingUser()
	assert.False(t, ok)

	conv.AppendUser("q1")
	conv.CommitTurn(assistant.Turn{Question: "q1", Answer: "a1"})

	_, ok = conv.RemoveTrailingUser()
	assert.False(t, ok, "assistant message stays put")
	assert.Equal(t, 2, conv.Len())

	conv.AppendUser("pending")
	content, ok := conv.RemoveTrailingUser()
	require.True(t, ok)
	assert.Equal(t, "pending", content)
	assert.Equal(t, 2, conv.Len())
	assert.Len(t, conv.Turns(), 1)
}

func TestConversationClear(t *testing.T) {
	conv := NewConversation()

	conv.AppendUser("q")
	conv.CommitTurn(assistant.Turn{Question: "q", Answer: "a"})
	require.Equal(t, 2, conv.Len())

	conv.Clear()
	assert.Equal(t, 0, conv.Len())
	assert.Empty(t, conv.Messages())
	assert.Empty(t, conv.Turns())
}

func TestConversationCopiesAreIndependent(t *testing.T) {
	conv := NewConversation()
	conv.AppendUser("q")

	messages := conv.Messages()
	messages[0].Content = "mutated"

	assert.Equal(t, "q", conv.Messages()[0].Content)
}
