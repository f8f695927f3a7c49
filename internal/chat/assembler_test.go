package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/assistant"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func streamHandler(t *testing.T, write func(t *testing.T, w http.ResponseWriter, r *http.Request, flush func())) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/stream", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		write(t, w, r, flusher.Flush)
	}
}

func drain(events <-chan StreamEvent) (partials []string, last StreamEvent) {
	for ev := range events {
		if ev.Turn == nil && ev.Err == nil {
			partials = append(partials, ev.Partial)
		}
		last = ev
	}
	return partials, last
}

func TestAssemblerCommitsConcatenatedAnswer(t *testing.T) {
	server := httptest.NewServer(streamHandler(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, flush func()) {
		for _, chunk := range []string{"The ", "program ", "runs."} {
			w.Write([]byte("event: message\ndata: {\"chunk\": \"" + chunk + "\"}\n\n"))
			flush()
		}
		w.Write([]byte("event: done\ndata: {\"done\": true, \"full_answer\": \"The program runs.\"}\n\n"))
		flush()
	}))
	defer server.Close()

	conv := NewConversation()
	asm := NewAssembler(assistant.NewClient(server.URL, 10*time.Second, testLogger()), conv, testLogger())

	events, err := asm.Ask(context.Background(), "session-1", "How long?")
	require.NoError(t, err)

	partials, last := drain(events)

	assert.Equal(t, []string{"The ", "The program ", "The program runs."}, partials)
	require.NotNil(t, last.Turn)
	assert.Equal(t, "The program runs.", last.Turn.Answer)
	assert.Equal(t, "How long?", last.Turn.Question)
	assert.NotEmpty(t, last.Turn.Timestamp)

	messages := conv.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, RoleUser, messages[0].Role)
	assert.Equal(t, RoleAssistant, messages[1].Role)
	assert.Equal(t, "The program runs.", messages[1].Content)

	turns := conv.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, "The program runs.", turns[0].Answer)

	turn, ok := conv.TurnForMessage(1)
	require.True(t, ok)
	assert.Equal(t, turns[0], turn)

	assert.False(t, asm.Streaming())
}

func TestAssemblerSurfacesErrorFrame(t *testing.T) {
	server := httptest.NewServer(streamHandler(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, flush func()) {
		w.Write([]byte("event: message\ndata: {\"chunk\": \"partial\"}\n\n"))
		flush()
		w.Write([]byte("event: error\ndata: {\"error\": \"model unavailable\"}\n\n"))
		flush()
	}))
	defer server.Close()

	conv := NewConversation()
	asm := NewAssembler(assistant.NewClient(server.URL, 10*time.Second, testLogger()), conv, testLogger())

	events, err := asm.Ask(context.Background(), "session-1", "hi")
	require.NoError(t, err)

	_, last := drain(events)
	require.Error(t, last.Err)
	assert.Nil(t, last.Turn)
	assert.Contains(t, last.Err.Error(), "model unavailable")

	// No turn committed; the transcript ends with the synthetic notice
	assert.Empty(t, conv.Turns())
	messages := conv.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, RoleAssistant, messages[1].Role)
	assert.Contains(t, messages[1].Content, noticePrefix)
	assert.Contains(t, messages[1].Content, "model unavailable")
	assert.Equal(t, -1, messages[1].TurnIndex)
}

func TestAssemblerRejectsConcurrentAsk(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(streamHandler(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, flush func()) {
		w.Write([]byte("data: {\"chunk\": \"thinking\"}\n\n"))
		flush()
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		w.Write([]byte("data: {\"done\": true, \"full_answer\": \"thinking\"}\n\n"))
		flush()
	}))
	defer server.Close()

	conv := NewConversation()
	asm := NewAssembler(assistant.NewClient(server.URL, 10*time.Second, testLogger()), conv, testLogger())

	events, err := asm.Ask(context.Background(), "session-1", "first")
	require.NoError(t, err)

	// Wait until the stream is live
	first := <-events
	assert.Equal(t, "thinking", first.Partial)
	assert.True(t, asm.Streaming())

	// Second ask is a no-op while the first is in flight
	_, err = asm.Ask(context.Background(), "session-1", "second")
	assert.ErrorIs(t, err, ErrStreamInFlight)
	assert.Equal(t, 1, conv.Len())

	close(release)
	_, last := drain(events)
	require.NotNil(t, last.Turn)

	// Only the first ask reached the conversation
	assert.False(t, asm.Streaming())
	assert.Len(t, conv.Messages(), 2)
	assert.Len(t, conv.Turns(), 1)
}

func TestAssemblerRejectsEmptyQuestion(t *testing.T) {
	conv := NewConversation()
	asm := NewAssembler(assistant.NewClient("http://localhost:0", time.Second, testLogger()), conv, testLogger())

	_, err := asm.Ask(context.Background(), "session-1", "   \n\t")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Equal(t, 0, conv.Len())
}

func TestAssemblerTreatsTruncatedStreamAsFailure(t *testing.T) {
	server := httptest.NewServer(streamHandler(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, flush func()) {
		w.Write([]byte("data: {\"chunk\": \"cut \"}\n\n"))
		flush()
	}))
	defer server.Close()

	conv := NewConversation()
	asm := NewAssembler(assistant.NewClient(server.URL, 10*time.Second, testLogger()), conv, testLogger())

	events, err := asm.Ask(context.Background(), "session-1", "hi")
	require.NoError(t, err)

	_, last := drain(events)
	require.Error(t, last.Err)
	assert.Contains(t, last.Err.Error(), "without a final frame")
	assert.Empty(t, conv.Turns())

	messages := conv.Messages()
	require.Len(t, messages, 2)
	assert.Contains(t, messages[1].Content, noticePrefix)
}

func TestAssemblerSurfacesTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	conv := NewConversation()
	asm := NewAssembler(assistant.NewClient(server.URL, time.Second, testLogger()), conv, testLogger())

	events, err := asm.Ask(context.Background(), "session-1", "hi")
	require.NoError(t, err)

	_, last := drain(events)
	require.Error(t, last.Err)
	assert.Empty(t, conv.Turns())
	require.Len(t, conv.Messages(), 2)
	assert.Contains(t, conv.Messages()[1].Content, noticePrefix)
}

func TestAssemblerCancelCommitsNothing(t *testing.T) {
	server := httptest.NewServer(streamHandler(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, flush func()) {
		w.Write([]byte("data: {\"chunk\": \"forever\"}\n\n"))
		flush()
		<-r.Context().Done()
	}))
	defer server.Close()

	conv := NewConversation()
	asm := NewAssembler(assistant.NewClient(server.URL, 10*time.Second, testLogger()), conv, testLogger())

	events, err := asm.Ask(context.Background(), "session-1", "hang on")
	require.NoError(t, err)

	first := <-events
	assert.Equal(t, "forever", first.Partial)

	asm.Cancel()
	_, last := drain(events)
	assert.ErrorIs(t, last.Err, context.Canceled)

	// Nothing committed, no notice; only the dangling question remains
	assert.Empty(t, conv.Turns())
	messages := conv.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, RoleUser, messages[0].Role)
	assert.False(t, asm.Streaming())

	// The question can be restored to the input line
	question, ok := conv.RemoveTrailingUser()
	require.True(t, ok)
	assert.Equal(t, "hang on", question)
	assert.Equal(t, 0, conv.Len())
}

func TestAssemblerReplaysHistory(t *testing.T) {
	var mu sync.Mutex
	var histories [][]assistant.Turn

	server := httptest.NewServer(streamHandler(t, func(t *testing.T, w http.ResponseWriter, r *http.Request, flush func()) {
		var req assistant.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		histories = append(histories, req.ConversationHistory)
		mu.Unlock()

		w.Write([]byte("data: {\"chunk\": \"answer \"}\n\n"))
		w.Write([]byte("data: {\"chunk\": \"" + req.Question + "\"}\n\n"))
		w.Write([]byte("data: {\"done\": true, \"full_answer\": \"answer " + req.Question + "\"}\n\n"))
		flush()
	}))
	defer server.Close()

	conv := NewConversation()
	asm := NewAssembler(assistant.NewClient(server.URL, 10*time.Second, testLogger()), conv, testLogger())

	for _, question := range []string{"one", "two"} {
		events, err := asm.Ask(context.Background(), "session-1", question)
		require.NoError(t, err)
		_, last := drain(events)
		require.NotNil(t, last.Turn)
	}

	require.Len(t, histories, 2)
	assert.Empty(t, histories[0])
	require.Len(t, histories[1], 1)
	assert.Equal(t, "one", histories[1][0].Question)
	assert.Equal(t, "answer one", histories[1][0].Answer)

	assert.Len(t, conv.Messages(), 4)
	assert.Len(t, conv.Turns(), 2)
}
