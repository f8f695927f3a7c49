package chat

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/assistant"
)

// noticePrefix marks the synthetic assistant message a failed stream leaves
// in the transcript.
const noticePrefix = "⚠️ "

// StreamEvent is one observable step of an in-flight ask. Zero or more
// partial updates are followed by exactly one terminal event carrying either
// the committed turn or the failure.
type StreamEvent struct {
	Partial string
	Turn    *assistant.Turn
	Err     error
}

// Assembler folds answer-stream frames into the conversation. Chunks grow a
// live partial answer; the turn is committed exactly once when the done frame
// arrives. At most one stream is in flight at a time.
type Assembler struct {
	client *assistant.Client
	conv   *Conversation
	logger *logrus.Logger

	mu       sync.Mutex
	inFlight bool
	cancel   context.CancelFunc
}

func NewAssembler(client *assistant.Client, conv *Conversation, logger *logrus.Logger) *Assembler {
	return &Assembler{client: client, conv: conv, logger: logger}
}

// Ask appends the user message and starts consuming the answer stream.
// Events arrive on the returned channel, which closes after the terminal
// event. While a stream is in flight a second Ask returns ErrStreamInFlight
// and the conversation is left untouched; an empty question returns
// ErrEmptyQuestion.
func (a *Assembler) Ask(ctx context.Context, sessionID, question string) (<-chan StreamEvent, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	a.mu.Lock()
	if a.inFlight {
		a.mu.Unlock()
		return nil, ErrStreamInFlight
	}
	a.inFlight = true
	streamCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	history := a.conv.Turns()
	a.conv.AppendUser(question)

	events := make(chan StreamEvent, 16)
	go a.consume(streamCtx, sessionID, question, history, events)
	return events, nil
}

// Cancel tears down the in-flight stream, if any. Nothing is committed and no
// notice is appended; the terminal event carries context.Canceled.
func (a *Assembler) Cancel() {
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Streaming reports whether an ask is in flight.
func (a *Assembler) Streaming() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.inFlight
}

func (a *Assembler) consume(ctx context.Context, sessionID, question string, history []assistant.Turn, events chan<- StreamEvent) {
	defer close(events)
	defer a.finish()

	stream, err := a.client.AskStream(ctx, assistant.ChatRequest{
		Question:            question,
		SessionID:           sessionID,
		ConversationHistory: history,
	})
	if err != nil {
		a.terminate(ctx, events, err)
		return
	}
	defer stream.Close()

	var answer strings.Builder
	for {
		frame, err := stream.Recv()
		if err == io.EOF {
			a.terminate(ctx, events, fmt.Errorf("stream ended without a final frame"))
			return
		}
		if err != nil {
			a.terminate(ctx, events, err)
			return
		}

		switch {
		case frame.Error != "":
			a.terminate(ctx, events, fmt.Errorf("assistant error: %s", frame.Error))
			return
		case frame.Done:
			turn := assistant.Turn{
				Question:  question,
				Answer:    answer.String(),
				Timestamp: assistant.FormatTimestamp(time.Now()),
			}
			a.conv.CommitTurn(turn)
			a.logger.WithFields(logrus.Fields{
				"session_id": sessionID,
				"answer_len": len(turn.Answer),
			}).Info("Turn committed")
			events <- StreamEvent{Partial: turn.Answer, Turn: &turn}
			return
		default:
			answer.WriteString(frame.Chunk)
			events <- StreamEvent{Partial: answer.String()}
		}
	}
}

// terminate ends a stream that produced no turn. Failures leave a synthetic
// assistant message in the transcript; a cancelled stream leaves nothing.
func (a *Assembler) terminate(ctx context.Context, events chan<- StreamEvent, err error) {
	if ctx.Err() != nil {
		events <- StreamEvent{Err: ctx.Err()}
		return
	}

	a.logger.WithError(err).Error("Answer stream failed")
	a.conv.AppendNotice(noticePrefix + err.Error())
	events <- StreamEvent{Err: err}
}

func (a *Assembler) finish() {
	a.mu.Lock()
	a.inFlight = false
	a.cancel = nil
	a.mu.Unlock()
}
