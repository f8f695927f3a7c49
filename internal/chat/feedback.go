package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/assistant"
	"github.com/omg04j/100BM-chatbot-IronLady-02/pkg/utils"
)

var validRatings = map[string]bool{
	assistant.RatingPositive: true,
	assistant.RatingNegative: true,
}

// FeedbackTracker relays ratings to the backend and enforces the one-rating-
// per-message rule locally. Messages are keyed by the stable derivation of
// session id and transcript index, so the guard survives re-renders.
type FeedbackTracker struct {
	client *assistant.Client
	logger *logrus.Logger

	mu    sync.Mutex
	rated map[string]string
}

func NewFeedbackTracker(client *assistant.Client, logger *logrus.Logger) *FeedbackTracker {
	return &FeedbackTracker{
		client: client,
		logger: logger,
		rated:  map[string]string{},
	}
}

// RateMessage submits one rating for the assistant message at the given
// transcript index. An already-rated message returns ErrAlreadyRated without
// touching the network. A failed submit leaves the message unrated so the
// user may try again; nothing retries automatically.
func (f *FeedbackTracker) RateMessage(ctx context.Context, sessionID string, messageIndex int, turn assistant.Turn, rating, comment string) error {
	if !validRatings[rating] {
		return fmt.Errorf("invalid rating %q", rating)
	}

	key := utils.MessageKey(sessionID, messageIndex)

	f.mu.Lock()
	if _, done := f.rated[key]; done {
		f.mu.Unlock()
		return ErrAlreadyRated
	}
	f.mu.Unlock()

	_, err := f.client.SubmitFeedback(ctx, assistant.FeedbackRequest{
		SessionID:   sessionID,
		MessageID:   key,
		Question:    turn.Question,
		Answer:      turn.Answer,
		Rating:      rating,
		UserComment: comment,
	})
	if err != nil {
		return fmt.Errorf("failed to submit feedback: %w", err)
	}

	f.mu.Lock()
	f.rated[key] = rating
	f.mu.Unlock()

	f.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"message_id": key,
		"rating":     rating,
	}).Info("Feedback submitted")
	return nil
}

// MessageRating returns the recorded rating for the message, if any.
func (f *FeedbackTracker) MessageRating(sessionID string, messageIndex int) (string, bool) {
	key := utils.MessageKey(sessionID, messageIndex)

	f.mu.Lock()
	defer f.mu.Unlock()

	rating, found := f.rated[key]
	return rating, found
}
