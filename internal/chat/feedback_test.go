package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/assistant"
	"github.com/omg04j/100BM-chatbot-IronLady-02/pkg/utils"
)

func TestFeedbackTrackerSubmitsOnce(t *testing.T) {
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		assert.Equal(t, "/api/feedback", r.URL.Path)

		var req assistant.FeedbackRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "session-1", req.SessionID)
		assert.Equal(t, utils.MessageKey("session-1", 1), req.MessageID)
		assert.Equal(t, "q", req.Question)
		assert.Equal(t, "a", req.Answer)
		assert.Equal(t, assistant.RatingPositive, req.Rating)

		json.NewEncoder(w).Encode(assistant.FeedbackResponse{Success: true, FeedbackID: 1})
	}))
	defer server.Close()

	tracker := NewFeedbackTracker(assistant.NewClient(server.URL, 10*time.Second, testLogger()), testLogger())
	turn := assistant.Turn{Question: "q", Answer: "a"}

	_, rated := tracker.MessageRating("session-1", 1)
	assert.False(t, rated)

	err := tracker.RateMessage(context.Background(), "session-1", 1, turn, assistant.RatingPositive, "")
	require.NoError(t, err)

	rating, rated := tracker.MessageRating("session-1", 1)
	assert.True(t, rated)
	assert.Equal(t, assistant.RatingPositive, rating)

	// A second rating for the same message never reaches the network
	err = tracker.RateMessage(context.Background(), "session-1", 1, turn, assistant.RatingNegative, "")
	assert.ErrorIs(t, err, ErrAlreadyRated)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))

	// A different message in the same session is unaffected
	err = tracker.RateMessage(context.Background(), "session-1", 3, turn, assistant.RatingNegative, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&hits))
}

func TestFeedbackTrackerFailureLeavesUnrated(t *testing.T) {
	var fail int32 = 1
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&fail) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"detail": "database unavailable"}`))
			return
		}
		json.NewEncoder(w).Encode(assistant.FeedbackResponse{Success: true, FeedbackID: 2})
	}))
	defer server.Close()

	tracker := NewFeedbackTracker(assistant.NewClient(server.URL, 10*time.Second, testLogger()), testLogger())
	turn := assistant.Turn{Question: "q", Answer: "a"}

	err := tracker.RateMessage(context.Background(), "session-1", 1, turn, assistant.RatingPositive, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to submit feedback")

	_, rated := tracker.MessageRating("session-1", 1)
	assert.False(t, rated, "a failed submit must not consume the rating")

	// The user may try again manually
	atomic.StoreInt32(&fail, 0)
	err = tracker.RateMessage(context.Background(), "session-1", 1, turn, assistant.RatingPositive, "")
	require.NoError(t, err)
	_, rated = tracker.MessageRating("session-1", 1)
	assert.True(t, rated)
}

func TestFeedbackTrackerRejectsUnknownRating(t *testing.T) {
	tracker := NewFeedbackTracker(assistant.NewClient("http://localhost:0", time.Second, testLogger()), testLogger())

	err := tracker.RateMessage(context.Background(), "session-1", 1, assistant.Turn{}, "meh", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rating")
}

func TestMessageKeyDerivation(t *testing.T) {
	// Same session and index always derive the same key
	assert.Equal(t, utils.MessageKey("session-1", 3), utils.MessageKey("session-1", 3))

	// Different index or session derives a different key
	assert.NotEqual(t, utils.MessageKey("session-1", 3), utils.MessageKey("session-1", 4))
	assert.NotEqual(t, utils.MessageKey("session-1", 3), utils.MessageKey("session-2", 3))

	// Keys are hex digests, stable across processes
	assert.Len(t, utils.MessageKey("session-1", 0), 32)
}
