package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/assistant"
)

func TestFetcherLoad(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/feedback/stats":
			w.Write([]byte(`{"total_feedback": 3, "positive_count": 2, "negative_count": 1, "positive_percentage": 66.67}`))
		case "/api/feedback/recent":
			assert.Equal(t, "100", r.URL.Query().Get("limit"))
			w.Write([]byte(`{"feedback": [
				{"id": 3, "session_id": "s2", "message_id": "m3", "question": "q3", "answer": "a3", "rating": "negative", "timestamp": "2024-03-02T11:00:00"},
				{"id": 2, "session_id": "s1", "message_id": "m2", "question": "q2", "answer": "a2", "rating": "positive", "timestamp": "2024-03-02T10:00:00"},
				{"id": 1, "session_id": "s1", "message_id": "m1", "question": "q1", "answer": "a1", "rating": "positive", "timestamp": "2024-03-01T09:00:00"}
			]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	fetcher := NewFetcher(assistant.NewClient(server.URL, 10*time.Second, testLogger()), 100, testLogger())

	snapshot, err := fetcher.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, snapshot.Stats.TotalFeedback)
	assert.InDelta(t, 66.67, snapshot.Stats.PositivePercentage, 0.001)
	require.Len(t, snapshot.Recent, 3)
	assert.Equal(t, 3, snapshot.Recent[0].ID, "server order preserved")
	assert.False(t, snapshot.FetchedAt.IsZero())
}

func TestFetcherLoadSurfacesErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail": "database unavailable"}`))
	}))
	defer server.Close()

	fetcher := NewFetcher(assistant.NewClient(server.URL, 10*time.Second, testLogger()), 100, testLogger())

	_, err := fetcher.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestDailyCounts(t *testing.T) {
	ts := func(day, hour int) assistant.Timestamp {
		return assistant.Timestamp{Time: time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)}
	}
	items := []assistant.FeedbackItem{
		{ID: 1, Timestamp: ts(2, 9)},
		{ID: 2, Timestamp: ts(1, 10)},
		{ID: 3, Timestamp: ts(2, 15)},
		{ID: 4, Timestamp: ts(4, 8)},
	}

	counts := DailyCounts(items)
	assert.Equal(t, []DayCount{
		{Date: "2024-03-01", Count: 1},
		{Date: "2024-03-02", Count: 2},
		{Date: "2024-03-04", Count: 1},
	}, counts)
}

func TestDailyCountsEmpty(t *testing.T) {
	assert.Empty(t, DailyCounts(nil))
}
