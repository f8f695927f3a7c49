package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/assistant"
)

// Snapshot is everything one dashboard refresh needs: the aggregate stats and
// the recent feedback the filtered views are computed from.
type Snapshot struct {
	Stats     assistant.FeedbackStats
	Recent    []assistant.FeedbackItem
	FetchedAt time.Time
}

// Fetcher loads dashboard data through the API client.
type Fetcher struct {
	client *assistant.Client
	limit  int
	logger *logrus.Logger
}

func NewFetcher(client *assistant.Client, limit int, logger *logrus.Logger) *Fetcher {
	return &Fetcher{client: client, limit: limit, logger: logger}
}

func (f *Fetcher) Load(ctx context.Context) (*Snapshot, error) {
	stats, err := f.client.Stats(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := f.client.Recent(ctx, f.limit)
	if err != nil {
		return nil, err
	}

	f.logger.WithFields(logrus.Fields{
		"total_feedback": stats.TotalFeedback,
		"recent_items":   len(recent),
	}).Debug("Dashboard data loaded")

	return &Snapshot{
		Stats:     *stats,
		Recent:    recent,
		FetchedAt: time.Now(),
	}, nil
}

// Session loads all feedback left in one chat session, for the detail view.
func (f *Fetcher) Session(ctx context.Context, sessionID string) (*assistant.SessionFeedbackResponse, error) {
	return f.client.SessionFeedback(ctx, sessionID)
}

// DayCount is one bar of the daily activity chart.
type DayCount struct {
	Date  string
	Count int
}

// DailyCounts groups feedback by calendar day (UTC), oldest first.
func DailyCounts(items []assistant.FeedbackItem) []DayCount {
	byDay := map[string]int{}
	for _, item := range items {
		byDay[item.Timestamp.UTC().Format("2006-01-02")]++
	}

	out := make([]DayCount, 0, len(byDay))
	for date, count := range byDay {
		out = append(out, DayCount{Date: date, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
