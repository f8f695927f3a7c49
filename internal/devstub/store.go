package devstub

import (
	"math"
	"sync"
	"time"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/assistant"
)

// feedbackStore keeps submitted feedback in memory. The stub exists for
// development runs; nothing survives the process.
type feedbackStore struct {
	mu      sync.Mutex
	nextID  int
	entries []assistant.FeedbackItem
}

func newFeedbackStore() *feedbackStore {
	return &feedbackStore{nextID: 1}
}

func (s *feedbackStore) add(req assistant.FeedbackRequest) assistant.FeedbackItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := assistant.FeedbackItem{
		ID:          s.nextID,
		SessionID:   req.SessionID,
		MessageID:   req.MessageID,
		Question:    req.Question,
		Answer:      req.Answer,
		Rating:      req.Rating,
		UserComment: req.UserComment,
		Timestamp:   assistant.Timestamp{Time: time.Now().UTC()},
	}
	s.nextID++
	s.entries = append(s.entries, item)
	return item
}

func (s *feedbackStore) stats() assistant.FeedbackStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := assistant.FeedbackStats{TotalFeedback: len(s.entries)}
	for _, item := range s.entries {
		switch item.Rating {
		case assistant.RatingPositive:
			stats.PositiveCount++
		case assistant.RatingNegative:
			stats.NegativeCount++
		}
	}
	if stats.TotalFeedback > 0 {
		percentage := float64(stats.PositiveCount) / float64(stats.TotalFeedback) * 100
		stats.PositivePercentage = math.Round(percentage*100) / 100
	}
	return stats
}

// recent returns up to limit entries, newest first.
func (s *feedbackStore) recent(limit int) []assistant.FeedbackItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]assistant.FeedbackItem, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.entries[i])
	}
	return out
}

func (s *feedbackStore) bySession(sessionID string) []assistant.FeedbackItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]assistant.FeedbackItem, 0)
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].SessionID == sessionID {
			out = append(out, s.entries[i])
		}
	}
	return out
}
