package dashboard

import (
	"strings"
	"time"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/assistant"
)

// RatingFilter narrows feedback to one rating. The empty value and RatingAll
// both keep everything.
type RatingFilter string

const (
	RatingAll      RatingFilter = "all"
	RatingPositive RatingFilter = RatingFilter(assistant.RatingPositive)
	RatingNegative RatingFilter = RatingFilter(assistant.RatingNegative)
)

// Bounds for the day-window selector
const (
	MinDays     = 1
	MaxDays     = 30
	DefaultDays = 7
)

// Filter is the dashboard's view criteria. Rating runs first, then the
// last-Days window, then a case-insensitive substring match of Query against
// question or answer. Days <= 0 disables the window; an empty or blank Query
// keeps everything.
type Filter struct {
	Rating RatingFilter
	Days   int
	Query  string
}

// Apply narrows items without reordering them; the input slice is untouched.
// The window keeps items with timestamp >= now minus Days, boundary included.
func (f Filter) Apply(now time.Time, items []assistant.FeedbackItem) []assistant.FeedbackItem {
	cutoff := now.AddDate(0, 0, -f.Days)
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]assistant.FeedbackItem, 0, len(items))
	for _, item := range items {
		if f.Rating != "" && f.Rating != RatingAll && item.Rating != string(f.Rating) {
			continue
		}
		if f.Days > 0 && item.Timestamp.Before(cutoff) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(item.Question), query) &&
			!strings.Contains(strings.ToLower(item.Answer), query) {
			continue
		}
		out = append(out, item)
	}
	return out
}
