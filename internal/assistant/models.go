package assistant

import (
	"encoding/json"
	"fmt"
	"time"
)

// Rating values accepted by the feedback endpoint
const (
	RatingPositive = "positive"
	RatingNegative = "negative"
)

// Request models
type ChatRequest struct {
	Question            string `json:"question"`
	SessionID           string `json:"session_id"`
	ConversationHistory []Turn `json:"conversation_history"`
}

type FeedbackRequest struct {
	SessionID   string `json:"session_id"`
	MessageID   string `json:"message_id"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Rating      string `json:"rating"`
	UserComment string `json:"user_comment,omitempty"`
}

// Turn is one completed question/answer exchange. The full turn list is
// replayed verbatim on every ask; the backend decides how much of it to use.
type Turn struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Timestamp string `json:"timestamp"`
}

// Response models
type ChatResponse struct {
	Answer         string `json:"answer"`
	UpdatedHistory []Turn `json:"updated_history"`
}

type FeedbackResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	FeedbackID int    `json:"feedback_id"`
}

type FeedbackStats struct {
	TotalFeedback      int     `json:"total_feedback"`
	PositiveCount      int     `json:"positive_count"`
	NegativeCount      int     `json:"negative_count"`
	PositivePercentage float64 `json:"positive_percentage"`
}

type FeedbackItem struct {
	ID          int       `json:"id"`
	SessionID   string    `json:"session_id"`
	MessageID   string    `json:"message_id"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	Rating      string    `json:"rating"`
	Timestamp   Timestamp `json:"timestamp"`
	UserComment string    `json:"user_comment,omitempty"`
}

type RecentFeedbackResponse struct {
	Feedback []FeedbackItem `json:"feedback"`
}

type SessionFeedbackResponse struct {
	SessionID     string         `json:"session_id"`
	FeedbackCount int            `json:"feedback_count"`
	Feedback      []FeedbackItem `json:"feedback"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	RAGLoaded bool   `json:"rag_loaded"`
}

// Timestamp accepts both RFC 3339 and the zoneless ISO-8601 form the backend
// emits (datetime.isoformat without an offset, treated as UTC).
type Timestamp struct {
	time.Time
}

const wireTimeLayout = "2006-01-02T15:04:05.000000"

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// FormatTimestamp renders a time the way the backend does: zoneless ISO-8601
// in UTC with microsecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(wireTimeLayout)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(FormatTimestamp(t.Time))
}
