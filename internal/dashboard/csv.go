package dashboard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/assistant"
)

const csvHeader = "timestamp,session_id,question,answer,rating"

// RenderCSV serializes feedback rows for download. Question and answer are
// always quoted, with embedded quotes doubled; the remaining columns carry no
// free text and are written raw. Callers pass the filtered view, not the raw
// fetch.
func RenderCSV(items []assistant.FeedbackItem) string {
	var b strings.Builder
	b.WriteString(csvHeader)
	b.WriteByte('\n')

	for _, item := range items {
		b.WriteString(assistant.FormatTimestamp(item.Timestamp.Time))
		b.WriteByte(',')
		b.WriteString(item.SessionID)
		b.WriteByte(',')
		b.WriteString(quoteField(item.Question))
		b.WriteByte(',')
		b.WriteString(quoteField(item.Answer))
		b.WriteByte(',')
		b.WriteString(item.Rating)
		b.WriteByte('\n')
	}
	return b.String()
}

func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ExportFileName returns a timestamped download name, e.g.
// feedback_20240301_150405.csv.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("feedback_%s.csv", now.Format("20060102_150405"))
}

// WriteCSV renders the rows into a timestamped file under dir and returns
// the full path.
func WriteCSV(dir string, items []assistant.FeedbackItem, now time.Time) (string, error) {
	path := filepath.Join(dir, ExportFileName(now))
	if err := os.WriteFile(path, []byte(RenderCSV(items)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}
