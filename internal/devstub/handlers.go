package devstub

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/omg04j/100BM-chatbot-IronLady-02/internal/assistant"
)

var validRatings = map[string]bool{
	assistant.RatingPositive: true,
	assistant.RatingNegative: true,
}

// detail mirrors the upstream error shape
func detail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"detail": msg})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, assistant.HealthResponse{Status: "healthy", RAGLoaded: true})
}

func (s *Server) handleChat(c *gin.Context) {
	var req assistant.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.WithError(err).Error("Invalid chat request")
		detail(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		detail(c, http.StatusBadRequest, "Question cannot be empty")
		return
	}

	answer := answerFor(question)
	turn := assistant.Turn{
		Question:  question,
		Answer:    answer,
		Timestamp: assistant.FormatTimestamp(time.Now()),
	}

	c.JSON(http.StatusOK, assistant.ChatResponse{
		Answer:         answer,
		UpdatedHistory: append(req.ConversationHistory, turn),
	})
}

func (s *Server) handleChatStream(c *gin.Context) {
	var req assistant.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.WithError(err).Error("Invalid chat request")
		detail(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		detail(c, http.StatusBadRequest, "Question cannot be empty")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"session_id":  req.SessionID,
		"history_len": len(req.ConversationHistory),
	}).Info("Streaming answer")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")

	if strings.Contains(strings.ToLower(question), "trigger error") {
		writeEvent(c, "error", gin.H{"error": "simulated backend failure"})
		return
	}

	answer := answerFor(question)
	for _, word := range strings.SplitAfter(answer, " ") {
		select {
		case <-c.Request.Context().Done():
			return
		default:
		}
		writeEvent(c, "message", gin.H{"chunk": word})
		time.Sleep(10 * time.Millisecond)
	}

	writeEvent(c, "done", gin.H{"done": true, "full_answer": answer})
}

func writeEvent(c *gin.Context, event string, payload gin.H) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	c.Writer.WriteString("event: " + event + "\n")
	c.Writer.WriteString("data: " + string(data) + "\n\n")
	c.Writer.Flush()
}

func (s *Server) handleFeedback(c *gin.Context) {
	var req assistant.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.WithError(err).Error("Invalid feedback request")
		detail(c, http.StatusBadRequest, "Invalid feedback format")
		return
	}

	if req.SessionID == "" || req.MessageID == "" {
		detail(c, http.StatusBadRequest, "session_id and message_id are required")
		return
	}
	if !validRatings[req.Rating] {
		detail(c, http.StatusBadRequest, "rating must be positive or negative")
		return
	}

	item := s.store.add(req)

	s.logger.WithFields(logrus.Fields{
		"session_id":  item.SessionID,
		"message_id":  item.MessageID,
		"rating":      item.Rating,
		"feedback_id": item.ID,
	}).Info("Feedback recorded")

	c.JSON(http.StatusOK, assistant.FeedbackResponse{
		Success:    true,
		Message:    "Feedback submitted successfully",
		FeedbackID: item.ID,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.stats())
}

func (s *Server) handleRecent(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		detail(c, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	c.JSON(http.StatusOK, assistant.RecentFeedbackResponse{Feedback: s.store.recent(limit)})
}

func (s *Server) handleSessionFeedback(c *gin.Context) {
	sessionID := c.Param("session_id")
	items := s.store.bySession(sessionID)

	c.JSON(http.StatusOK, assistant.SessionFeedbackResponse{
		SessionID:     sessionID,
		FeedbackCount: len(items),
		Feedback:      items,
	})
}
