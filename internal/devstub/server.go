package devstub

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Server simulates the production assistant backend for offline development:
// canned answers, in-memory feedback, the same wire contract. Point the
// clients at it with API_BASE_URL.
type Server struct {
	store  *feedbackStore
	logger *logrus.Logger
}

func NewServer(logger *logrus.Logger) *Server {
	return &Server{
		store:  newFeedbackStore(),
		logger: logger,
	}
}

func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())

	router.GET("/api/health", s.handleHealth)
	router.POST("/api/chat", s.handleChat)
	router.POST("/api/chat/stream", s.handleChatStream)
	router.POST("/api/feedback", s.handleFeedback)
	router.GET("/api/feedback/stats", s.handleStats)
	router.GET("/api/feedback/recent", s.handleRecent)
	router.GET("/api/feedback/session/:session_id", s.handleSessionFeedback)

	return router
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.WithField("addr", addr).Info("Dev stub listening")
	return s.Router().Run(addr)
}

// answerFor picks a canned answer. Questions containing "trigger error"
// make the streaming endpoint fail on purpose, for client error-path testing.
func answerFor(question string) string {
	q := strings.ToLower(question)
	for _, canned := range cannedAnswers {
		for _, keyword := range canned.keywords {
			if strings.Contains(q, keyword) {
				return canned.answer
			}
		}
	}
	return "Thanks for asking about the Iron Lady leadership programs. " +
		"This is a development stub answer; the production assistant grounds its replies in the program knowledge base."
}

var cannedAnswers = []struct {
	keywords []string
	answer   string
}{
	{
		keywords: []string{"100bm", "100 board", "board members"},
		answer: "The 100 Board Members program prepares accomplished women for board positions " +
			"through structured mentorship, business war-rooms and direct exposure to sitting board directors.",
	},
	{
		keywords: []string{"long", "duration", "weeks", "months"},
		answer:   "The flagship journey runs in phased cohorts over several months, with weekly masterclasses and war-room sessions.",
	},
	{
		keywords: []string{"fee", "price", "cost", "pricing"},
		answer:   "Program fees depend on the cohort and scholarship options. The admissions team shares the current structure during the intro call.",
	},
	{
		keywords: []string{"apply", "join", "enroll", "admission"},
		answer:   "Applications open per cohort. You start with a short form, followed by a conversation with the admissions team to check fit.",
	},
}
