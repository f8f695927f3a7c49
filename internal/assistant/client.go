package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

type Client struct {
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
	logger       *logrus.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		// http.Client.Timeout covers the body read too, which would cut off
		// a slow answer mid-stream. Streams end on their terminal frame or
		// through context cancellation.
		streamClient: &http.Client{},
		logger:       logger,
	}
}

// Ask is the non-streaming chat path. The interactive client streams instead;
// this exists for scripting and as a fallback.
func (c *Client) Ask(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var response ChatResponse
	err := c.makeRequest(ctx, "POST", "/api/chat", req, &response)
	return &response, err
}

// AskStream opens the streaming chat endpoint and returns the live frame
// stream. The caller owns the stream and must Close it.
func (c *Client) AskStream(ctx context.Context, req ChatRequest) (*Stream, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/chat/stream", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	c.logger.WithFields(logrus.Fields{
		"url":          c.baseURL + "/api/chat/stream",
		"payload_size": len(jsonData),
		"history_len":  len(req.ConversationHistory),
	}).Debug("Opening answer stream")

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(responseBody))
	}

	return NewStream(resp.Body), nil
}

func (c *Client) SubmitFeedback(ctx context.Context, req FeedbackRequest) (*FeedbackResponse, error) {
	var response FeedbackResponse
	err := c.makeRequest(ctx, "POST", "/api/feedback", req, &response)
	return &response, err
}

func (c *Client) Stats(ctx context.Context) (*FeedbackStats, error) {
	var response FeedbackStats
	err := c.makeRequest(ctx, "GET", "/api/feedback/stats", nil, &response)
	return &response, err
}

func (c *Client) Recent(ctx context.Context, limit int) ([]FeedbackItem, error) {
	var response RecentFeedbackResponse
	endpoint := fmt.Sprintf("/api/feedback/recent?limit=%d", limit)
	if err := c.makeRequest(ctx, "GET", endpoint, nil, &response); err != nil {
		return nil, err
	}
	return response.Feedback, nil
}

func (c *Client) SessionFeedback(ctx context.Context, sessionID string) (*SessionFeedbackResponse, error) {
	var response SessionFeedbackResponse
	endpoint := "/api/feedback/session/" + url.PathEscape(sessionID)
	err := c.makeRequest(ctx, "GET", endpoint, nil, &response)
	return &response, err
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var response HealthResponse
	err := c.makeRequest(ctx, "GET", "/api/health", nil, &response)
	return &response, err
}

func (c *Client) makeRequest(ctx context.Context, method, endpoint string, payload interface{}, result interface{}) error {
	url := c.baseURL + endpoint

	var body io.Reader
	var contentLength int

	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
		contentLength = len(jsonData)

		// Log payload size for debugging
		c.logger.WithFields(logrus.Fields{
			"method":       method,
			"url":          url,
			"payload_size": contentLength,
		}).Debug("Request payload info")

		// Only log full payload for small requests to avoid spam
		if contentLength < 1000 {
			c.logger.WithFields(logrus.Fields{
				"method":       method,
				"url":          url,
				"payload_json": string(jsonData),
			}).Debug("Request payload")
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"url":      url,
		"has_body": payload != nil,
		"size":     contentLength,
	}).Debug("Making backend API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"status_code":   resp.StatusCode,
		"method":        method,
		"url":           url,
		"response_size": len(responseBody),
	}).Debug("Backend API response received")

	// Only log response body for small responses or errors
	if len(responseBody) < 500 || resp.StatusCode >= 400 {
		c.logger.WithFields(logrus.Fields{
			"status_code":   resp.StatusCode,
			"method":        method,
			"url":           url,
			"response_body": string(responseBody),
		}).Debug("Response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(responseBody))
	}

	if result != nil && len(responseBody) > 0 {
		if err := json.Unmarshal(responseBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
