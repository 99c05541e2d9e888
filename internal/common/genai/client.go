// internal/common/genai/client.go
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"leadgen-workers/internal/models"
)

var (
	ErrExtractionTimeout = errors.New("KEYWORD_EXTRACTION_TIMEOUT")
	ErrExtractionFailed  = errors.New("KEYWORD_EXTRACTION_FAILED")
)

const maxKeywords = 20

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// Client calls the GenAI gateway to pull salient keywords out of an email.
// Errors are sentinel-wrapped so callers can decide between retrying and
// switching to the static fallback vocabulary.
type Client struct {
	config Config
	client *http.Client
}

func NewClient(config Config) *Client {
	return &Client{
		config: config,
		client: &http.Client{
			// caps each attempt; the per-call context still bounds the whole
			// retry loop
			Timeout: config.Timeout,
		},
	}
}

// ExtractKeywords asks the gateway for a comma-separated keyword list and
// parses it. The result is trimmed and capped.
func (c *Client) ExtractKeywords(ctx context.Context, email models.EmailContent) ([]string, error) {
	requestBody := map[string]interface{}{
		"prompt":      c.buildPrompt(email),
		"max_tokens":  256,
		"temperature": 0.2,
	}

	body, _ := json.Marshal(requestBody)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrExtractionTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/api/ai/generate", bytes.NewBuffer(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		}

		resp, lastErr = c.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return nil, ErrExtractionTimeout
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrExtractionTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, lastErr)
	}

	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrExtractionFailed)
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrExtractionFailed, err)
	}

	keywords := parseKeywords(apiResponse.Text)
	if len(keywords) == 0 {
		return nil, fmt.Errorf("%w: empty keyword list", ErrExtractionFailed)
	}

	return keywords, nil
}

func (c *Client) buildPrompt(email models.EmailContent) string {
	var parts []string

	parts = append(parts, "Extract business, product and technical keywords from the following sales email.")
	parts = append(parts, "Return ONLY a comma-separated list of keywords, no explanations.")
	parts = append(parts, fmt.Sprintf("\nSubject: %s", email.Subject))
	parts = append(parts, fmt.Sprintf("Body: %s", email.Body))

	if email.CustomerName != "" {
		parts = append(parts, fmt.Sprintf("Customer: %s", email.CustomerName))
	}
	if email.CustomerWebsite != "" {
		parts = append(parts, fmt.Sprintf("Website: %s", email.CustomerWebsite))
	}
	if email.Industry != "" {
		parts = append(parts, fmt.Sprintf("Industry: %s", email.Industry))
	}

	parts = append(parts, "\nKeywords:")

	return strings.Join(parts, "\n")
}

// parseKeywords splits a comma-separated response, accepting both ASCII and
// fullwidth commas.
func parseKeywords(text string) []string {
	text = strings.ReplaceAll(text, "，", ",")

	var keywords []string
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		keywords = append(keywords, part)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}
