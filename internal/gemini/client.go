// internal/gemini/client.go
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 60 * time.Second
)

const analysisPrompt = `
You are a nutrition assistant.
Analyze this food picture and return JSON with fields {name, ingredients, calories, protein, carbs, fat, benefits}.
Each field must have translations in 3 languages: Vietnamese (vi), English (en), Japanese (ja).
Return ONLY JSON, no explanation.
`

const chatPrompt = `
Bạn là chatbot dinh dưỡng. Trả lời ngắn gọn, thân thiện.
Hãy trả lời bằng chính ngôn ngữ mà người dùng đã hỏi.
Câu hỏi: %s
`

// replyPath is where generateContent puts the first text part.
const replyPath = "candidates.0.content.parts.0.text"

// ErrInvalidInput is returned before any request is made.
var ErrInvalidInput = errors.New("invalid input")

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   model,
	}
}

type request struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// AnalyzeImage asks the model for a multilingual nutrition breakdown of a
// base64-encoded JPEG and returns the raw reply text.
func (c *Client) AnalyzeImage(ctx context.Context, imageBase64 string) (string, error) {
	if err := validateJPEG(imageBase64); err != nil {
		return "", err
	}

	return c.generate(ctx, []part{
		{Text: analysisPrompt},
		{InlineData: &inlineData{MimeType: "image/jpeg", Data: imageBase64}},
	})
}

// Chat sends a freeform nutrition question and returns the raw reply text.
func (c *Client) Chat(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: empty chat message", ErrInvalidInput)
	}

	return c.generate(ctx, []part{{Text: fmt.Sprintf(chatPrompt, question)}})
}

func validateJPEG(imageBase64 string) error {
	if imageBase64 == "" {
		return fmt.Errorf("%w: empty image", ErrInvalidInput)
	}

	data, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return fmt.Errorf("%w: image is not base64: %v", ErrInvalidInput, err)
	}

	if mimeType := http.DetectContentType(data); mimeType != "image/jpeg" {
		return fmt.Errorf("%w: image is %s, want image/jpeg", ErrInvalidInput, mimeType)
	}
	return nil
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
}

func (c *Client) generate(ctx context.Context, parts []part) (string, error) {
	jsonData, err := json.Marshal(request{Contents: []content{{Parts: parts}}})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Kind: KindNetwork, Err: redact(err, c.apiKey)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Kind: KindNetwork, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TransportError{
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("request failed with status %d: %s", resp.StatusCode, truncate(string(body), 512)),
		}
	}

	if !gjson.ValidBytes(body) {
		return "", &TransportError{Kind: KindEnvelope, Err: fmt.Errorf("response body is not JSON: %s", truncate(string(body), 512))}
	}

	return gjson.GetBytes(body, replyPath).String(), nil
}

// redact keeps the API key out of errors that embed the request URL.
func redact(err error, apiKey string) error {
	var uerr *url.Error
	if apiKey != "" && errors.As(err, &uerr) {
		uerr.URL = strings.ReplaceAll(uerr.URL, url.QueryEscape(apiKey), "REDACTED")
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
