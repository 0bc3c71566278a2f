// Package vision turns a receipt photo into a structured core.Receipt by
// calling the Gemini generateContent API.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/OgnevOA/spendy-pants/internal/core"
	"github.com/OgnevOA/spendy-pants/internal/log"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// Receipt photos routinely take the model a minute or more.
	requestTimeout = 180 * time.Second

	temperature     = 0.1
	maxOutputTokens = 16384
)

type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
	now        func() time.Time
}

type Option func(*Client)

// WithBaseURL points the client at a different endpoint. Tests use it to talk
// to a local httptest server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func NewClient(apiKey, model string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     log.New(log.ComponentVision),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Extract sends the image to the model and returns the coerced receipt. The
// returned error, when non-nil, is always an *ExtractError.
func (c *Client) Extract(ctx context.Context, imageData []byte, mimeType string) (core.Receipt, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	reqBody := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: extractionPrompt},
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(imageData),
				}},
			},
		}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			Temperature:      temperature,
			MaxOutputTokens:  maxOutputTokens,
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return core.Receipt{}, newError(KindBadResponse, "encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return core.Receipt{}, newError(KindNetwork, "build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.InfoContext(ctx, "requesting receipt extraction",
		"model", c.model, "image_bytes", len(imageData), "mime_type", mimeType)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.Receipt{}, newError(KindNetwork, "call model: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.Receipt{}, newError(KindNetwork, "read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return core.Receipt{}, newError(KindNetwork, "model returned status %d: %s",
			resp.StatusCode, truncate(string(body), 200))
	}

	text, err := extractText(body)
	if err != nil {
		return core.Receipt{}, err
	}

	var dto receiptDTO
	if err := json.Unmarshal([]byte(cleanJSON(text)), &dto); err != nil {
		c.logger.WarnContext(ctx, "model answered with undecodable JSON",
			"raw", truncate(text, 500))
		return core.Receipt{}, newError(KindBadJSON, "decode receipt JSON: %w", err)
	}

	receipt := dto.toReceipt(c.now())
	c.logger.InfoContext(ctx, "receipt extracted",
		"store", receipt.StoreName, "items", len(receipt.Items),
		log.FieldDuration, time.Since(start).String())
	return receipt, nil
}

// extractText digs the generated string out of the response envelope,
// rejecting blocked prompts, empty candidate lists, and contentless answers.
func extractText(body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", newError(KindBadResponse, "decode response envelope: %w", err)
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return "", newError(KindBadResponse, "prompt blocked: %s (%s)",
			fb.BlockReason, fb.BlockReasonMessage)
	}
	if len(resp.Candidates) == 0 {
		return "", newError(KindBadResponse, "no candidates in response")
	}

	cand := resp.Candidates[0]
	switch cand.FinishReason {
	case "", "STOP", "MAX_TOKENS", "MODEL_LENGTH":
	default:
		if cand.Content == nil || len(cand.Content.Parts) == 0 {
			return "", newError(KindBadResponse, "generation stopped: %s", cand.FinishReason)
		}
	}
	if cand.Content == nil || len(cand.Content.Parts) == 0 || cand.Content.Parts[0].Text == "" {
		return "", newError(KindBadResponse, "candidate has no text content")
	}
	return cand.Content.Parts[0].Text, nil
}

var fenceRe = regexp.MustCompile("(?is)```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// cleanJSON strips a markdown code fence if the model wrapped its answer in
// one despite the JSON response mime type.
func cleanJSON(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Wire types for the generateContent call.

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
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

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	PromptFeedback *promptFeedback `json:"promptFeedback"`
	Candidates     []candidate     `json:"candidates"`
}

type promptFeedback struct {
	BlockReason        string `json:"blockReason"`
	BlockReasonMessage string `json:"blockReasonMessage"`
}

type candidate struct {
	Content      *candidateContent `json:"content"`
	FinishReason string            `json:"finishReason"`
}

type candidateContent struct {
	Parts []part `json:"parts"`
}
