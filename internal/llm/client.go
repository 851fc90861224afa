// Package llm talks to the Gemini generateContent endpoint. It is transport
// only: prompt construction belongs to the assistant package, and callers
// treat the model as an opaque text-in/text-out collaborator.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrTimeout = errors.New("llm: call exceeded time budget")
	ErrEmpty   = errors.New("llm: empty response")
)

const defaultTemperature = 0.7

// ChatTurn is one prior exchange replayed to the model.
type ChatTurn struct {
	Role string // "user" or "model"
	Text string
}

type Client struct {
	baseURL string
	model   string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a client for the given endpoint and model. ratePerMin caps
// outgoing requests against the API quota; timeout bounds each call and is the
// only cancellation point in a turn.
func NewClient(baseURL, model, apiKey string, timeout time.Duration, ratePerMin int) *Client {
	if ratePerMin <= 0 {
		ratePerMin = 15
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMin)), ratePerMin),
	}
}

// Request/response shapes for the generateContent wire format.

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Complete sends a single-shot prompt and returns the model's markdown reply.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, "", nil, prompt)
}

// Chat sends a system instruction, replayed history, and the new user message.
func (c *Client) Chat(ctx context.Context, system string, history []ChatTurn, userText string) (string, error) {
	return c.generate(ctx, system, history, userText)
}

func (c *Client) generate(ctx context.Context, system string, history []ChatTurn, userText string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", classify(err)
	}

	req := generateRequest{
		GenerationConfig: generationConfig{Temperature: defaultTemperature},
	}
	if system != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}
	for _, turn := range history {
		req.Contents = append(req.Contents, content{Role: turn.Role, Parts: []part{{Text: turn.Text}}})
	}
	req.Contents = append(req.Contents, content{Role: "user", Parts: []part{{Text: userText}}})

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: request failed with status %s", resp.Status)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmpty
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
