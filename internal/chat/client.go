package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"
	topSnippets    = 3
)

// Client calls a generateContent-style cloud API with the question plus
// retrieved corpus snippets
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
}

// NewClient creates a chat client configured from the environment
func NewClient() *Client {
	model := os.Getenv("CHAT_MODEL")
	if model == "" {
		model = defaultModel
	}

	baseURL := os.Getenv("CHAT_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     os.Getenv("GEMINI_API_KEY"),
	}
}

// Configured reports whether an API key is available
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Request/response shapes for the generateContent endpoint

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
	Role  string         `json:"role,omitempty"`
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Answer is a chat reply with the snippets it was grounded on
type Answer struct {
	Text     string    `json:"text"`
	Snippets []Snippet `json:"snippets"`
}

// Ask retrieves corpus context for the question and asks the model
func (c *Client) Ask(ctx context.Context, question string) (*Answer, error) {
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}
	if !c.Configured() {
		return nil, fmt.Errorf("chat is not configured: GEMINI_API_KEY is not set")
	}

	snippets := Search(question, topSnippets)
	prompt := BuildPrompt(question, snippets)

	reqBody, err := json.Marshal(generateRequest{
		Contents: []generateContent{
			{Role: "user", Parts: []generatePart{{Text: prompt}}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if parsed.Error != nil {
		return nil, fmt.Errorf("chat API error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat API returned HTTP %d", resp.StatusCode)
	}

	var text strings.Builder
	if len(parsed.Candidates) > 0 {
		for _, part := range parsed.Candidates[0].Content.Parts {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("chat API returned no candidates")
	}

	return &Answer{Text: text.String(), Snippets: snippets}, nil
}

// BuildPrompt assembles the grounded prompt sent to the model
func BuildPrompt(question string, snippets []Snippet) string {
	var b strings.Builder

	b.WriteString("You are an assistant for a Korean product-label and barcode tool. ")
	b.WriteString("Answer using only the reference material below. ")
	b.WriteString("If the material does not cover the question, say so. ")
	b.WriteString("Answer in the language of the question.\n\n")

	if len(snippets) == 0 {
		b.WriteString("(no reference material matched)\n")
	}
	for i, s := range snippets {
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, s.Title, s.Text)
	}

	b.WriteString("Question: ")
	b.WriteString(question)

	return b.String()
}
