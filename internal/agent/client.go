// Package agent is the client for the Oshaani conversational AI agent. The
// API key identifies the agent; a conversation id scopes the agent's own
// memory of prior exchanges.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

var reasoningMarkup = regexp.MustCompile(`(?s)<reasoning>.*?</reasoning>`)

// Client talks to the Oshaani chat endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client. The timeout bounds every agent call so a hung
// agent cannot stall an automation pass.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type chatResponse struct {
	Response string `json:"response"`
	Message  string `json:"message"`
	Text     string `json:"text"`
}

// text picks whichever field the agent populated and strips reasoning
// markup before the content is treated as the user-facing answer.
func (r chatResponse) text() string {
	for _, candidate := range []string{r.Response, r.Message, r.Text} {
		if candidate != "" {
			return strings.TrimSpace(reasoningMarkup.ReplaceAllString(candidate, ""))
		}
	}
	return ""
}

// Chat sends one message to the agent and returns its cleaned text reply.
func (c *Client) Chat(ctx context.Context, message, conversationID string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("agent API key not configured: set OSHAANI_AGENT_API_KEY")
	}

	payload, err := json.Marshal(chatRequest{Message: message, ConversationID: conversationID})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/chat", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "ApiKey "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("agent request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("agent returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode agent response: %w", err)
	}
	return parsed.text(), nil
}

// InvokeWithContext sends the user's request together with a serialized
// context block gathered from the user's Workspace data.
func (c *Client) InvokeWithContext(ctx context.Context, userMessage, contextBlock, conversationID string) (string, error) {
	full := fmt.Sprintf(`**User request:** %s

**Context from Google (emails, chat, workspace):**
%s

Please process the above and respond accordingly. Use the context to answer questions, draft replies, summarize, or take actions as appropriate.`, userMessage, contextBlock)
	return c.Chat(ctx, full, conversationID)
}

// Ping verifies connectivity and key validity with a trivial exchange.
func (c *Client) Ping(ctx context.Context) (string, error) {
	return c.Chat(ctx, "Hi, reply with OK if you can read this.", "")
}
