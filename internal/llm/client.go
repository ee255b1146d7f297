package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/quantbao/stockchat-backend/internal/httputil"
	"github.com/quantbao/stockchat-backend/internal/models"
)

// maxHistoryTurns is how many stored turns accompany a completion
// request as conversation context.
const maxHistoryTurns = 20

// Kind is a closed enumeration of model-endpoint failure classes,
// assigned where the failure is observed. Callers switch on Kind
// instead of sniffing error message text.
type Kind string

const (
	KindAuth        Kind = "auth"         // invalid or expired credentials
	KindRateLimit   Kind = "rate_limit"   // request rate exceeded
	KindQuota       Kind = "quota"        // account balance or quota exhausted
	KindServer      Kind = "server"       // 5xx from the endpoint
	KindNetwork     Kind = "network"      // transport-level failure
	KindBadResponse Kind = "bad_response" // 2xx with an unusable payload
)

// ModelError is any failure of the chat-completion endpoint.
type ModelError struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *ModelError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("model endpoint (%s, HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("model endpoint (%s): %s", e.Kind, e.Message)
}

// Options configure a Client beyond its credentials.
type Options struct {
	Model        string
	MaxTokens    int
	Temperature  float64
	SystemPrompt string
	Retry        httputil.RetryConfig
}

// Client talks to an OpenAI-style chat-completions endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	opts       Options
	httpClient *http.Client
}

func NewClient(endpoint, apiKey string, opts Options) *Client {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		opts:       opts,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the user message with up to the 20 most recent stored
// turns (oldest first) and returns the assistant's reply.
func (c *Client) Complete(ctx context.Context, userMessage string, history []models.Turn) (string, error) {
	msgs := make([]message, 0, maxHistoryTurns+2)
	if c.opts.SystemPrompt != "" {
		msgs = append(msgs, message{Role: "system", Content: c.opts.SystemPrompt})
	}
	msgs = append(msgs, message{Role: "user", Content: userMessage})

	recent := history
	if len(recent) > maxHistoryTurns {
		recent = recent[len(recent)-maxHistoryTurns:]
	}
	for _, turn := range recent {
		role := "user"
		if turn.Role == models.RoleAssistant {
			role = "assistant"
		}
		msgs = append(msgs, message{Role: role, Content: turn.Content})
	}

	body, err := json.Marshal(completionRequest{
		Model:       c.opts.Model,
		Messages:    msgs,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
		Stream:      false,
	})
	if err != nil {
		return "", &ModelError{Kind: KindBadResponse, Message: "marshal request: " + err.Error()}
	}

	resp, err := httputil.Do(ctx, c.httpClient, c.opts.Retry, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		return req, nil
	})
	if err != nil {
		return "", &ModelError{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	var parsed completionResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&parsed)

	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if decodeErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", &ModelError{Kind: classifyStatus(resp.StatusCode), Status: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil {
		return "", &ModelError{Kind: KindBadResponse, Status: resp.StatusCode, Message: "malformed response body"}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", &ModelError{Kind: KindBadResponse, Status: resp.StatusCode, Message: "response carried no choices"}
	}

	return parsed.Choices[0].Message.Content, nil
}

func classifyStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == http.StatusPaymentRequired:
		return KindQuota
	case status >= 500:
		return KindServer
	default:
		return KindBadResponse
	}
}
