package llmclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiport/internal/config"
)

const defaultOpenAIMaxTokens = 4096

// ChatClient speaks the chat/completions dialect shared by OpenAI and
// OpenRouter.
type ChatClient struct {
	provider   config.LLMProvider
	endpoint   string
	maxTokens  int
	httpClient *http.Client
	logger     *zap.Logger
}

// -- chat/completions Request/Response Structures (Internal to this file) --
type chatImageURL struct {
	URL string `json:"url"`
}

type chatPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatMessage struct {
	Role    string     `json:"role"`
	Content []chatPart `json:"content"`
}

type chatRequestPayload struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponsePayload struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	// OpenRouter reports some upstream failures in a 200 body.
	Error *struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewOpenAIClient targets the OpenAI chat completions endpoint.
func NewOpenAIClient(cfg config.ProviderConfig, logger *zap.Logger) *ChatClient {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultOpenAIMaxTokens
	}
	return newChatClient(config.ProviderOpenAI, cfg, maxTokens, logger)
}

// NewOpenRouterClient targets OpenRouter. No max_tokens is sent unless configured.
func NewOpenRouterClient(cfg config.ProviderConfig, logger *zap.Logger) *ChatClient {
	return newChatClient(config.ProviderOpenRouter, cfg, cfg.MaxTokens, logger)
}

func newChatClient(p config.LLMProvider, cfg config.ProviderConfig, maxTokens int, logger *zap.Logger) *ChatClient {
	return &ChatClient{
		provider:   p,
		endpoint:   cfg.Endpoint,
		maxTokens:  maxTokens,
		httpClient: newHTTPClient(cfg.Timeout),
		logger:     logger.Named("llm_client." + string(p)),
	}
}

func (c *ChatClient) Name() config.LLMProvider { return c.provider }

func (c *ChatClient) Send(ctx context.Context, req Request) (*Response, error) {
	if req.Credential == "" {
		return nil, &APIError{Provider: c.provider, Kind: KindAuth, Message: "API key is required"}
	}

	body, err := json.Marshal(c.buildRequestPayload(req))
	if err != nil {
		return nil, &APIError{Provider: c.provider, Kind: KindBadRequest, Message: "failed to marshal request payload", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &APIError{Provider: c.provider, Kind: KindBadRequest, Message: "failed to create HTTP request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.Credential)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("Network error during LLM request", zap.Error(err))
		return nil, transportError(c.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := statusError(c.provider, resp)
		c.logger.Error("API returned error status", zap.Int("status", resp.StatusCode), zap.String("message", apiErr.Message))
		return nil, apiErr
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(c.provider, fmt.Errorf("failed to read response body: %w", err))
	}

	var payload chatResponsePayload
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, decodeError(c.provider, "failed to decode response payload: %v", err)
	}
	if payload.Error != nil {
		return nil, c.bodyError(payload.Error.Code, payload.Error.Message)
	}
	if len(payload.Choices) == 0 {
		return nil, decodeError(c.provider, "response contained no choices")
	}

	choice := payload.Choices[0]
	if choice.FinishReason == "content_filter" && choice.Message.Content == "" {
		return nil, &APIError{Provider: c.provider, Kind: KindBlocked, Message: "response withheld by content filter"}
	}

	out := &Response{Text: choice.Message.Content}
	if payload.Usage != nil {
		out.Usage = Usage{PromptTokens: payload.Usage.PromptTokens, CompletionTokens: payload.Usage.CompletionTokens}
	} else {
		out.Usage = EstimateUsage(req.Tutorial, req.Instruction, out.Text)
	}

	c.logger.Info("LLM generation complete",
		zap.String("model", req.Model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("prompt_tokens", out.Usage.PromptTokens),
		zap.Int("completion_tokens", out.Usage.CompletionTokens),
	)
	return out, nil
}

func (c *ChatClient) buildRequestPayload(req Request) chatRequestPayload {
	return chatRequestPayload{
		Model: req.Model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatPart{
				{Type: "text", Text: combinedPrompt(req)},
				{Type: "image_url", ImageURL: &chatImageURL{URL: "data:" + imageMIME(req) + ";base64," + req.ImageBase64}},
			},
		}},
		MaxTokens: c.maxTokens,
	}
}

// bodyError maps an error object delivered with a 2xx status. A numeric code
// is treated as the HTTP status it stands for.
func (c *ChatClient) bodyError(code any, msg string) *APIError {
	status := 0
	switch v := code.(type) {
	case float64:
		status = int(v)
	case string:
		fmt.Sscanf(strings.TrimSpace(v), "%d", &status)
	}
	if status < 400 {
		if looksLikeInvalidKey(msg) {
			return &APIError{Provider: c.provider, Kind: KindAuth, Message: msg}
		}
		return &APIError{Provider: c.provider, Kind: KindServer, Message: msg}
	}
	e := newStatusError(c.provider, status, msg)
	e.StatusCode = 0
	return e
}
