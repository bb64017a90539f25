package llmclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiport/internal/config"
)

const defaultOllamaContextWindow = 4096

// OllamaClient calls a local Ollama runtime's generate endpoint. It needs no
// credential and reports no token counts, so usage is always estimated.
type OllamaClient struct {
	endpoint      string
	contextWindow int
	httpClient    *http.Client
	logger        *zap.Logger
}

type ollamaOptions struct {
	NumCtx int `json:"num_ctx"`
}

type ollamaRequestPayload struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Images  []string      `json:"images"`
	Options ollamaOptions `json:"options"`
}

type ollamaResponsePayload struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func NewOllamaClient(cfg config.ProviderConfig, logger *zap.Logger) *OllamaClient {
	ctxWindow := cfg.ContextWindow
	if ctxWindow <= 0 {
		ctxWindow = defaultOllamaContextWindow
	}
	return &OllamaClient{
		endpoint:      cfg.Endpoint,
		contextWindow: ctxWindow,
		httpClient:    newHTTPClient(cfg.Timeout),
		logger:        logger.Named("llm_client.ollama"),
	}
}

func (c *OllamaClient) Name() config.LLMProvider { return config.ProviderOllama }

func (c *OllamaClient) Send(ctx context.Context, req Request) (*Response, error) {
	payload := ollamaRequestPayload{
		Model:   req.Model,
		Prompt:  combinedPrompt(req),
		Stream:  false,
		Images:  []string{req.ImageBase64},
		Options: ollamaOptions{NumCtx: c.contextWindow},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &APIError{Provider: config.ProviderOllama, Kind: KindBadRequest, Message: "failed to marshal request payload", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &APIError{Provider: config.ProviderOllama, Kind: KindBadRequest, Message: "failed to create HTTP request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("Ollama runtime unreachable", zap.String("endpoint", c.endpoint), zap.Error(err))
		return nil, transportError(config.ProviderOllama, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := statusError(config.ProviderOllama, resp)
		c.logger.Error("Ollama returned error status", zap.Int("status", resp.StatusCode), zap.String("message", apiErr.Message))
		return nil, apiErr
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(config.ProviderOllama, fmt.Errorf("failed to read response body: %w", err))
	}
	var out ollamaResponsePayload
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, decodeError(config.ProviderOllama, "failed to decode response payload: %v", err)
	}
	if out.Error != "" {
		return nil, &APIError{Provider: config.ProviderOllama, Kind: KindServer, Message: out.Error}
	}

	usage := EstimateUsage(req.Tutorial, req.Instruction, out.Response)
	c.logger.Info("LLM generation complete (Ollama)",
		zap.String("model", req.Model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("estimated_prompt_tokens", usage.PromptTokens),
	)
	return &Response{Text: out.Response, Usage: usage}, nil
}
