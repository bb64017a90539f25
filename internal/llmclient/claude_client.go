package llmclient

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiport/internal/config"
)

const defaultClaudeMaxTokens = 4096

// ClaudeClient sends screenshots to the Anthropic Messages API.
type ClaudeClient struct {
	cfg    config.ProviderConfig
	opts   []option.RequestOption
	logger *zap.Logger
}

func NewClaudeClient(cfg config.ProviderConfig, logger *zap.Logger) *ClaudeClient {
	opts := []option.RequestOption{
		option.WithHTTPClient(newHTTPClient(cfg.Timeout)),
		// The agent loop owns retry decisions.
		option.WithMaxRetries(0),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	if cfg.APIVersion != "" {
		opts = append(opts, option.WithHeader("anthropic-version", cfg.APIVersion))
	}
	return &ClaudeClient{cfg: cfg, opts: opts, logger: logger.Named("llm_client.claude")}
}

func (c *ClaudeClient) Name() config.LLMProvider { return config.ProviderClaude }

// Send passes the tutorial as the system prompt and the screenshot with the
// instruction as one user message.
func (c *ClaudeClient) Send(ctx context.Context, req Request) (*Response, error) {
	if req.Credential == "" {
		return nil, &APIError{Provider: config.ProviderClaude, Kind: KindAuth, Message: "API key is required"}
	}
	client := anthropic.NewClient(append(c.opts, option.WithAPIKey(req.Credential))...)

	maxTokens := int64(c.cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(imageMIME(req), req.ImageBase64),
				anthropic.NewTextBlock(req.Instruction),
			),
		},
	}
	if req.Tutorial != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Tutorial}}
	}

	start := time.Now()
	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			c.logger.Error("Claude API returned error status", zap.Int("status", apiErr.StatusCode))
			return nil, newStatusError(config.ProviderClaude, apiErr.StatusCode, claudeErrorMessage(apiErr))
		}
		c.logger.Warn("Network error during LLM request", zap.Error(err))
		return nil, transportError(config.ProviderClaude, err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if msg.StopReason == "refusal" && text.Len() == 0 {
		return nil, &APIError{Provider: config.ProviderClaude, Kind: KindBlocked, Message: "model refused the request"}
	}

	out := &Response{Text: text.String()}
	if msg.Usage.InputTokens > 0 || msg.Usage.OutputTokens > 0 {
		out.Usage = Usage{PromptTokens: int(msg.Usage.InputTokens), CompletionTokens: int(msg.Usage.OutputTokens)}
	} else {
		out.Usage = EstimateUsage(req.Tutorial, req.Instruction, out.Text)
	}

	c.logger.Info("LLM generation complete (Claude)",
		zap.String("model", req.Model),
		zap.Duration("duration", time.Since(start)),
		zap.String("stop_reason", string(msg.StopReason)),
		zap.Int("prompt_tokens", out.Usage.PromptTokens),
		zap.Int("completion_tokens", out.Usage.CompletionTokens),
	)
	return out, nil
}

// claudeErrorMessage keeps the SDK's rendering, which carries the request
// line and the response body.
func claudeErrorMessage(err *anthropic.Error) string {
	return strings.TrimSpace(err.Error())
}
