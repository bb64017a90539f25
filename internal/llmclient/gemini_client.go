// internal/llmclient/gemini_client.go
package llmclient

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/xkilldash9x/aiport/internal/config"
)

// GeminiClient sends screenshots to Google Gemini through the genai SDK.
type GeminiClient struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
	logger     *zap.Logger

	mu      sync.Mutex
	clients map[string]*genai.Client // keyed by credential
}

// NewGeminiClient initializes the client. Credentials are supplied per
// request, so construction never fails.
func NewGeminiClient(cfg config.ProviderConfig, logger *zap.Logger) *GeminiClient {
	return &GeminiClient{
		cfg:        cfg,
		httpClient: newHTTPClient(cfg.Timeout),
		logger:     logger.Named("llm_client.gemini"),
		clients:    make(map[string]*genai.Client),
	}
}

func (c *GeminiClient) Name() config.LLMProvider { return config.ProviderGemini }

func (c *GeminiClient) client(ctx context.Context, key string) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.clients[key]; ok {
		return cl, nil
	}
	cc := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: c.cfg.Endpoint}
	}
	cl, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	c.clients[key] = cl
	return cl, nil
}

// Send issues one generateContent call with the tutorial, the instruction
// and the screenshot as parts of a single user turn.
func (c *GeminiClient) Send(ctx context.Context, req Request) (*Response, error) {
	if req.Credential == "" {
		return nil, &APIError{Provider: config.ProviderGemini, Kind: KindAuth, Message: "API key is required"}
	}
	img, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		return nil, &APIError{Provider: config.ProviderGemini, Kind: KindBadRequest, Message: "screenshot is not valid base64", Err: err}
	}

	cl, err := c.client(ctx, req.Credential)
	if err != nil {
		return nil, &APIError{Provider: config.ProviderGemini, Kind: KindTransport, Message: "failed to create client", Err: err}
	}

	parts := []*genai.Part{}
	if req.Tutorial != "" {
		parts = append(parts, genai.NewPartFromText(req.Tutorial))
	}
	parts = append(parts,
		genai.NewPartFromText(req.Instruction),
		genai.NewPartFromBytes(img, imageMIME(req)),
	)
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	var genCfg *genai.GenerateContentConfig
	if c.cfg.MaxTokens > 0 {
		genCfg = &genai.GenerateContentConfig{MaxOutputTokens: int32(c.cfg.MaxTokens)}
	}

	start := time.Now()
	resp, err := cl.Models.GenerateContent(ctx, req.Model, contents, genCfg)
	if err != nil {
		return nil, c.classify(err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, &APIError{
			Provider: config.ProviderGemini,
			Kind:     KindBlocked,
			Message:  fmt.Sprintf("prompt blocked (Reason: %s)", resp.PromptFeedback.BlockReason),
		}
	}
	if len(resp.Candidates) == 0 {
		return nil, decodeError(config.ProviderGemini, "gemini API returned no candidates")
	}
	switch reason := resp.Candidates[0].FinishReason; reason {
	case genai.FinishReasonSafety, genai.FinishReasonBlocklist, genai.FinishReasonProhibitedContent:
		return nil, &APIError{
			Provider: config.ProviderGemini,
			Kind:     KindBlocked,
			Message:  fmt.Sprintf("gemini API blocked the request (Reason: %s)", reason),
		}
	}

	out := &Response{Text: resp.Text()}
	if md := resp.UsageMetadata; md != nil && (md.PromptTokenCount > 0 || md.CandidatesTokenCount > 0) {
		out.Usage = Usage{PromptTokens: int(md.PromptTokenCount), CompletionTokens: int(md.CandidatesTokenCount)}
	} else {
		out.Usage = EstimateUsage(req.Tutorial, req.Instruction, out.Text)
	}

	c.logger.Info("LLM generation complete (Gemini)",
		zap.String("model", req.Model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("prompt_tokens", out.Usage.PromptTokens),
		zap.Int("completion_tokens", out.Usage.CompletionTokens),
	)
	return out, nil
}

func (c *GeminiClient) classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if apiErr.Status != "" {
			msg = apiErr.Status + ": " + msg
		}
		c.logger.Error("Gemini API returned error status", zap.Int("status", apiErr.Code), zap.String("message", msg))
		return newStatusError(config.ProviderGemini, apiErr.Code, msg)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return newStatusError(config.ProviderGemini, apiErrPtr.Code, apiErrPtr.Message)
	}
	c.logger.Warn("Network error during LLM request", zap.Error(err))
	return transportError(config.ProviderGemini, err)
}
