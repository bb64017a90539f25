package llmclient

import (
	"context"
	"strings"

	"github.com/xkilldash9x/aiport/internal/config"
)

// Provider sends one screenshot plus instruction to a vision model and
// returns its raw text reply.
type Provider interface {
	Name() config.LLMProvider
	Send(ctx context.Context, req Request) (*Response, error)
}

// Request is the vendor-neutral input of a single inference call.
type Request struct {
	Instruction string
	Tutorial    string
	// ImageBase64 is the standard base64 encoding of the screenshot.
	ImageBase64 string
	ImageMIME   string
	Model       string
	Credential  string
}

// Usage reports token counts for one call. Estimated is set when the vendor
// did not report counts and they were approximated from word counts.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	Estimated        bool
}

// Response is the model's raw text reply and its token usage.
type Response struct {
	Text  string
	Usage Usage
}

// imageTokenAllowance approximates the prompt cost of one screenshot.
const imageTokenAllowance = 500

// EstimateUsage approximates token usage from whitespace-separated word
// counts for vendors that do not report it.
func EstimateUsage(tutorial, instruction, reply string) Usage {
	return Usage{
		PromptTokens:     len(strings.Fields(tutorial)) + len(strings.Fields(instruction)) + imageTokenAllowance,
		CompletionTokens: len(strings.Fields(reply)),
		Estimated:        true,
	}
}

// combinedPrompt is the single text block sent to vendors that take one
// prompt string: the tutorial, a blank line, then the instruction.
func combinedPrompt(req Request) string {
	if req.Tutorial == "" {
		return req.Instruction
	}
	return req.Tutorial + "\n\n" + req.Instruction
}

func imageMIME(req Request) string {
	if req.ImageMIME == "" {
		return "image/png"
	}
	return req.ImageMIME
}
