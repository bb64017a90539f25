package agent

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/xkilldash9x/aiport/internal/config"
	"github.com/xkilldash9x/aiport/internal/llmclient"
)

// Session is what one run of the loop works on.
type Session struct {
	ID          string
	Provider    config.LLMProvider
	Model       string
	Credential  string
	Instruction string
}

// NewSession creates a session with a fresh identifier.
func NewSession(provider config.LLMProvider, model, credential, instruction string) Session {
	return Session{
		ID:          uuid.New().String(),
		Provider:    provider,
		Model:       model,
		Credential:  credential,
		Instruction: instruction,
	}
}

// Validate checks the preconditions of the STARTING state.
func (s Session) Validate() error {
	if _, err := config.ParseProvider(string(s.Provider)); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if strings.TrimSpace(s.Model) == "" {
		return fmt.Errorf("agent: model is required")
	}
	if strings.TrimSpace(s.Instruction) == "" {
		return ErrEmptyInstruction
	}
	if llmclient.RequiresCredential(s.Provider) && strings.TrimSpace(s.Credential) == "" {
		return ErrMissingCredential
	}
	return nil
}
