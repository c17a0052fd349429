// Package llm hosts the language-model advisors used to propose identifier
// translations for entities the matcher could not settle. Backends are
// interchangeable behind the Chatter interface.
package llm

import (
	"context"

	"github.com/modelseed/kbutil/internal/config"
	"github.com/modelseed/kbutil/internal/infrastructure/logging"
	"github.com/modelseed/kbutil/pkg/errors"
)

// Request is one advisory prompt.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Response is the advisor's reply.
type Response struct {
	Text  string
	Model string
}

// Chatter is a language-model backend.
type Chatter interface {
	// Chat sends one prompt and returns the completion.
	Chat(ctx context.Context, req Request) (*Response, error)
	// Name identifies the backend for logging and metrics.
	Name() string
}

// New builds the backend named by the configuration.
func New(cfg config.LLMConfig, log logging.Logger) (Chatter, error) {
	switch cfg.Backend {
	case "argo":
		return NewArgoChatter(cfg, log), nil
	case "claude-cli":
		return NewClaudeChatter(cfg, log), nil
	default:
		return nil, errors.Newf(errors.ErrCodeLLMUnavailable, "unknown llm backend %q", cfg.Backend)
	}
}
