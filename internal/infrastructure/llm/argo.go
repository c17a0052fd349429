package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/modelseed/kbutil/internal/config"
	"github.com/modelseed/kbutil/internal/infrastructure/logging"
	"github.com/modelseed/kbutil/pkg/errors"
)

const argoRetryMax = 2

// ArgoChatter talks to an Argo gateway over HTTP.
type ArgoChatter struct {
	url        string
	key        string
	model      string
	httpClient *http.Client
	log        logging.Logger
}

// NewArgoChatter builds the HTTP backend.
func NewArgoChatter(cfg config.LLMConfig, log logging.Logger) *ArgoChatter {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &ArgoChatter{
		url:        cfg.ArgoURL,
		key:        cfg.ArgoKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Name identifies the backend.
func (a *ArgoChatter) Name() string { return "argo" }

type argoRequest struct {
	Model     string `json:"model"`
	System    string `json:"system,omitempty"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

type argoResponse struct {
	Response string `json:"response"`
	Model    string `json:"model"`
	Error    string `json:"error"`
}

// Chat sends one prompt, retrying transient gateway failures.
func (a *ArgoChatter) Chat(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(argoRequest{
		Model:     a.model,
		System:    req.System,
		Prompt:    req.Prompt,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "encoding llm request")
	}

	var lastErr error
	for attempt := 0; attempt <= argoRetryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeLLMUnavailable, "building llm request")
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if a.key != "" {
			httpReq.Header.Set("Authorization", "Bearer "+a.key)
		}

		resp, err := a.httpClient.Do(httpReq)
		if err != nil {
			lastErr = errors.Wrap(err, errors.ErrCodeLLMUnavailable, "calling llm gateway")
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = errors.Wrap(err, errors.ErrCodeLLMUnavailable, "reading llm response")
			continue
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = errors.Newf(errors.ErrCodeLLMUnavailable, "llm gateway returned %d", resp.StatusCode)
			a.log.Warn("llm gateway error, retrying",
				logging.Int("status", resp.StatusCode),
				logging.Int("attempt", attempt))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, errors.Newf(errors.ErrCodeLLMBadResponse,
				"llm gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		var decoded argoResponse
		if err := json.Unmarshal(body, &decoded); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeLLMBadResponse, "decoding llm response")
		}
		if decoded.Error != "" {
			return nil, errors.Newf(errors.ErrCodeLLMBadResponse, "llm error: %s", decoded.Error)
		}
		model := decoded.Model
		if model == "" {
			model = a.model
		}
		return &Response{Text: decoded.Response, Model: model}, nil
	}
	return nil, lastErr
}
