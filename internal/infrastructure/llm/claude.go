package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"github.com/modelseed/kbutil/internal/config"
	"github.com/modelseed/kbutil/internal/infrastructure/logging"
	"github.com/modelseed/kbutil/pkg/errors"
)

// ClaudeChatter shells out to a local CLI that prints a JSON envelope with a
// "result" field. Useful where no HTTP gateway is reachable.
type ClaudeChatter struct {
	binary  string
	model   string
	timeout time.Duration
	log     logging.Logger
}

// NewClaudeChatter builds the subprocess backend.
func NewClaudeChatter(cfg config.LLMConfig, log logging.Logger) *ClaudeChatter {
	binary := cfg.ClaudeBinary
	if binary == "" {
		binary = "claude"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	return &ClaudeChatter{binary: binary, model: cfg.Model, timeout: timeout, log: log}
}

// Name identifies the backend.
func (c *ClaudeChatter) Name() string { return "claude-cli" }

type claudeEnvelope struct {
	Result  string `json:"result"`
	IsError bool   `json:"is_error"`
	Model   string `json:"model"`
}

// Chat runs the CLI once, feeding the prompt on stdin.
func (c *ClaudeChatter) Chat(ctx context.Context, req Request) (*Response, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{"-p", "--output-format", "json"}
	if c.model != "" {
		args = append(args, "--model", c.model)
	}
	if req.System != "" {
		args = append(args, "--append-system-prompt", req.System)
	}

	cmd := exec.CommandContext(runCtx, c.binary, args...)
	cmd.Stdin = strings.NewReader(req.Prompt)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if runCtx.Err() != nil {
			return nil, errors.Wrap(runCtx.Err(), errors.ErrCodeLLMUnavailable, "cli timed out")
		}
		return nil, errors.Wrapf(err, errors.ErrCodeLLMUnavailable,
			"cli failed: %s", strings.TrimSpace(stderr.String()))
	}
	c.log.Debug("cli completed",
		logging.String("binary", c.binary),
		logging.Duration("took", time.Since(start)))

	var envelope claudeEnvelope
	if err := json.Unmarshal(stdout.Bytes(), &envelope); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLLMBadResponse, "decoding cli output")
	}
	if envelope.IsError {
		return nil, errors.Newf(errors.ErrCodeLLMBadResponse, "cli reported error: %s", envelope.Result)
	}
	model := envelope.Model
	if model == "" {
		model = c.model
	}
	return &Response{Text: envelope.Result, Model: model}, nil
}
