package oracle

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscout/internal/resilience"
	"github.com/sells-group/leadscout/pkg/anthropic"
)

// AnthropicCompleter adapts an anthropic.Client to Completer.
type AnthropicCompleter struct {
	Client    anthropic.Client
	Model     string
	MaxTokens int64
}

// Complete implements Completer. Rate limits and server errors come back as
// resilience.TransientError so the guard retries them.
func (a *AnthropicCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	maxTokens := a.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	resp, err := a.Client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.Model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		if code := anthropic.StatusCode(err); resilience.IsTransientHTTPStatus(code) {
			return "", resilience.NewTransientError(err, code)
		}
		return "", err
	}
	resp.Usage.Log(resp.Model, "complete")

	text := resp.Text()
	if text == "" {
		return "", eris.New("oracle: empty anthropic response")
	}
	return text, nil
}
