// Package ollama adapts a local Ollama server, through langchaingo, to the
// prompt-in, text-out shape the classification oracle consumes.
package ollama

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tmc/langchaingo/llms"
	lcollama "github.com/tmc/langchaingo/llms/ollama"
)

// Client sends JSON-mode prompts to an Ollama model.
type Client struct {
	model       llms.Model
	temperature float64
}

// New connects to the Ollama server at serverURL using the named model with
// JSON output forced.
func New(serverURL, model string) (*Client, error) {
	llm, err := lcollama.New(
		lcollama.WithServerURL(serverURL),
		lcollama.WithModel(model),
		lcollama.WithFormat("json"),
	)
	if err != nil {
		return nil, eris.Wrap(err, "ollama: create client")
	}
	return NewWithModel(llm), nil
}

// NewWithModel wraps an existing langchaingo model.
func NewWithModel(model llms.Model) *Client {
	return &Client{model: model, temperature: 0.3}
}

// Complete sends system and prompt as a two-message exchange and returns the
// concatenated text of all choices.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	var msgs []llms.MessageContent
	if system != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	resp, err := c.model.GenerateContent(ctx, msgs, llms.WithTemperature(c.temperature))
	if err != nil {
		return "", eris.Wrap(err, "ollama: generate")
	}

	var b strings.Builder
	for _, choice := range resp.Choices {
		b.WriteString(choice.Content)
	}
	if b.Len() == 0 {
		return "", eris.New("ollama: empty response")
	}
	return b.String(), nil
}
