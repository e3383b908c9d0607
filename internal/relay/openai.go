package relay

import (
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
)

// OpenAIStreamer opens streaming chat completions against the OpenAI API.
type OpenAIStreamer struct {
	client openai.Client
	model  string
}

func NewOpenAIStreamer(apiKey, model string) *OpenAIStreamer {
	return &OpenAIStreamer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (o *OpenAIStreamer) Stream(ctx context.Context, prompt string) (Stream, error) {
	st := o.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	return &chunkStream{st: st}, nil
}

// chunkStream adapts the SDK's chunk stream to content fragments, skipping
// empty deltas so observers only see fragments that carry text.
type chunkStream struct {
	st      *ssestream.Stream[openai.ChatCompletionChunk]
	current string
}

func (c *chunkStream) Next() bool {
	for c.st.Next() {
		chunk := c.st.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			c.current = content
			return true
		}
	}
	return false
}

func (c *chunkStream) Current() string { return c.current }

func (c *chunkStream) Err() error { return c.st.Err() }

func (c *chunkStream) Close() error { return c.st.Close() }
