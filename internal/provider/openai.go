package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/leadlab/enrich-cli/internal/model"
	"github.com/leadlab/enrich-cli/internal/ratelimit"
	"github.com/leadlab/enrich-cli/pkg/openai"
)

const openaiName = "openai"

// OpenAI implements SynthesisProvider on the chat completions API with
// JSON-mode output.
type OpenAI struct {
	client openai.Client
	guard  *Guard
	model  string
}

// NewOpenAI wires an OpenAI synthesis provider through the shared guard. An
// empty model defers to the client default.
func NewOpenAI(client openai.Client, guard *Guard, synthModel string) *OpenAI {
	return &OpenAI{client: client, guard: guard, model: synthModel}
}

func (o *OpenAI) Synthesize(ctx context.Context, in model.CompanyInput, fields model.ExtractedFields) (*Draft, error) {
	temp := 0.2
	maxTokens := 2048
	resp, err := call(ctx, o.guard, openaiName, "synthesize", ratelimit.ApexDomain(in.Website),
		func(ctx context.Context) (*openai.ChatCompletionResponse, error) {
			return o.client.ChatCompletion(ctx, openai.ChatCompletionRequest{
				Model: o.model,
				Messages: []openai.Message{
					{Role: "system", Content: synthesisSystemPrompt},
					{Role: "user", Content: synthesisPrompt(in, fields)},
				},
				Temperature:    &temp,
				MaxTokens:      &maxTokens,
				ResponseFormat: &openai.ResponseFormat{Type: "json_object"},
			})
		})
	if err != nil {
		return nil, eris.Wrap(err, "provider: openai synthesize")
	}
	if len(resp.Choices) == 0 {
		return nil, &SchemaError{Provider: openaiName, Err: eris.New("empty choices")}
	}

	raw := resp.Choices[0].Message.Content
	var draft Draft
	if err := decodeJSONBlock(raw, &draft); err != nil {
		return nil, &SchemaError{Provider: openaiName, Raw: raw, Err: err}
	}
	return &draft, nil
}
