package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/leadlab/enrich-cli/internal/model"
	"github.com/leadlab/enrich-cli/internal/ratelimit"
	"github.com/leadlab/enrich-cli/pkg/anthropic"
)

const anthropicName = "anthropic"

// Anthropic implements SynthesisProvider on the Claude messages API.
type Anthropic struct {
	client anthropic.Client
	guard  *Guard
	model  string
}

// NewAnthropic wires an Anthropic synthesis provider through the shared guard.
func NewAnthropic(client anthropic.Client, guard *Guard, synthModel string) *Anthropic {
	if synthModel == "" {
		synthModel = "claude-haiku-4-5-20251001"
	}
	return &Anthropic{client: client, guard: guard, model: synthModel}
}

func (a *Anthropic) Synthesize(ctx context.Context, in model.CompanyInput, fields model.ExtractedFields) (*Draft, error) {
	temp := 0.2
	resp, err := call(ctx, a.guard, anthropicName, "synthesize", ratelimit.ApexDomain(in.Website),
		func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return a.client.CreateMessage(ctx, anthropic.MessageRequest{
				Model:       a.model,
				MaxTokens:   2048,
				System:      []anthropic.SystemBlock{{Text: synthesisSystemPrompt}},
				Messages:    []anthropic.Message{{Role: "user", Content: synthesisPrompt(in, fields)}},
				Temperature: &temp,
			})
		})
	if err != nil {
		return nil, eris.Wrap(err, "provider: anthropic synthesize")
	}
	resp.Usage.LogCost(a.model, "synthesis")

	raw := resp.Text()
	var draft Draft
	if err := decodeJSONBlock(raw, &draft); err != nil {
		return nil, &SchemaError{Provider: anthropicName, Raw: raw, Err: err}
	}
	return &draft, nil
}
