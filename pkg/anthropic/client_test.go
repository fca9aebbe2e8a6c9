package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageResponse_Text(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: "{\"overview\":"},
			{Type: "tool_use", Text: "ignored"},
			{Type: "text", Text: "\"株式会社サンプル\"}"},
		},
	}
	assert.Equal(t, `{"overview":"株式会社サンプル"}`, resp.Text())

	empty := &MessageResponse{}
	assert.Equal(t, "", empty.Text())
}

func TestTokenUsage_EstimateCost(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 500_000}

	cost := u.EstimateCost("claude-sonnet-4-5-20250929")
	assert.InDelta(t, 3.00+7.50, cost, 0.001)

	assert.Zero(t, u.EstimateCost("unknown-model"))
}

func TestNewClientReturnsClient(t *testing.T) {
	t.Parallel()
	c := NewClient("test-key")
	assert.NotNil(t, c)
}
