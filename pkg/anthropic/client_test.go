package anthropic

import (
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateCost(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 500_000}

	// haiku: 1M in @ $0.80 + 0.5M out @ $4.00
	assert.InDelta(t, 0.80+2.00, usage.EstimateCost("claude-haiku-4-5-20251001"), 1e-9)

	// Unknown models cost nothing rather than guessing.
	assert.Zero(t, usage.EstimateCost("some-future-model"))
}

func TestEstimateCost_CacheTokens(t *testing.T) {
	usage := TokenUsage{
		CacheCreationInputTokens: 1_000_000,
		CacheReadInputTokens:     1_000_000,
	}
	// haiku: write @ 1.25x input, read @ 0.1x input.
	assert.InDelta(t, 0.80*1.25+0.80*0.1, usage.EstimateCost("claude-haiku-4-5-20251001"), 1e-9)
}

func TestBuildCachedSystemBlocks(t *testing.T) {
	blocks := BuildCachedSystemBlocks("You are a lead qualification analyst.")
	require.Len(t, blocks, 1)
	assert.Equal(t, "You are a lead qualification analyst.", blocks[0].Text)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, "1h", blocks[0].CacheControl.TTL)
}

func TestToSDKMessages(t *testing.T) {
	out := toSDKMessages([]Message{
		{Role: "user", Content: "score this lead"},
		{Role: "assistant", Content: "{}"},
	})
	require.Len(t, out, 2)

	assert.Empty(t, toSDKMessages(nil))
}

func TestToSDKSystemBlocks(t *testing.T) {
	out := toSDKSystemBlocks(BuildCachedSystemBlocks("prompt"))
	require.Len(t, out, 1)
	assert.Equal(t, "prompt", out[0].Text)
	assert.NotNil(t, out[0].CacheControl)
}

func TestToSDKSystemBlocks_NoCacheControl(t *testing.T) {
	out := toSDKSystemBlocks([]SystemBlock{{Text: "plain"}})
	require.Len(t, out, 1)
	assert.Equal(t, "plain", out[0].Text)
}

func TestFromSDKMessage(t *testing.T) {
	sdkMsg := &sdk.Message{
		ID:         "msg_1",
		Model:      "claude-haiku-4-5-20251001",
		StopReason: "end_turn",
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: `{"score_adjustment": 5}`},
		},
		Usage: sdk.Usage{
			InputTokens:  120,
			OutputTokens: 30,
		},
	}

	resp := fromSDKMessage(sdkMsg)
	require.NotNil(t, resp)
	assert.Equal(t, "msg_1", resp.ID)
	assert.Equal(t, "end_turn", resp.StopReason)
	require.Len(t, resp.Content, 1)
	assert.Equal(t, `{"score_adjustment": 5}`, resp.Content[0].Text)
	assert.Equal(t, int64(120), resp.Usage.InputTokens)
	assert.Equal(t, int64(30), resp.Usage.OutputTokens)
}

func TestNewClient_ReturnsNonNil(t *testing.T) {
	client := NewClient("test-api-key")
	require.NotNil(t, client)
}
