package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/certen-health/psurgen/pkg/psur/hashkit"
)

// AnthropicAdapter enhances section narratives via the Anthropic
// Messages API. It is one of two Enhancer implementations proving the
// interface is provider-agnostic.
type AnthropicAdapter struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicAdapter builds an adapter bound to the given API key and
// model.
func NewAnthropicAdapter(apiKey string, model anthropic.Model) *AnthropicAdapter {
	return &AnthropicAdapter{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (a *AnthropicAdapter) Enhance(ctx context.Context, req EnhanceRequest) (EnhanceResult, error) {
	start := time.Now()

	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(enhancementPrompt(req))),
		},
	})
	if err != nil {
		return EnhanceResult{}, fmt.Errorf("llm: anthropic enhancement failed for %s: %w", req.SectionID, err)
	}

	latency := time.Since(start).Milliseconds()

	enhanced := ""
	if len(resp.Content) > 0 {
		enhanced = resp.Content[0].Text
	}

	return EnhanceResult{
		Provider:          "anthropic",
		Model:             string(a.model),
		CorrelationID:     req.CorrelationID,
		ProviderRequestID: resp.ID,
		SectionID:         req.SectionID,
		EnhancedNarrative: enhanced,
		InputTokens:       int(resp.Usage.InputTokens),
		OutputTokens:      int(resp.Usage.OutputTokens),
		LatencyMs:         latency,
		TransportProof: TransportProof{
			SDK:                 "anthropic-sdk-go",
			EndpointHost:        "api.anthropic.com",
			HTTPStatus:          200,
			ProviderRequestID:   resp.ID,
			ResponseHeadersHash: hashkit.StringHash(resp.ID + string(resp.StopReason)),
		},
	}, nil
}

func enhancementPrompt(req EnhanceRequest) string {
	return fmt.Sprintf(
		"Improve the clarity and regulatory tone of the following PSUR section narrative without altering its numeric claims:\n\n%s",
		req.Narrative,
	)
}
