// Package llm defines the Enhancer collaborator interface used by
// LLM_ENHANCE_SECTIONS and its two provider adapters. Every adapter
// returns a result carrying transportProof: independently-verifiable
// evidence of a real provider round trip, which the validator's
// LLM-proof rule family checks for and the anti-mock rules reject
// forgeries of.
package llm

import "context"

// EnhanceRequest is one section's narrative submitted for enhancement.
type EnhanceRequest struct {
	SectionID     string
	Narrative     string
	CorrelationID string
}

// TransportProof is independently-verifiable evidence that a request
// actually reached a real provider endpoint.
type TransportProof struct {
	SDK                 string
	EndpointHost        string
	HTTPStatus          int
	ProviderRequestID   string
	ResponseHeadersHash string
}

// EnhanceResult is the opaque, content-hashed outputContent of one
// LLM_SECTION_ENHANCEMENT DTR.
type EnhanceResult struct {
	Provider          string
	Model             string
	CorrelationID     string
	ProviderRequestID string
	SectionID         string
	EnhancedNarrative string
	InputTokens       int
	OutputTokens      int
	LatencyMs         int64
	TransportProof    TransportProof
}

// Enhancer is the provider-agnostic interface LLM_ENHANCE_SECTIONS calls
// through. Adapters wrap a real provider SDK; the circuit breaker around
// this call is the runtime's concern, not the adapter's.
type Enhancer interface {
	Enhance(ctx context.Context, req EnhanceRequest) (EnhanceResult, error)
}

// AsOutputContent converts an EnhanceResult to the map shape the
// validator's gojq/Rego LLM-proof rules query against.
func (r EnhanceResult) AsOutputContent() map[string]any {
	return map[string]any{
		"provider":          r.Provider,
		"model":             r.Model,
		"correlationId":     r.CorrelationID,
		"providerRequestId": r.ProviderRequestID,
		"sectionId":         r.SectionID,
		"inputTokens":       float64(r.InputTokens),
		"outputTokens":      float64(r.OutputTokens),
		"latencyMs":         float64(r.LatencyMs),
		"transportProof": map[string]any{
			"sdk":                 r.TransportProof.SDK,
			"endpointHost":        r.TransportProof.EndpointHost,
			"httpStatus":          float64(r.TransportProof.HTTPStatus),
			"providerRequestId":   r.TransportProof.ProviderRequestID,
			"responseHeadersHash": r.TransportProof.ResponseHeadersHash,
		},
	}
}
