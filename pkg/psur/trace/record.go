// Package trace implements the Decision Trace Recorder (C3): an
// append-only, hash-chained ledger of Decision Trace Records (DTRs). It
// is the integrity substrate the rest of the pipeline is audited against.
package trace

import "time"

// Type is one of the eleven declared DTR trace types. Four are reserved
// and never emitted by this implementation (see SPEC_FULL.md's Open
// Questions resolution): UCL_CALCULATION, WESTERN_ELECTRIC_EVALUATION,
// TREND_DETERMINATION, CLAIM_EXTRACTION.
type Type string

const (
	TypeDataQualification          Type = "DATA_QUALIFICATION"
	TypeDerivedSeriesGeneration    Type = "DERIVED_SERIES_GENERATION"
	TypeRateCalculation            Type = "RATE_CALCULATION"
	TypeUCLCalculation             Type = "UCL_CALCULATION"
	TypeWesternElectricEvaluation  Type = "WESTERN_ELECTRIC_EVALUATION"
	TypeTrendDetermination         Type = "TREND_DETERMINATION"
	TypeBenefitRiskNarrative       Type = "BENEFIT_RISK_NARRATIVE_GENERATION"
	TypeClaimExtraction            Type = "CLAIM_EXTRACTION"
	TypeValidationDecision         Type = "VALIDATION_DECISION"
	TypeExportGeneration           Type = "EXPORT_GENERATION"
	TypeLLMSectionEnhancement      Type = "LLM_SECTION_ENHANCEMENT"
)

// SourceCitation cites one primary source consumed by a DTR, repeating
// the source's hash so lineage is self-verifying without back-references.
type SourceCitation struct {
	SourceID   string `json:"sourceId"`
	SourceHash string `json:"sourceHash"`
	SourceType string `json:"sourceType"`
}

// InputLineage carries the primary sources a DTR's computation consumed.
type InputLineage struct {
	PrimarySources []SourceCitation `json:"primarySources"`
}

// DerivedInputCitation cites one analytics-kernel invocation that fed a DTR.
type DerivedInputCitation struct {
	Formula    string         `json:"formula"`
	Parameters map[string]any `json:"parameters"`
	CodeHash   string         `json:"codeHash"`
}

// RegulatoryObligations names the regulatory obligations a DTR discharges.
type RegulatoryObligations struct {
	Primary []string `json:"primary"`
}

// ReasoningStep is one numbered step of a DTR's reasoning chain.
type ReasoningStep struct {
	StepNumber int    `json:"stepNumber"`
	Action     string `json:"action"`
	Detail     string `json:"detail"`
}

// ReasoningChain is the ordered list of reasoning steps behind a decision.
type ReasoningChain struct {
	Steps []ReasoningStep `json:"steps"`
}

// ValidationOutcome is the pass/fail verdict a DTR records about its own output.
type ValidationOutcome struct {
	Pass     bool     `json:"pass"`
	Messages []string `json:"messages"`
}

// HashChain is the tamper-evidence triple attached to a completed record.
// It is excluded from the record's own content-hash computation.
type HashChain struct {
	ContentHash   string  `json:"contentHash"`
	PreviousHash  *string `json:"previousHash"`
	MerkleRoot    string  `json:"merkleRoot"`
}

// Fields are the inputs a caller supplies to Record; everything except
// ChainPosition/CompletedAt-derived fields and HashChain, which the
// recorder computes itself.
type Fields struct {
	TraceID      string
	CaseID       string
	TraceType    Type
	InitiatedAt  time.Time
	CompletedAt  time.Time

	InputLineage    InputLineage
	DerivedInputs   []DerivedInputCitation
	Regulatory      RegulatoryObligations
	Reasoning       ReasoningChain
	OutputContent   any
	ValidationResults ValidationOutcome
}

// DTR is one completed, hash-chained Decision Trace Record.
type DTR struct {
	TraceID       string                `json:"traceId"`
	CaseID        string                `json:"caseId"`
	TraceType     Type                  `json:"traceType"`
	ChainPosition int                   `json:"chainPosition"`
	InitiatedAt   time.Time             `json:"initiatedAt"`
	CompletedAt   time.Time             `json:"completedAt"`
	DurationMs    int64                 `json:"durationMs"`

	InputLineage      InputLineage           `json:"inputLineage"`
	DerivedInputs     []DerivedInputCitation `json:"derivedInputs"`
	RegulatoryContext RegulatoryObligations  `json:"regulatoryContext"`
	ReasoningChain    ReasoningChain         `json:"reasoningChain"`
	OutputContent     any                    `json:"outputContent"`
	ValidationResults ValidationOutcome      `json:"validationResults"`

	HashChain HashChain `json:"hashChain"`
}

// contentPayload is the JSON shape hashed for DTR.ContentHash: every DTR
// field except HashChain itself.
type contentPayload struct {
	TraceID           string                 `json:"traceId"`
	CaseID            string                 `json:"caseId"`
	TraceType         Type                   `json:"traceType"`
	ChainPosition     int                    `json:"chainPosition"`
	InitiatedAt       time.Time              `json:"initiatedAt"`
	CompletedAt       time.Time              `json:"completedAt"`
	DurationMs        int64                  `json:"durationMs"`
	InputLineage      InputLineage           `json:"inputLineage"`
	DerivedInputs     []DerivedInputCitation `json:"derivedInputs"`
	RegulatoryContext RegulatoryObligations  `json:"regulatoryContext"`
	ReasoningChain    ReasoningChain         `json:"reasoningChain"`
	OutputContent     any                    `json:"outputContent"`
	ValidationResults ValidationOutcome      `json:"validationResults"`
}

func (d DTR) payload() contentPayload {
	return contentPayload{
		TraceID:           d.TraceID,
		CaseID:            d.CaseID,
		TraceType:         d.TraceType,
		ChainPosition:     d.ChainPosition,
		InitiatedAt:       d.InitiatedAt,
		CompletedAt:       d.CompletedAt,
		DurationMs:        d.DurationMs,
		InputLineage:      d.InputLineage,
		DerivedInputs:     d.DerivedInputs,
		RegulatoryContext: d.RegulatoryContext,
		ReasoningChain:    d.ReasoningChain,
		OutputContent:     d.OutputContent,
		ValidationResults: d.ValidationResults,
	}
}
