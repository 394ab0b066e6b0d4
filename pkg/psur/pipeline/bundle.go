package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/certen-health/psurgen/pkg/psur/annex"
	"github.com/certen-health/psurgen/pkg/psur/pctx"
	"github.com/certen-health/psurgen/pkg/psur/section"
	"github.com/certen-health/psurgen/pkg/psur/trace"
)

// buildAuditJSONL renders the chain as one compact-JSON DTR per line, in
// chain order, terminated by a trailing newline.
func buildAuditJSONL(chain []trace.DTR) ([]byte, error) {
	var buf bytes.Buffer
	for _, d := range chain {
		line, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("pipeline: failed to marshal DTR %s: %w", d.TraceID, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// cytoscapeNode and cytoscapeEdge are the minimal Cytoscape.js element
// shapes: {"data": {...}} per element, grouped under "nodes"/"edges".
type cytoscapeNode struct {
	Data map[string]any `json:"data"`
}

type cytoscapeEdge struct {
	Data map[string]any `json:"data"`
}

type cytoscapeGraph struct {
	Elements struct {
		Nodes []cytoscapeNode `json:"nodes"`
		Edges []cytoscapeEdge `json:"edges"`
	} `json:"elements"`
}

// buildContextGraph renders the context graph: one node per DTR
// (dtr_<traceId>) and one per evidence atom (src_<sourceId>) cited by any
// DTR's InputLineage, an "input" edge from each cited evidence atom to
// every DTR that cites it, and a "next" edge from DTR i to DTR i+1.
func buildContextGraph(chain []trace.DTR) ([]byte, error) {
	var g cytoscapeGraph

	sources := make(map[string]bool)
	for i, d := range chain {
		dtrID := "dtr_" + d.TraceID
		g.Elements.Nodes = append(g.Elements.Nodes, cytoscapeNode{Data: map[string]any{
			"id":        dtrID,
			"traceType": string(d.TraceType),
			"position":  d.ChainPosition,
		}})

		for _, src := range d.InputLineage.PrimarySources {
			srcID := "src_" + src.SourceID
			if !sources[srcID] {
				sources[srcID] = true
				g.Elements.Nodes = append(g.Elements.Nodes, cytoscapeNode{Data: map[string]any{
					"id":         srcID,
					"sourceType": src.SourceType,
					"sourceHash": src.SourceHash,
				}})
			}
			g.Elements.Edges = append(g.Elements.Edges, cytoscapeEdge{Data: map[string]any{
				"id":     fmt.Sprintf("input_%s_%s", srcID, dtrID),
				"source": srcID,
				"target": dtrID,
				"label":  "input",
			}})
		}

		if i > 0 {
			prevID := "dtr_" + chain[i-1].TraceID
			g.Elements.Edges = append(g.Elements.Edges, cytoscapeEdge{Data: map[string]any{
				"id":     fmt.Sprintf("next_%s_%s", prevID, dtrID),
				"source": prevID,
				"target": dtrID,
				"label":  "next",
			}})
		}
	}

	return json.MarshalIndent(g, "", "  ")
}

// buildAuditSummary renders the human-readable chain table: position,
// type, duration, first 16 hex characters of the content hash, the
// Merkle root, every distinct regulatory obligation referenced, and an
// LLM usage rollup when the chain carries any LLM_SECTION_ENHANCEMENT
// DTRs.
func buildAuditSummary(chain []trace.DTR) []byte {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, "# Audit Trail Summary")
	fmt.Fprintln(&buf)
	fmt.Fprintln(&buf, "| Position | Type | Duration (ms) | Content Hash (first 16 hex) |")
	fmt.Fprintln(&buf, "|---|---|---|---|")

	obligations := make(map[string]bool)
	var merkleRoot string
	var llmCalls int
	var inputTokens, outputTokens float64

	for _, d := range chain {
		hashPrefix := d.HashChain.ContentHash
		if len(hashPrefix) > 16 {
			hashPrefix = hashPrefix[:16]
		}
		fmt.Fprintf(&buf, "| %d | %s | %d | %s |\n", d.ChainPosition, d.TraceType, d.DurationMs, hashPrefix)

		merkleRoot = d.HashChain.MerkleRoot
		for _, o := range d.RegulatoryContext.Primary {
			obligations[o] = true
		}

		if d.TraceType == trace.TypeLLMSectionEnhancement {
			llmCalls++
			if m, ok := d.OutputContent.(map[string]any); ok {
				if v, ok := m["inputTokens"].(float64); ok {
					inputTokens += v
				}
				if v, ok := m["outputTokens"].(float64); ok {
					outputTokens += v
				}
			}
		}
	}

	fmt.Fprintln(&buf)
	fmt.Fprintf(&buf, "**Merkle root:** `%s`\n\n", merkleRoot)

	fmt.Fprintln(&buf, "## Regulatory obligations referenced")
	fmt.Fprintln(&buf)
	obligationList := make([]string, 0, len(obligations))
	for o := range obligations {
		obligationList = append(obligationList, o)
	}
	sort.Strings(obligationList)
	for _, o := range obligationList {
		fmt.Fprintf(&buf, "- %s\n", o)
	}

	if llmCalls > 0 {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "## LLM usage rollup")
		fmt.Fprintln(&buf)
		fmt.Fprintf(&buf, "- LLM enhancement calls: %d\n", llmCalls)
		fmt.Fprintf(&buf, "- Total input tokens: %.0f\n", inputTokens)
		fmt.Fprintf(&buf, "- Total output tokens: %.0f\n", outputTokens)
	}

	return buf.Bytes()
}

// computationContextSummary is the pruned JSON shape for
// data/computation_context.json: enough to audit the run's analytics,
// section, table, and reconciliation outcomes without re-embedding the
// full section narratives or table rows already covered by psur.docx.
type computationContextSummary struct {
	CaseID      string                 `json:"caseId"`
	CaseStart   string                 `json:"caseStart"`
	CaseEnd     string                 `json:"caseEnd"`
	Device      pctx.DeviceMaster      `json:"device"`
	Analytics   pctx.AnalyticsResults  `json:"analytics"`
	Sections    []sectionSummary       `json:"sections"`
	Tables      []tableSummary         `json:"tables"`
	Reconciliation reconciliationCounts `json:"reconciliation"`
}

type sectionSummary struct {
	SectionID    string `json:"sectionId"`
	Title        string `json:"title"`
	ClaimCount   int    `json:"claimCount"`
	NarrativeLen int    `json:"narrativeLength"`
}

type tableSummary struct {
	TableID  string `json:"tableId"`
	Title    string `json:"title"`
	RowCount int    `json:"rowCount"`
}

type reconciliationCounts struct {
	Passed        bool `json:"passed"`
	FindingCount  int  `json:"findingCount"`
	ErrorCount    int  `json:"errorCount"`
	WarningCount  int  `json:"warningCount"`
	LimitationCount int `json:"limitationCount"`
}

func buildComputationContext(ctx *pctx.Context) ([]byte, error) {
	summary := computationContextSummary{
		CaseID:    ctx.CaseID,
		CaseStart: ctx.CaseStart,
		CaseEnd:   ctx.CaseEnd,
		Device:    ctx.Device,
		Analytics: ctx.Analytics,
		Reconciliation: reconciliationCounts{
			Passed:          ctx.Reconciliation.Passed,
			FindingCount:    len(ctx.Reconciliation.Findings),
			LimitationCount: len(ctx.Reconciliation.Limitations),
		},
	}

	for _, f := range ctx.Reconciliation.Findings {
		switch f.Severity {
		case "error":
			summary.Reconciliation.ErrorCount++
		case "warning":
			summary.Reconciliation.WarningCount++
		}
	}

	sectionIDs := make([]string, 0, len(ctx.Sections))
	for id := range ctx.Sections {
		sectionIDs = append(sectionIDs, id)
	}
	sort.Strings(sectionIDs)
	for _, id := range sectionIDs {
		s, ok := ctx.Sections[id].(section.SectionResult)
		if !ok {
			continue
		}
		summary.Sections = append(summary.Sections, sectionSummary{
			SectionID:    s.SectionID,
			Title:        s.Title,
			ClaimCount:   len(s.Claims),
			NarrativeLen: len(s.Narrative),
		})
	}

	tableIDs := make([]string, 0, len(ctx.AnnexTables))
	for id := range ctx.AnnexTables {
		tableIDs = append(tableIDs, id)
	}
	sort.Strings(tableIDs)
	for _, id := range tableIDs {
		t, ok := ctx.AnnexTables[id].(annex.TableResult)
		if !ok {
			continue
		}
		summary.Tables = append(summary.Tables, tableSummary{
			TableID:  t.TableID,
			Title:    t.Title,
			RowCount: len(t.Rows),
		})
	}

	return json.MarshalIndent(summary, "", "  ")
}
