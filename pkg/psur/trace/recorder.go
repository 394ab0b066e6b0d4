package trace

import (
	"fmt"
	"sync"

	"github.com/certen-health/psurgen/pkg/psur/hashkit"
)

// ValidationReport is the result of validateChain(): every invariant
// violation found, never short-circuited on the first error.
type ValidationReport struct {
	Valid  bool
	Errors []string
}

// Recorder is the append-only DTR ledger. One instance lives per run.
type Recorder struct {
	mu    sync.Mutex
	chain []DTR
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{chain: make([]DTR, 0)}
}

// Record computes durationMs, chainPosition, previousHash, contentHash
// and a from-scratch Merkle root over every content hash including the
// new record, appends the completed DTR and returns it. Emission never
// fails.
func (r *Recorder) Record(f Fields) DTR {
	r.mu.Lock()
	defer r.mu.Unlock()

	position := len(r.chain)

	var previousHash *string
	if position > 0 {
		ph := r.chain[position-1].HashChain.ContentHash
		previousHash = &ph
	}

	dtr := DTR{
		TraceID:           f.TraceID,
		CaseID:            f.CaseID,
		TraceType:         f.TraceType,
		ChainPosition:      position,
		InitiatedAt:       f.InitiatedAt,
		CompletedAt:       f.CompletedAt,
		DurationMs:        f.CompletedAt.Sub(f.InitiatedAt).Milliseconds(),
		InputLineage:      f.InputLineage,
		DerivedInputs:     f.DerivedInputs,
		RegulatoryContext: f.Regulatory,
		ReasoningChain:    f.Reasoning,
		OutputContent:     f.OutputContent,
		ValidationResults: f.ValidationResults,
	}

	contentHash, err := hashkit.ContentHash(dtr.payload())
	if err != nil {
		// contentPayload is always JSON-marshalable; a failure here would
		// indicate a caller stored a non-serializable OutputContent, which
		// is a programming error, not a runtime condition to recover from.
		panic(fmt.Sprintf("trace: failed to hash DTR content: %v", err))
	}

	dtr.HashChain = HashChain{
		ContentHash:  contentHash,
		PreviousHash: previousHash,
	}

	r.chain = append(r.chain, dtr)
	r.chain[position].HashChain.MerkleRoot = r.merkleRootLocked()

	return r.chain[position]
}

func (r *Recorder) merkleRootLocked() string {
	hashes := make([]string, len(r.chain))
	for i, d := range r.chain {
		hashes[i] = d.HashChain.ContentHash
	}
	return hashkit.MerkleRoot(hashes)
}

// GetChain returns a defensive copy of the chain; callers cannot mutate
// the authoritative ledger through the returned slice.
func (r *Recorder) GetChain() []DTR {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]DTR, len(r.chain))
	copy(out, r.chain)
	return out
}

// ImportForValidation appends a DTR produced elsewhere (e.g. reloaded
// from a persisted audit export) onto the chain as-is, without
// recomputing its hash chain. It exists so ValidateChain can run over a
// chain reconstructed from storage, including a deliberately corrupted
// one, rather than only a chain this recorder itself produced.
func (r *Recorder) ImportForValidation(dtr DTR) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chain = append(r.chain, dtr)
}

// Len returns the number of records currently in the chain.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.chain)
}

// ValidateChain recomputes every invariant from §3 over the current
// chain and reports every violation found, without short-circuiting.
func (r *Recorder) ValidateChain() ValidationReport {
	chain := r.GetChain()

	report := ValidationReport{Valid: true, Errors: []string{}}
	hashes := make([]string, 0, len(chain))

	for i, dtr := range chain {
		if dtr.ChainPosition != i {
			report.Valid = false
			report.Errors = append(report.Errors, fmt.Sprintf("DTR %d: chainPosition %d does not match index", i, dtr.ChainPosition))
		}

		if i == 0 {
			if dtr.HashChain.PreviousHash != nil {
				report.Valid = false
				report.Errors = append(report.Errors, fmt.Sprintf("DTR %d: previousHash should be null at position 0", i))
			}
		} else {
			prevContentHash := chain[i-1].HashChain.ContentHash
			if dtr.HashChain.PreviousHash == nil || *dtr.HashChain.PreviousHash != prevContentHash {
				report.Valid = false
				report.Errors = append(report.Errors, fmt.Sprintf("DTR %d: previous hash does not match prior DTR content hash", i))
			}
		}

		recomputed, err := hashkit.ContentHash(dtr.payload())
		if err != nil || recomputed != dtr.HashChain.ContentHash {
			report.Valid = false
			report.Errors = append(report.Errors, fmt.Sprintf("DTR %d: content hash mismatch", i))
		}

		hashes = append(hashes, dtr.HashChain.ContentHash)
		if hashkit.MerkleRoot(hashes) != dtr.HashChain.MerkleRoot {
			report.Valid = false
			report.Errors = append(report.Errors, fmt.Sprintf("DTR %d: merkle root mismatch", i))
		}
	}

	return report
}
