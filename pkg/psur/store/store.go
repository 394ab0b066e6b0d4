// Package store implements the content-addressed run store (C2): a
// single-threaded, typed kind/id -> value map that emits a content-hashed
// reference on every write. One Store instance lives for exactly one run.
package store

import (
	"fmt"
	"sync"

	apperrors "github.com/certen-health/psurgen/internal/errors"
	"github.com/certen-health/psurgen/pkg/psur/hashkit"
)

// Kind is the fixed enumeration of store slot categories.
type Kind string

const (
	KindManifest           Kind = "manifest"
	KindFileHashes         Kind = "file_hashes"
	KindEvidenceAtoms      Kind = "evidence_atoms"
	KindNormalizedData     Kind = "normalized_data"
	KindQualifiedData      Kind = "qualified_data"
	KindReconciliation     Kind = "reconciliation"
	KindDerivedInputs      Kind = "derived_inputs"
	KindAnalytics          Kind = "analytics"
	KindContext            Kind = "context"
	KindAnnexTables        Kind = "annex_tables"
	KindSections           Kind = "sections"
	KindLLMCalls           Kind = "llm_calls"
	KindValidationResults  Kind = "validation_results"
	KindDocxBuffer         Kind = "docx_buffer"
	KindChartBuffer        Kind = "chart_buffer"
	KindAuditExports       Kind = "audit_exports"
	KindZipBundle          Kind = "zip_bundle"
	KindChainVerification  Kind = "chain_verification"
	KindPSUROutput         Kind = "psur_output"
	KindTemplateUsed       Kind = "template_used"
)

// Ref is the (kind, id, content-hash) triple returned by Set and used to
// cite provenance elsewhere (DTR inputLineage, annex/section provenance).
type Ref struct {
	Kind        Kind   `json:"kind"`
	ID          string `json:"id"`
	ContentHash string `json:"contentHash"`
}

type slotKey struct {
	kind Kind
	id   string
}

// Store is the single run-scoped content-addressed map. It is not safe
// for concurrent mutation from more than one task at a time, which the
// spec guarantees by construction (the runtime executes tasks
// sequentially).
type Store struct {
	mu     sync.RWMutex
	values map[slotKey]any
}

// New creates an empty store. Exactly one should exist per run.
func New() *Store {
	return &Store{values: make(map[slotKey]any)}
}

// Set overwrites any prior slot at (kind, id), computing and returning a
// content-hash reference for the stored value.
func (s *Store) Set(kind Kind, id string, value any) (Ref, error) {
	hash, err := contentHashFor(kind, value)
	if err != nil {
		return Ref{}, fmt.Errorf("store: failed to hash value for %s/%s: %w", kind, id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[slotKey{kind, id}] = value

	return Ref{Kind: kind, ID: id, ContentHash: hash}, nil
}

// contentHashFor hashes raw bytes directly for byte-buffer kinds, and the
// canonical JSON of the value for everything else.
func contentHashFor(kind Kind, value any) (string, error) {
	if buf, ok := value.([]byte); ok && isByteBufferKind(kind) {
		return hashkit.BytesHash(buf), nil
	}
	return hashkit.ContentHash(value)
}

func isByteBufferKind(kind Kind) bool {
	switch kind {
	case KindDocxBuffer, KindChartBuffer, KindZipBundle:
		return true
	default:
		return false
	}
}

// Get retrieves a value, failing with SlotMissing when absent.
func (s *Store) Get(kind Kind, id string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[slotKey{kind, id}]
	if !ok {
		return nil, apperrors.SlotMissing(string(kind), id)
	}
	return v, nil
}

// GetByRef is equivalent to Get(ref.Kind, ref.ID).
func (s *Store) GetByRef(ref Ref) (any, error) {
	return s.Get(ref.Kind, ref.ID)
}

// Has reports whether a slot is populated.
func (s *Store) Has(kind Kind, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[slotKey{kind, id}]
	return ok
}

// GetAllByKind returns every id->value pair stored under kind.
func (s *Store) GetAllByKind(kind Kind) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any)
	for k, v := range s.values {
		if k.kind == kind {
			out[k.id] = v
		}
	}
	return out
}

// Size returns the total number of populated slots.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Clear empties the store. Used only by tests; a production run never
// calls this since the store does not outlive the run.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[slotKey]any)
}
