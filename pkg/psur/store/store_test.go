package store_test

import (
	"testing"

	apperrors "github.com/certen-health/psurgen/internal/errors"
	"github.com/certen-health/psurgen/pkg/psur/store"
)

func TestSetGetRoundTrip(t *testing.T) {
	s := store.New()

	ref, err := s.Set(store.KindAnalytics, "complaints", map[string]any{"total": 42})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ref.ContentHash == "" {
		t.Fatal("Set should produce a non-empty content hash")
	}

	got, err := s.Get(store.KindAnalytics, "complaints")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	m := got.(map[string]any)
	if m["total"] != 42 {
		t.Errorf("Get() = %v, want total=42", got)
	}
}

func TestGetMissingSlot(t *testing.T) {
	s := store.New()
	_, err := s.Get(store.KindAnalytics, "missing")
	if err == nil {
		t.Fatal("expected SlotMissing error")
	}
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		t.Fatalf("expected *apperrors.AppError, got %T", err)
	}
	if appErr.Type != apperrors.ErrorTypeSlotMissing {
		t.Errorf("Type = %v, want %v", appErr.Type, apperrors.ErrorTypeSlotMissing)
	}
	if !contains(err.Error(), "analytics") || !contains(err.Error(), "missing") {
		t.Errorf("SlotMissing error should name both kind and id, got %q", err.Error())
	}
}

func TestSetOverwritesPriorSlot(t *testing.T) {
	s := store.New()
	_, _ = s.Set(store.KindContext, "x", 1)
	_, _ = s.Set(store.KindContext, "x", 2)

	got, _ := s.Get(store.KindContext, "x")
	if got != 2 {
		t.Errorf("Set should overwrite, got %v", got)
	}
}

func TestHasAndGetAllByKind(t *testing.T) {
	s := store.New()
	_, _ = s.Set(store.KindEvidenceAtoms, "a1", "atomA")
	_, _ = s.Set(store.KindEvidenceAtoms, "a2", "atomB")
	_, _ = s.Set(store.KindContext, "ctx", "unrelated")

	if !s.Has(store.KindEvidenceAtoms, "a1") {
		t.Error("Has should report true for a set slot")
	}
	if s.Has(store.KindEvidenceAtoms, "a3") {
		t.Error("Has should report false for an unset slot")
	}

	all := s.GetAllByKind(store.KindEvidenceAtoms)
	if len(all) != 2 {
		t.Fatalf("GetAllByKind returned %d entries, want 2", len(all))
	}
}

func TestSizeAndClear(t *testing.T) {
	s := store.New()
	_, _ = s.Set(store.KindContext, "a", 1)
	_, _ = s.Set(store.KindContext, "b", 2)
	if s.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", s.Size())
	}
	s.Clear()
	if s.Size() != 0 {
		t.Fatalf("Size() after Clear = %d, want 0", s.Size())
	}
}

func TestByteBufferKindsHashRawBytes(t *testing.T) {
	s := store.New()
	buf := []byte{0x01, 0x02, 0x03}
	ref, err := s.Set(store.KindZipBundle, "bundle", buf)
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ref.ContentHash == "" {
		t.Fatal("expected non-empty content hash for byte buffer")
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}
