package logging

import (
	"errors"
	"testing"
	"time"
)

func TestNewFields(t *testing.T) {
	fields := NewFields()
	if fields == nil {
		t.Fatal("NewFields() returned nil")
	}
	if len(fields) != 0 {
		t.Errorf("NewFields() should be empty, got %d fields", len(fields))
	}
}

func TestFieldsComponent(t *testing.T) {
	fields := NewFields().Component("trace-recorder")
	if fields["component"] != "trace-recorder" {
		t.Errorf("Component() = %v, want %v", fields["component"], "trace-recorder")
	}
}

func TestFieldsOperation(t *testing.T) {
	fields := NewFields().Operation("record")
	if fields["operation"] != "record" {
		t.Errorf("Operation() = %v, want %v", fields["operation"], "record")
	}
}

func TestFieldsResource(t *testing.T) {
	fields := NewFields().Resource("annex_table", "A05")
	if fields["resource_type"] != "annex_table" {
		t.Errorf("Resource() resource_type = %v, want %v", fields["resource_type"], "annex_table")
	}
	if fields["resource_name"] != "A05" {
		t.Errorf("Resource() resource_name = %v, want %v", fields["resource_name"], "A05")
	}
}

func TestFieldsResourceWithoutName(t *testing.T) {
	fields := NewFields().Resource("annex_table", "")
	if _, exists := fields["resource_name"]; exists {
		t.Error("Resource() should not set resource_name when empty")
	}
}

func TestFieldsDuration(t *testing.T) {
	fields := NewFields().Duration(150 * time.Millisecond)
	if fields["duration_ms"] != int64(150) {
		t.Errorf("Duration() = %v, want %v", fields["duration_ms"], int64(150))
	}
}

func TestFieldsError(t *testing.T) {
	err := errors.New("slot missing")
	fields := NewFields().Error(err)
	if fields["error"] != "slot missing" {
		t.Errorf("Error() = %v, want %v", fields["error"], "slot missing")
	}
}

func TestFieldsErrorNil(t *testing.T) {
	fields := NewFields().Error(nil)
	if _, exists := fields["error"]; exists {
		t.Error("Error(nil) should not set error field")
	}
}

func TestFieldsKeysAndValues(t *testing.T) {
	fields := NewFields().Component("store").Operation("set")
	kv := fields.KeysAndValues()
	if len(kv) != 4 {
		t.Fatalf("KeysAndValues() len = %d, want 4", len(kv))
	}
}
