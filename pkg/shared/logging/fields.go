// Package logging provides a small structured-field builder used across
// the pipeline so every component logs the same standard attributes
// (component, operation, resource, duration, error) through a logr.Logger,
// regardless of which sink (zap, in tests nothing) is plugged in.
package logging

import "time"

// Fields is an unordered bag of key/value pairs suitable for logr's
// variadic WithValues/Info calls (logr wants them flattened, so callers
// do Fields.KeysAndValues(); the pair order it yields is not defined).
type Fields map[string]any

// NewFields returns an empty field set.
func NewFields() Fields {
	return Fields{}
}

func (f Fields) Component(name string) Fields {
	f["component"] = name
	return f
}

func (f Fields) Operation(name string) Fields {
	f["operation"] = name
	return f
}

func (f Fields) Resource(resourceType, resourceName string) Fields {
	f["resource_type"] = resourceType
	if resourceName != "" {
		f["resource_name"] = resourceName
	}
	return f
}

func (f Fields) Duration(d time.Duration) Fields {
	f["duration_ms"] = d.Milliseconds()
	return f
}

func (f Fields) Error(err error) Fields {
	if err != nil {
		f["error"] = err.Error()
	}
	return f
}

func (f Fields) CorrelationID(id string) Fields {
	if id != "" {
		f["correlation_id"] = id
	}
	return f
}

func (f Fields) TraceID(id string) Fields {
	if id != "" {
		f["trace_id"] = id
	}
	return f
}

// KeysAndValues flattens the field set into logr's variadic form.
func (f Fields) KeysAndValues() []any {
	kv := make([]any, 0, len(f)*2)
	for k, v := range f {
		kv = append(kv, k, v)
	}
	return kv
}
