// Package hashkit implements the canonical hashing primitives the rest of
// the pipeline builds its tamper-evidence on: deterministic canonical-JSON
// content hashing, raw byte hashing, and Merkle root folding.
package hashkit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// ContentHash serializes v as canonical JSON (object keys sorted
// lexicographically at every depth, arrays kept in insertion order) and
// returns the lowercase hex SHA-256 of the UTF-8 bytes.
func ContentHash(v any) (string, error) {
	canonical, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	return BytesHash(canonical), nil
}

// BytesHash is the lowercase hex SHA-256 of raw bytes.
func BytesHash(buf []byte) string {
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

// StringHash is the lowercase hex SHA-256 of a UTF-8 string.
func StringHash(s string) string {
	return BytesHash([]byte(s))
}

// Canonicalize marshals v to JSON with object keys sorted lexicographically
// at every depth. Go's encoding/json already emits shortest-unambiguous
// decimal forms for float64 and sorts struct fields by declaration order
// (not what we want for maps), so canonicalization round-trips through
// map[string]any/[]any and re-marshals with sorted keys.
func Canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	var buf []byte
	buf, err = appendCanonical(buf, generic)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func appendCanonical(buf []byte, v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return append(buf, "null"...), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf = append(buf, '{')
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			keyBytes, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf = append(buf, keyBytes...)
			buf = append(buf, ':')
			var err2 error
			buf, err2 = appendCanonical(buf, val[k])
			if err2 != nil {
				return nil, err2
			}
		}
		buf = append(buf, '}')
		return buf, nil
	case []any:
		buf = append(buf, '[')
		for i, item := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			buf, err = appendCanonical(buf, item)
			if err != nil {
				return nil, err
			}
		}
		buf = append(buf, ']')
		return buf, nil
	default:
		// strings, float64 (json.Unmarshal's number type), bool: encoding/json
		// already produces the shortest unambiguous decimal form for float64.
		encoded, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		return append(buf, encoded...), nil
	}
}

// MerkleRoot folds an ordered list of hex-string content hashes into a
// single root: empty input hashes the empty string, a single hash is the
// identity, otherwise pair adjacent hashes (hex-string concatenation,
// duplicating the last hash on an odd-length level) and recurse.
func MerkleRoot(hashes []string) string {
	if len(hashes) == 0 {
		return StringHash("")
	}
	level := make([]string, len(hashes))
	copy(level, hashes)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, StringHash(level[i]+level[i+1]))
		}
		level = next
	}
	return level[0]
}
