package doctree

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
)

// MergeSections returns the shallow union of current and incoming top-level
// keys. Incoming keys win; keys missing from incoming are kept.
func MergeSections(current, incoming map[string]any) map[string]any {
	out := make(map[string]any, len(current)+len(incoming))
	for k, v := range current {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}

// Clone deep-copies maps and slices. Scalars are shared.
func Clone(v any) any {
	switch n := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, item := range n {
			out[k] = Clone(item)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = Clone(item)
		}
		return out
	}
	return v
}

// Normalize brings a sections payload into canonical form: a freshly
// decoded map[string]any. Text and raw JSON are parsed; anything else goes
// through a JSON round trip. null and empty input give an empty map.
func Normalize(v any) (map[string]any, error) {
	var raw []byte

	switch n := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return Clone(n).(map[string]any), nil
	case string:
		raw = []byte(n)
	case json.RawMessage:
		raw = n
	case []byte:
		raw = n
	default:
		b, err := json.Marshal(n)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidSectionsJSON, err)
		}
		raw = b
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{}, nil
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidSectionsJSON, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// Encode serializes a document as canonical JSON text for storage.
func Encode(v any) (string, error) {
	b, err := encode(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
