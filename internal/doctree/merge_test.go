package doctree

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSections_ShallowUnion(t *testing.T) {
	current := map[string]any{"hero": "old", "footer": map[string]any{"a": 1}}
	incoming := map[string]any{"hero": "new", "about": "x"}

	got := MergeSections(current, incoming)

	assert.Equal(t, map[string]any{"hero": "new", "footer": map[string]any{"a": 1}, "about": "x"}, got)
	assert.Equal(t, "old", current["hero"])
}

func TestClone_IsDeep(t *testing.T) {
	src := map[string]any{"list": []any{map[string]any{"k": "v"}}}
	dst := Clone(src).(map[string]any)

	dst["list"].([]any)[0].(map[string]any)["k"] = "changed"
	assert.Equal(t, "v", src["list"].([]any)[0].(map[string]any)["k"])
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want map[string]any
	}{
		{"nil", nil, map[string]any{}},
		{"empty string", "  ", map[string]any{}},
		{"null", "null", map[string]any{}},
		{"text", `{"hero":{"title":"x"}}`, map[string]any{"hero": map[string]any{"title": "x"}}},
		{"raw", json.RawMessage(`{"a":[1]}`), map[string]any{"a": []any{float64(1)}}},
		{"map", map[string]any{"a": "b"}, map[string]any{"a": "b"}},
		{"struct", struct {
			Title string `json:"title"`
		}{"t"}, map[string]any{"title": "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Invalid(t *testing.T) {
	for _, in := range []any{`{"a":`, `[1,2]`, `"str"`} {
		_, err := Normalize(in)
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrInvalidSectionsJSON))
	}
}

func TestEncode_NoHTMLEscaping(t *testing.T) {
	s, err := Encode(map[string]any{"u": "a&b<c>"})
	require.NoError(t, err)
	assert.Equal(t, `{"u":"a&b<c>"}`, s)
}
