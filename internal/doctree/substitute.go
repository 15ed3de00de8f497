package doctree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
)

// PlaceholderMarker is the sentinel authors embed where an uploaded asset's
// URL should go.
const PlaceholderMarker = "placeholder"

// placeholderToken matches a marker with an optional numeric suffix, so
// "placeholder1.png" becomes "<url>.png".
var placeholderToken = regexp.MustCompile(`(?i)placeholder\d*`)

// PlaceholderStrategy replaces placeholder markers in a tree with uploaded
// URLs, first occurrence first. The input tree is never modified.
type PlaceholderStrategy interface {
	Name() string
	Substitute(tree any, replacements []string) any
}

// TextSubstitution serializes the whole tree, replaces markers textually and
// parses the result back. Replacement values are inserted verbatim; if that
// breaks the JSON the original tree is returned.
type TextSubstitution struct{}

func (TextSubstitution) Name() string { return "text" }

func (TextSubstitution) Substitute(tree any, replacements []string) any {
	if len(replacements) == 0 {
		return tree
	}

	raw, err := encode(tree)
	if err != nil {
		return tree
	}

	next := 0
	out := placeholderToken.ReplaceAllStringFunc(string(raw), func(m string) string {
		if next >= len(replacements) {
			return m
		}
		r := replacements[next]
		next++
		return r
	})

	var parsed any
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		return tree
	}
	return parsed
}

// ImageKeySubstitution only rewrites string values held by keys named Key
// ("image" when empty) that contain the marker. The whole value is replaced.
type ImageKeySubstitution struct {
	Key string
}

func (ImageKeySubstitution) Name() string { return "image" }

func (s ImageKeySubstitution) Substitute(tree any, replacements []string) any {
	if len(replacements) == 0 {
		return tree
	}
	key := s.Key
	if key == "" {
		key = "image"
	}

	out := Clone(tree)
	next := 0

	var walk func(v any)
	walk = func(v any) {
		if next >= len(replacements) {
			return
		}
		switch n := v.(type) {
		case map[string]any:
			for _, k := range sortedKeys(n) {
				if k == key {
					if str, ok := n[k].(string); ok && containsMarker(str) {
						if next < len(replacements) {
							n[k] = replacements[next]
							next++
						}
						continue
					}
				}
				walk(n[k])
			}
		case []any:
			for _, item := range n {
				walk(item)
			}
		}
	}
	walk(out)

	return out
}

// StrategyByName resolves "text" or "image".
func StrategyByName(name string) (PlaceholderStrategy, error) {
	switch name {
	case "text":
		return TextSubstitution{}, nil
	case "image":
		return ImageKeySubstitution{}, nil
	}
	return nil, fmt.Errorf("%w: unknown substitution strategy %q", common.ErrArgumentInvalid, name)
}

func containsMarker(s string) bool {
	return strings.Contains(strings.ToLower(s), PlaceholderMarker)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// encode marshals without HTML escaping so URLs keep their '&'.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
