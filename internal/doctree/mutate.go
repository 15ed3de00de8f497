// Package doctree walks and mutates free-form JSON documents (the sections
// tree of a page) decoded as map[string]any / []any.
package doctree

import (
	"fmt"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/dmitrijs2005/pagekeeper/internal/docpath"
)

// Padding selects the placeholder used when an array must grow to reach an
// index.
type Padding int

const (
	// PadObject pads with empty objects. Used by generic field updates.
	PadObject Padding = iota
	// PadString pads with empty strings. Used by upload merges; the strings
	// are turned into containers on demand.
	PadString
)

// Options controls SetPath.
type Options struct {
	Padding Padding

	// OverwriteIncompatible replaces a scalar found in the middle of a path
	// with a fresh container. When false, SetPath fails with
	// common.ErrIncompatibleNode and leaves the document untouched.
	OverwriteIncompatible bool
}

// DefaultOptions is the permissive upsert policy: scalars in the way are
// silently overwritten.
func DefaultOptions(p Padding) Options {
	return Options{Padding: p, OverwriteIncompatible: true}
}

// SetPath writes value at path inside root, creating missing objects and
// arrays on the way. Sibling keys are preserved.
func SetPath(root map[string]any, path docpath.Path, value any, opts Options) error {
	if root == nil {
		return fmt.Errorf("%w: nil document", common.ErrArgumentInvalid)
	}
	if len(path) == 0 {
		return fmt.Errorf("%w: empty path", common.ErrMalformedPath)
	}
	if path.Head().IsIndex() {
		return fmt.Errorf("%w: %q must start with a key", common.ErrMalformedPath, path.String())
	}

	if !opts.OverwriteIncompatible {
		if err := checkCompatible(root, path); err != nil {
			return err
		}
	}

	_, err := assign(root, path, value, opts)
	return err
}

// Get returns the value stored at path, if any.
func Get(root map[string]any, path docpath.Path) (any, bool) {
	var node any = root
	for _, seg := range path {
		child, ok := lookup(node, seg)
		if !ok {
			return nil, false
		}
		node = child
	}
	return node, true
}

func assign(node any, path docpath.Path, value any, opts Options) (any, error) {
	seg := path.Head()
	rest := path.Tail()

	if seg.IsIndex() {
		arr, err := asArray(node, opts)
		if err != nil {
			return nil, err
		}
		arr = pad(arr, seg.Index, opts.Padding)
		if len(rest) == 0 {
			arr[seg.Index] = value
			return arr, nil
		}
		child, err := assign(arr[seg.Index], rest, value, opts)
		if err != nil {
			return nil, err
		}
		arr[seg.Index] = child
		return arr, nil
	}

	obj, err := asObject(node, opts)
	if err != nil {
		return nil, err
	}
	if len(rest) == 0 {
		obj[seg.Key] = value
		return obj, nil
	}
	child, err := assign(obj[seg.Key], rest, value, opts)
	if err != nil {
		return nil, err
	}
	obj[seg.Key] = child
	return obj, nil
}

func asArray(node any, opts Options) ([]any, error) {
	if arr, ok := node.([]any); ok {
		return arr, nil
	}
	if isVacant(node) || opts.OverwriteIncompatible {
		return []any{}, nil
	}
	return nil, fmt.Errorf("%w: expected array, found %T", common.ErrIncompatibleNode, node)
}

func asObject(node any, opts Options) (map[string]any, error) {
	if obj, ok := node.(map[string]any); ok {
		return obj, nil
	}
	if isVacant(node) || opts.OverwriteIncompatible {
		return map[string]any{}, nil
	}
	return nil, fmt.Errorf("%w: expected object, found %T", common.ErrIncompatibleNode, node)
}

func pad(arr []any, index int, p Padding) []any {
	for len(arr) <= index {
		if p == PadString {
			arr = append(arr, "")
		} else {
			arr = append(arr, map[string]any{})
		}
	}
	return arr
}

// isVacant reports values that only hold a place: missing, null, the padding
// placeholders and empty containers.
func isVacant(v any) bool {
	switch n := v.(type) {
	case nil:
		return true
	case string:
		return n == ""
	case map[string]any:
		return len(n) == 0
	case []any:
		return len(n) == 0
	}
	return false
}

func lookup(node any, seg docpath.Segment) (any, bool) {
	switch n := node.(type) {
	case map[string]any:
		if seg.IsIndex() {
			return nil, false
		}
		v, ok := n[seg.Key]
		return v, ok
	case []any:
		if !seg.IsIndex() || seg.Index >= len(n) {
			return nil, false
		}
		return n[seg.Index], true
	}
	return nil, false
}

func checkCompatible(root map[string]any, path docpath.Path) error {
	var node any = root
	for i := 0; i < len(path)-1; i++ {
		child, ok := lookup(node, path[i])
		if !ok || isVacant(child) {
			return nil
		}
		wantArray := path[i+1].IsIndex()
		_, isArr := child.([]any)
		_, isObj := child.(map[string]any)
		if (wantArray && !isArr) || (!wantArray && !isObj) {
			return fmt.Errorf("%w: %q holds %T", common.ErrIncompatibleNode, path[:i+1].String(), child)
		}
		node = child
	}
	return nil
}
