// Package docpath parses dotted field paths such as "sections.aboutUs.0.image"
// into ordered segments. A token made only of ASCII digits addresses an array
// slot; every other token addresses an object key. There is no escaping, so
// an object key spelled "0" cannot be reached.
package docpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
)

// MaxIndex bounds array indexes so a single request cannot force the mutator
// to pad an array to an arbitrary length.
const MaxIndex = 10000

// Segment is one step of a Path: either an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	isIndex bool
}

// KeySegment builds an object-key segment.
func KeySegment(name string) Segment {
	return Segment{Key: name}
}

// IndexSegment builds an array-index segment.
func IndexSegment(i int) Segment {
	return Segment{Index: i, isIndex: true}
}

// IsIndex reports whether the segment addresses an array slot.
func (s Segment) IsIndex() bool {
	return s.isIndex
}

func (s Segment) String() string {
	if s.isIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Key
}

// Path is a parsed path expression. It lives for one mutation call.
type Path []Segment

// Parse splits path on '.' and classifies every token.
func Parse(path string) (Path, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", common.ErrMalformedPath)
	}

	tokens := strings.Split(path, ".")
	out := make(Path, 0, len(tokens))

	for i, tok := range tokens {
		if tok == "" {
			return nil, fmt.Errorf("%w: empty segment %d in %q", common.ErrMalformedPath, i, path)
		}
		if !isAllDigits(tok) {
			out = append(out, KeySegment(tok))
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n > MaxIndex {
			return nil, fmt.Errorf("%w: index %s out of range in %q", common.ErrMalformedPath, tok, path)
		}
		out = append(out, IndexSegment(n))
	}

	return out, nil
}

// MustParse is Parse for literals in code and tests.
func MustParse(path string) Path {
	p, err := Parse(path)
	if err != nil {
		panic(err)
	}
	return p
}

// Head returns the first segment. It panics on an empty path.
func (p Path) Head() Segment {
	return p[0]
}

// Tail returns every segment after the first.
func (p Path) Tail() Path {
	if len(p) < 2 {
		return nil
	}
	return p[1:]
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

func isAllDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
