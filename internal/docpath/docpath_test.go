package docpath

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ClassifiesSegments(t *testing.T) {
	p, err := Parse("a.0.b")
	require.NoError(t, err)
	assert.Equal(t, Path{KeySegment("a"), IndexSegment(0), KeySegment("b")}, p)
	assert.True(t, p[1].IsIndex())
	assert.False(t, p[0].IsIndex())
}

func TestParse_UploadPath(t *testing.T) {
	p, err := Parse("sections.aboutUs.12.image")
	require.NoError(t, err)
	require.Len(t, p, 4)
	assert.Equal(t, 12, p[2].Index)
	assert.Equal(t, "sections.aboutUs.12.image", p.String())
}

func TestParse_NonIntegerTokensAreKeys(t *testing.T) {
	tests := []string{"-1", "+1", " 1", "1 ", "1.5x", "0x1", "１"}
	for _, tok := range tests {
		t.Run(tok, func(t *testing.T) {
			p, err := Parse("list." + tok)
			if err != nil {
				// "1.5x" splits into "1" and "5x"
				t.Fatalf("unexpected error: %v", err)
			}
			last := p[len(p)-1]
			if tok == "1.5x" {
				assert.Equal(t, "5x", last.Key)
				return
			}
			assert.False(t, last.IsIndex(), "token %q must be a key", tok)
			assert.Equal(t, tok, last.Key)
		})
	}
}

func TestParse_LeadingZerosAreIndexes(t *testing.T) {
	p, err := Parse("list.007")
	require.NoError(t, err)
	assert.True(t, p[1].IsIndex())
	assert.Equal(t, 7, p[1].Index)
}

func TestParse_Malformed(t *testing.T) {
	for _, in := range []string{"", "a..b", ".a", "a.", ".", "a.99999999999999999999999", "a.10001"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrMalformedPath), "got %v", err)
		})
	}
}

func TestParse_MaxIndexAccepted(t *testing.T) {
	p, err := Parse("a.10000")
	require.NoError(t, err)
	assert.Equal(t, MaxIndex, p[1].Index)
}

func TestHeadTail(t *testing.T) {
	p := MustParse("sections.hero.0")
	assert.Equal(t, KeySegment("sections"), p.Head())
	assert.Equal(t, "hero.0", p.Tail().String())
	assert.Nil(t, MustParse("x").Tail())
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("a..b") })
}
