package frontmatter

import (
	"testing"

	"github.com/inful/mdfp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontMatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("<h1>Title</h1>\n")

	raw, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, raw)
	require.Equal(t, input, body)
}

func TestSplit_SplitsBlockAndBody(t *testing.T) {
	raw, body, had, err := Split([]byte("---\ntitle: Usage\n---\n<p>x</p>\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "title: Usage\n", string(raw))
	require.Equal(t, "<p>x</p>\n", string(body))
}

func TestSplit_CRLF(t *testing.T) {
	raw, body, had, err := Split([]byte("---\r\ntitle: Usage\r\n---\r\nbody\r\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "title: Usage\r\n", string(raw))
	require.Equal(t, "body\r\n", string(body))
}

func TestSplit_EmptyBlockAndClosingAtEOF(t *testing.T) {
	raw, body, had, err := Split([]byte("---\n---\nbody"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, raw)
	require.Equal(t, "body", string(body))

	raw, body, had, err = Split([]byte("---\ntitle: x\n---"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "title: x\n", string(raw))
	require.Empty(t, body)
}

func TestSplit_MissingClosingDelimiter(t *testing.T) {
	_, _, had, err := Split([]byte("---\ntitle: x\n<p>body</p>\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
	require.False(t, had)
}

func TestParse(t *testing.T) {
	page, err := Parse([]byte("---\ntitle: Usage\nlayout: docs\n---\n# Heading\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Usage", "layout": "docs"}, page.Meta)
	assert.Equal(t, "# Heading\n", string(page.Body))

	page, err = Parse([]byte("plain"))
	require.NoError(t, err)
	assert.NotNil(t, page.Meta)
	assert.False(t, page.HadFrontMatter)

	_, err = Parse([]byte("---\ntitle: [unclosed\n---\n"))
	require.Error(t, err)
}

func TestCanonical_SortsKeysRecursively(t *testing.T) {
	out, err := Canonical(map[string]any{
		"z": 1,
		"a": map[string]any{"c": true, "b": 2.5},
	})
	require.NoError(t, err)
	assert.Equal(t, "a:\n  b: 2.5\n  c: true\nz: 1\n", out)
}

func TestFingerprint_StableAndIgnoresExistingField(t *testing.T) {
	meta := map[string]any{"title": "Usage", "tags": []any{"a", "b"}}
	fp1, err := Fingerprint(meta, []byte("body"))
	require.NoError(t, err)
	require.NotEmpty(t, fp1)

	withField := map[string]any{"tags": []any{"a", "b"}, "title": "Usage", mdfp.FingerprintField: "stale"}
	fp2, err := Fingerprint(withField, []byte("body"))
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)

	fp3, err := Fingerprint(meta, []byte("other body"))
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3)
}
