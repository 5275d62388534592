package sitefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rels ...string) {
	t.Helper()
	for _, rel := range rels {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(rel), 0o600))
	}
}

func TestSelect(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"index.tmpl",
		"usage.md",
		"docs/api.tmpl",
		"partials/header.tmpl",
		"partials/nav/menu.tmpl",
		"js/drawer.js",
	)

	got, err := Select(root, []string{"**/*.tmpl", "**/*.md", "!partials/**"})
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/api.tmpl", "index.tmpl", "usage.md"}, got)

	got, err = Select(root, []string{"**/*.js"})
	require.NoError(t, err)
	assert.Equal(t, []string{"js/drawer.js"}, got)
}

func TestSelectMissingRoot(t *testing.T) {
	got, err := Select(filepath.Join(t.TempDir(), "absent"), []string{"**/*"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMatch(t *testing.T) {
	patterns := []string{"src/**/*.tmpl", "site.yml", "!src/drafts/**"}
	assert.True(t, Match(patterns, "src/index.tmpl"))
	assert.True(t, Match(patterns, "site.yml"))
	assert.False(t, Match(patterns, "src/drafts/wip.tmpl"))
	assert.False(t, Match(patterns, "src/css/site.css"))
}

func TestWriteReadRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	p := filepath.Join(dir, "a", "b", "index.html")

	require.NoError(t, WriteFile(p, []byte("<p>1</p>")))
	require.NoError(t, WriteFile(p, []byte("<p>2</p>")))
	data, err := ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "<p>2</p>", string(data))

	require.NoError(t, RemoveAll(dir))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, RemoveAll(dir))

	_, err = ReadFile(p)
	require.Error(t, err)
}
