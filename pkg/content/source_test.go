package content

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-blog/folio/pkg/utils"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestManifestSource_Records(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "manifest.yaml"), `
posts:
  - file: posts/one.md
  - file: posts/two.md
    id: manifest-id
`)
	writeFile(t, filepath.Join(dir, "posts", "one.md"), "---\nslug: one\ncategory: NLP\nid: fm-id\n---\n## Hello\n")
	writeFile(t, filepath.Join(dir, "posts", "two.md"), "---\nslug: two\nid: ignored\n---\nBody")

	src := NewManifestSource(filepath.Join(dir, "manifest.yaml"), testLogger())
	records, err := src.Records()

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "one", records[0].Slug)
	assert.Equal(t, "fm-id", records[0].ID)
	assert.Equal(t, "## Hello\n", records[0].Content)
	assert.Equal(t, filepath.Join(dir, "posts", "one.md"), records[0].SourcePath)
	assert.Equal(t, "manifest-id", records[1].ID, "manifest id overrides frontmatter")
}

func TestManifestSource_HTMLPosts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "manifest.yaml"), "posts:\n  - file: imported.html\n")
	writeFile(t, filepath.Join(dir, "imported.html"),
		"---\nslug: imported\ncategory: NLP\n---\n<h2>Intro</h2>\n<p>Hello <strong>there</strong>.</p>\n<h3>Details</h3>\n")

	records, err := NewManifestSource(filepath.Join(dir, "manifest.yaml"), testLogger()).Records()

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Contains(t, records[0].Content, "## Intro")
	assert.Contains(t, records[0].Content, "Hello **there**.")
	assert.Contains(t, records[0].Content, "### Details")
	assert.NotContains(t, records[0].Content, "<p>")
}

func TestManifestSource_Errors(t *testing.T) {
	t.Run("missing manifest", func(t *testing.T) {
		src := NewManifestSource(filepath.Join(t.TempDir(), "nope.yaml"), testLogger())
		_, err := src.Records()
		require.Error(t, err)
		assert.True(t, errors.Is(err, utils.ErrContentSource))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("invalid yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "manifest.yaml"), "posts: [oops")
		_, err := NewManifestSource(filepath.Join(dir, "manifest.yaml"), testLogger()).Records()
		assert.True(t, errors.Is(err, utils.ErrManifest))
	})

	t.Run("entry without file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "manifest.yaml"), "posts:\n  - id: x\n")
		_, err := NewManifestSource(filepath.Join(dir, "manifest.yaml"), testLogger()).Records()
		require.Error(t, err)
		assert.True(t, errors.Is(err, utils.ErrManifest))
		assert.Contains(t, err.Error(), "entry #1")
	})

	t.Run("missing post file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "manifest.yaml"), "posts:\n  - file: gone.md\n")
		_, err := NewManifestSource(filepath.Join(dir, "manifest.yaml"), testLogger()).Records()
		assert.True(t, errors.Is(err, utils.ErrContentSource))
	})

	t.Run("bad frontmatter names the file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "manifest.yaml"), "posts:\n  - file: bad.md\n")
		writeFile(t, filepath.Join(dir, "bad.md"), "---\nslug: a\n")
		_, err := NewManifestSource(filepath.Join(dir, "manifest.yaml"), testLogger()).Records()
		require.Error(t, err)
		assert.True(t, errors.Is(err, utils.ErrFrontmatter))
		assert.Contains(t, err.Error(), "bad.md")
	})
}

func TestManifestSource_EmptyManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "manifest.yaml"), "posts: []\n")

	posts, err := LoadAll(NewManifestSource(filepath.Join(dir, "manifest.yaml"), testLogger()))

	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestStaticSource_ReturnsCopy(t *testing.T) {
	src := StaticSource{{Slug: "a"}}
	records, err := src.Records()
	require.NoError(t, err)
	records[0].Slug = "changed"
	assert.Equal(t, "a", src[0].Slug)
}
