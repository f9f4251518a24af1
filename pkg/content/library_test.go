package content

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-blog/folio/pkg/config"
	"github.com/folio-blog/folio/pkg/models"
	"github.com/folio-blog/folio/pkg/utils"
)

func TestNewLibrary(t *testing.T) {
	posts := []*models.Post{
		{Slug: "a", Category: "Systems"},
		{Slug: "b", Category: "NLP"},
		{Slug: "a", Category: "NLP"},
		{Slug: "c", Category: "Systems"},
	}

	lib := NewLibrary(posts, []string{"NLP"})

	assert.Equal(t, []string{"NLP", "Systems"}, lib.Categories)
	assert.Equal(t, "NLP", lib.DefaultCategory())
	assert.Equal(t, 2, lib.Counts["Systems"])
	assert.True(t, lib.HasCategory("NLP"))
	assert.False(t, lib.HasCategory("Vision"))
	assert.Equal(t, []models.CategoryEntry{{Name: "NLP", Count: 2}, {Name: "Systems", Count: 2}}, lib.CategoryEntries())

	p, ok := lib.Lookup("a")
	require.True(t, ok)
	assert.Same(t, posts[0], p, "first post in display order wins")
	assert.Equal(t, []string{"a"}, lib.DuplicateSlugs())

	_, ok = lib.Lookup("missing")
	assert.False(t, ok)

	found, err := lib.Find("b")
	require.NoError(t, err)
	assert.Same(t, posts[1], found)
	_, err = lib.Find("missing")
	assert.ErrorIs(t, err, utils.ErrNotFound)
	assert.Contains(t, err.Error(), `"missing"`)
}

func TestNewLibrary_Empty(t *testing.T) {
	lib := NewLibrary(nil, config.DefaultPreferredCategories)

	assert.Empty(t, lib.Categories)
	assert.Equal(t, "", lib.DefaultCategory())
	assert.Empty(t, lib.CategoryEntries())
}

func TestLoadLibrary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "manifest.yaml"), "posts:\n  - file: a.md\n  - file: b.md\n")
	writeFile(t, filepath.Join(dir, "a.md"), "---\nslug: a\ncategory: Systems\ndate: 2024-01-01\n---\nA")
	writeFile(t, filepath.Join(dir, "b.md"), "---\nslug: b\ndate: 2024-02-01\n---\nB")

	cfg := &config.AppConfig{ContentDir: dir}
	_, err := cfg.Validate()
	require.NoError(t, err)

	lib, err := LoadLibrary(cfg, testLogger())

	require.NoError(t, err)
	require.Len(t, lib.Posts, 2)
	assert.Equal(t, "b", lib.Posts[0].Slug)
	assert.Equal(t, "Uncategorized", lib.Posts[0].Category)
	assert.ElementsMatch(t, []string{"Systems", "Uncategorized"}, lib.Categories)
}
