package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPost_DisplayDate(t *testing.T) {
	t.Run("parsed date is formatted", func(t *testing.T) {
		p := Post{Date: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), DateText: "2024-03-09"}
		assert.True(t, p.HasDate())
		assert.Equal(t, "March 9, 2024", p.DisplayDate())
	})

	t.Run("missing date falls back to source text", func(t *testing.T) {
		p := Post{DateText: "sometime in spring"}
		assert.False(t, p.HasDate())
		assert.Equal(t, "sometime in spring", p.DisplayDate())
	})
}

func TestPost_JSONOmitsEmptyContent(t *testing.T) {
	p := Post{ID: "1", Slug: "a", Category: "NLP", Title: "A"}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"content"`)
	assert.NotContains(t, string(data), `"source_path"`)
}

func TestBuildMetadata_YAML(t *testing.T) {
	meta := BuildMetadata{
		SiteTitle:  "Notes",
		TotalPosts: 1,
		Categories: []CategoryEntry{{Name: "NLP", Count: 1}},
		Posts: []PostMetadata{{
			Slug:     "attention",
			Headings: []Heading{{Level: 2, Text: "Intro", Anchor: "intro"}},
		}},
	}
	data, err := yaml.Marshal(meta)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "site_title: Notes")
	assert.Contains(t, out, "anchor: intro")
	assert.NotContains(t, out, "date:", "empty post date is omitted")
}

func TestThemeMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ThemeMode
		toggled ThemeMode
	}{
		{"light", ThemeLight, ThemeDark},
		{"dark", ThemeDark, ThemeLight},
		{"", ThemeLight, ThemeDark},
		{"sepia", ThemeLight, ThemeDark},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m := ParseThemeMode(tt.in)
			assert.Equal(t, tt.want, m)
			assert.Equal(t, tt.toggled, m.Toggled())
			assert.True(t, m.IsValid())
		})
	}

	assert.Equal(t, "light", ThemeMode("").String())
	assert.True(t, ThemeDark.IsDark())
	assert.False(t, ThemeLight.IsDark())
}
