package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/folio-blog/folio/pkg/models"
	"github.com/folio-blog/folio/pkg/search"
	"github.com/folio-blog/folio/pkg/toc"
	"github.com/folio-blog/folio/pkg/views"
)

const (
	defaultMaxResults = 10
	maxMaxResults     = 100
	snippetLength     = 150
)

// handleListCategories handles the list_categories tool
func (s *Server) handleListCategories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lib := s.library.Load()

	result := map[string]interface{}{
		"categories":  lib.CategoryEntries(),
		"default":     lib.DefaultCategory(),
		"total_posts": len(lib.Posts),
		"config_path": s.cfg.ConfigPath,
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleSearchPosts handles the search_posts tool
func (s *Server) handleSearchPosts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	category := request.GetString("category", "")
	maxResults := request.GetInt("max_results", defaultMaxResults)
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if maxResults > maxMaxResults {
		maxResults = maxMaxResults
	}

	lib := s.library.Load()
	if category != "" && !lib.HasCategory(category) {
		return mcp.NewToolResultError(fmt.Sprintf("category '%s' not found. Available categories: %v", category, lib.Categories)), nil
	}

	results := make([]map[string]interface{}, 0)
	totalMatches := 0
	for _, post := range lib.Posts {
		if category != "" && post.Category != category {
			continue
		}
		matched, field := search.Match(post, query)
		if !matched {
			continue
		}
		totalMatches++
		if len(results) >= maxResults {
			continue
		}

		snippetSource := post.Content
		if field == search.FieldExcerpt {
			snippetSource = post.Excerpt
		}
		results = append(results, map[string]interface{}{
			"slug":           post.Slug,
			"title":          post.Title,
			"category":       post.Category,
			"date":           post.DisplayDate(),
			"url":            views.Summarize(post).URL,
			"snippet":        search.ExtractSnippet(snippetSource, query, snippetLength),
			"match_location": string(field),
		})
	}

	result := map[string]interface{}{
		"query":         query,
		"results":       results,
		"count":         len(results),
		"total_matches": totalMatches,
	}
	if category != "" {
		result["category"] = category
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetPost handles the get_post tool
func (s *Server) handleGetPost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	post, errResult := s.lookupPost(request)
	if errResult != nil {
		return errResult, nil
	}

	result := map[string]interface{}{
		"id":          post.ID,
		"slug":        post.Slug,
		"title":       post.Title,
		"category":    post.Category,
		"date":        post.DisplayDate(),
		"excerpt":     post.Excerpt,
		"url":         views.Summarize(post).URL,
		"headings":    headingsOrEmpty(toc.ExtractHeadings(post.Content)),
		"markdown":    post.Content,
		"token_count": s.counter.Count(post.Content),
		"encoding":    s.counter.Encoding(),
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetPostSections handles the get_post_sections tool
func (s *Server) handleGetPostSections(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	post, errResult := s.lookupPost(request)
	if errResult != nil {
		return errResult, nil
	}

	sections, err := s.splitter.Split(post.Content)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to split post: %v", err)), nil
	}

	base := views.Summarize(post).URL
	out := make([]map[string]interface{}, 0, len(sections))
	totalTokens := 0
	for i, sec := range sections {
		link := base
		if sec.Anchor != "" {
			link += "#" + sec.Anchor
		}
		out = append(out, map[string]interface{}{
			"index":       i,
			"heading":     sec.Heading,
			"path":        sec.Path,
			"url":         link,
			"content":     sec.Content,
			"token_count": sec.TokenCount,
		})
		totalTokens += sec.TokenCount
	}

	result := map[string]interface{}{
		"slug":         post.Slug,
		"title":        post.Title,
		"sections":     out,
		"count":        len(out),
		"total_tokens": totalTokens,
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// lookupPost resolves the slug argument, returning a tool error when it is missing or unknown.
func (s *Server) lookupPost(request mcp.CallToolRequest) (*models.Post, *mcp.CallToolResult) {
	slug := request.GetString("slug", "")
	if slug == "" {
		return nil, mcp.NewToolResultError("slug parameter is required")
	}
	post, err := s.library.Load().Find(slug)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return post, nil
}

func headingsOrEmpty(h []models.Heading) []models.Heading {
	if h == nil {
		return []models.Heading{}
	}
	return h
}

// formatJSON formats data as an indented JSON string
func formatJSON(data map[string]interface{}) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(b)
}
