// Package mcp exposes the site's posts to AI clients over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/folio-blog/folio/pkg/config"
	"github.com/folio-blog/folio/pkg/content"
	"github.com/folio-blog/folio/pkg/process"
)

const (
	serverName    = "folio"
	serverVersion = "1.0.0"

	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	AppConfig  *config.AppConfig
	ConfigPath string
	Transport  string // "stdio" or "sse"
	Port       int
	Logger     *logrus.Logger
	Library    *content.Library // Loaded from AppConfig when nil
}

// Server wraps the MCP server with the site's post tools
type Server struct {
	mcpServer *server.MCPServer
	cfg       *ServerConfig
	log       *logrus.Entry
	library   atomic.Pointer[content.Library]
	counter   *process.TokenCounter
	splitter  *process.Splitter
	sse       *server.SSEServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("AppConfig is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	log := cfg.Logger.WithField("component", "mcp")

	lib := cfg.Library
	if lib == nil {
		var err error
		lib, err = content.LoadLibrary(cfg.AppConfig, log)
		if err != nil {
			return nil, fmt.Errorf("loading content: %w", err)
		}
	}

	counter, err := process.NewTokenCounter(cfg.AppConfig.TokenizerEncoding)
	if err != nil {
		log.Warnf("Tokenizer unavailable, estimating token counts: %v", err)
		counter = nil
	}

	s := &Server{
		mcpServer: server.NewMCPServer(
			serverName,
			serverVersion,
			server.WithToolCapabilities(false),
			server.WithLogging(),
		),
		cfg:      cfg,
		log:      log,
		counter:  counter,
		splitter: process.NewSplitter(cfg.AppConfig.Chunking, counter),
	}
	s.library.Store(lib)

	s.registerTools()

	return s, nil
}

// SetLibrary replaces the library the tools answer from.
func (s *Server) SetLibrary(lib *content.Library) {
	s.library.Store(lib)
}

// Reload rebuilds the library from disk, keeping the current one on failure.
func (s *Server) Reload() error {
	lib, err := content.LoadLibrary(s.cfg.AppConfig, s.log)
	if err != nil {
		return err
	}
	s.library.Store(lib)
	s.log.Infof("Reloaded %d posts", len(lib.Posts))
	return nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// list_categories - Category labels with counts
	listCategoriesTool := mcp.NewTool("list_categories",
		mcp.WithDescription("List the blog's categories in display order with their post counts"),
	)
	s.mcpServer.AddTool(listCategoriesTool, s.handleListCategories)

	// search_posts - Text search over posts
	searchPostsTool := mcp.NewTool("search_posts",
		mcp.WithDescription("Search posts by title, excerpt and body text"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query (case-insensitive substring match)"),
		),
		mcp.WithString("category",
			mcp.Description("Limit search to one category (exact label, optional)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results to return (default: 10, max: 100)"),
		),
	)
	s.mcpServer.AddTool(searchPostsTool, s.handleSearchPosts)

	// get_post - One post as markdown
	getPostTool := mcp.NewTool("get_post",
		mcp.WithDescription("Get a post's metadata, table of contents and markdown body"),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Post slug as it appears in /post/<slug>/"),
		),
	)
	s.mcpServer.AddTool(getPostTool, s.handleGetPost)

	// get_post_sections - Heading-aware chunks
	getSectionsTool := mcp.NewTool("get_post_sections",
		mcp.WithDescription("Split a post into heading-aware sections sized for retrieval"),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Post slug as it appears in /post/<slug>/"),
		),
	)
	s.mcpServer.AddTool(getSectionsTool, s.handleGetPostSections)

	s.log.Infof("Registered %d MCP tools", 4)
}

// Run starts the MCP server with the configured transport. The SSE transport
// stops when ctx is canceled; stdio returns when its input closes.
func (s *Server) Run(ctx context.Context) error {
	switch s.cfg.Transport {
	case TransportStdio, "":
		s.log.Info("Starting MCP server with stdio transport")
		return server.ServeStdio(s.mcpServer)
	case TransportSSE:
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		s.log.Infof("Starting MCP server with SSE transport on %s", addr)
		s.sse = server.NewSSEServer(s.mcpServer)

		errCh := make(chan error, 1)
		go func() { errCh <- s.sse.Start(addr) }()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return s.Shutdown(shutdownCtx)
		}
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", s.cfg.Transport)
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down MCP server...")
	if s.sse == nil {
		return nil
	}
	return s.sse.Shutdown(ctx)
}
