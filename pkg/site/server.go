// Package site serves the portfolio, blog listing, post views and JSON API over HTTP.
package site

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/folio-blog/folio/pkg/config"
	"github.com/folio-blog/folio/pkg/content"
	"github.com/folio-blog/folio/pkg/live"
	"github.com/folio-blog/folio/pkg/render"
	"github.com/folio-blog/folio/pkg/theme"
	"github.com/folio-blog/folio/pkg/views"
)

// Server is the HTTP server for the site.
type Server struct {
	cfg     *config.AppConfig
	log     *logrus.Entry
	pages   *Pages
	theme   *theme.Context
	hub     *live.Hub
	library atomic.Pointer[content.Library]
	router  chi.Router
}

// NewServer creates and configures the server around an already loaded library.
// cfg must be validated.
func NewServer(cfg *config.AppConfig, lib *content.Library, themeCtx *theme.Context, log *logrus.Entry) (*Server, error) {
	renderer := render.New(render.Options{UniqueAnchors: cfg.UniqueAnchors})
	pages, err := NewPages(cfg, renderer)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:   cfg,
		log:   log,
		pages: pages,
		theme: themeCtx,
	}
	s.library.Store(lib)

	if config.GetEffectiveLiveSync(*cfg) {
		s.hub = live.NewHub(s.Library, renderer, themeCtx, cfg.RootMargin, log.WithField("component", "live"))
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(middleware.StripSlashes)
	r.NotFound(s.handleNotFound)

	r.Get("/", s.handleHome)
	r.Get("/blog", s.handleBlog)
	r.Get("/blog/{category}", s.handleBlogCategory)
	r.Get("/post/{slug}", s.handlePost)
	r.Get("/about", s.handleAbout)
	r.Post("/theme", s.handleToggleTheme)

	r.Get("/health", s.handleHealth)
	r.Get("/sitemap.xml", s.handleSitemap)
	r.Get("/robots.txt", s.handleRobots)
	r.Route("/api", func(r chi.Router) {
		r.Get("/posts", s.handleListPosts)
		r.Get("/posts/{slug}", s.handleGetPost)
		r.Get("/categories", s.handleCategories)
		r.Get("/theme", s.handleGetTheme)
		r.Post("/theme", s.handleToggleTheme)
	})

	if s.hub != nil {
		r.Get("/live", s.hub.ServeHTTP)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(views.Static()))))

	s.router = r
}

// Library returns the library currently being served.
func (s *Server) Library() *content.Library {
	return s.library.Load()
}

// SetLibrary swaps in a new library. Requests already in flight keep the old one.
func (s *Server) SetLibrary(lib *content.Library) {
	s.library.Store(lib)
}

// Reload rebuilds the library from the content directory. On failure the current library
// stays in place.
func (s *Server) Reload() error {
	lib, err := content.LoadLibrary(s.cfg, s.log.WithField("component", "content"))
	if err != nil {
		return err
	}
	s.SetLibrary(lib)
	s.log.Infof("Content reloaded: %d posts in %d categories", len(lib.Posts), len(lib.Categories))
	return nil
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	h := s.cfg.HTTPServerSettings
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  h.ReadTimeout,
		WriteTimeout: h.WriteTimeout,
		IdleTimeout:  h.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server...")
	if s.hub != nil {
		s.hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.log.Info("HTTP server stopped.")
	return nil
}
