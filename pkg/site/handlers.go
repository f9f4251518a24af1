package site

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/folio-blog/folio/pkg/models"
	"github.com/folio-blog/folio/pkg/search"
	"github.com/folio-blog/folio/pkg/sitemap"
	"github.com/folio-blog/folio/pkg/utils"
)

func (s *Server) options() PageOptions {
	opts := PageOptions{LiveSync: s.hub != nil}
	if s.theme != nil {
		opts.Theme = s.theme.Mode()
	}
	return opts
}

// page buffers a rendered view so a template failure becomes a clean 500.
func (s *Server) page(w http.ResponseWriter, r *http.Request, status int, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		s.log.WithFields(logrus.Fields{
			"path":     r.URL.Path,
			"category": utils.CategorizeError(err),
		}).Errorf("Failed to render page: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	lib := s.Library()
	s.page(w, r, http.StatusOK, func(out io.Writer) error {
		return s.pages.Home(out, lib, s.options())
	})
}

func (s *Server) handleBlog(w http.ResponseWriter, r *http.Request) {
	lib := s.Library()
	q := r.URL.Query()
	s.page(w, r, http.StatusOK, func(out io.Writer) error {
		_, err := s.pages.Blog(out, lib, q.Get("category"), q.Get("q"), "blog", s.options())
		return err
	})
}

// handleBlogCategory serves /blog/{category-slug}, the same addresses the static export uses.
func (s *Server) handleBlogCategory(w http.ResponseWriter, r *http.Request) {
	lib := s.Library()
	slug := chi.URLParam(r, "category")
	for _, name := range lib.Categories {
		if utils.Slugify(name) == slug {
			s.page(w, r, http.StatusOK, func(out io.Writer) error {
				_, err := s.pages.Blog(out, lib, name, r.URL.Query().Get("q"), "blog", s.options())
				return err
			})
			return
		}
	}
	s.handleNotFound(w, r)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	post, ok := s.Library().Lookup(chi.URLParam(r, "slug"))
	if !ok {
		s.page(w, r, http.StatusNotFound, func(out io.Writer) error {
			return s.pages.NotFound(out, "Post not found", s.options())
		})
		return
	}
	s.page(w, r, http.StatusOK, func(out io.Writer) error {
		_, err := s.pages.Post(out, post, s.options())
		return err
	})
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.page(w, r, http.StatusOK, func(out io.Writer) error {
		return s.pages.About(out, s.options())
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		jsonError(w, "not found", http.StatusNotFound)
		return
	}
	s.page(w, r, http.StatusNotFound, func(out io.Writer) error {
		return s.pages.NotFound(out, "Page not found", s.options())
	})
}

// handleToggleTheme flips the theme. Browsers posting the header form are sent back where
// they came from; API clients get the new mode as JSON.
func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	if s.theme == nil {
		jsonError(w, "theme switching is not available", http.StatusServiceUnavailable)
		return
	}
	mode, err := s.theme.Toggle(r.Context())
	if err != nil {
		s.log.WithField("category", utils.CategorizeError(err)).Warnf("Theme changed to %s but was not persisted: %v", mode, err)
	}

	if strings.HasPrefix(r.URL.Path, "/api/") || strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, map[string]any{"mode": mode, "persisted": err == nil})
		return
	}
	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

// backTo returns the referring path when it is on this host, else "/".
func backTo(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != r.Host) {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	mode := models.ThemeLight
	if s.theme != nil {
		mode = s.theme.Mode()
	}
	writeJSON(w, http.StatusOK, map[string]any{"mode": mode})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	lib := s.Library()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"posts":     len(lib.Posts),
		"loaded_at": lib.LoadedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	set := sitemap.Build(s.Library(), s.baseURL(r), func(name string) string {
		return CategoryURL(name, false)
	})
	var buf bytes.Buffer
	if err := sitemap.Write(&buf, set); err != nil {
		s.log.Errorf("Failed to write sitemap: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	buf.WriteTo(w)
}

func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, sitemap.Robots(s.cfg.RobotsTxt, s.baseURL(r)+"/sitemap.xml"))
}

// baseURL is base_url when configured, else the origin the request came in on.
func (s *Server) baseURL(r *http.Request) string {
	if s.cfg.BaseURL != "" {
		return s.cfg.BaseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// handleListPosts lists post metadata. Without a category every post is searched.
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	lib := s.Library()
	q := r.URL.Query()
	category, query := q.Get("category"), q.Get("q")

	var matched []*models.Post
	if category != "" {
		matched = search.Filter(lib.Posts, category, query)
	} else {
		for _, p := range lib.Posts {
			if ok, _ := search.Match(p, query); ok {
				matched = append(matched, p)
			}
		}
	}

	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			jsonError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		if n < len(matched) {
			matched = matched[:n]
		}
	}

	posts := make([]models.Post, 0, len(matched))
	for _, p := range matched {
		meta := *p
		meta.Content = ""
		posts = append(posts, meta)
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts, "count": len(posts)})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.Library().Find(chi.URLParam(r, "slug"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	etag := `"` + utils.ShortHash(post.Content, 16) + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"post":     post,
		"headings": s.pages.Renderer().Headings(post.Content),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	lib := s.Library()
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": lib.CategoryEntries(),
		"default":    lib.DefaultCategory(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
