// Package live bridges browser viewport events to server-side scroll-sync observers
// over a WebSocket, and pushes theme changes to every open page.
package live

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/folio-blog/folio/pkg/content"
	"github.com/folio-blog/folio/pkg/models"
	"github.com/folio-blog/folio/pkg/render"
	"github.com/folio-blog/folio/pkg/scrollsync"
	"github.com/folio-blog/folio/pkg/theme"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

// LibraryFunc returns the library currently being served.
type LibraryFunc func() *content.Library

// Hub owns every live session.
type Hub struct {
	upgrader   websocket.Upgrader
	library    LibraryFunc
	renderer   *render.Renderer
	rootMargin string
	log        *logrus.Entry

	mu       sync.RWMutex
	sessions map[string]*Session

	unsubscribe func()
}

// NewHub creates a hub. When themeCtx is non-nil every toggle is broadcast to all sessions.
func NewHub(library LibraryFunc, renderer *render.Renderer, themeCtx *theme.Context, rootMargin string, log *logrus.Entry) *Hub {
	if rootMargin == "" {
		rootMargin = scrollsync.DefaultRootMargin
	}
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     sameOrigin,
		},
		library:    library,
		renderer:   renderer,
		rootMargin: rootMargin,
		log:        log,
		sessions:   make(map[string]*Session),
	}
	if themeCtx != nil {
		h.unsubscribe = themeCtx.Subscribe(func(mode models.ThemeMode) {
			h.Broadcast(ThemeMessage{Type: TypeTheme, Mode: mode.String()})
		})
	}
	return h
}

// sameOrigin accepts requests without an Origin header (non-browser clients) and those
// whose Origin host matches the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// ServeHTTP upgrades the connection and runs the session until the socket closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("Failed to upgrade live connection: %v", err)
		return
	}

	s := newSession(uuid.NewString(), h, conn)
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()
	s.log.Debug("Live session opened")

	s.run()

	h.mu.Lock()
	delete(h.sessions, s.ID)
	h.mu.Unlock()
	s.log.Debug("Live session closed")
}

// Broadcast queues msg on every open session.
func (h *Hub) Broadcast(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Errorf("Failed to encode broadcast: %v", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		s.enqueue(data)
	}
}

// SessionCount returns the number of open sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close stops theme broadcasts and closes every session.
func (h *Hub) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		s.close()
	}
}
