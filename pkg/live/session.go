package live

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/folio-blog/folio/pkg/render"
	"github.com/folio-blog/folio/pkg/scrollsync"
)

// Session is one open page. It implements scrollsync.Primitive by relaying observation
// requests to the browser and feeding the browser's intersection reports back.
//
// The observer and the primitive state are only touched from the read loop.
type Session struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	log  *logrus.Entry

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	observer   *scrollsync.Observer
	generation uint64
	targets    map[string]scrollsync.Element
	callback   func([]scrollsync.Entry)
}

type section struct{ id string }

func (e *section) ID() string { return e.id }

type tocEntry struct {
	s      *Session
	anchor string
}

func (t *tocEntry) SetActive(active bool) {
	t.s.write(TOCMessage{Type: TypeTOC, Anchor: t.anchor, Active: active})
}

type subscription struct {
	s          *Session
	generation uint64
}

func (sub *subscription) Disconnect() {
	sub.s.disconnect(sub.generation)
}

func newSession(id string, hub *Hub, conn *websocket.Conn) *Session {
	s := &Session{
		ID:   id,
		hub:  hub,
		conn: conn,
		log:  hub.log.WithField("session", id),
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	s.observer = scrollsync.New(s, scrollsync.Options{RootMargin: hub.rootMargin}, s.log)
	return s
}

// Observe implements scrollsync.Primitive.
func (s *Session) Observe(targets []scrollsync.Element, opts scrollsync.Options, callback func([]scrollsync.Entry)) scrollsync.Subscription {
	s.generation++
	s.targets = make(map[string]scrollsync.Element, len(targets))
	ids := make([]string, 0, len(targets))
	for _, t := range targets {
		s.targets[t.ID()] = t
		ids = append(ids, t.ID())
	}
	s.callback = callback

	s.write(ObserveMessage{
		Type:       TypeObserve,
		Generation: s.generation,
		Targets:    ids,
		RootMargin: opts.RootMargin,
	})
	return &subscription{s: s, generation: s.generation}
}

func (s *Session) disconnect(generation uint64) {
	if generation == s.generation {
		s.targets = nil
		s.callback = nil
	}
	s.write(DisconnectMessage{Type: TypeDisconnect, Generation: generation})
}

// run drives the session: a writer goroutine drains the send queue while this goroutine
// reads client frames until the socket fails or the hub closes it.
func (s *Session) run() {
	defer s.close()
	defer s.observer.Unmount()

	go s.writer()

	s.conn.SetReadLimit(64 * 1024)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debugf("Unexpected close: %v", err)
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Debugf("Ignoring malformed frame: %v", err)
			s.write(ErrorMessage{Type: TypeError, Message: "malformed message"})
			continue
		}
		s.handle(msg)
	}
}

func (s *Session) handle(msg ClientMessage) {
	switch msg.Type {
	case TypeMount:
		s.mount(msg.Slug)
	case TypeIntersect:
		s.intersect(msg.Generation, msg.Entries)
	case TypeUnmount:
		s.observer.Unmount()
	default:
		s.log.Debugf("Ignoring unknown message type %q", msg.Type)
		s.write(ErrorMessage{Type: TypeError, Message: "unknown message type"})
	}
}

// mount registers the sections of the post with the given slug. Only headings that the
// renderer actually anchored are observed.
func (s *Session) mount(slug string) {
	lib := s.hub.library()
	if lib == nil {
		s.write(ErrorMessage{Type: TypeError, Message: "content not loaded"})
		return
	}
	post, ok := lib.Lookup(slug)
	if !ok {
		s.observer.Unmount()
		s.write(ErrorMessage{Type: TypeError, Message: "post not found"})
		return
	}

	res, err := s.hub.renderer.Render(post.Content)
	if err != nil {
		s.log.Warnf("Failed to render %s for live sync: %v", slug, err)
		s.observer.Unmount()
		s.write(ErrorMessage{Type: TypeError, Message: "render failed"})
		return
	}

	headings := render.Observable(res.Headings, res.SectionIDs)
	sections := make([]scrollsync.Section, 0, len(headings))
	seen := make(map[string]bool, len(headings))
	for _, h := range headings {
		if seen[h.Anchor] {
			continue
		}
		seen[h.Anchor] = true
		sections = append(sections, scrollsync.Section{
			Element: &section{id: h.Anchor},
			Entry:   &tocEntry{s: s, anchor: h.Anchor},
		})
	}
	s.observer.Mount(sections)
}

func (s *Session) intersect(generation uint64, entries []IntersectionEntry) {
	if s.callback == nil || generation != s.generation {
		s.log.Debugf("Dropping intersection report for stale generation %d (current %d)", generation, s.generation)
		return
	}
	batch := make([]scrollsync.Entry, 0, len(entries))
	for _, e := range entries {
		target, ok := s.targets[e.ID]
		if !ok {
			continue
		}
		batch = append(batch, scrollsync.Entry{Target: target, IsIntersecting: e.Intersecting})
	}
	if len(batch) > 0 {
		s.callback(batch)
	}
}

// write encodes msg and queues it for the writer.
func (s *Session) write(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Errorf("Failed to encode message: %v", err)
		return
	}
	s.enqueue(data)
}

func (s *Session) enqueue(data []byte) {
	select {
	case <-s.done:
	case s.send <- data:
	default:
		s.log.Warn("Send buffer full, dropping message")
	}
}

func (s *Session) writer() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.log.Debugf("Write failed: %v", err)
				s.conn.Close()
				s.close()
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.conn.Close()
				s.close()
				return
			}

		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			s.conn.Close()
			return
		}
	}
}

// close signals the writer, which sends a close frame and closes the socket; that in
// turn ends the read loop.
func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}
