package live

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-blog/folio/pkg/content"
	"github.com/folio-blog/folio/pkg/models"
	"github.com/folio-blog/folio/pkg/render"
	"github.com/folio-blog/folio/pkg/storage"
	"github.com/folio-blog/folio/pkg/theme"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

const postBody = "Intro.\n\n## Getting Started\n\ntext\n\n### Install\n\nmore\n\n> ## Quoted\n\n## Results\n"

func testLibrary() *content.Library {
	return content.NewLibrary([]*models.Post{
		{ID: "1", Slug: "hello", Title: "Hello", Category: "NLP", Content: postBody},
	}, nil)
}

func startHub(t *testing.T, themeCtx *theme.Context) (*Hub, string) {
	t.Helper()
	lib := testLibrary()
	hub := NewHub(func() *content.Library { return lib }, render.New(render.Options{}), themeCtx, "", testLogger())
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func receive(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_MountObservesRenderedSections(t *testing.T) {
	_, url := startHub(t, nil)
	conn := dial(t, url)

	send(t, conn, ClientMessage{Type: TypeMount, Slug: "hello"})
	msg := receive(t, conn)

	assert.Equal(t, TypeObserve, msg["type"])
	assert.EqualValues(t, 1, msg["generation"])
	assert.Equal(t, "-50% 0px -50% 0px", msg["rootMargin"])
	assert.Equal(t, []any{"getting-started", "install", "results"}, msg["targets"],
		"only table-of-contents headings are observed")
}

func TestHub_IntersectUpdatesTOC(t *testing.T) {
	_, url := startHub(t, nil)
	conn := dial(t, url)
	send(t, conn, ClientMessage{Type: TypeMount, Slug: "hello"})
	receive(t, conn)

	send(t, conn, ClientMessage{Type: TypeIntersect, Generation: 1, Entries: []IntersectionEntry{
		{ID: "getting-started", Intersecting: true},
		{ID: "unknown", Intersecting: true},
		{ID: "install", Intersecting: false},
	}})

	first := receive(t, conn)
	assert.Equal(t, TypeTOC, first["type"])
	assert.Equal(t, "getting-started", first["anchor"])
	assert.Equal(t, true, first["active"])

	second := receive(t, conn)
	assert.Equal(t, "install", second["anchor"])
	assert.Equal(t, false, second["active"])
}

func TestHub_RemountIgnoresStaleGeneration(t *testing.T) {
	_, url := startHub(t, nil)
	conn := dial(t, url)
	send(t, conn, ClientMessage{Type: TypeMount, Slug: "hello"})
	receive(t, conn)

	send(t, conn, ClientMessage{Type: TypeMount, Slug: "hello"})
	disc := receive(t, conn)
	assert.Equal(t, TypeDisconnect, disc["type"])
	assert.EqualValues(t, 1, disc["generation"])
	obs := receive(t, conn)
	assert.Equal(t, TypeObserve, obs["type"])
	assert.EqualValues(t, 2, obs["generation"])

	send(t, conn, ClientMessage{Type: TypeIntersect, Generation: 1, Entries: []IntersectionEntry{{ID: "results", Intersecting: true}}})
	send(t, conn, ClientMessage{Type: TypeIntersect, Generation: 2, Entries: []IntersectionEntry{{ID: "install", Intersecting: true}}})

	msg := receive(t, conn)
	assert.Equal(t, "install", msg["anchor"], "the stale report produced nothing")
}

func TestHub_UnmountDisconnects(t *testing.T) {
	_, url := startHub(t, nil)
	conn := dial(t, url)
	send(t, conn, ClientMessage{Type: TypeMount, Slug: "hello"})
	receive(t, conn)

	send(t, conn, ClientMessage{Type: TypeUnmount})
	msg := receive(t, conn)
	assert.Equal(t, TypeDisconnect, msg["type"])

	send(t, conn, ClientMessage{Type: TypeIntersect, Generation: 1, Entries: []IntersectionEntry{{ID: "results", Intersecting: true}}})
	send(t, conn, ClientMessage{Type: "bogus"})
	msg = receive(t, conn)
	assert.Equal(t, TypeError, msg["type"], "intersections after unmount are dropped")
}

func TestHub_MountUnknownSlug(t *testing.T) {
	_, url := startHub(t, nil)
	conn := dial(t, url)

	send(t, conn, ClientMessage{Type: TypeMount, Slug: "missing"})
	msg := receive(t, conn)

	assert.Equal(t, TypeError, msg["type"])
	assert.Equal(t, "post not found", msg["message"])
}

func TestHub_MalformedFrame(t *testing.T) {
	_, url := startHub(t, nil)
	conn := dial(t, url)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	msg := receive(t, conn)
	assert.Equal(t, TypeError, msg["type"])
}

func TestHub_BroadcastsThemeChanges(t *testing.T) {
	ctx := context.Background()
	themeCtx := theme.Load(ctx, storage.NewMemoryStore(), testLogger())
	hub, url := startHub(t, themeCtx)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.SessionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err := themeCtx.Toggle(ctx)
	require.NoError(t, err)

	msg := receive(t, conn)
	assert.Equal(t, TypeTheme, msg["type"])
	assert.Equal(t, "dark", msg["mode"])
}

func TestHub_CloseEndsSessions(t *testing.T) {
	hub, url := startHub(t, nil)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.SessionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
	require.Eventually(t, func() bool { return hub.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSameOrigin(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://blog.example/live", nil)
	assert.True(t, sameOrigin(r), "no origin header")

	r.Header.Set("Origin", "http://blog.example")
	assert.True(t, sameOrigin(r))

	r.Header.Set("Origin", "http://evil.example")
	assert.False(t, sameOrigin(r))
}
