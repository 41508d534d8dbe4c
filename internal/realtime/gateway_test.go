package realtime_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jordan-Tam/mini-wiki-sub000/internal/realtime"
)

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + path
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	return ws
}

func readText(t *testing.T, ws *websocket.Conn) string {
	t.Helper()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	messageType, message, err := ws.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, messageType)
	return string(message)
}

func expectPolicyViolationClose(t *testing.T, ws *websocket.Conn) {
	t.Helper()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := ws.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation),
		"expected close code 1008, got: %v", err)
}

func TestGatewayDispatch(t *testing.T) {
	table := realtime.NewTable()

	gotParams := make(chan realtime.Params, 1)
	table.Handle("/wiki/:id/chat/:usr", func(conn *realtime.Conn, params realtime.Params) {
		gotParams <- params
	})

	var shadowed atomic.Int32
	table.Handle("/wiki/:id/chat/:usr", func(conn *realtime.Conn, params realtime.Params) {
		shadowed.Add(1)
	})

	server := httptest.NewServer(realtime.NewGateway(table))
	defer server.Close()

	ws := dial(t, server, "/wiki/42/chat/alice")
	defer ws.Close()

	select {
	case params := <-gotParams:
		assert.Equal(t, realtime.Params{":id": "42", ":usr": "alice"}, params)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}

	assert.Equal(t, int32(0), shadowed.Load(), "only the first matching route may dispatch")
}

func TestGatewayDispatchOrder(t *testing.T) {
	table := realtime.NewTable()

	invoked := make(chan string, 1)
	table.Handle("/wiki/:id", func(conn *realtime.Conn, params realtime.Params) {
		invoked <- ":id=" + params[":id"]
	})
	table.Handle("/wiki/admin", func(conn *realtime.Conn, params realtime.Params) {
		invoked <- "admin"
	})

	server := httptest.NewServer(realtime.NewGateway(table))
	defer server.Close()

	ws := dial(t, server, "/wiki/admin")
	defer ws.Close()

	select {
	case got := <-invoked:
		// Registration order decides: the parameter route was first.
		assert.Equal(t, ":id=admin", got)
	case <-time.After(2 * time.Second):
		t.Fatal("no handler invoked")
	}
}

func TestGatewayNoRouteMatch(t *testing.T) {
	table := realtime.NewTable()

	var invoked atomic.Int32
	table.Handle("/wiki/:id/chat/:usr", func(conn *realtime.Conn, params realtime.Params) {
		invoked.Add(1)
	})

	server := httptest.NewServer(realtime.NewGateway(table))
	defer server.Close()

	ws := dial(t, server, "/unregistered/path")
	defer ws.Close()

	assert.Equal(t, "No matches for: /unregistered/path", readText(t, ws))
	expectPolicyViolationClose(t, ws)
	assert.Equal(t, int32(0), invoked.Load())
}

func newChatServer(t *testing.T) (*httptest.Server, *realtime.Registry) {
	t.Helper()

	registry := realtime.NewRegistry()
	table := realtime.NewTable()
	table.Handle("/wiki/:id/chat/:usr", realtime.ChatHandler(registry, nil, nil))

	server := httptest.NewServer(realtime.NewGateway(table))
	t.Cleanup(server.Close)
	return server, registry
}

func TestChatInvalidRoomID(t *testing.T) {
	server, registry := newChatServer(t)

	ws := dial(t, server, "/wiki/abc/chat/alice")
	defer ws.Close()

	assert.Equal(t, "Invalid id: abc", readText(t, ws))
	expectPolicyViolationClose(t, ws)
	assert.False(t, registry.Has("abc"), "no broadcaster may be created for an invalid id")
}

func TestChatNegativeRoomID(t *testing.T) {
	server, registry := newChatServer(t)

	ws := dial(t, server, "/wiki/-1/chat/alice")
	defer ws.Close()

	assert.Equal(t, "Invalid id: -1", readText(t, ws))
	expectPolicyViolationClose(t, ws)
	assert.False(t, registry.Has("-1"))
}

func TestChatRoomScenario(t *testing.T) {
	server, registry := newChatServer(t)

	alice := dial(t, server, "/wiki/42/chat/alice")
	defer alice.Close()
	assert.Equal(t, "alice has joined the chat!", readText(t, alice))

	bob := dial(t, server, "/wiki/42/chat/bob")
	defer bob.Close()
	assert.Equal(t, "bob has joined the chat!", readText(t, bob))
	assert.Equal(t, "bob has joined the chat!", readText(t, alice))

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("hi")))
	assert.Equal(t, "alice: hi", readText(t, alice))
	assert.Equal(t, "alice: hi", readText(t, bob))

	assert.Equal(t, map[string]int{"42": 2}, registry.Rooms())
}

func TestChatRoomsAreIndependent(t *testing.T) {
	server, _ := newChatServer(t)

	alice := dial(t, server, "/wiki/1/chat/alice")
	defer alice.Close()
	assert.Equal(t, "alice has joined the chat!", readText(t, alice))

	bob := dial(t, server, "/wiki/2/chat/bob")
	defer bob.Close()
	assert.Equal(t, "bob has joined the chat!", readText(t, bob))

	require.NoError(t, bob.WriteMessage(websocket.TextMessage, []byte("hello room 2")))
	assert.Equal(t, "bob: hello room 2", readText(t, bob))

	// Alice must not see room 2 traffic.
	require.NoError(t, alice.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := alice.ReadMessage()
	require.Error(t, err)
}

func TestChatLeaveNoticeAndRoomReclaim(t *testing.T) {
	server, registry := newChatServer(t)

	alice := dial(t, server, "/wiki/42/chat/alice")
	defer alice.Close()
	assert.Equal(t, "alice has joined the chat!", readText(t, alice))

	bob := dial(t, server, "/wiki/42/chat/bob")
	assert.Equal(t, "bob has joined the chat!", readText(t, bob))
	assert.Equal(t, "bob has joined the chat!", readText(t, alice))

	require.NoError(t, bob.Close())
	assert.Equal(t, "bob has left the chat", readText(t, alice))

	require.NoError(t, alice.Close())
	require.Eventually(t, func() bool {
		return registry.Len() == 0
	}, 2*time.Second, 10*time.Millisecond, "emptied room must be reclaimed")
}

func TestChatReconnectDisplacesPreviousSession(t *testing.T) {
	server, registry := newChatServer(t)

	first := dial(t, server, "/wiki/42/chat/alice")
	defer first.Close()
	assert.Equal(t, "alice has joined the chat!", readText(t, first))

	second := dial(t, server, "/wiki/42/chat/alice")
	defer second.Close()
	assert.Equal(t, "alice has joined the chat!", readText(t, second))

	// One participant key, one membership.
	assert.Equal(t, map[string]int{"42": 1}, registry.Rooms())

	// The stale session closing must not tear down the new one.
	require.NoError(t, first.Close())
	require.Never(t, func() bool {
		return !registry.Has("42")
	}, 300*time.Millisecond, 50*time.Millisecond)

	require.NoError(t, second.WriteMessage(websocket.TextMessage, []byte("back")))
	assert.Equal(t, "alice: back", readText(t, second))
}
