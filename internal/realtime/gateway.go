package realtime

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// Gateway upgrades HTTP requests to WebSocket connections and hands each one
// to the first route whose schema matches the request path. Exactly one
// handler is invoked per successful upgrade; a request no schema matches is
// told why and closed with close code 1008.
type Gateway struct {
	table    *Table
	upgrader websocket.Upgrader
}

// NewGateway creates a gateway dispatching to the given route table.
func NewGateway(table *Table) *Gateway {
	return &Gateway{
		table: table,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Identity checks happen upstream, before the upgrade.
				return true
			},
		},
	}
}

// ServeHTTP performs the upgrade handshake and routes the connection. On a
// match the handler is invoked synchronously with the new connection and the
// extracted params, then the read and write pumps take over until the socket
// closes.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var path string
	if r.URL != nil {
		path = r.URL.Path
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	conn := newConn(ws)

	if path == "" {
		conn.RejectPolicyViolation("No url provided")
		return
	}

	handler, params, ok := g.table.lookup(path)
	if !ok {
		conn.RejectPolicyViolation("No matches for: " + path)
		return
	}

	handler(conn, params)
	if !conn.Open() {
		// The handler rejected the connection during setup.
		return
	}

	go conn.writePump()
	conn.readPump()
}
