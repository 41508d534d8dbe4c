package realtime

import (
	"context"
	"log"
	"strconv"
)

// ActivityRecorder counts chat traffic per room. The redis leaderboard
// implements it; a nil recorder disables activity tracking.
type ActivityRecorder interface {
	Touch(ctx context.Context, room string) error
}

// Sanitizer rewrites chat text before it is fanned out to a room. The
// default is the identity: messages are relayed verbatim, and any injection
// protection is the caller's policy, not the transport's.
type Sanitizer func(text string) string

// ChatHandler returns the route handler for room-scoped text chat. It
// expects the ":id" (room) and ":usr" (participant) params from its schema,
// e.g. "/wiki/:id/chat/:usr".
//
// The room id must parse as a non-negative integer; otherwise the connection
// is told "Invalid id: <id>" and closed with 1008 before any registration. A
// valid join registers the connection with overwrite, so a reconnecting user
// displaces their previous session in that room.
func ChatHandler(registry *Registry, activity ActivityRecorder, sanitize Sanitizer) Handler {
	if sanitize == nil {
		sanitize = func(text string) string { return text }
	}

	return func(conn *Conn, params Params) {
		id := params[":id"]
		usr := params[":usr"]

		if n, err := strconv.Atoi(id); err != nil || n < 0 {
			conn.RejectPolicyViolation("Invalid id: " + id)
			return
		}

		b, err := registry.Join(id, usr, conn, true)
		if err != nil {
			// Unreachable while joins overwrite, kept for a future
			// single-session mode.
			conn.RejectPolicyViolation(err.Error())
			return
		}

		conn.OnText(func(text string) {
			b.Broadcast(usr + ": " + sanitize(text))
			if activity != nil {
				if err := activity.Touch(context.Background(), id); err != nil {
					log.Printf("Recording chat activity for room %s: %v", id, err)
				}
			}
		})

		conn.OnClose(func() {
			if err := registry.Leave(id, usr, conn); err == nil {
				b.Broadcast(usr + " has left the chat")
			}
		})

		b.Broadcast(usr + " has joined the chat!")
	}
}
