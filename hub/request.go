package hub

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/imaxbooking/chat-server/auth"
)

// Session identifies the connection an intent arrived on. The identity is
// assigned once, when the connection is authenticated, and never changes for
// the lifetime of the connection.
type Session struct {
	// ConnID is the server-generated id of the connection.
	ConnID string
	UserID string
	Name   string
}

// Request is an inbound intent together with the session it arrived on.
type Request struct {
	Type    string
	Payload json.RawMessage
	Session Session
	ctx     context.Context
}

func NewRequest(ctx context.Context, t string, payload json.RawMessage, session Session) *Request {
	return &Request{
		Type:    t,
		Payload: payload,
		Session: session,
		ctx:     ctx,
	}
}

func (r *Request) Context() context.Context {
	return r.ctx
}

// Handler processes one inbound intent. Handlers run on the hub goroutine,
// one at a time, so hub state may be mutated without locking.
type Handler func(*Request) error

// Authenticator validates the credential presented at
// connection-establishment time. It is called exactly once per connection
// attempt, before the websocket upgrade. It must be safe to call
// concurrently.
type Authenticator interface {
	Authenticate(r *http.Request) (auth.Identity, error)
}
