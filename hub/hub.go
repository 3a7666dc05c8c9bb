package hub

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub owns all websocket connections of the process. Connection
// register/unregister and inbound intents are funneled into one goroutine and
// handled one at a time, so handlers observe every intent as an atomic step:
// between receiving an intent and issuing its broadcasts no other intent can
// interleave.
type Hub struct {
	clients  map[string]*Client
	channels map[string]*Channel

	register   chan *Client
	unregister chan *Client
	inbound    chan *Request
	// exit signals the hub goroutine to disconnect all clients and stop.
	exit     chan struct{}
	exitOnce sync.Once

	handlers          map[string]Handler
	connectHandler    func(*Hub, Session) error
	disconnectHandler func(*Hub, Session) error

	authenticator Authenticator
	upgrader      websocket.Upgrader
	logger        *slog.Logger
	baseCtx       context.Context
	closeTimeout  time.Duration
	wg            sync.WaitGroup
}

func New(authenticator Authenticator, opts ...Option) *Hub {
	hub := &Hub{
		clients:    make(map[string]*Client),
		channels:   make(map[string]*Channel),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan *Request),
		exit:       make(chan struct{}),
		handlers:   make(map[string]Handler),
		logger: slog.New(slog.NewJSONHandler(os.Stdout,
			&slog.HandlerOptions{Level: slog.LevelInfo})),
		baseCtx:       context.Background(),
		closeTimeout:  10 * time.Second,
		authenticator: authenticator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origin checks are delegated to the CORS middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	for _, opt := range opts {
		opt(hub)
	}
	return hub
}

type Option func(*Hub)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

func WithBaseContext(ctx context.Context) Option {
	return func(h *Hub) {
		h.baseCtx = ctx
	}
}

func WithCloseTimeout(d time.Duration) Option {
	return func(h *Hub) {
		h.closeTimeout = d
	}
}

// Handle registers the handler for an intent type. It panics if the type is
// already taken. Handle must be called before Start.
func (hub *Hub) Handle(t string, h Handler) {
	if _, ok := hub.handlers[t]; ok {
		panic(fmt.Sprintf("handler(%s): already exists", t))
	}
	hub.handlers[t] = h
}

// SetConnectHandler registers a callback that runs after a connection is
// authenticated and registered.
func (hub *Hub) SetConnectHandler(f func(*Hub, Session) error) {
	hub.connectHandler = f
}

// SetDisconnectHandler registers a callback that runs after a connection is
// removed from the hub and released from its channels.
func (hub *Hub) SetDisconnectHandler(f func(*Hub, Session) error) {
	hub.disconnectHandler = f
}

func (hub *Hub) Start() {
	hub.wg.Add(1)
	go func() {
		defer hub.wg.Done()
		hub.run()
	}()
	hub.logger.Info("hub started")
}

func (hub *Hub) run() {
	defer hub.logger.Info("hub stopped")
	for {
		select {
		case <-hub.exit:
			for _, c := range hub.clients {
				hub.disconnect(c)
			}
			return
		case c := <-hub.register:
			hub.clients[c.ID()] = c
			c.logger.Debug("connected")
			if hub.connectHandler != nil {
				if err := hub.connectHandler(hub, c.session); err != nil {
					c.logger.Error(fmt.Sprintf("connect handler: %v", err))
				}
			}
		case c := <-hub.unregister:
			hub.disconnect(c)
		case req := <-hub.inbound:
			hub.dispatch(req)
		}
	}
}

func (hub *Hub) dispatch(req *Request) {
	h, ok := hub.handlers[req.Type]
	if !ok {
		hub.logger.Error(fmt.Sprintf("handler(%s): not found", req.Type))
		return
	}
	defer func() {
		if r := recover(); r != nil {
			hub.logger.Error(fmt.Sprintf("handler(%s): panic: %v", req.Type, r))
		}
	}()
	if err := h(req); err != nil {
		hub.logger.Error(fmt.Sprintf("handler(%s): %v", req.Type, err))
	}
}

// Close disconnects all clients and stops the hub goroutine. It waits for the
// clean up to complete or until the close timeout.
func (hub *Hub) Close() {
	hub.exitOnce.Do(func() {
		close(hub.exit)
	})

	timer := time.NewTimer(hub.closeTimeout)
	defer timer.Stop()
	done := make(chan struct{})
	go func() {
		hub.wg.Wait()
		close(done)
	}()

	select {
	case <-timer.C:
		hub.logger.Info("hub closed with timeout")
	case <-done:
		hub.logger.Info("hub closed gracefully")
	}
}

// ServeHTTP authenticates the connection attempt, upgrades it to a websocket
// connection and registers it with the hub. An authentication failure
// terminates the handshake with 401 and the rejection reason; no session
// state is created.
func (hub *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := hub.authenticator.Authenticate(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error(fmt.Sprintf("upgrade: %v", err))
		return
	}

	session := Session{
		ConnID: uuid.New().String(),
		UserID: identity.UserID,
		Name:   identity.Name,
	}
	client := newClient(hub, conn, session,
		hub.logger.With(slog.String("conn.id", session.ConnID), slog.String("user.id", session.UserID)))

	select {
	case hub.register <- client:
	case <-hub.exit:
		conn.Close()
		return
	}

	hub.wg.Add(1)
	go func() {
		defer hub.wg.Done()
		client.readPump()
	}()
	hub.wg.Add(1)
	go func() {
		defer hub.wg.Done()
		client.writePump()
	}()
}

// receive hands an inbound request to the hub goroutine. It drops the request
// if the hub is exiting.
func (hub *Hub) receive(req *Request) {
	select {
	case hub.inbound <- req:
	case <-hub.exit:
	}
}

// requestDisconnect asks the hub goroutine to remove the client.
func (hub *Hub) requestDisconnect(c *Client) {
	select {
	case hub.unregister <- c:
	case <-hub.exit:
	}
}

// disconnect removes the client from the hub and all its channels. It is
// idempotent. Must run on the hub goroutine.
func (hub *Hub) disconnect(c *Client) {
	if _, ok := hub.clients[c.ID()]; !ok {
		return
	}
	delete(hub.clients, c.ID())
	hub.unsubscribeAll(c.ID())
	close(c.send)
	c.logger.Debug("disconnected")
	if hub.disconnectHandler != nil {
		if err := hub.disconnectHandler(hub, c.session); err != nil {
			c.logger.Error(fmt.Sprintf("disconnect handler: %v", err))
		}
	}
}

// Subscribe adds a connection to a channel, creating the channel if it does
// not exist yet. Unknown connection ids are ignored.
func (hub *Hub) Subscribe(connID, channel string) {
	if _, ok := hub.clients[connID]; !ok {
		return
	}
	ch, ok := hub.channels[channel]
	if !ok {
		ch = NewChannel(channel)
		hub.channels[channel] = ch
	}
	ch.subscribe(connID)
}

// Unsubscribe removes a connection from a channel. Empty channels are
// dropped.
func (hub *Hub) Unsubscribe(connID, channel string) {
	ch, ok := hub.channels[channel]
	if !ok {
		return
	}
	ch.unsubscribe(connID)
	if len(ch.conns) == 0 {
		delete(hub.channels, channel)
	}
}

// UnsubscribeAll releases every channel membership held by a connection.
func (hub *Hub) UnsubscribeAll(connID string) {
	hub.unsubscribeAll(connID)
}

func (hub *Hub) unsubscribeAll(connID string) {
	for id, ch := range hub.channels {
		ch.unsubscribe(connID)
		if len(ch.conns) == 0 {
			delete(hub.channels, id)
		}
	}
}

// Subscribed reports whether a connection is subscribed to a channel.
func (hub *Hub) Subscribed(connID, channel string) bool {
	ch, ok := hub.channels[channel]
	if !ok {
		return false
	}
	return ch.subscribed(connID)
}

// Broadcast delivers a packet to every connected client.
func (hub *Hub) Broadcast(p *OutPacket) {
	for _, c := range hub.clients {
		hub.sendOrDisconnect(c, p)
	}
}

// BroadcastToChannel delivers a packet to every subscriber of a channel.
func (hub *Hub) BroadcastToChannel(p *OutPacket, channel string) {
	ch, ok := hub.channels[channel]
	if !ok {
		return
	}
	for connID := range ch.Subscribers() {
		c, ok := hub.clients[connID]
		if !ok {
			continue
		}
		hub.sendOrDisconnect(c, p)
	}
}

// BroadcastToClients delivers a packet to an explicit list of connections.
func (hub *Hub) BroadcastToClients(p *OutPacket, connIDs ...string) {
	for _, connID := range connIDs {
		c, ok := hub.clients[connID]
		if !ok {
			continue
		}
		hub.sendOrDisconnect(c, p)
	}
}

// sendOrDisconnect queues a packet for a client. If the client's send buffer
// is full it is considered too slow and gets disconnected.
func (hub *Hub) sendOrDisconnect(c *Client, p *OutPacket) {
	select {
	case c.send <- p:
	default:
		hub.disconnect(c)
	}
}
