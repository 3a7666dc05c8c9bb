package hub

import (
	"iter"
	"maps"
)

// Channel is a named group of connections. Broadcasting to a channel delivers
// to exactly its current subscribers. Channels are only touched from the hub
// goroutine.
type Channel struct {
	ID    string
	conns map[string]bool
}

func NewChannel(id string) *Channel {
	return &Channel{
		ID:    id,
		conns: make(map[string]bool),
	}
}

func (c *Channel) subscribe(connID string) {
	c.conns[connID] = true
}

func (c *Channel) unsubscribe(connID string) {
	delete(c.conns, connID)
}

func (c *Channel) subscribed(connID string) bool {
	return c.conns[connID]
}

// Subscribers returns a sequence of the connection ids subscribed to the
// channel.
func (c *Channel) Subscribers() iter.Seq[string] {
	return maps.Keys(c.conns)
}
