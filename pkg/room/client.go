package room

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is a connection to the server via websockets. A client may be
// browsing the lobby or bound to a table seat; the binding is created on
// join or reconnect and cleared when the seat is hard-vacated.
type Client struct {
	// Conn is the underlying websocket connection
	Conn *websocket.Conn

	// ID is a per-connection identifier used for log tracing
	ID string

	// Close is a channel for closing the client
	Close chan string

	// CloseError contains the reason why the connection was closed
	CloseError error

	send chan interface{}

	registry *Registry

	mu    sync.Mutex
	table *Table
}

// NewClient returns a new client object
func NewClient(conn *websocket.Conn, registry *Registry) *Client {
	return &Client{
		Conn:     conn,
		ID:       uuid.New().String(),
		Close:    make(chan string),
		send:     make(chan interface{}, 256),
		registry: registry,
	}
}

// Send sends a message to the web client without blocking. Delivery is
// fire-and-forget relative to the state change that produced the message.
func (c *Client) Send(msg interface{}) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// SendChan returns a read-only channel of outbound messages
func (c *Client) SendChan() <-chan interface{} {
	return c.send
}

// String returns a traceable identifier for the connection
func (c *Client) String() string {
	if tbl := c.Table(); tbl != nil {
		return fmt.Sprintf("%s:%s", c.ID, tbl.ID)
	}

	return c.ID
}

// Table returns the table this client is seated at, or nil
func (c *Client) Table() *Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table
}

func (c *Client) setTable(t *Table) {
	c.mu.Lock()
	c.table = t
	c.mu.Unlock()
}

// ReceivedMessage is called when the server receives a message from a connected client
func (c *Client) ReceivedMessage(msg *PayloadIn) {
	c.registry.ReceivedMessage(c, msg)
}
