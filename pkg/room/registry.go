package room

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Options configures round pacing and disconnect handling
type Options struct {
	// RevealDelay is how long a resolved round stays on display before the
	// next round is dealt
	RevealDelay time.Duration

	// GracePeriod is how long a disconnected seat is reserved before it is
	// hard-vacated
	GracePeriod time.Duration

	// AutoBidDelay is how long a connectionless seat may stall a betting
	// round before a bid is placed on its behalf
	AutoBidDelay time.Duration

	// BotThinkMin and BotThinkMax bound the solo table's bot thinking delays
	BotThinkMin time.Duration
	BotThinkMax time.Duration
}

// DefaultOptions returns the standard pacing
func DefaultOptions() Options {
	return Options{
		RevealDelay:  time.Second * 4,
		GracePeriod:  time.Second * 45,
		AutoBidDelay: time.Second * 10,
		BotThinkMin:  time.Millisecond * 900,
		BotThinkMax:  time.Millisecond * 2600,
	}
}

// TableConfig describes one fixed table
type TableConfig struct {
	ID    string
	Name  string
	Seats int
	Solo  bool
}

// DefaultTables returns the standard table roster
func DefaultTables() []TableConfig {
	return []TableConfig{
		{ID: "lagoa", Name: "Lagoa", Seats: 4},
		{ID: "banhado", Name: "Banhado", Seats: 4},
		{ID: "pantanal", Name: "Pantanal", Seats: 5},
		{ID: "igarape", Name: "Igarapé", Seats: 3},
		{ID: "treino", Name: "Treino", Seats: 1, Solo: true},
	}
}

type tokenBinding struct {
	tableID string
	seat    int
}

// Registry owns the fixed set of tables. It is constructed once at process
// start; tables are never added or removed at runtime.
type Registry struct {
	clock clockwork.Clock
	opts  Options

	tables map[string]*Table
	order  []string

	mu     sync.Mutex
	tokens map[string]tokenBinding
}

// NewRegistry builds the registry and starts a run loop for every table
func NewRegistry(clock clockwork.Clock, opts Options, configs []TableConfig) *Registry {
	r := &Registry{
		clock:  clock,
		opts:   opts,
		tables: make(map[string]*Table, len(configs)),
		order:  make([]string, 0, len(configs)),
		tokens: make(map[string]tokenBinding),
	}

	for _, cfg := range configs {
		t := newTable(r, cfg)
		t.startLoop()
		r.tables[cfg.ID] = t
		r.order = append(r.order, cfg.ID)
	}

	return r
}

// ClientDisconnected is called when a client's connection goes away. This is
// a disconnect, not a leave: the seat enters its grace window.
func (r *Registry) ClientDisconnected(c *Client) {
	if tbl := c.Table(); tbl != nil {
		tbl.clientDisconnected(c)
	}
}

// ReceivedMessage routes an inbound message. Lobby-level messages are handled
// here; everything else is forwarded into the client's table run loop.
func (r *Registry) ReceivedMessage(c *Client, msg *PayloadIn) {
	switch msg.Type {
	case TypePing:
		c.Send(pongMsg{Type: outPong})
	case TypeLobbies:
		c.Send(r.lobbies())
	case TypeJoinLobby:
		if c.Table() != nil {
			c.Send(newErrorMsg("already seated at a table"))
			return
		}

		tbl, ok := r.tables[msg.TableID]
		if !ok {
			c.Send(newErrorMsg("unknown table"))
			return
		}

		tbl.Join(c, msg.PlayerName)
	case TypeReconnect:
		r.reconnect(c, msg.Token)
	default:
		tbl := c.Table()
		if tbl == nil {
			logrus.WithField("client", c.String()).WithField("type", msg.Type).Warn("message from unseated client")
			return
		}

		tbl.HandleMessage(c, msg)
	}
}

func (r *Registry) lobbies() lobbiesMsg {
	tables := make([]LobbySummary, 0, len(r.order))
	for _, id := range r.order {
		tables = append(tables, r.tables[id].Summary())
	}

	return lobbiesMsg{Type: outLobbies, Tables: tables}
}

func (r *Registry) reconnect(c *Client, tok string) {
	if tok == "" || c.Table() != nil {
		c.Send(reconnectFailMsg{Type: outReconnectFail})
		return
	}

	r.mu.Lock()
	binding, ok := r.tokens[tok]
	r.mu.Unlock()

	if !ok {
		c.Send(reconnectFailMsg{Type: outReconnectFail})
		return
	}

	tbl, found := r.tables[binding.tableID]
	if !found {
		c.Send(reconnectFailMsg{Type: outReconnectFail})
		return
	}

	tbl.Reconnect(c, binding.seat, tok)
}

func (r *Registry) registerToken(tok, tableID string, seat int) {
	r.mu.Lock()
	r.tokens[tok] = tokenBinding{tableID: tableID, seat: seat}
	r.mu.Unlock()
}

func (r *Registry) unregisterToken(tok string) {
	r.mu.Lock()
	delete(r.tokens, tok)
	r.mu.Unlock()
}
