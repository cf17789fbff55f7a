package room

import (
	"errors"

	"capivara-server/internal/rng"
	"capivara-server/internal/util"
	"capivara-server/pkg/game"
	"capivara-server/pkg/token"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// capacity/state conflicts surfaced to the requesting connection
var (
	// ErrTableFull is returned when every seat is occupied
	ErrTableFull = errors.New("the table is full")

	// ErrTableInProgress is returned when joining mid-session
	ErrTableInProgress = errors.New("a game is already in progress")

	// ErrNotEnoughPlayers is returned when starting with fewer than two seats
	ErrNotEnoughPlayers = errors.New("at least two players are required")
)

const sessionTokenLength = 24

// the solo table's permanent bot seats (session seats 1 and 2)
var botNames = []string{"Capi", "Vara"}

// seat is one slot at a table. occupied tracks the seat reservation, which
// outlives the connection: a disconnected seat stays occupied until its
// grace window expires or it leaves explicitly.
type seat struct {
	client   *Client
	name     string
	token    string
	occupied bool

	// connGen advances every time the seat's connection binding changes.
	// Grace and auto-bid timers capture it at schedule time so a stale
	// firing can detect that the world moved on.
	connGen int

	graceTimer   clockwork.Timer
	autoBidTimer clockwork.Timer
}

// Table is a fixed-capacity table and the single sequential actor owning its
// session state. Every mutation flows through the run loop, in arrival
// order; different tables are fully independent.
type Table struct {
	// ID is the stable table identifier used on the wire
	ID string

	// Name is the display name
	Name string

	// Solo is true for the single-seat table with two bot opponents
	Solo bool

	registry *Registry
	opts     Options
	clock    clockwork.Clock
	rnd      rng.Generator
	logger   logrus.FieldLogger

	seats   []*seat
	session *game.Session
	seatMap []int // table seat -> session seat, or game.NoSeat

	exec chan func()
	done chan bool
}

func newTable(r *Registry, cfg TableConfig) *Table {
	t := &Table{
		ID:       cfg.ID,
		Name:     cfg.Name,
		Solo:     cfg.Solo,
		registry: r,
		opts:     r.opts,
		clock:    r.clock,
		rnd:      rng.Crypto{},
		logger:   logrus.WithField("table", cfg.ID),
		seats:    make([]*seat, cfg.Seats),
		exec:     make(chan func(), 256),
		done:     make(chan bool),
	}

	for i := range t.seats {
		t.seats[i] = &seat{}
	}

	return t
}

// startLoop starts the table's run loop
func (t *Table) startLoop() {
	go t.runLoop()
}

func (t *Table) runLoop() {
	t.logger.Debug("creating table run loop")
	for {
		select {
		case fn := <-t.exec:
			fn()
		case <-t.done:
			t.logger.Debug("terminating table run loop")
			return
		}
	}
}

// stopLoop terminates the run loop. Production tables live for the life of
// the process; this exists for tests.
func (t *Table) stopLoop() {
	close(t.done)
}

// post queues fn on the run loop without waiting. Timer callbacks use this,
// so a full queue drops the action rather than blocking the timer goroutine.
func (t *Table) post(fn func()) {
	select {
	case t.exec <- fn:
	default:
		t.logger.Error("run loop queue full; dropping action")
	}
}

// do runs fn on the run loop and waits for it to complete
func (t *Table) do(fn func()) {
	done := make(chan struct{})
	t.exec <- func() {
		defer close(done)
		fn()
	}
	<-done
}

// Join seats the client at the first free slot. The outcome is reported to
// the client as a JOINED or ERROR message.
func (t *Table) Join(c *Client, name string) {
	t.post(func() { t.handleJoin(c, name) })
}

// Reconnect rebinds a connection to its seat via session token
func (t *Table) Reconnect(c *Client, seatIndex int, tok string) {
	t.post(func() { t.handleReconnect(c, seatIndex, tok) })
}

// HandleMessage processes a message from a seated client
func (t *Table) HandleMessage(c *Client, msg *PayloadIn) {
	t.post(func() { t.handleMessage(c, msg) })
}

func (t *Table) clientDisconnected(c *Client) {
	t.post(func() { t.handleDisconnect(c) })
}

// Summary returns the lobby view of the table
func (t *Table) Summary() LobbySummary {
	var summary LobbySummary
	t.do(func() {
		seated := 0
		names := make([]string, 0, len(t.seats))
		for _, s := range t.seats {
			if s.occupied {
				seated++
				names = append(names, s.name)
			}
		}

		summary = LobbySummary{
			ID:       t.ID,
			Name:     t.Name,
			Solo:     t.Solo,
			Seated:   seated,
			Capacity: len(t.seats),
			Active:   t.sessionActive(),
			Full:     seated == len(t.seats),
			Names:    names,
		}
	})

	return summary
}

// -- everything below runs on the run loop --

func (t *Table) handleMessage(c *Client, msg *PayloadIn) {
	switch msg.Type {
	case TypeLeaveLobby:
		t.handleLeave(c)
	case TypeRequestState:
		t.sendState(c)
	case TypeStart:
		t.handleStart(c)
	case TypeBet:
		t.handleBet(c, msg.Position)
	case TypeRestart:
		t.handleRestart(c)
	default:
		t.logger.WithField("type", msg.Type).Warn("unknown message")
	}
}

func (t *Table) sessionActive() bool {
	return t.session != nil && t.session.Phase() != game.PhaseGameOver
}

func (t *Table) seatOf(c *Client) int {
	for i, s := range t.seats {
		if s.client == c {
			return i
		}
	}

	return game.NoSeat
}

func (t *Table) firstFreeSeat() int {
	for i, s := range t.seats {
		if !s.occupied {
			return i
		}
	}

	return game.NoSeat
}

func (t *Table) occupiedCount() int {
	count := 0
	for _, s := range t.seats {
		if s.occupied {
			count++
		}
	}

	return count
}

func (t *Table) connectedCount() int {
	count := 0
	for _, s := range t.seats {
		if s.occupied && s.client != nil {
			count++
		}
	}

	return count
}

// sessionSeat maps a table seat to its session seat, or game.NoSeat if the
// seat is not part of the current session
func (t *Table) sessionSeat(index int) int {
	if t.seatMap == nil || index < 0 || index >= len(t.seatMap) {
		return game.NoSeat
	}

	return t.seatMap[index]
}

// seatNames returns the per-slot display names ("" for vacant slots)
func (t *Table) seatNames() []string {
	names := make([]string, len(t.seats))
	for i, s := range t.seats {
		if s.occupied {
			names[i] = s.name
		}
	}

	return names
}

func (t *Table) handleJoin(c *Client, name string) {
	if t.sessionActive() && !t.Solo {
		c.Send(newErrorMsg(ErrTableInProgress.Error()))
		return
	}

	index := t.firstFreeSeat()
	if index == game.NoSeat {
		c.Send(newErrorMsg(ErrTableFull.Error()))
		return
	}

	if name == "" {
		name = util.GetRandomName()
	}

	tok, err := token.Generate(sessionTokenLength)
	if err != nil {
		t.logger.WithError(err).Error("could not generate session token")
		c.Send(newErrorMsg("could not create a session token"))
		return
	}

	s := t.seats[index]
	s.occupied = true
	s.name = name
	s.token = tok
	s.client = c
	s.connGen++

	t.registry.registerToken(tok, t.ID, index)
	c.setTable(t)

	c.Send(joinedMsg{
		Type:    outJoined,
		Seat:    index,
		Token:   tok,
		TableID: t.ID,
		Solo:    t.Solo,
		Name:    name,
		Table:   t.Name,
		Names:   t.seatNames(),
	})

	t.notifyOthers(index, playerJoinedMsg{Type: outPlayerJoined, Seat: index, Name: name, Table: t.ID})
	t.logger.WithFields(logrus.Fields{"seat": index, "name": name}).Debug("player joined")

	// the solo table starts playing immediately
	if t.Solo {
		t.startSession()
	}
}

func (t *Table) handleLeave(c *Client) {
	index := t.seatOf(c)
	if index == game.NoSeat {
		return
	}

	t.vacateSeat(index)
}

// vacateSeat hard-removes a seat: the token is cleared, pending timers are
// cancelled, and everyone is notified. A session that can no longer continue
// is force-ended with scores as-is.
func (t *Table) vacateSeat(index int) {
	s := t.seats[index]
	t.stopSeatTimers(s)

	if s.token != "" {
		t.registry.unregisterToken(s.token)
	}

	if s.client != nil {
		s.client.setTable(nil)
	}

	gen := s.connGen + 1
	*s = seat{connGen: gen}

	t.broadcast(playerLeftMsg{Type: outPlayerLeft, Seat: index, Table: t.ID})
	t.logger.WithField("seat", index).Debug("seat vacated")

	if t.Solo {
		// the solo table resets entirely when its human leaves
		t.session = nil
		t.seatMap = nil
		return
	}

	if t.sessionActive() && t.connectedCount() < 2 {
		t.session.ForceEnd()
		t.broadcastState()
		return
	}

	// a running round still needs a bid from the vacated session seat
	t.scheduleAutoBid(index)
}

func (t *Table) handleDisconnect(c *Client) {
	index := t.seatOf(c)
	if index == game.NoSeat {
		return
	}

	s := t.seats[index]
	s.client = nil
	s.connGen++
	c.setTable(nil)

	notifySeat := index
	if gs := t.sessionSeat(index); gs != game.NoSeat {
		notifySeat = gs
	}

	t.broadcast(opponentDisconnectedMsg{
		Type:    outOpponentDisconnectedGrace,
		Seat:    notifySeat,
		Name:    s.name,
		GraceMS: t.opts.GracePeriod.Milliseconds(),
	})

	t.scheduleGraceExpiry(index)
	t.scheduleAutoBid(index)

	t.logger.WithField("seat", index).Debug("seat disconnected; grace window started")
}

func (t *Table) handleReconnect(c *Client, index int, tok string) {
	if index < 0 || index >= len(t.seats) {
		c.Send(reconnectFailMsg{Type: outReconnectFail})
		return
	}

	s := t.seats[index]
	if !s.occupied || s.token != tok || s.client != nil {
		// unknown, stale, or the seat already has a live connection
		c.Send(reconnectFailMsg{Type: outReconnectFail})
		return
	}

	t.stopSeatTimers(s)
	s.connGen++
	s.client = c
	c.setTable(t)

	gameSeat := t.sessionSeat(index)
	c.Send(reconnectedMsg{
		Type:     outReconnected,
		Seat:     index,
		GameSeat: gameSeat,
		Name:     s.name,
		Solo:     t.Solo,
	})
	t.sendState(c)

	notifySeat := index
	if gameSeat != game.NoSeat {
		notifySeat = gameSeat
	}

	t.notifyOthers(index, opponentReconnectedMsg{Type: outOpponentReconnected, Seat: notifySeat, Name: s.name})
	t.logger.WithField("seat", index).Debug("seat reconnected")
}

func (t *Table) sendState(c *Client) {
	index := t.seatOf(c)
	if index == game.NoSeat {
		return
	}

	if t.session == nil {
		c.Send(lobbyStateMsg{Type: outLobbyState, Table: t.Name, Names: t.seatNames(), MySeat: index})
		return
	}

	c.Send(gameStateMsg{Type: outGameState, State: t.session.StateFor(t.sessionSeat(index))})
}

func (t *Table) notifyOthers(exceptSeat int, msg interface{}) {
	for i, s := range t.seats {
		if i != exceptSeat && s.occupied && s.client != nil {
			s.client.Send(msg)
		}
	}
}

func (t *Table) broadcast(msg interface{}) {
	for _, s := range t.seats {
		if s.occupied && s.client != nil {
			s.client.Send(msg)
		}
	}
}
