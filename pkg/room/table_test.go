package room

import (
	"testing"
	"time"

	"capivara-server/pkg/game"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T, configs ...TableConfig) (*Registry, *clockwork.FakeClock) {
	t.Helper()

	clock := clockwork.NewFakeClock()
	r := NewRegistry(clock, DefaultOptions(), configs)

	t.Cleanup(func() {
		for _, tbl := range r.tables {
			tbl.stopLoop()
		}
	})

	return r, clock
}

// awaitMsg reads from the client's send channel until match returns true
func awaitMsg(t *testing.T, c *Client, match func(interface{}) bool) interface{} {
	t.Helper()

	deadline := time.After(time.Second * 2)
	for {
		select {
		case msg := <-c.SendChan():
			if match(msg) {
				return msg
			}
		case <-deadline:
			t.Fatal("timed out waiting for message")
			return nil
		}
	}
}

func awaitJoined(t *testing.T, c *Client) joinedMsg {
	t.Helper()

	msg := awaitMsg(t, c, func(m interface{}) bool {
		_, ok := m.(joinedMsg)
		return ok
	})

	return msg.(joinedMsg)
}

func awaitError(t *testing.T, c *Client) errorMsg {
	t.Helper()

	msg := awaitMsg(t, c, func(m interface{}) bool {
		_, ok := m.(errorMsg)
		return ok
	})

	return msg.(errorMsg)
}

func join(t *testing.T, r *Registry, tableID, name string) (*Client, joinedMsg) {
	t.Helper()

	c := NewClient(nil, r)
	r.ReceivedMessage(c, &PayloadIn{Type: TypeJoinLobby, TableID: tableID, PlayerName: name})

	return c, awaitJoined(t, c)
}

func intp(i int) *int {
	return &i
}

// sessionPhase reads the session phase and epoch through the run loop
func sessionPhase(tbl *Table) (phase game.Phase, gen int64, active bool) {
	tbl.do(func() {
		if tbl.session != nil {
			phase = tbl.session.Phase()
			gen = tbl.session.TurnGen()
			active = true
		}
	})

	return
}

func TestTable_Join(t *testing.T) {
	r, _ := testRegistry(t, TableConfig{ID: "t1", Name: "Test", Seats: 2})

	c1, j1 := join(t, r, "t1", "alice")
	assert.Equal(t, 0, j1.Seat)
	assert.Equal(t, "alice", j1.Name)
	assert.Equal(t, "t1", j1.TableID)
	assert.NotEmpty(t, j1.Token)

	_, j2 := join(t, r, "t1", "")
	assert.Equal(t, 1, j2.Seat)
	assert.NotEmpty(t, j2.Name, "a blank name gets a generated one")
	assert.NotEqual(t, j1.Token, j2.Token)

	// the first seat hears about the second
	msg := awaitMsg(t, c1, func(m interface{}) bool {
		_, ok := m.(playerJoinedMsg)
		return ok
	})
	assert.Equal(t, 1, msg.(playerJoinedMsg).Seat)

	// the table is now full
	c3 := NewClient(nil, r)
	r.ReceivedMessage(c3, &PayloadIn{Type: TypeJoinLobby, TableID: "t1"})
	assert.Equal(t, ErrTableFull.Error(), awaitError(t, c3).Text)

	summary := r.tables["t1"].Summary()
	assert.Equal(t, 2, summary.Seated)
	assert.True(t, summary.Full)
	assert.False(t, summary.Active)
	assert.Equal(t, []string{"alice", j2.Name}, summary.Names)
}

func TestTable_StartRules(t *testing.T) {
	r, _ := testRegistry(t, TableConfig{ID: "t1", Name: "Test", Seats: 3})

	c1, _ := join(t, r, "t1", "alice")

	// a lone host cannot start
	r.ReceivedMessage(c1, &PayloadIn{Type: TypeStart})
	assert.Equal(t, ErrNotEnoughPlayers.Error(), awaitError(t, c1).Text)

	c2, _ := join(t, r, "t1", "bob")

	// only the host can start
	r.ReceivedMessage(c2, &PayloadIn{Type: TypeStart})
	tbl := r.tables["t1"]
	tbl.do(func() {})
	_, _, active := sessionPhase(tbl)
	assert.False(t, active)

	r.ReceivedMessage(c1, &PayloadIn{Type: TypeStart})
	awaitMsg(t, c1, func(m interface{}) bool {
		_, ok := m.(gameStateMsg)
		return ok
	})

	phase, _, active := sessionPhase(tbl)
	assert.True(t, active)
	assert.Equal(t, game.PhaseBetting, phase)

	// nobody can join mid-session
	c3 := NewClient(nil, r)
	r.ReceivedMessage(c3, &PayloadIn{Type: TypeJoinLobby, TableID: "t1"})
	assert.Equal(t, ErrTableInProgress.Error(), awaitError(t, c3).Text)
}

func TestTable_BetFlow(t *testing.T) {
	r, clock := testRegistry(t, TableConfig{ID: "t1", Name: "Test", Seats: 2})
	tbl := r.tables["t1"]

	c1, _ := join(t, r, "t1", "alice")
	c2, _ := join(t, r, "t1", "bob")
	r.ReceivedMessage(c1, &PayloadIn{Type: TypeStart})

	r.ReceivedMessage(c1, &PayloadIn{Type: TypeBet, Position: intp(0)})
	r.ReceivedMessage(c2, &PayloadIn{Type: TypeBet, Position: intp(1)})

	// both bids landed, so the round resolved
	assert.Eventually(t, func() bool {
		phase, _, _ := sessionPhase(tbl)
		return phase == game.PhaseReveal
	}, time.Second*2, time.Millisecond*10)

	// each seat got its own redacted view
	msg := awaitMsg(t, c2, func(m interface{}) bool {
		gs, ok := m.(gameStateMsg)
		return ok && gs.State.Phase == "reveal"
	})
	state := msg.(gameStateMsg).State
	require.NotNil(t, state.LastResult)
	assert.Len(t, state.LastResult.Revealed, 2)

	// the reveal window elapses and the next round is dealt
	clock.Advance(DefaultOptions().RevealDelay)
	assert.Eventually(t, func() bool {
		phase, gen, _ := sessionPhase(tbl)
		return phase == game.PhaseBetting && gen == 2
	}, time.Second*2, time.Millisecond*10)
}

func TestTable_StaleRevealTimerIsFenced(t *testing.T) {
	r, clock := testRegistry(t, TableConfig{ID: "t1", Name: "Test", Seats: 2})
	tbl := r.tables["t1"]

	c1, _ := join(t, r, "t1", "alice")
	c2, _ := join(t, r, "t1", "bob")
	r.ReceivedMessage(c1, &PayloadIn{Type: TypeStart})
	r.ReceivedMessage(c1, &PayloadIn{Type: TypeBet, Position: intp(0)})
	r.ReceivedMessage(c2, &PayloadIn{Type: TypeBet, Position: intp(1)})

	assert.Eventually(t, func() bool {
		phase, _, _ := sessionPhase(tbl)
		return phase == game.PhaseReveal
	}, time.Second*2, time.Millisecond*10)

	// a leave force-ends the session while the reveal timer is pending
	r.ReceivedMessage(c2, &PayloadIn{Type: TypeLeaveLobby})
	assert.Eventually(t, func() bool {
		phase, _, _ := sessionPhase(tbl)
		return phase == game.PhaseGameOver
	}, time.Second*2, time.Millisecond*10)

	_, gen, _ := sessionPhase(tbl)

	// the stale timer fires into a changed epoch and must do nothing
	clock.Advance(DefaultOptions().RevealDelay)
	time.Sleep(time.Millisecond * 50)
	tbl.do(func() {})

	phase, genAfter, _ := sessionPhase(tbl)
	assert.Equal(t, game.PhaseGameOver, phase)
	assert.Equal(t, gen, genAfter)
}

func TestTable_DisconnectAutoBid(t *testing.T) {
	r, clock := testRegistry(t, TableConfig{ID: "t1", Name: "Test", Seats: 2})
	tbl := r.tables["t1"]

	c1, _ := join(t, r, "t1", "alice")
	c2, _ := join(t, r, "t1", "bob")
	r.ReceivedMessage(c1, &PayloadIn{Type: TypeStart})
	awaitMsg(t, c1, func(m interface{}) bool {
		_, ok := m.(gameStateMsg)
		return ok
	})

	r.ClientDisconnected(c2)
	msg := awaitMsg(t, c1, func(m interface{}) bool {
		_, ok := m.(opponentDisconnectedMsg)
		return ok
	})
	assert.Equal(t, DefaultOptions().GracePeriod.Milliseconds(), msg.(opponentDisconnectedMsg).GraceMS)

	r.ReceivedMessage(c1, &PayloadIn{Type: TypeBet, Position: intp(0)})
	tbl.do(func() {})

	// the absent seat gets a fallback bid, which resolves the round
	clock.Advance(DefaultOptions().AutoBidDelay)
	assert.Eventually(t, func() bool {
		phase, _, _ := sessionPhase(tbl)
		return phase == game.PhaseReveal
	}, time.Second*2, time.Millisecond*10)
}

func TestTable_GraceExpiry(t *testing.T) {
	r, clock := testRegistry(t, TableConfig{ID: "t1", Name: "Test", Seats: 2})
	tbl := r.tables["t1"]

	c1, _ := join(t, r, "t1", "alice")
	c2, _ := join(t, r, "t1", "bob")
	r.ReceivedMessage(c1, &PayloadIn{Type: TypeStart})

	r.ClientDisconnected(c2)
	tbl.do(func() {})

	clock.Advance(DefaultOptions().GracePeriod)

	// the seat is hard-removed and the session cannot continue
	assert.Eventually(t, func() bool {
		var occupied bool
		tbl.do(func() { occupied = tbl.seats[1].occupied })
		phase, _, _ := sessionPhase(tbl)
		return !occupied && phase == game.PhaseGameOver
	}, time.Second*2, time.Millisecond*10)

	awaitMsg(t, c1, func(m interface{}) bool {
		left, ok := m.(playerLeftMsg)
		return ok && left.Seat == 1
	})
}

func TestTable_LeaveMidRoundFallsBackToAutoBid(t *testing.T) {
	r, clock := testRegistry(t, TableConfig{ID: "t1", Name: "Test", Seats: 3})
	tbl := r.tables["t1"]

	c1, _ := join(t, r, "t1", "alice")
	c2, _ := join(t, r, "t1", "bob")
	c3, _ := join(t, r, "t1", "carol")
	r.ReceivedMessage(c1, &PayloadIn{Type: TypeStart})

	// two connected seats remain, so the session keeps going
	r.ReceivedMessage(c3, &PayloadIn{Type: TypeLeaveLobby})

	r.ReceivedMessage(c1, &PayloadIn{Type: TypeBet, Position: intp(0)})
	r.ReceivedMessage(c2, &PayloadIn{Type: TypeBet, Position: intp(1)})
	tbl.do(func() {})

	phase, _, _ := sessionPhase(tbl)
	assert.Equal(t, game.PhaseBetting, phase, "the vacated seat still owes a bid")

	clock.Advance(DefaultOptions().AutoBidDelay)
	assert.Eventually(t, func() bool {
		phase, _, _ := sessionPhase(tbl)
		return phase == game.PhaseReveal
	}, time.Second*2, time.Millisecond*10)
}

func TestTable_Reconnect(t *testing.T) {
	r, clock := testRegistry(t, TableConfig{ID: "t1", Name: "Test", Seats: 2})
	tbl := r.tables["t1"]

	c1, _ := join(t, r, "t1", "alice")
	c2, j2 := join(t, r, "t1", "bob")
	r.ReceivedMessage(c1, &PayloadIn{Type: TypeStart})

	// a token for a seat with a live connection is refused
	imposter := NewClient(nil, r)
	r.ReceivedMessage(imposter, &PayloadIn{Type: TypeReconnect, Token: j2.Token})
	awaitMsg(t, imposter, func(m interface{}) bool {
		_, ok := m.(reconnectFailMsg)
		return ok
	})

	r.ClientDisconnected(c2)

	c3 := NewClient(nil, r)
	r.ReceivedMessage(c3, &PayloadIn{Type: TypeReconnect, Token: j2.Token})

	msg := awaitMsg(t, c3, func(m interface{}) bool {
		_, ok := m.(reconnectedMsg)
		return ok
	})
	rec := msg.(reconnectedMsg)
	assert.Equal(t, 1, rec.Seat)
	assert.Equal(t, "bob", rec.Name)

	// the rebound seat immediately gets its view of the game
	awaitMsg(t, c3, func(m interface{}) bool {
		_, ok := m.(gameStateMsg)
		return ok
	})
	awaitMsg(t, c1, func(m interface{}) bool {
		_, ok := m.(opponentReconnectedMsg)
		return ok
	})

	// the reconnect cancelled the grace and auto-bid fallbacks
	clock.Advance(DefaultOptions().GracePeriod)
	time.Sleep(time.Millisecond * 50)
	tbl.do(func() {})

	var occupied bool
	var bid int
	tbl.do(func() {
		occupied = tbl.seats[1].occupied
		bid = tbl.session.Bid(1)
	})
	assert.True(t, occupied)
	assert.Equal(t, game.NoBid, bid)

	// an unknown token is refused outright
	c4 := NewClient(nil, r)
	r.ReceivedMessage(c4, &PayloadIn{Type: TypeReconnect, Token: "bogus"})
	awaitMsg(t, c4, func(m interface{}) bool {
		_, ok := m.(reconnectFailMsg)
		return ok
	})
}

func TestTable_SoloBots(t *testing.T) {
	r, clock := testRegistry(t, TableConfig{ID: "s", Name: "Solo", Seats: 1, Solo: true})
	tbl := r.tables["s"]

	c1, j1 := join(t, r, "s", "alice")
	assert.True(t, j1.Solo)

	// the solo table starts playing immediately, human plus two bots
	msg := awaitMsg(t, c1, func(m interface{}) bool {
		_, ok := m.(gameStateMsg)
		return ok
	})
	state := msg.(gameStateMsg).State
	assert.Equal(t, 3, state.N)
	require.Len(t, state.Players, 3)
	assert.True(t, state.Players[0].Me)

	r.ReceivedMessage(c1, &PayloadIn{Type: TypeBet, Position: intp(0)})
	tbl.do(func() {})

	// both bots finish thinking and the round resolves
	clock.Advance(DefaultOptions().BotThinkMax + time.Second)
	assert.Eventually(t, func() bool {
		phase, _, _ := sessionPhase(tbl)
		return phase == game.PhaseReveal
	}, time.Second*2, time.Millisecond*10)

	// the next round re-arms the bots
	clock.Advance(DefaultOptions().RevealDelay)
	assert.Eventually(t, func() bool {
		phase, _, _ := sessionPhase(tbl)
		return phase == game.PhaseBetting
	}, time.Second*2, time.Millisecond*10)

	tbl.do(func() {})
	r.ReceivedMessage(c1, &PayloadIn{Type: TypeBet, Position: intp(1)})
	clock.Advance(DefaultOptions().BotThinkMax + time.Second)
	assert.Eventually(t, func() bool {
		phase, _, _ := sessionPhase(tbl)
		return phase == game.PhaseReveal
	}, time.Second*2, time.Millisecond*10)

	// the human leaving resets the table entirely
	r.ReceivedMessage(c1, &PayloadIn{Type: TypeLeaveLobby})
	assert.Eventually(t, func() bool {
		_, _, active := sessionPhase(tbl)
		return !active
	}, time.Second*2, time.Millisecond*10)
}

func TestTable_Restart(t *testing.T) {
	r, _ := testRegistry(t, TableConfig{ID: "t1", Name: "Test", Seats: 3})
	tbl := r.tables["t1"]

	c1, _ := join(t, r, "t1", "alice")
	c2, _ := join(t, r, "t1", "bob")
	r.ReceivedMessage(c1, &PayloadIn{Type: TypeStart})

	// restart is refused while the game is still running
	r.ReceivedMessage(c1, &PayloadIn{Type: TypeRestart})
	tbl.do(func() {})
	phase, _, _ := sessionPhase(tbl)
	assert.Equal(t, game.PhaseBetting, phase)

	r.ReceivedMessage(c2, &PayloadIn{Type: TypeLeaveLobby})
	assert.Eventually(t, func() bool {
		phase, _, _ := sessionPhase(tbl)
		return phase == game.PhaseGameOver
	}, time.Second*2, time.Millisecond*10)

	// down to one seat, a restart needs more players first
	r.ReceivedMessage(c1, &PayloadIn{Type: TypeRestart})
	assert.Equal(t, ErrNotEnoughPlayers.Error(), awaitError(t, c1).Text)

	// a finished session does not block new joins
	join(t, r, "t1", "carol")

	r.ReceivedMessage(c1, &PayloadIn{Type: TypeRestart})
	assert.Eventually(t, func() bool {
		phase, _, _ := sessionPhase(tbl)
		return phase == game.PhaseBetting
	}, time.Second*2, time.Millisecond*10)
}

func TestClient_SendNeverBlocks(t *testing.T) {
	c := NewClient(nil, nil)

	for i := 0; i < cap(c.send); i++ {
		assert.True(t, c.Send(i))
	}

	// a full buffer drops instead of blocking
	assert.False(t, c.Send("overflow"))
}
