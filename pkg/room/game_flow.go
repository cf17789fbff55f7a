package room

import (
	"capivara-server/pkg/game"
)

// All of game_flow runs on the table run loop.

func (t *Table) handleStart(c *Client) {
	// only the host may start; anything else is client noise
	if t.seatOf(c) != 0 || t.Solo {
		return
	}

	if t.sessionActive() {
		return
	}

	if t.occupiedCount() < game.MinSeats {
		c.Send(newErrorMsg(ErrNotEnoughPlayers.Error()))
		return
	}

	t.startSession()
}

func (t *Table) handleRestart(c *Client) {
	if t.seatOf(c) != 0 {
		return
	}

	// restart only replaces a finished session
	if t.session == nil || t.session.Phase() != game.PhaseGameOver {
		return
	}

	if !t.Solo && t.occupiedCount() < game.MinSeats {
		c.Send(newErrorMsg(ErrNotEnoughPlayers.Error()))
		return
	}

	t.startSession()
}

// startSession snapshots the occupied seats into a contiguous,
// order-preserving seat map and creates a fresh session over exactly that
// seat set. Seats that later disconnect keep their session seat until they
// are hard-removed.
func (t *Table) startSession() {
	names := make([]string, 0, len(t.seats)+len(botNames))
	seatMap := make([]int, len(t.seats))
	for i := range seatMap {
		seatMap[i] = game.NoSeat
	}

	for i, s := range t.seats {
		if s.occupied {
			seatMap[i] = len(names)
			names = append(names, s.name)
		}
	}

	if t.Solo {
		names = append(names, botNames...)
	}

	sess, err := game.NewSession(t.logger, names, 0)
	if err != nil {
		// startSession callers validate the seat count
		t.logger.WithError(err).Error("could not create session")
		return
	}

	t.session = sess
	t.seatMap = seatMap
	t.logger.WithField("seats", len(names)).Info("session started")

	t.broadcastState()
	t.scheduleRoundTimers()
}

func (t *Table) handleBet(c *Client, position *int) {
	if t.session == nil || position == nil {
		return
	}

	index := t.seatOf(c)
	if index == game.NoSeat {
		return
	}

	t.placeBid(t.sessionSeat(index), *position)
}

// placeBid applies a bid from any source (player, bot, or auto-bid fallback)
// and drives the reveal when it lands the final bid. Rejected bids change
// nothing and are not surfaced.
func (t *Table) placeBid(gameSeat, position int) {
	if t.session == nil || !t.session.PlaceBid(gameSeat, position) {
		return
	}

	t.broadcastState()

	if t.session.Phase() == game.PhaseReveal {
		t.scheduleRevealAdvance()
	}
}

// broadcastState pushes each connected seat its redacted view
func (t *Table) broadcastState() {
	if t.session == nil {
		return
	}

	for i, s := range t.seats {
		if s.occupied && s.client != nil {
			s.client.Send(gameStateMsg{Type: outGameState, State: t.session.StateFor(t.sessionSeat(i))})
		}
	}
}
