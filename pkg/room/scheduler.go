package room

import (
	"time"

	"capivara-server/pkg/game"

	"github.com/jonboulle/clockwork"
)

// Deferred actions carry an epoch fence: the session pointer, turn generation,
// and phase captured at schedule time. A firing whose fence no longer matches
// is a stale timer from a world that has already moved on, and it does
// nothing. Timer cancellation via Stop is best-effort only; the fence is the
// actual correctness mechanism.

// scheduleFenced runs fn on the run loop after delay, but only if the session
// epoch is unchanged.
func (t *Table) scheduleFenced(delay time.Duration, fn func()) clockwork.Timer {
	sess := t.session
	gen := sess.TurnGen()
	phase := sess.Phase()

	return t.clock.AfterFunc(delay, func() {
		t.post(func() {
			if t.session != sess || t.session.TurnGen() != gen || t.session.Phase() != phase {
				return
			}

			fn()
		})
	})
}

// scheduleRevealAdvance moves the session into the next betting round once the
// reveal window elapses.
func (t *Table) scheduleRevealAdvance() {
	t.scheduleFenced(t.opts.RevealDelay, func() {
		t.session.AdvanceRound()
		t.broadcastState()
		t.scheduleRoundTimers()
	})
}

// scheduleRoundTimers arms whatever deferred bids the new betting round needs:
// bot bids on the solo table, and auto-bid fallbacks for any seat sitting out
// a grace window.
func (t *Table) scheduleRoundTimers() {
	if t.session == nil || t.session.Phase() != game.PhaseBetting {
		return
	}

	if t.Solo {
		t.scheduleBotBids()
	}

	// session seats without a live connection, disconnected or vacated,
	// fall back to an automatic bid
	for i, s := range t.seats {
		if s.client == nil && t.sessionSeat(i) != game.NoSeat {
			t.scheduleAutoBid(i)
		}
	}
}

// scheduleBotBids arms both bot seats for the current betting round. The
// second bot is staggered behind the first so the bids land like two separate
// opponents thinking at their own pace.
func (t *Table) scheduleBotBids() {
	first := t.botThinkDelay()
	second := first + t.botStagger()

	// bot session seats sit after the lone human seat
	t.scheduleBotBid(1, 2, first)
	t.scheduleBotBid(2, 1, second)
}

// scheduleBotBid arms one bot seat. The other bot's bid is read at fire time,
// so the second bot reacts to whatever the first has already committed.
func (t *Table) scheduleBotBid(botSeat, otherBot int, delay time.Duration) {
	t.scheduleFenced(delay, func() {
		position := t.session.BotBid(botSeat, t.session.Bid(otherBot), t.rnd)
		t.placeBid(botSeat, position)
	})
}

func (t *Table) botThinkDelay() time.Duration {
	spread := int(t.opts.BotThinkMax - t.opts.BotThinkMin)
	if spread <= 0 {
		return t.opts.BotThinkMin
	}

	return t.opts.BotThinkMin + time.Duration(t.rnd.Intn(spread))
}

func (t *Table) botStagger() time.Duration {
	return time.Millisecond*250 + time.Duration(t.rnd.Intn(int(time.Millisecond*600)))
}

// scheduleAutoBid arms the fallback bid for a disconnected seat so one absent
// player cannot stall the round. The firing is fenced on both the session
// epoch and the seat's connection generation; a reconnect cancels it.
func (t *Table) scheduleAutoBid(index int) {
	if t.session == nil || t.session.Phase() != game.PhaseBetting {
		return
	}

	gameSeat := t.sessionSeat(index)
	if gameSeat == game.NoSeat || t.session.Bid(gameSeat) != game.NoBid {
		return
	}

	s := t.seats[index]
	gen := s.connGen

	s.autoBidTimer = t.scheduleFenced(t.opts.AutoBidDelay, func() {
		if s.connGen != gen {
			return
		}

		position := t.rnd.Intn(t.session.N())
		t.logger.WithField("seat", index).Debug("placing automatic bid for disconnected seat")
		t.placeBid(gameSeat, position)
	})
}

// scheduleGraceExpiry hard-vacates a disconnected seat once its grace window
// runs out.
func (t *Table) scheduleGraceExpiry(index int) {
	s := t.seats[index]
	gen := s.connGen

	s.graceTimer = t.clock.AfterFunc(t.opts.GracePeriod, func() {
		t.post(func() {
			if !s.occupied || s.connGen != gen {
				return
			}

			t.logger.WithField("seat", index).Info("grace window expired; removing seat")
			t.vacateSeat(index)
		})
	})
}

func (t *Table) stopSeatTimers(s *seat) {
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}

	if s.autoBidTimer != nil {
		s.autoBidTimer.Stop()
		s.autoBidTimer = nil
	}
}
