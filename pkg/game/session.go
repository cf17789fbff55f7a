package game

import (
	"fmt"

	"capivara-server/pkg/deck"

	"github.com/sirupsen/logrus"
)

// Phase represents the current phase of a round
type Phase int

const (
	// PhaseBetting is when seats place their secret bids
	PhaseBetting Phase = iota
	// PhaseReveal is when the bids have been resolved and are shown
	PhaseReveal
	// PhaseGameOver is when the session has ended
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseBetting:
		return "betting"
	case PhaseReveal:
		return "reveal"
	case PhaseGameOver:
		return "gameOver"
	default:
		return "unknown"
	}
}

// NoBid is the value of an unset bid slot
const NoBid = -1

// NoSeat is the value of an unset seat reference (e.g., no bird holder)
const NoSeat = -1

// minimum and maximum number of seats in a session
const (
	MinSeats = 2
	MaxSeats = 5
)

// Seat is a player's standing within a session. Seat identity is stable for
// the life of the session, independent of the connection occupying it.
type Seat struct {
	Name      string
	Scored    []*deck.Card
	BirdCards int
}

// Session owns the mutable state of one table's game and drives a single
// round at a time. It is not safe for concurrent use; the room layer
// serializes all access through the table run loop.
type Session struct {
	n          int
	deck       *deck.Deck
	discard    []*deck.Card
	table      []*deck.Card
	bids       []int
	seats      []*Seat
	birdHolder int
	phase      Phase
	deckPass   int
	turnGen    int64
	lastResult *Result
	standings  []Standing

	logger logrus.FieldLogger
}

// NewSession returns a new session over the given seats and deals the first
// round. Pass seed=0 for a time-based shuffle.
func NewSession(logger logrus.FieldLogger, names []string, seed int64) (*Session, error) {
	if len(names) < MinSeats || len(names) > MaxSeats {
		return nil, fmt.Errorf("expected %d-%d seats, got %d", MinSeats, MaxSeats, len(names))
	}

	d := deck.New()
	d.Shuffle(seed)

	n := len(names)
	seats := make([]*Seat, n)
	for i, name := range names {
		seats[i] = &Seat{Name: name}
	}

	s := &Session{
		n:          n,
		deck:       d,
		seats:      seats,
		bids:       make([]int, n),
		birdHolder: NoSeat,
		phase:      PhaseBetting,
		logger:     logger,
	}

	s.clearBids()
	if err := s.dealTable(); err != nil {
		return nil, err
	}

	return s, nil
}

// N returns the number of seats
func (s *Session) N() int {
	return s.n
}

// Phase returns the current phase
func (s *Session) Phase() Phase {
	return s.phase
}

// TurnGen returns the epoch counter. It strictly increases on every phase
// transition and fences deferred actions against stale execution.
func (s *Session) TurnGen() int64 {
	return s.turnGen
}

// DeckPass returns which traversal of the deck the session is on (0 or 1)
func (s *Session) DeckPass() int {
	return s.deckPass
}

// DeckLeft returns the number of undealt cards
func (s *Session) DeckLeft() int {
	return s.deck.CardsLeft()
}

// BirdHolder returns the seat holding the bird token, or NoSeat
func (s *Session) BirdHolder() int {
	return s.birdHolder
}

// Bid returns the seat's bid, or NoBid
func (s *Session) Bid(seat int) int {
	if seat < 0 || seat >= s.n {
		return NoBid
	}

	return s.bids[seat]
}

// Table returns the current up-cards
func (s *Session) Table() []*deck.Card {
	return s.table
}

// Seats returns the per-seat standings
func (s *Session) Seats() []*Seat {
	return s.seats
}

// LastResult returns the result of the most recent resolution, or nil
func (s *Session) LastResult() *Result {
	return s.lastResult
}

// PlaceBid records a bid for the seat. Bids outside [0, n), bids from a seat
// that already bid, and bids outside the betting phase are dropped with no
// state change. Malformed or late client messages are expected under network
// jitter and are not errors.
// Returns true if the bid was accepted. The moment the last required bid
// lands the round resolves and the session enters the reveal phase.
func (s *Session) PlaceBid(seat, position int) bool {
	if s.phase != PhaseBetting {
		return false
	}

	if seat < 0 || seat >= s.n || position < 0 || position >= s.n {
		return false
	}

	if s.bids[seat] != NoBid {
		return false
	}

	s.bids[seat] = position

	for _, bid := range s.bids {
		if bid == NoBid {
			return true
		}
	}

	s.resolveRound()
	return true
}

// resolveRound scores the bids, moves cards to their new owners or the
// discard, and enters the reveal phase.
func (s *Session) resolveRound() {
	birdCards := make([]int, s.n)
	for i, seat := range s.seats {
		birdCards[i] = seat.BirdCards
	}

	result := Resolve(s.table, s.bids, birdCards, s.birdHolder)

	for position, card := range s.table {
		if winner, ok := result.Winners[position]; ok {
			s.seats[winner].Scored = append(s.seats[winner].Scored, card)
			if card.Bird {
				s.seats[winner].BirdCards++
			}
		} else {
			s.discard = append(s.discard, card)
		}
	}

	if result.BirdUpdate != nil {
		s.birdHolder = result.BirdUpdate.Holder
	}

	s.table = nil
	s.lastResult = result
	s.phase = PhaseReveal
	s.turnGen++

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"winners": result.Winners,
			"turnGen": s.turnGen,
		}).Debug("round resolved")
	}
}

// AdvanceRound moves a revealed session into the next betting round. If the
// deck cannot cover a full deal, the discard is reshuffled in once per
// session; a second exhaustion ends the game.
func (s *Session) AdvanceRound() {
	if s.phase != PhaseReveal {
		return
	}

	if !s.deck.CanDraw(s.n) {
		if s.deckPass > 0 {
			s.endGame()
			return
		}

		s.reshuffleDiscard()
		s.deckPass = 1

		if !s.deck.CanDraw(s.n) {
			// nearly every card has been scored; nothing left to deal
			s.endGame()
			return
		}
	}

	if err := s.dealTable(); err != nil {
		// CanDraw was checked above
		s.endGame()
		return
	}

	s.clearBids()
	s.lastResult = nil
	s.phase = PhaseBetting
	s.turnGen++
}

// ForceEnd ends the session immediately with scores computed as-is. Used when
// too few connected seats remain to continue.
func (s *Session) ForceEnd() {
	if s.phase == PhaseGameOver {
		return
	}

	s.endGame()
}

func (s *Session) endGame() {
	s.phase = PhaseGameOver
	s.turnGen++
	s.standings = s.computeStandings()
}

// reshuffleDiscard folds the remaining deck cards and the discard back into
// a freshly shuffled deck.
func (s *Session) reshuffleDiscard() {
	cards := make([]*deck.Card, 0, s.deck.CardsLeft()+len(s.discard))
	for {
		card, err := s.deck.Draw()
		if err != nil {
			break
		}

		cards = append(cards, card)
	}

	cards = append(cards, s.discard...)
	s.deck.ShuffleDiscards(cards)
	s.discard = nil
}

func (s *Session) dealTable() error {
	table := make([]*deck.Card, s.n)
	for i := 0; i < s.n; i++ {
		card, err := s.deck.Draw()
		if err != nil {
			return err
		}

		table[i] = card
	}

	s.table = table
	return nil
}

func (s *Session) clearBids() {
	for i := range s.bids {
		s.bids[i] = NoBid
	}
}

// CardCount returns the total number of cards tracked by the session across
// the deck, discard, table, and scored piles. It must always equal deck.Size.
func (s *Session) CardCount() int {
	total := s.deck.CardsLeft() + len(s.discard) + len(s.table)
	for _, seat := range s.seats {
		total += len(seat.Scored)
	}

	return total
}
