package game

import (
	"capivara-server/pkg/deck"
)

// State is the redacted view of a session for one seat.
// Other seats' bids are reduced to a has-bid mask until the reveal; the
// viewer only ever sees their own pending bid.
type State struct {
	Phase      string         `json:"phase"`
	N          int            `json:"n"`
	Table      []*deck.Card   `json:"table"`
	MyBet      *int           `json:"myBet,omitempty"`
	BetsPlaced []bool         `json:"betsPlaced"`
	LastResult *Result        `json:"lastResult,omitempty"`
	Players    []*StatePlayer `json:"players"`
	BirdHolder int            `json:"birdHolder"`
	DeckPass   int            `json:"deckPass"`
	DeckLeft   int            `json:"deckLeft"`
	Winner     *int           `json:"winner,omitempty"`
	Standings  []Standing     `json:"standings,omitempty"`
}

// StatePlayer is the public information about one seat
type StatePlayer struct {
	Name      string      `json:"name"`
	Score     int         `json:"score"`
	Lilies    []deck.Lily `json:"lilies"`
	BirdCards int         `json:"birdCards"`
	Me        bool        `json:"me"`
}

// StateFor returns the session state as visible to the given seat.
// Pass NoSeat for a view with no "me" seat.
func (s *Session) StateFor(viewer int) *State {
	betsPlaced := make([]bool, s.n)
	for i, bid := range s.bids {
		betsPlaced[i] = bid != NoBid
	}

	players := make([]*StatePlayer, s.n)
	for i, seat := range s.seats {
		players[i] = &StatePlayer{
			Name:      seat.Name,
			Score:     Score(seat.Scored, s.birdHolder == i),
			Lilies:    LilyColors(seat.Scored),
			BirdCards: seat.BirdCards,
			Me:        i == viewer,
		}
	}

	state := &State{
		Phase:      s.phase.String(),
		N:          s.n,
		Table:      s.table,
		BetsPlaced: betsPlaced,
		Players:    players,
		BirdHolder: s.birdHolder,
		DeckPass:   s.deckPass,
		DeckLeft:   s.deck.CardsLeft(),
	}

	if viewer >= 0 && viewer < s.n && s.bids[viewer] != NoBid {
		myBet := s.bids[viewer]
		state.MyBet = &myBet
	}

	// resolved bids only become public once the round is over
	if s.phase != PhaseBetting {
		state.LastResult = s.lastResult
	}

	if s.phase == PhaseGameOver {
		winner := s.WinnerSeat()
		state.Winner = &winner
		state.Standings = s.standings
	}

	return state
}
