package game

import (
	"capivara-server/pkg/deck"
)

// scoring bonuses
const (
	birdTokenBonus = 5
	allLiliesBonus = 10
)

// Score returns the score for a scored pile. Scores are always recomputed
// from the pile rather than tracked incrementally, so they can never drift.
func Score(scored []*deck.Card, holdsBird bool) int {
	total := 0
	for _, card := range scored {
		total += card.Capivaras
	}

	if holdsBird {
		total += birdTokenBonus
	}

	if len(LilyColors(scored)) == len(deck.AllLilies) {
		total += allLiliesBonus
	}

	return total
}

// LilyColors returns the distinct lily colors in the pile, in display order
func LilyColors(scored []*deck.Card) []deck.Lily {
	colors := make([]deck.Lily, 0, len(deck.AllLilies))
	for _, lily := range deck.AllLilies {
		for _, card := range scored {
			if card.HasLily(lily) {
				colors = append(colors, lily)
				break
			}
		}
	}

	return colors
}

// Standing is one seat's final score
type Standing struct {
	Seat  int    `json:"seat"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// FinalStandings returns the cached final standings, or nil if the session
// has not ended
func (s *Session) FinalStandings() []Standing {
	return s.standings
}

// WinnerSeat returns the winning seat once the game is over, or NoSeat.
// Score ties break to the lowest seat index.
func (s *Session) WinnerSeat() int {
	if s.standings == nil {
		return NoSeat
	}

	winner := 0
	for i, standing := range s.standings {
		if standing.Score > s.standings[winner].Score {
			winner = i
		}
	}

	return s.standings[winner].Seat
}

func (s *Session) computeStandings() []Standing {
	standings := make([]Standing, s.n)
	for i, seat := range s.seats {
		standings[i] = Standing{
			Seat:  i,
			Name:  seat.Name,
			Score: Score(seat.Scored, s.birdHolder == i),
		}
	}

	return standings
}
