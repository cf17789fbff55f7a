package game

import (
	"capivara-server/internal/rng"
	"capivara-server/pkg/deck"
)

// bot desirability weights
const (
	botCapivaraWeight   = 10
	botNewLilyWeight    = 8
	botBirdUnheldBonus  = 20
	botBirdStealBonus   = 15
	botBirdBaseBonus    = 4
	botCollisionPenalty = 30
	botNoiseSpread      = 7 // noise in [-3, 3]
	botTopChoicePercent = 75
)

// BotBid picks a table position for one of the solo table's bot seats.
// otherBid is the other bot's already-committed bid (or NoBid); the bot
// avoids piling onto it. The choice is mostly greedy with a little noise so
// the bots stay unpredictable.
func (s *Session) BotBid(seat int, otherBid int, rnd rng.Generator) int {
	if s.phase != PhaseBetting || seat < 0 || seat >= s.n {
		return NoBid
	}

	best, second := NoBid, NoBid
	bestScore, secondScore := 0, 0
	for position, card := range s.table {
		score := s.botDesire(seat, card, position == otherBid)
		score += rnd.Intn(botNoiseSpread) - botNoiseSpread/2

		if best == NoBid || score > bestScore {
			second, secondScore = best, bestScore
			best, bestScore = position, score
		} else if second == NoBid || score > secondScore {
			second, secondScore = position, score
		}
	}

	if second != NoBid && rnd.Intn(100) >= botTopChoicePercent {
		return second
	}

	return best
}

func (s *Session) botDesire(seat int, card *deck.Card, collision bool) int {
	score := botCapivaraWeight * card.Capivaras

	ownedLilies := LilyColors(s.seats[seat].Scored)
	for _, lily := range card.Lilies {
		owned := false
		for _, have := range ownedLilies {
			if have == lily {
				owned = true
				break
			}
		}

		if !owned {
			score += botNewLilyWeight
		}
	}

	if card.Bird {
		switch {
		case s.birdHolder == NoSeat:
			score += botBirdUnheldBonus
		case s.birdHolder != seat && s.seats[seat].BirdCards+1 > s.seats[s.birdHolder].BirdCards:
			score += botBirdStealBonus
		default:
			score += botBirdBaseBonus
		}
	}

	if collision {
		score -= botCollisionPenalty
	}

	return score
}
