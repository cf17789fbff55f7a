package game

import (
	"capivara-server/pkg/deck"
)

// bird update events
const (
	// BirdEventFirst is when an unheld bird token finds its first holder
	BirdEventFirst = "first"
	// BirdEventSteal is when the token transfers to a seat with strictly more bird cards
	BirdEventSteal = "steal"
)

// BirdUpdate describes a change of bird-token ownership
type BirdUpdate struct {
	Event  string `json:"event"`
	Holder int    `json:"holder"`
}

// Result is the outcome of resolving one round of bids
type Result struct {
	// Winners maps a table position to the seat awarded that card. Positions
	// with zero or contested bids are absent.
	Winners map[int]int `json:"winners"`

	// Revealed are the up-cards that were bid on, by position
	Revealed []*deck.Card `json:"revealed"`

	// Bids are the now-public bids, by seat
	Bids []int `json:"bids"`

	// BirdUpdate is set when the bird token changed hands this round
	BirdUpdate *BirdUpdate `json:"birdUpdate,omitempty"`
}

// Resolve scores one round of bids. It is a pure function: table holds the
// up-cards, bids holds one position per seat, birdCards holds each seat's
// bird-card count before this round, and birdHolder is the seat holding the
// bird token (or NoSeat).
//
// A position with exactly one bidder awards its card to that bidder; any
// other position awards nothing. The bird token finds its first holder when
// unheld, and transfers only to a seat whose post-award bird-card count
// strictly exceeds the holder's. A tie never transfers the token.
func Resolve(table []*deck.Card, bids []int, birdCards []int, birdHolder int) *Result {
	bidders := make(map[int]int)
	for _, position := range bids {
		bidders[position]++
	}

	winners := make(map[int]int)
	for seat, position := range bids {
		if bidders[position] == 1 {
			winners[position] = seat
		}
	}

	result := &Result{
		Winners:  winners,
		Revealed: table,
		Bids:     append([]int(nil), bids...),
	}

	// post-award bird counts
	counts := append([]int(nil), birdCards...)
	birdWinners := make([]int, 0, 1)
	for position, card := range table {
		if !card.Bird {
			continue
		}

		seat, ok := winners[position]
		if !ok {
			continue
		}

		counts[seat]++
		birdWinners = append(birdWinners, seat)
	}

	if len(birdWinners) == 0 {
		return result
	}

	if birdHolder == NoSeat {
		result.BirdUpdate = &BirdUpdate{
			Event:  BirdEventFirst,
			Holder: birdWinners[0],
		}

		return result
	}

	challenger := NoSeat
	for _, seat := range birdWinners {
		if seat == birdHolder {
			continue
		}

		if challenger == NoSeat || counts[seat] > counts[challenger] {
			challenger = seat
		}
	}

	if challenger != NoSeat && counts[challenger] > counts[birdHolder] {
		result.BirdUpdate = &BirdUpdate{
			Event:  BirdEventSteal,
			Holder: challenger,
		}
	}

	return result
}
