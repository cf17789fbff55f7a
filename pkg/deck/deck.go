package deck

import (
	"errors"
	"math/rand"
	"time"
)

// Size is the number of cards in a full deck
const Size = 36

// ErrEndOfDeck is an error when Draw() is attempted and there are no more cards
var ErrEndOfDeck = errors.New("end of deck reached")

// composition is the fixed 36-card multiset. Card identity is positional;
// duplicates are expected.
var composition = []struct {
	count     int
	capivaras int
	lilies    []Lily
	bird      bool
}{
	{1, 1, []Lily{Pink}, false},
	{1, 1, []Lily{White}, false},
	{1, 1, []Lily{Yellow}, false},
	{1, 1, []Lily{Blue}, false},
	{4, 1, nil, true},
	{4, 2, nil, false},
	{1, 2, []Lily{Pink, White}, false},
	{1, 2, []Lily{Yellow, Blue}, false},
	{1, 2, []Lily{Pink, Yellow}, false},
	{1, 2, []Lily{White, Blue}, false},
	{1, 3, []Lily{Pink}, false},
	{1, 3, []Lily{White}, false},
	{1, 3, []Lily{Yellow}, false},
	{1, 3, []Lily{Blue}, false},
	{2, 3, nil, true},
	{2, 3, nil, false},
	{4, 4, nil, false},
	{1, 4, []Lily{White, Yellow}, false},
	{1, 4, []Lily{Pink, Blue}, false},
	{1, 4, []Lily{Pink}, false},
	{1, 4, []Lily{Yellow}, false},
	{2, 5, nil, false},
	{1, 5, []Lily{White}, false},
	{1, 5, []Lily{Blue}, false},
}

// Deck represents a capivara deck
type Deck struct {
	Cards []*Card `json:"cards"`
	seed  int64
	rng   *rand.Rand
}

// New returns a new deck of cards.
// Important! this deck is unshuffled. You must call the Shuffle() method to shuffle the cards
func New() *Deck {
	d := &Deck{
		seed: -1,
	}

	d.buildDeck()
	return d
}

// SetSeed will set the seed
// This should only be used by tests. Setting the seed is normally handled when you call Shuffle()
func (d *Deck) SetSeed(seed int64) {
	d.seed = seed
	d.rng = rand.New(rand.NewSource(seed)) // nolint:gosec
}

func (d *Deck) buildDeck() {
	cards := make([]*Card, 0, Size)
	for _, def := range composition {
		for i := 0; i < def.count; i++ {
			cards = append(cards, &Card{
				Capivaras: def.capivaras,
				Lilies:    append([]Lily(nil), def.lilies...),
				Bird:      def.bird,
			})
		}
	}

	d.Cards = cards
}

// Shuffle will shuffle the deck of cards
// You can manually specify the seed, or you can leave it as 0 for a time-based seed.
func (d *Deck) Shuffle(seed int64) {
	if seed < 0 {
		panic("seed cannot be < 0")
	}

	// we always want to shuffle from an unshuffled deck.
	// this check here is to make sure we aren't double building the deck
	if len(d.Cards) != Size || d.seed != -1 {
		d.buildDeck()
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	d.SetSeed(seed)

	for j := len(d.Cards) - 1; j > 0; j-- {
		i := d.rng.Intn(j + 1)

		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	}
}

// ShuffleDiscards will replace the existing deck with the cards specified
func (d *Deck) ShuffleDiscards(discards []*Card) {
	cards := make([]*Card, len(discards))
	copy(cards, discards)

	for j := len(cards) - 1; j > 0; j-- {
		i := d.rng.Intn(j + 1)

		cards[i], cards[j] = cards[j], cards[i]
	}

	d.Cards = cards
}

// GetSeed returns the seed used to shuffle the deck
func (d *Deck) GetSeed() int64 {
	return d.seed
}

// Draw will draw the next card
// If there are no more cards, an ErrEndOfDeck is returned along with a nil card.
func (d *Deck) Draw() (*Card, error) {
	if len(d.Cards) <= 0 {
		return nil, ErrEndOfDeck
	}

	card := d.Cards[0]
	d.Cards = d.Cards[1:]

	return card, nil
}

// CanDraw returns true if there are {want} cards left in the deck
func (d *Deck) CanDraw(want int) bool {
	return len(d.Cards) >= want
}

// CardsLeft returns the number of cards left in the deck
func (d *Deck) CardsLeft() int {
	return len(d.Cards)
}
