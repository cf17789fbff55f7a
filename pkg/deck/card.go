package deck

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Lily is one of the four lily colors that may decorate a card
type Lily string

// lily constants
const (
	Pink   Lily = "pink"
	White  Lily = "white"
	Yellow Lily = "yellow"
	Blue   Lily = "blue"
)

// AllLilies is every lily color in display order
var AllLilies = []Lily{Pink, White, Yellow, Blue}

// Card is an individual capivara card
type Card struct {
	// Capivaras is the primary value of the card (1-5)
	Capivaras int `json:"capivaras"`

	// Lilies are the 0-2 lily colors on the card
	Lilies []Lily `json:"lilies"`

	// Bird is true if the card carries the bird flag
	Bird bool `json:"bird"`
}

func (c *Card) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(c.Capivaras))
	for _, lily := range c.Lilies {
		sb.WriteByte(lily[0])
	}

	if c.Bird {
		sb.WriteByte('!')
	}

	return sb.String()
}

// HasLily returns true if the card carries the lily color
func (c *Card) HasLily(lily Lily) bool {
	for _, l := range c.Lilies {
		if l == lily {
			return true
		}
	}

	return false
}

// Clone returns a copy of the card
func (c *Card) Clone() *Card {
	cp := *c
	cp.Lilies = append([]Lily(nil), c.Lilies...)
	return &cp
}

var cardRx = regexp.MustCompile(`(?i)^([1-5])([pwyb]{0,2})(!)?\z`)

// CardFromString returns a Card from the string.
// The string must be in the format <capivaras><lilies><bird> where capivaras
// is 1-5, lilies is up to two of [pwyb], and bird is an optional "!".
// For example, "3pw!" is a 3-capivara card with pink and white lilies and the
// bird flag.
func CardFromString(s string) *Card {
	if s == "" {
		return nil
	}

	match := cardRx.FindStringSubmatch(s)
	if match == nil {
		panic(fmt.Sprintf("could not parse card: %s", s))
	}

	capivaras, err := strconv.Atoi(match[1])
	if err != nil {
		panic(fmt.Sprintf("could not parse card `%s`: %v", s, err))
	}

	var lilies []Lily
	for _, b := range strings.ToLower(match[2]) {
		switch b {
		case 'p':
			lilies = append(lilies, Pink)
		case 'w':
			lilies = append(lilies, White)
		case 'y':
			lilies = append(lilies, Yellow)
		case 'b':
			lilies = append(lilies, Blue)
		default:
			// should never be hit due to the regexp
			panic("unknown lily")
		}
	}

	return &Card{
		Capivaras: capivaras,
		Lilies:    lilies,
		Bird:      match[3] == "!",
	}
}

// CardsFromString will return a slice of cards from a comma-separated string
func CardsFromString(s string) []*Card {
	if s == "" {
		return []*Card{}
	}

	cardStrings := strings.Split(s, ",")
	cards := make([]*Card, len(cardStrings))
	for i, card := range cardStrings {
		cards[i] = CardFromString(card)
	}

	return cards
}

// CardsToString will convert a slice of cards to a string in the format of 1p,2,3w!,...
func CardsToString(cards []*Card) string {
	c := make([]string, len(cards))
	for i, card := range cards {
		c[i] = card.String()
	}

	return strings.Join(c, ",")
}
