package game

// Card codes follow rank+suit, e.g. "As", "10h", "Kd".
// Suits never affect value; they exist for display only.

type Suit string

const (
	SuitSpades   Suit = "s"
	SuitHearts   Suit = "h"
	SuitDiamonds Suit = "d"
	SuitClubs    Suit = "c"
)

type Rank string

const (
	Rank2  Rank = "2"
	Rank3  Rank = "3"
	Rank4  Rank = "4"
	Rank5  Rank = "5"
	Rank6  Rank = "6"
	Rank7  Rank = "7"
	Rank8  Rank = "8"
	Rank9  Rank = "9"
	Rank10 Rank = "10"
	RankJ  Rank = "J"
	RankQ  Rank = "Q"
	RankK  Rank = "K"
	RankA  Rank = "A"
)

var suits = []Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}

var ranks = []Rank{
	Rank2, Rank3, Rank4, Rank5, Rank6, Rank7, Rank8, Rank9, Rank10,
	RankJ, RankQ, RankK, RankA,
}

// rankValues holds the base value of each rank. Aces start at 11 and
// are reduced one at a time while the hand busts.
var rankValues = map[Rank]int{
	Rank2: 2, Rank3: 3, Rank4: 4, Rank5: 5, Rank6: 6,
	Rank7: 7, Rank8: 8, Rank9: 9, Rank10: 10,
	RankJ: 10, RankQ: 10, RankK: 10,
	RankA: 11,
}

type Card struct {
	Rank Rank
	Suit Suit
}

func (c Card) String() string {
	return string(c.Rank) + string(c.Suit)
}

func (c Card) value() int {
	return rankValues[c.Rank]
}

// cardCodes renders a card list for state views and round records.
func cardCodes(cards []Card) []string {
	codes := make([]string, len(cards))
	for i, c := range cards {
		codes[i] = c.String()
	}
	return codes
}
