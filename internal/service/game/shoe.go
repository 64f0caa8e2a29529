package game

import (
	mrand "math/rand"
)

// shoe is the multi-deck card supply for one table. It is not safe for
// concurrent use; the owning table's lock serializes every draw.
type shoe struct {
	cards       []Card
	decks       int
	penetration int
	rng         *mrand.Rand
}

func newShoe(decks, penetration int, rng *mrand.Rand) *shoe {
	s := &shoe{
		decks:       decks,
		penetration: penetration,
		rng:         rng,
	}
	s.rebuild()
	return s
}

// rebuild replaces whatever remains with a freshly shuffled full pool.
// The shoe is never topped up in place.
func (s *shoe) rebuild() {
	cards := make([]Card, 0, 52*s.decks)
	for i := 0; i < s.decks; i++ {
		for _, su := range suits {
			for _, r := range ranks {
				cards = append(cards, Card{Rank: r, Suit: su})
			}
		}
	}
	s.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	s.cards = cards
}

// draw pops one card. When the pool has dropped below the penetration
// limit it is rebuilt first, so a draw never fails; the bool reports
// whether that rebuild happened.
func (s *shoe) draw() (Card, bool) {
	reshuffled := false
	if len(s.cards) < s.penetration {
		s.rebuild()
		reshuffled = true
	}
	card := s.cards[len(s.cards)-1]
	s.cards = s.cards[:len(s.cards)-1]
	return card, reshuffled
}

func (s *shoe) remaining() int {
	return len(s.cards)
}
