package game

type HandStatus string

const (
	HandPlaying   HandStatus = "playing"
	HandStand     HandStatus = "stand"
	HandBust      HandStatus = "bust"
	HandBlackjack HandStatus = "blackjack"
)

// terminal reports whether the status ends play for the hand. A
// terminal status never reverts within a round.
func (st HandStatus) terminal() bool {
	return st != HandPlaying
}

type Hand struct {
	Cards     []Card
	Bet       int64
	Status    HandStatus
	FromSplit bool
	Doubled   bool
}

func newHand(bet int64) *Hand {
	return &Hand{Bet: bet, Status: HandPlaying}
}

func (h *Hand) addCard(c Card) {
	h.Cards = append(h.Cards, c)
}

// Value is the blackjack total: face cards count 10, aces count 11 and
// drop to 1 one at a time while the total is over 21.
func (h *Hand) Value() int {
	total := 0
	aces := 0
	for _, c := range h.Cards {
		total += c.value()
		if c.Rank == RankA {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// soft reports whether an ace still counts as 11 in the current value.
func (h *Hand) soft() bool {
	total := 0
	aces := 0
	for _, c := range h.Cards {
		total += c.value()
		if c.Rank == RankA {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return aces > 0 && total <= 21
}

func (h *Hand) IsBust() bool {
	return h.Value() > 21
}

// IsBlackjack recognizes only the natural: the first two cards total 21
// and the hand has no split ancestry. A 21 assembled from three cards
// or out of a split pair is a strong 21, not a blackjack.
func (h *Hand) IsBlackjack() bool {
	return len(h.Cards) == 2 && !h.FromSplit && h.Value() == 21
}

// splitEligible allows same-rank pairs and any two ten-value cards
// (10/J/Q/K in any combination).
func (h *Hand) splitEligible() bool {
	if len(h.Cards) != 2 {
		return false
	}
	a, b := h.Cards[0], h.Cards[1]
	if a.Rank == b.Rank {
		return true
	}
	return a.value() == 10 && b.value() == 10
}
