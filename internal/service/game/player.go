package game

// maxHandsPerSeat caps split depth: three splits leave a seat with four
// hands.
const maxHandsPerSeat = 4

// Player is one seat at a table. A split inserts a sibling hand; the
// player plays their hands left to right.
type Player struct {
	UserID      int64
	Alias       string
	Avatar      string
	Hands       []*Hand
	CurrentHand int
	Ready       bool
	LastAction  string
	PendingBet  int64
	SeatBalance int64 // balance snapshot at seating, for session delta display
}

func newPlayer(userID int64, alias, avatar string, bet, balance int64) *Player {
	return &Player{
		UserID:      userID,
		Alias:       alias,
		Avatar:      avatar,
		PendingBet:  bet,
		SeatBalance: balance,
	}
}

// currentHand returns the hand under the pointer, or nil when it sits
// past the last hand or on a terminal one.
func (p *Player) currentHand() *Hand {
	if p.CurrentHand < 0 || p.CurrentHand >= len(p.Hands) {
		return nil
	}
	h := p.Hands[p.CurrentHand]
	if h.Status.terminal() {
		return nil
	}
	return h
}

// advanceHand moves the pointer forward to the next non-terminal hand
// and reports whether one exists. The pointer never moves backward, so
// an already-terminal hand is never revisited.
func (p *Player) advanceHand() bool {
	for i := p.CurrentHand; i < len(p.Hands); i++ {
		if !p.Hands[i].Status.terminal() {
			p.CurrentHand = i
			return true
		}
	}
	p.CurrentHand = len(p.Hands)
	return false
}

func (p *Player) hasActiveHand() bool {
	for _, h := range p.Hands {
		if !h.Status.terminal() {
			return true
		}
	}
	return false
}

// totalBets sums the bets across all of the player's hands this round.
// Split and double funding is gated on this plus the additional bet.
func (p *Player) totalBets() int64 {
	var sum int64
	for _, h := range p.Hands {
		sum += h.Bet
	}
	return sum
}

// resetForRound clears hands and readiness between rounds. The pending
// bet carries over until the player changes it.
func (p *Player) resetForRound() {
	p.Hands = nil
	p.CurrentHand = 0
	p.Ready = false
	p.LastAction = ""
}
