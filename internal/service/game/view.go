package game

// View types are the seat-specific snapshots pushed to subscribers and
// returned by the state endpoint. The dealer's hole card stays masked
// until the dealer acts.

type HandView struct {
	Cards   []string   `json:"cards"`
	Value   int        `json:"value"`
	Bet     int64      `json:"bet"`
	Status  HandStatus `json:"status"`
	Doubled bool       `json:"doubled,omitempty"`
}

type SeatView struct {
	UserID      int64      `json:"userId,string"`
	Alias       string     `json:"alias"`
	Avatar      string     `json:"avatar,omitempty"`
	Ready       bool       `json:"ready"`
	LastAction  string     `json:"lastAction,omitempty"`
	PendingBet  int64      `json:"pendingBet"`
	SeatBalance int64      `json:"seatBalance"`
	Hands       []HandView `json:"hands"`
	CurrentHand int        `json:"currentHand"`
}

type TableState struct {
	TableID        string       `json:"tableId"`
	Private        bool         `json:"private"`
	OwnerID        int64        `json:"ownerId,string"`
	Phase          Phase        `json:"phase"`
	Round          int          `json:"round"`
	Shuffled       bool         `json:"shuffled"`
	Dealer         HandView     `json:"dealer"`
	Seats          []SeatView   `json:"seats"`
	TurnSeat       int          `json:"turnSeat"`
	Countdown      int          `json:"countdown"`
	AllowedActions []string     `json:"allowedActions"`
	ShoeRemaining  int          `json:"shoeRemaining"`
	BetOptions     []int64      `json:"betOptions"`
	Results        []HandResult `json:"results,omitempty"`
}

// TableSummary is the lobby listing entry for a public table.
type TableSummary struct {
	TableID string `json:"tableId"`
	Phase   Phase  `json:"phase"`
	Seats   int    `json:"seats"`
	SeatCap int    `json:"seatCap"`
}

// State returns the caller's view of the table.
func (rt *TableRuntime) State(userID int64) TableState {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.exportStateLocked(userID)
}

func (rt *TableRuntime) exportStateLocked(userID int64) TableState {
	state := TableState{
		TableID:        rt.tableID,
		Private:        rt.private,
		OwnerID:        rt.ownerID,
		Phase:          rt.phase,
		Round:          rt.round,
		Shuffled:       rt.shuffled,
		Dealer:         rt.dealerViewLocked(),
		Seats:          make([]SeatView, 0, len(rt.players)),
		TurnSeat:       -1,
		Countdown:      rt.countdownSecondsLocked(),
		AllowedActions: rt.allowedActionsLocked(userID),
		ShoeRemaining:  rt.shoe.remaining(),
		BetOptions:     rt.cfg.BetOptions,
		Results:        rt.results,
	}
	if rt.phase == PhasePlayerTurn && rt.current < len(rt.players) {
		state.TurnSeat = rt.current
	}
	for _, p := range rt.players {
		state.Seats = append(state.Seats, seatView(p))
	}
	return state
}

func seatView(p *Player) SeatView {
	sv := SeatView{
		UserID:      p.UserID,
		Alias:       p.Alias,
		Avatar:      p.Avatar,
		Ready:       p.Ready,
		LastAction:  p.LastAction,
		PendingBet:  p.PendingBet,
		SeatBalance: p.SeatBalance,
		Hands:       make([]HandView, 0, len(p.Hands)),
		CurrentHand: p.CurrentHand,
	}
	for _, h := range p.Hands {
		sv.Hands = append(sv.Hands, HandView{
			Cards:   cardCodes(h.Cards),
			Value:   h.Value(),
			Bet:     h.Bet,
			Status:  h.Status,
			Doubled: h.Doubled,
		})
	}
	return sv
}

// dealerViewLocked masks the hole card while players still act: only
// the upcard and its value are visible until the dealer's turn.
func (rt *TableRuntime) dealerViewLocked() HandView {
	cards := rt.dealer.Cards
	if len(cards) == 0 {
		return HandView{Cards: []string{}, Status: rt.dealer.Status}
	}
	if rt.phase == PhasePlayerTurn && len(cards) >= 2 {
		up := cards[0]
		return HandView{
			Cards:  []string{up.String(), "??"},
			Value:  up.value(),
			Status: rt.dealer.Status,
		}
	}
	return HandView{
		Cards:  cardCodes(cards),
		Value:  rt.dealer.Value(),
		Status: rt.dealer.Status,
	}
}

func (rt *TableRuntime) countdownSecondsLocked() int {
	if rt.phase != PhasePlayerTurn {
		return 0
	}
	deadline := rt.lastActivity.Add(rt.cfg.TurnTimeout)
	diff := deadline.Sub(rt.clock.Now())
	if diff <= 0 {
		return 0
	}
	return int(diff.Seconds())
}

func (rt *TableRuntime) allowedActionsLocked(userID int64) []string {
	p := rt.findPlayerLocked(userID)
	if p == nil {
		return nil
	}

	switch rt.phase {
	case PhaseWaiting:
		return []string{"ready", "bet", "leave"}
	case PhasePlayerTurn:
		if rt.current >= len(rt.players) || rt.players[rt.current] != p {
			return nil
		}
		h := p.currentHand()
		if h == nil {
			return nil
		}
		actions := []string{"hit", "stand"}
		if len(h.Cards) == 2 && !h.Doubled {
			actions = append(actions, "double")
		}
		if h.splitEligible() && len(p.Hands) < maxHandsPerSeat {
			actions = append(actions, "split")
		}
		return actions
	case PhaseFinished:
		return []string{"ready", "leave"}
	default:
		return nil
	}
}
