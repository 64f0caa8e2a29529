package game

import (
	"sync"
	"time"

	appErr "blackjack-service/pkg/errors"
	"blackjack-service/pkg/logger"

	"github.com/coder/quartz"
	"go.uber.org/zap"
)

type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhasePlayerTurn Phase = "player_turn"
	PhaseDealerTurn Phase = "dealer_turn"
	PhaseFinished   Phase = "finished"
)

type OutgoingMessage struct {
	Type string      `json:"type"`
	Seq  int64       `json:"seq"`
	Data interface{} `json:"data"`
}

// TableRuntime owns one table: its shoe, dealer hand, seats, and the
// turn state machine. Every mutation runs under mu as one step, so the
// table is always observed in a self-consistent state. Methods suffixed
// Locked expect mu to be held.
type TableRuntime struct {
	tableID string
	private bool
	ownerID int64

	phase    Phase
	round    int
	shoe     *shoe
	dealer   *Hand
	players  []*Player
	current  int  // index into players; meaningful in PhasePlayerTurn
	shuffled bool // a deal draw rebuilt the shoe this round
	results  []HandResult

	lastActivity time.Time
	settled      bool
	closed       bool

	seq         int64
	subscribers map[int64]chan OutgoingMessage

	cfg   Config
	clock quartz.Clock

	mu sync.Mutex

	// onFinish receives value snapshots only, so it may run off the
	// table lock without racing the next round.
	onFinish func(tableID string, round int, dealerCards []string, results []HandResult)
}

func newTableRuntime(tableID string, private bool, ownerID int64, cfg Config, sh *shoe, clock quartz.Clock, onFinish func(string, int, []string, []HandResult)) *TableRuntime {
	return &TableRuntime{
		tableID:      tableID,
		private:      private,
		ownerID:      ownerID,
		phase:        PhaseWaiting,
		shoe:         sh,
		dealer:       newHand(0),
		subscribers:  make(map[int64]chan OutgoingMessage),
		cfg:          cfg,
		clock:        clock,
		lastActivity: clock.Now(),
		onFinish:     onFinish,
	}
}

func (rt *TableRuntime) TableID() string { return rt.tableID }

func (rt *TableRuntime) Subscribe(userID int64) chan OutgoingMessage {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	ch := make(chan OutgoingMessage, 8)
	rt.subscribers[userID] = ch
	rt.pushStateLocked(userID)
	return ch
}

func (rt *TableRuntime) Unsubscribe(userID int64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if ch, ok := rt.subscribers[userID]; ok {
		delete(rt.subscribers, userID)
		close(ch)
	}
}

// PushState resends the caller's current view, e.g. after a reconnect.
func (rt *TableRuntime) PushState(userID int64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.pushStateLocked(userID)
}

func (rt *TableRuntime) Pong(userID int64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.pushMessageLocked(userID, OutgoingMessage{Type: "pong", Seq: rt.nextSeqLocked()})
}

// Join seats a player. The balance snapshot was fetched by the caller
// before the lock, so the funds gate runs without suspending mid-step.
func (rt *TableRuntime) Join(userID int64, alias, avatar string, bet, balance int64) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.closed {
		return appErr.ErrTableNotFound
	}
	if rt.phase != PhaseWaiting {
		return appErr.ErrRoundInProgress
	}
	if rt.findPlayerLocked(userID) != nil {
		return appErr.ErrAlreadySeated
	}
	if len(rt.players) >= rt.cfg.SeatCap {
		return appErr.ErrTableFull
	}
	if err := rt.validateBetLocked(bet, balance); err != nil {
		return err
	}

	rt.players = append(rt.players, newPlayer(userID, alias, avatar, bet, balance))
	rt.touchLocked()
	rt.broadcastStateLocked()
	return nil
}

// Leave removes a seat. It is a lobby action: during a round the seat
// stays bound until the table reaches finished. The bool reports
// whether the table emptied and should be discarded.
func (rt *TableRuntime) Leave(userID int64) (bool, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.phase == PhasePlayerTurn || rt.phase == PhaseDealerTurn {
		return false, appErr.ErrRoundInProgress
	}

	idx := -1
	for i, p := range rt.players {
		if p.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, appErr.ErrNotSeated
	}

	rt.players = append(rt.players[:idx], rt.players[idx+1:]...)
	if rt.current > idx {
		rt.current--
	}
	rt.touchLocked()

	if len(rt.players) == 0 {
		rt.closed = true
		return true, nil
	}
	rt.broadcastStateLocked()
	return false, nil
}

// Ready toggles readiness in the lobby. On a finished table the first
// ready returns it to the lobby with seats, pending bets, and shoe
// intact. Once every seat is ready the deal starts.
func (rt *TableRuntime) Ready(userID int64) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	p := rt.findPlayerLocked(userID)
	if p == nil {
		return appErr.ErrNotSeated
	}

	switch rt.phase {
	case PhaseWaiting:
	case PhaseFinished:
		rt.resetRoundLocked()
	default:
		return appErr.ErrRoundInProgress
	}

	p.Ready = !p.Ready
	if p.Ready {
		p.LastAction = "ready"
	} else {
		p.LastAction = ""
	}
	rt.touchLocked()

	if rt.allReadyLocked() {
		rt.startRoundLocked()
		return nil
	}
	rt.broadcastStateLocked()
	return nil
}

// SetBet changes the pending bet for the next deal.
func (rt *TableRuntime) SetBet(userID int64, bet, balance int64) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	p := rt.findPlayerLocked(userID)
	if p == nil {
		return appErr.ErrNotSeated
	}
	if rt.phase != PhaseWaiting {
		return appErr.ErrRoundInProgress
	}
	if err := rt.validateBetLocked(bet, balance); err != nil {
		return err
	}

	p.PendingBet = bet
	p.LastAction = "bet"
	rt.touchLocked()
	rt.broadcastStateLocked()
	return nil
}

// StartRound deals immediately, bypassing the ready exchange. Solo
// tables use it right after creation.
func (rt *TableRuntime) StartRound() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.phase != PhaseWaiting {
		return appErr.ErrRoundInProgress
	}
	if len(rt.players) == 0 {
		return appErr.ErrNotSeated
	}
	rt.startRoundLocked()
	return nil
}

func (rt *TableRuntime) Hit(userID int64) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	p, h, err := rt.currentActorLocked(userID)
	if err != nil {
		return err
	}

	rt.drawToLocked(h)
	p.LastAction = "hit"
	switch v := h.Value(); {
	case v > 21:
		h.Status = HandBust
	case v == 21:
		h.Status = HandStand
	}

	if h.Status.terminal() {
		rt.advanceTurnLocked()
		return nil
	}
	rt.touchLocked()
	rt.broadcastStateLocked()
	return nil
}

func (rt *TableRuntime) Stand(userID int64) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	p, h, err := rt.currentActorLocked(userID)
	if err != nil {
		return err
	}

	h.Status = HandStand
	p.LastAction = "stand"
	rt.advanceTurnLocked()
	return nil
}

// Double doubles the bet on a two-card hand, draws exactly one card,
// and ends the hand.
func (rt *TableRuntime) Double(userID int64, balance int64) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	p, h, err := rt.currentActorLocked(userID)
	if err != nil {
		return err
	}
	if len(h.Cards) != 2 || h.Doubled {
		return appErr.ErrInvalidDouble
	}
	if p.totalBets()+h.Bet > balance {
		return appErr.ErrInsufficientFunds
	}

	h.Bet *= 2
	h.Doubled = true
	rt.drawToLocked(h)
	if h.IsBust() {
		h.Status = HandBust
	} else {
		h.Status = HandStand
	}
	p.LastAction = "double"
	rt.advanceTurnLocked()
	return nil
}

// Split divides an eligible pair into two hands carrying equal bets and
// draws one fresh card into each. All checks run before any mutation,
// so a rejected split leaves the hand untouched.
func (rt *TableRuntime) Split(userID int64, balance int64) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	p, h, err := rt.currentActorLocked(userID)
	if err != nil {
		return err
	}
	if len(p.Hands) >= maxHandsPerSeat || !h.splitEligible() {
		return appErr.ErrInvalidSplit
	}
	if p.totalBets()+h.Bet > balance {
		return appErr.ErrInsufficientFunds
	}

	second := h.Cards[1]
	h.Cards = h.Cards[:1]
	h.FromSplit = true
	sibling := &Hand{Cards: []Card{second}, Bet: h.Bet, Status: HandPlaying, FromSplit: true}

	idx := p.CurrentHand
	p.Hands = append(p.Hands[:idx+1], append([]*Hand{sibling}, p.Hands[idx+1:]...)...)

	rt.drawToLocked(h)
	rt.drawToLocked(sibling)
	for _, sh := range [2]*Hand{h, sibling} {
		if sh.Value() != 21 {
			continue
		}
		// A split 21 normally stands at 1:1; the house rule flag
		// grades it as blackjack instead.
		if rt.cfg.SplitBlackjackPays {
			sh.Status = HandBlackjack
		} else {
			sh.Status = HandStand
		}
	}
	p.LastAction = "split"

	if h.Status.terminal() {
		rt.advanceTurnLocked()
		return nil
	}
	rt.touchLocked()
	rt.broadcastStateLocked()
	return nil
}

// ForceStand stands the hand under the turn pointer once the table has
// been idle past timeout. The timeout sweep is the only caller and the
// only mutation path not initiated by a player command.
func (rt *TableRuntime) ForceStand(now time.Time, timeout time.Duration) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.closed || rt.phase != PhasePlayerTurn {
		return false
	}
	if now.Sub(rt.lastActivity) < timeout {
		return false
	}
	if rt.current >= len(rt.players) {
		return false
	}
	p := rt.players[rt.current]
	h := p.currentHand()
	if h == nil {
		return false
	}

	logger.Log.Warn("turn timeout auto-stand",
		zap.String("tableID", rt.tableID),
		zap.Int64("userID", p.UserID),
	)
	h.Status = HandStand
	p.LastAction = "timeout"
	rt.advanceTurnLocked()
	return true
}

func (rt *TableRuntime) findPlayerLocked(userID int64) *Player {
	for _, p := range rt.players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// currentActorLocked validates that userID owns the hand under the turn
// pointer. Stale or duplicate actions arriving after the pointer moved
// are rejected here without touching state.
func (rt *TableRuntime) currentActorLocked(userID int64) (*Player, *Hand, error) {
	if rt.phase != PhasePlayerTurn {
		return nil, nil, appErr.ErrNotYourTurn
	}
	if rt.current >= len(rt.players) {
		return nil, nil, appErr.ErrNotYourTurn
	}
	p := rt.players[rt.current]
	if p.UserID != userID {
		if rt.findPlayerLocked(userID) == nil {
			return nil, nil, appErr.ErrNotSeated
		}
		return nil, nil, appErr.ErrNotYourTurn
	}
	h := p.currentHand()
	if h == nil {
		return nil, nil, appErr.ErrNotYourTurn
	}
	return p, h, nil
}

func (rt *TableRuntime) validateBetLocked(bet, balance int64) error {
	if bet <= 0 {
		return appErr.ErrInvalidBet
	}
	if len(rt.cfg.BetOptions) > 0 {
		found := false
		for _, opt := range rt.cfg.BetOptions {
			if opt == bet {
				found = true
				break
			}
		}
		if !found {
			return appErr.ErrInvalidBet
		}
	}
	if bet > balance {
		return appErr.ErrInsufficientFunds
	}
	return nil
}

func (rt *TableRuntime) allReadyLocked() bool {
	if len(rt.players) == 0 {
		return false
	}
	for _, p := range rt.players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// startRoundLocked deals the round: two cards to the dealer first, then
// two to each seat in order. Naturals are graded immediately, then the
// pointer advances to the first active hand. When no hand is active the
// dealer plays straight away.
func (rt *TableRuntime) startRoundLocked() {
	rt.phase = PhasePlayerTurn
	rt.round++
	rt.shuffled = false
	rt.settled = false
	rt.results = nil
	rt.dealer = newHand(0)

	for _, p := range rt.players {
		p.Hands = []*Hand{newHand(p.PendingBet)}
		p.CurrentHand = 0
		p.LastAction = ""
	}

	rt.drawToLocked(rt.dealer)
	rt.drawToLocked(rt.dealer)
	for _, p := range rt.players {
		h := p.Hands[0]
		rt.drawToLocked(h)
		rt.drawToLocked(h)
		if h.IsBlackjack() {
			h.Status = HandBlackjack
		}
	}

	rt.current = 0
	rt.advanceTurnLocked()
}

// resetRoundLocked returns a finished table to the lobby, keeping seat
// order, pending bets, and the shoe.
func (rt *TableRuntime) resetRoundLocked() {
	rt.phase = PhaseWaiting
	rt.dealer = newHand(0)
	rt.results = nil
	rt.current = 0
	for _, p := range rt.players {
		p.resetForRound()
	}
}

func (rt *TableRuntime) drawToLocked(h *Hand) {
	card, reshuffled := rt.shoe.draw()
	h.addCard(card)
	if reshuffled {
		rt.shuffled = true
	}
}

// advanceTurnLocked walks the pointer to the next active hand: first
// across the current player's remaining split hands, then across later
// seats. The dealer only acts once every player hand is terminal.
func (rt *TableRuntime) advanceTurnLocked() {
	for rt.current < len(rt.players) {
		if rt.players[rt.current].advanceHand() {
			rt.touchLocked()
			rt.broadcastStateLocked()
			return
		}
		rt.current++
	}
	rt.playDealerLocked()
}

func (rt *TableRuntime) playDealerLocked() {
	rt.phase = PhaseDealerTurn
	rt.touchLocked()
	rt.broadcastStateLocked() // reveals the hole card

	for rt.dealerShouldHitLocked() {
		rt.drawToLocked(rt.dealer)
	}
	if rt.dealer.IsBust() {
		rt.dealer.Status = HandBust
	} else {
		rt.dealer.Status = HandStand
	}
	rt.finishRoundLocked()
}

// dealerShouldHitLocked hits below 17 and stands on every 17 unless the
// soft-17 house rule is on.
func (rt *TableRuntime) dealerShouldHitLocked() bool {
	v := rt.dealer.Value()
	if v < 17 {
		return true
	}
	if v == 17 && rt.cfg.DealerHitsSoft17 && rt.dealer.soft() {
		return true
	}
	return false
}

func (rt *TableRuntime) finishRoundLocked() {
	rt.phase = PhaseFinished
	rt.results = settleRound(rt.dealer, rt.players)
	rt.touchLocked()
	rt.broadcastStateLocked()

	if !rt.settled {
		rt.settled = true
		if rt.onFinish != nil {
			go rt.onFinish(rt.tableID, rt.round, cardCodes(rt.dealer.Cards), rt.results)
		}
	}
}

func (rt *TableRuntime) touchLocked() {
	rt.lastActivity = rt.clock.Now()
}

func (rt *TableRuntime) pushStateLocked(userID int64) {
	state := rt.exportStateLocked(userID)
	rt.pushMessageLocked(userID, OutgoingMessage{
		Type: "state",
		Seq:  rt.nextSeqLocked(),
		Data: state,
	})
}

func (rt *TableRuntime) broadcastStateLocked() {
	stateSeq := rt.nextSeqLocked()
	for uid, ch := range rt.subscribers {
		state := rt.exportStateLocked(uid)
		msg := OutgoingMessage{
			Type: "state",
			Seq:  stateSeq,
			Data: state,
		}
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("ws subscriber channel full", zap.Int64("userID", uid), zap.String("tableID", rt.tableID))
		}
	}
}

func (rt *TableRuntime) pushMessageLocked(userID int64, msg OutgoingMessage) {
	if ch, ok := rt.subscribers[userID]; ok {
		select {
		case ch <- msg:
		default:
			logger.Log.Warn("ws subscriber channel full", zap.Int64("userID", userID), zap.String("tableID", rt.tableID))
		}
	}
}

func (rt *TableRuntime) nextSeqLocked() int64 {
	rt.seq++
	return rt.seq
}
