package game

import (
	"errors"
	mrand "math/rand"
	"testing"
	"time"

	appErr "blackjack-service/pkg/errors"

	"github.com/coder/quartz"
)

func card(code string) Card {
	return Card{Rank: Rank(code[:len(code)-1]), Suit: Suit(code[len(code)-1:])}
}

func cards(codes ...string) []Card {
	out := make([]Card, len(codes))
	for i, code := range codes {
		out[i] = card(code)
	}
	return out
}

// riggedShoe deals the given cards in order. Draws pop from the end of
// the pool, so the script is stored reversed; penetration 0 keeps the
// shoe from ever rebuilding over the script.
func riggedShoe(codes ...string) *shoe {
	script := cards(codes...)
	pool := make([]Card, len(script))
	for i, c := range script {
		pool[len(pool)-1-i] = c
	}
	return &shoe{cards: pool, decks: 1, penetration: 0, rng: mrand.New(mrand.NewSource(1))}
}

func testTableConfig() Config {
	return Config{
		DeckCount:        1,
		PenetrationLimit: 0,
		SeatCap:          3,
		TurnTimeout:      30 * time.Second,
		SweepInterval:    5 * time.Second,
		BetOptions:       []int64{50, 100, 250},
	}
}

func newTestTable(cfg Config, sh *shoe) *TableRuntime {
	return newTableRuntime("TAB001", false, 1, cfg, sh, quartz.NewReal(), nil)
}

func mustJoin(t *testing.T, rt *TableRuntime, userID int64, bet, balance int64) {
	t.Helper()
	if err := rt.Join(userID, "", "", bet, balance); err != nil {
		t.Fatalf("join user %d: %v", userID, err)
	}
}

func mustStart(t *testing.T, rt *TableRuntime) {
	t.Helper()
	if err := rt.StartRound(); err != nil {
		t.Fatalf("start round: %v", err)
	}
}

type finishEvent struct {
	round       int
	dealerCards []string
	results     []HandResult
}

func captureFinish(rt *TableRuntime) chan finishEvent {
	events := make(chan finishEvent, 4)
	rt.onFinish = func(_ string, round int, dealerCards []string, results []HandResult) {
		events <- finishEvent{round: round, dealerCards: dealerCards, results: results}
	}
	return events
}

func awaitFinish(t *testing.T, events chan finishEvent) finishEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("settlement callback never fired")
		return finishEvent{}
	}
}

func TestNaturalBlackjackFinishesRound(t *testing.T) {
	// Deal: dealer 9h 7s, player As Kd; the dealer then draws 5c to 21.
	rt := newTestTable(testTableConfig(), riggedShoe("9h", "7s", "As", "Kd", "5c"))
	events := captureFinish(rt)
	mustJoin(t, rt, 1, 100, 1000)
	mustStart(t, rt)

	st := rt.State(1)
	if st.Phase != PhaseFinished {
		t.Fatalf("phase = %s, want finished", st.Phase)
	}
	if st.Round != 1 {
		t.Fatalf("round = %d, want 1", st.Round)
	}
	if len(st.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(st.Results))
	}
	if st.Results[0].Result != ResultBlackjack || st.Results[0].Payout != 150 {
		t.Fatalf("settled %s/%d, want blackjack/150", st.Results[0].Result, st.Results[0].Payout)
	}
	if st.Dealer.Value != 21 || len(st.Dealer.Cards) != 3 {
		t.Fatalf("dealer shows %v (%d), want three cards totalling 21", st.Dealer.Cards, st.Dealer.Value)
	}

	ev := awaitFinish(t, events)
	if ev.round != 1 || len(ev.results) != 1 || ev.results[0].Payout != 150 {
		t.Fatalf("finish callback got round %d results %+v", ev.round, ev.results)
	}
	if len(ev.dealerCards) != 3 || ev.dealerCards[2] != "5c" {
		t.Fatalf("finish callback dealer cards = %v", ev.dealerCards)
	}

	if err := rt.StartRound(); !errors.Is(err, appErr.ErrRoundInProgress) {
		t.Fatalf("restart on a finished table = %v, want round in progress", err)
	}
}

func TestHitBustEndsHand(t *testing.T) {
	// Dealer 10s 9h (19), player 7c 8d hits into Kh for 25.
	rt := newTestTable(testTableConfig(), riggedShoe("10s", "9h", "7c", "8d", "Kh"))
	mustJoin(t, rt, 1, 100, 1000)
	mustStart(t, rt)

	if st := rt.State(1); st.Phase != PhasePlayerTurn {
		t.Fatalf("phase = %s, want player_turn", st.Phase)
	}
	if err := rt.Hit(1); err != nil {
		t.Fatalf("hit: %v", err)
	}

	st := rt.State(1)
	if st.Phase != PhaseFinished {
		t.Fatalf("phase = %s after bust, want finished", st.Phase)
	}
	if st.Seats[0].Hands[0].Status != HandBust {
		t.Fatalf("hand status = %s, want bust", st.Seats[0].Hands[0].Status)
	}
	if st.Results[0].Result != ResultLose || st.Results[0].Payout != -100 {
		t.Fatalf("settled %s/%d, want lose/-100", st.Results[0].Result, st.Results[0].Payout)
	}
	// The dealer stood pat on 19; no extra card was drawn.
	if len(st.Dealer.Cards) != 2 {
		t.Fatalf("dealer drew %v, want the original two cards", st.Dealer.Cards)
	}

	if err := rt.Hit(1); !errors.Is(err, appErr.ErrNotYourTurn) {
		t.Fatalf("hit after round end = %v, want not your turn", err)
	}
}

func TestDealerBustPaysStandingHands(t *testing.T) {
	// Dealer 9s 7h (16) must hit and busts on 10h; player stands on 19.
	rt := newTestTable(testTableConfig(), riggedShoe("9s", "7h", "10c", "9d", "10h"))
	mustJoin(t, rt, 1, 100, 1000)
	mustStart(t, rt)

	if err := rt.Stand(1); err != nil {
		t.Fatalf("stand: %v", err)
	}

	st := rt.State(1)
	if st.Dealer.Status != HandBust || st.Dealer.Value != 26 {
		t.Fatalf("dealer ended %s at %d, want bust at 26", st.Dealer.Status, st.Dealer.Value)
	}
	if st.Results[0].Result != ResultWin || st.Results[0].Payout != 100 {
		t.Fatalf("settled %s/%d, want win/100", st.Results[0].Result, st.Results[0].Payout)
	}
}

func TestDoubleDrawsOneCardAndStands(t *testing.T) {
	// Player 5c 6d doubles into 10h for 21 against a standing 18.
	rt := newTestTable(testTableConfig(), riggedShoe("10s", "8h", "5c", "6d", "10h"))
	mustJoin(t, rt, 1, 100, 1000)
	mustStart(t, rt)

	if err := rt.Double(1, 1000); err != nil {
		t.Fatalf("double: %v", err)
	}

	st := rt.State(1)
	hand := st.Seats[0].Hands[0]
	if !hand.Doubled || hand.Bet != 200 || len(hand.Cards) != 3 {
		t.Fatalf("hand after double = %+v, want doubled bet 200 with three cards", hand)
	}
	if st.Phase != PhaseFinished {
		t.Fatalf("phase = %s, want finished", st.Phase)
	}
	if st.Results[0].Result != ResultWin || st.Results[0].Payout != 200 {
		t.Fatalf("settled %s/%d, want win/200", st.Results[0].Result, st.Results[0].Payout)
	}
}

func TestDoubleRejections(t *testing.T) {
	// Balance covers only the original bet, so the double is refused and
	// the hand stays playable.
	rt := newTestTable(testTableConfig(), riggedShoe("10s", "8h", "5c", "6d", "10h"))
	mustJoin(t, rt, 1, 100, 100)
	mustStart(t, rt)

	if err := rt.Double(1, 100); !errors.Is(err, appErr.ErrInsufficientFunds) {
		t.Fatalf("double on thin balance = %v, want insufficient funds", err)
	}
	if err := rt.Hit(1); err != nil {
		t.Fatalf("hit after refused double: %v", err)
	}
	st := rt.State(1)
	if st.Results[0].Result != ResultWin || st.Results[0].Payout != 100 {
		t.Fatalf("settled %s/%d, want win/100 at the original bet", st.Results[0].Result, st.Results[0].Payout)
	}

	// Three cards in hand rules the double out regardless of funds.
	rt2 := newTestTable(testTableConfig(), riggedShoe("10s", "8h", "2c", "3d", "5h", "4s"))
	mustJoin(t, rt2, 1, 100, 1000)
	mustStart(t, rt2)
	if err := rt2.Hit(1); err != nil {
		t.Fatalf("hit: %v", err)
	}
	if err := rt2.Double(1, 1000); !errors.Is(err, appErr.ErrInvalidDouble) {
		t.Fatalf("double on three cards = %v, want invalid double", err)
	}
}

func TestSplitPlaysBothHands(t *testing.T) {
	// Player 8s 8h splits; the hands draw 2c and 3d, then hit 9h and 9c.
	rt := newTestTable(testTableConfig(), riggedShoe("10s", "7h", "8s", "8h", "2c", "3d", "9h", "9c"))
	mustJoin(t, rt, 1, 100, 1000)
	mustStart(t, rt)

	if err := rt.Split(1, 1000); err != nil {
		t.Fatalf("split: %v", err)
	}

	st := rt.State(1)
	if len(st.Seats[0].Hands) != 2 {
		t.Fatalf("got %d hands after split, want 2", len(st.Seats[0].Hands))
	}
	if st.Seats[0].Hands[0].Bet != 100 || st.Seats[0].Hands[1].Bet != 100 {
		t.Fatalf("split hands carry bets %d/%d, want 100/100",
			st.Seats[0].Hands[0].Bet, st.Seats[0].Hands[1].Bet)
	}
	actions := st.AllowedActions
	if !containsAction(actions, "double") || containsAction(actions, "split") {
		t.Fatalf("allowed actions after split = %v", actions)
	}

	// First hand: 8s 2c, hit 9h to 19, stand.
	if err := rt.Hit(1); err != nil {
		t.Fatalf("hit first hand: %v", err)
	}
	if err := rt.Stand(1); err != nil {
		t.Fatalf("stand first hand: %v", err)
	}
	// Second hand: 8h 3d, hit 9c to 20, stand.
	if err := rt.Hit(1); err != nil {
		t.Fatalf("hit second hand: %v", err)
	}
	if err := rt.Stand(1); err != nil {
		t.Fatalf("stand second hand: %v", err)
	}

	st = rt.State(1)
	if st.Phase != PhaseFinished {
		t.Fatalf("phase = %s, want finished", st.Phase)
	}
	if len(st.Results) != 2 {
		t.Fatalf("got %d results, want one per hand", len(st.Results))
	}
	for i, res := range st.Results {
		if res.HandIndex != i || res.Result != ResultWin || res.Payout != 100 {
			t.Fatalf("result %d = %+v, want win/100", i, res)
		}
	}
}

func TestSplitRejectedOnThinBalance(t *testing.T) {
	rt := newTestTable(testTableConfig(), riggedShoe("10s", "7h", "8s", "8h"))
	mustJoin(t, rt, 1, 100, 100)
	mustStart(t, rt)

	if err := rt.Split(1, 100); !errors.Is(err, appErr.ErrInsufficientFunds) {
		t.Fatalf("split on thin balance = %v, want insufficient funds", err)
	}

	// The refused split left the pair untouched.
	st := rt.State(1)
	if len(st.Seats[0].Hands) != 1 || len(st.Seats[0].Hands[0].Cards) != 2 {
		t.Fatalf("hand mutated by refused split: %+v", st.Seats[0].Hands)
	}
	if err := rt.Stand(1); err != nil {
		t.Fatalf("stand: %v", err)
	}
	if st := rt.State(1); st.Results[0].Result != ResultLose {
		t.Fatalf("settled %s, want lose (16 vs 17)", st.Results[0].Result)
	}
}

func TestSplitTwentyOneGrading(t *testing.T) {
	script := []string{"10s", "10h", "As", "Ah", "Kd", "Qc"}

	// Default house rule: a split 21 stands and pays 1:1.
	rt := newTestTable(testTableConfig(), riggedShoe(script...))
	mustJoin(t, rt, 1, 100, 1000)
	mustStart(t, rt)
	if err := rt.Split(1, 1000); err != nil {
		t.Fatalf("split: %v", err)
	}
	st := rt.State(1)
	if st.Phase != PhaseFinished {
		t.Fatalf("phase = %s, want finished (both split hands hit 21)", st.Phase)
	}
	for i, res := range st.Results {
		if res.Result != ResultWin || res.Payout != 100 {
			t.Fatalf("default rule result %d = %s/%d, want win/100", i, res.Result, res.Payout)
		}
	}

	// With the flag on the same script grades both hands as blackjack.
	cfg := testTableConfig()
	cfg.SplitBlackjackPays = true
	rt = newTestTable(cfg, riggedShoe(script...))
	mustJoin(t, rt, 1, 100, 1000)
	mustStart(t, rt)
	if err := rt.Split(1, 1000); err != nil {
		t.Fatalf("split: %v", err)
	}
	st = rt.State(1)
	for i, res := range st.Results {
		if res.Result != ResultBlackjack || res.Payout != 150 {
			t.Fatalf("house rule result %d = %s/%d, want blackjack/150", i, res.Result, res.Payout)
		}
	}
}

func TestSplitCapsAtFourHands(t *testing.T) {
	// Every draw is another eight, allowing three consecutive splits.
	rt := newTestTable(testTableConfig(), riggedShoe(
		"10s", "7h", "8s", "8h", "8d", "8c", "8h", "8s", "8d", "8c"))
	mustJoin(t, rt, 1, 100, 10000)
	mustStart(t, rt)

	for i := 0; i < 3; i++ {
		if err := rt.Split(1, 10000); err != nil {
			t.Fatalf("split %d: %v", i+1, err)
		}
	}
	if err := rt.Split(1, 10000); !errors.Is(err, appErr.ErrInvalidSplit) {
		t.Fatalf("fourth split = %v, want invalid split", err)
	}

	for i := 0; i < 4; i++ {
		if err := rt.Stand(1); err != nil {
			t.Fatalf("stand hand %d: %v", i+1, err)
		}
	}

	st := rt.State(1)
	if len(st.Results) != 4 {
		t.Fatalf("got %d results, want 4", len(st.Results))
	}
	if got := totalPayout(st.Results, 1); got != -400 {
		t.Fatalf("total payout = %d, want -400 (four 16s against 17)", got)
	}
}

func TestTurnOrderEnforced(t *testing.T) {
	// Dealer 17; seats hold 19, 17, and 13 in order.
	rt := newTestTable(testTableConfig(), riggedShoe(
		"10s", "7h", "10c", "9d", "9c", "8d", "7d", "6h"))
	mustJoin(t, rt, 1, 100, 1000)
	mustJoin(t, rt, 2, 100, 1000)
	mustJoin(t, rt, 3, 100, 1000)
	for _, uid := range []int64{1, 2, 3} {
		if err := rt.Ready(uid); err != nil {
			t.Fatalf("ready %d: %v", uid, err)
		}
	}

	st := rt.State(1)
	if st.Phase != PhasePlayerTurn || st.TurnSeat != 0 {
		t.Fatalf("round started at phase %s turn %d, want player_turn seat 0", st.Phase, st.TurnSeat)
	}

	if err := rt.Join(5, "", "", 100, 1000); !errors.Is(err, appErr.ErrRoundInProgress) {
		t.Fatalf("join mid-round = %v, want round in progress", err)
	}
	if err := rt.SetBet(1, 250, 1000); !errors.Is(err, appErr.ErrRoundInProgress) {
		t.Fatalf("bet change mid-round = %v, want round in progress", err)
	}
	if err := rt.Stand(2); !errors.Is(err, appErr.ErrNotYourTurn) {
		t.Fatalf("out-of-turn stand = %v, want not your turn", err)
	}
	if err := rt.Stand(99); !errors.Is(err, appErr.ErrNotSeated) {
		t.Fatalf("stranger stand = %v, want not seated", err)
	}

	for i, uid := range []int64{1, 2, 3} {
		if st := rt.State(uid); st.TurnSeat != i {
			t.Fatalf("turn seat = %d before seat %d acts", st.TurnSeat, i)
		}
		if err := rt.Stand(uid); err != nil {
			t.Fatalf("stand %d: %v", uid, err)
		}
	}

	st = rt.State(1)
	if st.Phase != PhaseFinished {
		t.Fatalf("phase = %s, want finished", st.Phase)
	}
	want := []struct {
		result ResultKind
		payout int64
	}{{ResultWin, 100}, {ResultPush, 0}, {ResultLose, -100}}
	for i, w := range want {
		if st.Results[i].Result != w.result || st.Results[i].Payout != w.payout {
			t.Fatalf("seat %d settled %s/%d, want %s/%d",
				i, st.Results[i].Result, st.Results[i].Payout, w.result, w.payout)
		}
	}
}

func TestReadyToggleAndNextRound(t *testing.T) {
	rt := newTestTable(testTableConfig(), riggedShoe(
		// Round one: dealer 19, players 15 and 17.
		"10s", "9h", "7c", "8d", "10c", "7d",
		// Round two: dealer 17, player one draws a natural, player two 19.
		"9s", "8h", "As", "Kd", "10h", "9c"))
	events := captureFinish(rt)
	mustJoin(t, rt, 1, 100, 1000)
	mustJoin(t, rt, 2, 100, 1000)

	if err := rt.Ready(1); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if st := rt.State(1); st.Phase != PhaseWaiting || !st.Seats[0].Ready {
		t.Fatalf("after one ready: phase %s ready %v", st.Phase, st.Seats[0].Ready)
	}
	if err := rt.Ready(1); err != nil {
		t.Fatalf("ready toggle off: %v", err)
	}
	if st := rt.State(1); st.Seats[0].Ready {
		t.Fatalf("second ready should toggle readiness off")
	}

	if err := rt.Ready(1); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if err := rt.Ready(2); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if st := rt.State(1); st.Phase != PhasePlayerTurn || st.Round != 1 {
		t.Fatalf("round one did not start: phase %s round %d", st.Phase, st.Round)
	}
	if err := rt.Ready(1); !errors.Is(err, appErr.ErrRoundInProgress) {
		t.Fatalf("ready mid-round = %v, want round in progress", err)
	}

	if err := rt.Stand(1); err != nil {
		t.Fatalf("stand: %v", err)
	}
	if err := rt.Stand(2); err != nil {
		t.Fatalf("stand: %v", err)
	}
	awaitFinish(t, events)

	// The first ready on a finished table returns it to the lobby with
	// pending bets intact and the previous results cleared.
	if err := rt.Ready(1); err != nil {
		t.Fatalf("ready after finish: %v", err)
	}
	st := rt.State(1)
	if st.Phase != PhaseWaiting || len(st.Results) != 0 {
		t.Fatalf("after first ready: phase %s results %d", st.Phase, len(st.Results))
	}
	if st.Seats[0].PendingBet != 100 || st.Seats[1].PendingBet != 100 {
		t.Fatalf("pending bets lost across rounds: %+v", st.Seats)
	}

	if err := rt.Ready(2); err != nil {
		t.Fatalf("ready: %v", err)
	}
	st = rt.State(2)
	if st.Round != 2 {
		t.Fatalf("round = %d, want 2", st.Round)
	}
	if st.TurnSeat != 1 {
		t.Fatalf("turn seat = %d, want 1 (seat zero drew a natural)", st.TurnSeat)
	}
	if err := rt.Stand(2); err != nil {
		t.Fatalf("stand: %v", err)
	}

	ev := awaitFinish(t, events)
	if ev.round != 2 {
		t.Fatalf("second finish reported round %d, want 2", ev.round)
	}
	if ev.results[0].Result != ResultBlackjack || ev.results[1].Result != ResultWin {
		t.Fatalf("round two settled %s/%s, want blackjack/win", ev.results[0].Result, ev.results[1].Result)
	}
}

func TestLeaveLifecycle(t *testing.T) {
	rt := newTestTable(testTableConfig(), riggedShoe("10s", "7h", "10c", "9d", "9c", "8d"))
	mustJoin(t, rt, 1, 100, 1000)
	mustJoin(t, rt, 2, 100, 1000)

	if _, err := rt.Leave(9); !errors.Is(err, appErr.ErrNotSeated) {
		t.Fatalf("stranger leave = %v, want not seated", err)
	}

	if err := rt.Ready(1); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if err := rt.Ready(2); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if _, err := rt.Leave(1); !errors.Is(err, appErr.ErrRoundInProgress) {
		t.Fatalf("leave mid-round = %v, want round in progress", err)
	}

	if err := rt.Stand(1); err != nil {
		t.Fatalf("stand: %v", err)
	}
	if err := rt.Stand(2); err != nil {
		t.Fatalf("stand: %v", err)
	}

	empty, err := rt.Leave(2)
	if err != nil || empty {
		t.Fatalf("leave = (%v, %v), want seat freed with table alive", empty, err)
	}
	if st := rt.State(1); len(st.Seats) != 1 || st.Seats[0].UserID != 1 {
		t.Fatalf("seats after leave = %+v", st.Seats)
	}

	empty, err = rt.Leave(1)
	if err != nil || !empty {
		t.Fatalf("last leave = (%v, %v), want table emptied", empty, err)
	}
	if err := rt.Join(3, "", "", 100, 1000); !errors.Is(err, appErr.ErrTableNotFound) {
		t.Fatalf("join on closed table = %v, want table not found", err)
	}
}

func TestJoinAndBetValidation(t *testing.T) {
	rt := newTestTable(testTableConfig(), riggedShoe())

	if err := rt.Join(1, "", "", 77, 1000); !errors.Is(err, appErr.ErrInvalidBet) {
		t.Fatalf("off-menu bet = %v, want invalid bet", err)
	}
	if err := rt.Join(1, "", "", 0, 1000); !errors.Is(err, appErr.ErrInvalidBet) {
		t.Fatalf("zero bet = %v, want invalid bet", err)
	}
	if err := rt.Join(1, "", "", 250, 100); !errors.Is(err, appErr.ErrInsufficientFunds) {
		t.Fatalf("bet over balance = %v, want insufficient funds", err)
	}

	mustJoin(t, rt, 1, 100, 1000)
	if err := rt.Join(1, "", "", 100, 1000); !errors.Is(err, appErr.ErrAlreadySeated) {
		t.Fatalf("double join = %v, want already seated", err)
	}

	mustJoin(t, rt, 2, 100, 1000)
	mustJoin(t, rt, 3, 100, 1000)
	if err := rt.Join(4, "", "", 100, 1000); !errors.Is(err, appErr.ErrTableFull) {
		t.Fatalf("join past seat cap = %v, want table full", err)
	}

	if err := rt.SetBet(99, 100, 1000); !errors.Is(err, appErr.ErrNotSeated) {
		t.Fatalf("stranger bet = %v, want not seated", err)
	}
	if err := rt.SetBet(1, 77, 1000); !errors.Is(err, appErr.ErrInvalidBet) {
		t.Fatalf("off-menu bet change = %v, want invalid bet", err)
	}
	if err := rt.SetBet(1, 250, 1000); err != nil {
		t.Fatalf("bet change: %v", err)
	}
	if st := rt.State(1); st.Seats[0].PendingBet != 250 {
		t.Fatalf("pending bet = %d, want 250", st.Seats[0].PendingBet)
	}
}

func TestForceStandHonorsIdleWindow(t *testing.T) {
	rt := newTestTable(testTableConfig(), riggedShoe("10s", "9h", "7c", "8d"))
	mustJoin(t, rt, 1, 100, 1000)
	mustStart(t, rt)

	timeout := 30 * time.Second
	if rt.ForceStand(rt.lastActivity.Add(timeout-time.Second), timeout) {
		t.Fatalf("force stand fired before the idle window elapsed")
	}
	if st := rt.State(1); st.Phase != PhasePlayerTurn {
		t.Fatalf("phase = %s, want player_turn", st.Phase)
	}

	if !rt.ForceStand(rt.lastActivity.Add(timeout), timeout) {
		t.Fatalf("force stand must fire exactly at the timeout")
	}
	st := rt.State(1)
	if st.Phase != PhaseFinished {
		t.Fatalf("phase = %s after force stand, want finished", st.Phase)
	}
	if st.Seats[0].LastAction != "timeout" {
		t.Fatalf("last action = %q, want timeout", st.Seats[0].LastAction)
	}
	if st.Results[0].Result != ResultLose {
		t.Fatalf("settled %s, want lose (15 vs 19)", st.Results[0].Result)
	}

	// No round underway, nothing to stand.
	idle := newTestTable(testTableConfig(), riggedShoe())
	mustJoin(t, idle, 1, 100, 1000)
	if idle.ForceStand(idle.lastActivity.Add(time.Hour), timeout) {
		t.Fatalf("force stand fired on a waiting table")
	}

	// A closed table is left alone even when stale.
	closed := newTestTable(testTableConfig(), riggedShoe())
	closed.closed = true
	if closed.ForceStand(closed.lastActivity.Add(time.Hour), timeout) {
		t.Fatalf("force stand fired on a closed table")
	}
}

func TestStateMasksDealerHoleCard(t *testing.T) {
	rt := newTestTable(testTableConfig(), riggedShoe("10s", "9h", "7c", "8d"))
	mustJoin(t, rt, 1, 100, 1000)
	mustStart(t, rt)

	st := rt.State(1)
	if len(st.Dealer.Cards) != 2 || st.Dealer.Cards[0] != "10s" || st.Dealer.Cards[1] != "??" {
		t.Fatalf("dealer view during play = %v, want upcard and mask", st.Dealer.Cards)
	}
	if st.Dealer.Value != 10 {
		t.Fatalf("masked dealer value = %d, want upcard value 10", st.Dealer.Value)
	}
	if st.Countdown <= 0 || st.Countdown > 30 {
		t.Fatalf("countdown = %d, want within the turn timeout", st.Countdown)
	}
	if st.AllowedActions != nil {
		for _, a := range st.AllowedActions {
			if a == "split" {
				t.Fatalf("split offered on a non-pair: %v", st.AllowedActions)
			}
		}
	}
	if got := rt.State(99).AllowedActions; got != nil {
		t.Fatalf("stranger sees actions %v, want none", got)
	}

	if err := rt.Stand(1); err != nil {
		t.Fatalf("stand: %v", err)
	}
	st = rt.State(1)
	if len(st.Dealer.Cards) != 2 || st.Dealer.Cards[1] != "9h" {
		t.Fatalf("dealer view after play = %v, want hole card revealed", st.Dealer.Cards)
	}
	if st.Dealer.Value != 19 {
		t.Fatalf("dealer value = %d, want 19", st.Dealer.Value)
	}
}

func TestSubscribeDeliversStateAndPong(t *testing.T) {
	rt := newTestTable(testTableConfig(), riggedShoe())
	mustJoin(t, rt, 1, 100, 1000)

	ch := rt.Subscribe(1)
	msg := <-ch
	if msg.Type != "state" {
		t.Fatalf("first message type = %s, want state", msg.Type)
	}
	st, ok := msg.Data.(TableState)
	if !ok || st.Phase != PhaseWaiting {
		t.Fatalf("subscribe snapshot = %+v", msg.Data)
	}

	mustJoin(t, rt, 2, 100, 1000)
	msg = <-ch
	if st := msg.Data.(TableState); len(st.Seats) != 2 {
		t.Fatalf("broadcast after join carries %d seats, want 2", len(st.Seats))
	}

	rt.Pong(1)
	if msg = <-ch; msg.Type != "pong" {
		t.Fatalf("message type = %s, want pong", msg.Type)
	}

	rt.Unsubscribe(1)
	if _, open := <-ch; open {
		t.Fatalf("channel must close on unsubscribe")
	}

	// A slow subscriber's full channel drops messages instead of
	// blocking the table.
	slow := rt.Subscribe(2)
	for i := 0; i < 12; i++ {
		bet := int64(100)
		if i%2 == 0 {
			bet = 250
		}
		if err := rt.SetBet(2, bet, 1000); err != nil {
			t.Fatalf("bet change %d: %v", i, err)
		}
	}
	if len(slow) != cap(slow) {
		t.Fatalf("slow channel holds %d, want full buffer %d", len(slow), cap(slow))
	}
}

func containsAction(actions []string, want string) bool {
	for _, a := range actions {
		if a == want {
			return true
		}
	}
	return false
}
