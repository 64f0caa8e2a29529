package game

type ResultKind string

const (
	ResultBlackjack ResultKind = "blackjack"
	ResultWin       ResultKind = "win"
	ResultPush      ResultKind = "push"
	ResultLose      ResultKind = "lose"
)

// HandResult is the settled outcome of one hand. Payout is the signed
// chip delta: a natural pays 3:2 rounded down, a plain win pays 1:1, a
// push pays nothing, busts and losses forfeit the bet. Cards is the
// hand's final card list, snapshotted so results stay intact after the
// table moves on.
type HandResult struct {
	UserID    int64      `json:"userId,string"`
	HandIndex int        `json:"handIndex"`
	Bet       int64      `json:"bet"`
	Result    ResultKind `json:"result"`
	Payout    int64      `json:"payout"`
	Cards     []string   `json:"cards"`
}

// settleRound prices every hand against the dealer's final value. It
// reads the finished round and mutates nothing, so a second call over
// the same table yields identical results.
func settleRound(dealer *Hand, players []*Player) []HandResult {
	dealerValue := dealer.Value()
	dealerBust := dealerValue > 21

	results := make([]HandResult, 0, len(players))
	for _, p := range players {
		for i, h := range p.Hands {
			res := HandResult{
				UserID:    p.UserID,
				HandIndex: i,
				Bet:       h.Bet,
				Cards:     cardCodes(h.Cards),
			}
			switch {
			case h.Status == HandBust:
				res.Result = ResultLose
				res.Payout = -h.Bet
			case h.Status == HandBlackjack:
				res.Result = ResultBlackjack
				res.Payout = h.Bet * 3 / 2
			case dealerBust || h.Value() > dealerValue:
				res.Result = ResultWin
				res.Payout = h.Bet
			case h.Value() == dealerValue:
				res.Result = ResultPush
				res.Payout = 0
			default:
				res.Result = ResultLose
				res.Payout = -h.Bet
			}
			results = append(results, res)
		}
	}
	return results
}

// totalPayout sums a player's deltas across their hands in a result
// set.
func totalPayout(results []HandResult, userID int64) int64 {
	var sum int64
	for _, r := range results {
		if r.UserID == userID {
			sum += r.Payout
		}
	}
	return sum
}
