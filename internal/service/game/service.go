package game

import (
	"context"
	"encoding/json"
	mrand "math/rand"
	"sync"
	"time"

	"blackjack-service/internal/config"
	appErr "blackjack-service/pkg/errors"
	"blackjack-service/pkg/logger"

	"github.com/coder/quartz"
	"go.uber.org/zap"
)

// Config holds the table rules and the supervisor cadence.
type Config struct {
	DeckCount          int
	PenetrationLimit   int
	SeatCap            int
	TurnTimeout        time.Duration
	SweepInterval      time.Duration
	BetOptions         []int64
	DealerHitsSoft17   bool
	SplitBlackjackPays bool
}

func defaultConfig() Config {
	return Config{
		DeckCount:        5,
		PenetrationLimit: 60,
		SeatCap:          3,
		TurnTimeout:      30 * time.Second,
		SweepInterval:    5 * time.Second,
		BetOptions:       []int64{50, 100, 250},
	}
}

// ConfigFromGlobal overlays the loaded file config onto the defaults.
func ConfigFromGlobal() Config {
	cfg := defaultConfig()
	if config.GlobalConfig == nil {
		return cfg
	}
	gc := config.GlobalConfig.Game
	if gc.DeckCount > 0 {
		cfg.DeckCount = gc.DeckCount
	}
	if gc.PenetrationLimit > 0 {
		cfg.PenetrationLimit = gc.PenetrationLimit
	}
	if gc.SeatCap > 0 {
		cfg.SeatCap = gc.SeatCap
	}
	if gc.TurnTimeoutSec > 0 {
		cfg.TurnTimeout = time.Duration(gc.TurnTimeoutSec) * time.Second
	}
	if gc.SweepIntervalSec > 0 {
		cfg.SweepInterval = time.Duration(gc.SweepIntervalSec) * time.Second
	}
	if len(gc.BetOptions) > 0 {
		cfg.BetOptions = gc.BetOptions
	}
	cfg.DealerHitsSoft17 = gc.DealerHitsSoft17
	cfg.SplitBlackjackPays = gc.SplitBlackjackPays
	return cfg
}

// BalanceStore gates bets and receives settlement deltas. The wallet
// service implements it.
type BalanceStore interface {
	Balance(ctx context.Context, userID int64) (int64, error)
	ApplyDelta(ctx context.Context, userID int64, delta int64, reason string, meta map[string]interface{}) error
}

// RoundRecord is one settled hand handed to the archive sink.
type RoundRecord struct {
	TableID     string
	Round       int
	UserID      int64
	HandIndex   int
	Bet         int64
	Result      ResultKind
	Payout      int64
	PlayerCards []string
	DealerCards []string
}

// RoundRecorder archives settled hands and accrues player stats.
type RoundRecorder interface {
	RecordRound(ctx context.Context, rec RoundRecord) error
}

// Service owns the table registry and turns transport commands into
// table mutations. Balance snapshots are fetched before any table lock
// is taken; nothing suspends mid-mutation.
type Service struct {
	cfg      Config
	balances BalanceStore
	recorder RoundRecorder
	registry *tableRegistry
	clock    quartz.Clock

	// newRNG seeds each table's shoe; tests swap it for determinism.
	newRNG func() *mrand.Rand

	startOnce sync.Once
}

func NewService(cfg Config, balances BalanceStore, recorder RoundRecorder, clock quartz.Clock) *Service {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Service{
		cfg:      cfg,
		balances: balances,
		recorder: recorder,
		registry: newTableRegistry(),
		clock:    clock,
		newRNG: func() *mrand.Rand {
			return mrand.New(mrand.NewSource(time.Now().UnixNano()))
		},
	}
}

// CreateTable opens a public table and seats the creator with their
// opening bet.
func (s *Service) CreateTable(ctx context.Context, userID int64, alias, avatar string, bet int64) (string, error) {
	return s.createTable(ctx, userID, alias, avatar, bet, false)
}

// StartSolo opens a private single-player table and deals immediately.
func (s *Service) StartSolo(ctx context.Context, userID int64, alias, avatar string, bet int64) (string, error) {
	tableID, err := s.createTable(ctx, userID, alias, avatar, bet, true)
	if err != nil {
		return "", err
	}
	rt, err := s.registry.get(tableID)
	if err != nil {
		return "", err
	}
	if err := rt.StartRound(); err != nil {
		return "", err
	}
	return tableID, nil
}

func (s *Service) createTable(ctx context.Context, userID int64, alias, avatar string, bet int64, private bool) (string, error) {
	balance, err := s.balances.Balance(ctx, userID)
	if err != nil {
		return "", err
	}

	rt, err := s.registry.create(userID, func(tableID string) *TableRuntime {
		sh := newShoe(s.cfg.DeckCount, s.cfg.PenetrationLimit, s.newRNG())
		return newTableRuntime(tableID, private, userID, s.cfg, sh, s.clock, s.handleRoundFinish)
	})
	if err != nil {
		return "", err
	}

	if err := rt.Join(userID, alias, avatar, bet, balance); err != nil {
		s.registry.remove(rt.TableID())
		s.registry.unbind(userID)
		return "", err
	}

	logger.Log.Info("table created",
		zap.String("tableID", rt.TableID()),
		zap.Int64("ownerID", userID),
		zap.Bool("private", private),
	)
	return rt.TableID(), nil
}

// Join seats a player at an existing table. The seat binding is taken
// first so a user can never race into two tables.
func (s *Service) Join(ctx context.Context, tableID string, userID int64, alias, avatar string, bet int64) error {
	rt, err := s.registry.get(tableID)
	if err != nil {
		return err
	}
	balance, err := s.balances.Balance(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.registry.bind(userID, tableID); err != nil {
		return err
	}
	if err := rt.Join(userID, alias, avatar, bet, balance); err != nil {
		s.registry.unbind(userID)
		return err
	}
	return nil
}

// Leave frees the seat; the last player out discards the table.
func (s *Service) Leave(ctx context.Context, tableID string, userID int64) error {
	rt, err := s.registry.get(tableID)
	if err != nil {
		return err
	}
	empty, err := rt.Leave(userID)
	if err != nil {
		return err
	}
	s.registry.unbind(userID)
	if empty {
		s.registry.remove(tableID)
		logger.Log.Info("table discarded", zap.String("tableID", tableID))
	}
	return nil
}

func (s *Service) Ready(ctx context.Context, tableID string, userID int64) error {
	rt, err := s.registry.get(tableID)
	if err != nil {
		return err
	}
	return rt.Ready(userID)
}

func (s *Service) SetBet(ctx context.Context, tableID string, userID int64, bet int64) error {
	rt, err := s.registry.get(tableID)
	if err != nil {
		return err
	}
	balance, err := s.balances.Balance(ctx, userID)
	if err != nil {
		return err
	}
	return rt.SetBet(userID, bet, balance)
}

func (s *Service) Hit(ctx context.Context, tableID string, userID int64) error {
	rt, err := s.registry.get(tableID)
	if err != nil {
		return err
	}
	return rt.Hit(userID)
}

func (s *Service) Stand(ctx context.Context, tableID string, userID int64) error {
	rt, err := s.registry.get(tableID)
	if err != nil {
		return err
	}
	return rt.Stand(userID)
}

func (s *Service) Double(ctx context.Context, tableID string, userID int64) error {
	rt, err := s.registry.get(tableID)
	if err != nil {
		return err
	}
	balance, err := s.balances.Balance(ctx, userID)
	if err != nil {
		return err
	}
	return rt.Double(userID, balance)
}

func (s *Service) Split(ctx context.Context, tableID string, userID int64) error {
	rt, err := s.registry.get(tableID)
	if err != nil {
		return err
	}
	balance, err := s.balances.Balance(ctx, userID)
	if err != nil {
		return err
	}
	return rt.Split(userID, balance)
}

// State returns the caller's view of a table.
func (s *Service) State(ctx context.Context, tableID string, userID int64) (TableState, error) {
	rt, err := s.registry.get(tableID)
	if err != nil {
		return TableState{}, err
	}
	return rt.State(userID), nil
}

// CurrentTable reports where the user is seated, if anywhere.
func (s *Service) CurrentTable(userID int64) (string, bool) {
	return s.registry.seatOf(userID)
}

// Tables lists public tables for the lobby.
func (s *Service) Tables() []TableSummary {
	snapshot := s.registry.snapshot()
	summaries := make([]TableSummary, 0, len(snapshot))
	for _, rt := range snapshot {
		rt.mu.Lock()
		if !rt.private && !rt.closed {
			summaries = append(summaries, TableSummary{
				TableID: rt.tableID,
				Phase:   rt.phase,
				Seats:   len(rt.players),
				SeatCap: rt.cfg.SeatCap,
			})
		}
		rt.mu.Unlock()
	}
	return summaries
}

// ValidateTableAccess checks whether the user may open a stream on the
// table. Public tables are open to watch; private tables admit seated
// players only.
func (s *Service) ValidateTableAccess(tableID string, userID int64) error {
	rt, err := s.registry.get(tableID)
	if err != nil {
		return err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return appErr.ErrTableNotFound
	}
	if !rt.private {
		return nil
	}
	if rt.findPlayerLocked(userID) == nil {
		return appErr.ErrNotSeated
	}
	return nil
}

func (s *Service) Subscribe(tableID string, userID int64) (chan OutgoingMessage, error) {
	rt, err := s.registry.get(tableID)
	if err != nil {
		return nil, err
	}
	return rt.Subscribe(userID), nil
}

func (s *Service) Unsubscribe(tableID string, userID int64) {
	rt, err := s.registry.get(tableID)
	if err != nil {
		return
	}
	rt.Unsubscribe(userID)
}

// HandleAction dispatches a websocket command onto the table.
func (s *Service) HandleAction(ctx context.Context, tableID string, userID int64, action string, data json.RawMessage) error {
	switch action {
	case "ready":
		return s.Ready(ctx, tableID, userID)
	case "bet":
		var payload struct {
			Amount int64 `json:"amount"`
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &payload); err != nil {
				return appErr.ErrInvalidBet
			}
		}
		return s.SetBet(ctx, tableID, userID, payload.Amount)
	case "hit":
		return s.Hit(ctx, tableID, userID)
	case "stand":
		return s.Stand(ctx, tableID, userID)
	case "double":
		return s.Double(ctx, tableID, userID)
	case "split":
		return s.Split(ctx, tableID, userID)
	case "state":
		rt, err := s.registry.get(tableID)
		if err != nil {
			return err
		}
		rt.PushState(userID)
		return nil
	case "ping":
		rt, err := s.registry.get(tableID)
		if err != nil {
			return err
		}
		rt.Pong(userID)
		return nil
	default:
		return appErr.ErrInvalidAction
	}
}

// handleRoundFinish posts settlement deltas and archives the hands. It
// runs detached from the table lock; a failed write is logged and
// skipped so persistence trouble never stalls a table.
func (s *Service) handleRoundFinish(tableID string, round int, dealerCards []string, results []HandResult) {
	ctx := context.Background()

	for _, res := range results {
		if res.Payout != 0 {
			meta := map[string]interface{}{
				"tableId":   tableID,
				"round":     round,
				"handIndex": res.HandIndex,
				"result":    string(res.Result),
			}
			if err := s.balances.ApplyDelta(ctx, res.UserID, res.Payout, "settle", meta); err != nil {
				logger.Log.Error("settlement delta failed",
					zap.String("tableID", tableID),
					zap.Int64("userID", res.UserID),
					zap.Int64("delta", res.Payout),
					zap.Error(err),
				)
			}
		}

		rec := RoundRecord{
			TableID:     tableID,
			Round:       round,
			UserID:      res.UserID,
			HandIndex:   res.HandIndex,
			Bet:         res.Bet,
			Result:      res.Result,
			Payout:      res.Payout,
			PlayerCards: res.Cards,
			DealerCards: dealerCards,
		}
		if err := s.recorder.RecordRound(ctx, rec); err != nil {
			logger.Log.Error("round record failed",
				zap.String("tableID", tableID),
				zap.Int64("userID", res.UserID),
				zap.Error(err),
			)
		}
	}
}
