package wallet

import (
	"context"
	"fmt"
	"time"

	"blackjack-service/internal/config"
	"blackjack-service/internal/model"
	appErr "blackjack-service/pkg/errors"
	"blackjack-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultSeedBalance   = 1000
	defaultDailyBonus    = 100
	defaultReferralBonus = 200
)

type Service struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{db: db, rdb: rdb}
}

func seedBalance() int64 {
	if config.GlobalConfig != nil && config.GlobalConfig.Wallet.SeedBalance > 0 {
		return config.GlobalConfig.Wallet.SeedBalance
	}
	return defaultSeedBalance
}

func dailyBonus() int64 {
	if config.GlobalConfig != nil && config.GlobalConfig.Wallet.DailyBonus > 0 {
		return config.GlobalConfig.Wallet.DailyBonus
	}
	return defaultDailyBonus
}

func referralBonus() int64 {
	if config.GlobalConfig != nil && config.GlobalConfig.Wallet.ReferralBonus > 0 {
		return config.GlobalConfig.Wallet.ReferralBonus
	}
	return defaultReferralBonus
}

// Provision creates the wallet with the seed balance on first login.
// Calling it for an existing wallet is a no-op.
func (s *Service) Provision(ctx context.Context, userID int64) (*model.Wallet, error) {
	var wallet model.Wallet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&wallet).Error
		if err == nil {
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		now := time.Now()
		wallet = model.Wallet{
			UserID:    userID,
			Balance:   seedBalance(),
			UpdatedAt: now,
		}
		if err := tx.Create(&wallet).Error; err != nil {
			return err
		}
		return tx.Create(&model.BillingLog{
			UserID:       userID,
			Type:         "seed",
			Delta:        wallet.Balance,
			BalanceAfter: wallet.Balance,
			MetaJSON:     mustJSON(nil),
			CreatedAt:    now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (s *Service) GetWallet(ctx context.Context, userID int64) (*model.Wallet, error) {
	var wallet model.Wallet
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, appErr.ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

// Balance reports the spendable chip balance. The game service calls it
// before gating a bet, double, or split.
func (s *Service) Balance(ctx context.Context, userID int64) (int64, error) {
	wallet, err := s.GetWallet(ctx, userID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

// ApplyDelta moves the balance by delta under a row lock and writes the
// billing trail. Settlement deltas also accrue the win/lose totals.
// Losses apply even when they push the balance negative; bets are not
// escrowed, so the settlement figure is authoritative.
func (s *Service) ApplyDelta(ctx context.Context, userID int64, delta int64, reason string, meta map[string]interface{}) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wallets := newWalletBook(tx)
		wallet, err := wallets.Ensure(userID)
		if err != nil {
			return err
		}

		wallet.Balance += delta
		if reason == "settle" {
			if delta > 0 {
				wallet.TotalWin += delta
			} else {
				wallet.TotalLose += -delta
			}
		}

		if err := wallets.SaveAll(now); err != nil {
			return err
		}
		return tx.Create(&model.BillingLog{
			UserID:       userID,
			Type:         reason,
			Delta:        delta,
			BalanceAfter: wallet.Balance,
			MetaJSON:     mustJSON(meta),
			CreatedAt:    now,
		}).Error
	})
}

// ClaimDailyBonus credits the daily bonus once per calendar day. The
// claim is reserved in redis first so concurrent requests cannot double
// credit; a failed credit releases the reservation.
func (s *Service) ClaimDailyBonus(ctx context.Context, userID int64) (*model.Wallet, error) {
	key := buildDailyBonusKey(userID, time.Now())
	ok, err := s.rdb.SetNX(ctx, key, 1, 48*time.Hour).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErr.ErrBonusAlreadyClaimed
	}

	bonus := dailyBonus()
	if err := s.ApplyDelta(ctx, userID, bonus, "daily_bonus", nil); err != nil {
		s.rdb.Del(ctx, key)
		return nil, err
	}

	logger.Log.Info("daily bonus claimed",
		zap.Int64("userID", userID),
		zap.Int64("bonus", bonus),
	)
	return s.GetWallet(ctx, userID)
}

// CreateRechargeOrder opens a pending top-up order.
func (s *Service) CreateRechargeOrder(ctx context.Context, userID int64, amount int64) (*model.RechargeOrder, error) {
	if amount <= 0 {
		return nil, appErr.ErrInvalidAmount
	}

	order := model.RechargeOrder{
		UserID:    userID,
		Amount:    amount,
		Status:    "pending",
		OrderNo:   uuid.NewString(),
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// PayRechargeOrder marks the order paid and credits the chips. The
// user's first paid top-up also credits the inviter's referral bonus in
// the same transaction.
func (s *Service) PayRechargeOrder(ctx context.Context, orderNo string) (*model.RechargeOrder, error) {
	var order model.RechargeOrder
	now := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_no = ?", orderNo).
			First(&order).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return appErr.ErrOrderNotFound
			}
			return err
		}
		if order.Status != "pending" {
			return appErr.ErrOrderAlreadyPaid
		}

		wallets := newWalletBook(tx)
		wallet, err := wallets.Ensure(order.UserID)
		if err != nil {
			return err
		}

		firstTopUp := wallet.TotalRecharge == 0
		wallet.Balance += order.Amount
		wallet.TotalRecharge += order.Amount

		billingLogs := []model.BillingLog{{
			UserID:       order.UserID,
			Type:         "recharge",
			Delta:        order.Amount,
			BalanceAfter: wallet.Balance,
			MetaJSON:     mustJSON(map[string]interface{}{"orderNo": order.OrderNo}),
			CreatedAt:    now,
		}}

		if firstTopUp {
			var user model.User
			if err := tx.First(&user, order.UserID).Error; err != nil && err != gorm.ErrRecordNotFound {
				return err
			}
			if user.InviterID != nil {
				inviterWallet, err := wallets.Ensure(*user.InviterID)
				if err != nil {
					return err
				}
				bonus := referralBonus()
				inviterWallet.Balance += bonus
				billingLogs = append(billingLogs, model.BillingLog{
					UserID:       *user.InviterID,
					Type:         "referral_bonus",
					Delta:        bonus,
					BalanceAfter: inviterWallet.Balance,
					MetaJSON:     mustJSON(map[string]interface{}{"fromUserId": user.ID, "orderNo": order.OrderNo}),
					CreatedAt:    now,
				})
			}
		}

		if err := wallets.SaveAll(now); err != nil {
			return err
		}
		if err := tx.Create(&billingLogs).Error; err != nil {
			return err
		}

		order.Status = "paid"
		order.PaidAt = &now
		return tx.Save(&order).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("recharge order paid",
		zap.String("orderNo", order.OrderNo),
		zap.Int64("userID", order.UserID),
		zap.Int64("amount", order.Amount),
	)
	return &order, nil
}

// AdminAdjust moves a user's balance by hand, for support cases.
func (s *Service) AdminAdjust(ctx context.Context, userID int64, delta int64, note string) (*model.Wallet, error) {
	if delta == 0 {
		return nil, appErr.ErrInvalidAmount
	}
	meta := map[string]interface{}{}
	if note != "" {
		meta["note"] = note
	}
	if err := s.ApplyDelta(ctx, userID, delta, "admin_adjust", meta); err != nil {
		return nil, err
	}
	return s.GetWallet(ctx, userID)
}

type BillingResult struct {
	Items []model.BillingLog
	Total int64
}

// Billing pages through a user's billing trail, newest first.
func (s *Service) Billing(ctx context.Context, userID int64, page, size int) (*BillingResult, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}

	query := s.db.WithContext(ctx).Model(&model.BillingLog{}).Where("user_id = ?", userID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	result := &BillingResult{Items: make([]model.BillingLog, 0), Total: total}
	if total == 0 {
		return result, nil
	}
	if err := query.
		Order("id DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&result.Items).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func buildDailyBonusKey(userID int64, day time.Time) string {
	return fmt.Sprintf("wallet:daily:%d:%s", userID, day.Format("20060102"))
}
