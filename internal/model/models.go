package model

import (
	"time"

	"gorm.io/datatypes"
)

// User & referral

type User struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	Phone      string `gorm:"unique;not null"`
	Nickname   string
	Avatar     string
	InviteCode string `gorm:"unique"`
	InviterID  *int64
	Status     string `gorm:"default:normal;not null"` // normal/banned
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Admin struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	DisplayName  string
	Status       string `gorm:"default:active;not null"` // active/disabled
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Wallet & billing

type Wallet struct {
	UserID        int64 `gorm:"primaryKey"`
	Balance       int64
	TotalRecharge int64
	TotalWin      int64
	TotalLose     int64
	UpdatedAt     time.Time
}

type RechargeOrder struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	UserID    int64
	Amount    int64  // chips credited on payment
	Status    string // pending/paid/cancelled
	OrderNo   string `gorm:"unique"`
	CreatedAt time.Time
	PaidAt    *time.Time
}

// RechargePackage is a top-up preset shown to players. Payment itself is
// settled out of band; paid orders credit Chips+Bonus.
type RechargePackage struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"not null"`
	Chips     int64
	Bonus     int64
	Status    string `gorm:"default:active;not null"` // active/disabled
	SortOrder int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type BillingLog struct {
	ID           int64 `gorm:"primaryKey;autoIncrement"`
	UserID       int64
	Type         string // settle/recharge/daily_bonus/referral_bonus/admin_adjust
	Delta        int64
	BalanceAfter int64
	MetaJSON     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time
}

// Rounds & stats

// RoundRecord is one settled hand: a player who split writes one row per hand.
type RoundRecord struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	TableID     string `gorm:"index"`
	Round       int
	UserID      int64 `gorm:"index"`
	HandIndex   int
	Bet         int64
	Result      string // blackjack/win/push/lose
	Payout      int64
	PlayerCards datatypes.JSON `gorm:"type:jsonb"`
	DealerCards datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time
}

type UserStats struct {
	UserID     int64 `gorm:"primaryKey"`
	Games      int64
	Wins       int64
	Losses     int64
	Pushes     int64
	Blackjacks int64
	MaxBalance int64
	UpdatedAt  time.Time
}
