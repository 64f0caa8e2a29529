package referral

import (
	"context"
	"errors"
	"time"

	"blackjack-service/internal/model"
	appErr "blackjack-service/pkg/errors"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service answers invite-tree questions: who a player brought in and what
// those referrals have earned them so far.
type Service struct {
	db *gorm.DB
}

type Overview struct {
	InviteCode   string `json:"inviteCode"`
	InviteeCount int64  `json:"inviteeCount"`
	TotalEarned  int64  `json:"totalEarned"`
}

type Invitee struct {
	UserID      int64     `json:"userId,string"`
	Nickname    string    `json:"nickname"`
	Avatar      string    `json:"avatar"`
	JoinedAt    time.Time `json:"joinedAt"`
	Contributed bool      `json:"contributed"`
}

type InviteesResult struct {
	Items []Invitee
	Total int64
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func normalizePagination(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func (s *Service) Overview(ctx context.Context, userID int64) (*Overview, error) {
	var account model.User
	if err := s.db.WithContext(ctx).First(&account, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrUserNotFound
		}
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("inviter_id = ?", userID).
		Count(&count).Error; err != nil {
		return nil, err
	}

	var earned int64
	if err := s.db.WithContext(ctx).
		Model(&model.BillingLog{}).
		Where("user_id = ? AND type = ?", userID, "referral_bonus").
		Select("COALESCE(SUM(delta), 0)").
		Scan(&earned).Error; err != nil {
		return nil, err
	}

	return &Overview{
		InviteCode:   account.InviteCode,
		InviteeCount: count,
		TotalEarned:  earned,
	}, nil
}

// Invitees pages through a player's direct invitees, newest first. Contributed
// marks invitees who have completed at least one paid top-up.
func (s *Service) Invitees(ctx context.Context, userID int64, page, size int) (*InviteesResult, error) {
	page, size = normalizePagination(page, size)

	var total int64
	if err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("inviter_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, err
	}

	result := &InviteesResult{
		Items: make([]Invitee, 0),
		Total: total,
	}
	if total == 0 {
		return result, nil
	}

	offset := (page - 1) * size
	if err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Select("users.id AS user_id, users.nickname, users.avatar, users.created_at AS joined_at, COALESCE(wallets.total_recharge, 0) > 0 AS contributed").
		Joins("LEFT JOIN wallets ON wallets.user_id = users.id").
		Where("users.inviter_id = ?", userID).
		Order("users.id DESC").
		Limit(size).
		Offset(offset).
		Scan(&result.Items).Error; err != nil {
		return nil, err
	}
	return result, nil
}
