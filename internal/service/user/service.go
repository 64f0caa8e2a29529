package user

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"blackjack-service/internal/model"
	"blackjack-service/internal/service/game"
	appErr "blackjack-service/pkg/errors"
	"blackjack-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

type Service struct {
	db *gorm.DB
}

type UpdateProfileRequest struct {
	Nickname *string
	Avatar   *string
}

type AdminListUsersFilter struct {
	Page         int
	Size         int
	Status       string
	PhoneKeyword string
	InviteCode   string
}

type AdminListUsersResult struct {
	Items []model.User
	Total int64
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (f *AdminListUsersFilter) sanitize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Size <= 0 {
		f.Size = defaultPageSize
	}
	if f.Size > maxPageSize {
		f.Size = maxPageSize
	}
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	f.PhoneKeyword = strings.TrimSpace(f.PhoneKeyword)
	f.InviteCode = strings.TrimSpace(f.InviteCode)
}

func applyAdminUserFilters(db *gorm.DB, filter AdminListUsersFilter) *gorm.DB {
	if filter.Status != "" {
		db = db.Where("LOWER(status) = ?", filter.Status)
	}
	if filter.PhoneKeyword != "" {
		like := "%" + filter.PhoneKeyword + "%"
		db = db.Where("phone LIKE ?", like)
	}
	if filter.InviteCode != "" {
		like := "%" + filter.InviteCode + "%"
		db = db.Where("invite_code LIKE ?", like)
	}
	return db
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*model.User, error) {
	updates := map[string]interface{}{}
	if req.Nickname != nil {
		updates["nickname"] = *req.Nickname
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return s.GetProfile(ctx, userID)
}

// EnsureStats seeds the stats row at registration so the peak balance
// starts from the seeded wallet, not from the first settled round.
func (s *Service) EnsureStats(ctx context.Context, userID int64, balance int64) error {
	stats := model.UserStats{
		UserID:     userID,
		MaxBalance: balance,
		UpdatedAt:  time.Now(),
	}
	return s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		FirstOrCreate(&stats).Error
}

// RecordRound archives one settled hand and accrues the owner's stats.
// Games counts rounds, so only the seat's first hand bumps it; the
// outcome counters accrue per hand.
func (s *Service) RecordRound(ctx context.Context, rec game.RoundRecord) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := model.RoundRecord{
			TableID:     rec.TableID,
			Round:       rec.Round,
			UserID:      rec.UserID,
			HandIndex:   rec.HandIndex,
			Bet:         rec.Bet,
			Result:      string(rec.Result),
			Payout:      rec.Payout,
			PlayerCards: mustJSON(rec.PlayerCards),
			DealerCards: mustJSON(rec.DealerCards),
			CreatedAt:   now,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		var stats model.UserStats
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", rec.UserID).
			First(&stats).Error
		if err != nil {
			if err != gorm.ErrRecordNotFound {
				return err
			}
			stats = model.UserStats{UserID: rec.UserID}
		}
		exists := err == nil

		if rec.HandIndex == 0 {
			stats.Games++
		}
		switch rec.Result {
		case game.ResultBlackjack:
			stats.Wins++
			stats.Blackjacks++
		case game.ResultWin:
			stats.Wins++
		case game.ResultPush:
			stats.Pushes++
		case game.ResultLose:
			stats.Losses++
		}

		var wallet model.Wallet
		if err := tx.Where("user_id = ?", rec.UserID).First(&wallet).Error; err == nil {
			if wallet.Balance > stats.MaxBalance {
				stats.MaxBalance = wallet.Balance
			}
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		stats.UpdatedAt = now
		if exists {
			return tx.Save(&stats).Error
		}
		return tx.Create(&stats).Error
	})
}

// GetStats returns the player's lifetime counters; a player who never
// finished a round gets the zero row.
func (s *Service) GetStats(ctx context.Context, userID int64) (*model.UserStats, error) {
	var stats model.UserStats
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &model.UserStats{UserID: userID}, nil
		}
		return nil, err
	}
	return &stats, nil
}

type LeaderboardEntry struct {
	UserID     int64  `json:"userId,string"`
	Nickname   string `json:"nickname"`
	Avatar     string `json:"avatar"`
	MaxBalance int64  `json:"maxBalance"`
	Wins       int64  `json:"wins"`
	Games      int64  `json:"games"`
}

// Leaderboard ranks players by the highest balance they ever held.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}

	entries := make([]LeaderboardEntry, 0, limit)
	err := s.db.WithContext(ctx).
		Model(&model.UserStats{}).
		Select("user_stats.user_id, users.nickname, users.avatar, user_stats.max_balance, user_stats.wins, user_stats.games").
		Joins("JOIN users ON users.id = user_stats.user_id").
		Order("user_stats.max_balance DESC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

type RoundsResult struct {
	Items []model.RoundRecord
	Total int64
}

// Rounds pages through a player's hand history, newest first.
func (s *Service) Rounds(ctx context.Context, userID int64, page, size int) (*RoundsResult, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}

	query := s.db.WithContext(ctx).Model(&model.RoundRecord{}).Where("user_id = ?", userID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	result := &RoundsResult{Items: make([]model.RoundRecord, 0), Total: total}
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

func (s *Service) AdminListUsers(ctx context.Context, filter AdminListUsersFilter) (*AdminListUsersResult, error) {
	filter.sanitize()

	countQuery := applyAdminUserFilters(s.db.WithContext(ctx).Model(&model.User{}), filter)
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, err
	}

	result := &AdminListUsersResult{
		Items: make([]model.User, 0),
		Total: total,
	}
	if total == 0 {
		return result, nil
	}

	dataQuery := applyAdminUserFilters(s.db.WithContext(ctx).Model(&model.User{}), filter)
	if err := dataQuery.
		Order("id DESC").
		Limit(filter.Size).
		Offset((filter.Page - 1) * filter.Size).
		Find(&result.Items).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Service) AdminGetUser(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, appErr.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) AdminUpdateUserStatus(ctx context.Context, userID int64, status, reason string) (*model.User, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "normal" && status != "banned" {
		return nil, appErr.ErrInvalidUserStatus
	}
	reason = strings.TrimSpace(reason)

	now := time.Now()
	res := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, appErr.ErrUserNotFound
	}

	logger.Log.Info("admin updated user status",
		zap.Int64("userID", userID),
		zap.String("status", status),
		zap.String("reason", reason))

	return s.AdminGetUser(ctx, userID)
}

func mustJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("{}")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}
