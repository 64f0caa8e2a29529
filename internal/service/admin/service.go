package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"blackjack-service/internal/config"
	"blackjack-service/internal/model"
	pkgAuth "blackjack-service/pkg/auth"
	appErr "blackjack-service/pkg/errors"
	"blackjack-service/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	statusActive = "active"

	// Operators reset forgotten passwords by hand, so the only rule
	// enforced here is a floor on length.
	minPasswordLen = 8
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type LoginResult struct {
	Token    string    `json:"token"`
	ExpireAt time.Time `json:"expireAt"`
	Admin    AdminInfo `json:"admin"`
}

type AdminInfo struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"displayName"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func adminView(a model.Admin) AdminInfo {
	return AdminInfo{
		ID:          a.ID,
		Username:    a.Username,
		DisplayName: a.DisplayName,
		Status:      a.Status,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
	}
}

// Login verifies operator credentials and mints an admin-scoped token.
// A disabled account fails even with the right password.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, appErr.ErrInvalidAdminPassword
	}

	admin, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(admin.Status, statusActive) {
		return nil, appErr.ErrAdminDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return nil, appErr.ErrInvalidAdminPassword
	}

	token, err := pkgAuth.GenerateAdminToken(admin.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).
		Model(&model.Admin{}).
		Where("id = ?", admin.ID).
		Updates(map[string]interface{}{
			"last_login_at": now,
			"updated_at":    now,
		}).Error; err != nil {
		return nil, err
	}
	admin.LastLoginAt = &now

	return &LoginResult{
		Token:    token,
		ExpireAt: now.Add(time.Duration(config.GlobalConfig.JWT.Expire) * time.Hour),
		Admin:    adminView(*admin),
	}, nil
}

// Get returns the account behind an admin token, for the console's
// "who am I" call.
func (s *Service) Get(ctx context.Context, adminID int64) (*AdminInfo, error) {
	var admin model.Admin
	if err := s.db.WithContext(ctx).First(&admin, adminID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrAdminNotFound
		}
		return nil, err
	}
	info := adminView(admin)
	return &info, nil
}

// ChangePassword swaps the bcrypt hash after re-verifying the current
// password. Existing tokens stay valid until they expire.
func (s *Service) ChangePassword(ctx context.Context, adminID int64, current, next string) error {
	next = strings.TrimSpace(next)
	if len(next) < minPasswordLen {
		return appErr.ErrInvalidAdminPassword
	}

	var admin model.Admin
	if err := s.db.WithContext(ctx).First(&admin, adminID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.ErrAdminNotFound
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(strings.TrimSpace(current))) != nil {
		return appErr.ErrInvalidAdminPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).
		Model(&model.Admin{}).
		Where("id = ?", admin.ID).
		Update("password_hash", string(hash)).Error; err != nil {
		return err
	}

	logger.Log.Info("admin password changed", zap.Int64("adminID", admin.ID))
	return nil
}

// EnsureDefaultAdmin seeds the bootstrap operator account on first boot.
// It never overwrites an existing account, so rotating the configured
// password later has no effect on a live deployment.
func (s *Service) EnsureDefaultAdmin(ctx context.Context) error {
	cfg := config.GlobalConfig.Admin
	if cfg.DefaultUsername == "" || cfg.DefaultPassword == "" {
		logger.Log.Warn("default admin credentials not configured; skipping bootstrap")
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&model.Admin{}).
		Where("username = ?", cfg.DefaultUsername).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := model.Admin{
		Username:     cfg.DefaultUsername,
		PasswordHash: string(hash),
		DisplayName:  cfg.DefaultUsername,
		Status:       statusActive,
	}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		return err
	}

	logger.Log.Info("default admin account created",
		zap.String("username", cfg.DefaultUsername))
	return nil
}

func (s *Service) findByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var admin model.Admin
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrAdminNotFound
		}
		return nil, err
	}
	return &admin, nil
}
