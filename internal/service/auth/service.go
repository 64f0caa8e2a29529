package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"blackjack-service/internal/config"
	"blackjack-service/internal/model"
	"blackjack-service/internal/service/user"
	"blackjack-service/internal/service/wallet"
	pkgAuth "blackjack-service/pkg/auth"
	appErr "blackjack-service/pkg/errors"
	"blackjack-service/pkg/logger"
	netutil "blackjack-service/pkg/utils/net"
	"blackjack-service/pkg/utils/random"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testOTPCode      = "123456"
	otpLength        = 6
	inviteCodeLength = 8

	resendCooldown  = time.Minute
	subnetHourlyCap = 20
)

type Service struct {
	db      *gorm.DB
	rdb     *redis.Client
	wallets *wallet.Service
	users   *user.Service
	codeTTL time.Duration
}

type LoginResult struct {
	Token    string     `json:"token"`
	ExpireAt time.Time  `json:"expireAt"`
	User     model.User `json:"user"`
}

func NewService(db *gorm.DB, rdb *redis.Client, wallets *wallet.Service, users *user.Service) *Service {
	return &Service{
		db:      db,
		rdb:     rdb,
		wallets: wallets,
		users:   users,
		codeTTL: 5 * time.Minute,
	}
}

// SendSMS issues a login code for the phone. Resends are throttled per
// phone, and each /24 subnet gets an hourly cap so one host cannot farm
// codes across numbers.
func (s *Service) SendSMS(ctx context.Context, phone, clientIP string) error {
	if !isValidPhone(phone) {
		return appErr.ErrInvalidPhone
	}

	throttled, err := s.rdb.SetNX(ctx, buildSMSThrottleKey(phone), 1, resendCooldown).Result()
	if err != nil {
		return err
	}
	if !throttled {
		return appErr.ErrSMSCodeThrottled
	}

	if clientIP != "" {
		subnetKey := buildSMSSubnetKey(netutil.Subnet24(clientIP))
		count, err := s.rdb.Incr(ctx, subnetKey).Result()
		if err != nil {
			return err
		}
		if count == 1 {
			s.rdb.Expire(ctx, subnetKey, time.Hour)
		}
		if count > subnetHourlyCap {
			return appErr.ErrSMSCodeThrottled
		}
	}

	code := testOTPCode
	if !strings.EqualFold(config.GlobalConfig.Server.Mode, "debug") {
		code = random.Numeric(otpLength)
	}

	if err := s.rdb.Set(ctx, buildSMSKey(phone), code, s.codeTTL).Err(); err != nil {
		return err
	}
	logger.Log.Info("otp generated",
		zap.String("phone", maskPhone(phone)),
		zap.Bool("testCode", strings.EqualFold(config.GlobalConfig.Server.Mode, "debug")),
	)
	return nil
}

// Login verifies the code, creating the account with its seeded wallet
// on first use. An invite code binds the inviter for the referral
// bonus; it can only be bound once.
func (s *Service) Login(ctx context.Context, phone, code, inviteCode string) (*LoginResult, error) {
	if strings.TrimSpace(phone) == "" || strings.TrimSpace(code) == "" {
		return nil, appErr.ErrInvalidPhone
	}

	key := buildSMSKey(phone)
	stored, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, appErr.ErrSMSCodeExpired
		}
		return nil, err
	}
	if stored != code {
		return nil, appErr.ErrInvalidSMSCode
	}
	s.rdb.Del(ctx, key)

	var account model.User
	err = s.db.WithContext(ctx).Where("phone = ?", phone).First(&account).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		account, err = s.createUser(ctx, phone)
		if err != nil {
			return nil, err
		}
	}

	if err := s.ensureInviteCode(ctx, &account); err != nil {
		return nil, err
	}
	if strings.EqualFold(account.Status, "banned") {
		return nil, appErr.ErrUserBanned
	}
	if err := s.bindInviterIfNeeded(ctx, &account, strings.TrimSpace(inviteCode)); err != nil {
		return nil, err
	}

	w, err := s.wallets.Provision(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if err := s.users.EnsureStats(ctx, account.ID, w.Balance); err != nil {
		return nil, err
	}

	token, err := pkgAuth.GenerateToken(account.ID)
	if err != nil {
		return nil, err
	}

	expireAt := time.Now().Add(time.Duration(config.GlobalConfig.JWT.Expire) * time.Hour)
	return &LoginResult{
		Token:    token,
		ExpireAt: expireAt,
		User:     account,
	}, nil
}

func (s *Service) createUser(ctx context.Context, phone string) (model.User, error) {
	account := model.User{
		Phone:      phone,
		Status:     "normal",
		InviteCode: random.Code(inviteCodeLength),
	}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		return model.User{}, err
	}
	return account, nil
}

func (s *Service) ensureInviteCode(ctx context.Context, account *model.User) error {
	if account.InviteCode != "" {
		return nil
	}
	code := random.Code(inviteCodeLength)
	if err := s.db.WithContext(ctx).Model(account).Update("invite_code", code).Error; err != nil {
		return err
	}
	account.InviteCode = code
	return nil
}

func (s *Service) bindInviterIfNeeded(ctx context.Context, account *model.User, inviteCode string) error {
	if inviteCode == "" {
		return nil
	}
	if account.InviterID != nil {
		return appErr.ErrAlreadyBoundInviter
	}

	var inviter model.User
	err := s.db.WithContext(ctx).Where("invite_code = ?", inviteCode).First(&inviter).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return appErr.ErrInviteCodeNotFound
		}
		return err
	}
	if inviter.ID == account.ID {
		return appErr.ErrInviteCodeNotFound
	}

	if err := s.db.WithContext(ctx).Model(account).Update("inviter_id", inviter.ID).Error; err != nil {
		return err
	}
	account.InviterID = &inviter.ID
	return nil
}

func buildSMSKey(phone string) string {
	return fmt.Sprintf("sms:otp:%s", phone)
}

func buildSMSThrottleKey(phone string) string {
	return fmt.Sprintf("sms:otp:throttle:%s", phone)
}

func buildSMSSubnetKey(subnet string) string {
	return fmt.Sprintf("sms:otp:subnet:%s", subnet)
}

func isValidPhone(phone string) bool {
	return len(strings.TrimSpace(phone)) >= 6
}

func maskPhone(phone string) string {
	if len(phone) < 7 {
		return phone
	}
	return phone[:3] + "****" + phone[len(phone)-3:]
}
