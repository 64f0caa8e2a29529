package service

import (
	"context"

	"blackjack-service/internal/service/admin"
	"blackjack-service/internal/service/auth"
	"blackjack-service/internal/service/game"
	"blackjack-service/internal/service/referral"
	"blackjack-service/internal/service/shop"
	"blackjack-service/internal/service/user"
	"blackjack-service/internal/service/wallet"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Game     *game.Service
	Auth     *auth.Service
	User     *user.Service
	Wallet   *wallet.Service
	Referral *referral.Service
	Shop     *shop.Service
	Admin    *admin.Service
}

func NewContainer(db *gorm.DB, rdb *redis.Client) *Container {
	walletSvc := wallet.NewService(db, rdb)
	userSvc := user.NewService(db)
	return &Container{
		Admin:    admin.NewService(db),
		Auth:     auth.NewService(db, rdb, walletSvc, userSvc),
		User:     userSvc,
		Wallet:   walletSvc,
		Referral: referral.NewService(db),
		Shop:     shop.NewService(db),
		Game:     game.NewService(game.ConfigFromGlobal(), walletSvc, userSvc, nil),
	}
}

func (c *Container) Start(ctx context.Context) error {
	if err := c.Admin.EnsureDefaultAdmin(ctx); err != nil {
		return err
	}
	return c.Game.Start(ctx)
}
