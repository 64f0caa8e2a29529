package admin_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"blackjack-service/internal/config"
	"blackjack-service/internal/model"
	adminsvc "blackjack-service/internal/service/admin"
	appErr "blackjack-service/pkg/errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*gorm.DB, *adminsvc.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.Admin{}); err != nil {
		t.Fatalf("migrate admin model: %v", err)
	}

	config.GlobalConfig = &config.Config{
		JWT: config.JWTConfig{
			Secret: "test-secret",
			Expire: 1,
		},
		Admin: config.AdminSeedConfig{
			DefaultUsername: "bootstrap",
			DefaultPassword: "bootstrap-pass",
		},
	}

	return db, adminsvc.NewService(db)
}

// The in-memory database is shared across the package, so every test
// seeds its own uniquely named operator.
func seedAdmin(t *testing.T, db *gorm.DB, username, password, status string) *model.Admin {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	admin := &model.Admin{
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  username,
		Status:       status,
	}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return admin
}

func TestLoginStampsLastLogin(t *testing.T) {
	db, svc := newTestService(t)
	seeded := seedAdmin(t, db, "pit-boss", "floor-keys-1", "active")

	resp, err := svc.Login(context.Background(), "pit-boss", "floor-keys-1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected a token")
	}
	if resp.Admin.ID != seeded.ID {
		t.Fatalf("expected admin id %d, got %d", seeded.ID, resp.Admin.ID)
	}
	if resp.Admin.LastLoginAt == nil {
		t.Fatalf("expected lastLoginAt in the login response")
	}
	if !resp.ExpireAt.After(time.Now()) {
		t.Fatalf("token already expired at %v", resp.ExpireAt)
	}

	var stored model.Admin
	if err := db.First(&stored, seeded.ID).Error; err != nil {
		t.Fatalf("reload admin: %v", err)
	}
	if stored.LastLoginAt == nil {
		t.Fatalf("expected last_login_at to be written")
	}
}

func TestLoginRejections(t *testing.T) {
	db, svc := newTestService(t)
	seedAdmin(t, db, "night-shift", "floor-keys-2", "active")
	seedAdmin(t, db, "fired-shift", "floor-keys-3", "disabled")

	ctx := context.Background()
	cases := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"wrong password", "night-shift", "not-the-keys", appErr.ErrInvalidAdminPassword},
		{"blank username", "", "floor-keys-2", appErr.ErrInvalidAdminPassword},
		{"blank password", "night-shift", "   ", appErr.ErrInvalidAdminPassword},
		{"disabled account", "fired-shift", "floor-keys-3", appErr.ErrAdminDisabled},
		{"unknown account", "nobody-here", "whatever-keys", appErr.ErrAdminNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Login(ctx, tc.username, tc.password); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestGetAdmin(t *testing.T) {
	db, svc := newTestService(t)
	seeded := seedAdmin(t, db, "day-shift", "floor-keys-4", "active")

	info, err := svc.Get(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("get admin: %v", err)
	}
	if info.Username != "day-shift" || info.Status != "active" {
		t.Fatalf("unexpected admin view: %+v", info)
	}

	if _, err := svc.Get(context.Background(), 999999); !errors.Is(err, appErr.ErrAdminNotFound) {
		t.Fatalf("expected ErrAdminNotFound, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	db, svc := newTestService(t)
	seeded := seedAdmin(t, db, "rotating", "old-keys-long", "active")
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, seeded.ID, "not-the-old", "new-keys-long"); !errors.Is(err, appErr.ErrInvalidAdminPassword) {
		t.Fatalf("expected rejection for wrong current password, got %v", err)
	}
	if err := svc.ChangePassword(ctx, seeded.ID, "old-keys-long", "short"); !errors.Is(err, appErr.ErrInvalidAdminPassword) {
		t.Fatalf("expected rejection for weak password, got %v", err)
	}
	if err := svc.ChangePassword(ctx, 999999, "old-keys-long", "new-keys-long"); !errors.Is(err, appErr.ErrAdminNotFound) {
		t.Fatalf("expected ErrAdminNotFound, got %v", err)
	}

	if err := svc.ChangePassword(ctx, seeded.ID, "old-keys-long", "new-keys-long"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := svc.Login(ctx, "rotating", "old-keys-long"); !errors.Is(err, appErr.ErrInvalidAdminPassword) {
		t.Fatalf("old password still accepted after rotation: %v", err)
	}
	if _, err := svc.Login(ctx, "rotating", "new-keys-long"); err != nil {
		t.Fatalf("new password rejected after rotation: %v", err)
	}
}

func TestEnsureDefaultAdminIdempotent(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()

	countBootstrap := func() int64 {
		t.Helper()
		var n int64
		if err := db.Model(&model.Admin{}).
			Where("username = ?", config.GlobalConfig.Admin.DefaultUsername).
			Count(&n).Error; err != nil {
			t.Fatalf("count admins: %v", err)
		}
		return n
	}

	if err := svc.EnsureDefaultAdmin(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if n := countBootstrap(); n != 1 {
		t.Fatalf("expected 1 bootstrap admin, got %d", n)
	}

	if err := svc.EnsureDefaultAdmin(ctx); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	if n := countBootstrap(); n != 1 {
		t.Fatalf("bootstrap not idempotent, got %d admins", n)
	}

	if _, err := svc.Login(ctx, "bootstrap", "bootstrap-pass"); err != nil {
		t.Fatalf("bootstrap admin cannot log in: %v", err)
	}
}
