package shop_test

import (
	"context"
	"errors"
	"testing"

	"blackjack-service/internal/model"
	shopsvc "blackjack-service/internal/service/shop"
	appErr "blackjack-service/pkg/errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*gorm.DB, *shopsvc.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.RechargePackage{}); err != nil {
		t.Fatalf("failed to migrate package model: %v", err)
	}

	return db, shopsvc.NewService(db)
}

func TestCreatePackageValidation(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		params shopsvc.PackageMutationParams
	}{
		{"empty name", shopsvc.PackageMutationParams{Name: "  ", Chips: 100}},
		{"zero chips", shopsvc.PackageMutationParams{Name: "Starter", Chips: 0}},
		{"negative bonus", shopsvc.PackageMutationParams{Name: "Starter", Chips: 100, Bonus: -1}},
		{"bad status", shopsvc.PackageMutationParams{Name: "Starter", Chips: 100, Status: "hidden"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.params); !errors.Is(err, appErr.ErrInvalidPackage) {
				t.Fatalf("expected invalid package error, got: %v", err)
			}
		})
	}

	pkg, err := svc.Create(ctx, shopsvc.PackageMutationParams{Name: " Starter ", Chips: 500, Bonus: 50})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if pkg.Name != "Starter" {
		t.Fatalf("expected trimmed name, got %q", pkg.Name)
	}
	// Status defaults to active when omitted.
	if pkg.Status != "active" {
		t.Fatalf("expected active status, got %q", pkg.Status)
	}
}

func TestListActiveFiltersAndOrders(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	second, err := svc.Create(ctx, shopsvc.PackageMutationParams{Name: "Whale", Chips: 5000, Bonus: 1000, SortOrder: 9})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	first, err := svc.Create(ctx, shopsvc.PackageMutationParams{Name: "Casual", Chips: 800, Bonus: 80, SortOrder: 8})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	hidden, err := svc.Create(ctx, shopsvc.PackageMutationParams{Name: "Retired", Chips: 300, Status: "disabled", SortOrder: 1})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	listed, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}

	posFirst, posSecond := -1, -1
	for i, pkg := range listed {
		switch pkg.ID {
		case first.ID:
			posFirst = i
		case second.ID:
			posSecond = i
		case hidden.ID:
			t.Fatalf("disabled package leaked into the active list")
		}
	}
	if posFirst < 0 || posSecond < 0 {
		t.Fatalf("active packages missing from list: %+v", listed)
	}
	// Sort order ranks the storefront, lowest first.
	if posFirst > posSecond {
		t.Fatalf("expected sort order 8 before 9, got positions %d/%d", posFirst, posSecond)
	}
}

func TestGetActiveHidesDisabled(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	pkg, err := svc.Create(ctx, shopsvc.PackageMutationParams{Name: "Weekend", Chips: 1200, Bonus: 120})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := svc.GetActive(ctx, pkg.ID)
	if err != nil {
		t.Fatalf("get active failed: %v", err)
	}
	if got.Chips != 1200 || got.Bonus != 120 {
		t.Fatalf("unexpected package: %+v", got)
	}

	if _, err := svc.Update(ctx, pkg.ID, shopsvc.PackageMutationParams{
		Name: "Weekend", Chips: 1200, Bonus: 120, Status: "disabled",
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	// A disabled package is indistinguishable from a missing one.
	if _, err := svc.GetActive(ctx, pkg.ID); !errors.Is(err, appErr.ErrPackageNotFound) {
		t.Fatalf("expected package not found error, got: %v", err)
	}
	if _, err := svc.GetActive(ctx, 999999); !errors.Is(err, appErr.ErrPackageNotFound) {
		t.Fatalf("expected package not found error, got: %v", err)
	}
}

func TestUpdatePackage(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	pkg, err := svc.Create(ctx, shopsvc.PackageMutationParams{Name: "Promo", Chips: 1000, Bonus: 0})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := svc.Update(ctx, pkg.ID, shopsvc.PackageMutationParams{
		Name: "Promo Plus", Chips: 1000, Bonus: 250, SortOrder: 3,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != "Promo Plus" || updated.Bonus != 250 || updated.SortOrder != 3 {
		t.Fatalf("unexpected package after update: %+v", updated)
	}

	if _, err := svc.Update(ctx, 999999, shopsvc.PackageMutationParams{Name: "Ghost", Chips: 1}); !errors.Is(err, appErr.ErrPackageNotFound) {
		t.Fatalf("expected package not found error, got: %v", err)
	}
	if _, err := svc.Update(ctx, pkg.ID, shopsvc.PackageMutationParams{Name: "", Chips: 1}); !errors.Is(err, appErr.ErrInvalidPackage) {
		t.Fatalf("expected invalid package error, got: %v", err)
	}
}

func TestAdminListPagination(t *testing.T) {
	db, svc := newTestService(t)
	ctx := context.Background()

	var before int64
	if err := db.Model(&model.RechargePackage{}).Count(&before).Error; err != nil {
		t.Fatalf("failed to count packages: %v", err)
	}

	a, err := svc.Create(ctx, shopsvc.PackageMutationParams{Name: "PageA", Chips: 100})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	b, err := svc.Create(ctx, shopsvc.PackageMutationParams{Name: "PageB", Chips: 200})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	listed, err := svc.AdminList(ctx, 1, 2)
	if err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	if listed.Total != before+2 {
		t.Fatalf("expected total %d, got %d", before+2, listed.Total)
	}
	if len(listed.Items) != 2 {
		t.Fatalf("expected page of 2, got %d", len(listed.Items))
	}
	// Admin listing is newest first.
	if listed.Items[0].ID != b.ID || listed.Items[1].ID != a.ID {
		t.Fatalf("unexpected page order: %d, %d", listed.Items[0].ID, listed.Items[1].ID)
	}
}
