package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blackjack-service/internal/model"
	appErr "blackjack-service/pkg/errors"

	"gorm.io/gorm"
)

// Service manages the recharge package catalog. Players see active packages
// when topping up; admins curate the list. Payment itself stays out of band.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type PackageListResult struct {
	Items []model.RechargePackage
	Total int64
}

type PackageMutationParams struct {
	Name      string
	Chips     int64
	Bonus     int64
	Status    string
	SortOrder int
}

func (s *Service) ListActive(ctx context.Context) ([]model.RechargePackage, error) {
	var packages []model.RechargePackage
	if err := s.db.WithContext(ctx).
		Where("status = ?", "active").
		Order("sort_order ASC, id ASC").
		Find(&packages).Error; err != nil {
		return nil, err
	}
	return packages, nil
}

// GetActive resolves a package a player is allowed to order from. Disabled
// packages look the same as missing ones.
func (s *Service) GetActive(ctx context.Context, id int64) (*model.RechargePackage, error) {
	var pkg model.RechargePackage
	err := s.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, "active").
		First(&pkg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrPackageNotFound
		}
		return nil, err
	}
	return &pkg, nil
}

func (s *Service) AdminList(ctx context.Context, page, size int) (*PackageListResult, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	var total int64
	if err := s.db.WithContext(ctx).
		Model(&model.RechargePackage{}).
		Count(&total).Error; err != nil {
		return nil, err
	}

	var packages []model.RechargePackage
	if total > 0 {
		offset := (page - 1) * size
		if err := s.db.WithContext(ctx).
			Model(&model.RechargePackage{}).
			Order("id DESC").
			Limit(size).
			Offset(offset).
			Find(&packages).Error; err != nil {
			return nil, err
		}
	}

	return &PackageListResult{Items: packages, Total: total}, nil
}

func (s *Service) Create(ctx context.Context, params PackageMutationParams) (*model.RechargePackage, error) {
	if err := validateMutationParams(&params); err != nil {
		return nil, err
	}

	pkg := model.RechargePackage{
		Name:      strings.TrimSpace(params.Name),
		Chips:     params.Chips,
		Bonus:     params.Bonus,
		Status:    params.Status,
		SortOrder: params.SortOrder,
	}
	if err := s.db.WithContext(ctx).Create(&pkg).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (s *Service) Update(ctx context.Context, id int64, params PackageMutationParams) (*model.RechargePackage, error) {
	if err := validateMutationParams(&params); err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).
		Model(&model.RechargePackage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":       strings.TrimSpace(params.Name),
			"chips":      params.Chips,
			"bonus":      params.Bonus,
			"status":     params.Status,
			"sort_order": params.SortOrder,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, appErr.ErrPackageNotFound
	}

	var pkg model.RechargePackage
	if err := s.db.WithContext(ctx).First(&pkg, id).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

func validateMutationParams(params *PackageMutationParams) error {
	if strings.TrimSpace(params.Name) == "" {
		return fmt.Errorf("%w: name is required", appErr.ErrInvalidPackage)
	}
	if params.Chips <= 0 {
		return fmt.Errorf("%w: chips must be greater than zero", appErr.ErrInvalidPackage)
	}
	if params.Bonus < 0 {
		return fmt.Errorf("%w: bonus cannot be negative", appErr.ErrInvalidPackage)
	}
	switch params.Status {
	case "":
		params.Status = "active"
	case "active", "disabled":
	default:
		return fmt.Errorf("%w: status must be active or disabled", appErr.ErrInvalidPackage)
	}
	return nil
}
