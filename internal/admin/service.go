// Package admin aggregates platform-wide reporting for back-office users.
package admin

import (
	"context"
	"fmt"

	"github.com/ecocycle/ecocycle-backend/internal/authz"
	"github.com/ecocycle/ecocycle-backend/internal/pickups"
	"github.com/ecocycle/ecocycle-backend/internal/products"
	"github.com/ecocycle/ecocycle-backend/internal/users"
	"github.com/ecocycle/ecocycle-backend/pkg/enums"
	pkgerrors "github.com/ecocycle/ecocycle-backend/pkg/errors"
)

// Stats is the platform snapshot served to the admin dashboard.
type Stats struct {
	UsersByRole      map[enums.UserRole]int64      `json:"users_by_role"`
	PickupsByStatus  map[enums.PickupStatus]int64  `json:"pickups_by_status"`
	ProductsByStatus map[enums.ProductStatus]int64 `json:"products_by_status"`
	PickupsTotal     int64                         `json:"pickups_total"`
	RecycledTotal    int64                         `json:"recycled_total"`
}

// Service exposes admin reporting operations.
type Service interface {
	Stats(ctx context.Context, actor authz.Actor) (*Stats, error)
}

type service struct {
	usersRepo    users.Repository
	pickupsRepo  pickups.Repository
	productsRepo products.Repository
}

// NewService builds the admin service with the required repositories.
func NewService(usersRepo users.Repository, pickupsRepo pickups.Repository, productsRepo products.Repository) (Service, error) {
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if pickupsRepo == nil {
		return nil, fmt.Errorf("pickups repository required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{
		usersRepo:    usersRepo,
		pickupsRepo:  pickupsRepo,
		productsRepo: productsRepo,
	}, nil
}

func (s *service) Stats(ctx context.Context, actor authz.Actor) (*Stats, error) {
	if err := authz.RequireRole(actor, enums.UserRoleAdmin); err != nil {
		return nil, err
	}

	usersByRole, err := s.usersRepo.CountByRole(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count users")
	}
	pickupsByStatus, err := s.pickupsRepo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pickups")
	}
	productsByStatus, err := s.productsRepo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}

	stats := &Stats{
		UsersByRole:      usersByRole,
		PickupsByStatus:  pickupsByStatus,
		ProductsByStatus: productsByStatus,
		RecycledTotal:    pickupsByStatus[enums.PickupStatusRecycled],
	}
	for _, count := range pickupsByStatus {
		stats.PickupsTotal += count
	}
	return stats, nil
}
