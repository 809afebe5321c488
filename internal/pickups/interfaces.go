package pickups

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecocycle/ecocycle-backend/pkg/db/models"
	"github.com/ecocycle/ecocycle-backend/pkg/enums"
	"github.com/ecocycle/ecocycle-backend/pkg/pagination"
)

// Repository defines persistence operations for the pickup_requests table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, pickup *models.PickupRequest) (*models.PickupRequest, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PickupRequest, error)
	FindByTrackingCode(ctx context.Context, code string) (*models.PickupRequest, error)
	ListByRequester(ctx context.Context, userID uuid.UUID, params pagination.Params) (*List, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*List, error)
	// UpdateStatus performs a compare-and-swap on the status column. It
	// returns false when the row no longer holds the expected status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.PickupStatus, updates map[string]any) (bool, error)
	CountByStatus(ctx context.Context) (map[enums.PickupStatus]int64, error)
}
