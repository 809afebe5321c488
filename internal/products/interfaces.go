package products

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecocycle/ecocycle-backend/pkg/db/models"
	"github.com/ecocycle/ecocycle-backend/pkg/enums"
	"github.com/ecocycle/ecocycle-backend/pkg/pagination"
)

// Repository defines persistence operations for the products table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*List, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*List, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	// MarkSold performs a compare-and-swap from available to sold. It
	// returns false when the product was no longer available.
	MarkSold(ctx context.Context, id, buyerID uuid.UUID, at time.Time) (bool, error)
	CountByStatus(ctx context.Context) (map[enums.ProductStatus]int64, error)
}
