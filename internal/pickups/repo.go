package pickups

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecocycle/ecocycle-backend/pkg/db/models"
	"github.com/ecocycle/ecocycle-backend/pkg/enums"
	"github.com/ecocycle/ecocycle-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a pickups repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, pickup *models.PickupRequest) (*models.PickupRequest, error) {
	if err := r.db.WithContext(ctx).Create(pickup).Error; err != nil {
		return nil, err
	}
	return pickup, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PickupRequest, error) {
	var pickup models.PickupRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&pickup).Error
	if err != nil {
		return nil, err
	}
	return &pickup, nil
}

func (r *repository) FindByTrackingCode(ctx context.Context, code string) (*models.PickupRequest, error) {
	var pickup models.PickupRequest
	err := r.db.WithContext(ctx).
		Where("tracking_code = ?", code).
		First(&pickup).Error
	if err != nil {
		return nil, err
	}
	return &pickup, nil
}

func (r *repository) ListByRequester(ctx context.Context, userID uuid.UUID, params pagination.Params) (*List, error) {
	query := r.db.WithContext(ctx).
		Model(&models.PickupRequest{}).
		Where("user_id = ?", userID)
	return r.paginate(query, params)
}

func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) (*List, error) {
	query := r.db.WithContext(ctx).Model(&models.PickupRequest{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DeviceType != nil {
		query = query.Where("device_type = ?", *filters.DeviceType)
	}
	if filters.City != nil {
		query = query.Where("city = ?", *filters.City)
	}
	if filters.AssignedTo != nil {
		query = query.Where("assigned_to_id = ?", *filters.AssignedTo)
	}
	return r.paginate(query, params)
}

func (r *repository) paginate(query *gorm.DB, params pagination.Params) (*List, error) {
	normalized := pagination.Normalize(params)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.PickupRequest
	err := query.
		Order("created_at DESC").
		Offset(normalized.Offset()).
		Limit(normalized.Limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &List{
		Items: items,
		Page:  pagination.NewPage(normalized, total),
	}, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.PickupStatus, updates map[string]any) (bool, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to

	result := r.db.WithContext(ctx).
		Model(&models.PickupRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[enums.PickupStatus]int64, error) {
	type statusCount struct {
		Status enums.PickupStatus
		Count  int64
	}
	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.PickupRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[enums.PickupStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
