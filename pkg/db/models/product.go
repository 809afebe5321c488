package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/ecocycle/ecocycle-backend/pkg/enums"
)

// Product represents a second-hand marketplace listing.
type Product struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID      uuid.UUID              `gorm:"column:seller_id;type:uuid;not null"`
	Name          string                 `gorm:"column:name;not null"`
	Description   string                 `gorm:"column:description;not null"`
	Category      enums.ProductCategory  `gorm:"column:category;not null"`
	Condition     enums.ProductCondition `gorm:"column:condition;not null"`
	Price         decimal.Decimal        `gorm:"column:price;type:numeric(12,2);not null"`
	OriginalPrice *decimal.Decimal       `gorm:"column:original_price;type:numeric(12,2)"`
	Images        pq.StringArray         `gorm:"column:images;type:text[]"`
	Brand         *string                `gorm:"column:brand"`
	Model         *string                `gorm:"column:model"`
	Year          *int                   `gorm:"column:year"`
	City          *string                `gorm:"column:city"`
	State         *string                `gorm:"column:state"`
	IsNegotiable  bool                   `gorm:"column:is_negotiable;not null;default:false"`
	Status        enums.ProductStatus    `gorm:"column:status;not null;default:'available'"`
	BuyerID       *uuid.UUID             `gorm:"column:buyer_id;type:uuid"`
	SoldAt        *time.Time             `gorm:"column:sold_at"`
	Views         int                    `gorm:"column:views;not null;default:0"`
	Tags          pq.StringArray         `gorm:"column:tags;type:text[]"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
