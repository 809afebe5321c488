package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecocycle/ecocycle-backend/internal/authz"
	"github.com/ecocycle/ecocycle-backend/pkg/db/models"
	"github.com/ecocycle/ecocycle-backend/pkg/enums"
	"github.com/ecocycle/ecocycle-backend/pkg/pagination"
)

// CreateInput carries the fields for a new marketplace listing.
type CreateInput struct {
	Actor         authz.Actor
	Name          string
	Description   string
	Category      enums.ProductCategory
	Condition     enums.ProductCondition
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	Images        []string
	Brand         *string
	Model         *string
	Year          *int
	City          *string
	State         *string
	IsNegotiable  bool
	Tags          []string
}

// UpdateInput carries the mutable fields of a listing; nil means unchanged.
type UpdateInput struct {
	Actor        authz.Actor
	ID           uuid.UUID
	Name         *string
	Description  *string
	Condition    *enums.ProductCondition
	Price        *decimal.Decimal
	Images       []string
	City         *string
	State        *string
	IsNegotiable *bool
	Tags         []string
}

// ListFilters narrows public marketplace listings.
type ListFilters struct {
	Category  *enums.ProductCategory
	Condition *enums.ProductCondition
	City      *string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	Status    *enums.ProductStatus
	Search    *string
	SellerID  *uuid.UUID
}

// List is a page of products.
type List struct {
	Items []models.Product
	Page  pagination.Page
}

// ProductDTO is the transport shape of a marketplace listing.
type ProductDTO struct {
	ID            uuid.UUID              `json:"id"`
	SellerID      uuid.UUID              `json:"seller_id"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	Category      enums.ProductCategory  `json:"category"`
	Condition     enums.ProductCondition `json:"condition"`
	Price         decimal.Decimal        `json:"price"`
	OriginalPrice *decimal.Decimal       `json:"original_price,omitempty"`
	Images        []string               `json:"images"`
	Brand         *string                `json:"brand,omitempty"`
	Model         *string                `json:"model,omitempty"`
	Year          *int                   `json:"year,omitempty"`
	City          *string                `json:"city,omitempty"`
	State         *string                `json:"state,omitempty"`
	IsNegotiable  bool                   `json:"is_negotiable"`
	Status        enums.ProductStatus    `json:"status"`
	BuyerID       *uuid.UUID             `json:"buyer_id,omitempty"`
	SoldAt        *time.Time             `json:"sold_at,omitempty"`
	Views         int                    `json:"views"`
	Tags          []string               `json:"tags"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// NewProductDTO maps a persisted listing onto its transport shape.
func NewProductDTO(product models.Product) ProductDTO {
	return ProductDTO{
		ID:            product.ID,
		SellerID:      product.SellerID,
		Name:          product.Name,
		Description:   product.Description,
		Category:      product.Category,
		Condition:     product.Condition,
		Price:         product.Price,
		OriginalPrice: product.OriginalPrice,
		Images:        product.Images,
		Brand:         product.Brand,
		Model:         product.Model,
		Year:          product.Year,
		City:          product.City,
		State:         product.State,
		IsNegotiable:  product.IsNegotiable,
		Status:        product.Status,
		BuyerID:       product.BuyerID,
		SoldAt:        product.SoldAt,
		Views:         product.Views,
		Tags:          product.Tags,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
}

// ListDTO is the transport shape of a product page.
type ListDTO struct {
	Items []ProductDTO    `json:"items"`
	Page  pagination.Page `json:"page"`
}

// NewListDTO maps a domain page onto its transport shape.
func NewListDTO(list *List) ListDTO {
	items := make([]ProductDTO, 0, len(list.Items))
	for _, product := range list.Items {
		items = append(items, NewProductDTO(product))
	}
	return ListDTO{Items: items, Page: list.Page}
}
