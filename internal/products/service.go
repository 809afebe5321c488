package products

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/ecocycle/ecocycle-backend/internal/authz"
	"github.com/ecocycle/ecocycle-backend/pkg/db/models"
	"github.com/ecocycle/ecocycle-backend/pkg/enums"
	pkgerrors "github.com/ecocycle/ecocycle-backend/pkg/errors"
	"github.com/ecocycle/ecocycle-backend/pkg/pagination"
)

const maxListingImages = 10

// Service defines the marketplace listing operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*List, error)
	ListMine(ctx context.Context, actor authz.Actor, params pagination.Params) (*List, error)
	ListSold(ctx context.Context, actor authz.Actor, params pagination.Params) (*List, error)
	Update(ctx context.Context, input UpdateInput) (*models.Product, error)
	Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error
	ToggleAvailability(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.Product, error)
	Buy(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds a products service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{
		repo: repo,
		now:  time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	if !input.Condition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid condition")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if len(input.Images) > maxListingImages {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many images")
	}

	product := &models.Product{
		SellerID:      input.Actor.UserID,
		Name:          input.Name,
		Description:   input.Description,
		Category:      input.Category,
		Condition:     input.Condition,
		Price:         input.Price,
		OriginalPrice: input.OriginalPrice,
		Images:        pq.StringArray(input.Images),
		Brand:         input.Brand,
		Model:         input.Model,
		Year:          input.Year,
		City:          input.City,
		State:         input.State,
		IsNegotiable:  input.IsNegotiable,
		Status:        enums.ProductStatusAvailable,
		Tags:          pq.StringArray(input.Tags),
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	// Best-effort view counter, a lost increment never fails the read.
	if err := s.repo.IncrementViews(ctx, id); err == nil {
		product.Views++
	}
	return product, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*List, error) {
	if filters.Status == nil {
		available := enums.ProductStatusAvailable
		filters.Status = &available
	}
	list, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return list, nil
}

func (s *service) ListMine(ctx context.Context, actor authz.Actor, params pagination.Params) (*List, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListBySeller(ctx, actor.UserID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller products")
	}
	return list, nil
}

func (s *service) ListSold(ctx context.Context, actor authz.Actor, params pagination.Params) (*List, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	sold := enums.ProductStatusSold
	filters := ListFilters{Status: &sold}
	// Admins see every completed sale, sellers only their own.
	if actor.Role != enums.UserRoleAdmin {
		sellerID := actor.UserID
		filters.SellerID = &sellerID
	}
	list, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sold products")
	}
	return list, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.Product, error) {
	product, err := s.load(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if product.SellerID != input.Actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "listing belongs to another seller")
	}
	if product.Status == enums.ProductStatusSold {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "sold listings cannot be edited")
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Condition != nil {
		if !input.Condition.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid condition")
		}
		updates["condition"] = *input.Condition
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		updates["price"] = *input.Price
	}
	if input.Images != nil {
		if len(input.Images) > maxListingImages {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many images")
		}
		updates["images"] = pq.StringArray(input.Images)
	}
	if input.City != nil {
		updates["city"] = *input.City
	}
	if input.State != nil {
		updates["state"] = *input.State
	}
	if input.IsNegotiable != nil {
		updates["is_negotiable"] = *input.IsNegotiable
	}
	if input.Tags != nil {
		updates["tags"] = pq.StringArray(input.Tags)
	}
	if len(updates) == 0 {
		return product, nil
	}

	if err := s.repo.Update(ctx, product.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return s.load(ctx, product.ID)
}

func (s *service) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	product, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.RequireOwnerOrAdmin(actor, product.SellerID); err != nil {
		return err
	}
	if product.Status == enums.ProductStatusSold {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "sold listings cannot be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) ToggleAvailability(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.Product, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.SellerID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "listing belongs to another seller")
	}

	var next enums.ProductStatus
	switch product.Status {
	case enums.ProductStatusAvailable:
		next = enums.ProductStatusReserved
	case enums.ProductStatusReserved:
		next = enums.ProductStatusAvailable
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "sold listings cannot change availability")
	}

	if err := s.repo.Update(ctx, product.ID, map[string]any{"status": next}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle availability")
	}
	return s.load(ctx, product.ID)
}

func (s *service) Buy(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.Product, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.SellerID == actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot buy your own listing")
	}
	if product.Status != enums.ProductStatusAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is no longer available")
	}

	sold, err := s.repo.MarkSold(ctx, id, actor.UserID, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark product sold")
	}
	if !sold {
		// Another buyer won the row between our read and the swap.
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is no longer available")
	}

	return s.load(ctx, id)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}
