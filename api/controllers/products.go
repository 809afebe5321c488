package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ecocycle/ecocycle-backend/api/responses"
	"github.com/ecocycle/ecocycle-backend/api/validators"
	productsvc "github.com/ecocycle/ecocycle-backend/internal/products"
	"github.com/ecocycle/ecocycle-backend/pkg/enums"
	pkgerrors "github.com/ecocycle/ecocycle-backend/pkg/errors"
	"github.com/ecocycle/ecocycle-backend/pkg/logger"
)

type createListingRequest struct {
	Name          string   `json:"name" validate:"required"`
	Description   string   `json:"description" validate:"required"`
	Category      string   `json:"category" validate:"required"`
	Condition     string   `json:"condition" validate:"required"`
	Price         string   `json:"price" validate:"required"`
	OriginalPrice *string  `json:"original_price,omitempty"`
	Images        []string `json:"images,omitempty" validate:"omitempty,max=10,dive,required"`
	Brand         *string  `json:"brand,omitempty"`
	Model         *string  `json:"model,omitempty"`
	Year          *int     `json:"year,omitempty" validate:"omitempty,min=1970,max=2100"`
	City          *string  `json:"city,omitempty"`
	State         *string  `json:"state,omitempty"`
	IsNegotiable  bool     `json:"is_negotiable,omitempty"`
	Tags          []string `json:"tags,omitempty" validate:"omitempty,dive,required"`
}

type updateListingRequest struct {
	Name         *string  `json:"name,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Condition    *string  `json:"condition,omitempty"`
	Price        *string  `json:"price,omitempty"`
	Images       []string `json:"images,omitempty" validate:"omitempty,max=10,dive,required"`
	City         *string  `json:"city,omitempty"`
	State        *string  `json:"state,omitempty"`
	IsNegotiable *bool    `json:"is_negotiable,omitempty"`
	Tags         []string `json:"tags,omitempty" validate:"omitempty,dive,required"`
}

// ProductCreate publishes a new marketplace listing.
func ProductCreate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createListingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := enums.ParseProductCategory(strings.TrimSpace(body.Category))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
			return
		}
		condition, err := enums.ParseProductCondition(strings.TrimSpace(body.Condition))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid condition"))
			return
		}
		price, err := parsePrice(body.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var originalPrice *decimal.Decimal
		if body.OriginalPrice != nil {
			parsed, err := parsePrice(*body.OriginalPrice)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			originalPrice = &parsed
		}

		product, err := svc.Create(r.Context(), productsvc.CreateInput{
			Actor:         actor,
			Name:          body.Name,
			Description:   body.Description,
			Category:      category,
			Condition:     condition,
			Price:         price,
			OriginalPrice: originalPrice,
			Images:        body.Images,
			Brand:         body.Brand,
			Model:         body.Model,
			Year:          body.Year,
			City:          body.City,
			State:         body.State,
			IsNegotiable:  body.IsNegotiable,
			Tags:          body.Tags,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, productsvc.NewProductDTO(*product))
	}
}

// ProductGet returns a listing and bumps its view counter.
func ProductGet(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productsvc.NewProductDTO(*product))
	}
}

// ProductList is the public marketplace browse endpoint.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		params, err := parsePaging(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := productFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productsvc.NewListDTO(list))
	}
}

// ProductCategories returns the canonical listing categories.
func ProductCategories(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"categories": enums.ProductCategories()})
	}
}

// ProductListMine returns the caller's own listings regardless of status.
func ProductListMine(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := parsePaging(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMine(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productsvc.NewListDTO(list))
	}
}

// ProductListSold returns completed sales, scoped by role.
func ProductListSold(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := parsePaging(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListSold(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productsvc.NewListDTO(list))
	}
}

// ProductUpdate edits a listing owned by the caller.
func ProductUpdate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateListingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := productsvc.UpdateInput{
			Actor:        actor,
			ID:           id,
			Name:         body.Name,
			Description:  body.Description,
			Images:       body.Images,
			City:         body.City,
			State:        body.State,
			IsNegotiable: body.IsNegotiable,
			Tags:         body.Tags,
		}
		if body.Condition != nil {
			condition, err := enums.ParseProductCondition(strings.TrimSpace(*body.Condition))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid condition"))
				return
			}
			input.Condition = &condition
		}
		if body.Price != nil {
			price, err := parsePrice(*body.Price)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Price = &price
		}

		product, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productsvc.NewProductDTO(*product))
	}
}

// ProductDelete removes a listing.
func ProductDelete(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ProductToggleAvailability flips a listing between available and reserved.
func ProductToggleAvailability(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.ToggleAvailability(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productsvc.NewProductDTO(*product))
	}
}

// ProductBuy performs the atomic purchase.
func ProductBuy(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := parsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Buy(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, productsvc.NewProductDTO(*product))
	}
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	return price, nil
}

func productFiltersFromQuery(r *http.Request) (productsvc.ListFilters, error) {
	var filters productsvc.ListFilters

	if raw := validators.QueryString(r, "category"); raw != nil {
		category, err := enums.ParseProductCategory(*raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category filter")
		}
		filters.Category = &category
	}
	if raw := validators.QueryString(r, "condition"); raw != nil {
		condition, err := enums.ParseProductCondition(*raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid condition filter")
		}
		filters.Condition = &condition
	}
	if raw := validators.QueryString(r, "status"); raw != nil {
		status, err := enums.ParseProductStatus(*raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	filters.City = validators.QueryString(r, "city")
	filters.Search = validators.QueryString(r, "search")
	if raw := validators.QueryString(r, "min_price"); raw != nil {
		price, err := parsePrice(*raw)
		if err != nil {
			return filters, err
		}
		filters.MinPrice = &price
	}
	if raw := validators.QueryString(r, "max_price"); raw != nil {
		price, err := parsePrice(*raw)
		if err != nil {
			return filters, err
		}
		filters.MaxPrice = &price
	}

	return filters, nil
}
