package pickups

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecocycle/ecocycle-backend/internal/authz"
	"github.com/ecocycle/ecocycle-backend/pkg/db/models"
	"github.com/ecocycle/ecocycle-backend/pkg/enums"
	"github.com/ecocycle/ecocycle-backend/pkg/pagination"
)

// CreateInput carries the fields for a new pickup request.
type CreateInput struct {
	Actor             authz.Actor
	DeviceType        enums.DeviceType
	DeviceDescription string
	Quantity          int
	Street            string
	City              string
	State             string
	ZipCode           string
	AdditionalInfo    *string
	PreferredDate     time.Time
	PreferredTimeSlot enums.TimeSlot
}

// UpdateStatusInput carries a requested lifecycle move.
type UpdateStatusInput struct {
	Actor  authz.Actor
	ID     uuid.UUID
	Target enums.PickupStatus
	Notes  *string
}

// AssignInput carries the operator assignment for a pending pickup.
type AssignInput struct {
	Actor      authz.Actor
	ID         uuid.UUID
	AssigneeID uuid.UUID
}

// ScanInput carries a scan from a collection agent. Agents whose device
// decodes the QR locally send Code; otherwise they upload the raw Image.
type ScanInput struct {
	Actor authz.Actor
	Code  string
	Image []byte
}

// ScanResult reports the pickup resolved from a scanned QR code.
type ScanResult struct {
	Pickup *models.PickupRequest
	// AlreadyCollected is set when the scan hit a pickup that was
	// collected earlier; the scan is a no-op in that case.
	AlreadyCollected bool
}

// ListFilters narrows admin/ngo pickup listings.
type ListFilters struct {
	Status     *enums.PickupStatus
	DeviceType *enums.DeviceType
	City       *string
	AssignedTo *uuid.UUID
}

// List is a page of pickup requests.
type List struct {
	Items []models.PickupRequest
	Page  pagination.Page
}

// PickupDTO is the transport shape of a pickup request.
type PickupDTO struct {
	ID                uuid.UUID          `json:"id"`
	UserID            uuid.UUID          `json:"user_id"`
	DeviceType        enums.DeviceType   `json:"device_type"`
	DeviceDescription string             `json:"device_description"`
	Quantity          int                `json:"quantity"`
	Street            string             `json:"street"`
	City              string             `json:"city"`
	State             string             `json:"state"`
	ZipCode           string             `json:"zip_code"`
	AdditionalInfo    *string            `json:"additional_info,omitempty"`
	PreferredDate     time.Time          `json:"preferred_date"`
	PreferredTimeSlot enums.TimeSlot     `json:"preferred_time_slot"`
	Status            enums.PickupStatus `json:"status"`
	AssignedToID      *uuid.UUID         `json:"assigned_to_id,omitempty"`
	TrackingCode      string             `json:"tracking_code"`
	Notes             *string            `json:"notes,omitempty"`
	CollectedAt       *time.Time         `json:"collected_at,omitempty"`
	RecycledAt        *time.Time         `json:"recycled_at,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// NewPickupDTO maps a persisted pickup request onto its transport shape.
func NewPickupDTO(pickup models.PickupRequest) PickupDTO {
	return PickupDTO{
		ID:                pickup.ID,
		UserID:            pickup.UserID,
		DeviceType:        pickup.DeviceType,
		DeviceDescription: pickup.DeviceDescription,
		Quantity:          pickup.Quantity,
		Street:            pickup.Street,
		City:              pickup.City,
		State:             pickup.State,
		ZipCode:           pickup.ZipCode,
		AdditionalInfo:    pickup.AdditionalInfo,
		PreferredDate:     pickup.PreferredDate,
		PreferredTimeSlot: pickup.PreferredTimeSlot,
		Status:            pickup.Status,
		AssignedToID:      pickup.AssignedToID,
		TrackingCode:      pickup.TrackingCode,
		Notes:             pickup.Notes,
		CollectedAt:       pickup.CollectedAt,
		RecycledAt:        pickup.RecycledAt,
		CreatedAt:         pickup.CreatedAt,
		UpdatedAt:         pickup.UpdatedAt,
	}
}

// ListDTO is the transport shape of a pickup page.
type ListDTO struct {
	Items []PickupDTO     `json:"items"`
	Page  pagination.Page `json:"page"`
}

// NewListDTO maps a domain page onto its transport shape.
func NewListDTO(list *List) ListDTO {
	items := make([]PickupDTO, 0, len(list.Items))
	for _, pickup := range list.Items {
		items = append(items, NewPickupDTO(pickup))
	}
	return ListDTO{Items: items, Page: list.Page}
}
