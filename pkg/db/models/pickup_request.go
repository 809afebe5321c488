package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecocycle/ecocycle-backend/pkg/enums"
)

// PickupRequest represents one scheduled collection of e-waste devices. The
// tracking code is the payload of the QR image handed to the requester and is
// assigned exactly once at creation; the unique index is what enforces the
// system-wide uniqueness invariant.
type PickupRequest struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID          `gorm:"column:user_id;type:uuid;not null"`
	DeviceType        enums.DeviceType   `gorm:"column:device_type;not null"`
	DeviceDescription string             `gorm:"column:device_description;not null"`
	Quantity          int                `gorm:"column:quantity;not null;default:1"`
	Street            string             `gorm:"column:street;not null"`
	City              string             `gorm:"column:city;not null"`
	State             string             `gorm:"column:state;not null"`
	ZipCode           string             `gorm:"column:zip_code;not null"`
	AdditionalInfo    *string            `gorm:"column:additional_info"`
	PreferredDate     time.Time          `gorm:"column:preferred_date;not null"`
	PreferredTimeSlot enums.TimeSlot     `gorm:"column:preferred_time_slot;not null"`
	Status            enums.PickupStatus `gorm:"column:status;not null;default:'pending'"`
	AssignedToID      *uuid.UUID         `gorm:"column:assigned_to_id;type:uuid"`
	TrackingCode      string             `gorm:"column:tracking_code;not null;uniqueIndex:idx_pickup_requests_tracking_code"`
	Notes             *string            `gorm:"column:notes"`
	CollectedAt       *time.Time         `gorm:"column:collected_at"`
	RecycledAt        *time.Time         `gorm:"column:recycled_at"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
