package controllers

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ecocycle/ecocycle-backend/api/responses"
	"github.com/ecocycle/ecocycle-backend/api/validators"
	pickupsvc "github.com/ecocycle/ecocycle-backend/internal/pickups"
	"github.com/ecocycle/ecocycle-backend/pkg/enums"
	pkgerrors "github.com/ecocycle/ecocycle-backend/pkg/errors"
	"github.com/ecocycle/ecocycle-backend/pkg/logger"
	"github.com/ecocycle/ecocycle-backend/pkg/pagination"
)

// maxScanImageBytes bounds uploaded QR photos; field phones send multi-MB shots.
const maxScanImageBytes = 8 << 20

type createPickupRequest struct {
	DeviceType        string  `json:"device_type" validate:"required"`
	DeviceDescription string  `json:"device_description" validate:"required"`
	Quantity          int     `json:"quantity" validate:"required,min=1,max=100"`
	Street            string  `json:"street" validate:"required"`
	City              string  `json:"city" validate:"required"`
	State             string  `json:"state" validate:"required"`
	ZipCode           string  `json:"zip_code" validate:"required"`
	AdditionalInfo    *string `json:"additional_info,omitempty"`
	PreferredDate     string  `json:"preferred_date" validate:"required"`
	PreferredTimeSlot string  `json:"preferred_time_slot" validate:"required"`
}

type updatePickupStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes,omitempty"`
}

type assignPickupRequest struct {
	AssigneeID string `json:"assignee_id" validate:"required"`
}

type scanPickupRequest struct {
	Code        string `json:"code,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

type createPickupResponse struct {
	Pickup        pickupsvc.PickupDTO `json:"pickup"`
	QRImageBase64 string              `json:"qr_image_base64"`
}

type scanPickupResponse struct {
	Pickup           pickupsvc.PickupDTO `json:"pickup"`
	AlreadyCollected bool                `json:"already_collected"`
}

// PickupCreate registers a new pickup request and hands back its QR label.
func PickupCreate(svc pickupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickup service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createPickupRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deviceType, err := enums.ParseDeviceType(strings.TrimSpace(body.DeviceType))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid device type"))
			return
		}
		timeSlot, err := enums.ParseTimeSlot(strings.TrimSpace(body.PreferredTimeSlot))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid time slot"))
			return
		}
		preferredDate, err := time.Parse("2006-01-02", strings.TrimSpace(body.PreferredDate))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "preferred_date must be YYYY-MM-DD"))
			return
		}

		pickup, err := svc.Create(r.Context(), pickupsvc.CreateInput{
			Actor:             actor,
			DeviceType:        deviceType,
			DeviceDescription: body.DeviceDescription,
			Quantity:          body.Quantity,
			Street:            body.Street,
			City:              body.City,
			State:             body.State,
			ZipCode:           body.ZipCode,
			AdditionalInfo:    body.AdditionalInfo,
			PreferredDate:     preferredDate,
			PreferredTimeSlot: timeSlot,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		png, err := svc.QRImage(r.Context(), actor, pickup.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, createPickupResponse{
			Pickup:        pickupsvc.NewPickupDTO(*pickup),
			QRImageBase64: base64.StdEncoding.EncodeToString(png),
		})
	}
}

// PickupGet returns a single pickup visible to the caller.
func PickupGet(svc pickupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickup service unavailable"))
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

		pickup, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pickupsvc.NewPickupDTO(*pickup))
	}
}

// PickupTrack resolves a pickup request by its tracking code.
func PickupTrack(svc pickupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickup service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pickup, err := svc.GetByTrackingCode(r.Context(), actor, pathString(r, "code"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pickupsvc.NewPickupDTO(*pickup))
	}
}

// PickupListMine returns the caller's own pickup requests.
func PickupListMine(svc pickupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickup service unavailable"))
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

		responses.WriteSuccess(w, pickupsvc.NewListDTO(list))
	}
}

// PickupListAll is the operator view across all requesters.
func PickupListAll(svc pickupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickup service unavailable"))
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

		filters, err := pickupFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListAll(r.Context(), actor, filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pickupsvc.NewListDTO(list))
	}
}

// PickupRecent returns the newest requests for the admin dashboard.
func PickupRecent(svc pickupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickup service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListAll(r.Context(), actor, pickupsvc.ListFilters{}, pagination.Params{Page: 1, Limit: 10})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pickupsvc.NewListDTO(list))
	}
}

// PickupUpdateStatus moves a pickup along its lifecycle.
func PickupUpdateStatus(svc pickupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickup service unavailable"))
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

		var body updatePickupStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParsePickupStatus(strings.TrimSpace(body.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		pickup, err := svc.UpdateStatus(r.Context(), pickupsvc.UpdateStatusInput{
			Actor:  actor,
			ID:     id,
			Target: target,
			Notes:  body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pickupsvc.NewPickupDTO(*pickup))
	}
}

// PickupAssign sets the collection agent for a pending request.
func PickupAssign(svc pickupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickup service unavailable"))
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

		var body assignPickupRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assigneeID, err := uuid.Parse(strings.TrimSpace(body.AssigneeID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid assignee id"))
			return
		}

		pickup, err := svc.Assign(r.Context(), pickupsvc.AssignInput{
			Actor:      actor,
			ID:         id,
			AssigneeID: assigneeID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, pickupsvc.NewPickupDTO(*pickup))
	}
}

// PickupQR re-renders the QR label for an existing request.
func PickupQR(svc pickupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickup service unavailable"))
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

		png, err := svc.QRImage(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WritePNG(w, png)
	}
}

// PickupScan resolves a scanned QR code and marks the pickup collected.
func PickupScan(svc pickupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickup service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body scanPickupRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if strings.TrimSpace(body.Code) == "" && strings.TrimSpace(body.ImageBase64) == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "code or image_base64 required"))
			return
		}

		var image []byte
		if raw := strings.TrimSpace(body.ImageBase64); raw != "" {
			decoded, err := base64.StdEncoding.DecodeString(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image_base64 is not valid base64"))
				return
			}
			if len(decoded) > maxScanImageBytes {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "scan image too large"))
				return
			}
			image = decoded
		}

		result, err := svc.Scan(r.Context(), pickupsvc.ScanInput{
			Actor: actor,
			Code:  strings.TrimSpace(body.Code),
			Image: image,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, scanPickupResponse{
			Pickup:           pickupsvc.NewPickupDTO(*result.Pickup),
			AlreadyCollected: result.AlreadyCollected,
		})
	}
}

func pickupFiltersFromQuery(r *http.Request) (pickupsvc.ListFilters, error) {
	var filters pickupsvc.ListFilters

	if raw := validators.QueryString(r, "status"); raw != nil {
		status, err := enums.ParsePickupStatus(*raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := validators.QueryString(r, "device_type"); raw != nil {
		deviceType, err := enums.ParseDeviceType(*raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid device_type filter")
		}
		filters.DeviceType = &deviceType
	}
	filters.City = validators.QueryString(r, "city")
	if raw := validators.QueryString(r, "assigned_to"); raw != nil {
		assignedTo, err := uuid.Parse(*raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid assigned_to filter")
		}
		filters.AssignedTo = &assignedTo
	}

	return filters, nil
}
