package pickups

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecocycle/ecocycle-backend/internal/authz"
	"github.com/ecocycle/ecocycle-backend/internal/qr"
	"github.com/ecocycle/ecocycle-backend/internal/tracking"
	"github.com/ecocycle/ecocycle-backend/internal/users"
	"github.com/ecocycle/ecocycle-backend/pkg/db"
	"github.com/ecocycle/ecocycle-backend/pkg/db/models"
	"github.com/ecocycle/ecocycle-backend/pkg/enums"
	pkgerrors "github.com/ecocycle/ecocycle-backend/pkg/errors"
	"github.com/ecocycle/ecocycle-backend/pkg/metrics"
	"github.com/ecocycle/ecocycle-backend/pkg/pagination"
)

const (
	trackingCodeIndex  = "idx_pickup_requests_tracking_code"
	trackingCodeTries  = 3
	maxPickupQuantity  = 100
	scanOutcomeOK      = "collected"
	scanOutcomeRepeat  = "already_collected"
	scanOutcomeInvalid = "invalid"
)

type qrCodec interface {
	Encode(content string) ([]byte, error)
	Decode(imageBytes []byte) (string, error)
}

// Service defines the pickup request lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.PickupRequest, error)
	Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.PickupRequest, error)
	GetByTrackingCode(ctx context.Context, actor authz.Actor, code string) (*models.PickupRequest, error)
	ListMine(ctx context.Context, actor authz.Actor, params pagination.Params) (*List, error)
	ListAll(ctx context.Context, actor authz.Actor, filters ListFilters, params pagination.Params) (*List, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.PickupRequest, error)
	Assign(ctx context.Context, input AssignInput) (*models.PickupRequest, error)
	Scan(ctx context.Context, input ScanInput) (*ScanResult, error)
	QRImage(ctx context.Context, actor authz.Actor, id uuid.UUID) ([]byte, error)
}

type service struct {
	repo      Repository
	usersRepo users.Repository
	codec     qrCodec
	scans     *metrics.ScanMetrics
	now       func() time.Time
}

// NewService builds a pickups service with the required dependencies.
func NewService(repo Repository, usersRepo users.Repository, codec qrCodec, scans *metrics.ScanMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pickups repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if codec == nil {
		return nil, fmt.Errorf("qr codec required")
	}
	return &service{
		repo:      repo,
		usersRepo: usersRepo,
		codec:     codec,
		scans:     scans,
		now:       time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.PickupRequest, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.DeviceType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid device type")
	}
	if !input.PreferredTimeSlot.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid time slot")
	}
	if input.Quantity < 1 || input.Quantity > maxPickupQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity out of range")
	}

	// The unique index is the source of truth for code uniqueness; retry
	// a few times on the off chance two creates collide.
	var created *models.PickupRequest
	for attempt := 0; attempt < trackingCodeTries; attempt++ {
		code, err := tracking.NewCode(s.now())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate tracking code")
		}

		pickup := &models.PickupRequest{
			UserID:            input.Actor.UserID,
			DeviceType:        input.DeviceType,
			DeviceDescription: input.DeviceDescription,
			Quantity:          input.Quantity,
			Street:            input.Street,
			City:              input.City,
			State:             input.State,
			ZipCode:           input.ZipCode,
			AdditionalInfo:    input.AdditionalInfo,
			PreferredDate:     input.PreferredDate,
			PreferredTimeSlot: input.PreferredTimeSlot,
			Status:            enums.PickupStatusPending,
			TrackingCode:      code,
		}

		created, err = s.repo.Create(ctx, pickup)
		if err == nil {
			return created, nil
		}
		if !db.IsUniqueViolation(err, trackingCodeIndex) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pickup request")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a unique tracking code")
}

func (s *service) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.PickupRequest, error) {
	pickup, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canView(actor, pickup); err != nil {
		return nil, err
	}
	return pickup, nil
}

func (s *service) GetByTrackingCode(ctx context.Context, actor authz.Actor, code string) (*models.PickupRequest, error) {
	if !tracking.IsValid(code) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "malformed tracking code")
	}
	pickup, err := s.repo.FindByTrackingCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pickup request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup request")
	}
	if err := s.canView(actor, pickup); err != nil {
		return nil, err
	}
	return pickup, nil
}

func (s *service) ListMine(ctx context.Context, actor authz.Actor, params pagination.Params) (*List, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListByRequester(ctx, actor.UserID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pickup requests")
	}
	return list, nil
}

func (s *service) ListAll(ctx context.Context, actor authz.Actor, filters ListFilters, params pagination.Params) (*List, error) {
	if err := authz.RequireRole(actor, enums.UserRoleAdmin, enums.UserRoleNGO); err != nil {
		return nil, err
	}
	list, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pickup requests")
	}
	return list, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.PickupRequest, error) {
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}

	pickup, err := s.load(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	// Authorization comes before any response carrying the record, the
	// same-status no-op included.
	if err := s.canView(input.Actor, pickup); err != nil {
		return nil, err
	}
	if input.Target == enums.PickupStatusCancelled {
		if err := authz.RequireOwnerOrAdmin(input.Actor, pickup.UserID); err != nil {
			return nil, err
		}
	} else if RequiresOperator(input.Target) {
		if err := authz.RequireRole(input.Actor, enums.UserRoleAdmin, enums.UserRoleNGO); err != nil {
			return nil, err
		}
	}

	// A same-status update is a pure no-op: no write happens and notes are
	// not stamped.
	if pickup.Status == input.Target {
		return pickup, nil
	}

	if !CanTransition(pickup.Status, input.Target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move pickup from %s to %s", pickup.Status, input.Target))
	}

	updates := s.statusSideEffects(input.Target)
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}

	return s.applyTransition(ctx, pickup, input.Target, updates)
}

func (s *service) Assign(ctx context.Context, input AssignInput) (*models.PickupRequest, error) {
	if err := authz.RequireRole(input.Actor, enums.UserRoleAdmin); err != nil {
		return nil, err
	}
	if input.AssigneeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignee id required")
	}

	assignee, err := s.usersRepo.FindByID(ctx, input.AssigneeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignee does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignee")
	}
	if !assignee.Role.IsOperator() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignee must hold an operator role")
	}

	pickup, err := s.load(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if pickup.Status == enums.PickupStatusAssigned && pickup.AssignedToID != nil && *pickup.AssignedToID == input.AssigneeID {
		return pickup, nil
	}
	if !CanTransition(pickup.Status, enums.PickupStatusAssigned) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot assign pickup in status %s", pickup.Status))
	}

	updates := map[string]any{"assigned_to_id": input.AssigneeID}
	return s.applyTransition(ctx, pickup, enums.PickupStatusAssigned, updates)
}

func (s *service) Scan(ctx context.Context, input ScanInput) (*ScanResult, error) {
	if err := authz.RequireRole(input.Actor, enums.UserRoleAdmin, enums.UserRoleNGO); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(input.Code)
	if code == "" {
		decoded, err := s.codec.Decode(input.Image)
		if err != nil {
			s.scans.IncOutcome(scanOutcomeInvalid)
			if errors.Is(err, qr.ErrNoCode) {
				return nil, pkgerrors.New(pkgerrors.CodeDecodeFailure, "no code detected in image")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode scan image")
		}
		code = decoded
	}
	if !tracking.IsValid(code) {
		s.scans.IncOutcome(scanOutcomeInvalid)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scanned code is not a pickup tracking code")
	}

	pickup, err := s.repo.FindByTrackingCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.scans.IncOutcome(scanOutcomeInvalid)
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no pickup request for scanned code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup request")
	}

	// Scanning a code that was already collected is a no-op, agents in the
	// field may scan the same label twice.
	if pickup.Status == enums.PickupStatusCollected {
		s.scans.IncOutcome(scanOutcomeRepeat)
		return &ScanResult{Pickup: pickup, AlreadyCollected: true}, nil
	}

	if !CanTransition(pickup.Status, enums.PickupStatusCollected) {
		s.scans.IncOutcome(scanOutcomeInvalid)
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot collect pickup in status %s", pickup.Status))
	}

	updated, err := s.applyTransition(ctx, pickup, enums.PickupStatusCollected, s.statusSideEffects(enums.PickupStatusCollected))
	if err != nil {
		return nil, err
	}
	s.scans.IncOutcome(scanOutcomeOK)
	return &ScanResult{Pickup: updated}, nil
}

func (s *service) QRImage(ctx context.Context, actor authz.Actor, id uuid.UUID) ([]byte, error) {
	pickup, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	png, err := s.codec.Encode(pickup.TrackingCode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render qr image")
	}
	return png, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.PickupRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup id required")
	}
	pickup, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pickup request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pickup request")
	}
	return pickup, nil
}

func (s *service) canView(actor authz.Actor, pickup *models.PickupRequest) error {
	if actor.IsOperator() {
		return nil
	}
	if actor.UserID == pickup.UserID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "pickup belongs to another user")
}

func (s *service) statusSideEffects(target enums.PickupStatus) map[string]any {
	updates := map[string]any{}
	switch target {
	case enums.PickupStatusCollected:
		updates["collected_at"] = s.now().UTC()
	case enums.PickupStatusRecycled:
		updates["recycled_at"] = s.now().UTC()
	}
	return updates
}

// applyTransition performs the compare-and-swap write. A lost race surfaces
// as a state conflict, the caller saw a stale status.
func (s *service) applyTransition(ctx context.Context, pickup *models.PickupRequest, target enums.PickupStatus, updates map[string]any) (*models.PickupRequest, error) {
	swapped, err := s.repo.UpdateStatus(ctx, pickup.ID, pickup.Status, target, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pickup status")
	}
	if !swapped {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "pickup status changed concurrently")
	}

	refreshed, err := s.repo.FindByID(ctx, pickup.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload pickup request")
	}
	return refreshed, nil
}
