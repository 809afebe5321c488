package pickups

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecocycle/ecocycle-backend/internal/authz"
	"github.com/ecocycle/ecocycle-backend/internal/qr"
	"github.com/ecocycle/ecocycle-backend/internal/users"
	"github.com/ecocycle/ecocycle-backend/pkg/db/models"
	"github.com/ecocycle/ecocycle-backend/pkg/enums"
	pkgerrors "github.com/ecocycle/ecocycle-backend/pkg/errors"
	"github.com/ecocycle/ecocycle-backend/pkg/pagination"
)

type stubPickupsRepo struct {
	byID       map[uuid.UUID]*models.PickupRequest
	byCode     map[string]*models.PickupRequest
	createErr  func(attempt int) error
	creates    int
	lastUpdate map[string]any
	swapFails  bool
}

func newStubPickupsRepo() *stubPickupsRepo {
	return &stubPickupsRepo{
		byID:   map[uuid.UUID]*models.PickupRequest{},
		byCode: map[string]*models.PickupRequest{},
	}
}

func (s *stubPickupsRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubPickupsRepo) Create(ctx context.Context, pickup *models.PickupRequest) (*models.PickupRequest, error) {
	s.creates++
	if s.createErr != nil {
		if err := s.createErr(s.creates); err != nil {
			return nil, err
		}
	}
	if pickup.ID == uuid.Nil {
		pickup.ID = uuid.New()
	}
	s.byID[pickup.ID] = pickup
	s.byCode[pickup.TrackingCode] = pickup
	return pickup, nil
}

func (s *stubPickupsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.PickupRequest, error) {
	if pickup, ok := s.byID[id]; ok {
		copied := *pickup
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPickupsRepo) FindByTrackingCode(ctx context.Context, code string) (*models.PickupRequest, error) {
	if pickup, ok := s.byCode[code]; ok {
		copied := *pickup
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPickupsRepo) ListByRequester(ctx context.Context, userID uuid.UUID, params pagination.Params) (*List, error) {
	var items []models.PickupRequest
	for _, pickup := range s.byID {
		if pickup.UserID == userID {
			items = append(items, *pickup)
		}
	}
	return &List{Items: items, Page: pagination.NewPage(params, int64(len(items)))}, nil
}

func (s *stubPickupsRepo) List(ctx context.Context, filters ListFilters, params pagination.Params) (*List, error) {
	var items []models.PickupRequest
	for _, pickup := range s.byID {
		if filters.Status != nil && pickup.Status != *filters.Status {
			continue
		}
		items = append(items, *pickup)
	}
	return &List{Items: items, Page: pagination.NewPage(params, int64(len(items)))}, nil
}

func (s *stubPickupsRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.PickupStatus, updates map[string]any) (bool, error) {
	if s.swapFails {
		return false, nil
	}
	pickup, ok := s.byID[id]
	if !ok || pickup.Status != from {
		return false, nil
	}
	pickup.Status = to
	s.lastUpdate = updates
	if v, ok := updates["collected_at"].(time.Time); ok {
		pickup.CollectedAt = &v
	}
	if v, ok := updates["recycled_at"].(time.Time); ok {
		pickup.RecycledAt = &v
	}
	if v, ok := updates["assigned_to_id"].(uuid.UUID); ok {
		pickup.AssignedToID = &v
	}
	return true, nil
}

func (s *stubPickupsRepo) CountByStatus(ctx context.Context) (map[enums.PickupStatus]int64, error) {
	counts := map[enums.PickupStatus]int64{}
	for _, pickup := range s.byID {
		counts[pickup.Status]++
	}
	return counts, nil
}

type stubAssigneeRepo struct {
	byID map[uuid.UUID]*models.User
}

func (s *stubAssigneeRepo) WithTx(tx *gorm.DB) users.Repository { return s }

func (s *stubAssigneeRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	panic("not implemented")
}

func (s *stubAssigneeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubAssigneeRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	panic("not implemented")
}

func (s *stubAssigneeRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	panic("not implemented")
}

func (s *stubAssigneeRepo) CountByRole(ctx context.Context) (map[enums.UserRole]int64, error) {
	panic("not implemented")
}

func newTestService(t *testing.T, repo Repository, usersRepo users.Repository) Service {
	t.Helper()
	svc, err := NewService(repo, usersRepo, qr.NewCodec(qr.DefaultImageSize), nil)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func validCreateInput(actor authz.Actor) CreateInput {
	return CreateInput{
		Actor:             actor,
		DeviceType:        enums.DeviceTypeLaptop,
		DeviceDescription: "Dell XPS 13, broken screen",
		Quantity:          1,
		Street:            "42 Green Way",
		City:              "Austin",
		State:             "TX",
		ZipCode:           "78701",
		PreferredDate:     time.Now().Add(48 * time.Hour),
		PreferredTimeSlot: enums.TimeSlotMorning,
	}
}

func requester() authz.Actor {
	return authz.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}
}

func operator() authz.Actor {
	return authz.Actor{UserID: uuid.New(), Role: enums.UserRoleNGO}
}

func admin() authz.Actor {
	return authz.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
}

func mustCreatePickup(t *testing.T, svc Service, actor authz.Actor) *models.PickupRequest {
	t.Helper()
	pickup, err := svc.Create(context.Background(), validCreateInput(actor))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	return pickup
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestCreateGeneratesTrackingCode(t *testing.T) {
	repo := newStubPickupsRepo()
	svc := newTestService(t, repo, &stubAssigneeRepo{})

	pickup := mustCreatePickup(t, svc, requester())
	if pickup.Status != enums.PickupStatusPending {
		t.Fatalf("expected pending status, got %s", pickup.Status)
	}
	if pickup.TrackingCode == "" {
		t.Fatal("expected tracking code")
	}
	second := mustCreatePickup(t, svc, requester())
	if second.TrackingCode == pickup.TrackingCode {
		t.Fatal("tracking codes must be unique")
	}
}

func TestCreateRetriesOnDuplicateCode(t *testing.T) {
	repo := newStubPickupsRepo()
	repo.createErr = func(attempt int) error {
		if attempt == 1 {
			return fmt.Errorf(`duplicate key value violates unique constraint "idx_pickup_requests_tracking_code"`)
		}
		return nil
	}
	svc := newTestService(t, repo, &stubAssigneeRepo{})

	pickup := mustCreatePickup(t, svc, requester())
	if pickup.TrackingCode == "" {
		t.Fatal("expected tracking code after retry")
	}
	if repo.creates != 2 {
		t.Fatalf("expected 2 create attempts, got %d", repo.creates)
	}
}

func TestCreateGivesUpAfterRepeatedDuplicates(t *testing.T) {
	repo := newStubPickupsRepo()
	repo.createErr = func(attempt int) error {
		return fmt.Errorf(`duplicate key value violates unique constraint "idx_pickup_requests_tracking_code"`)
	}
	svc := newTestService(t, repo, &stubAssigneeRepo{})

	_, err := svc.Create(context.Background(), validCreateInput(requester()))
	expectCode(t, err, pkgerrors.CodeInternal)
	if repo.creates != trackingCodeTries {
		t.Fatalf("expected %d attempts, got %d", trackingCodeTries, repo.creates)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc := newTestService(t, newStubPickupsRepo(), &stubAssigneeRepo{})

	input := validCreateInput(requester())
	input.Quantity = 0
	_, err := svc.Create(context.Background(), input)
	expectCode(t, err, pkgerrors.CodeValidation)

	input = validCreateInput(requester())
	input.DeviceType = "fridge"
	_, err = svc.Create(context.Background(), input)
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestGetEnforcesOwnership(t *testing.T) {
	repo := newStubPickupsRepo()
	svc := newTestService(t, repo, &stubAssigneeRepo{})

	owner := requester()
	pickup := mustCreatePickup(t, svc, owner)

	if _, err := svc.Get(context.Background(), owner, pickup.ID); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
	if _, err := svc.Get(context.Background(), operator(), pickup.ID); err != nil {
		t.Fatalf("operator read failed: %v", err)
	}

	_, err := svc.Get(context.Background(), requester(), pickup.ID)
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestUpdateStatusHappyPath(t *testing.T) {
	repo := newStubPickupsRepo()
	assignee := &models.User{ID: uuid.New(), Role: enums.UserRoleNGO}
	usersRepo := &stubAssigneeRepo{byID: map[uuid.UUID]*models.User{assignee.ID: assignee}}
	svc := newTestService(t, repo, usersRepo)

	pickup := mustCreatePickup(t, svc, requester())

	assigned, err := svc.Assign(context.Background(), AssignInput{
		Actor:      admin(),
		ID:         pickup.ID,
		AssigneeID: assignee.ID,
	})
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	if assigned.Status != enums.PickupStatusAssigned {
		t.Fatalf("expected assigned, got %s", assigned.Status)
	}
	if assigned.AssignedToID == nil || *assigned.AssignedToID != assignee.ID {
		t.Fatal("expected assignee recorded")
	}

	collected, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		Actor:  operator(),
		ID:     pickup.ID,
		Target: enums.PickupStatusCollected,
	})
	if err != nil {
		t.Fatalf("UpdateStatus to collected returned error: %v", err)
	}
	if collected.CollectedAt == nil {
		t.Fatal("expected collected_at side effect")
	}

	recycled, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		Actor:  operator(),
		ID:     pickup.ID,
		Target: enums.PickupStatusRecycled,
	})
	if err != nil {
		t.Fatalf("UpdateStatus to recycled returned error: %v", err)
	}
	if recycled.RecycledAt == nil {
		t.Fatal("expected recycled_at side effect")
	}
}

func TestUpdateStatusRejectsSkippedStates(t *testing.T) {
	repo := newStubPickupsRepo()
	svc := newTestService(t, repo, &stubAssigneeRepo{})

	pickup := mustCreatePickup(t, svc, requester())

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		Actor:  operator(),
		ID:     pickup.ID,
		Target: enums.PickupStatusCollected,
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestUpdateStatusRequiresOperatorRole(t *testing.T) {
	repo := newStubPickupsRepo()
	svc := newTestService(t, repo, &stubAssigneeRepo{})

	owner := requester()
	pickup := mustCreatePickup(t, svc, owner)

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		Actor:  owner,
		ID:     pickup.ID,
		Target: enums.PickupStatusAssigned,
	})
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestUpdateStatusSameStatusIsNoOp(t *testing.T) {
	repo := newStubPickupsRepo()
	svc := newTestService(t, repo, &stubAssigneeRepo{})

	owner := requester()
	pickup := mustCreatePickup(t, svc, owner)

	notes := "duplicate submission"
	result, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		Actor:  owner,
		ID:     pickup.ID,
		Target: enums.PickupStatusPending,
		Notes:  &notes,
	})
	if err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	if result.Status != enums.PickupStatusPending {
		t.Fatalf("expected pending, got %s", result.Status)
	}
	if repo.lastUpdate != nil {
		t.Fatal("same-status update must not write anything")
	}
}

func TestUpdateStatusForeignRequesterForbidden(t *testing.T) {
	repo := newStubPickupsRepo()
	svc := newTestService(t, repo, &stubAssigneeRepo{})

	pickup := mustCreatePickup(t, svc, requester())

	// A stranger asking for the current status must not get the record
	// back through the same-status no-op.
	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		Actor:  requester(),
		ID:     pickup.ID,
		Target: enums.PickupStatusPending,
	})
	expectCode(t, err, pkgerrors.CodeForbidden)

	_, err = svc.UpdateStatus(context.Background(), UpdateStatusInput{
		Actor:  requester(),
		ID:     pickup.ID,
		Target: enums.PickupStatusCancelled,
	})
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestUpdateStatusLostRace(t *testing.T) {
	repo := newStubPickupsRepo()
	svc := newTestService(t, repo, &stubAssigneeRepo{})

	owner := requester()
	pickup := mustCreatePickup(t, svc, owner)
	repo.swapFails = true

	_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{
		Actor:  owner,
		ID:     pickup.ID,
		Target: enums.PickupStatusCancelled,
	})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestCancelByOwnerAndAdminOnly(t *testing.T) {
	repo := newStubPickupsRepo()
	svc := newTestService(t, repo, &stubAssigneeRepo{})

	owner := requester()
	pickup := mustCreatePickup(t, svc, owner)

	cancel := func(actor authz.Actor, id uuid.UUID) (*models.PickupRequest, error) {
		return svc.UpdateStatus(context.Background(), UpdateStatusInput{
			Actor:  actor,
			ID:     id,
			Target: enums.PickupStatusCancelled,
		})
	}

	_, err := cancel(operator(), pickup.ID)
	expectCode(t, err, pkgerrors.CodeForbidden)

	cancelled, err := cancel(owner, pickup.ID)
	if err != nil {
		t.Fatalf("owner cancel failed: %v", err)
	}
	if cancelled.Status != enums.PickupStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	other := mustCreatePickup(t, svc, requester())
	if _, err := cancel(admin(), other.ID); err != nil {
		t.Fatalf("admin cancel failed: %v", err)
	}
}

func TestAssignValidatesAssigneeRole(t *testing.T) {
	repo := newStubPickupsRepo()
	plain := &models.User{ID: uuid.New(), Role: enums.UserRoleUser}
	usersRepo := &stubAssigneeRepo{byID: map[uuid.UUID]*models.User{plain.ID: plain}}
	svc := newTestService(t, repo, usersRepo)

	pickup := mustCreatePickup(t, svc, requester())

	_, err := svc.Assign(context.Background(), AssignInput{
		Actor:      admin(),
		ID:         pickup.ID,
		AssigneeID: plain.ID,
	})
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Assign(context.Background(), AssignInput{
		Actor:      admin(),
		ID:         pickup.ID,
		AssigneeID: uuid.New(),
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestAssignRequiresAdmin(t *testing.T) {
	repo := newStubPickupsRepo()
	assignee := &models.User{ID: uuid.New(), Role: enums.UserRoleNGO}
	usersRepo := &stubAssigneeRepo{byID: map[uuid.UUID]*models.User{assignee.ID: assignee}}
	svc := newTestService(t, repo, usersRepo)

	pickup := mustCreatePickup(t, svc, requester())

	_, err := svc.Assign(context.Background(), AssignInput{
		Actor:      operator(),
		ID:         pickup.ID,
		AssigneeID: assignee.ID,
	})
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestGetByTrackingCodeEnforcesOwnership(t *testing.T) {
	repo := newStubPickupsRepo()
	svc := newTestService(t, repo, &stubAssigneeRepo{})

	owner := requester()
	pickup := mustCreatePickup(t, svc, owner)

	found, err := svc.GetByTrackingCode(context.Background(), owner, pickup.TrackingCode)
	if err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
	if found.ID != pickup.ID {
		t.Fatalf("expected pickup %s, got %s", pickup.ID, found.ID)
	}

	_, err = svc.GetByTrackingCode(context.Background(), requester(), pickup.TrackingCode)
	expectCode(t, err, pkgerrors.CodeForbidden)

	_, err = svc.GetByTrackingCode(context.Background(), owner, "not-a-code")
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestScanMarksAssignedPickupCollected(t *testing.T) {
	repo := newStubPickupsRepo()
	assignee := &models.User{ID: uuid.New(), Role: enums.UserRoleNGO}
	usersRepo := &stubAssigneeRepo{byID: map[uuid.UUID]*models.User{assignee.ID: assignee}}
	svc := newTestService(t, repo, usersRepo)

	pickup := mustCreatePickup(t, svc, requester())
	if _, err := svc.Assign(context.Background(), AssignInput{Actor: admin(), ID: pickup.ID, AssigneeID: assignee.ID}); err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}

	image, err := svc.QRImage(context.Background(), operator(), pickup.ID)
	if err != nil {
		t.Fatalf("QRImage returned error: %v", err)
	}

	result, err := svc.Scan(context.Background(), ScanInput{Actor: operator(), Image: image})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if result.AlreadyCollected {
		t.Fatal("first scan must not report already collected")
	}
	if result.Pickup.Status != enums.PickupStatusCollected {
		t.Fatalf("expected collected, got %s", result.Pickup.Status)
	}
	if result.Pickup.CollectedAt == nil {
		t.Fatal("expected collected_at set by scan")
	}
}

func TestScanAcceptsRawCode(t *testing.T) {
	repo := newStubPickupsRepo()
	assignee := &models.User{ID: uuid.New(), Role: enums.UserRoleNGO}
	usersRepo := &stubAssigneeRepo{byID: map[uuid.UUID]*models.User{assignee.ID: assignee}}
	svc := newTestService(t, repo, usersRepo)

	pickup := mustCreatePickup(t, svc, requester())
	if _, err := svc.Assign(context.Background(), AssignInput{Actor: admin(), ID: pickup.ID, AssigneeID: assignee.ID}); err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}

	result, err := svc.Scan(context.Background(), ScanInput{Actor: operator(), Code: pickup.TrackingCode})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if result.Pickup.Status != enums.PickupStatusCollected {
		t.Fatalf("expected collected, got %s", result.Pickup.Status)
	}
}

func TestScanIsIdempotentOnCollected(t *testing.T) {
	repo := newStubPickupsRepo()
	assignee := &models.User{ID: uuid.New(), Role: enums.UserRoleNGO}
	usersRepo := &stubAssigneeRepo{byID: map[uuid.UUID]*models.User{assignee.ID: assignee}}
	svc := newTestService(t, repo, usersRepo)

	pickup := mustCreatePickup(t, svc, requester())
	if _, err := svc.Assign(context.Background(), AssignInput{Actor: admin(), ID: pickup.ID, AssigneeID: assignee.ID}); err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}

	image, err := svc.QRImage(context.Background(), operator(), pickup.ID)
	if err != nil {
		t.Fatalf("QRImage returned error: %v", err)
	}

	first, err := svc.Scan(context.Background(), ScanInput{Actor: operator(), Image: image})
	if err != nil {
		t.Fatalf("first scan returned error: %v", err)
	}
	firstCollectedAt := first.Pickup.CollectedAt

	second, err := svc.Scan(context.Background(), ScanInput{Actor: operator(), Image: image})
	if err != nil {
		t.Fatalf("second scan returned error: %v", err)
	}
	if !second.AlreadyCollected {
		t.Fatal("expected second scan to report already collected")
	}
	if second.Pickup.CollectedAt == nil || !second.Pickup.CollectedAt.Equal(*firstCollectedAt) {
		t.Fatal("re-scan must not touch collected_at")
	}
}

func TestScanRejectsPendingPickup(t *testing.T) {
	repo := newStubPickupsRepo()
	svc := newTestService(t, repo, &stubAssigneeRepo{})

	pickup := mustCreatePickup(t, svc, requester())

	image, err := svc.QRImage(context.Background(), operator(), pickup.ID)
	if err != nil {
		t.Fatalf("QRImage returned error: %v", err)
	}

	_, err = svc.Scan(context.Background(), ScanInput{Actor: operator(), Image: image})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestScanRequiresOperator(t *testing.T) {
	svc := newTestService(t, newStubPickupsRepo(), &stubAssigneeRepo{})

	_, err := svc.Scan(context.Background(), ScanInput{Actor: requester(), Image: []byte{1}})
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestScanUndecodableImage(t *testing.T) {
	svc := newTestService(t, newStubPickupsRepo(), &stubAssigneeRepo{})

	_, err := svc.Scan(context.Background(), ScanInput{Actor: operator(), Image: []byte("not an image")})
	expectCode(t, err, pkgerrors.CodeDecodeFailure)
}

func TestScanUnknownTrackingCode(t *testing.T) {
	repo := newStubPickupsRepo()
	svc := newTestService(t, repo, &stubAssigneeRepo{})

	codec := qr.NewCodec(qr.DefaultImageSize)
	image, err := codec.Encode("PICKUP_1700000000000000000_abcdefghi")
	if err != nil {
		t.Fatalf("encode test image: %v", err)
	}

	_, err = svc.Scan(context.Background(), ScanInput{Actor: operator(), Image: image})
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestScanNonPickupPayload(t *testing.T) {
	svc := newTestService(t, newStubPickupsRepo(), &stubAssigneeRepo{})

	codec := qr.NewCodec(qr.DefaultImageSize)
	image, err := codec.Encode("https://example.com/not-a-pickup")
	if err != nil {
		t.Fatalf("encode test image: %v", err)
	}

	_, err = svc.Scan(context.Background(), ScanInput{Actor: operator(), Image: image})
	expectCode(t, err, pkgerrors.CodeValidation)
}
