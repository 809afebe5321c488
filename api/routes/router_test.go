package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	adminsvc "github.com/ecocycle/ecocycle-backend/internal/admin"
	authsvc "github.com/ecocycle/ecocycle-backend/internal/auth"
	pickupsvc "github.com/ecocycle/ecocycle-backend/internal/pickups"
	productsvc "github.com/ecocycle/ecocycle-backend/internal/products"
	"github.com/ecocycle/ecocycle-backend/internal/authz"
	pkgAuth "github.com/ecocycle/ecocycle-backend/pkg/auth"
	"github.com/ecocycle/ecocycle-backend/pkg/auth/session"
	"github.com/ecocycle/ecocycle-backend/pkg/config"
	"github.com/ecocycle/ecocycle-backend/pkg/db/models"
	"github.com/ecocycle/ecocycle-backend/pkg/enums"
	"github.com/ecocycle/ecocycle-backend/pkg/logger"
	"github.com/ecocycle/ecocycle-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, input authsvc.RegisterInput) (*authsvc.Result, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Login(ctx context.Context, input authsvc.LoginInput) (*authsvc.Result, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Refresh(ctx context.Context, input authsvc.RefreshInput) (*authsvc.Result, error) {
	return nil, fmt.Errorf("not implemented")
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error {
	return nil
}

type stubPickupService struct{}

func (stubPickupService) Create(ctx context.Context, input pickupsvc.CreateInput) (*models.PickupRequest, error) {
	panic("unimplemented")
}

func (stubPickupService) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.PickupRequest, error) {
	panic("unimplemented")
}

func (stubPickupService) GetByTrackingCode(ctx context.Context, actor authz.Actor, code string) (*models.PickupRequest, error) {
	panic("unimplemented")
}

func (stubPickupService) ListMine(ctx context.Context, actor authz.Actor, params pagination.Params) (*pickupsvc.List, error) {
	return &pickupsvc.List{}, nil
}

func (stubPickupService) ListAll(ctx context.Context, actor authz.Actor, filters pickupsvc.ListFilters, params pagination.Params) (*pickupsvc.List, error) {
	return &pickupsvc.List{}, nil
}

func (stubPickupService) UpdateStatus(ctx context.Context, input pickupsvc.UpdateStatusInput) (*models.PickupRequest, error) {
	panic("unimplemented")
}

func (stubPickupService) Assign(ctx context.Context, input pickupsvc.AssignInput) (*models.PickupRequest, error) {
	panic("unimplemented")
}

func (stubPickupService) Scan(ctx context.Context, input pickupsvc.ScanInput) (*pickupsvc.ScanResult, error) {
	panic("unimplemented")
}

func (stubPickupService) QRImage(ctx context.Context, actor authz.Actor, id uuid.UUID) ([]byte, error) {
	panic("unimplemented")
}

type stubProductService struct{}

func (stubProductService) Create(ctx context.Context, input productsvc.CreateInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) List(ctx context.Context, filters productsvc.ListFilters, params pagination.Params) (*productsvc.List, error) {
	return &productsvc.List{}, nil
}

func (stubProductService) ListMine(ctx context.Context, actor authz.Actor, params pagination.Params) (*productsvc.List, error) {
	return &productsvc.List{}, nil
}

func (stubProductService) ListSold(ctx context.Context, actor authz.Actor, params pagination.Params) (*productsvc.List, error) {
	return &productsvc.List{}, nil
}

func (stubProductService) Update(ctx context.Context, input productsvc.UpdateInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubProductService) ToggleAvailability(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductService) Buy(ctx context.Context, actor authz.Actor, id uuid.UUID) (*models.Product, error) {
	panic("unimplemented")
}

type stubAdminService struct{}

func (stubAdminService) Stats(ctx context.Context, actor authz.Actor) (*adminsvc.Stats, error) {
	return &adminsvc.Stats{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:         cfg,
		Logger:         logg,
		DB:             stubPinger{},
		Sessions:       stubSessionManager{},
		AuthService:    stubAuthService{},
		PickupService:  stubPickupService{},
		ProductService: stubProductService{},
		AdminService:   stubAdminService{},
	})
}

func TestPublicProductListing(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/products/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public listing got %d", resp.Code)
	}
}

func TestPickupGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/pickup/my-pickups", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPickupGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/pickup/my-pickups", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for my-pickups got %d", resp.Code)
	}
}

func TestPickupListingRequiresOperatorRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	regular := httptest.NewRequest(http.MethodGet, "/api/pickup/", nil)
	regular.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, regular)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for regular user got %d", resp.Code)
	}

	ngo := httptest.NewRequest(http.MethodGet, "/api/pickup/", nil)
	ngo.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleNGO))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, ngo)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for ngo got %d", resp.Code)
	}
}

func TestRecentPickupsRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	ngo := httptest.NewRequest(http.MethodGet, "/api/pickup/recent", nil)
	ngo.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleNGO))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, ngo)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for ngo got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/pickup/recent", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/stats", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/stats", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
