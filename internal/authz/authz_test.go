package authz_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/ecocycle/ecocycle-backend/internal/authz"
	"github.com/ecocycle/ecocycle-backend/pkg/enums"
	pkgerrors "github.com/ecocycle/ecocycle-backend/pkg/errors"
)

func TestRequireRole(t *testing.T) {
	admin := authz.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	if err := authz.RequireRole(admin, enums.UserRoleAdmin, enums.UserRoleNGO); err != nil {
		t.Fatalf("expected admin to pass, got %v", err)
	}

	user := authz.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}
	err := authz.RequireRole(user, enums.UserRoleAdmin, enums.UserRoleNGO)
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN code, got %v", err)
	}
}

func TestRequireOwnerOrAdmin(t *testing.T) {
	ownerID := uuid.New()

	owner := authz.Actor{UserID: ownerID, Role: enums.UserRoleUser}
	if err := authz.RequireOwnerOrAdmin(owner, ownerID); err != nil {
		t.Fatalf("expected owner to pass, got %v", err)
	}

	admin := authz.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	if err := authz.RequireOwnerOrAdmin(admin, ownerID); err != nil {
		t.Fatalf("expected admin to pass, got %v", err)
	}

	stranger := authz.Actor{UserID: uuid.New(), Role: enums.UserRoleNGO}
	if err := authz.RequireOwnerOrAdmin(stranger, ownerID); err == nil {
		t.Fatal("expected forbidden error for non-owner ngo")
	}
}
