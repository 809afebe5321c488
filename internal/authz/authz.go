// Package authz holds the role and ownership checks shared by services.
package authz

import (
	"github.com/google/uuid"

	"github.com/ecocycle/ecocycle-backend/pkg/enums"
	pkgerrors "github.com/ecocycle/ecocycle-backend/pkg/errors"
)

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// IsOperator reports whether the actor holds a collection-side role.
func (a Actor) IsOperator() bool {
	return a.Role.IsOperator()
}

// RequireRole fails with FORBIDDEN unless the actor holds one of the allowed roles.
func RequireRole(actor Actor, allowed ...enums.UserRole) error {
	for _, role := range allowed {
		if actor.Role == role {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role for this operation")
}

// RequireOwnerOrAdmin fails with FORBIDDEN unless the actor owns the resource
// or holds the admin role.
func RequireOwnerOrAdmin(actor Actor, ownerID uuid.UUID) error {
	if actor.Role == enums.UserRoleAdmin {
		return nil
	}
	if actor.UserID == ownerID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "resource belongs to another user")
}
