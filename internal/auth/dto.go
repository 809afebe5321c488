package auth

import (
	"github.com/ecocycle/ecocycle-backend/pkg/db/models"
	"github.com/ecocycle/ecocycle-backend/pkg/enums"
)

// RegisterInput carries the fields for account creation.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    *string
	Role     enums.UserRole
}

// LoginInput carries the credential pair.
type LoginInput struct {
	Email    string
	Password string
}

// RefreshInput carries the expired access token plus its refresh token.
type RefreshInput struct {
	AccessToken  string
	RefreshToken string
}

// Result bundles the authenticated user with a fresh token pair.
type Result struct {
	User         models.User
	AccessToken  string
	RefreshToken string
}
