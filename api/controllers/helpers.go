package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ecocycle/ecocycle-backend/api/middleware"
	"github.com/ecocycle/ecocycle-backend/api/validators"
	"github.com/ecocycle/ecocycle-backend/internal/authz"
	"github.com/ecocycle/ecocycle-backend/pkg/enums"
	pkgerrors "github.com/ecocycle/ecocycle-backend/pkg/errors"
	"github.com/ecocycle/ecocycle-backend/pkg/pagination"
)

func actorFromContext(r *http.Request) (authz.Actor, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return authz.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return authz.Actor{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return authz.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "unknown actor role")
	}
	return authz.Actor{UserID: userID, Role: role}, nil
}

func parsePathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return parsed, nil
}

func pathString(r *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(r, name))
}

func parsePaging(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<30)
	if err != nil {
		return pagination.Params{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, Limit: limit}, nil
}
