package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/tokrilabs/tokri-backend/api/middleware"
	pkgerrors "github.com/tokrilabs/tokri-backend/pkg/errors"
)

// actorID pulls the authenticated user id seeded by the auth middleware.
func actorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return userID, nil
}
