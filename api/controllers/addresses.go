package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tokrilabs/tokri-backend/api/responses"
	"github.com/tokrilabs/tokri-backend/api/validators"
	addresssvc "github.com/tokrilabs/tokri-backend/internal/addresses"
	"github.com/tokrilabs/tokri-backend/pkg/db/models"
	"github.com/tokrilabs/tokri-backend/pkg/logger"
)

// AddressList returns the caller's saved shipping addresses.
func AddressList(repo addresssvc.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := repo.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]addressResponse, 0, len(rows))
		for i := range rows {
			items = append(items, newAddressResponse(&rows[i]))
		}
		responses.WriteSuccess(w, items)
	}
}

type createAddressRequest struct {
	Line1   string  `json:"line1" validate:"required"`
	Line2   *string `json:"line2"`
	City    string  `json:"city" validate:"required"`
	State   string  `json:"state" validate:"required"`
	Pincode string  `json:"pincode" validate:"required"`
}

// AddressCreate saves a new shipping address for the caller.
func AddressCreate(repo addresssvc.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		address := &models.Address{
			ID:      uuid.New(),
			UserID:  userID,
			Line1:   payload.Line1,
			Line2:   payload.Line2,
			City:    payload.City,
			State:   payload.State,
			Pincode: payload.Pincode,
		}
		if err := repo.Create(r.Context(), address); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newAddressResponse(address))
	}
}

type addressResponse struct {
	ID        uuid.UUID `json:"id"`
	Line1     string    `json:"line1"`
	Line2     *string   `json:"line2,omitempty"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Pincode   string    `json:"pincode"`
	CreatedAt time.Time `json:"created_at"`
}

func newAddressResponse(a *models.Address) addressResponse {
	return addressResponse{
		ID:        a.ID,
		Line1:     a.Line1,
		Line2:     a.Line2,
		City:      a.City,
		State:     a.State,
		Pincode:   a.Pincode,
		CreatedAt: a.CreatedAt,
	}
}
