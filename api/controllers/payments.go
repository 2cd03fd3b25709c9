package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tokrilabs/tokri-backend/api/responses"
	"github.com/tokrilabs/tokri-backend/api/validators"
	paymentsvc "github.com/tokrilabs/tokri-backend/internal/payments"
	"github.com/tokrilabs/tokri-backend/pkg/logger"
)

type verifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

// PaymentVerify is the public gateway callback. Redeliveries and callbacks
// for purged payments are acknowledged with confirmed=false.
func PaymentVerify(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Confirm(r.Context(), paymentsvc.ConfirmRequest{
			GatewayOrderID:   payload.RazorpayOrderID,
			GatewayPaymentID: payload.RazorpayPaymentID,
			Signature:        payload.RazorpaySignature,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"confirmed":    result.Confirmed,
			"order_number": result.OrderNumber,
		})
	}
}

type failPaymentRequest struct {
	Reason string `json:"reason"`
}

// PaymentFail is the client widget's explicit failure callback. It cancels
// the order and restores the reserved stock.
func PaymentFail(svc paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload failPaymentRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		reason := payload.Reason
		if reason == "" {
			reason = "payment failed at gateway"
		}

		orderNumber := chi.URLParam(r, "orderNumber")
		if err := svc.FailForUser(r.Context(), userID, orderNumber, reason); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{
			"order_number": orderNumber,
			"status":       "failed",
		})
	}
}
