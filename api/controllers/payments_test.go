package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	paymentsvc "github.com/tokrilabs/tokri-backend/internal/payments"
	pkgerrors "github.com/tokrilabs/tokri-backend/pkg/errors"
)

type stubPaymentsService struct {
	result *paymentsvc.ConfirmResult
	err    error

	failedOrder  string
	failedReason string
	failedUser   uuid.UUID
}

func (s *stubPaymentsService) Confirm(ctx context.Context, req paymentsvc.ConfirmRequest) (*paymentsvc.ConfirmResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubPaymentsService) FailForUser(ctx context.Context, userID uuid.UUID, orderNumber, reason string) error {
	if s.err != nil {
		return s.err
	}
	s.failedUser = userID
	s.failedOrder = orderNumber
	s.failedReason = reason
	return nil
}

func (s *stubPaymentsService) Fail(ctx context.Context, orderNumber, reason string) error {
	return nil
}

func TestPaymentVerifyConfirms(t *testing.T) {
	t.Parallel()

	svc := &stubPaymentsService{result: &paymentsvc.ConfirmResult{Confirmed: true, OrderNumber: "ORD-1700000000000-7"}}
	handler := PaymentVerify(svc, nil)

	body := `{"razorpay_order_id":"order_G8x1y2z3","razorpay_payment_id":"pay_29QQoUBi66xm2f","razorpay_signature":"deadbeef"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", strings.NewReader(body)))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			Confirmed   bool   `json:"confirmed"`
			OrderNumber string `json:"order_number"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Confirmed || envelope.Data.OrderNumber != "ORD-1700000000000-7" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestPaymentVerifyMissingFields(t *testing.T) {
	t.Parallel()

	handler := PaymentVerify(&stubPaymentsService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", strings.NewReader(`{"razorpay_order_id":"order_G8x1y2z3"}`)))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPaymentVerifyBadSignatureMapsTo400(t *testing.T) {
	t.Parallel()

	svc := &stubPaymentsService{err: pkgerrors.New(pkgerrors.CodeValidation, "payment signature verification failed")}
	handler := PaymentVerify(svc, nil)

	body := `{"razorpay_order_id":"order_G8x1y2z3","razorpay_payment_id":"pay_29QQoUBi66xm2f","razorpay_signature":"tampered"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", strings.NewReader(body)))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPaymentFailDefaultsReason(t *testing.T) {
	t.Parallel()

	svc := &stubPaymentsService{}
	router := chi.NewRouter()
	router.Post("/api/v1/payments/{orderNumber}/fail", PaymentFail(svc, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/payments/ORD-1700000000000-7/fail", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.failedOrder != "ORD-1700000000000-7" {
		t.Fatalf("service saw order %q", svc.failedOrder)
	}
	if svc.failedReason != "payment failed at gateway" {
		t.Fatalf("unexpected reason %q", svc.failedReason)
	}
	if svc.failedUser == uuid.Nil {
		t.Fatal("expected the caller's user id forwarded")
	}
}

func TestPaymentFailRequiresAuth(t *testing.T) {
	t.Parallel()

	router := chi.NewRouter()
	router.Post("/api/v1/payments/{orderNumber}/fail", PaymentFail(&stubPaymentsService{}, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/payments/ORD-1-1/fail", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
