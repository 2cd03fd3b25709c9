package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	checkoutsvc "github.com/tokrilabs/tokri-backend/internal/checkout"
	"github.com/tokrilabs/tokri-backend/pkg/db/models"
	"github.com/tokrilabs/tokri-backend/pkg/enums"
	pkgerrors "github.com/tokrilabs/tokri-backend/pkg/errors"
)

type stubCheckoutService struct {
	result  *checkoutsvc.Result
	err     error
	lastReq checkoutsvc.Request
}

func (s *stubCheckoutService) Execute(ctx context.Context, req checkoutsvc.Request) (*checkoutsvc.Result, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubOrdersService struct {
	orders []models.Order
	order  *models.Order
	err    error
}

func (s *stubOrdersService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.orders, s.err
}

func (s *stubOrdersService) GetForUser(ctx context.Context, userID uuid.UUID, orderNumber string) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, orderNumber string, target enums.OrderStatus) (*models.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

func (s *stubOrdersService) CancelTx(ctx context.Context, tx *gorm.DB, order *models.Order, reason string) error {
	return nil
}

func sampleOrder() *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD-1700000000000-7",
		UserID:        uuid.New(),
		Status:        enums.OrderStatusPending,
		PaymentMethod: enums.PaymentMethodOnline,
		Subtotal:      decimal.NewFromInt(1300),
		CODSurcharge:  decimal.Zero,
		Discount:      decimal.Zero,
		Total:         decimal.NewFromInt(1349),
		Items: []models.OrderItem{
			{ProductID: uuid.New(), Name: "Aashirvaad Atta 5kg", UnitPrice: decimal.NewFromInt(650), Quantity: 2, Subtotal: decimal.NewFromInt(1300)},
		},
	}
}

func TestCheckoutOnlineReturnsGatewayLeg(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{result: &checkoutsvc.Result{
		Order:          sampleOrder(),
		GatewayOrderID: "order_G8x1y2z3",
		GatewayKeyID:   "rzp_test_tokri",
		AmountPaise:    134900,
		Currency:       "INR",
	}}
	handler := Checkout(svc, nil)

	addressID := uuid.New()
	body := `{"address_id":"` + addressID.String() + `","payment_method":"online"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/orders", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastReq.AddressID != addressID || svc.lastReq.PaymentMethod != enums.PaymentMethodOnline {
		t.Fatalf("service saw %+v", svc.lastReq)
	}

	var envelope struct {
		Data struct {
			Order struct {
				OrderNumber string `json:"order_number"`
			} `json:"order"`
			GatewayOrderID string `json:"gateway_order_id"`
			GatewayKeyID   string `json:"gateway_key_id"`
			AmountPaise    int64  `json:"amount_paise"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.GatewayOrderID != "order_G8x1y2z3" {
		t.Fatalf("unexpected gateway order id %q", envelope.Data.GatewayOrderID)
	}
	if envelope.Data.AmountPaise != 134900 {
		t.Fatalf("unexpected paise amount %d", envelope.Data.AmountPaise)
	}
	if envelope.Data.Order.OrderNumber == "" {
		t.Fatal("expected the order in the response")
	}
}

func TestCheckoutRejectsUnknownPaymentMethod(t *testing.T) {
	t.Parallel()

	handler := Checkout(&stubCheckoutService{}, nil)

	body := `{"address_id":"` + uuid.NewString() + `","payment_method":"upi"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/orders", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutSurfacesStockConflict(t *testing.T) {
	t.Parallel()

	scarce := uuid.New()
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
		WithDetails(map[string]string{"product_id": scarce.String()})}
	handler := Checkout(svc, nil)

	body := `{"address_id":"` + uuid.NewString() + `","payment_method":"cod"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/orders", body))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Details["product_id"] != scarce.String() {
		t.Fatalf("expected product_id detail, got %v", envelope.Error.Details)
	}
}

func TestOrderDetailNotFound(t *testing.T) {
	t.Parallel()

	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	router := chi.NewRouter()
	router.Get("/api/v1/orders/{orderNumber}", OrderDetail(svc, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/orders/ORD-1-1", ""))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	t.Parallel()

	order := sampleOrder()
	order.Status = enums.OrderStatusProcessing
	svc := &stubOrdersService{order: order}
	router := chi.NewRouter()
	router.Patch("/api/v1/admin/orders/{orderNumber}/status", AdminUpdateOrderStatus(svc, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(http.MethodPatch, "/api/v1/admin/orders/"+order.OrderNumber+"/status", `{"status":"processing"}`))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminUpdateOrderStatusUnknownValue(t *testing.T) {
	t.Parallel()

	router := chi.NewRouter()
	router.Patch("/api/v1/admin/orders/{orderNumber}/status", AdminUpdateOrderStatus(&stubOrdersService{}, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(http.MethodPatch, "/api/v1/admin/orders/ORD-1-1/status", `{"status":"teleported"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestIllegalTransitionMapsTo422(t *testing.T) {
	t.Parallel()

	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move shipped to processing")}
	router := chi.NewRouter()
	router.Patch("/api/v1/admin/orders/{orderNumber}/status", AdminUpdateOrderStatus(svc, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(http.MethodPatch, "/api/v1/admin/orders/ORD-1-1/status", `{"status":"processing"}`))

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}
