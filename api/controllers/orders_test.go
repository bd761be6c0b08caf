package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/foodkoop/grouporder-backend/internal/activegroup"
	bundlesvc "github.com/foodkoop/grouporder-backend/internal/bundles"
	"github.com/foodkoop/grouporder-backend/pkg/config"
	"github.com/foodkoop/grouporder-backend/pkg/db/models"
	pkgerrors "github.com/foodkoop/grouporder-backend/pkg/errors"
	"github.com/foodkoop/grouporder-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

type stubBundleService struct {
	bundlesvc.Service

	recordOrderFn    func(ctx context.Context, input bundlesvc.RecordOrderInput) (*bundlesvc.OrderReceipt, error)
	recordDeliveryFn func(ctx context.Context, input bundlesvc.RecordDeliveryInput) (*bundlesvc.DeliveryReceipt, error)
	priceForGroupFn  func(ctx context.Context, bundleID, groupID uuid.UUID, useDelivered bool) (decimal.Decimal, error)
	priceForAllFn    func(ctx context.Context, bundleID uuid.UUID, useDelivered bool) (decimal.Decimal, error)
	unknownPriceFn   func(ctx context.Context, bundleID uuid.UUID, groupID *uuid.UUID, useDelivered bool) (bool, error)
}

func (s *stubBundleService) RecordOrder(ctx context.Context, input bundlesvc.RecordOrderInput) (*bundlesvc.OrderReceipt, error) {
	return s.recordOrderFn(ctx, input)
}

func (s *stubBundleService) RecordDelivery(ctx context.Context, input bundlesvc.RecordDeliveryInput) (*bundlesvc.DeliveryReceipt, error) {
	return s.recordDeliveryFn(ctx, input)
}

func (s *stubBundleService) PriceForGroup(ctx context.Context, bundleID, groupID uuid.UUID, useDelivered bool) (decimal.Decimal, error) {
	return s.priceForGroupFn(ctx, bundleID, groupID, useDelivered)
}

func (s *stubBundleService) PriceForAll(ctx context.Context, bundleID uuid.UUID, useDelivered bool) (decimal.Decimal, error) {
	return s.priceForAllFn(ctx, bundleID, useDelivered)
}

func (s *stubBundleService) HasUnknownPrice(ctx context.Context, bundleID uuid.UUID, groupID *uuid.UUID, useDelivered bool) (bool, error) {
	return s.unknownPriceFn(ctx, bundleID, groupID, useDelivered)
}

type stubSessionStore struct{}

func (stubSessionStore) Get(ctx context.Context, key string) (string, error) { return "", goredis.Nil }
func (stubSessionStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}
func (stubSessionStore) ActiveGroupKey(sessionID string) string { return "test:" + sessionID }

type stubGroupFinder struct{}

func (stubGroupFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	return nil, gorm.ErrRecordNotFound
}

func emptyResolver(t *testing.T) *activegroup.Resolver {
	t.Helper()
	r, err := activegroup.NewResolver(stubSessionStore{}, stubGroupFinder{}, config.SessionConfig{CookieName: "grouporder_session", TTLMinutes: 60})
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	return r
}

func bundleRequest(method, path, body string, bundleID uuid.UUID) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("bundleID", bundleID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestRecordOrderGroupFromBody(t *testing.T) {
	bundleID := uuid.New()
	groupID := uuid.New()
	productID := uuid.New()

	svc := &stubBundleService{
		recordOrderFn: func(ctx context.Context, input bundlesvc.RecordOrderInput) (*bundlesvc.OrderReceipt, error) {
			if input.GroupID != groupID || input.ProductID != productID || input.Amount != 3 {
				t.Fatalf("unexpected input: %+v", input)
			}
			return &bundlesvc.OrderReceipt{
				Order:         models.Order{ID: uuid.New(), Amount: 3},
				PriceForGroup: decimal.RequireFromString("4.59"),
			}, nil
		},
	}

	body := fmt.Sprintf(`{"group_id":%q,"product_id":%q,"amount":3}`, groupID, productID)
	req := bundleRequest(http.MethodPost, "/api/v1/bundles/"+bundleID.String()+"/orders", body, bundleID)
	rec := httptest.NewRecorder()
	RecordOrder(svc, emptyResolver(t), testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data recordOrderResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.PriceForGroup != "4.59" {
		t.Fatalf("expected price 4.59, got %s", envelope.Data.PriceForGroup)
	}
}

func TestRecordOrderNoGroupSelected(t *testing.T) {
	bundleID := uuid.New()
	svc := &stubBundleService{
		recordOrderFn: func(ctx context.Context, input bundlesvc.RecordOrderInput) (*bundlesvc.OrderReceipt, error) {
			t.Fatal("service must not be called without a group")
			return nil, nil
		},
	}

	body := fmt.Sprintf(`{"product_id":%q,"amount":1}`, uuid.New())
	req := bundleRequest(http.MethodPost, "/api/v1/bundles/"+bundleID.String()+"/orders", body, bundleID)
	rec := httptest.NewRecorder()
	RecordOrder(svc, emptyResolver(t), testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRecordOrderClosedBundle(t *testing.T) {
	bundleID := uuid.New()
	svc := &stubBundleService{
		recordOrderFn: func(ctx context.Context, input bundlesvc.RecordOrderInput) (*bundlesvc.OrderReceipt, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "bundle is closed")
		},
	}

	body := fmt.Sprintf(`{"group_id":%q,"product_id":%q,"amount":1}`, uuid.New(), uuid.New())
	req := bundleRequest(http.MethodPost, "/api/v1/bundles/"+bundleID.String()+"/orders", body, bundleID)
	rec := httptest.NewRecorder()
	RecordOrder(svc, emptyResolver(t), testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "bundle is closed") {
		t.Fatalf("expected closed-bundle message, got %s", rec.Body.String())
	}
}

func TestRecordOrderRejectsNegativeAmount(t *testing.T) {
	bundleID := uuid.New()
	svc := &stubBundleService{
		recordOrderFn: func(ctx context.Context, input bundlesvc.RecordOrderInput) (*bundlesvc.OrderReceipt, error) {
			t.Fatal("service must not be called for invalid payloads")
			return nil, nil
		},
	}

	body := fmt.Sprintf(`{"group_id":%q,"product_id":%q,"amount":-2}`, uuid.New(), uuid.New())
	req := bundleRequest(http.MethodPost, "/api/v1/bundles/"+bundleID.String()+"/orders", body, bundleID)
	rec := httptest.NewRecorder()
	RecordOrder(svc, emptyResolver(t), testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRecordDelivery(t *testing.T) {
	bundleID := uuid.New()
	groupID := uuid.New()
	productID := uuid.New()

	delivered := int64(4)
	svc := &stubBundleService{
		recordDeliveryFn: func(ctx context.Context, input bundlesvc.RecordDeliveryInput) (*bundlesvc.DeliveryReceipt, error) {
			if input.Delivered != 4 {
				t.Fatalf("unexpected delivered: %d", input.Delivered)
			}
			return &bundlesvc.DeliveryReceipt{
				Order:            models.Order{ID: uuid.New(), Delivered: &delivered},
				ProductDelivered: 4,
				PriceForGroup:    decimal.RequireFromString("6.12"),
				PriceForAll:      decimal.RequireFromString("10.71"),
			}, nil
		},
	}

	body := fmt.Sprintf(`{"group_id":%q,"product_id":%q,"delivered":4}`, groupID, productID)
	req := bundleRequest(http.MethodPost, "/api/v1/bundles/"+bundleID.String()+"/deliveries", body, bundleID)
	rec := httptest.NewRecorder()
	RecordDelivery(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data recordDeliveryResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ProductDelivered != 4 {
		t.Fatalf("expected product_delivered 4, got %d", envelope.Data.ProductDelivered)
	}
	if envelope.Data.PriceForAll != "10.71" {
		t.Fatalf("expected price_for_all 10.71, got %s", envelope.Data.PriceForAll)
	}
}

func TestRecordDeliveryRequiresGroup(t *testing.T) {
	bundleID := uuid.New()
	svc := &stubBundleService{
		recordDeliveryFn: func(ctx context.Context, input bundlesvc.RecordDeliveryInput) (*bundlesvc.DeliveryReceipt, error) {
			t.Fatal("service must not be called for invalid payloads")
			return nil, nil
		},
	}

	body := fmt.Sprintf(`{"product_id":%q,"delivered":4}`, uuid.New())
	req := bundleRequest(http.MethodPost, "/api/v1/bundles/"+bundleID.String()+"/deliveries", body, bundleID)
	rec := httptest.NewRecorder()
	RecordDelivery(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBundlePriceForGroup(t *testing.T) {
	bundleID := uuid.New()
	groupID := uuid.New()

	svc := &stubBundleService{
		priceForGroupFn: func(ctx context.Context, b, g uuid.UUID, useDelivered bool) (decimal.Decimal, error) {
			if g != groupID || !useDelivered {
				t.Fatalf("unexpected args: group=%s delivered=%v", g, useDelivered)
			}
			return decimal.RequireFromString("5.214"), nil
		},
		unknownPriceFn: func(ctx context.Context, b uuid.UUID, g *uuid.UUID, useDelivered bool) (bool, error) {
			return true, nil
		},
	}

	path := "/api/v1/bundles/" + bundleID.String() + "/price?group=" + groupID.String() + "&delivered=true"
	req := bundleRequest(http.MethodGet, path, "", bundleID)
	rec := httptest.NewRecorder()
	BundlePrice(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data bundlePriceResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Price != "5.21" {
		t.Fatalf("expected price 5.21, got %s", envelope.Data.Price)
	}
	if !envelope.Data.HasUnknownPrice {
		t.Fatal("expected unknown-price flag")
	}
}

func TestBundlePriceForAll(t *testing.T) {
	bundleID := uuid.New()

	svc := &stubBundleService{
		priceForAllFn: func(ctx context.Context, b uuid.UUID, useDelivered bool) (decimal.Decimal, error) {
			return decimal.RequireFromString("12.738"), nil
		},
		unknownPriceFn: func(ctx context.Context, b uuid.UUID, g *uuid.UUID, useDelivered bool) (bool, error) {
			if g != nil {
				t.Fatal("expected nil group filter")
			}
			return false, nil
		},
	}

	req := bundleRequest(http.MethodGet, "/api/v1/bundles/"+bundleID.String()+"/price", "", bundleID)
	rec := httptest.NewRecorder()
	BundlePrice(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "12.74") {
		t.Fatalf("expected rounded price 12.74, got %s", rec.Body.String())
	}
}

func TestBundlePriceInvalidQuery(t *testing.T) {
	bundleID := uuid.New()
	svc := &stubBundleService{}

	req := bundleRequest(http.MethodGet, "/api/v1/bundles/"+bundleID.String()+"/price?group=nope", "", bundleID)
	rec := httptest.NewRecorder()
	BundlePrice(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}
