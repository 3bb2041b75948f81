package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/subscriptions/internal/adapter/http/handler"
	apimiddleware "github.com/iho/subscriptions/internal/adapter/http/middleware"
	"github.com/iho/subscriptions/internal/domain"
	"github.com/iho/subscriptions/internal/infrastructure/auth"
	"github.com/iho/subscriptions/internal/usecase"
	"github.com/iho/subscriptions/internal/usecase/mocks"
)

func newRouterConfig(t *testing.T, opts ...func(*RouterConfig)) RouterConfig {
	t.Helper()

	planRepo := mocks.NewMockPlanRepository()
	if err := planRepo.Insert(context.Background(), &domain.SubscriptionPlan{
		ID:             "plan-1",
		AccountID:      "1",
		DurationTypeID: "2",
		Name:           "Monthly",
		Amount:         decimal.NewFromInt(10),
		Currency:       "USD",
		Active:         true,
	}); err != nil {
		t.Fatalf("failed to seed plan: %v", err)
	}

	durations := mocks.NewMockDurationTypeRepository()
	durations.Add(&domain.DurationType{ID: "2", Name: "MONTHLY", Days: 30})

	accounts := mocks.NewMockAccountRepository()
	accounts.Add(&domain.SubscriptionAccount{ID: "1", Name: "Streaming"})

	logger := zerolog.Nop()
	ledgerUC := usecase.NewLedgerUseCase(mocks.NewMockLedgerRepository(), mocks.NewMockEventProducer(), mocks.NewMockBusinessMetrics(), logger)
	planUC := usecase.NewPlanUseCase(planRepo, mocks.NewMockCache(), time.Minute, mocks.NewMockIDGenerator(), logger)
	subscriptionUC := usecase.NewSubscriptionUseCase(
		mocks.NewMockIdempotencyGuard(), ledgerUC, planUC,
		mocks.NewMockSubscriptionRepository(), durations, mocks.NewMockRuleRepository(),
		mocks.NewMockPaymentProcessor(), mocks.NewMockIDGenerator(), 10*time.Second, logger,
	)

	catalogUC := usecase.NewCatalogUseCase(accounts, durations, mocks.NewMockRuleRepository())

	cfg := RouterConfig{
		SubscriptionHandler: handler.NewSubscriptionHandler(subscriptionUC, ledgerUC),
		PlanHandler:         handler.NewPlanHandler(planUC),
		CatalogHandler:      handler.NewCatalogHandler(catalogUC),
		HealthHandler:       handler.NewHealthHandler(nil, nil),
		JWTManager:          auth.NewJWTManager("test-secret", time.Hour),
		Logger:              logger,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(t, func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_HeaderIdentityFlow(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	// No identity: the handler rejects the write.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/", strings.NewReader(`{"plan_id":"plan-1","request_id":"req-1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rec.Code)
	}

	// Identity headers accepted when token auth is disabled.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/", strings.NewReader(`{"plan_id":"plan-1","request_id":"req-1"}`))
	req.Header.Set("X-User-ID", "100")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 with identity headers, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_JWTRequired(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	router := NewRouter(newRouterConfig(t, func(cfg *RouterConfig) {
		cfg.AuthEnabled = true
		cfg.JWTManager = jwtManager
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	token, err := jwtManager.Generate("100", apimiddleware.RoleUser, "")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", rec.Code)
	}
}

func TestNewRouter_PlanWritesRequireAdmin(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	body := `{"account_id":"1","duration_type_id":"2","name":"Monthly","amount":"9.99","currency":"EUR"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/plans/", strings.NewReader(body))
	req.Header.Set("X-User-ID", "100")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/plans/", strings.NewReader(body))
	req.Header.Set("X-User-ID", "100")
	req.Header.Set("X-User-Role", apimiddleware.RoleAdmin)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for admin, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/subscriptions/",
		"GET /api/v1/subscriptions/",
		"POST /api/v1/subscriptions/{id}/extend",
		"GET /api/v1/entries/{id}",
		"GET /api/v1/accounts",
		"GET /api/v1/duration-types",
		"GET /api/v1/rules",
		"GET /api/v1/accounts/{id}/plans",
		"GET /api/v1/plans/{id}",
		"POST /api/v1/plans/",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}
