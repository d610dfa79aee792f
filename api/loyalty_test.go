package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akarpov91/milesbook/internal/domain"
	"github.com/akarpov91/milesbook/internal/identity"
	"github.com/akarpov91/milesbook/internal/service/loyalty"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockLoyaltyUseCase struct {
	mock.Mock
}

func (m *MockLoyaltyUseCase) GetOrCreateAccount(ctx context.Context, userID string) (*domain.LoyaltyAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoyaltyAccount), args.Error(1)
}

func (m *MockLoyaltyUseCase) Earn(ctx context.Context, userID string, amount int, reason, refID string) (*domain.LoyaltyAccount, error) {
	args := m.Called(ctx, userID, amount, reason, refID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoyaltyAccount), args.Error(1)
}

func (m *MockLoyaltyUseCase) Burn(ctx context.Context, userID string, amount int, reason, refID string) (*domain.LoyaltyAccount, error) {
	args := m.Called(ctx, userID, amount, reason, refID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoyaltyAccount), args.Error(1)
}

func (m *MockLoyaltyUseCase) Bonus(ctx context.Context, userID string, amount int, reason string) (*domain.LoyaltyAccount, error) {
	args := m.Called(ctx, userID, amount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoyaltyAccount), args.Error(1)
}

func (m *MockLoyaltyUseCase) ListTransactions(ctx context.Context, userID string) ([]domain.LoyaltyTransaction, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.LoyaltyTransaction), args.Error(1)
}

func loyaltyRouter(service loyalty.LoyaltyUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(identity.Middleware(identity.User{ID: "dev-user", Email: "dev@example.com"}))
	NewLoyaltyHandler(service).Register(router.Group("/loyalty"))
	return router
}

func TestLoyaltyHandler_Account(t *testing.T) {
	mockService := &MockLoyaltyUseCase{}
	router := loyaltyRouter(mockService)

	account := &domain.LoyaltyAccount{ID: 1, UserID: "user-1", MemberNumber: "ML000001", Balance: 500, Tier: domain.TierBase}
	mockService.On("GetOrCreateAccount", mock.Anything, "user-1").Return(account, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/loyalty/account", nil)
	req.Header.Set(identity.HeaderUserID, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got domain.LoyaltyAccount
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "ML000001", got.MemberNumber)
}

func TestLoyaltyHandler_Bonus(t *testing.T) {
	mockService := &MockLoyaltyUseCase{}
	router := loyaltyRouter(mockService)

	account := &domain.LoyaltyAccount{ID: 1, UserID: "user-9", Balance: 1500, Tier: domain.TierBase}
	mockService.On("Bonus", mock.Anything, "user-9", 1500, "Partner promotion").Return(account, nil).Once()

	body := `{"user_id": "user-9", "amount": 1500, "reason": "Partner promotion"}`
	req := httptest.NewRequest(http.MethodPost, "/loyalty/bonus", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestLoyaltyHandler_Bonus_DefaultsToRequestIdentity(t *testing.T) {
	mockService := &MockLoyaltyUseCase{}
	router := loyaltyRouter(mockService)

	account := &domain.LoyaltyAccount{ID: 1, UserID: "user-3", Balance: 100}
	mockService.On("Bonus", mock.Anything, "user-3", 100, "Welcome").Return(account, nil).Once()

	body := `{"amount": 100, "reason": "Welcome"}`
	req := httptest.NewRequest(http.MethodPost, "/loyalty/bonus", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(identity.HeaderUserID, "user-3")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestLoyaltyHandler_Burn_InsufficientBalance(t *testing.T) {
	mockService := &MockLoyaltyUseCase{}
	router := loyaltyRouter(mockService)

	mockService.On("Burn", mock.Anything, "user-1", 5000, "Upgrade", "").
		Return(nil, domain.ErrInsufficientBalance).Once()

	body := `{"user_id": "user-1", "amount": 5000, "reason": "Upgrade"}`
	req := httptest.NewRequest(http.MethodPost, "/loyalty/burn", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestLoyaltyHandler_Transactions(t *testing.T) {
	mockService := &MockLoyaltyUseCase{}
	router := loyaltyRouter(mockService)

	mockService.On("ListTransactions", mock.Anything, "user-1").Return([]domain.LoyaltyTransaction{
		{ID: 1, Amount: 100, Type: domain.TransactionTypeEarn},
		{ID: 2, Amount: -40, Type: domain.TransactionTypeBurn},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/loyalty/transactions", nil)
	req.Header.Set(identity.HeaderUserID, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got []domain.LoyaltyTransaction
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}
