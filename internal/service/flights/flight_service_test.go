package flights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akarpov91/milesbook/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	args := m.Called(ctx, flight)
	return args.Error(0)
}

func (m *MockFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Reserve(ctx context.Context, tx pgx.Tx, flightID int64, seats int) (*domain.Flight, error) {
	args := m.Called(ctx, tx, flightID, seats)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Release(ctx context.Context, tx pgx.Tx, flightID int64, seats int) (*domain.Flight, error) {
	args := m.Called(ctx, tx, flightID, seats)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) ListArrivedScheduled(ctx context.Context, now time.Time) ([]domain.Flight, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) MarkCompleted(ctx context.Context, tx pgx.Tx, flightID int64) (bool, error) {
	args := m.Called(ctx, tx, flightID)
	return args.Bool(0), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	args := m.Called(ctx, flights)
	return args.Error(0)
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func validInput() CreateFlightInput {
	departure := time.Now().Add(48 * time.Hour)
	return CreateFlightInput{
		Code:          "TK100",
		FromAirport:   "IST",
		ToAirport:     "LHR",
		DepartureTime: departure,
		ArrivalTime:   departure.Add(4 * time.Hour),
		Price:         120,
		Capacity:      180,
	}
}

func TestFlightService_Create_Success(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache)

	ctx := context.Background()

	mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.Flight")).Return(nil).Once()
	mockCache.On("InvalidateFlights", ctx).Return(nil).Once()

	flight, err := service.Create(ctx, validInput())

	assert.NoError(t, err)
	assert.Equal(t, "TK100", flight.Code)
	assert.Equal(t, 0, flight.BookedSeats)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestFlightService_Create_Validation(t *testing.T) {
	service := NewFlightService(&MockFlightRepository{}, nil)
	ctx := context.Background()

	noCode := validInput()
	noCode.Code = ""

	badCapacity := validInput()
	badCapacity.Capacity = 0

	badTimes := validInput()
	badTimes.ArrivalTime = badTimes.DepartureTime.Add(-time.Hour)

	for _, input := range []CreateFlightInput{noCode, badCapacity, badTimes} {
		flight, err := service.Create(ctx, input)
		assert.Error(t, err)
		assert.Nil(t, flight)
	}
}

func TestFlightService_Create_CacheInvalidationFailureIgnored(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache)

	ctx := context.Background()

	mockRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
	mockCache.On("InvalidateFlights", ctx).Return(errors.New("redis down")).Once()

	flight, err := service.Create(ctx, validInput())

	assert.NoError(t, err)
	assert.NotNil(t, flight)
}

func TestFlightService_List_CacheHit(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache)

	ctx := context.Background()
	cached := []domain.Flight{{ID: 1, Code: "TK100"}}

	mockCache.On("GetFlights", ctx).Return(cached, nil).Once()

	flights, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, cached, flights)
	mockRepo.AssertNotCalled(t, "List")
}

func TestFlightService_List_CacheMissFillsCache(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache)

	ctx := context.Background()
	stored := []domain.Flight{{ID: 1, Code: "TK100"}, {ID: 2, Code: "TK200"}}

	mockCache.On("GetFlights", ctx).Return(nil, errors.New("cache miss")).Once()
	mockRepo.On("List", ctx).Return(stored, nil).Once()
	mockCache.On("SetFlights", ctx, stored).Return(nil).Once()

	flights, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, stored, flights)
	mockCache.AssertExpectations(t)
}

func TestFlightService_List_NoCache(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil)

	ctx := context.Background()
	stored := []domain.Flight{{ID: 1, Code: "TK100"}}

	mockRepo.On("List", ctx).Return(stored, nil).Once()

	flights, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, stored, flights)
}

func TestFlightService_GetByID_NotFound(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil)

	ctx := context.Background()
	mockRepo.On("GetByID", ctx, int64(42)).Return(nil, domain.ErrFlightNotFound).Once()

	flight, err := service.GetByID(ctx, 42)

	assert.ErrorIs(t, err, domain.ErrFlightNotFound)
	assert.Nil(t, flight)
}
