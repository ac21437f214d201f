// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/alchemorsel/nutrilabel/internal/domain/label"
	"github.com/alchemorsel/nutrilabel/internal/domain/nutrition"
	"github.com/alchemorsel/nutrilabel/internal/domain/recipe"
	"github.com/alchemorsel/nutrilabel/internal/ports/outbound"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockNutrientLookup provides a mock implementation of NutrientLookup
type MockNutrientLookup struct {
	mock.Mock
}

// NewMockNutrientLookup creates a new mock nutrient lookup
func NewMockNutrientLookup() *MockNutrientLookup {
	return &MockNutrientLookup{}
}

// Lookup resolves an ingredient
func (m *MockNutrientLookup) Lookup(ctx context.Context, ingredient string) (nutrition.Resolution, error) {
	args := m.Called(ctx, ingredient)
	return args.Get(0).(nutrition.Resolution), args.Error(1)
}

// Resolves registers a successful lookup
func (m *MockNutrientLookup) Resolves(ingredient string, res nutrition.Resolution) *mock.Call {
	return m.On("Lookup", mock.Anything, ingredient).Return(res, nil)
}

// Fails registers a failing lookup
func (m *MockNutrientLookup) Fails(ingredient string, err error) *mock.Call {
	return m.On("Lookup", mock.Anything, ingredient).Return(nutrition.Resolution{}, err)
}

// MockLabelRepository provides a mock implementation of LabelRepository.
// Saved labels are kept so that later finds return them.
type MockLabelRepository struct {
	mock.Mock
	labels map[uuid.UUID]*label.Label
	mu     sync.RWMutex
}

// NewMockLabelRepository creates a new mock label repository
func NewMockLabelRepository() *MockLabelRepository {
	return &MockLabelRepository{
		labels: make(map[uuid.UUID]*label.Label),
	}
}

// Save saves a label
func (m *MockLabelRepository) Save(ctx context.Context, l *label.Label) error {
	args := m.Called(ctx, l)

	if args.Error(0) == nil {
		m.mu.Lock()
		m.labels[l.ID] = l
		m.mu.Unlock()
	}

	return args.Error(0)
}

// FindByID finds a label by ID
func (m *MockLabelRepository) FindByID(ctx context.Context, id uuid.UUID) (*label.Label, error) {
	args := m.Called(ctx, id)

	if args.Error(1) != nil {
		return nil, args.Error(1)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if l, exists := m.labels[id]; exists {
		return l, nil
	}

	return args.Get(0).(*label.Label), args.Error(1)
}

// FindByTitle finds a label by title key
func (m *MockLabelRepository) FindByTitle(ctx context.Context, key string) (*label.Label, error) {
	args := m.Called(ctx, key)

	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*label.Label), args.Error(1)
}

// List lists labels
func (m *MockLabelRepository) List(ctx context.Context, offset, limit int) ([]*label.Label, int, error) {
	args := m.Called(ctx, offset, limit)
	return args.Get(0).([]*label.Label), args.Int(1), args.Error(2)
}

// Delete deletes a label
func (m *MockLabelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)

	if args.Error(0) == nil {
		m.mu.Lock()
		delete(m.labels, id)
		m.mu.Unlock()
	}

	return args.Error(0)
}

// Stored returns a saved label
func (m *MockLabelRepository) Stored(id uuid.UUID) (*label.Label, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.labels[id]
	return l, ok
}

// SetupStandardMockBehavior sets up common mock behaviors
func (m *MockLabelRepository) SetupStandardMockBehavior() {
	// Save always succeeds
	m.On("Save", mock.Anything, mock.AnythingOfType("*label.Label")).
		Return(nil)

	// Nothing is saved under a title by default
	m.On("FindByTitle", mock.Anything, mock.AnythingOfType("string")).
		Return((*label.Label)(nil), outbound.ErrLabelNotFound)

	m.On("List", mock.Anything, mock.AnythingOfType("int"), mock.AnythingOfType("int")).
		Return([]*label.Label{}, 0, nil)

	m.On("Delete", mock.Anything, mock.AnythingOfType("uuid.UUID")).
		Return(nil)
}

// MockCacheRepository provides a mock implementation of CacheRepository
type MockCacheRepository struct {
	mock.Mock
	cache map[string][]byte
	mu    sync.RWMutex
}

// NewMockCacheRepository creates a new mock cache repository
func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[string][]byte),
	}
}

// Get gets a value from cache
func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)

	if args.Error(1) != nil {
		return nil, args.Error(1)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if value, exists := m.cache[key]; exists {
		return value, nil
	}

	if args.Get(0) == nil {
		return nil, outbound.ErrCacheMiss
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Set sets a value in cache
func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)

	if args.Error(0) == nil {
		m.mu.Lock()
		m.cache[key] = value
		m.mu.Unlock()
	}

	return args.Error(0)
}

// Delete deletes a value from cache
func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)

	if args.Error(0) == nil {
		m.mu.Lock()
		delete(m.cache, key)
		m.mu.Unlock()
	}

	return args.Error(0)
}

// Exists checks if a key exists in cache
func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// NewSavedLabel builds a stored label for a dish, as if it had been finalized
// earlier
func NewSavedLabel(title string, dish nutrition.AggregatedDish) *label.Label {
	dish.Title = title
	return &label.Label{
		ID:        uuid.New(),
		Recipe:    recipe.ParsedRecipe{Title: title},
		Dish:      dish,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}
