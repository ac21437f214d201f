// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/alchemorsel/nutrilabel/internal/domain/label"
	"github.com/alchemorsel/nutrilabel/internal/domain/nutrition"
	"github.com/google/uuid"
)

// Common repository errors
var (
	ErrLabelNotFound = errors.New("label not found")
	ErrCacheMiss     = errors.New("cache miss")

	// ErrIngredientNotFound is terminal: retrying the same name will not help
	ErrIngredientNotFound = errors.New("ingredient not found")

	// ErrLookupRateLimited and ErrLookupUnavailable are transient
	ErrLookupRateLimited = errors.New("nutrient lookup rate limited")
	ErrLookupUnavailable = errors.New("nutrient lookup unavailable")
)

// NutrientLookup resolves an ingredient name to nutrient data. It is the only
// component of the label pipeline that talks to the outside world.
type NutrientLookup interface {
	Lookup(ctx context.Context, ingredient string) (nutrition.Resolution, error)
}

// LabelRepository defines the interface for label persistence
type LabelRepository interface {
	Save(ctx context.Context, l *label.Label) error
	FindByID(ctx context.Context, id uuid.UUID) (*label.Label, error)

	// FindByTitle returns the most recent label whose title has the given
	// recipe.Key. Saved labels are reused as sub-recipes this way.
	FindByTitle(ctx context.Context, key string) (*label.Label, error)
	List(ctx context.Context, offset, limit int) ([]*label.Label, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
