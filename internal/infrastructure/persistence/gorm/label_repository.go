// Package gorm provides GORM-based repository implementations
package gorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/alchemorsel/nutrilabel/internal/domain/label"
	"github.com/alchemorsel/nutrilabel/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LabelRepository implements the label repository interface using GORM
type LabelRepository struct {
	db *gorm.DB
}

// NewLabelRepository creates a new label repository
func NewLabelRepository(db *gorm.DB) *LabelRepository {
	return &LabelRepository{db: db}
}

// Save creates a label or replaces a stored one with the same ID
func (r *LabelRepository) Save(ctx context.Context, l *label.Label) error {
	model, err := LabelToModel(l)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return result.Error
	}

	return nil
}

// FindByID finds a label by ID
func (r *LabelRepository) FindByID(ctx context.Context, id uuid.UUID) (*label.Label, error) {
	var model LabelModel

	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrLabelNotFound
		}
		return nil, result.Error
	}

	return ModelToLabel(&model)
}

// FindByTitle finds the most recent label with the given title key
func (r *LabelRepository) FindByTitle(ctx context.Context, key string) (*label.Label, error) {
	var model LabelModel

	result := r.db.WithContext(ctx).
		Where("title_key = ?", key).
		Order("created_at DESC").
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrLabelNotFound
		}
		return nil, result.Error
	}

	return ModelToLabel(&model)
}

// List returns a page of labels, newest first, and the total count
func (r *LabelRepository) List(ctx context.Context, offset, limit int) ([]*label.Label, int, error) {
	var models []LabelModel
	var total int64

	// Count total
	countResult := r.db.WithContext(ctx).Model(&LabelModel{}).Count(&total)
	if countResult.Error != nil {
		return nil, 0, countResult.Error
	}

	result := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	labels := make([]*label.Label, len(models))
	for i := range models {
		l, err := ModelToLabel(&models[i])
		if err != nil {
			return nil, 0, err
		}
		labels[i] = l
	}

	return labels, int(total), nil
}

// Delete deletes a label by ID (soft delete)
func (r *LabelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&LabelModel{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete label: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return outbound.ErrLabelNotFound
	}

	return nil
}

// AutoMigrate creates or updates the label schema
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&LabelModel{})
}
