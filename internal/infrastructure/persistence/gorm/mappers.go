// Package gorm provides mapping between domain entities and GORM models
package gorm

import (
	"encoding/json"
	"fmt"

	"github.com/alchemorsel/nutrilabel/internal/domain/label"
)

// LabelToModel converts a domain label to a GORM model
func LabelToModel(l *label.Label) (*LabelModel, error) {
	recipeDoc, err := json.Marshal(l.Recipe)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recipe: %w", err)
	}

	dishDoc, err := json.Marshal(l.Dish)
	if err != nil {
		return nil, fmt.Errorf("failed to encode dish: %w", err)
	}

	return &LabelModel{
		ID:               l.ID,
		Title:            l.Title(),
		TitleKey:         l.Key(),
		Recipe:           recipeDoc,
		Dish:             dishDoc,
		ServingSizeGrams: l.Dish.ServingSizeGrams,
		TotalWeightGrams: l.Dish.TotalWeightGrams,
		IngredientCount:  len(l.Recipe.LeafIngredients()),
		WarningCount:     len(l.Dish.Warnings),
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}, nil
}

// ModelToLabel converts a GORM model to a domain label
func ModelToLabel(m *LabelModel) (*label.Label, error) {
	l := &label.Label{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}

	if err := json.Unmarshal(m.Recipe, &l.Recipe); err != nil {
		return nil, fmt.Errorf("failed to decode recipe of label %s: %w", m.ID, err)
	}
	if err := json.Unmarshal(m.Dish, &l.Dish); err != nil {
		return nil, fmt.Errorf("failed to decode dish of label %s: %w", m.ID, err)
	}

	return l, nil
}
