// Package gorm provides GORM model definitions for the application
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LabelModel represents the GORM model for labels. The parsed recipe and the
// aggregated dish are stored as JSON documents; the scalar columns are kept
// for listing and lookups by title.
type LabelModel struct {
	ID       uuid.UUID `gorm:"type:char(36);primaryKey"`
	Title    string    `gorm:"type:varchar(255);not null"`
	TitleKey string    `gorm:"type:varchar(255);not null;index"`

	Recipe JSONDocument `gorm:"type:json;not null"`
	Dish   JSONDocument `gorm:"type:json;not null"`

	ServingSizeGrams float64 `gorm:"not null"`
	TotalWeightGrams float64 `gorm:"not null"`
	IngredientCount  int     `gorm:"default:0"`
	WarningCount     int     `gorm:"default:0"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// JSONDocument holds a raw JSON value
type JSONDocument []byte

// Scan implements the sql.Scanner interface
func (j *JSONDocument) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[:0], v...)
		return nil
	case string:
		*j = JSONDocument(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into JSONDocument", value)
	}
}

// Value implements the driver.Valuer interface
func (j JSONDocument) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "null", nil
	}
	if !json.Valid(j) {
		return nil, fmt.Errorf("invalid JSON document")
	}
	return string(j), nil
}

// BeforeCreate hook for LabelModel
func (l *LabelModel) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TableName returns the label table name
func (LabelModel) TableName() string {
	return "labels"
}
