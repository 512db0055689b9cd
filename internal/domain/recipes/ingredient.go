package recipes

import (
	"time"

	"github.com/google/uuid"
)

// Ingredient is catalog reference data. Names are unique as stored (case-sensitive).
type Ingredient struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string    `gorm:"not null;uniqueIndex:idx_ingredient_name;size:200" json:"name"`
	MeasurementUnit string    `gorm:"not null;column:measurement_unit;size:200" json:"measurement_unit"`
	CreatedAt       time.Time `gorm:"not null;autoCreateTime" json:"-"`
}

func (Ingredient) TableName() string { return "ingredient" }
