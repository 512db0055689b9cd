package recipes

import (
	"time"

	"github.com/google/uuid"
)

type Tag struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex:idx_tag_name;size:200" json:"name"`
	Slug      string    `gorm:"not null;uniqueIndex:idx_tag_slug;size:50" json:"slug"`
	Color     string    `gorm:"column:color;size:7" json:"color,omitempty"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"-"`
}

func (Tag) TableName() string { return "tag" }
