package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Memory is a first-class note row attached to a memorial, distinct from
// the JSON-embedded memory-wall tributes. Memories are deleted together
// with their parent memorial.
type Memory struct {
	ID         string     `gorm:"type:uuid;primaryKey" json:"id"`
	MemorialID string     `gorm:"type:uuid;not null;index" json:"memorialId"`
	UserID     *string    `gorm:"type:uuid" json:"userId,omitempty"`
	Text       string     `gorm:"not null" json:"text"`
	Author     string     `gorm:"not null" json:"author"`
	Images     StringList `gorm:"type:json" json:"images"`
	Date       time.Time  `json:"date"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (Memory) TableName() string {
	return "memories"
}

func (m *Memory) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Date.IsZero() {
		m.Date = time.Now()
	}
	return nil
}
