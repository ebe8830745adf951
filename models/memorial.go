package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Memorial is the central aggregate: one deceased person's page with its
// embedded JSON collections and service details.
type Memorial struct {
	ID           string         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       *string        `gorm:"type:uuid;index" json:"userId,omitempty"`
	User         *User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	ProfileImage string         `json:"profileImage"`
	BirthDate    string         `json:"birthDate"`
	DeathDate    string         `json:"deathDate"`
	Location     string         `json:"location"`
	Obituary     string         `json:"obituary"`
	Timeline     TimelineEvents `gorm:"type:json" json:"timeline"`
	Favorites    Favorites      `gorm:"type:json" json:"favorites"`
	FamilyTree   FamilyMembers  `gorm:"type:json" json:"familyTree"`
	Gallery      GalleryImages  `gorm:"type:json" json:"gallery"`
	ServiceInfo  ServiceInfo    `gorm:"type:json" json:"serviceInfo"`
	MemoryWall   Tributes       `gorm:"type:json" json:"memoryWall"`
	IsPublished  bool           `gorm:"not null;default:false" json:"isPublished"`
	CustomURL    *string        `gorm:"uniqueIndex" json:"customUrl,omitempty"`
	Theme        string         `gorm:"not null;default:default" json:"theme"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (Memorial) TableName() string {
	return "memorials"
}

func (m *Memorial) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Theme == "" {
		m.Theme = "default"
	}
	return nil
}

// CustomURLValue returns the slug or "" when unset.
func (m *Memorial) CustomURLValue() string {
	if m.CustomURL == nil {
		return ""
	}
	return *m.CustomURL
}
