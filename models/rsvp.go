package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AttendingInPerson = "in_person"
	AttendingVirtual  = "virtual"
)

// RSVP records a visitor's attendance reply for a memorial service.
type RSVP struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	MemorialID string    `gorm:"type:uuid;not null;index" json:"memorialId"`
	FirstName  string    `gorm:"not null" json:"firstName"`
	LastName   string    `gorm:"not null" json:"lastName"`
	Email      *string   `json:"email,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	Attending  string    `gorm:"not null" json:"attending"`
	Guests     GuestList `gorm:"type:json" json:"guests"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (RSVP) TableName() string {
	return "rsvps"
}

func (r *RSVP) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
