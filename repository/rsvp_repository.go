package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/wings-of-memory/memorialbackend/models"
)

// RSVPRepository handles database operations for RSVP entities
type RSVPRepository struct {
	DB *gorm.DB
}

// NewRSVPRepository creates a new instance of RSVPRepository
func NewRSVPRepository(db *gorm.DB) *RSVPRepository {
	return &RSVPRepository{DB: db}
}

func (r *RSVPRepository) Create(rsvp *models.RSVP) error {
	err := r.DB.Create(rsvp).Error
	if err != nil {
		return fmt.Errorf("failed to create RSVP for memorial %s: %w", rsvp.MemorialID, err)
	}
	return nil
}

func (r *RSVPRepository) GetByID(id string) (*models.RSVP, error) {
	var rsvp models.RSVP
	err := r.DB.First(&rsvp, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get RSVP by ID %s: %w", id, err)
	}
	return &rsvp, nil
}

func (r *RSVPRepository) ListByMemorial(memorialID string) ([]models.RSVP, error) {
	var rsvps []models.RSVP
	err := r.DB.Where("memorial_id = ?", memorialID).Order("created_at DESC").Find(&rsvps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list RSVPs for memorial %s: %w", memorialID, err)
	}
	return rsvps, nil
}

func (r *RSVPRepository) Delete(id string) error {
	err := r.DB.Delete(&models.RSVP{}, "id = ?", id).Error
	if err != nil {
		return fmt.Errorf("failed to delete RSVP %s: %w", id, err)
	}
	return nil
}
