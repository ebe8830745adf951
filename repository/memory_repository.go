package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/wings-of-memory/memorialbackend/models"
)

// MemoryRepository handles database operations for Memory entities
type MemoryRepository struct {
	DB *gorm.DB
}

// NewMemoryRepository creates a new instance of MemoryRepository
func NewMemoryRepository(db *gorm.DB) *MemoryRepository {
	return &MemoryRepository{DB: db}
}

// ListByMemorial retrieves the memory rows attached to a memorial.
// Reading is the only operation exposed: cleanup happens inside the
// memorial delete transaction.
func (r *MemoryRepository) ListByMemorial(memorialID string) ([]models.Memory, error) {
	var memories []models.Memory
	err := r.DB.Where("memorial_id = ?", memorialID).Order("date ASC").Find(&memories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list memories for memorial %s: %w", memorialID, err)
	}
	return memories, nil
}
