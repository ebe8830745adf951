package repository

import (
	"github.com/wings-of-memory/memorialbackend/models"
)

// PublicListOptions filters and paginates the public memorial listing.
type PublicListOptions struct {
	Search string
	SortBy string // "recent" (default), "oldest", "name"
	Limit  int
	Offset int
}

// MemorialRepositoryInterface defines the methods for memorial data operations
type MemorialRepositoryInterface interface {
	Create(memorial *models.Memorial) error
	GetByID(id string) (*models.Memorial, error)
	GetByCustomURL(slug string) (*models.Memorial, error)
	GetByIdentifier(identifier string) (*models.Memorial, error)
	ListByUser(userID string) ([]models.Memorial, error)
	ListPublished(opts PublicListOptions) ([]models.Memorial, int, error)
	UpdateFields(id string, updates map[string]interface{}) error
	UpdateMemoryWall(id string, wall models.Tributes) error
	SetPublished(id string) error
	Delete(id string) error
}

// MemoryRepositoryInterface defines the methods for memory data operations
type MemoryRepositoryInterface interface {
	ListByMemorial(memorialID string) ([]models.Memory, error)
}

// UserRepositoryInterface defines the methods for user data operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	GetByID(id string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
}

// RSVPRepositoryInterface defines the methods for RSVP data operations
type RSVPRepositoryInterface interface {
	Create(rsvp *models.RSVP) error
	GetByID(id string) (*models.RSVP, error)
	ListByMemorial(memorialID string) ([]models.RSVP, error)
	Delete(id string) error
}
