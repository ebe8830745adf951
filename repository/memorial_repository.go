package repository

import (
	"fmt"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/facette/natsort"
	"gorm.io/gorm"

	"github.com/wings-of-memory/memorialbackend/models"
)

// memorialIdentifierPrefix is prepended by some frontend share links and
// stripped before resolution.
const memorialIdentifierPrefix = "memorial-"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// MemorialRepository handles database operations for Memorial entities
type MemorialRepository struct {
	DB *gorm.DB
}

// NewMemorialRepository creates a new instance of MemorialRepository
func NewMemorialRepository(db *gorm.DB) *MemorialRepository {
	return &MemorialRepository{DB: db}
}

// Create creates a new memorial record in the database
func (r *MemorialRepository) Create(memorial *models.Memorial) error {
	err := r.DB.Create(memorial).Error
	if err != nil {
		return fmt.Errorf("failed to create memorial %s: %w", memorial.Name, err)
	}
	return nil
}

// GetByID retrieves a memorial by its ID
func (r *MemorialRepository) GetByID(id string) (*models.Memorial, error) {
	var memorial models.Memorial
	err := r.DB.First(&memorial, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get memorial by ID %s: %w", id, err)
	}
	return &memorial, nil
}

// GetByCustomURL retrieves a memorial by its owner-chosen vanity URL
func (r *MemorialRepository) GetByCustomURL(slug string) (*models.Memorial, error) {
	var memorial models.Memorial
	err := r.DB.First(&memorial, "custom_url = ?", slug).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get memorial by custom URL %s: %w", slug, err)
	}
	return &memorial, nil
}

// CleanIdentifier strips the share-link prefix from a route identifier.
func CleanIdentifier(identifier string) string {
	return strings.TrimPrefix(identifier, memorialIdentifierPrefix)
}

// GetByIdentifier resolves a route parameter that may be a memorial ID or
// a custom URL. ID lookup always runs first so a slug can never shadow
// another memorial's ID.
func (r *MemorialRepository) GetByIdentifier(identifier string) (*models.Memorial, error) {
	identifier = CleanIdentifier(identifier)

	memorial, err := r.GetByID(identifier)
	if err == nil {
		return memorial, nil
	}
	if err != gorm.ErrRecordNotFound {
		// a malformed ID is "try next strategy", not a fault; only
		// genuine storage errors stop the fallback
		return nil, err
	}

	return r.GetByCustomURL(identifier)
}

// ListByUser retrieves a user's memorials, newest first
func (r *MemorialRepository) ListByUser(userID string) ([]models.Memorial, error) {
	var memorials []models.Memorial
	err := r.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&memorials).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list memorials for user %s: %w", userID, err)
	}
	return memorials, nil
}

// ListPublished retrieves published memorials matching the search filter,
// sorted per opts, returning the requested page and the total match
// count. The filtered set is fetched in full and paginated in memory,
// matching how small this listing is expected to stay.
func (r *MemorialRepository) ListPublished(opts PublicListOptions) ([]models.Memorial, int, error) {
	queryBuilder := psql.Select("*").
		From("memorials").
		Where(sq.Eq{"is_published": true})

	if opts.Search != "" {
		like := "%" + strings.ToLower(opts.Search) + "%"
		queryBuilder = queryBuilder.Where(sq.Or{
			sq.Like{"lower(name)": like},
			sq.Like{"lower(location)": like},
			sq.Like{"lower(obituary)": like},
		})
	}

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build SQL for ListPublished: %w", err)
	}

	var memorials []models.Memorial
	if err := r.DB.Raw(sqlStr, args...).Scan(&memorials).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list published memorials: %w", err)
	}

	switch opts.SortBy {
	case "oldest":
		sort.SliceStable(memorials, func(i, j int) bool {
			return memorials[i].CreatedAt.Before(memorials[j].CreatedAt)
		})
	case "name":
		sort.SliceStable(memorials, func(i, j int) bool {
			return natsort.Compare(memorials[i].Name, memorials[j].Name)
		})
	default: // recent
		sort.SliceStable(memorials, func(i, j int) bool {
			return memorials[i].CreatedAt.After(memorials[j].CreatedAt)
		})
	}

	total := len(memorials)
	if opts.Offset >= total {
		return []models.Memorial{}, total, nil
	}
	end := opts.Offset + opts.Limit
	if end > total {
		end = total
	}
	return memorials[opts.Offset:end], total, nil
}

// UpdateFields applies a partial update: only the given columns are
// touched, everything else keeps its prior value.
func (r *MemorialRepository) UpdateFields(id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	err := r.DB.Model(&models.Memorial{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to update memorial %s: %w", id, err)
	}
	return nil
}

// UpdateMemoryWall persists the whole memory-wall array back to the row.
// There is no concurrency token on the row; two concurrent tribute writes
// race and the second overwrite wins.
func (r *MemorialRepository) UpdateMemoryWall(id string, wall models.Tributes) error {
	err := r.DB.Model(&models.Memorial{}).Where("id = ?", id).Updates(map[string]interface{}{
		"memory_wall": wall,
		"updated_at":  time.Now(),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update memory wall for memorial %s: %w", id, err)
	}
	return nil
}

// SetPublished marks a memorial as publicly visible
func (r *MemorialRepository) SetPublished(id string) error {
	err := r.DB.Model(&models.Memorial{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_published": true,
		"updated_at":   time.Now(),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to publish memorial %s: %w", id, err)
	}
	return nil
}

// Delete removes a memorial and its memories in one transaction
func (r *MemorialRepository) Delete(id string) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("memorial_id = ?", id).Delete(&models.Memory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Memorial{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete memorial %s: %w", id, err)
	}
	return nil
}
