package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wings-of-memory/memorialbackend/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Memorial{}, &models.Memory{}, &models.RSVP{}))
	return db
}

func seedMemorial(t *testing.T, repo *MemorialRepository, m *models.Memorial) *models.Memorial {
	t.Helper()
	require.NoError(t, repo.Create(m))
	return m
}

func TestCleanIdentifier(t *testing.T) {
	assert.Equal(t, "abc", CleanIdentifier("memorial-abc"))
	assert.Equal(t, "abc", CleanIdentifier("abc"))
	// stripping is single-layer and idempotent on the result
	assert.Equal(t, "abc", CleanIdentifier(CleanIdentifier("memorial-abc")))
}

func TestGetByIdentifierPrefersID(t *testing.T) {
	repo := NewMemorialRepository(setupTestDB(t))

	first := seedMemorial(t, repo, &models.Memorial{Name: "First"})
	// a second memorial whose slug equals the first one's id
	slug := first.ID
	second := seedMemorial(t, repo, &models.Memorial{Name: "Second", CustomURL: &slug})

	got, err := repo.GetByIdentifier(first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID, "id match must win over a shadowing slug")

	bySlug := "second-slug"
	require.NoError(t, repo.UpdateFields(second.ID, map[string]interface{}{"custom_url": bySlug}))
	got, err = repo.GetByIdentifier("second-slug")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestGetByIdentifierStripsPrefix(t *testing.T) {
	repo := NewMemorialRepository(setupTestDB(t))
	m := seedMemorial(t, repo, &models.Memorial{Name: "Rose"})

	got, err := repo.GetByIdentifier("memorial-" + m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
}

func TestGetByIdentifierNotFound(t *testing.T) {
	repo := NewMemorialRepository(setupTestDB(t))
	_, err := repo.GetByIdentifier("nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListPublishedFiltersAndSearch(t *testing.T) {
	repo := NewMemorialRepository(setupTestDB(t))

	seedMemorial(t, repo, &models.Memorial{Name: "Rose Carter", Location: "Austin", IsPublished: true})
	seedMemorial(t, repo, &models.Memorial{Name: "Iris Bloom", Obituary: "a gardener from Austin", IsPublished: true})
	seedMemorial(t, repo, &models.Memorial{Name: "Hidden Draft", Location: "Austin"})

	all, total, err := repo.ListPublished(PublicListOptions{Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)

	matches, total, err := repo.ListPublished(PublicListOptions{Search: "austin", Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 2, total, "search spans name, location and obituary")

	matches, total, err = repo.ListPublished(PublicListOptions{Search: "gardener", Limit: 50})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "Iris Bloom", matches[0].Name)
}

func TestListPublishedSorting(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMemorialRepository(db)

	old := seedMemorial(t, repo, &models.Memorial{Name: "Memorial 10", IsPublished: true})
	mid := seedMemorial(t, repo, &models.Memorial{Name: "Memorial 2", IsPublished: true})
	recent := seedMemorial(t, repo, &models.Memorial{Name: "Another", IsPublished: true})

	// spread creation times apart deterministically
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{old.ID, mid.ID, recent.ID} {
		require.NoError(t, db.Model(&models.Memorial{}).Where("id = ?", id).
			Update("created_at", base.Add(time.Duration(i)*time.Hour)).Error)
	}

	byRecent, _, err := repo.ListPublished(PublicListOptions{Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, recent.ID, byRecent[0].ID)

	byOldest, _, err := repo.ListPublished(PublicListOptions{SortBy: "oldest", Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, old.ID, byOldest[0].ID)

	byName, _, err := repo.ListPublished(PublicListOptions{SortBy: "name", Limit: 50})
	require.NoError(t, err)
	// natural ordering: "Memorial 2" sorts before "Memorial 10"
	assert.Equal(t, "Another", byName[0].Name)
	assert.Equal(t, "Memorial 2", byName[1].Name)
	assert.Equal(t, "Memorial 10", byName[2].Name)
}

func TestListPublishedPagination(t *testing.T) {
	repo := NewMemorialRepository(setupTestDB(t))
	for i := 0; i < 5; i++ {
		seedMemorial(t, repo, &models.Memorial{Name: "Rose", IsPublished: true})
	}

	page, total, err := repo.ListPublished(PublicListOptions{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 2)

	page, total, err = repo.ListPublished(PublicListOptions{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 1)

	page, total, err = repo.ListPublished(PublicListOptions{Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, page)
}

func TestUpdateMemoryWall(t *testing.T) {
	repo := NewMemorialRepository(setupTestDB(t))
	m := seedMemorial(t, repo, &models.Memorial{Name: "Rose"})

	wall := models.Tributes{{ID: "t1", AuthorName: "Ada", Message: "hello", SessionID: "s1"}}
	require.NoError(t, repo.UpdateMemoryWall(m.ID, wall))

	got, err := repo.GetByID(m.ID)
	require.NoError(t, err)
	require.Len(t, got.MemoryWall, 1)
	assert.Equal(t, "s1", got.MemoryWall[0].SessionID)
}

func TestSetPublished(t *testing.T) {
	repo := NewMemorialRepository(setupTestDB(t))
	m := seedMemorial(t, repo, &models.Memorial{Name: "Rose"})
	assert.False(t, m.IsPublished)

	require.NoError(t, repo.SetPublished(m.ID))

	got, err := repo.GetByID(m.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublished)
}

func TestMemorialSchemaCascadesOnUserDelete(t *testing.T) {
	db := setupTestDB(t)
	assert.True(t, db.Migrator().HasConstraint(&models.Memorial{}, "User"))
}

func TestDeleteCascadesMemories(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMemorialRepository(db)
	memoryRepo := NewMemoryRepository(db)

	m := seedMemorial(t, repo, &models.Memorial{Name: "Rose"})
	require.NoError(t, db.Create(&models.Memory{MemorialID: m.ID, Text: "lake trip", Author: "Ada"}).Error)

	require.NoError(t, repo.Delete(m.ID))

	_, err := repo.GetByID(m.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	memories, err := memoryRepo.ListByMemorial(m.ID)
	require.NoError(t, err)
	assert.Empty(t, memories)
}

func TestJSONColumnsSurviveRoundTrip(t *testing.T) {
	repo := NewMemorialRepository(setupTestDB(t))
	m := seedMemorial(t, repo, &models.Memorial{
		Name:      "Rose",
		Timeline:  models.TimelineEvents{{Year: "1950", Title: "Born"}},
		Favorites: models.Favorites{{Category: "food", Answer: "lasagna"}},
		Gallery:   models.GalleryImages{{URL: "https://example.com/1.jpg", Caption: "summer"}},
		ServiceInfo: models.ServiceInfo{
			Venue: "St. Mary's",
		},
	})

	got, err := repo.GetByID(m.ID)
	require.NoError(t, err)
	require.Len(t, got.Timeline, 1)
	assert.Equal(t, "Born", got.Timeline[0].Title)
	require.Len(t, got.Favorites, 1)
	assert.Equal(t, "lasagna", got.Favorites[0].Text())
	require.Len(t, got.Gallery, 1)
	assert.Equal(t, "St. Mary's", got.ServiceInfo.Venue)
	// untouched collections come back as empty arrays, not NULLs
	assert.NotNil(t, got.FamilyTree)
	assert.NotNil(t, got.MemoryWall)
}
