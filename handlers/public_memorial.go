package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/wings-of-memory/memorialbackend/models"
	"github.com/wings-of-memory/memorialbackend/repository"
)

const (
	defaultPublicLimit  = 50
	obituaryExcerptRune = 150
)

// PublicMemorialHandler serves the unauthenticated read side: the
// published directory, individual published pages and the raw view
// model consumed by the PDF client.
type PublicMemorialHandler struct {
	MemorialRepo repository.MemorialRepositoryInterface
	MemoryRepo   repository.MemoryRepositoryInterface
}

func NewPublicMemorialHandler(memorialRepo repository.MemorialRepositoryInterface, memoryRepo repository.MemoryRepositoryInterface) *PublicMemorialHandler {
	return &PublicMemorialHandler{MemorialRepo: memorialRepo, MemoryRepo: memoryRepo}
}

// publicSummary is one row of the published directory listing.
type publicSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ProfileImage string    `json:"profileImage"`
	BirthDate    string    `json:"birthDate"`
	DeathDate    string    `json:"deathDate"`
	Location     string    `json:"location"`
	Obituary     string    `json:"obituary"`
	CustomURL    string    `json:"customUrl"`
	Theme        string    `json:"theme"`
	CreatedAt    time.Time `json:"createdAt"`
}

// publicMemorialResponse wraps a single page the way the public client
// reads it.
type publicMemorialResponse struct {
	Memorial models.MemorialView `json:"memorial"`
}

type publicListResponse struct {
	Memorials  []publicSummary `json:"memorials"`
	Pagination pagination      `json:"pagination"`
}

type pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// List returns published memorials with search, sorting and offset
// pagination. Obituaries are trimmed to a short excerpt.
func (h *PublicMemorialHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	opts := repository.PublicListOptions{
		Search: query.Get("search"),
		SortBy: query.Get("sortBy"),
		Limit:  defaultPublicLimit,
	}
	if v, err := strconv.Atoi(query.Get("limit")); err == nil && v > 0 {
		opts.Limit = v
	}
	if v, err := strconv.Atoi(query.Get("offset")); err == nil && v > 0 {
		opts.Offset = v
	}

	memorials, total, err := h.MemorialRepo.ListPublished(opts)
	if err != nil {
		log.Printf("Error listing published memorials: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch memorials", "")
		return
	}

	summaries := make([]publicSummary, 0, len(memorials))
	for i := range memorials {
		m := &memorials[i]
		summaries = append(summaries, publicSummary{
			ID:           m.ID,
			Name:         m.Name,
			ProfileImage: m.ProfileImage,
			BirthDate:    m.BirthDate,
			DeathDate:    m.DeathDate,
			Location:     m.Location,
			Obituary:     excerpt(m.Obituary, obituaryExcerptRune),
			CustomURL:    m.CustomURLValue(),
			Theme:        m.Theme,
			CreatedAt:    m.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, publicListResponse{
		Memorials: summaries,
		Pagination: pagination{
			Total:   total,
			Limit:   opts.Limit,
			Offset:  opts.Offset,
			HasMore: opts.Offset+len(summaries) < total,
		},
	})
}

// Get serves one published memorial by id or custom URL, with
// per-tribute relative timestamps. Unpublished pages read as missing.
func (h *PublicMemorialHandler) Get(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")

	memorial, err := h.publishedByIdentifier(identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "Memorial not found",
				"No published memorial matches \""+identifier+"\"")
			return
		}
		log.Printf("Error resolving memorial %q: %v", identifier, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch memorial", "")
		return
	}

	memories, err := h.MemoryRepo.ListByMemorial(memorial.ID)
	if err != nil {
		log.Printf("Error fetching memories for memorial %s: %v", memorial.ID, err)
		memories = nil
	}

	view := models.NewMemorialView(memorial, memories, models.ViewOptions{WithRelativeTime: true})
	writeJSON(w, http.StatusOK, publicMemorialResponse{Memorial: view})
}

// PDFData exposes the fully-normalized view model for the PDF client.
// Unlike Get it does not require the memorial to be published: owners
// preview drafts through it.
func (h *PublicMemorialHandler) PDFData(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	memorial, err := h.MemorialRepo.GetByIdentifier(repository.CleanIdentifier(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "Memorial not found", "")
			return
		}
		log.Printf("Error resolving memorial %q: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch memorial", "")
		return
	}

	memories, err := h.MemoryRepo.ListByMemorial(memorial.ID)
	if err != nil {
		log.Printf("Error fetching memories for memorial %s: %v", memorial.ID, err)
		memories = nil
	}

	writeJSON(w, http.StatusOK, models.NewMemorialView(memorial, memories, models.ViewOptions{}))
}

// publishedByIdentifier resolves an identifier to a published memorial.
// An unpublished match reads as not found.
func (h *PublicMemorialHandler) publishedByIdentifier(identifier string) (*models.Memorial, error) {
	memorial, err := h.MemorialRepo.GetByIdentifier(repository.CleanIdentifier(identifier))
	if err != nil {
		return nil, err
	}
	if !memorial.IsPublished {
		return nil, gorm.ErrRecordNotFound
	}
	return memorial, nil
}

// excerpt trims text to at most max runes, appending an ellipsis when
// something was cut.
func excerpt(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
