package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wings-of-memory/memorialbackend/models"
	"github.com/wings-of-memory/memorialbackend/repository"
)

// MemorialHandler serves the owner dashboard routes: list, read, create,
// partial update, publish and delete.
type MemorialHandler struct {
	MemorialRepo repository.MemorialRepositoryInterface
	MemoryRepo   repository.MemoryRepositoryInterface
}

func NewMemorialHandler(memorialRepo repository.MemorialRepositoryInterface, memoryRepo repository.MemoryRepositoryInterface) *MemorialHandler {
	return &MemorialHandler{MemorialRepo: memorialRepo, MemoryRepo: memoryRepo}
}

// ownedMemorial loads a memorial and checks it belongs to the caller.
// Missing and not-owned are indistinguishable to the client: both 404.
func (h *MemorialHandler) ownedMemorial(w http.ResponseWriter, r *http.Request, id string) (*models.Memorial, bool) {
	memorial, err := h.MemorialRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "Memorial not found", "")
			return nil, false
		}
		log.Printf("Error fetching memorial %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch memorial", "")
		return nil, false
	}

	userID := userIDFromContext(r.Context())
	if memorial.UserID == nil || *memorial.UserID != userID {
		writeError(w, http.StatusNotFound, "Memorial not found", "")
		return nil, false
	}
	return memorial, true
}

func (h *MemorialHandler) viewOf(memorial *models.Memorial, opts models.ViewOptions) models.MemorialView {
	memories, err := h.MemoryRepo.ListByMemorial(memorial.ID)
	if err != nil {
		log.Printf("Error fetching memories for memorial %s: %v", memorial.ID, err)
		memories = nil
	}
	return models.NewMemorialView(memorial, memories, opts)
}

// ListMine returns the caller's memorials, newest first.
func (h *MemorialHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	memorials, err := h.MemorialRepo.ListByUser(userID)
	if err != nil {
		log.Printf("Error listing memorials for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch memorials", "")
		return
	}

	views := make([]models.MemorialView, 0, len(memorials))
	for i := range memorials {
		views = append(views, h.viewOf(&memorials[i], models.ViewOptions{}))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *MemorialHandler) Get(w http.ResponseWriter, r *http.Request) {
	memorial, ok := h.ownedMemorial(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.viewOf(memorial, models.ViewOptions{}))
}

func (h *MemorialHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	userID := userIDFromContext(r.Context())
	memorial := &models.Memorial{UserID: &userID}
	applyMemorialBody(memorial, body, nil)

	if strings.TrimSpace(memorial.Name) == "" {
		writeError(w, http.StatusBadRequest, "Name is required", "")
		return
	}

	if err := h.MemorialRepo.Create(memorial); err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusBadRequest, "Custom URL already taken", "")
			return
		}
		log.Printf("Error creating memorial: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create memorial", "")
		return
	}

	writeJSON(w, http.StatusCreated, h.viewOf(memorial, models.ViewOptions{}))
}

// Update applies a partial update: only keys present in the body are
// touched, everything else keeps its stored value.
func (h *MemorialHandler) Update(w http.ResponseWriter, r *http.Request) {
	memorial, ok := h.ownedMemorial(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	updates := map[string]interface{}{}
	applyMemorialBody(memorial, body, updates)

	if len(updates) > 0 {
		if err := h.MemorialRepo.UpdateFields(memorial.ID, updates); err != nil {
			if isUniqueViolation(err) {
				writeError(w, http.StatusBadRequest, "Custom URL already taken", "")
				return
			}
			log.Printf("Error updating memorial %s: %v", memorial.ID, err)
			writeError(w, http.StatusInternalServerError, "Failed to update memorial", "")
			return
		}
	}

	updated, err := h.MemorialRepo.GetByID(memorial.ID)
	if err != nil {
		log.Printf("Error reloading memorial %s: %v", memorial.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch memorial", "")
		return
	}
	writeJSON(w, http.StatusOK, h.viewOf(updated, models.ViewOptions{}))
}

func (h *MemorialHandler) Publish(w http.ResponseWriter, r *http.Request) {
	memorial, ok := h.ownedMemorial(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.MemorialRepo.SetPublished(memorial.ID); err != nil {
		log.Printf("Error publishing memorial %s: %v", memorial.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to publish memorial", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Memorial published",
		"id":          memorial.ID,
		"isPublished": true,
	})
}

func (h *MemorialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	memorial, ok := h.ownedMemorial(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.MemorialRepo.Delete(memorial.ID); err != nil {
		log.Printf("Error deleting memorial %s: %v", memorial.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete memorial", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Memorial deleted"})
}

// applyMemorialBody merges the present keys of body onto m. When
// updates is non-nil every touched column is also recorded there for a
// column-scoped write. Absent keys are never touched; collection keys
// present with a malformed value are coerced to an empty array.
func applyMemorialBody(m *models.Memorial, body map[string]json.RawMessage, updates map[string]interface{}) {
	touch := func(column string, value interface{}) {
		if updates != nil {
			updates[column] = value
		}
	}

	setString := func(key, column string, dst *string) {
		raw, ok := body[key]
		if !ok {
			return
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return
		}
		*dst = s
		touch(column, s)
	}

	setString("name", "name", &m.Name)
	setString("profileImage", "profile_image", &m.ProfileImage)
	setString("birthDate", "birth_date", &m.BirthDate)
	setString("deathDate", "death_date", &m.DeathDate)
	setString("location", "location", &m.Location)
	setString("obituary", "obituary", &m.Obituary)
	setString("theme", "theme", &m.Theme)

	if raw, ok := body["timeline"]; ok {
		var timeline models.TimelineEvents
		decodeLooseArray(raw, &timeline)
		m.Timeline = timeline
		touch("timeline", timeline)
	}
	if raw, ok := body["favorites"]; ok {
		var favorites models.Favorites
		decodeLooseArray(raw, &favorites)
		m.Favorites = favorites
		touch("favorites", favorites)
	}
	if raw, ok := body["familyTree"]; ok {
		var family models.FamilyMembers
		decodeLooseArray(raw, &family)
		m.FamilyTree = family
		touch("family_tree", family)
	}
	if raw, ok := body["gallery"]; ok {
		var gallery models.GalleryImages
		decodeLooseArray(raw, &gallery)
		normalizeGallery(gallery)
		m.Gallery = gallery
		touch("gallery", gallery)
	}

	// The memory wall is accepted under either of its two client names;
	// tributes wins when a client sends both.
	wallRaw, hasWall := body["tributes"]
	if !hasWall {
		wallRaw, hasWall = body["memoryWall"]
	}
	if hasWall {
		var wall models.Tributes
		decodeLooseArray(wallRaw, &wall)
		m.MemoryWall = wall
		touch("memory_wall", wall)
	}

	serviceRaw, hasService := body["serviceInfo"]
	if !hasService {
		serviceRaw, hasService = body["service"]
	}
	if hasService {
		m.ServiceInfo = mergeServiceInfo(m.ServiceInfo, serviceRaw)
		touch("service_info", m.ServiceInfo)
	}

	if raw, ok := body["isPublished"]; ok {
		var published bool
		if err := json.Unmarshal(raw, &published); err == nil {
			m.IsPublished = published
			touch("is_published", published)
		}
	}

	// An empty or unchanged customUrl is ignored so clients echoing the
	// full object back never clobber an existing slug.
	if raw, ok := body["customUrl"]; ok {
		var slug string
		if err := json.Unmarshal(raw, &slug); err == nil {
			slug = strings.TrimSpace(slug)
			if slug != "" && slug != m.CustomURLValue() {
				m.CustomURL = &slug
				touch("custom_url", slug)
			}
		}
	}
}

// decodeLooseArray normalizes raw to a JSON array document and decodes
// it into dst. dst ends up an empty slice when the value is unusable.
func decodeLooseArray(raw json.RawMessage, dst interface{}) {
	if err := json.Unmarshal(models.NormalizeArrayJSON([]byte(raw)), dst); err != nil {
		log.Printf("decodeLooseArray: elements do not match target type: %v", err)
	}
}

// normalizeGallery fills the defaults of freshly-submitted gallery
// entries: id, category, upload timestamp, and the caption family
// cross-filled against the values as submitted.
func normalizeGallery(gallery models.GalleryImages) {
	now := time.Now().UTC().Format(time.RFC3339)
	for i := range gallery {
		if gallery[i].ID == "" {
			gallery[i].ID = uuid.NewString()
		}
		if strings.TrimSpace(gallery[i].Category) == "" {
			gallery[i].Category = models.DefaultGalleryCategory
		}
		caption, description := gallery[i].Caption, gallery[i].Description
		if gallery[i].Caption == "" {
			gallery[i].Caption = description
		}
		if gallery[i].Description == "" {
			gallery[i].Description = caption
		}
		if gallery[i].Alt == "" {
			gallery[i].Alt = firstFilled(caption, description)
		}
		if gallery[i].Title == "" {
			gallery[i].Title = firstFilled(caption, description)
		}
		if gallery[i].UploadedAt == "" {
			gallery[i].UploadedAt = now
		}
	}
}

func firstFilled(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// mergeServiceInfo overlays the present fields of raw onto current.
func mergeServiceInfo(current models.ServiceInfo, raw json.RawMessage) models.ServiceInfo {
	var patch struct {
		Venue           *string `json:"venue"`
		Address         *string `json:"address"`
		Date            *string `json:"date"`
		Time            *string `json:"time"`
		VirtualLink     *string `json:"virtualLink"`
		VirtualPlatform *string `json:"virtualPlatform"`
	}
	if err := json.Unmarshal(raw, &patch); err != nil {
		return current.WithDefaults()
	}
	if patch.Venue != nil {
		current.Venue = *patch.Venue
	}
	if patch.Address != nil {
		current.Address = *patch.Address
	}
	if patch.Date != nil {
		current.Date = *patch.Date
	}
	if patch.Time != nil {
		current.Time = *patch.Time
	}
	if patch.VirtualLink != nil {
		current.VirtualLink = *patch.VirtualLink
	}
	if patch.VirtualPlatform != nil {
		current.VirtualPlatform = *patch.VirtualPlatform
	}
	return current.WithDefaults()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
