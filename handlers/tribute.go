package handlers

import (
	"crypto/rand"
	"encoding/hex"
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

// TributeHandler manages the public memory wall. Visitors are not
// authenticated; ownership of a tribute is carried by an opaque session
// id stored with the entry and echoed back on edits and deletes.
type TributeHandler struct {
	MemorialRepo repository.MemorialRepositoryInterface
}

func NewTributeHandler(memorialRepo repository.MemorialRepositoryInterface) *TributeHandler {
	return &TributeHandler{MemorialRepo: memorialRepo}
}

type tributePayload struct {
	AuthorName     string `json:"authorName"`
	AuthorLocation string `json:"authorLocation"`
	Message        string `json:"message"`
	AuthorImage    string `json:"authorImage"`
	SessionID      string `json:"sessionId"`
}

type tributeResponse struct {
	Success bool               `json:"success"`
	Tribute models.TributeView `json:"tribute"`
}

// resolveMemorial loads the memorial behind a public identifier,
// writing the 404 response itself on a miss.
func (h *TributeHandler) resolveMemorial(w http.ResponseWriter, identifier string) (*models.Memorial, bool) {
	memorial, err := h.MemorialRepo.GetByIdentifier(repository.CleanIdentifier(identifier))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "Memorial not found", "")
			return nil, false
		}
		log.Printf("Error resolving memorial %q: %v", identifier, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch memorial", "")
		return nil, false
	}
	return memorial, true
}

// List returns the memorial's tributes with relative timestamps.
func (h *TributeHandler) List(w http.ResponseWriter, r *http.Request) {
	memorial, ok := h.resolveMemorial(w, chi.URLParam(r, "identifier"))
	if !ok {
		return
	}

	now := time.Now()
	views := make([]models.TributeView, 0, len(memorial.MemoryWall))
	for _, tribute := range memorial.MemoryWall {
		views = append(views, models.NewTributeView(tribute, true, now))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tributes": views,
		"total":    len(views),
	})
}

// Create appends a tribute to a published memorial's wall. When the
// client sends no session id the server mints one and returns it so the
// author can edit or remove the entry later.
func (h *TributeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload tributePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	if strings.TrimSpace(payload.AuthorName) == "" || strings.TrimSpace(payload.Message) == "" {
		writeError(w, http.StatusBadRequest, "Author name and message are required", "")
		return
	}

	memorial, ok := h.resolveMemorial(w, chi.URLParam(r, "identifier"))
	if !ok {
		return
	}
	if !memorial.IsPublished {
		writeError(w, http.StatusForbidden, "This memorial is not accepting tributes", "")
		return
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = newSessionID()
	}

	tribute := models.Tribute{
		ID:             uuid.NewString(),
		AuthorName:     payload.AuthorName,
		AuthorLocation: payload.AuthorLocation,
		Message:        payload.Message,
		AuthorImage:    payload.AuthorImage,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
		IsPublic:       true,
		SessionID:      sessionID,
		IsAnonymous:    payload.AuthorName == "Anonymous",
	}

	wall := append(memorial.MemoryWall, tribute)
	if err := h.MemorialRepo.UpdateMemoryWall(memorial.ID, wall); err != nil {
		log.Printf("Error saving tribute for memorial %s: %v", memorial.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to add tribute", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, tributeResponse{
		Success: true,
		Tribute: models.NewTributeView(tribute, true, time.Now()),
	})
}

// Update edits a tribute in place. Only the session that created the
// entry may change it; non-empty fields overwrite, the rest stay.
func (h *TributeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload tributePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	memorial, ok := h.resolveMemorial(w, chi.URLParam(r, "identifier"))
	if !ok {
		return
	}

	tributeID := chi.URLParam(r, "tributeId")
	index := findTribute(memorial.MemoryWall, tributeID)
	if index < 0 {
		writeError(w, http.StatusNotFound, "Tribute not found", "")
		return
	}

	tribute := memorial.MemoryWall[index]
	if tribute.SessionID != payload.SessionID {
		writeError(w, http.StatusForbidden, "Unauthorized to edit this tribute", "Session ID does not match")
		return
	}

	if payload.AuthorName != "" {
		tribute.AuthorName = payload.AuthorName
	}
	if payload.AuthorLocation != "" {
		tribute.AuthorLocation = payload.AuthorLocation
	}
	if payload.Message != "" {
		tribute.Message = payload.Message
	}
	if payload.AuthorImage != "" {
		tribute.AuthorImage = payload.AuthorImage
	}
	tribute.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	tribute.IsAnonymous = tribute.AuthorName == "Anonymous"

	wall := memorial.MemoryWall
	wall[index] = tribute
	if err := h.MemorialRepo.UpdateMemoryWall(memorial.ID, wall); err != nil {
		log.Printf("Error updating tribute %s on memorial %s: %v", tributeID, memorial.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to edit tribute", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, tributeResponse{
		Success: true,
		Tribute: models.NewTributeView(tribute, true, time.Now()),
	})
}

// Delete removes a tribute. Session-gated like Update.
func (h *TributeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var payload tributePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	memorial, ok := h.resolveMemorial(w, chi.URLParam(r, "identifier"))
	if !ok {
		return
	}

	tributeID := chi.URLParam(r, "tributeId")
	index := findTribute(memorial.MemoryWall, tributeID)
	if index < 0 {
		writeError(w, http.StatusNotFound, "Tribute not found", "")
		return
	}

	if memorial.MemoryWall[index].SessionID != payload.SessionID {
		writeError(w, http.StatusForbidden, "Unauthorized to delete this tribute", "Session ID does not match")
		return
	}

	wall := append(memorial.MemoryWall[:index], memorial.MemoryWall[index+1:]...)
	if err := h.MemorialRepo.UpdateMemoryWall(memorial.ID, wall); err != nil {
		log.Printf("Error deleting tribute %s on memorial %s: %v", tributeID, memorial.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete tribute", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Tribute deleted successfully",
	})
}

func findTribute(wall models.Tributes, id string) int {
	for i := range wall {
		if wall[i].ID == id {
			return i
		}
	}
	return -1
}

// newSessionID mints a 128-bit hex token identifying an anonymous
// visitor session.
func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(buf)
}
