package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/wings-of-memory/memorialbackend/models"
	"github.com/wings-of-memory/memorialbackend/repository"
)

// RSVPHandler serves service-attendance replies. Creation is public;
// reading and deleting are reserved to the memorial's owner.
type RSVPHandler struct {
	RSVPRepo     repository.RSVPRepositoryInterface
	MemorialRepo repository.MemorialRepositoryInterface
}

func NewRSVPHandler(rsvpRepo repository.RSVPRepositoryInterface, memorialRepo repository.MemorialRepositoryInterface) *RSVPHandler {
	return &RSVPHandler{RSVPRepo: rsvpRepo, MemorialRepo: memorialRepo}
}

type rsvpPayload struct {
	MemorialID string           `json:"memorialId"`
	FirstName  string           `json:"firstName"`
	LastName   string           `json:"lastName"`
	Email      *string          `json:"email"`
	Phone      *string          `json:"phone"`
	Attending  string           `json:"attending"`
	Guests     models.GuestList `json:"guests"`
}

// ListByMemorial returns all RSVPs of a memorial the caller owns.
func (h *RSVPHandler) ListByMemorial(w http.ResponseWriter, r *http.Request) {
	memorialID := chi.URLParam(r, "memorialId")
	userID := userIDFromContext(r.Context())

	memorial, err := h.MemorialRepo.GetByID(memorialID)
	if err != nil || memorial.UserID == nil || *memorial.UserID != userID {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Error fetching memorial %s: %v", memorialID, err)
		}
		writeError(w, http.StatusNotFound, "Memorial not found or unauthorized", "")
		return
	}

	rsvps, err := h.RSVPRepo.ListByMemorial(memorialID)
	if err != nil {
		log.Printf("Error fetching RSVPs for memorial %s: %v", memorialID, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch RSVPs", "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"rsvps": rsvps})
}

// Create records a public attendance reply for an existing memorial.
func (h *RSVPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload rsvpPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	if strings.TrimSpace(payload.FirstName) == "" || strings.TrimSpace(payload.LastName) == "" {
		writeError(w, http.StatusBadRequest, "First and last name are required", "")
		return
	}

	if _, err := h.MemorialRepo.GetByID(payload.MemorialID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "Memorial not found", "")
			return
		}
		log.Printf("Error fetching memorial %s: %v", payload.MemorialID, err)
		writeError(w, http.StatusInternalServerError, "Failed to create RSVP", "")
		return
	}

	rsvp := &models.RSVP{
		MemorialID: payload.MemorialID,
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		Email:      payload.Email,
		Phone:      payload.Phone,
		Attending:  payload.Attending,
		Guests:     payload.Guests,
	}
	if rsvp.Guests == nil {
		rsvp.Guests = models.GuestList{}
	}

	if err := h.RSVPRepo.Create(rsvp); err != nil {
		log.Printf("Error creating RSVP for memorial %s: %v", payload.MemorialID, err)
		writeError(w, http.StatusInternalServerError, "Failed to create RSVP", "")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"rsvp": rsvp})
}

// Delete removes an RSVP after checking the caller owns the memorial it
// belongs to.
func (h *RSVPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rsvpID := chi.URLParam(r, "id")
	userID := userIDFromContext(r.Context())

	rsvp, err := h.RSVPRepo.GetByID(rsvpID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "RSVP not found", "")
			return
		}
		log.Printf("Error fetching RSVP %s: %v", rsvpID, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete RSVP", "")
		return
	}

	memorial, err := h.MemorialRepo.GetByID(rsvp.MemorialID)
	if err != nil || memorial.UserID == nil || *memorial.UserID != userID {
		writeError(w, http.StatusForbidden, "Unauthorized", "")
		return
	}

	if err := h.RSVPRepo.Delete(rsvpID); err != nil {
		log.Printf("Error deleting RSVP %s: %v", rsvpID, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete RSVP", "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
