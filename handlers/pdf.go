package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/wings-of-memory/memorialbackend/config"
	"github.com/wings-of-memory/memorialbackend/models"
	"github.com/wings-of-memory/memorialbackend/pdfgen"
	"github.com/wings-of-memory/memorialbackend/repository"
)

// PDFHandler renders memorial pages to PDF synchronously: the response
// streams the finished document. The GET preview endpoint reads the
// stored memorial; the POST endpoints print a client-supplied snapshot
// so the dashboard can export unsaved edits.
type PDFHandler struct {
	MemorialRepo repository.MemorialRepositoryInterface
	MemoryRepo   repository.MemoryRepositoryInterface
	Renderer     pdfgen.Renderer
	Optimizer    *pdfgen.Optimizer
	Cfg          *config.Config
}

func NewPDFHandler(memorialRepo repository.MemorialRepositoryInterface, memoryRepo repository.MemoryRepositoryInterface, renderer pdfgen.Renderer, optimizer *pdfgen.Optimizer, cfg *config.Config) *PDFHandler {
	return &PDFHandler{
		MemorialRepo: memorialRepo,
		MemoryRepo:   memoryRepo,
		Renderer:     renderer,
		Optimizer:    optimizer,
		Cfg:          cfg,
	}
}

// Preview prints the stored memorial and serves it inline. Drafts are
// printable: the published gate does not apply here.
func (h *PDFHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	memorial, err := h.MemorialRepo.GetByIdentifier(repository.CleanIdentifier(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "Memorial not found", "")
			return
		}
		log.Printf("Error resolving memorial %q for PDF preview: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Failed to generate PDF preview", "")
		return
	}

	memories, err := h.MemoryRepo.ListByMemorial(memorial.ID)
	if err != nil {
		log.Printf("Error fetching memories for memorial %s: %v", memorial.ID, err)
		memories = nil
	}

	view := models.NewMemorialView(memorial, memories, models.ViewOptions{})
	h.Optimizer.OptimizeView(r.Context(), &view)

	pdf, err := h.renderView(r, view)
	if err != nil {
		h.writeRenderError(w, "Failed to generate PDF preview", err)
		return
	}

	servePDF(w, pdf, "inline", pdfFilename(view.Name, false)+"-memorial.pdf")
}

type generatePayload struct {
	MemorialID string                     `json:"memorialId"`
	Data       map[string]json.RawMessage `json:"data"`
}

// Generate prints a client-supplied memorial snapshot as a download.
func (h *PDFHandler) Generate(w http.ResponseWriter, r *http.Request) {
	view, ok := h.snapshotView(w, r)
	if !ok {
		return
	}

	pdf, err := h.renderView(r, view)
	if err != nil {
		h.writeRenderError(w, "Failed to generate PDF", err)
		return
	}

	servePDF(w, pdf, "attachment", pdfFilename(view.Name, true)+"-memorial.pdf")
}

// GeneratePreview is Generate with an inline disposition, used by the
// dashboard's in-browser preview pane.
func (h *PDFHandler) GeneratePreview(w http.ResponseWriter, r *http.Request) {
	view, ok := h.snapshotView(w, r)
	if !ok {
		return
	}

	pdf, err := h.renderView(r, view)
	if err != nil {
		h.writeRenderError(w, "Failed to generate PDF preview", err)
		return
	}

	servePDF(w, pdf, "inline", pdfFilename(view.Name, false)+"-memorial-preview.pdf")
}

// snapshotView builds a view model from the request's data blob,
// re-fetching stored memories when a memorial id accompanies it.
func (h *PDFHandler) snapshotView(w http.ResponseWriter, r *http.Request) (models.MemorialView, bool) {
	var payload generatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload", err.Error())
		return models.MemorialView{}, false
	}
	if payload.Data == nil {
		writeError(w, http.StatusBadRequest, "Memorial data is required", "")
		return models.MemorialView{}, false
	}

	var memorial models.Memorial
	applyMemorialBody(&memorial, payload.Data, nil)

	var memories []models.Memory
	if payload.MemorialID != "" {
		var err error
		memories, err = h.MemoryRepo.ListByMemorial(payload.MemorialID)
		if err != nil {
			log.Printf("Error fetching memories for memorial %s: %v", payload.MemorialID, err)
			memories = nil
		}
	}

	return models.NewMemorialView(&memorial, memories, models.ViewOptions{}), true
}

func (h *PDFHandler) renderView(r *http.Request, view models.MemorialView) ([]byte, error) {
	html, err := pdfgen.RenderHTML(view, time.Now())
	if err != nil {
		return nil, fmt.Errorf("rendering template: %w", err)
	}
	return h.Renderer.RenderPDF(r.Context(), html)
}

// writeRenderError reports a failed print. Diagnostics stay out of
// production responses.
func (h *PDFHandler) writeRenderError(w http.ResponseWriter, message string, err error) {
	log.Printf("PDF generation error: %v", err)
	details := ""
	if !h.Cfg.IsProduction() {
		details = err.Error()
	}
	writeError(w, http.StatusInternalServerError, message, details)
}

func servePDF(w http.ResponseWriter, pdf []byte, disposition, filename string) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		log.Printf("Error streaming PDF: %v", err)
	}
}

// pdfFilename collapses the memorial name's whitespace to hyphens.
func pdfFilename(name string, lowercase bool) string {
	base := strings.Join(strings.Fields(name), "-")
	if base == "" {
		base = "memorial"
	}
	if lowercase {
		base = strings.ToLower(base)
	}
	return base
}
