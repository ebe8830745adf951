package handlers

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wings-of-memory/memorialbackend/models"
)

func TestGeneratePDFRequiresData(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerUser(t, "Ada", "ada@example.com")

	rec := env.request(t, http.MethodPost, "/api/memorials/generate-pdf", token, map[string]interface{}{
		"memorialId": "m1",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr APIError
	decodeBody(t, rec, &apiErr)
	assert.Equal(t, "Memorial data is required", apiErr.Error)
	assert.Zero(t, env.renderer.calls)
}

func TestGeneratePDFDownload(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerUser(t, "Ada", "ada@example.com")

	rec := env.request(t, http.MethodPost, "/api/memorials/generate-pdf", token, map[string]interface{}{
		"data": map[string]interface{}{
			"name":     "Rose Carter",
			"obituary": "A life well lived.",
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="rose-carter-memorial.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, strconv.Itoa(rec.Body.Len()), rec.Header().Get("Content-Length"))
	assert.Equal(t, 1, env.renderer.calls)
	assert.Contains(t, env.renderer.html, "Rose Carter")
	assert.Contains(t, env.renderer.html, "A life well lived.")
}

func TestGeneratePreviewPDFInline(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerUser(t, "Ada", "ada@example.com")

	rec := env.request(t, http.MethodPost, "/api/memorials/generate-preview-pdf", token, map[string]interface{}{
		"data": map[string]interface{}{"name": "Rose Carter"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `inline; filename="Rose-Carter-memorial-preview.pdf"`, rec.Header().Get("Content-Disposition"))
}

func TestGeneratePDFAttachesStoredMemories(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerUser(t, "Ada", "ada@example.com")
	view := env.createMemorial(t, token, map[string]interface{}{"name": "Rose Carter"})
	require.NoError(t, env.db.Create(&models.Memory{
		MemorialID: view.ID,
		Text:       "the lake trip",
		Author:     "Ada",
	}).Error)

	rec := env.request(t, http.MethodPost, "/api/memorials/generate-pdf", token, map[string]interface{}{
		"memorialId": view.ID,
		"data":       map[string]interface{}{"name": "Rose Carter"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.renderer.calls)
}

func TestPreviewPDFFromStoredMemorial(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerUser(t, "Ada", "ada@example.com")
	view := env.createMemorial(t, token, map[string]interface{}{
		"name":     "Rose Carter",
		"obituary": "Remembered always.",
	})

	// drafts are previewable without auth
	rec := env.request(t, http.MethodGet, "/api/memorials/"+view.ID+"/preview-pdf", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `inline; filename="Rose-Carter-memorial.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, env.renderer.html, "Remembered always.")
}

func TestPreviewPDFUnknownMemorial(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodGet, "/api/memorials/nope/preview-pdf", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPDFRenderFailureReportsDetailOutsideProduction(t *testing.T) {
	env := newTestEnv(t)
	env.renderer.fail = true
	token, _ := env.registerUser(t, "Ada", "ada@example.com")

	rec := env.request(t, http.MethodPost, "/api/memorials/generate-pdf", token, map[string]interface{}{
		"data": map[string]interface{}{"name": "Rose Carter"},
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var apiErr APIError
	decodeBody(t, rec, &apiErr)
	assert.Equal(t, "Failed to generate PDF", apiErr.Error)
	assert.NotEmpty(t, apiErr.Details, "non-production responses carry diagnostics")
}

func TestPDFRenderFailureHidesDetailInProduction(t *testing.T) {
	env := newTestEnv(t)
	env.renderer.fail = true
	env.cfg.AppEnv = "production"
	token, _ := env.registerUser(t, "Ada", "ada@example.com")

	rec := env.request(t, http.MethodPost, "/api/memorials/generate-pdf", token, map[string]interface{}{
		"data": map[string]interface{}{"name": "Rose Carter"},
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var apiErr APIError
	decodeBody(t, rec, &apiErr)
	assert.Empty(t, apiErr.Details)
}
