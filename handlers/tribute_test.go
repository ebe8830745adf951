package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wings-of-memory/memorialbackend/models"
)

func (e *testEnv) publishedMemorial(t *testing.T) (string, models.MemorialView) {
	t.Helper()
	token, _ := e.registerUser(t, "Ada", "ada-owner@example.com")
	view := e.createMemorial(t, token, map[string]interface{}{"name": "Rose Carter"})
	rec := e.request(t, http.MethodPost, "/api/memorials/"+view.ID+"/publish", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	return token, view
}

func TestTributeCreateRequiresPublishedMemorial(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerUser(t, "Ada", "ada@example.com")
	draft := env.createMemorial(t, token, map[string]interface{}{"name": "Rose Carter"})

	rec := env.request(t, http.MethodPost, "/api/memorials/public/"+draft.ID+"/tributes", "", map[string]string{
		"authorName": "Grace",
		"message":    "remembered fondly",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	var apiErr APIError
	decodeBody(t, rec, &apiErr)
	assert.Equal(t, "This memorial is not accepting tributes", apiErr.Error)
}

func TestTributeCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	_, view := env.publishedMemorial(t)

	rec := env.request(t, http.MethodPost, "/api/memorials/public/"+view.ID+"/tributes", "", map[string]string{
		"authorName": "Grace",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(t, http.MethodPost, "/api/memorials/public/"+view.ID+"/tributes", "", map[string]string{
		"message": "no name",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTributeCreateStoresSession(t *testing.T) {
	env := newTestEnv(t)
	_, view := env.publishedMemorial(t)

	rec := env.request(t, http.MethodPost, "/api/memorials/public/"+view.ID+"/tributes", "", map[string]string{
		"authorName": "Grace",
		"message":    "remembered fondly",
		"sessionId":  "visitor-session-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp tributeResponse
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Tribute.ID)
	assert.Equal(t, "visitor-session-1", resp.Tribute.SessionID)
	assert.Equal(t, "just now", resp.Tribute.RelativeTime)
	assert.False(t, resp.Tribute.IsAnonymous)
	assert.True(t, resp.Tribute.IsPublic)
}

func TestTributeCreateGeneratesSessionWhenAbsent(t *testing.T) {
	env := newTestEnv(t)
	_, view := env.publishedMemorial(t)

	rec := env.request(t, http.MethodPost, "/api/memorials/public/"+view.ID+"/tributes", "", map[string]string{
		"authorName": "Anonymous",
		"message":    "quietly grateful",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp tributeResponse
	decodeBody(t, rec, &resp)
	assert.NotEmpty(t, resp.Tribute.SessionID, "server mints a session id for later edits")
	assert.True(t, resp.Tribute.IsAnonymous)
}

func TestTributeEditRequiresMatchingSession(t *testing.T) {
	env := newTestEnv(t)
	_, view := env.publishedMemorial(t)

	rec := env.request(t, http.MethodPost, "/api/memorials/public/"+view.ID+"/tributes", "", map[string]string{
		"authorName": "Grace",
		"message":    "original message",
		"sessionId":  "session-a",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created tributeResponse
	decodeBody(t, rec, &created)

	// wrong session: 403 and the entry stays untouched
	rec = env.request(t, http.MethodPut, "/api/memorials/public/"+view.ID+"/tributes/"+created.Tribute.ID, "", map[string]string{
		"message":   "hijacked",
		"sessionId": "session-b",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	var apiErr APIError
	decodeBody(t, rec, &apiErr)
	assert.Equal(t, "Unauthorized to edit this tribute", apiErr.Error)
	assert.Equal(t, "Session ID does not match", apiErr.Details)

	// right session: the edit lands and updatedAt is stamped
	rec = env.request(t, http.MethodPut, "/api/memorials/public/"+view.ID+"/tributes/"+created.Tribute.ID, "", map[string]string{
		"message":   "revised message",
		"sessionId": "session-a",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var edited tributeResponse
	decodeBody(t, rec, &edited)
	assert.Equal(t, "revised message", edited.Tribute.Message)
	assert.Equal(t, "Grace", edited.Tribute.AuthorName, "untouched fields survive")
	assert.NotEmpty(t, edited.Tribute.UpdatedAt)
}

func TestTributeDeleteRequiresMatchingSession(t *testing.T) {
	env := newTestEnv(t)
	_, view := env.publishedMemorial(t)

	rec := env.request(t, http.MethodPost, "/api/memorials/public/"+view.ID+"/tributes", "", map[string]string{
		"authorName": "Grace",
		"message":    "a memory",
		"sessionId":  "session-a",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created tributeResponse
	decodeBody(t, rec, &created)

	rec = env.request(t, http.MethodDelete, "/api/memorials/public/"+view.ID+"/tributes/"+created.Tribute.ID, "", map[string]string{
		"sessionId": "session-b",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.request(t, http.MethodDelete, "/api/memorials/public/"+view.ID+"/tributes/"+created.Tribute.ID, "", map[string]string{
		"sessionId": "session-a",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// wall is empty afterwards
	rec = env.request(t, http.MethodGet, "/api/memorials/public/"+view.ID+"/tributes", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Tributes []models.TributeView `json:"tributes"`
		Total    int                  `json:"total"`
	}
	decodeBody(t, rec, &list)
	assert.Zero(t, list.Total)
	assert.Empty(t, list.Tributes)
}

func TestTributeEditUnknownTribute(t *testing.T) {
	env := newTestEnv(t)
	_, view := env.publishedMemorial(t)

	rec := env.request(t, http.MethodPut, "/api/memorials/public/"+view.ID+"/tributes/nope", "", map[string]string{
		"message":   "x",
		"sessionId": "s",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTributeListWithRelativeTime(t *testing.T) {
	env := newTestEnv(t)
	_, view := env.publishedMemorial(t)

	for _, msg := range []string{"first", "second"} {
		rec := env.request(t, http.MethodPost, "/api/memorials/public/"+view.ID+"/tributes", "", map[string]string{
			"authorName": "Grace",
			"message":    msg,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.request(t, http.MethodGet, "/api/memorials/public/"+view.ID+"/tributes", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Tributes []models.TributeView `json:"tributes"`
		Total    int                  `json:"total"`
	}
	decodeBody(t, rec, &list)
	require.Equal(t, 2, list.Total)
	assert.Equal(t, "first", list.Tributes[0].Message)
	assert.Equal(t, "just now", list.Tributes[0].RelativeTime)
}

func TestTributeResolvesByCustomURL(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.registerUser(t, "Ada", "ada@example.com")
	view := env.createMemorial(t, token, map[string]interface{}{
		"name":      "Rose Carter",
		"customUrl": "rose-carter",
	})
	rec := env.request(t, http.MethodPost, "/api/memorials/"+view.ID+"/publish", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// share links may carry a display prefix
	rec = env.request(t, http.MethodPost, "/api/memorials/public/memorial-rose-carter/tributes", "", map[string]string{
		"authorName": "Grace",
		"message":    "via slug",
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}
