package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wings-of-memory/memorialbackend/config"
	"github.com/wings-of-memory/memorialbackend/models"
	"github.com/wings-of-memory/memorialbackend/pdfgen"
	"github.com/wings-of-memory/memorialbackend/repository"
)

// stubRenderer satisfies pdfgen.Renderer without a browser.
type stubRenderer struct {
	calls int
	fail  bool
	html  string
}

func (s *stubRenderer) RenderPDF(_ context.Context, html string) ([]byte, error) {
	s.calls++
	s.html = html
	if s.fail {
		return nil, context.DeadlineExceeded
	}
	return []byte("%PDF-1.4 stub"), nil
}

type testEnv struct {
	router       chi.Router
	db           *gorm.DB
	cfg          config.Config
	memorialRepo *repository.MemorialRepository
	memoryRepo   *repository.MemoryRepository
	userRepo     *repository.UserRepository
	rsvpRepo     *repository.RSVPRepository
	renderer     *stubRenderer
}

// newTestEnv wires the full route tree against an in-memory database
// and a stubbed PDF renderer.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Memorial{}, &models.Memory{}, &models.RSVP{}))

	cfg := config.Config{
		Port:               "0",
		AppEnv:             "test",
		JWTSecret:          "test-secret",
		JWTExpirationDays:  7,
		ImageMaxSize:       1200,
		ImageJpegQuality:   80,
		ImageFetchTimeout:  time.Second,
		GalleryOptimizeCap: 20,
	}

	env := &testEnv{
		db:           db,
		cfg:          cfg,
		memorialRepo: repository.NewMemorialRepository(db),
		memoryRepo:   repository.NewMemoryRepository(db),
		userRepo:     repository.NewUserRepository(db),
		rsvpRepo:     repository.NewRSVPRepository(db),
		renderer:     &stubRenderer{},
	}

	authHandler := NewAuthHandler(env.userRepo, &env.cfg)
	memorialHandler := NewMemorialHandler(env.memorialRepo, env.memoryRepo)
	publicHandler := NewPublicMemorialHandler(env.memorialRepo, env.memoryRepo)
	tributeHandler := NewTributeHandler(env.memorialRepo)
	rsvpHandler := NewRSVPHandler(env.rsvpRepo, env.memorialRepo)
	optimizer := pdfgen.NewOptimizer(cfg.ImageFetchTimeout, cfg.ImageMaxSize, cfg.ImageJpegQuality, cfg.GalleryOptimizeCap)
	pdfHandler := NewPDFHandler(env.memorialRepo, env.memoryRepo, env.renderer, optimizer, &env.cfg)

	jwtSecret := []byte(cfg.JWTSecret)
	requireAuth := func(next http.Handler) http.Handler {
		return AuthMiddleware(jwtSecret, next)
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.With(requireAuth).Get("/me", authHandler.CurrentUser)
		})
		r.Route("/memorials", func(r chi.Router) {
			r.Get("/public", publicHandler.List)
			r.Route("/public/{identifier}", func(r chi.Router) {
				r.Get("/", publicHandler.Get)
				r.Get("/tributes", tributeHandler.List)
				r.Post("/tributes", tributeHandler.Create)
				r.Put("/tributes/{tributeId}", tributeHandler.Update)
				r.Delete("/tributes/{tributeId}", tributeHandler.Delete)
			})
			r.Get("/{id}/pdf-data", publicHandler.PDFData)
			r.Get("/{id}/preview-pdf", pdfHandler.Preview)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/", memorialHandler.ListMine)
				r.Post("/", memorialHandler.Create)
				r.Post("/generate-pdf", pdfHandler.Generate)
				r.Post("/generate-preview-pdf", pdfHandler.GeneratePreview)
				r.Get("/{id}", memorialHandler.Get)
				r.Put("/{id}", memorialHandler.Update)
				r.Post("/{id}/publish", memorialHandler.Publish)
				r.Delete("/{id}", memorialHandler.Delete)
			})
		})
		r.Route("/rsvps", func(r chi.Router) {
			r.Post("/", rsvpHandler.Create)
			r.With(requireAuth).Get("/{memorialId}", rsvpHandler.ListByMemorial)
			r.With(requireAuth).Delete("/{id}", rsvpHandler.Delete)
		})
	})

	env.router = r
	return env
}

// request performs one in-process HTTP call. A non-nil body is JSON
// encoded; a non-empty token rides as a bearer header.
func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

// registerUser creates an account and returns its bearer token and id.
func (e *testEnv) registerUser(t *testing.T, name, email string) (string, string) {
	t.Helper()
	rec := e.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp AuthResponse
	decodeBody(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User.ID
}

// createMemorial posts a memorial as the given user and returns its view.
func (e *testEnv) createMemorial(t *testing.T, token string, body map[string]interface{}) models.MemorialView {
	t.Helper()
	rec := e.request(t, http.MethodPost, "/api/memorials", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var view models.MemorialView
	decodeBody(t, rec, &view)
	require.NotEmpty(t, view.ID)
	return view
}
