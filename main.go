package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/wings-of-memory/memorialbackend/config"
	"github.com/wings-of-memory/memorialbackend/database"
	"github.com/wings-of-memory/memorialbackend/handlers"
	"github.com/wings-of-memory/memorialbackend/pdfgen"
	"github.com/wings-of-memory/memorialbackend/repository"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database: %v", err)
	}

	memorialRepo := repository.NewMemorialRepository(db)
	memoryRepo := repository.NewMemoryRepository(db)
	userRepo := repository.NewUserRepository(db)
	rsvpRepo := repository.NewRSVPRepository(db)

	renderer := pdfgen.NewChromeRenderer(pdfgen.RendererOptions{
		ExecPath:          cfg.ChromePath,
		PageLoadTimeout:   cfg.PageLoadTimeout,
		ImageWaitPerImage: cfg.ImageWaitPerImage,
		ImageWaitTotal:    cfg.ImageWaitTotal,
		RenderTimeout:     cfg.PDFRenderTimeout,
	})
	optimizer := pdfgen.NewOptimizer(cfg.ImageFetchTimeout, cfg.ImageMaxSize, cfg.ImageJpegQuality, cfg.GalleryOptimizeCap)

	authHandler := handlers.NewAuthHandler(userRepo, &cfg)
	memorialHandler := handlers.NewMemorialHandler(memorialRepo, memoryRepo)
	publicHandler := handlers.NewPublicMemorialHandler(memorialRepo, memoryRepo)
	tributeHandler := handlers.NewTributeHandler(memorialRepo)
	rsvpHandler := handlers.NewRSVPHandler(rsvpRepo, memorialRepo)
	pdfHandler := handlers.NewPDFHandler(memorialRepo, memoryRepo, renderer, optimizer, &cfg)

	jwtSecret := []byte(cfg.JWTSecret)
	requireAuth := func(next http.Handler) http.Handler {
		return handlers.AuthMiddleware(jwtSecret, next)
	}

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// PDF rendering alone may take up to PDFRenderTimeout.
	r.Use(middleware.Timeout(cfg.PDFRenderTimeout + 30*time.Second))
	r.Use(corsHandler.Handler)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"message":"Memorial backend is running"}`)
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.With(requireAuth).Get("/me", authHandler.CurrentUser)
		})

		r.Route("/memorials", func(r chi.Router) {
			// public surface
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

			// owner surface
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

	serverAddr := ":" + cfg.Port
	log.Printf("Server listening on %s (env: %s)", serverAddr, cfg.AppEnv)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// PDF responses stream after a long synchronous render
		WriteTimeout: cfg.PDFRenderTimeout + 60*time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
